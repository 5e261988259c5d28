package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"github.com/urfave/cli"

	"eyesight-ctrl/utils"
)

var defaultBuses = []string{"0=can0", "2=can2"}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		_, _ = os.Stderr.WriteString("ERROR: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "closed_loop"
	app.Usage = "drive a Subaru EyeSight harness from a scenario"
	app.Flags = []cli.Flag{
		cli.StringSliceFlag{
			Name:   "bus",
			Usage:  "bus index to SocketCAN interface, e.g. 0=can0 (default 0=can0, 2=can2)",
			EnvVar: "EYESIGHT_BUSES",
		},
		cli.StringFlag{
			Name:   "can-map-dir",
			Value:  "config/can",
			Usage:  "directory holding subaru_<generation>.csv",
			EnvVar: "EYESIGHT_CAN_MAP_DIR",
		},
		cli.StringFlag{
			Name:   "can-map",
			Usage:  "signal database CSV, overrides --can-map-dir",
			EnvVar: "EYESIGHT_CAN_MAP",
		},
		cli.StringFlag{
			Name:   "vehicles",
			Value:  "config/vehicles.yaml",
			Usage:  "vehicle parameter file",
			EnvVar: "EYESIGHT_VEHICLES",
		},
		cli.StringFlag{
			Name:   "model",
			Usage:  "vehicle entry to load from --vehicles",
			EnvVar: "EYESIGHT_MODEL",
		},
		cli.StringFlag{
			Name:   "scenario",
			Value:  "closed_loop/scenarios/lane_keep_30s.json",
			Usage:  "scenario JSON file",
			EnvVar: "EYESIGHT_SCENARIO",
		},
		cli.IntFlag{
			Name:   "cycle-ms",
			Value:  10,
			Usage:  "control cycle period",
			EnvVar: "EYESIGHT_CYCLE_MS",
		},
		cli.StringFlag{
			Name:   "log",
			Value:  "info",
			Usage:  "trace|debug|info|warn|error|critical",
			EnvVar: "EYESIGHT_LOG",
		},
		cli.StringFlag{
			Name:   "log-file",
			Value:  "closed_loop.log",
			EnvVar: "EYESIGHT_LOG_FILE",
		},
		cli.IntFlag{
			Name:  "log-max-size-mb",
			Value: 50,
		},
		cli.IntFlag{
			Name:  "log-max-backups",
			Value: 5,
		},
		cli.IntFlag{
			Name:  "log-max-age-days",
			Value: 14,
		},
		cli.BoolFlag{
			Name:  "log-compress",
			Usage: "gzip rotated log files",
		},
		cli.BoolFlag{
			Name:  "quiet",
			Usage: "do not mirror the log to stdout",
		},
	}
	app.Action = run
	return app
}

func run(c *cli.Context) error {
	if c.String("model") == "" {
		return cli.NewExitError("--model is required", 2)
	}

	busArgs := c.StringSlice("bus")
	if len(busArgs) == 0 {
		busArgs = defaultBuses
	}
	buses, err := parseBuses(busArgs)
	if err != nil {
		return cli.NewExitError(err.Error(), 2)
	}

	base, err := utils.NewFileLogger(c.String("log-file"), utils.ParseLevel(c.String("log")), !c.Bool("quiet"), utils.RotateConfig{
		MaxSizeMB:  c.Int("log-max-size-mb"),
		MaxBackups: c.Int("log-max-backups"),
		MaxAgeDays: c.Int("log-max-age-days"),
		Compress:   c.Bool("log-compress"),
	})
	if err != nil {
		return fmt.Errorf("cannot open %s: %w", c.String("log-file"), err)
	}
	defer base.Close()

	log := base.With("session", uuid.New().String())

	cfg := RunnerConfig{
		Buses:        buses,
		CANMapDir:    c.String("can-map-dir"),
		CANMapPath:   c.String("can-map"),
		VehiclesPath: c.String("vehicles"),
		Model:        c.String("model"),
		ScenarioPath: c.String("scenario"),
		CycleMS:      c.Int("cycle-ms"),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner, err := NewRunner(ctx, cfg, log)
	if err != nil {
		log.Critical("Startup failed: %v", err)
		return err
	}

	runErr := runner.Run(ctx)
	runner.Close()

	if report, err := runner.Report(); err != nil {
		log.Warn("Summary render failed: %v", err)
	} else {
		pterm.DefaultSection.Println("Run summary")
		fmt.Print(report)
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Critical("Run failed: %v", runErr)
		return runErr
	}
	return nil
}

// parseBuses reads index=interface pairs.
func parseBuses(args []string) (map[int]string, error) {
	out := make(map[int]string, len(args))
	for _, arg := range args {
		for _, pair := range strings.Split(arg, ",") {
			idx, iface, ok := strings.Cut(strings.TrimSpace(pair), "=")
			if !ok || iface == "" {
				return nil, fmt.Errorf("bus %q: want index=interface", pair)
			}
			bus, err := strconv.Atoi(idx)
			if err != nil || bus < 0 {
				return nil, fmt.Errorf("bus %q: bad index", pair)
			}
			if prev, dup := out[bus]; dup {
				return nil, fmt.Errorf("bus %d given twice (%s, %s)", bus, prev, iface)
			}
			out[bus] = iface
		}
	}
	return out, nil
}

// busList formats buses in index order for logs.
func busList(buses map[int]string) string {
	idx := make([]int, 0, len(buses))
	for b := range buses {
		idx = append(idx, b)
	}
	sort.Ints(idx)
	parts := make([]string, len(idx))
	for i, b := range idx {
		parts[i] = fmt.Sprintf("%d=%s", b, buses[b])
	}
	return strings.Join(parts, ",")
}
