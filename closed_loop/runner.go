package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"path/filepath"
	"sync"
	"time"

	"eyesight-ctrl/closed_loop/subaru"
	"eyesight-ctrl/utils"
)

// feedbackTimeout is how old driver torque may get before the loop warns.
const feedbackTimeout = 500 * time.Millisecond

type RunnerConfig struct {
	Buses        map[int]string // bus index -> SocketCAN interface
	CANMapDir    string         // holds subaru_<generation>.csv
	CANMapPath   string         // overrides CANMapDir when set
	VehiclesPath string
	Model        string
	ScenarioPath string
	CycleMS      int
}

type Runner struct {
	cfg     RunnerConfig
	log     *utils.Logger
	cmap    *utils.CANMap
	ctrl    *subaru.Controller
	scen    Scenario
	writers map[int]utils.CANWriter
	readers map[int]utils.CANReader
	car     *carState
	pid     *PIDController // speed_pid mode only
	stats   *runStats
	wg      sync.WaitGroup
}

func NewRunner(ctx context.Context, cfg RunnerConfig, log *utils.Logger) (*Runner, error) {
	if cfg.CycleMS <= 0 {
		return nil, fmt.Errorf("invalid cycle_ms %d", cfg.CycleMS)
	}
	for _, bus := range []int{subaru.BusPT, subaru.BusCam} {
		if _, ok := cfg.Buses[bus]; !ok {
			return nil, fmt.Errorf("no interface configured for bus %d", bus)
		}
	}

	params, err := subaru.LoadParams(cfg.VehiclesPath, cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("load vehicle params: %w", err)
	}

	mapPath := cfg.CANMapPath
	if mapPath == "" {
		mapPath = filepath.Join(cfg.CANMapDir, fmt.Sprintf("subaru_%s.csv", params.Generation))
	}
	cmap, err := utils.LoadCANMap(mapPath)
	if err != nil {
		return nil, fmt.Errorf("load can map: %w", err)
	}
	if err := checkCANMap(cmap, params.Generation); err != nil {
		return nil, fmt.Errorf("can map %s: %w", mapPath, err)
	}

	scen, err := LoadScenario(cfg.ScenarioPath)
	if err != nil {
		return nil, fmt.Errorf("load scenario: %w", err)
	}

	ctrl, err := subaru.NewController(params, cmap, log)
	if err != nil {
		return nil, fmt.Errorf("controller: %w", err)
	}

	r := &Runner{
		cfg:     cfg,
		log:     log,
		cmap:    cmap,
		ctrl:    ctrl,
		scen:    scen,
		writers: map[int]utils.CANWriter{},
		readers: map[int]utils.CANReader{},
		car:     newCarState(params.Generation),
		stats:   newRunStats(),
	}

	for bus, iface := range cfg.Buses {
		writer, err := utils.NewSocketCANWriter(ctx, iface)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("bus %d: %w", bus, err)
		}
		r.writers[bus] = writer

		reader, err := utils.NewSocketCANReader(ctx, iface)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("bus %d: %w", bus, err)
		}
		r.readers[bus] = reader
	}

	if scen.Meta.ControlMode == ModeSpeedPID {
		r.pid = NewPIDController(*scen.PIDConfig)
		log.Info("PID controller initialized: target=%.2f m/s, Kp=%.2f, Ki=%.2f, Kd=%.2f",
			scen.PIDConfig.TargetSpeedMPS, scen.PIDConfig.Kp, scen.PIDConfig.Ki, scen.PIDConfig.Kd)
	}

	return r, nil
}

// Close shuts the sockets and waits for the receive loops to drain.
func (r *Runner) Close() {
	for _, rd := range r.readers {
		_ = rd.Close()
	}
	for _, w := range r.writers {
		_ = w.Close()
	}
	r.wg.Wait()
}

func (r *Runner) Run(ctx context.Context) error {
	params := r.ctrl.Params()
	r.log.Info("Starting control: model=%s generation=%s longitudinal=%v buses=%s scenario=%s duration=%.2fs mode=%s cycle_ms=%d",
		params.Model, params.Generation, params.Longitudinal, busList(r.cfg.Buses),
		r.scen.Meta.Name, r.scen.Timing.DurationS, r.scen.Meta.ControlMode, r.cfg.CycleMS)

	// receive loops blocked on a send exit when Run returns
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates := make(chan busUpdate, 256)
	for bus, rd := range r.readers {
		bus, rd := bus, rd // per-iteration copies (go directive is 1.21)
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.receiveLoop(ctx, bus, rd, updates)
		}()
	}

	cycle := time.Duration(r.cfg.CycleMS) * time.Millisecond
	dt := cycle.Seconds()
	start := time.Now()
	ticker := time.NewTicker(cycle)
	defer ticker.Stop()

	endAfter := time.Duration(r.scen.Timing.DurationS * float64(time.Second))
	var n uint64

	for {
		select {
		case <-ctx.Done():
			r.log.Warn("Context canceled; stopping control")
			r.log.Info("Completed. cycles=%d frames_sent=%d", n, r.stats.totalSent())
			return ctx.Err()

		case u := <-updates:
			if !r.car.apply(u) {
				r.stats.ignored++
				r.log.Trace("RX ignored %s on bus %d", u.Name, u.Bus)
			}

		case now := <-ticker.C:
			elapsed := now.Sub(start)
			if elapsed > endAfter {
				r.log.Info("Completed. cycles=%d frames_sent=%d", n, r.stats.totalSent())
				return nil
			}
			if err := r.step(ctx, n, elapsed.Seconds(), dt, now); err != nil {
				return err
			}
			n++
		}
	}
}

// step runs control cycle n and transmits its frames.
func (r *Runner) step(ctx context.Context, n uint64, t, dt float64, now time.Time) error {
	cs := r.car.snapshot()
	cmd := EvalCommand(&r.scen, t)

	if age, ok := r.car.age("Steering_Torque", now); (!ok || age > feedbackTimeout) && n%100 == 0 {
		r.log.Warn("No driver torque feedback (age %v) - steering limits use a stale value", age)
	}

	if r.pid != nil {
		if cmd.TargetSpeedMPS != nil {
			r.pid.SetTargetSpeed(*cmd.TargetSpeedMPS)
		}
		if cmd.Engaged {
			cmd.Accel = r.pid.Update(cs.VEgo, dt)
			if n%100 == 0 {
				diag := r.pid.GetDiagnostics()
				r.log.Debug("PID: v=%.2f target=%.2f err=%.3f accel=%.2f P=%.2f I=%.2f",
					cs.VEgo, r.pid.TargetSpeed(), diag.Error, cmd.Accel, diag.P, diag.I)
			}
		} else {
			r.pid.Reset()
		}
	}

	res, err := r.ctrl.Update(cs, cmd.Actuators(), cmd.Context(n))
	if err != nil {
		r.stats.recordErrors(err)
		r.log.Error("Cycle %d at t=%.3f: %v", n, t, err)
	}
	r.stats.cycles++
	if res.SteerRateLimited {
		r.stats.rateLimited++
	}
	trace := r.log.Enabled(utils.TRACE)
	if trace {
		r.log.Trace("Cycle %d t=%.3f engaged=%v steer req=%.3f applied=%.3f accel=%.2f v=%.2f",
			n, t, cmd.Engaged, cmd.Steer, res.Steer, cmd.Accel, cs.VEgo)
	}

	for _, f := range res.Frames {
		w, ok := r.writers[f.Bus]
		if !ok {
			return fmt.Errorf("frame %s: no writer for bus %d", f.Name, f.Bus)
		}
		if err := w.WriteFrame(ctx, f.Frame); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.log.Critical("Transmit %s on bus %d failed at t=%.3f: %v", f.Name, f.Bus, t, err)
			return err
		}
		r.stats.sent[frameKey{Name: f.Name, Bus: f.Bus}]++
		if trace {
			r.log.Trace("TX bus=%d %s id=0x%X len=%d data=% X",
				f.Bus, f.Name, f.Frame.ID, f.Frame.Length, f.Frame.Data[:f.Frame.Length])
		}
	}
	return nil
}

// receiveLoop decodes frames from one bus and forwards the known ones.
func (r *Runner) receiveLoop(ctx context.Context, bus int, rd utils.CANReader, out chan<- busUpdate) {
	r.log.Debug("RX loop started on bus %d", bus)
	defer r.log.Debug("RX loop stopped on bus %d", bus)

	for {
		frame, err := rd.ReadFrame(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return
			}
			r.log.Error("RX error on bus %d: %v", bus, err)
			continue
		}

		name, values, err := r.cmap.DecodeEinrideFrame(frame)
		if err != nil {
			// most of the bus is outside the signal database
			continue
		}

		select {
		case out <- busUpdate{Bus: bus, Name: name, Values: values, At: time.Now()}:
		case <-ctx.Done():
			return
		}
	}
}

// checkCANMap fails early when the database lacks a frame the controller
// writes, or the counter the cadence tracker follows.
func checkCANMap(cmap *utils.CANMap, gen subaru.Generation) error {
	names := []string{subaru.SteeringMessage}
	for _, m := range gen.EchoedMessages() {
		names = append(names, gen.MessageName(m))
	}
	for _, name := range names {
		fd, err := cmap.FrameByName(name)
		if err != nil {
			return err
		}
		if _, ok := fd.Signal("Counter"); !ok {
			return fmt.Errorf("frame %s has no Counter signal", name)
		}
	}
	return nil
}

// Report renders the end-of-run summary.
func (r *Runner) Report() (string, error) {
	return r.stats.render()
}
