package main

import (
	"encoding/json"
	"fmt"
	"os"

	"eyesight-ctrl/closed_loop/subaru"
)

const (
	ModeOpenLoop = "open_loop"
	ModeSpeedPID = "speed_pid"
)

// Scenario defines a complete drive script
type Scenario struct {
	Meta      ScenarioMeta      `json:"meta"`
	Timing    ScenarioTiming    `json:"timing"`
	Defaults  Command           `json:"defaults"`
	Segments  []ScenarioSegment `json:"segments"`
	PIDConfig *PIDConfig        `json:"pid_config,omitempty"` // required by speed_pid
}

// ScenarioMeta contains scenario metadata
type ScenarioMeta struct {
	Name        string `json:"name"`
	Version     int    `json:"version"`
	Description string `json:"description"`
	ControlMode string `json:"control_mode,omitempty"` // "open_loop" or "speed_pid"
}

// ScenarioTiming defines timing parameters
type ScenarioTiming struct {
	DurationS float64 `json:"duration_s"`
}

// ScenarioSegment overrides the defaults over [t0, t1). A negative t1 runs
// to the end of the scenario.
type ScenarioSegment struct {
	T0             float64  `json:"t0"`
	T1             float64  `json:"t1"`
	Engaged        *bool    `json:"engaged,omitempty"`
	Steer          float64  `json:"steer,omitempty"`
	Accel          float64  `json:"accel_mps2,omitempty"`
	Cancel         bool     `json:"cancel,omitempty"`
	Alert          string   `json:"alert,omitempty"`
	LeadVisible    *bool    `json:"lead_visible,omitempty"`
	TargetSpeedMPS *float64 `json:"target_speed_mps,omitempty"`
	Comment        string   `json:"comment,omitempty"`
}

// Command is what the planner asks for at one instant.
type Command struct {
	Engaged     bool    `json:"engaged"`
	Steer       float64 `json:"steer"`
	Accel       float64 `json:"accel_mps2"`
	Cancel      bool    `json:"cancel"`
	Alert       string  `json:"alert"`
	LeftLine    bool    `json:"left_line"`
	RightLine   bool    `json:"right_line"`
	LeadVisible bool    `json:"lead_visible"`

	// TargetSpeedMPS is set when the active segment retargets the speed PID.
	TargetSpeedMPS *float64 `json:"-"`
}

var alerts = map[string]subaru.VisualAlert{
	"":               subaru.AlertNone,
	"none":           subaru.AlertNone,
	"steer_required": subaru.AlertSteerRequired,
	"ldw":            subaru.AlertLDW,
	"fcw":            subaru.AlertFCW,
}

// LoadScenario loads a scenario from JSON file
func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a scenario document.
func ParseScenario(data []byte) (Scenario, error) {
	var scen Scenario
	if err := json.Unmarshal(data, &scen); err != nil {
		return Scenario{}, fmt.Errorf("unmarshal: %w", err)
	}

	if scen.Timing.DurationS <= 0 {
		return Scenario{}, fmt.Errorf("invalid duration_s: %f", scen.Timing.DurationS)
	}

	if scen.Meta.ControlMode == "" {
		scen.Meta.ControlMode = ModeOpenLoop
	}

	switch scen.Meta.ControlMode {
	case ModeOpenLoop:
	case ModeSpeedPID:
		if scen.PIDConfig == nil {
			return Scenario{}, fmt.Errorf("speed_pid mode requires pid_config")
		}
		if err := scen.PIDConfig.validate(); err != nil {
			return Scenario{}, err
		}
	default:
		return Scenario{}, fmt.Errorf("unknown control_mode %q", scen.Meta.ControlMode)
	}

	if err := scen.Defaults.validate(); err != nil {
		return Scenario{}, fmt.Errorf("defaults: %w", err)
	}
	for i, seg := range scen.Segments {
		if seg.T1 >= 0 && seg.T1 <= seg.T0 {
			return Scenario{}, fmt.Errorf("segment %d: t1 %.3f not after t0 %.3f", i, seg.T1, seg.T0)
		}
		if seg.Steer < -1 || seg.Steer > 1 {
			return Scenario{}, fmt.Errorf("segment %d: steer %.3f outside [-1, 1]", i, seg.Steer)
		}
		if _, ok := alerts[seg.Alert]; !ok {
			return Scenario{}, fmt.Errorf("segment %d: unknown alert %q", i, seg.Alert)
		}
		if seg.TargetSpeedMPS != nil && *seg.TargetSpeedMPS < 0 {
			return Scenario{}, fmt.Errorf("segment %d: negative target_speed_mps", i)
		}
	}

	return scen, nil
}

func (c Command) validate() error {
	if c.Steer < -1 || c.Steer > 1 {
		return fmt.Errorf("steer %.3f outside [-1, 1]", c.Steer)
	}
	if _, ok := alerts[c.Alert]; !ok {
		return fmt.Errorf("unknown alert %q", c.Alert)
	}
	return nil
}

// EvalCommand evaluates the scenario at time t. The first matching segment
// wins.
func EvalCommand(scen *Scenario, t float64) Command {
	cmd := scen.Defaults

	for _, seg := range scen.Segments {
		t1 := seg.T1
		if t1 < 0 {
			t1 = scen.Timing.DurationS
		}

		if t >= seg.T0 && t < t1 {
			if seg.Engaged != nil {
				cmd.Engaged = *seg.Engaged
			}
			cmd.Steer = seg.Steer
			cmd.Accel = seg.Accel
			cmd.Cancel = seg.Cancel
			if seg.Alert != "" {
				cmd.Alert = seg.Alert
			}
			if seg.LeadVisible != nil {
				cmd.LeadVisible = *seg.LeadVisible
			}
			cmd.TargetSpeedMPS = seg.TargetSpeedMPS
			break
		}
	}

	return cmd
}

// Actuators returns the planner request of the command.
func (c Command) Actuators() subaru.Actuators {
	return subaru.Actuators{Steer: c.Steer, Accel: c.Accel}
}

// Context returns the per-cycle context for control frame n.
func (c Command) Context(n uint64) subaru.ControlContext {
	alert := alerts[c.Alert]
	return subaru.ControlContext{
		Enabled:         c.Engaged,
		Frame:           n,
		CancelRequest:   c.Cancel,
		VisualAlert:     alert,
		LeftLine:        c.LeftLine,
		RightLine:       c.RightLine,
		LeftLaneDepart:  alert == subaru.AlertLDW && c.Steer > 0,
		RightLaneDepart: alert == subaru.AlertLDW && c.Steer < 0,
		LeadVisible:     c.LeadVisible,
	}
}
