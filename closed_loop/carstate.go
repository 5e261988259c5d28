package main

import (
	"time"

	"eyesight-ctrl/closed_loop/subaru"
)

const kphToMPS = 1 / 3.6

// busUpdate is one decoded frame as seen on a bus.
type busUpdate struct {
	Bus    int
	Name   string
	Values map[string]float64
	At     time.Time
}

// carState folds decoded frames into the VehicleState handed to the
// controller each cycle.
type carState struct {
	gen      subaru.Generation
	source   map[string]int
	messages map[string]subaru.Message
	lastSeen map[string]time.Time
	state    subaru.VehicleState
}

func newCarState(gen subaru.Generation) *carState {
	c := &carState{
		gen: gen,
		source: map[string]int{
			"Steering_Torque": subaru.BusPT,
			"Wheel_Speeds":    subaru.BusPT,
			"CruiseControl":   subaru.BusPT,
			"Brake_Status":    subaru.BusPT,
			"ES_DashStatus":   subaru.BusCam,
		},
		messages: map[string]subaru.Message{},
		lastSeen: map[string]time.Time{},
		state: subaru.VehicleState{
			Ready:  gen == subaru.Global,
			Frames: map[subaru.Message]subaru.SourceFrame{},
		},
	}
	for _, m := range gen.EchoedMessages() {
		name := gen.MessageName(m)
		c.messages[name] = m
		if _, ok := c.source[name]; !ok {
			c.source[name] = subaru.BusCam
		}
	}
	return c
}

// apply folds u into the state. Frames from an unexpected bus, including our
// own echoes looped back, are ignored and reported false.
func (c *carState) apply(u busUpdate) bool {
	bus, ok := c.source[u.Name]
	if !ok || bus != u.Bus {
		return false
	}
	c.lastSeen[u.Name] = u.At

	v := u.Values
	switch u.Name {
	case "Steering_Torque":
		c.state.SteeringTorque = v["Steer_Torque_Sensor"]
	case "Wheel_Speeds":
		c.state.VEgo = (v["FL"] + v["FR"] + v["RL"] + v["RR"]) / 4 * kphToMPS
	case "CruiseControl":
		c.state.CruiseAvailable = v["Cruise_On"] != 0
	case "ES_Brake":
		c.state.ESBrakeActive = v["Cruise_Brake_Active"] != 0
		c.state.ESBrakePressure = v["Brake_Pressure"]
	case "ES_CruiseThrottle":
		c.state.CruiseButton = int(v["Cruise_Button"])
	case "ES_DashStatus":
		if c.gen == subaru.PreGlobal {
			c.state.Ready = v["Not_Ready_Startup"] == 0
		}
	}

	if m, ok := c.messages[u.Name]; ok {
		c.state.Frames[m] = subaru.SourceFrame{Values: v, Counter: int(v["Counter"])}
	}
	return true
}

// snapshot returns the state for one cycle. Decoded value maps are never
// written after apply, so only the frame index is copied.
func (c *carState) snapshot() *subaru.VehicleState {
	s := c.state
	s.Frames = make(map[subaru.Message]subaru.SourceFrame, len(c.state.Frames))
	for m, f := range c.state.Frames {
		s.Frames[m] = f
	}
	return &s
}

// age reports how long ago name was last accepted, and false if never.
func (c *carState) age(name string, now time.Time) (time.Duration, bool) {
	t, ok := c.lastSeen[name]
	if !ok {
		return 0, false
	}
	return now.Sub(t), true
}
