package subaru

import (
	"sort"

	"go.einride.tech/can"
)

// Bus indices as wired on the harness: 0 is the car side, 2 the camera side.
const (
	BusPT  = 0
	BusCam = 2
)

// OutboundFrame is a message ready for encoding. Its values cannot be changed
// once built.
type OutboundFrame struct {
	Name   string
	Bus    int
	values map[string]float64
}

// Value returns a single signal value.
func (f OutboundFrame) Value(signal string) (float64, bool) {
	v, ok := f.values[signal]
	return v, ok
}

// Values returns a copy of the signal values.
func (f OutboundFrame) Values() map[string]float64 {
	out := make(map[string]float64, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out
}

// Signals lists the signal names in a stable order.
func (f OutboundFrame) Signals() []string {
	out := make([]string, 0, len(f.values))
	for k := range f.values {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// BusFrame pairs a frame with its wire encoding.
type BusFrame struct {
	OutboundFrame
	Frame can.Frame
}

// framePatch copies a stock baseline and overrides selected signals.
type framePatch struct {
	name   string
	bus    int
	values map[string]float64
}

func patch(name string, bus int, baseline map[string]float64) *framePatch {
	values := make(map[string]float64, len(baseline)+4)
	for k, v := range baseline {
		values[k] = v
	}
	return &framePatch{name: name, bus: bus, values: values}
}

func (p *framePatch) set(signal string, v float64) *framePatch {
	p.values[signal] = v
	return p
}

func (p *framePatch) setBool(signal string, b bool) *framePatch {
	return p.set(signal, boolToFloat(b))
}

func (p *framePatch) get(signal string) float64 {
	return p.values[signal]
}

func (p *framePatch) build() OutboundFrame {
	f := OutboundFrame{Name: p.name, Bus: p.bus, values: p.values}
	p.values = nil
	return f
}
