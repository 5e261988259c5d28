package utils

import (
	"math"
	"sort"
)

type SignalDef struct {
	Name       string
	StartBit   int
	BitLength  int
	Signed     bool
	Factor     float64
	Offset     float64
	Min        float64
	Max        float64
	Default    float64
	Unit       string
	Comment    string
	Endianness string // only "little" supported
}

// HasRange reports whether the database declares a physical range. Rows with
// min == max leave the raw bit width as the only bound.
func (s SignalDef) HasRange() bool {
	return s.Min < s.Max
}

// Raw converts a physical value to its nearest raw integer.
func (s SignalDef) Raw(v float64) int64 {
	return int64(math.Round((v - s.Offset) / s.Factor))
}

// Physical converts a raw integer to its physical value.
func (s SignalDef) Physical(raw int64) float64 {
	return float64(raw)*s.Factor + s.Offset
}

type FrameDef struct {
	ID        uint32
	Name      string
	DLC       int
	Direction string
	CycleMS   int
	Signals   []SignalDef
}

// Signal returns the definition of the named signal.
func (fd *FrameDef) Signal(name string) (SignalDef, bool) {
	for _, s := range fd.Signals {
		if s.Name == name {
			return s, true
		}
	}
	return SignalDef{}, false
}

type CANMap struct {
	ByID   map[uint32]*FrameDef
	ByName map[string]*FrameDef
}

func (m *CANMap) FrameNames() []string {
	out := make([]string, 0, len(m.ByName))
	for k := range m.ByName {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
