package main

import (
	"errors"
	"fmt"
	"sort"

	"github.com/pterm/pterm"

	"eyesight-ctrl/closed_loop/subaru"
)

type frameKey struct {
	Name string
	Bus  int
}

// runStats is owned by the control loop goroutine.
type runStats struct {
	cycles      uint64
	rateLimited uint64
	ignored     uint64
	sent        map[frameKey]uint64
	errors      map[string]uint64
}

func newRunStats() *runStats {
	return &runStats{
		sent:   map[frameKey]uint64{},
		errors: map[string]uint64{},
	}
}

func (s *runStats) totalSent() uint64 {
	var total uint64
	for _, n := range s.sent {
		total += n
	}
	return total
}

// recordErrors counts the failures of one cycle by message.
func (s *runStats) recordErrors(err error) {
	errs := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	}
	for _, e := range errs {
		var fe *subaru.FrameError
		if errors.As(e, &fe) {
			s.errors[fe.Message]++
			continue
		}
		s.errors["(cycle)"]++
	}
}

// render builds the summary tables: frames sent per message and bus, then
// errors per message.
func (s *runStats) render() (string, error) {
	keys := make([]frameKey, 0, len(s.sent))
	for k := range s.sent {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Bus != keys[j].Bus {
			return keys[i].Bus < keys[j].Bus
		}
		return keys[i].Name < keys[j].Name
	})

	sent := pterm.TableData{{"Message", "Bus", "Frames", "Errors"}}
	for _, k := range keys {
		sent = append(sent, []string{k.Name, fmt.Sprint(k.Bus), fmt.Sprint(s.sent[k]), fmt.Sprint(s.errors[k.Name])})
	}
	// failures of messages that never made it out
	names := make([]string, 0, len(s.errors))
	for name := range s.errors {
		if !s.hasSent(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		sent = append(sent, []string{name, "-", "0", fmt.Sprint(s.errors[name])})
	}

	frames, err := pterm.DefaultTable.WithHasHeader().WithData(sent).Srender()
	if err != nil {
		return "", err
	}

	totals, err := pterm.DefaultTable.WithData(pterm.TableData{
		{"Cycles", fmt.Sprint(s.cycles)},
		{"Steer rate limited", fmt.Sprint(s.rateLimited)},
		{"Frames sent", fmt.Sprint(s.totalSent())},
		{"RX ignored (wrong bus)", fmt.Sprint(s.ignored)},
	}).Srender()
	if err != nil {
		return "", err
	}

	return frames + "\n\n" + totals + "\n", nil
}

func (s *runStats) hasSent(name string) bool {
	for k := range s.sent {
		if k.Name == name {
			return true
		}
	}
	return false
}
