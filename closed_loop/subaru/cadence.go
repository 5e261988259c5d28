package subaru

import "fmt"

// CadenceTracker remembers the last stock counter echoed per message, so a
// message is re-emitted once per frame the stock ECU sends.
type CadenceTracker struct {
	gen  Generation
	last map[Message]int
}

// NewCadenceTracker returns an empty tracker. gen names messages in errors.
func NewCadenceTracker(gen Generation) CadenceTracker {
	return CadenceTracker{gen: gen, last: map[Message]int{}}
}

// Pending returns the source frame of m when its counter differs from the
// one last committed. Never-seen messages yield ErrMissingSourceFrame.
func (t CadenceTracker) Pending(m Message, cs *VehicleState) (SourceFrame, bool, error) {
	src, ok := cs.Frames[m]
	if !ok {
		return SourceFrame{}, false, fmt.Errorf("%s: %w", t.gen.MessageName(m), ErrMissingSourceFrame)
	}
	if last, seen := t.last[m]; seen && last == src.Counter {
		return src, false, nil
	}
	return src, true, nil
}

// Commit records counter as echoed for m.
func (t CadenceTracker) Commit(m Message, counter int) {
	t.last[m] = counter
}

// Last returns the committed counter of m, or -1.
func (t CadenceTracker) Last(m Message) int {
	if c, ok := t.last[m]; ok {
		return c
	}
	return -1
}

func (t CadenceTracker) clone() CadenceTracker {
	c := NewCadenceTracker(t.gen)
	for k, v := range t.last {
		c.last[k] = v
	}
	return c
}
