package subaru

import "fmt"

// Encoder packs signal values into a frame payload. *utils.CANMap satisfies
// it. Values outside the schema must fail, not wrap.
type Encoder interface {
	EncodeFrame(frameName string, values map[string]float64) ([]byte, uint32, error)
}

// dispatcher builds the frames of one bus generation.
type dispatcher interface {
	// steering builds the steering command of a steer cycle.
	steering(apply int, frame uint64) (OutboundFrame, error)
	// echoes builds the modified copies of stock messages that changed since
	// the last cycle and commits their counters.
	echoes(cs *VehicleState, cc ControlContext, lon longitudinal, st *ControllerState) ([]OutboundFrame, []error)
}

func newDispatcher(p Params, enc Encoder) (dispatcher, error) {
	switch p.Generation {
	case Global:
		return globalDispatcher{params: p, enc: enc}, nil
	case PreGlobal:
		return preGlobalDispatcher{params: p, enc: enc}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported generation %q", ErrConfiguration, p.Generation)
	}
}

// EchoedMessages lists the stock messages the generation re-emits, in
// emission order.
func (g Generation) EchoedMessages() []Message {
	if g == PreGlobal {
		return []Message{MsgESDistance}
	}
	return append([]Message(nil), globalEchoes...)
}

// steerCounter is the rolling counter of the steering frame.
func steerCounter(frame uint64, step int, modulo uint64) float64 {
	return float64((frame / uint64(step)) % modulo)
}

// checksumFunc computes the checksum byte of an encoded payload.
type checksumFunc func(id uint32, payload []byte) byte

// withChecksum encodes f once with its current values and returns it with the
// Checksum signal set from that payload. The checksum byte itself is excluded
// by every checksumFunc, so a stale stock value does not leak into the sum.
func withChecksum(enc Encoder, f OutboundFrame, sum checksumFunc) (OutboundFrame, error) {
	payload, id, err := enc.EncodeFrame(f.Name, f.values)
	if err != nil {
		return OutboundFrame{}, &FrameError{Message: f.Name, Err: err}
	}
	if len(payload) < 8 {
		return OutboundFrame{}, &FrameError{Message: f.Name, Err: fmt.Errorf("payload of %d bytes has no checksum byte", len(payload))}
	}
	return patch(f.Name, f.Bus, f.values).set("Checksum", float64(sum(id, payload))).build(), nil
}
