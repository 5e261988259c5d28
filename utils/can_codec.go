package utils

import (
	"fmt"

	"go.einride.tech/can"
)

// EncodingRangeError reports a signal value outside what the frame schema can
// represent, either its declared physical range or its raw bit width.
type EncodingRangeError struct {
	Frame  string
	Signal string
	Value  float64
	Min    float64
	Max    float64
}

func (e *EncodingRangeError) Error() string {
	return fmt.Sprintf("frame %s signal %s: value %g outside [%g, %g]", e.Frame, e.Signal, e.Value, e.Min, e.Max)
}

// EncodeFrame packs values into the payload of the named frame. Signals
// missing from values take their default. A value outside the signal's range
// fails the whole frame with *EncodingRangeError.
func (m *CANMap) EncodeFrame(frameName string, values map[string]float64) ([]byte, uint32, error) {
	fd, err := m.FrameByName(frameName)
	if err != nil {
		return nil, 0, err
	}
	if fd.DLC <= 0 || fd.DLC > 8 {
		return nil, 0, fmt.Errorf("frame %s has invalid DLC %d", fd.Name, fd.DLC)
	}

	var data can.Data
	for _, s := range fd.Signals {
		v, ok := values[s.Name]
		if !ok {
			v = s.Default
		}

		if s.HasRange() && (v < s.Min || v > s.Max) {
			return nil, 0, &EncodingRangeError{Frame: fd.Name, Signal: s.Name, Value: v, Min: s.Min, Max: s.Max}
		}

		raw := s.Raw(v)
		lo, hi := rawRange(s.BitLength, s.Signed)
		if raw < lo || raw > hi {
			return nil, 0, &EncodingRangeError{
				Frame:  fd.Name,
				Signal: s.Name,
				Value:  v,
				Min:    s.Physical(lo),
				Max:    s.Physical(hi),
			}
		}

		start, length := uint8(s.StartBit), uint8(s.BitLength)
		if s.Signed {
			data.SetSignedBitsLittleEndian(start, length, raw)
		} else {
			data.SetUnsignedBitsLittleEndian(start, length, uint64(raw))
		}
	}

	out := make([]byte, fd.DLC)
	copy(out, data[:fd.DLC])
	return out, fd.ID, nil
}

// NewCANFrame wraps a payload from EncodeFrame as a frame ready to transmit.
func NewCANFrame(id uint32, payload []byte) can.Frame {
	var f can.Frame
	f.ID = id
	f.Length = uint8(len(payload))
	copy(f.Data[:], payload)
	return f
}

func (m *CANMap) DecodeFrame(frameID uint32, data []byte) (map[string]float64, error) {
	fd, err := m.FrameByID(frameID)
	if err != nil {
		return nil, err
	}
	if len(data) < fd.DLC {
		return nil, fmt.Errorf("frame 0x%X expects DLC %d, got %d", frameID, fd.DLC, len(data))
	}

	var payload can.Data
	copy(payload[:], data[:fd.DLC])

	out := make(map[string]float64, len(fd.Signals))
	for _, s := range fd.Signals {
		start, length := uint8(s.StartBit), uint8(s.BitLength)
		var raw int64
		if s.Signed {
			raw = payload.SignedBitsLittleEndian(start, length)
		} else {
			raw = int64(payload.UnsignedBitsLittleEndian(start, length))
		}
		out[s.Name] = s.Physical(raw)
	}
	return out, nil
}

// DecodeEinrideFrame decodes a received frame, returning the frame name too.
func (m *CANMap) DecodeEinrideFrame(f can.Frame) (string, map[string]float64, error) {
	fd, err := m.FrameByID(f.ID)
	if err != nil {
		return "", nil, err
	}
	values, err := m.DecodeFrame(f.ID, f.Data[:f.Length])
	if err != nil {
		return "", nil, err
	}
	return fd.Name, values, nil
}
