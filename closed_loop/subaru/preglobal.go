package subaru

// Cruise_Button values of ES_CruiseThrottle: 1 main, 2 set shallow, 3 set
// deep, 4 resume shallow, 5 resume deep.
const (
	cruiseButtonNone = 0
	cruiseButtonMain = 1
)

type preGlobalDispatcher struct {
	params Params
	enc    Encoder
}

func (d preGlobalDispatcher) steering(apply int, frame uint64) (OutboundFrame, error) {
	p := patch(SteeringMessage, BusPT, nil).
		set("Counter", steerCounter(frame, d.params.SteerStep, 8)).
		set("LKAS_Command", float64(apply)).
		setBool("LKAS_Active", apply != 0)
	return withChecksum(d.enc, p.build(), preGlobalChecksum)
}

func (d preGlobalDispatcher) echoes(cs *VehicleState, cc ControlContext, _ longitudinal, st *ControllerState) ([]OutboundFrame, []error) {
	src, fresh, err := st.Cadence.Pending(MsgESDistance, cs)
	if err != nil {
		return nil, []error{err}
	}
	if !fresh {
		return nil, nil
	}
	defer st.Cadence.Commit(MsgESDistance, src.Counter)

	button := nextCruiseButton(cs, cc.CancelRequest, st.CruiseButtonPrev)
	st.CruiseButtonPrev = button

	p := patch(PreGlobal.MessageName(MsgESDistance), BusPT, src.Values).
		set("Cruise_Button", float64(button))
	f, err := withChecksum(d.enc, p.build(), preGlobalChecksum)
	if err != nil {
		return nil, []error{err}
	}
	return []OutboundFrame{f}, nil
}

// nextCruiseButton emulates the cruise stalk. A cancel, or the cruise main
// switch being off once the camera is ready, presses main; otherwise the
// driver's button passes through. Main is never held for two frames in a row.
func nextCruiseButton(cs *VehicleState, cancel bool, prev int) int {
	var button int
	switch {
	case cancel:
		button = cruiseButtonMain
	case !cs.CruiseAvailable && cs.Ready:
		button = cruiseButtonMain
	default:
		button = cs.CruiseButton
	}

	if button == cruiseButtonMain && prev == cruiseButtonMain {
		button = cruiseButtonNone
	}
	return button
}

// PreGlobalChecksum is the checksum of a preglobal payload.
func PreGlobalChecksum(payload []byte) byte {
	var sum int
	for _, b := range payload[:min(len(payload), 7)] {
		sum += int(b)
	}
	return byte(sum % 256)
}

func preGlobalChecksum(_ uint32, payload []byte) byte {
	return PreGlobalChecksum(payload)
}
