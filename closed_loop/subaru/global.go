package subaru

const (
	// cruise overrides sent while braking
	brakingCruiseThrottle = 808
	brakingCruiseRPM      = 600

	lkasAlertLeftDeparture  = 12
	lkasAlertRightDeparture = 11
)

// globalEchoes is the emission order of the stock messages on a cycle.
var globalEchoes = []Message{
	MsgESDistance,
	MsgESStatus,
	MsgESDashStatus,
	MsgESLKASState,
	MsgESBrake,
	MsgCruiseControl,
	MsgBrakeStatus,
}

type globalDispatcher struct {
	params Params
	enc    Encoder
}

func (d globalDispatcher) steering(apply int, frame uint64) (OutboundFrame, error) {
	f := patch(SteeringMessage, BusPT, nil).
		set("Counter", steerCounter(frame, d.params.SteerStep, 16)).
		set("LKAS_Output", float64(apply)).
		setBool("LKAS_Request", apply != 0).
		set("SET_1", 1).
		build()
	return withChecksum(d.enc, f, GlobalChecksum)
}

func (d globalDispatcher) echoes(cs *VehicleState, cc ControlContext, lon longitudinal, st *ControllerState) ([]OutboundFrame, []error) {
	var frames []OutboundFrame
	var errs []error

	for _, m := range globalEchoes {
		src, fresh, err := st.Cadence.Pending(m, cs)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !fresh {
			continue
		}
		f, err := withChecksum(d.enc, d.echo(m, src.Values, cs, cc, lon), GlobalChecksum)
		st.Cadence.Commit(m, src.Counter)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		frames = append(frames, f)
	}
	return frames, errs
}

// GlobalChecksum is the checksum of a global payload: both bytes of the
// arbitration ID plus payload bytes 1 to 7, modulo 256. Byte 0 carries the
// checksum itself.
func GlobalChecksum(id uint32, payload []byte) byte {
	sum := id&0xFF + id>>8&0xFF
	for _, b := range payload[min(len(payload), 1):min(len(payload), 8)] {
		sum += uint32(b)
	}
	return byte(sum & 0xFF)
}

func (d globalDispatcher) echo(m Message, base map[string]float64, cs *VehicleState, cc ControlContext, lon longitudinal) OutboundFrame {
	switch m {
	case MsgESDistance:
		return esDistance(base, cc.Enabled, cc.CancelRequest, lon.BrakeCmd, lon.CruiseThrottle)
	case MsgESStatus:
		return esStatus(base, cc.Enabled, lon.BrakeCmd, lon.CruiseRPM)
	case MsgESDashStatus:
		return esDashStatus(base, cc.Enabled, cc.LeadVisible)
	case MsgESLKASState:
		return esLKASState(base, cc)
	case MsgESBrake:
		return esBrake(base, cc.Enabled, lon.BrakeCmd, lon.BrakeValue, d.params.BrakeLightThreshold)
	case MsgCruiseControl:
		return cruiseControl(base)
	default:
		return brakeStatus(base, cs.ESBrakeActive)
	}
}

func esDistance(base map[string]float64, enabled, cancel, brakeCmd bool, throttle float64) OutboundFrame {
	p := patch("ES_Distance", BusPT, base)
	if enabled {
		p.set("Cruise_Throttle", throttle)
	}
	if cancel {
		p.set("Cruise_Cancel", 1)
	}
	if brakeCmd {
		p.set("Cruise_Throttle", brakingCruiseThrottle)
		p.set("Cruise_Brake_Active", 1)
	}
	return p.build()
}

func esStatus(base map[string]float64, enabled, brakeCmd bool, rpm float64) OutboundFrame {
	p := patch("ES_Status", BusPT, base)
	if enabled {
		p.set("Cruise_Activated", 1)
		p.set("Cruise_RPM", rpm)
	}
	if brakeCmd {
		p.set("Cruise_RPM", brakingCruiseRPM)
	}
	return p.build()
}

func esDashStatus(base map[string]float64, enabled, leadVisible bool) OutboundFrame {
	p := patch("ES_DashStatus", BusPT, base)
	if enabled {
		p.set("Cruise_State", 0)
		p.set("Cruise_Activated", 1)
		p.set("Cruise_Disengaged", 0)
		p.setBool("Car_Follow", leadVisible)
	}
	return p.build()
}

func esLKASState(base map[string]float64, cc ControlContext) OutboundFrame {
	p := patch("ES_LKAS_State", BusPT, base)
	if cc.VisualAlert == AlertSteerRequired {
		p.set("Keep_Hands_On_Wheel", 1)
	}

	// a stock alert (FCW and the like) is never replaced
	if cc.VisualAlert == AlertLDW && p.get("LKAS_Alert") == 0 {
		if cc.LeftLaneDepart {
			p.set("LKAS_Alert", lkasAlertLeftDeparture)
		} else if cc.RightLaneDepart {
			p.set("LKAS_Alert", lkasAlertRightDeparture)
		}
	}

	p.setBool("LKAS_Left_Line_Visible", cc.LeftLine)
	p.setBool("LKAS_Right_Line_Visible", cc.RightLine)
	return p.build()
}

func esBrake(base map[string]float64, enabled, brakeCmd bool, brakeValue, lightThreshold float64) OutboundFrame {
	p := patch("ES_Brake", BusPT, base)
	if enabled {
		p.set("Cruise_Activated", 1)
	}
	if brakeCmd {
		p.set("Brake_Pressure", brakeValue)
		p.set("Cruise_Brake_Active", 1)
		p.setBool("Cruise_Brake_Lights", brakeValue >= lightThreshold)
	}
	return p.build()
}

// cruiseControl hides our engagement from the camera so it stays ready.
func cruiseControl(base map[string]float64) OutboundFrame {
	return patch("CruiseControl", BusCam, base).
		set("Cruise_Activated", 0).
		build()
}

// brakeStatus hides our braking from the camera, except the camera's own
// pre-collision braking.
func brakeStatus(base map[string]float64, esBrakeActive bool) OutboundFrame {
	p := patch("Brake_Status", BusCam, base)
	if !esBrakeActive {
		p.set("ES_Brake", 0)
	}
	return p.build()
}
