package subaru

import "math"

// AccelGain converts m/s^2 into the normalized gas/brake command.
// Calibration, matched to the cruise actuation of the vehicle.
const AccelGain = 4.0

// ComputeGasBrake splits an acceleration request into gas and brake in [0, 1].
// At most one of them is non-zero.
func ComputeGasBrake(accel float64) (gas, brake float64) {
	return clampFloat(accel/AccelGain, 0, 1), clampFloat(-accel/AccelGain, 0, 1)
}

// longitudinal is the per-cycle output shared by both frame dispatchers.
type longitudinal struct {
	BrakeCmd       bool
	BrakeValue     float64
	CruiseThrottle float64
	CruiseRPM      float64
}

// updateLongitudinal computes the cruise overrides for the cycle. Without
// longitudinal control everything stays zero and no state is touched.
func (c *Controller) updateLongitudinal(cs *VehicleState, accel float64, enabled bool) longitudinal {
	var out longitudinal
	if !c.params.Longitudinal {
		return out
	}

	p := c.params
	st := &c.state
	gas, brake := ComputeGasBrake(accel)

	if enabled && brake > 0 {
		out.BrakeValue = clampFloat(math.Trunc(brake*p.BrakeScale), p.BrakeMin, p.BrakeMax)
		out.BrakeCmd = true
	}

	// pre-collision braking requested by the camera always wins
	if enabled && cs.ESBrakeActive {
		out.BrakeCmd = true
		out.BrakeValue = cs.ESBrakePressure
	}

	if enabled && gas > 0 {
		throttle := surrogate(gas, p.Throttle)
		rpm := surrogate(gas, p.RPM)

		throttle, st.ThrottleSteady = AccelHysteresis(throttle, st.ThrottleSteady)
		rpm, st.RPMSteady = AccelHysteresis(rpm, st.RPMSteady)

		throttle = slew(throttle, st.CruiseThrottleLast, p.Throttle)
		rpm = slew(rpm, st.CruiseRPMLast, p.RPM)

		st.CruiseThrottleLast = throttle
		st.CruiseRPMLast = rpm

		out.CruiseThrottle = throttle
		out.CruiseRPM = rpm
	}

	return out
}

func surrogate(gas float64, sp SurrogateParams) float64 {
	return clampFloat(math.Trunc(sp.Base+gas*sp.Scale), sp.Min, sp.Max)
}

func slew(value, last float64, sp SurrogateParams) float64 {
	return clampFloat(value, last-sp.DeltaDown, last+sp.DeltaUp)
}

func clampFloat(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func boolToFloat(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}
