package subaru

import "math"

// ApplySteerTorqueLimits bounds a steering request by the driver torque window
// and by the per-step rate limits. Growing the magnitude is limited to
// SteerDeltaUp, shrinking it to SteerDeltaDown.
func ApplySteerTorqueLimits(apply, last int, driverTorque float64, p Params) int {
	steerMax := float64(p.SteerMax)
	allowance := float64(p.SteerDriverAllowance)
	factor := float64(p.SteerDriverFactor)
	multiplier := float64(p.SteerDriverMultiplier)

	driverMax := steerMax + (allowance+driverTorque*factor)*multiplier
	driverMin := -steerMax + (-allowance+driverTorque*factor)*multiplier
	maxAllowed := math.Max(math.Min(steerMax, driverMax), 0)
	minAllowed := math.Min(math.Max(-steerMax, driverMin), 0)

	torque := clampFloat(float64(apply), minAllowed, maxAllowed)

	up := float64(p.SteerDeltaUp)
	down := float64(p.SteerDeltaDown)
	l := float64(last)
	if last > 0 {
		torque = clampFloat(torque, math.Max(l-down, -up), l+up)
	} else {
		torque = clampFloat(torque, l-up, math.Min(l+down, up))
	}

	return int(math.RoundToEven(torque))
}
