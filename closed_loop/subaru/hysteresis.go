package subaru

// AccelHysteresisGap is the band within which a commanded value is held.
const AccelHysteresisGap = 10

// AccelHysteresis holds the output at steady until value leaves the band
// [steady-gap, steady+gap], then drags steady along at gap distance.
func AccelHysteresis(value, steady float64) (float64, float64) {
	if value > steady+AccelHysteresisGap {
		steady = value - AccelHysteresisGap
	} else if value < steady-AccelHysteresisGap {
		steady = value + AccelHysteresisGap
	}
	return steady, steady
}
