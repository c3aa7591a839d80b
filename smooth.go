package rack

import "math"

const (
	// smoothLambda is a decay rate of one graphics frame.
	smoothLambda = 60
	// smoothSnap is the distance at which ramp jumps to its target.
	smoothSnap = 1e-4
)

// approach moves value toward target by a fixed fraction of remaining
// distance. Returned flag is true when target is reached.
//
// Intermediate math is done in float64 and rounded once, so the result
// always stays between value and target.
func approach(value, target, sampleTime float32) (float32, bool) {
	delta := float64(target) - float64(value)
	if math.Abs(delta) < smoothSnap {
		return target, true
	}
	k := smoothLambda * float64(sampleTime)
	if k >= 1 {
		return target, true
	}
	if k <= 0 {
		return value, false
	}
	next := float32(float64(value) + delta*k)
	// step is below float32 resolution at this magnitude.
	if next == value {
		return target, true
	}
	return next, false
}
