package ramp

import "golang.org/x/exp/constraints"

// Toward moves cur at most step units toward target and returns the new value.
// step==0 snaps to target. The result never overshoots.
func Toward[T constraints.Integer](cur, target, step T) T {
	if step == 0 || cur == target {
		return target
	}
	if cur < target {
		if target-cur <= step {
			return target
		}
		return cur + step
	}
	if cur-target <= step {
		return target
	}
	return cur - step
}
