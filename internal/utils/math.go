package utils

import "golang.org/x/exp/constraints"

// Clamp constrains v to the range [minVal, maxVal].
func Clamp[T constraints.Ordered](v, minVal, maxVal T) T {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// MapRange linearly rescales x from [inMin, inMax] to [outMin, outMax] using
// integer arithmetic. Division truncates toward zero, so results match the
// fader maths the rig was tuned with. inMin must differ from inMax.
func MapRange[T constraints.Signed](x, inMin, inMax, outMin, outMax T) T {
	return (x-inMin)*(outMax-outMin)/(inMax-inMin) + outMin
}

// ClampIndex bounds idx to the valid range for a slice of length.
func ClampIndex(idx, length int) int {
	if length <= 0 {
		return 0
	}
	if idx < 0 {
		return 0
	}
	if idx >= length {
		return length - 1
	}
	return idx
}
