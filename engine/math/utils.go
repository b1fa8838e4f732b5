package math

import (
	stdmath "math"

	"golang.org/x/exp/constraints"
)

// Clamp returns the value `f` clamped to the range [low, high].
// It works for any numeric type (integers and floats).
func Clamp[T constraints.Ordered](f, low, high T) T {
	if f < low {
		return low
	}
	if f > high {
		return high
	}
	return f
}

// FloorToInt rounds towards negative infinity.
func FloorToInt[T constraints.Float](f T) int {
	return int(stdmath.Floor(float64(f)))
}
