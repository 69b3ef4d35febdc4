package core

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Abs for signed integers. Callers widen int16 first so -32768 is safe.
func Abs[T constraints.Signed](x T) T {
	if x < 0 {
		return -x
	}
	return x
}

// Sign returns -1, 0 or 1.
func Sign[T constraints.Signed](x T) int {
	switch {
	case x < 0:
		return -1
	case x > 0:
		return 1
	default:
		return 0
	}
}

// Clamp limits v to [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// roundLevel rounds x to the nearest PWM step inside [0, steps].
func roundLevel(x float32, steps uint16) PWMLevel {
	r := math.Round(float64(x))
	return PWMLevel(Clamp(r, 0, float64(steps)))
}
