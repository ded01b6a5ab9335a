package math

import "golang.org/x/exp/constraints"

// Clamp returns the value `f` clamped to the range [low, high].
func Clamp[T constraints.Ordered](f, low, high T) T {
	if f < low {
		return low
	}
	if f > high {
		return high
	}
	return f
}

// DivCeil divides n by d rounding up. d must be positive.
func DivCeil[T constraints.Integer](n, d T) T {
	if n <= 0 {
		return 0
	}
	return (n + d - 1) / d
}
