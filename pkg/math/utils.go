package math

import "golang.org/x/exp/constraints"

// Clamp returns f clamped to the range [low, high].
func Clamp[T constraints.Ordered](f, low, high T) T {
	if f < low {
		return low
	}
	if f > high {
		return high
	}
	return f
}

// MinOf returns the smaller of a and b.
func MinOf[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}

// MaxOf returns the larger of a and b.
func MaxOf[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}
