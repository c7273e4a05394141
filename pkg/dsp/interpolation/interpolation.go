// Package interpolation provides fractional-position sample readers.
package interpolation

import (
	"math"
)

// Linear performs linear interpolation between two samples.
// frac is the fractional position between y0 and y1 (0.0 to 1.0).
func Linear(y0, y1, frac float64) float64 {
	return y0 + (y1-y0)*frac
}

// Read returns samples at fractional position pos using linear
// interpolation. Both neighbouring indices are clamped into the slice, so
// positions before the first or past the last frame hold the edge value.
func Read(samples []float32, pos float64) float64 {
	n := len(samples)
	if n == 0 || math.IsNaN(pos) {
		return 0
	}

	i0 := math.Floor(pos)
	frac := pos - i0

	idx := clampIndex(i0, n)
	next := clampIndex(i0+1, n)

	return Linear(float64(samples[idx]), float64(samples[next]), frac)
}

func clampIndex(i float64, n int) int {
	if i <= 0 {
		return 0
	}
	if i >= float64(n-1) {
		return n - 1
	}
	return int(i)
}
