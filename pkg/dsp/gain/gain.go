// Package gain provides amplitude conversion and output safety helpers.
package gain

import (
	"math"
)

// Constants for dB conversion
const (
	// MinDB is the minimum dB value (effectively -infinity)
	MinDB = -200.0

	// SilenceDB is the level at or below which a gain setting reads as muted.
	SilenceDB = -96.0
)

// LinearToDb converts a linear amplitude value to decibels.
// Returns MinDB for values <= 0.
func LinearToDb(linear float64) float64 {
	if linear <= 0 || math.IsNaN(linear) {
		return MinDB
	}
	return 20.0 * math.Log10(linear)
}

// DbToLinear converts a decibel value to linear amplitude.
// Values <= MinDB and NaN return 0.
func DbToLinear(db float64) float64 {
	if db <= MinDB || math.IsNaN(db) {
		return 0
	}
	return math.Pow(10.0, db/20.0)
}

// Clip limits a sample to [-1, 1].
func Clip(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// Sanitize replaces NaN and infinities with silence.
func Sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// ClipBuffer sanitizes and clips every sample of buffer in place.
func ClipBuffer(buffer []float32) {
	for i, s := range buffer {
		buffer[i] = float32(Clip(Sanitize(float64(s))))
	}
}
