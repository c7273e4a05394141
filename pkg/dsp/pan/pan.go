// Package pan provides stereo panning laws.
package pan

import (
	"math"
)

// Law represents different panning laws
type Law int

const (
	// Linear splits the signal linearly (power dips 3 dB at center)
	Linear Law = iota
	// ConstantPower uses sine/cosine panning (maintains constant power)
	ConstantPower
	// Balanced uses -4.5dB center compensation
	Balanced
)

// String returns the law name.
func (l Law) String() string {
	switch l {
	case Linear:
		return "linear"
	case ConstantPower:
		return "equal-power"
	case Balanced:
		return "balanced"
	default:
		return "unknown"
	}
}

// Gains returns the left and right gains for a pan position.
// pan: -1.0 = hard left, 0.0 = center, 1.0 = hard right. Out-of-range and
// non-finite positions are clamped (NaN pans center).
func Gains(pan float64, law Law) (left, right float64) {
	switch {
	case math.IsNaN(pan):
		pan = 0
	case pan < -1:
		pan = -1
	case pan > 1:
		pan = 1
	}

	switch law {
	case Linear:
		return linearPan(pan)
	case Balanced:
		return balancedPan(pan)
	default:
		return constantPowerPan(pan)
	}
}

// Stereo returns per-channel gains for a source that already has a left
// and a right channel. Only the side opposite the pan direction is
// attenuated, so a centered stereo sample passes through at unity.
func Stereo(pan float64, law Law) (left, right float64) {
	lg, rg := Gains(pan, law)
	cl, cr := Gains(0, law)
	switch {
	case pan < 0:
		return 1, rg / cr
	case pan > 0:
		return lg / cl, 1
	default:
		return 1, 1
	}
}

// linearPan implements simple linear panning.
func linearPan(pan float64) (left, right float64) {
	return (1 - pan) * 0.5, (1 + pan) * 0.5
}

// constantPowerPan implements equal power panning using sine/cosine.
func constantPowerPan(pan float64) (left, right float64) {
	// Convert pan from [-1, 1] to [0, pi/2]
	angle := (pan + 1.0) * math.Pi / 4.0
	return math.Cos(angle), math.Sin(angle)
}

// balancedPan implements panning with -4.5dB center compensation.
func balancedPan(pan float64) (left, right float64) {
	left, right = constantPowerPan(pan)

	// At center constant power gives 0.707 (-3dB); pull it to 0.595 (-4.5dB)
	// and fade the compensation out toward the edges.
	centerGain := 0.595 / 0.707
	compensation := centerGain + (1-centerGain)*pan*pan

	return left * compensation, right * compensation
}
