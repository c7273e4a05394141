package param

import (
	"math"
)

// RampType defines the curve a scheduled ramp follows.
type RampType int

const (
	// LinearRamp moves at a constant rate and lands on the target exactly at the ramp end
	LinearRamp RampType = iota
	// ExponentialRamp approaches the target like a one-pole filter and
	// snaps onto it at the ramp end
	ExponentialRamp
)

// expRampConstant sets how far an exponential ramp gets before its final
// snap: exp(-5) is about -43 dB of the remaining distance.
const expRampConstant = 5.0

// rampEpsilon absorbs accumulated rounding in elapsed time (seconds).
const rampEpsilon = 1e-9

// Ramp is a deterministic, time-scheduled transition between two values.
// It is advanced explicitly once per block, never by wall-clock time, so
// every reader within a block sees the same value.
type Ramp struct {
	rampType RampType
	start    float64
	target   float64
	current  float64
	duration float64 // seconds
	elapsed  float64 // seconds
	active   bool
}

// NewRamp creates a ramp resting at value.
func NewRamp(rampType RampType, value float64) *Ramp {
	r := &Ramp{rampType: rampType}
	r.Reset(value)
	return r
}

// Reset jumps to value and cancels any ramp in flight.
func (r *Ramp) Reset(value float64) {
	r.start = value
	r.target = value
	r.current = value
	r.duration = 0
	r.elapsed = 0
	r.active = false
}

// Schedule starts a ramp from the current value to target over seconds.
// A non-positive duration jumps immediately.
func (r *Ramp) Schedule(target, seconds float64) {
	if !(seconds > 0) || math.IsInf(seconds, 0) || r.current == target {
		r.Reset(target)
		return
	}
	r.start = r.current
	r.target = target
	r.duration = seconds
	r.elapsed = 0
	r.active = true
}

// Advance moves the ramp forward by seconds and returns the new value.
func (r *Ramp) Advance(seconds float64) float64 {
	if !r.active || !(seconds > 0) {
		return r.current
	}

	r.elapsed += seconds
	if r.elapsed+rampEpsilon >= r.duration {
		r.current = r.target
		r.active = false
		return r.current
	}

	t := r.elapsed / r.duration
	switch r.rampType {
	case ExponentialRamp:
		r.current = r.target + (r.start-r.target)*math.Exp(-expRampConstant*t)
	default:
		r.current = r.start + (r.target-r.start)*t
	}
	return r.current
}

// Value returns the current value.
func (r *Ramp) Value() float64 {
	return r.current
}

// Target returns the value the ramp is heading to.
func (r *Ramp) Target() float64 {
	return r.target
}

// IsRamping returns true while a ramp is in flight.
func (r *Ramp) IsRamping() bool {
	return r.active
}

// Remaining returns the seconds left until the ramp reaches its target.
func (r *Ramp) Remaining() float64 {
	if !r.active {
		return 0
	}
	return r.duration - r.elapsed
}
