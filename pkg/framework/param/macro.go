package param

import (
	"math"
)

// Macro is a smoothed, quantizable scalar shared by every voice of an
// instrument. Targets are clamped to a legal domain and optionally snapped
// to the nearest entry of an allowed-values table before being ramped to.
//
// A Macro is owned by the render context. It never allocates: the allowed
// table is held by reference and must not be modified by the caller once
// handed over.
type Macro struct {
	ramp    Ramp
	min     float64
	max     float64
	allowed []float64
}

// NewMacro creates a linear macro resting at value with an unbounded domain.
func NewMacro(value float64) *Macro {
	m := &Macro{
		min: math.Inf(-1),
		max: math.Inf(1),
	}
	m.ramp.rampType = LinearRamp
	m.ramp.Reset(value)
	return m
}

// SetRampType selects the ramp curve used by subsequent targets.
func (m *Macro) SetRampType(t RampType) {
	m.ramp.rampType = t
}

// SetDomain sets the legal value range and pulls the current value and
// target inside it.
func (m *Macro) SetDomain(min, max float64) {
	if max < min {
		min, max = max, min
	}
	m.min = min
	m.max = max

	current := m.clamp(m.ramp.current)
	target := m.clamp(m.ramp.target)
	if current != m.ramp.current {
		m.ramp.Reset(current)
	}
	if target != m.ramp.target {
		m.ramp.Schedule(target, m.ramp.Remaining())
	}
}

// Domain returns the legal value range.
func (m *Macro) Domain() (min, max float64) {
	return m.min, m.max
}

// SetAllowedValues installs a sorted snap table. nil disables snapping.
func (m *Macro) SetAllowedValues(sorted []float64) {
	m.allowed = sorted
}

// AllowedValues returns the installed snap table.
func (m *Macro) AllowedValues() []float64 {
	return m.allowed
}

// Snap returns the allowed value nearest to v, or v itself when no table is installed.
func (m *Macro) Snap(v float64) float64 {
	return Snap(m.allowed, v)
}

// SetTarget schedules a ramp from the current value to the clamped and
// snapped target over rampSeconds.
func (m *Macro) SetTarget(value, rampSeconds float64) {
	m.ramp.Schedule(m.resolve(value), rampSeconds)
}

// Reset jumps to the clamped and snapped value with no ramp.
func (m *Macro) Reset(value float64) {
	m.ramp.Reset(m.resolve(value))
}

// Value returns the current value.
func (m *Macro) Value() float64 {
	return m.ramp.current
}

// Target returns the value the macro is ramping to.
func (m *Macro) Target() float64 {
	return m.ramp.target
}

// IsRamping returns true while a ramp is in flight.
func (m *Macro) IsRamping() bool {
	return m.ramp.active
}

// Advance moves any ramp in flight forward by seconds.
func (m *Macro) Advance(seconds float64) float64 {
	return m.ramp.Advance(seconds)
}

func (m *Macro) resolve(value float64) float64 {
	if math.IsNaN(value) {
		return m.ramp.target
	}
	return m.clamp(m.Snap(m.clamp(value)))
}

func (m *Macro) clamp(v float64) float64 {
	if v < m.min {
		return m.min
	}
	if v > m.max {
		return m.max
	}
	return v
}

// Snap performs a nearest-neighbour lookup of v in the ascending table
// allowed. On an exact tie the lower value wins. With an empty table, or a
// NaN input, v is returned unchanged.
func Snap(allowed []float64, v float64) float64 {
	n := len(allowed)
	if n == 0 || math.IsNaN(v) {
		return v
	}
	if v <= allowed[0] {
		return allowed[0]
	}
	if v >= allowed[n-1] {
		return allowed[n-1]
	}

	// Narrow to the bracketing pair allowed[lo] < v <= allowed[hi]
	lo, hi := 0, n-1
	for hi-lo > 1 {
		mid := int(uint(lo+hi) >> 1)
		if allowed[mid] < v {
			lo = mid
		} else {
			hi = mid
		}
	}

	if allowed[hi]-v < v-allowed[lo] {
		return allowed[hi]
	}
	return allowed[lo]
}

// snapBelow returns the largest allowed value below limit (or equal to it
// when inclusive), or limit when there is none.
func snapBelow(allowed []float64, limit float64, inclusive bool) float64 {
	lo, hi := 0, len(allowed)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if allowed[mid] < limit || (inclusive && allowed[mid] == limit) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo == 0 {
		return limit
	}
	return allowed[lo-1]
}

// snapAbove returns the smallest allowed value above limit (or equal to it
// when inclusive), or limit when there is none.
func snapAbove(allowed []float64, limit float64, inclusive bool) float64 {
	lo, hi := 0, len(allowed)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if allowed[mid] < limit || (!inclusive && allowed[mid] == limit) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo == len(allowed) {
		return limit
	}
	return allowed[lo]
}
