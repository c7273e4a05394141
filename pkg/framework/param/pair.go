package param

import (
	"math"
)

// Pair couples two macros that must keep start < end, such as loop start
// and loop end. Each macro acts as the partner of the other: a target that
// would cross its partner is clamped to sit at least Gap away from it.
type Pair struct {
	start *Macro
	end   *Macro
	gap   float64
}

// NewPair creates a pair resting at start and end.
func NewPair(start, end float64) *Pair {
	if end < start {
		start, end = end, start
	}
	return &Pair{
		start: NewMacro(start),
		end:   NewMacro(end),
	}
}

// Start returns the lower macro.
func (p *Pair) Start() *Macro {
	return p.start
}

// End returns the upper macro.
func (p *Pair) End() *Macro {
	return p.end
}

// SetGap sets the minimum distance kept between start and end.
func (p *Pair) SetGap(gap float64) {
	if !(gap >= 0) || math.IsInf(gap, 0) {
		gap = 0
	}
	p.gap = gap
}

// Gap returns the minimum distance kept between start and end.
func (p *Pair) Gap() float64 {
	return p.gap
}

// SetDomain applies the same legal range to both macros.
func (p *Pair) SetDomain(min, max float64) {
	p.start.SetDomain(min, max)
	p.end.SetDomain(min, max)
}

// SetAllowedValues installs the same snap table on both macros.
func (p *Pair) SetAllowedValues(sorted []float64) {
	p.start.SetAllowedValues(sorted)
	p.end.SetAllowedValues(sorted)
}

// SetStartTarget ramps the start macro to value, kept below the end target.
func (p *Pair) SetStartTarget(value, rampSeconds float64) {
	v := p.start.resolve(value)
	end := p.end.Target()
	limit := end - p.gap
	if v > limit || v >= end {
		v = p.start.clamp(snapBelow(p.start.allowed, limit, p.gap > 0))
		if v > limit {
			v = p.start.clamp(limit)
		}
	}
	p.start.ramp.Schedule(v, rampSeconds)
}

// SetEndTarget ramps the end macro to value, kept above the start target.
func (p *Pair) SetEndTarget(value, rampSeconds float64) {
	v := p.end.resolve(value)
	start := p.start.Target()
	limit := start + p.gap
	if v < limit || v <= start {
		v = p.end.clamp(snapAbove(p.end.allowed, limit, p.gap > 0))
		if v < limit {
			v = p.end.clamp(limit)
		}
	}
	p.end.ramp.Schedule(v, rampSeconds)
}

// Reset jumps both macros to start and end with no ramp.
func (p *Pair) Reset(start, end float64) {
	if end < start {
		start, end = end, start
	}
	p.start.Reset(start)
	p.end.Reset(end)
}

// Values returns the current start and end. While the two ramps are in
// flight the start is pulled down (and if needed the end pushed up) so the
// returned pair keeps its ordering.
func (p *Pair) Values() (start, end float64) {
	start, end = p.start.Value(), p.end.Value()
	if start > end-p.gap {
		start = p.start.clamp(end - p.gap)
		if start > end-p.gap {
			end = p.end.clamp(start + p.gap)
		}
	}
	return start, end
}

// Advance moves both ramps forward by seconds.
func (p *Pair) Advance(seconds float64) {
	p.start.Advance(seconds)
	p.end.Advance(seconds)
}

// IsRamping returns true while either macro is ramping.
func (p *Pair) IsRamping() bool {
	return p.start.IsRamping() || p.end.IsRamping()
}
