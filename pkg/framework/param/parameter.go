// Package param provides instrument parameters: control-side plain values
// with ranges, and render-side macro parameters with scheduled ramps and
// snapping.
package param

import (
	"fmt"
	"math"
	"strconv"
	"sync/atomic"
)

// Parameter describes one instrument control and holds its last requested
// value. Values are stored atomically so UI readers never tear a float.
type Parameter struct {
	ID           uint32
	Name         string
	Unit         string
	Min          float64
	Max          float64
	DefaultValue float64 // plain
	StepCount    int32
	Flags        uint32

	value atomic.Uint64

	formatFunc func(float64) string
	parseFunc  func(string) (float64, error)
}

// Flags for parameters
const (
	CanAutomate uint32 = 1 << 0
	IsToggle    uint32 = 1 << 1
)

// Value returns the current plain value.
func (p *Parameter) Value() float64 {
	return math.Float64frombits(p.value.Load())
}

// SetValue clamps plain into [Min, Max], stores it and returns the stored
// value. Non-finite input resets the parameter to its default.
func (p *Parameter) SetValue(plain float64) float64 {
	plain = p.Clamp(plain)
	p.value.Store(math.Float64bits(plain))
	return plain
}

// Clamp limits plain to the parameter range, snapping toggles and stepped
// parameters to their steps.
func (p *Parameter) Clamp(plain float64) float64 {
	if math.IsNaN(plain) {
		plain = p.DefaultValue
	}
	if plain < p.Min {
		plain = p.Min
	} else if plain > p.Max {
		plain = p.Max
	}
	if p.StepCount > 0 && p.Max > p.Min {
		step := (p.Max - p.Min) / float64(p.StepCount)
		plain = p.Min + math.Round((plain-p.Min)/step)*step
	}
	return plain
}

// Normalized returns the current value mapped to 0-1.
func (p *Parameter) Normalized() float64 {
	if p.Max <= p.Min {
		return 0
	}
	return (p.Value() - p.Min) / (p.Max - p.Min)
}

// Reset restores the default value.
func (p *Parameter) Reset() {
	p.SetValue(p.DefaultValue)
}

// Bool reports whether a toggle parameter is on.
func (p *Parameter) Bool() bool {
	return p.Value() >= 0.5
}

// FormatValue returns the current value formatted for display
func (p *Parameter) FormatValue() string {
	plain := p.Value()
	if p.formatFunc != nil {
		return p.formatFunc(plain)
	}
	if p.Flags&IsToggle != 0 {
		if plain >= 0.5 {
			return "on"
		}
		return "off"
	}
	if p.StepCount > 0 {
		return fmt.Sprintf("%.0f", plain)
	}
	if p.Unit != "" {
		return fmt.Sprintf("%.2f %s", plain, p.Unit)
	}
	return fmt.Sprintf("%.2f", plain)
}

// ParseValue parses str into a clamped plain value without storing it.
func (p *Parameter) ParseValue(str string) (float64, error) {
	var (
		plain float64
		err   error
	)
	if p.parseFunc != nil {
		plain, err = p.parseFunc(str)
	} else {
		plain, err = strconv.ParseFloat(str, 64)
	}
	if err != nil {
		return 0, err
	}
	return p.Clamp(plain), nil
}
