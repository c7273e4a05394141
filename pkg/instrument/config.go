package instrument

import (
	"math"
	"time"

	"github.com/justyntemme/polysampler/pkg/framework/debug"
	"github.com/justyntemme/polysampler/pkg/framework/render"
	"github.com/justyntemme/polysampler/pkg/framework/voice"
	"github.com/pkg/errors"
)

// Config configures an Instrument. The embedded render.Config sizes the
// engine; the remaining fields seed the runtime parameters.
type Config struct {
	render.Config

	Stealing voice.StealingMode

	MasterGainDB        float64
	Pan                 float64
	Speed               float64
	VelocitySensitivity float64
	DriftAmount         float64
	SnapToZeroCrossings bool

	// PumpInterval is how often Run drains the event ring
	PumpInterval time.Duration

	// Logger receives control-side diagnostics. Nil uses debug.Default().
	Logger *debug.Logger
}

// DefaultConfig returns a 16 voice stereo instrument at 48 kHz with
// stealing disabled.
func DefaultConfig() Config {
	return Config{
		Config:              render.DefaultConfig(),
		Stealing:            voice.StealNone,
		Speed:               1,
		VelocitySensitivity: 1,
		PumpInterval:        5 * time.Millisecond,
	}
}

// Validate checks the engine configuration and the parameter seeds.
func (c Config) Validate() error {
	if err := c.Config.Validate(); err != nil {
		return errors.Wrap(err, "instrument")
	}
	if c.CommandQueueSize < paramCount {
		return errors.Errorf("instrument: command queue of %d cannot hold the %d initial parameters",
			c.CommandQueueSize, paramCount)
	}
	if c.Stealing < voice.StealNone || c.Stealing > voice.StealLowest {
		return errors.Errorf("instrument: unknown stealing mode %d", c.Stealing)
	}
	for name, v := range map[string]float64{
		"master gain":          c.MasterGainDB,
		"pan":                  c.Pan,
		"speed":                c.Speed,
		"velocity sensitivity": c.VelocitySensitivity,
		"drift":                c.DriftAmount,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Errorf("instrument: %s is not finite", name)
		}
	}
	if !(c.Speed > 0) {
		return errors.Errorf("instrument: invalid speed %v", c.Speed)
	}
	if c.PumpInterval <= 0 {
		return errors.Errorf("instrument: invalid pump interval %v", c.PumpInterval)
	}
	return nil
}
