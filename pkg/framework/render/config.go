package render

import (
	"math"

	"github.com/justyntemme/polysampler/pkg/dsp/pan"
	"github.com/pkg/errors"
)

// Config sizes an Engine and fixes its per-voice behaviour. Everything the
// render path touches is allocated from these values in New.
type Config struct {
	SampleRate   float64
	MaxBlockSize int
	// Output channels, 1 or 2
	Channels int
	Voices   int

	// Envelope times in seconds
	Attack    float64
	Release   float64
	StealFade float64
	// HardStop bounds every release; a releasing voice is cut after this long
	HardStop float64

	PanLaw pan.Law

	// Loop seam declicking
	DeclickThreshold float64
	DeclickFactor    float64
	DeclickDecay     float64
	DeclickFloor     float64

	// PositionInterval is the minimum time between voice:position events
	// per voice, in seconds. Zero disables position telemetry.
	PositionInterval float64

	// RootNote plays the sample at its recorded pitch
	RootNote    int
	KeyTracking bool

	// DriftPeriodFrames is the pitch period drift is quantized to, in
	// buffer frames. Zero derives it from RootNote.
	DriftPeriodFrames float64

	CommandQueueSize int
	EventQueueSize   int
}

// DefaultConfig returns a 48 kHz stereo engine with 16 voices.
func DefaultConfig() Config {
	return Config{
		SampleRate:       48000,
		MaxBlockSize:     512,
		Channels:         2,
		Voices:           16,
		Attack:           0.002,
		Release:          0.05,
		StealFade:        0.005,
		HardStop:         2,
		PanLaw:           pan.ConstantPower,
		DeclickThreshold: 1e-4,
		DeclickFactor:    0.5,
		DeclickDecay:     0.9,
		DeclickFloor:     1e-3,
		PositionInterval: 0.05,
		RootNote:         60,
		KeyTracking:      true,
		CommandQueueSize: 256,
		EventQueueSize:   1024,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case !(c.SampleRate > 0) || math.IsInf(c.SampleRate, 0):
		return errors.Errorf("render: invalid sample rate %v", c.SampleRate)
	case c.MaxBlockSize < 1:
		return errors.Errorf("render: invalid max block size %d", c.MaxBlockSize)
	case c.Channels < 1 || c.Channels > 2:
		return errors.Errorf("render: %d output channels, want 1 or 2", c.Channels)
	case c.Voices < 1:
		return errors.Errorf("render: invalid voice count %d", c.Voices)
	case c.Attack < 0 || c.Release < 0 || c.StealFade < 0:
		return errors.New("render: envelope times must not be negative")
	case !(c.HardStop > 0):
		return errors.Errorf("render: invalid hard stop %v", c.HardStop)
	case !(c.DeclickDecay >= 0 && c.DeclickDecay < 1):
		return errors.Errorf("render: declick decay %v outside [0, 1)", c.DeclickDecay)
	case c.DeclickThreshold < 0 || c.DeclickFloor < 0:
		return errors.New("render: declick thresholds must not be negative")
	case c.PositionInterval < 0:
		return errors.Errorf("render: invalid position interval %v", c.PositionInterval)
	case c.RootNote < 0 || c.RootNote > 127:
		return errors.Errorf("render: root note %d outside 0-127", c.RootNote)
	case c.CommandQueueSize < 1 || c.EventQueueSize < 1:
		return errors.New("render: queue sizes must be positive")
	}
	return nil
}
