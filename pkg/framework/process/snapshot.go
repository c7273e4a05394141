// Package process provides the per-block render state shared by every voice.
package process

import (
	"math"

	"github.com/justyntemme/polysampler/pkg/dsp/gain"
)

// Parameter IDs for render-visible instrument parameters.
const (
	ParamMasterGain uint32 = iota
	ParamPan
	ParamTrimStart
	ParamTrimEnd
	ParamSpeed
	ParamReverse
	ParamVelocitySensitivity
	ParamDrift
)

// Snapshot is the set of instrument-wide values every voice reads during a
// block. It is evaluated once at block start so that all voices agree.
type Snapshot struct {
	// Loop points in seconds of the sample buffer
	LoopStart   float64
	LoopEnd     float64
	LoopEnabled bool

	// Playback range in seconds. TrimEnd <= TrimStart plays to the end.
	TrimStart float64
	TrimEnd   float64

	MasterGain          float64 // linear
	Pan                 float64 // -1 .. 1
	Speed               float64
	Reverse             bool
	VelocitySensitivity float64
	Drift               float64 // fraction of loop length
}

// DefaultSnapshot returns unity gain, centered, forward playback of the
// whole buffer with looping off.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		MasterGain:          1,
		Speed:               1,
		VelocitySensitivity: 1,
	}
}

// Set applies a plain parameter value. Unknown IDs are ignored and
// non-finite values leave the field unchanged.
func (s *Snapshot) Set(id uint32, value float64) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return
	}

	switch id {
	case ParamMasterGain:
		s.MasterGain = gain.DbToLinear(value)
	case ParamPan:
		s.Pan = value
	case ParamTrimStart:
		s.TrimStart = value
	case ParamTrimEnd:
		s.TrimEnd = value
	case ParamSpeed:
		if value > 0 {
			s.Speed = value
		}
	case ParamReverse:
		s.Reverse = value >= 0.5
	case ParamVelocitySensitivity:
		s.VelocitySensitivity = value
	case ParamDrift:
		s.Drift = value
	}
}
