package render

import (
	"math"

	"github.com/justyntemme/polysampler/pkg/dsp/envelope"
	"github.com/justyntemme/polysampler/pkg/sample"
)

// State is a voice's lifecycle state on the render side.
type State uint8

const (
	// Idle voices produce nothing.
	Idle State = iota
	// Active voices play their note.
	Active
	// Releasing voices fade out and go Idle when inaudible.
	Releasing
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case Releasing:
		return "releasing"
	default:
		return "unknown"
	}
}

// Voice is one pre-allocated playback slot. It is owned by the render
// context; its accessors must only be called from there.
type Voice struct {
	index int
	// gen is the latest generation the pool assigned to this slot;
	// noteGen is the generation of the note currently sounding.
	gen     uint32
	noteGen uint32
	state   State
	note    uint8

	buf      *sample.Buffer
	pos      float64
	pitch    float64
	velocity float64
	loops    int
	delay    int
	fresh    bool
	started  bool

	env         *envelope.AR
	releaseLeft int

	// declick state per source channel
	residual [2]float64
	last     [2]float64

	// drift state
	rng   uint32
	drift int

	sinceReport int

	// steal hand-over
	pending      bool
	pendingNote  uint8
	pendingVel   float64
	pendingPitch float64
}

// Index returns the slot index.
func (v *Voice) Index() int { return v.index }

// State returns the lifecycle state.
func (v *Voice) State() State { return v.state }

// Note returns the sounding note.
func (v *Voice) Note() uint8 { return v.note }

// Generation returns the latest pool generation of the slot.
func (v *Voice) Generation() uint32 { return v.gen }

// Position returns the playback position in buffer frames.
func (v *Voice) Position() float64 { return v.pos }

// Loops returns how many times the voice has wrapped its loop.
func (v *Voice) Loops() int { return v.loops }

// Residual returns the declick compensation currently armed on source channel ch.
func (v *Voice) Residual(ch int) float64 {
	if ch < 0 || ch >= len(v.residual) {
		return 0
	}
	return v.residual[ch]
}

// nextRandom advances the voice's xorshift32 generator.
func (v *Voice) nextRandom() uint32 {
	x := v.rng
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	v.rng = x
	return x
}

// driftFrames draws a loop length perturbation of a whole number of pitch
// periods, at most amount × loopLen frames either way.
func (v *Voice) driftFrames(loopLen int, amount, period float64) int {
	if amount > 1 {
		amount = 1
	}
	if !(amount > 0) || !(period > 0) || loopLen <= 0 {
		return 0
	}

	maxPeriods := int(math.Floor(amount * float64(loopLen) / period))
	if maxPeriods < 1 {
		return 0
	}
	k := int(v.nextRandom()%uint32(2*maxPeriods+1)) - maxPeriods
	return int(math.Round(float64(k) * period))
}

// pitchRatio returns the playback rate multiplier of note relative to root.
func pitchRatio(note, root int, keyTracking bool) float64 {
	if !keyTracking {
		return 1
	}
	return math.Exp2(float64(note-root) / 12)
}
