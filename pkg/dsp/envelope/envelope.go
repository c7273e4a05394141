// Package envelope provides the per-voice gain envelope used as the default
// gain source of the render engine.
package envelope

import "math"

// Stage represents the current envelope stage
type Stage int

const (
	// StageIdle represents envelope idle state
	StageIdle Stage = iota
	// StageAttack represents envelope attack phase
	StageAttack
	// StageSustain represents envelope sustain phase
	StageSustain
	// StageRelease represents envelope release phase
	StageRelease
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageAttack:
		return "attack"
	case StageSustain:
		return "sustain"
	case StageRelease:
		return "release"
	default:
		return "idle"
	}
}

// DefaultFloor is the gain below which a releasing envelope counts as inaudible (-80 dB).
const DefaultFloor = 1e-4

// AR implements an Attack-Release envelope with a linear attack and an
// exponential release that reaches the inaudibility floor after exactly the
// release time.
type AR struct {
	sampleRate float64

	// Parameters (in seconds)
	attack  float64
	release float64
	floor   float64

	// Coefficients (pre-calculated for efficiency)
	attackStep  float64
	releaseCoef float64

	// State
	stage Stage
	value float64
}

// NewAR creates a new AR envelope
func NewAR(sampleRate float64) *AR {
	env := &AR{
		sampleRate: sampleRate,
		attack:     0.002,
		release:    0.05,
		floor:      DefaultFloor,
	}
	env.updateCoefficients()
	return env
}

// SetAttack sets the attack time in seconds. Zero starts at full gain.
func (e *AR) SetAttack(seconds float64) {
	e.attack = math.Max(0, seconds)
	e.updateCoefficients()
}

// SetRelease sets the release time in seconds
func (e *AR) SetRelease(seconds float64) {
	e.release = math.Max(0, seconds)
	e.updateCoefficients()
}

// SetFloor sets the inaudibility threshold that ends the release
func (e *AR) SetFloor(floor float64) {
	if floor > 0 && floor < 1 {
		e.floor = floor
		e.updateCoefficients()
	}
}

// updateCoefficients recalculates the attack step and release coefficient
func (e *AR) updateCoefficients() {
	e.attackStep = calcStep(e.attack, e.sampleRate)
	e.releaseCoef = calcCoef(e.release, e.sampleRate, e.floor)
}

// calcStep returns the per-sample increment of a linear 0→1 ramp
func calcStep(timeSeconds, sampleRate float64) float64 {
	samples := timeSeconds * sampleRate
	if samples < 1 {
		return 1
	}
	return 1 / samples
}

// calcCoef returns the per-sample multiplier that takes 1 down to floor in timeSeconds
func calcCoef(timeSeconds, sampleRate, floor float64) float64 {
	samples := timeSeconds * sampleRate
	if samples < 1 {
		return 0
	}
	return math.Pow(floor, 1/samples)
}

// Trigger starts the attack phase from silence
func (e *AR) Trigger() {
	e.value = 0
	e.stage = StageAttack
	if e.attackStep >= 1 {
		e.value = 1
		e.stage = StageSustain
	}
}

// Release starts the release phase using the configured release time
func (e *AR) Release() {
	if e.stage == StageIdle || e.stage == StageRelease {
		return
	}
	e.stage = StageRelease
}

// ReleaseIn starts (or shortens) a release that reaches the floor within seconds.
// It is used for voice steals and timed stop-all requests.
func (e *AR) ReleaseIn(seconds float64) {
	if e.stage == StageIdle {
		return
	}
	coef := calcCoef(seconds, e.sampleRate, e.floor)
	if e.stage != StageRelease || coef < e.releaseCoef {
		e.releaseCoef = coef
	}
	e.stage = StageRelease
}

// Reset immediately returns the envelope to idle and restores the
// configured release time
func (e *AR) Reset() {
	e.stage = StageIdle
	e.value = 0
	e.updateCoefficients()
}

// Stage returns the current envelope stage
func (e *AR) Stage() Stage {
	return e.stage
}

// Value returns the last generated value
func (e *AR) Value() float64 {
	return e.value
}

// IsIdle returns true once the envelope has finished
func (e *AR) IsIdle() bool {
	return e.stage == StageIdle
}

// Next generates the next envelope value
func (e *AR) Next() float64 {
	switch e.stage {
	case StageAttack:
		e.value += e.attackStep
		if e.value >= 1-1e-9 {
			e.value = 1
			e.stage = StageSustain
		}

	case StageSustain:
		e.value = 1

	case StageRelease:
		e.value *= e.releaseCoef
		if e.value < e.floor {
			e.value = 0
			e.stage = StageIdle
		}

	case StageIdle:
		e.value = 0
	}

	return e.value
}

// Process fills buffer with envelope values - no allocations
func (e *AR) Process(buffer []float32) {
	for i := range buffer {
		buffer[i] = float32(e.Next())
	}
}
