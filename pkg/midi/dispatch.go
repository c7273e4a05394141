package midi

import (
	"math"
	"time"

	"github.com/justyntemme/polysampler/pkg/dsp/gain"
	"github.com/justyntemme/polysampler/pkg/framework/process"
)

// Target is the instrument surface a Dispatcher drives.
type Target interface {
	PlayNoteAt(note int, velocity float64, delay time.Duration) bool
	ReleaseNote(note int)
	SetSustain(on bool)
	StopAll(releaseSeconds float64)
	SetParameter(id uint32, plain float64) error
}

// Omni makes a Dispatcher accept every channel.
const Omni = -1

// Dispatcher maps decoded MIDI events onto a Target. Event sample offsets
// become note start delays at the given sample rate.
type Dispatcher struct {
	target     Target
	sampleRate float64
	channel    int

	// AllNotesOffRelease is the fade used for CC 123, in seconds
	AllNotesOffRelease float64
}

// NewDispatcher creates an omni dispatcher.
func NewDispatcher(target Target, sampleRate float64) *Dispatcher {
	return &Dispatcher{
		target:             target,
		sampleRate:         sampleRate,
		channel:            Omni,
		AllNotesOffRelease: 0.05,
	}
}

// SetChannel restricts the dispatcher to one channel (0-15), or Omni.
func (d *Dispatcher) SetChannel(ch int) {
	if ch < 0 || ch > 15 {
		ch = Omni
	}
	d.channel = ch
}

// Dispatch applies ev. It reports whether the event was accepted; a note
// refused for lack of voices counts as accepted.
func (d *Dispatcher) Dispatch(ev Event) bool {
	if d.channel != Omni && int(ev.Channel()) != d.channel {
		return false
	}

	switch e := ev.(type) {
	case NoteOnEvent:
		if e.Velocity == 0 {
			// Note on with velocity 0 is treated as note off
			d.target.ReleaseNote(int(e.NoteNumber))
			return true
		}
		d.target.PlayNoteAt(int(e.NoteNumber), e.NormalizedVelocity(), d.delay(e.Offset))
	case NoteOffEvent:
		d.target.ReleaseNote(int(e.NoteNumber))
	case ControlChangeEvent:
		return d.controlChange(e)
	default:
		return false
	}
	return true
}

func (d *Dispatcher) controlChange(e ControlChangeEvent) bool {
	switch e.Controller {
	case CCSustain:
		d.target.SetSustain(e.Value >= 64)
	case CCAllNotesOff:
		d.target.StopAll(d.AllNotesOffRelease)
	case CCAllSoundOff:
		d.target.StopAll(0)
	case CCVolume:
		return d.target.SetParameter(process.ParamMasterGain, VolumeToDb(e.Value)) == nil
	case CCPan:
		return d.target.SetParameter(process.ParamPan, PanValue(e.Value)) == nil
	default:
		return false
	}
	return true
}

func (d *Dispatcher) delay(offset int32) time.Duration {
	if offset <= 0 || !(d.sampleRate > 0) {
		return 0
	}
	return time.Duration(float64(offset) / d.sampleRate * float64(time.Second))
}

// VolumeToDb maps CC 7 onto the conventional 40·log10(v/127) curve.
func VolumeToDb(value uint8) float64 {
	return math.Max(gain.SilenceDB, 2*gain.LinearToDb(float64(value&0x7f)/127))
}

// PanValue maps CC 10 onto -1..1 with 64 at center.
func PanValue(value uint8) float64 {
	p := (float64(value&0x7f) - 64) / 63
	return math.Max(-1, math.Min(1, p))
}
