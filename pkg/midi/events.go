// Package midi decodes channel voice messages and dispatches them onto an
// instrument.
package midi

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// EventType identifies a channel voice message.
type EventType uint8

const (
	EventTypeNoteOff EventType = iota
	EventTypeNoteOn
	EventTypeControlChange
)

// Event is a decoded MIDI message with its position inside the current block.
type Event interface {
	Type() EventType
	Channel() uint8
	SampleOffset() int32
	String() string
}

// BaseEvent carries the fields every event shares.
type BaseEvent struct {
	EventChannel uint8
	Offset       int32
}

func (e BaseEvent) Channel() uint8 {
	return e.EventChannel
}

func (e BaseEvent) SampleOffset() int32 {
	return e.Offset
}

type NoteOnEvent struct {
	BaseEvent
	NoteNumber uint8
	Velocity   uint8
}

func (e NoteOnEvent) Type() EventType {
	return EventTypeNoteOn
}

func (e NoteOnEvent) String() string {
	return fmt.Sprintf("NoteOn{ch:%d, note:%d, vel:%d, offset:%d}",
		e.EventChannel, e.NoteNumber, e.Velocity, e.Offset)
}

// NormalizedVelocity maps the 7-bit velocity to 0-1.
func (e NoteOnEvent) NormalizedVelocity() float64 {
	return float64(e.Velocity&0x7f) / 127
}

type NoteOffEvent struct {
	BaseEvent
	NoteNumber uint8
	Velocity   uint8
}

func (e NoteOffEvent) Type() EventType {
	return EventTypeNoteOff
}

func (e NoteOffEvent) String() string {
	return fmt.Sprintf("NoteOff{ch:%d, note:%d, vel:%d, offset:%d}",
		e.EventChannel, e.NoteNumber, e.Velocity, e.Offset)
}

type ControlChangeEvent struct {
	BaseEvent
	Controller uint8
	Value      uint8
}

func (e ControlChangeEvent) Type() EventType {
	return EventTypeControlChange
}

func (e ControlChangeEvent) String() string {
	return fmt.Sprintf("CC{ch:%d, ctrl:%d, val:%d, offset:%d}",
		e.EventChannel, e.Controller, e.Value, e.Offset)
}

// Controller numbers the dispatcher understands
const (
	CCVolume       uint8 = 7
	CCPan          uint8 = 10
	CCSustain      uint8 = 64
	CCAllSoundOff  uint8 = 120
	CCAllNotesOff  uint8 = 123
	statusNoteOff        = 0x80
	statusNoteOn         = 0x90
	statusControl        = 0xb0
)

// ErrUnsupported is returned by Parse for messages other than note on/off
// and control change.
var ErrUnsupported = errors.New("midi: unsupported message")

// Parse decodes a three-byte channel voice message.
func Parse(msg []byte, offset int32) (Event, error) {
	if len(msg) < 3 {
		return nil, errors.Wrapf(ErrUnsupported, "short message of %d bytes", len(msg))
	}

	base := BaseEvent{EventChannel: msg[0] & 0x0f, Offset: offset}
	data1, data2 := msg[1]&0x7f, msg[2]&0x7f

	switch msg[0] & 0xf0 {
	case statusNoteOff:
		return NoteOffEvent{BaseEvent: base, NoteNumber: data1, Velocity: data2}, nil
	case statusNoteOn:
		return NoteOnEvent{BaseEvent: base, NoteNumber: data1, Velocity: data2}, nil
	case statusControl:
		return ControlChangeEvent{BaseEvent: base, Controller: data1, Value: data2}, nil
	}
	return nil, errors.Wrapf(ErrUnsupported, "status 0x%02x", msg[0])
}

// NoteToFrequency returns the equal-tempered frequency of note.
func NoteToFrequency(note uint8, tuningA4 float64) float64 {
	if tuningA4 == 0 {
		tuningA4 = 440.0
	}
	return tuningA4 * math.Exp2((float64(note)-69.0)/12.0)
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteNumberToName returns names like "C4" (middle C is 60).
func NoteNumberToName(note uint8) string {
	octave := int(note/12) - 1
	return fmt.Sprintf("%s%d", noteNames[note%12], octave)
}
