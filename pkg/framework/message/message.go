// Package message defines the fixed set of messages exchanged between the
// control context and the render context.
//
// Messages are plain tagged structs rather than interfaces so that pushing
// them through a queue.Ring never boxes or allocates.
package message

import (
	"fmt"

	"github.com/justyntemme/polysampler/pkg/sample"
)

// CommandKind tags a control → render command.
type CommandKind uint8

const (
	// CmdNone is the zero command and is ignored.
	CmdNone CommandKind = iota
	// CmdStart starts Voice with Note/Velocity after Delay frames.
	CmdStart
	// CmdSteal fades Voice out quickly and restarts it with Note/Velocity.
	CmdSteal
	// CmdRelease moves Voice into its release ramp.
	CmdRelease
	// CmdStop silences Voice at the next block boundary.
	CmdStop
	// CmdReleaseAll releases every sounding voice over Value seconds.
	// A Value of zero stops them instead.
	CmdReleaseAll
	// CmdSetBuffer swaps in Buffer for notes started from now on.
	CmdSetBuffer
	// CmdSetLoopPoint ramps loop point Which to Value seconds over Ramp seconds.
	CmdSetLoopPoint
	// CmdSetLoopEnabled turns looping on or off (Flag).
	CmdSetLoopEnabled
	// CmdSetParam sets render parameter Param to the plain value Value.
	CmdSetParam
	// CmdSetSnapValues replaces the loop snap table with Values.
	// A nil Values with Flag set selects the buffer's zero crossings.
	CmdSetSnapValues
)

// String returns the command name.
func (k CommandKind) String() string {
	switch k {
	case CmdNone:
		return "none"
	case CmdStart:
		return "start"
	case CmdSteal:
		return "steal"
	case CmdRelease:
		return "release"
	case CmdStop:
		return "stop"
	case CmdReleaseAll:
		return "release-all"
	case CmdSetBuffer:
		return "set-buffer"
	case CmdSetLoopPoint:
		return "set-loop-point"
	case CmdSetLoopEnabled:
		return "set-loop-enabled"
	case CmdSetParam:
		return "set-param"
	case CmdSetSnapValues:
		return "set-snap-values"
	default:
		return fmt.Sprintf("command(%d)", uint8(k))
	}
}

// LoopPoint selects one end of the loop.
type LoopPoint uint8

const (
	// LoopStart is the loop start point.
	LoopStart LoopPoint = iota
	// LoopEnd is the loop end point.
	LoopEnd
)

// String returns "start" or "end".
func (p LoopPoint) String() string {
	if p == LoopEnd {
		return "end"
	}
	return "start"
}

// Command is a control → render message. Which fields are meaningful
// depends on Kind.
type Command struct {
	Kind       CommandKind
	Voice      int
	Generation uint32
	Note       uint8
	Velocity   float64
	// Delay in frames before a started voice produces sound
	Delay int

	Which LoopPoint
	Param uint32
	Value float64
	Ramp  float64
	Flag  bool

	Buffer *sample.Buffer
	Values []float64
}

// EventKind tags a render → control event.
type EventKind uint8

const (
	// EventNoteStarted fires when a voice produces its first frame.
	EventNoteStarted EventKind = iota
	// EventNoteReleased fires when a voice enters its release ramp.
	EventNoteReleased
	// EventNoteEnded fires exactly once when a voice falls silent.
	EventNoteEnded
	// EventVoiceAvailable tells the pool a slot may be reused.
	EventVoiceAvailable
	// EventVoicePosition reports a voice's playback position (rate limited).
	EventVoicePosition
	// EventError reports a recoverable failure such as voice exhaustion.
	EventError
)

// String returns the event name as seen by telemetry consumers.
func (k EventKind) String() string {
	switch k {
	case EventNoteStarted:
		return "note:started"
	case EventNoteReleased:
		return "note:released"
	case EventNoteEnded:
		return "note:ended"
	case EventVoiceAvailable:
		return "voice:available"
	case EventVoicePosition:
		return "voice:position"
	case EventError:
		return "error"
	default:
		return fmt.Sprintf("event(%d)", uint8(k))
	}
}

// Event is a render → control message.
type Event struct {
	Kind       EventKind
	Voice      int
	Generation uint32
	Note       uint8
	// Frame is the absolute engine frame the event refers to
	Frame int64
	// Position is the playback position in seconds of the voice's buffer
	Position float64
	Loops    int
	Err      error
}

func (e Event) String() string {
	switch e.Kind {
	case EventVoicePosition:
		return fmt.Sprintf("%s{voice:%d, note:%d, pos:%.4fs, loops:%d}",
			e.Kind, e.Voice, e.Note, e.Position, e.Loops)
	case EventError:
		return fmt.Sprintf("%s{note:%d, err:%v}", e.Kind, e.Note, e.Err)
	default:
		return fmt.Sprintf("%s{voice:%d, note:%d, frame:%d}", e.Kind, e.Voice, e.Note, e.Frame)
	}
}

// Sink consumes events on the control context.
type Sink interface {
	HandleEvent(e Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(e Event)

// HandleEvent calls f(e).
func (f SinkFunc) HandleEvent(e Event) {
	f(e)
}
