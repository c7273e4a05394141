package render

import (
	"github.com/justyntemme/polysampler/pkg/framework/message"
)

// drain applies every pending command. Called once at block start.
func (e *Engine) drain() {
	for {
		cmd, ok := e.commands.Pop()
		if !ok {
			return
		}
		e.apply(&cmd)
	}
}

func (e *Engine) apply(cmd *message.Command) {
	switch cmd.Kind {
	case message.CmdStart, message.CmdSteal:
		if v := e.Voice(cmd.Voice); v != nil {
			e.steal(v, cmd)
		}

	case message.CmdRelease:
		if v := e.Voice(cmd.Voice); v != nil {
			e.release(v, cmd.Generation)
		}

	case message.CmdStop:
		if v := e.Voice(cmd.Voice); v != nil && v.state != Idle && v.gen == cmd.Generation {
			v.pending = false
			e.endOfLife(v, 0)
		}

	case message.CmdReleaseAll:
		e.releaseAll(cmd.Value)

	case message.CmdSetBuffer:
		e.setBuffer(cmd)

	case message.CmdSetLoopPoint:
		if cmd.Which == message.LoopEnd {
			e.loop.SetEndTarget(cmd.Value, cmd.Ramp)
		} else {
			e.loop.SetStartTarget(cmd.Value, cmd.Ramp)
		}

	case message.CmdSetLoopEnabled:
		e.loopEnabled = cmd.Flag

	case message.CmdSetParam:
		e.params.Set(cmd.Param, cmd.Value)

	case message.CmdSetSnapValues:
		e.snapToZero = cmd.Values == nil && cmd.Flag
		e.customSnap = cmd.Values
		e.applySnapTable()
	}
}

// start begins a note on v from silence.
func (e *Engine) start(v *Voice, gen uint32, note uint8, velocity, pitch float64, delay int) {
	v.gen = gen
	v.noteGen = gen
	v.note = note
	v.velocity = clamp01(velocity)
	v.pitch = pitch
	v.delay = delay
	if v.delay < 0 {
		v.delay = 0
	}

	v.buf = e.buffer
	v.state = Active
	v.fresh = true
	v.started = false
	v.loops = 0
	v.drift = 0
	v.residual = [2]float64{}
	v.last = [2]float64{}
	v.sinceReport = 0
	v.pending = false
	v.releaseLeft = 0

	v.env.Reset()
	v.env.Trigger()
}

// steal starts cmd's note on v. A sounding voice is faded out first and the
// new note takes over once it is silent.
func (e *Engine) steal(v *Voice, cmd *message.Command) {
	pitch := pitchRatio(int(cmd.Note), e.cfg.RootNote, e.cfg.KeyTracking)

	if v.state == Idle || !v.started {
		e.start(v, cmd.Generation, cmd.Note, cmd.Velocity, pitch, cmd.Delay)
		return
	}

	v.gen = cmd.Generation
	v.pending = true
	v.pendingNote = cmd.Note
	v.pendingVel = cmd.Velocity
	v.pendingPitch = pitch

	v.env.ReleaseIn(e.cfg.StealFade)
	if v.state != Releasing || v.releaseLeft > e.stealFrames {
		v.releaseLeft = e.stealFrames
	}
	v.state = Releasing
}

// release moves v into its release ramp if gen is still current.
func (e *Engine) release(v *Voice, gen uint32) {
	if v.state == Idle || v.gen != gen {
		return
	}
	if v.pending {
		// The incoming note was released before it sounded
		v.pending = false
		return
	}
	if v.state != Active {
		return
	}
	if !v.started {
		// Still waiting out its start delay: nothing to fade
		e.endOfLife(v, 0)
		return
	}

	v.state = Releasing
	v.env.Release()
	v.releaseLeft = e.hardStopFrames
	e.emit(message.Event{
		Kind:       message.EventNoteReleased,
		Voice:      v.index,
		Generation: v.noteGen,
		Note:       v.note,
		Frame:      e.frame,
	})
}

// releaseAll fades every voice over seconds, or stops them when seconds <= 0.
func (e *Engine) releaseAll(seconds float64) {
	fadeFrames := int(seconds*e.cfg.SampleRate) + 1
	if fadeFrames > e.hardStopFrames {
		fadeFrames = e.hardStopFrames
	}

	for i := range e.voices {
		v := &e.voices[i]
		if v.state == Idle {
			continue
		}
		v.pending = false
		if !(seconds > 0) || !v.started {
			e.endOfLife(v, 0)
			continue
		}

		wasActive := v.state == Active
		v.env.ReleaseIn(seconds)
		if v.state != Releasing || v.releaseLeft > fadeFrames {
			v.releaseLeft = fadeFrames
		}
		v.state = Releasing
		if wasActive {
			e.emit(message.Event{
				Kind:       message.EventNoteReleased,
				Voice:      v.index,
				Generation: v.noteGen,
				Note:       v.note,
				Frame:      e.frame,
			})
		}
	}
}

// endOfLife retires the sounding note of v at block offset. A pending
// steal takes the slot over; otherwise the slot is handed back to the pool.
func (e *Engine) endOfLife(v *Voice, offset int) {
	frame := e.frame + int64(offset)
	if v.started {
		pos := 0.0
		if v.buf != nil {
			pos = v.pos / v.buf.SampleRate()
		}
		e.emit(message.Event{
			Kind:       message.EventNoteEnded,
			Voice:      v.index,
			Generation: v.noteGen,
			Note:       v.note,
			Frame:      frame,
			Position:   pos,
			Loops:      v.loops,
		})
	}

	if v.pending {
		e.start(v, v.gen, v.pendingNote, v.pendingVel, v.pendingPitch, 0)
		return
	}

	v.state = Idle
	v.buf = nil
	v.started = false
	v.env.Reset()
	e.emit(message.Event{
		Kind:       message.EventVoiceAvailable,
		Voice:      v.index,
		Generation: v.gen,
		Frame:      frame,
	})
}

// setBuffer swaps in the sample used by notes started from now on and
// rebinds the loop macros to its time base.
func (e *Engine) setBuffer(cmd *message.Command) {
	e.buffer = cmd.Buffer
	if e.buffer == nil {
		return
	}

	duration := e.buffer.Duration()
	e.loop.SetGap(1 / e.buffer.SampleRate())
	e.loop.SetDomain(0, duration)
	// Raw targets: Values pads an empty pair out to the gap
	if e.loop.End().Target()-e.loop.Start().Target() < e.loop.Gap() {
		e.loop.Reset(0, duration)
	}
	e.applySnapTable()
}

func (e *Engine) applySnapTable() {
	if e.snapToZero {
		if e.buffer != nil {
			e.loop.SetAllowedValues(e.buffer.ZeroCrossingSeconds())
		} else {
			e.loop.SetAllowedValues(nil)
		}
		return
	}
	e.loop.SetAllowedValues(e.customSnap)
}

// emit posts ev, counting it as dropped when the ring is full.
func (e *Engine) emit(ev message.Event) {
	if !e.events.Push(ev) {
		e.stats.RecordDroppedEvent()
	}
}

func clamp01(v float64) float64 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
