// Package render implements the per-block sample playback algorithm.
//
// An Engine runs entirely on the render context. It learns about the
// outside world only through its command ring, drained at the start of each
// block, and reports back only through its event ring. Nothing on the
// render path allocates, locks or logs.
package render

import (
	"math"
	"time"

	"github.com/justyntemme/polysampler/pkg/dsp/envelope"
	"github.com/justyntemme/polysampler/pkg/dsp/gain"
	"github.com/justyntemme/polysampler/pkg/dsp/interpolation"
	"github.com/justyntemme/polysampler/pkg/dsp/pan"
	"github.com/justyntemme/polysampler/pkg/framework/debug"
	"github.com/justyntemme/polysampler/pkg/framework/message"
	"github.com/justyntemme/polysampler/pkg/framework/param"
	"github.com/justyntemme/polysampler/pkg/framework/process"
	"github.com/justyntemme/polysampler/pkg/framework/queue"
	"github.com/justyntemme/polysampler/pkg/sample"
)

// Engine renders every voice of one instrument.
type Engine struct {
	cfg    Config
	voices []Voice

	commands *queue.Ring[message.Command]
	events   *queue.Ring[message.Event]
	stats    debug.RenderStats

	// instrument-wide state, mutated only by commands
	buffer      *sample.Buffer
	loop        *param.Pair
	loopEnabled bool
	params      process.Snapshot
	snapToZero  bool
	customSnap  []float64

	// per-block scratch
	snap  process.Snapshot
	block process.Block
	chunk [][]float32

	frame            int64
	hardStopFrames   int
	stealFrames      int
	positionInterval int
}

// New allocates an engine and all of its voices. cfg must be valid.
func New(cfg Config) *Engine {
	e := &Engine{
		cfg:              cfg,
		voices:           make([]Voice, cfg.Voices),
		commands:         queue.New[message.Command](cfg.CommandQueueSize),
		events:           queue.New[message.Event](cfg.EventQueueSize),
		loop:             param.NewPair(0, 0),
		params:           process.DefaultSnapshot(),
		chunk:            make([][]float32, cfg.Channels),
		hardStopFrames:   int(math.Ceil(cfg.HardStop * cfg.SampleRate)),
		stealFrames:      int(math.Ceil(cfg.StealFade*cfg.SampleRate)) + 1,
		positionInterval: int(cfg.PositionInterval * cfg.SampleRate),
	}
	e.loop.SetDomain(0, 0)

	for i := range e.voices {
		env := envelope.NewAR(cfg.SampleRate)
		env.SetAttack(cfg.Attack)
		env.SetRelease(cfg.Release)
		e.voices[i] = Voice{
			index: i,
			env:   env,
			rng:   0x9E3779B9*uint32(i+1) | 1,
		}
	}
	return e
}

// Commands returns the control → render ring. Exactly one goroutine may push.
func (e *Engine) Commands() *queue.Ring[message.Command] {
	return e.commands
}

// Events returns the render → control ring. Exactly one goroutine may pop.
func (e *Engine) Events() *queue.Ring[message.Event] {
	return e.events
}

// Stats returns the engine's render statistics.
func (e *Engine) Stats() *debug.RenderStats {
	return &e.stats
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() Config {
	return e.cfg
}

// Voice returns slot i, or nil when out of range. Render context only.
func (e *Engine) Voice(i int) *Voice {
	if i < 0 || i >= len(e.voices) {
		return nil
	}
	return &e.voices[i]
}

// Loop returns the loop point macros. Render context only.
func (e *Engine) Loop() *param.Pair {
	return e.loop
}

// ActiveVoices returns the number of non-idle voices. Render context only.
func (e *Engine) ActiveVoices() int {
	n := 0
	for i := range e.voices {
		if e.voices[i].state != Idle {
			n++
		}
	}
	return n
}

// Process is the host callback: it applies pending commands, evaluates the
// parameter snapshot and renders frames into out. Requests larger than
// MaxBlockSize are split and counted as overruns.
func (e *Engine) Process(out [][]float32, frames int) {
	start := time.Now()
	e.drain()

	channels := len(out)
	if channels > len(e.chunk) {
		channels = len(e.chunk)
	}
	for ch := 0; ch < channels; ch++ {
		if len(out[ch]) < frames {
			frames = len(out[ch])
		}
	}
	if frames <= 0 || channels == 0 {
		return
	}
	if frames > e.cfg.MaxBlockSize {
		e.stats.RecordOverrun()
	}

	chunk := e.chunk[:channels]
	for off := 0; off < frames; {
		n := frames - off
		if n > e.cfg.MaxBlockSize {
			n = e.cfg.MaxBlockSize
		}
		for ch := range chunk {
			chunk[ch] = out[ch][off : off+n]
		}

		e.snap = e.params
		e.snap.LoopStart, e.snap.LoopEnd = e.loop.Values()
		e.snap.LoopEnabled = e.loopEnabled
		e.Render(chunk, n, &e.snap)
		e.loop.Advance(float64(n) / e.cfg.SampleRate)

		off += n
	}
	for ch := range chunk {
		chunk[ch] = nil
	}

	e.stats.RecordBlock(frames, time.Since(start), e.ActiveVoices())
}

// Render runs the playback algorithm for one block against snap without
// touching the command queue or advancing any ramp. out is overwritten.
// frames is cut to the shortest channel and extra channels are left alone.
// A nil snap renders with the current parameters and loop points.
func (e *Engine) Render(out [][]float32, frames int, snap *process.Snapshot) {
	if len(out) > len(e.chunk) {
		out = out[:len(e.chunk)]
	}
	for ch := range out {
		if len(out[ch]) < frames {
			frames = len(out[ch])
		}
	}
	if frames <= 0 || len(out) == 0 {
		return
	}
	if snap == nil {
		e.snap = e.params
		e.snap.LoopStart, e.snap.LoopEnd = e.loop.Values()
		e.snap.LoopEnabled = e.loopEnabled
		snap = &e.snap
	}

	e.block.Output = out
	e.block.Frames = frames
	e.block.Snapshot = snap
	e.renderBlock(&e.block)
	e.block.Output = nil
	e.block.Snapshot = nil
}

func (e *Engine) renderBlock(b *process.Block) {
	b.Clear()

	for i := range e.voices {
		v := &e.voices[i]
		if v.state == Idle {
			continue
		}
		e.renderVoice(v, b)
	}

	for ch := 0; ch < b.NumChannels(); ch++ {
		gain.ClipBuffer(b.Channel(ch))
	}
	e.frame += int64(b.Frames)
}

// renderVoice mixes one voice into b.
func (e *Engine) renderVoice(v *Voice, b *process.Block) {
	buf := v.buf
	if buf == nil {
		// No sample: the voice is silent but still honours release.
		if v.state == Releasing {
			e.endOfLife(v, 0)
		}
		return
	}
	snap := b.Snapshot
	frameCount := buf.Frames()

	// Playback range
	playStart := clampInt(buf.SecondsToFrame(snap.TrimStart), 0, frameCount-1)
	playEnd := frameCount
	if snap.TrimEnd > snap.TrimStart {
		playEnd = clampInt(buf.SecondsToFrame(snap.TrimEnd), playStart+1, frameCount)
	}

	// Loop range
	loopStart := clampInt(buf.SecondsToFrame(snap.LoopStart), playStart, playEnd)
	loopEnd := clampInt(buf.SecondsToFrame(snap.LoopEnd), playStart, playEnd)
	looping := snap.LoopEnabled && loopEnd > loopStart
	baseLen := loopEnd - loopStart

	dir := 1.0
	if snap.Reverse {
		dir = -1
	}
	if v.fresh {
		v.fresh = false
		v.pos = float64(playStart)
		if dir < 0 {
			v.pos = float64(playEnd - 1)
		}
	}

	lo, hi := loopStart, loopEnd
	if looping {
		lo, hi = applyDrift(loopStart, loopEnd, v.drift, dir, playStart, playEnd)
	}

	rate := snap.Speed * buf.SampleRate() / e.cfg.SampleRate * v.pitch
	if !(rate > 0) || math.IsInf(rate, 0) {
		rate = 0
	}
	velGain := v.velocity * snap.VelocitySensitivity
	if !(velGain > 0) {
		velGain = 0
	}
	level := velGain * snap.MasterGain

	stereoSource := buf.Channels() > 1
	src0 := buf.Channel(0)
	src1 := src0
	if stereoSource {
		src1 = buf.Channel(1)
	}

	var gl, gr float64
	if stereoSource {
		gl, gr = pan.Stereo(snap.Pan, e.cfg.PanLaw)
	} else {
		gl, gr = pan.Gains(snap.Pan, e.cfg.PanLaw)
	}

	outL := b.Channel(0)
	var outR []float32
	if b.NumChannels() > 1 {
		outR = b.Channel(1)
	}

	period := e.driftPeriod(buf)
	ended := -1
	rendered := 0

	for i := 0; i < b.Frames; i++ {
		if v.delay > 0 {
			v.delay--
			continue
		}

		if v.state == Releasing {
			if v.env.IsIdle() || v.releaseLeft <= 0 {
				ended = i
				break
			}
			v.releaseLeft--
		}

		// a. loop wrap
		if looping {
			wrapped := false
			if dir > 0 && v.pos >= float64(hi) {
				e.wrap(v, float64(lo), level, src0, src1, stereoSource)
				wrapped = true
			} else if dir < 0 && v.pos <= float64(lo) {
				e.wrap(v, float64(hi), level, src0, src1, stereoSource)
				wrapped = true
			}
			if wrapped {
				v.drift = v.driftFrames(baseLen, snap.Drift, period)
				lo, hi = applyDrift(loopStart, loopEnd, v.drift, dir, playStart, playEnd)
			}
		}

		// b. end of range
		if !looping && (v.pos >= float64(playEnd) || v.pos < float64(playStart)) {
			ended = i
			break
		}

		if !v.started {
			v.started = true
			e.emit(message.Event{
				Kind:       message.EventNoteStarted,
				Voice:      v.index,
				Generation: v.noteGen,
				Note:       v.note,
				Frame:      e.frame + int64(i),
			})
		}

		// c. interpolate
		s0 := interpolation.Read(src0, v.pos)
		s1 := s0
		if stereoSource {
			s1 = interpolation.Read(src1, v.pos)
		}

		// d. gains
		g := v.env.Next() * level
		s0 = e.declick(v, 0, s0*g)
		if stereoSource {
			s1 = e.declick(v, 1, s1*g)
		} else {
			s1 = s0
		}

		if outR != nil {
			outL[i] += float32(gain.Clip(gain.Sanitize(s0 * gl)))
			outR[i] += float32(gain.Clip(gain.Sanitize(s1 * gr)))
		} else {
			outL[i] += float32(gain.Clip(gain.Sanitize((s0 + s1) * 0.5)))
		}

		// e. advance
		v.pos += dir * rate
		rendered++
	}

	if ended >= 0 {
		e.endOfLife(v, ended)
		return
	}

	v.sinceReport += rendered
	if e.positionInterval > 0 && v.started && v.sinceReport >= e.positionInterval {
		v.sinceReport = 0
		e.emit(message.Event{
			Kind:       message.EventVoicePosition,
			Voice:      v.index,
			Generation: v.noteGen,
			Note:       v.note,
			Frame:      e.frame + int64(b.Frames),
			Position:   v.pos / buf.SampleRate(),
			Loops:      v.loops,
		})
	}
}

// wrap jumps v to target and arms the declick residual for the seam.
func (e *Engine) wrap(v *Voice, target, level float64, src0, src1 []float32, stereo bool) {
	g := v.env.Value() * level
	e.armDeclick(v, 0, v.last[0]-interpolation.Read(src0, target)*g)
	if stereo {
		e.armDeclick(v, 1, v.last[1]-interpolation.Read(src1, target)*g)
	}
	v.pos = target
	v.loops++
}

func (e *Engine) armDeclick(v *Voice, ch int, d float64) {
	if math.Abs(d) > e.cfg.DeclickThreshold && !math.IsNaN(d) && !math.IsInf(d, 0) {
		v.residual[ch] = d * e.cfg.DeclickFactor
	}
}

// declick adds and decays the channel's residual and remembers the result
// as the last rendered value.
func (e *Engine) declick(v *Voice, ch int, s float64) float64 {
	s = gain.Sanitize(s)
	if r := v.residual[ch]; r != 0 {
		s += r
		r *= e.cfg.DeclickDecay
		if math.Abs(r) < e.cfg.DeclickFloor {
			r = 0
		}
		v.residual[ch] = r
	}
	v.last[ch] = s
	return s
}

// driftPeriod returns the pitch period in buffer frames used to quantize drift.
func (e *Engine) driftPeriod(buf *sample.Buffer) float64 {
	if e.cfg.DriftPeriodFrames > 0 {
		return e.cfg.DriftPeriodFrames
	}
	rootHz := 440 * math.Exp2(float64(e.cfg.RootNote-69)/12)
	return buf.SampleRate() / rootHz
}

// applyDrift moves the loop edge the voice is heading towards by drift
// frames, keeping the loop non-empty and inside the playback range.
func applyDrift(loopStart, loopEnd, drift int, dir float64, playStart, playEnd int) (int, int) {
	if drift == 0 {
		return loopStart, loopEnd
	}
	if dir > 0 {
		return loopStart, clampInt(loopEnd+drift, loopStart+1, playEnd)
	}
	return clampInt(loopStart-drift, playStart, loopEnd-1), loopEnd
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
