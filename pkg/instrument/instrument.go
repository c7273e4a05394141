// Package instrument ties the voice pool, the render engine and the
// parameter registry together into a playable sampler.
//
// An Instrument has two sides. Control methods (PlayNote, SetLoopPoint,
// LoadSample, PumpEvents, ...) may be called from any goroutine; they are
// serialized by a mutex that the render side never touches. Process is the
// render side and must be called from a single audio goroutine.
package instrument

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/justyntemme/polysampler/pkg/framework/debug"
	"github.com/justyntemme/polysampler/pkg/framework/message"
	"github.com/justyntemme/polysampler/pkg/framework/param"
	"github.com/justyntemme/polysampler/pkg/framework/render"
	"github.com/justyntemme/polysampler/pkg/framework/voice"
	"github.com/justyntemme/polysampler/pkg/sample"
	"github.com/pkg/errors"
)

var (
	// ErrNoVoice is reported when a note finds no free voice and stealing
	// is disabled.
	ErrNoVoice = errors.New("instrument: no voice available")
	// ErrQueueFull is reported when the command ring cannot take a command.
	ErrQueueFull = errors.New("instrument: command queue full")
	// ErrNote is reported for notes outside 0-127.
	ErrNote = errors.New("instrument: note out of range")
)

// Instrument is a polyphonic sampler.
type Instrument struct {
	cfg    Config
	engine *render.Engine
	params *param.Registry
	logger *debug.Logger

	mu      sync.Mutex
	pool    *voice.Pool
	sink    message.Sink
	buffer  *sample.Buffer
	handles []voice.Handle

	// pumpMu serializes PumpEvents and guards events while the sink runs
	pumpMu sync.Mutex
	events []message.Event

	snapToZero bool
	snapValues []float64

	dropped  uint64
	overruns uint64
}

// New validates cfg and builds an instrument with no sample loaded.
func New(cfg Config) (*Instrument, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = debug.Default()
	}

	inst := &Instrument{
		cfg:        cfg,
		engine:     render.New(cfg.Config),
		params:     param.NewRegistry(),
		logger:     logger.Named("instrument"),
		pool:       voice.NewPool(cfg.Voices),
		handles:    make([]voice.Handle, 0, cfg.Voices),
		events:     make([]message.Event, 0, cfg.EventQueueSize),
		snapToZero: cfg.SnapToZeroCrossings,
	}
	inst.pool.SetStealingMode(cfg.Stealing)

	if err := inst.initializeParameters(); err != nil {
		return nil, errors.Wrap(err, "registering parameters")
	}

	// Seed the engine with every parameter's starting value
	for _, p := range inst.params.All() {
		inst.send(message.Command{Kind: message.CmdSetParam, Param: p.ID, Value: p.Value()})
	}
	if inst.snapToZero {
		inst.send(message.Command{Kind: message.CmdSetSnapValues, Flag: true})
	}

	inst.logger.Debug("created: %d voices, %.0f Hz, %d channels, stealing %s",
		cfg.Voices, cfg.SampleRate, cfg.Channels, cfg.Stealing)
	return inst, nil
}

// Config returns the configuration the instrument was built with.
func (i *Instrument) Config() Config {
	return i.cfg
}

// Parameters returns the instrument's parameter registry.
func (i *Instrument) Parameters() *param.Registry {
	return i.params
}

// SetSink sets the consumer of render events. A nil sink discards them.
func (i *Instrument) SetSink(sink message.Sink) {
	i.mu.Lock()
	i.sink = sink
	i.mu.Unlock()
}

// Sample returns the most recently loaded buffer, or nil.
func (i *Instrument) Sample() *sample.Buffer {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.buffer
}

// PlayNote starts note immediately. It returns false when no voice could be
// found; an error event carrying ErrNoVoice is then delivered to the sink.
func (i *Instrument) PlayNote(note int, velocity float64) bool {
	return i.PlayNoteAt(note, velocity, 0)
}

// PlayNoteAt starts note after delay, measured from the start of the next
// rendered block.
func (i *Instrument) PlayNoteAt(note int, velocity float64, delay time.Duration) bool {
	if note < 0 || note >= voice.MaxNotes {
		i.report(uint8(0), errors.Wrapf(ErrNote, "note %d", note))
		return false
	}
	if math.IsNaN(velocity) {
		velocity = 0
	}

	i.mu.Lock()
	h, ok := i.pool.Allocate(uint8(note), velocity)
	kind := message.CmdStart
	if !ok && i.pool.StealingMode() != voice.StealNone {
		h, ok = i.pool.Steal(uint8(note), velocity)
		kind = message.CmdSteal
	}
	if !ok {
		i.mu.Unlock()
		i.logger.Debug("note %d refused: all %d voices busy", note, i.cfg.Voices)
		i.report(uint8(note), ErrNoVoice)
		return false
	}

	sent := i.send(message.Command{
		Kind:       kind,
		Voice:      h.Index,
		Generation: h.Generation,
		Note:       uint8(note),
		Velocity:   velocity,
		Delay:      i.delayFrames(delay),
	})
	if !sent {
		// The render side never saw this generation, so nothing else
		// would return the slot
		i.pool.Reclaim(h)
	}
	i.mu.Unlock()

	if !sent {
		i.report(uint8(note), ErrQueueFull)
		return false
	}
	if kind == message.CmdSteal {
		i.logger.Debug("note %d stole voice %d", note, h.Index)
	}
	return true
}

// ReleaseNote releases every voice playing note. While sustain is held the
// voices keep sounding until the pedal is lifted.
func (i *Instrument) ReleaseNote(note int) {
	if note < 0 || note >= voice.MaxNotes {
		return
	}

	i.mu.Lock()
	i.handles = i.pool.Release(uint8(note), i.handles[:0])
	i.sendAll(message.CmdRelease)
	i.mu.Unlock()
}

// SetSustain sets the sustain pedal. Lifting it releases held notes.
func (i *Instrument) SetSustain(on bool) {
	i.mu.Lock()
	i.handles = i.pool.SetSustain(on, i.handles[:0])
	i.sendAll(message.CmdRelease)
	i.mu.Unlock()
}

// StopAll releases every voice over releaseSeconds. Zero or less stops
// them at the next block boundary.
func (i *Instrument) StopAll(releaseSeconds float64) {
	if math.IsNaN(releaseSeconds) {
		releaseSeconds = 0
	}

	i.mu.Lock()
	i.handles = i.pool.StopAll(i.handles[:0])
	i.send(message.Command{Kind: message.CmdReleaseAll, Value: releaseSeconds})
	i.mu.Unlock()
}

// SetLoopPoint moves one loop point to seconds over rampSeconds. The value
// is clamped to the loaded sample and, when a snap table is active,
// quantized to it.
func (i *Instrument) SetLoopPoint(which message.LoopPoint, seconds, rampSeconds float64) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return
	}
	if !(rampSeconds > 0) || math.IsInf(rampSeconds, 0) {
		rampSeconds = 0
	}

	i.mu.Lock()
	i.send(message.Command{Kind: message.CmdSetLoopPoint, Which: which, Value: seconds, Ramp: rampSeconds})
	i.mu.Unlock()
}

// SetLoopEnabled turns looping on or off for every voice.
func (i *Instrument) SetLoopEnabled(enabled bool) {
	i.mu.Lock()
	i.send(message.Command{Kind: message.CmdSetLoopEnabled, Flag: enabled})
	i.mu.Unlock()
}

// SetLoopSnapValues quantizes loop points to values (seconds). The table is
// copied and sorted; non-finite entries are dropped. A nil or empty table
// turns snapping off.
func (i *Instrument) SetLoopSnapValues(values []float64) {
	var table []float64
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		table = append(table, v)
	}
	sort.Float64s(table)

	i.mu.Lock()
	i.snapToZero = false
	i.snapValues = table
	i.send(message.Command{Kind: message.CmdSetSnapValues, Values: table})
	i.mu.Unlock()
}

// SetSnapToZeroCrossings quantizes loop points to the sample's zero
// crossings. Turning it off restores the last custom table, if any.
func (i *Instrument) SetSnapToZeroCrossings(on bool) {
	i.mu.Lock()
	i.snapToZero = on
	if on {
		i.send(message.Command{Kind: message.CmdSetSnapValues, Flag: true})
	} else {
		i.send(message.Command{Kind: message.CmdSetSnapValues, Values: i.snapValues})
	}
	i.mu.Unlock()
}

// SetParameter sets parameter id to the plain value, clamped to its range,
// and forwards it to the render side. Unknown IDs yield param.ErrUnknownID.
func (i *Instrument) SetParameter(id uint32, plain float64) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	value, err := i.params.Set(id, plain)
	if err != nil {
		return err
	}
	if !i.send(message.Command{Kind: message.CmdSetParam, Param: id, Value: value}) {
		return errors.Wrapf(ErrQueueFull, "setting parameter %d", id)
	}
	return nil
}

// LoadSample prepares pcm and hands it to the render side. Voices already
// playing keep the previous sample; new notes use this one.
func (i *Instrument) LoadSample(pcm sample.PCM) error {
	buf, err := sample.Load(pcm)
	if err != nil {
		return errors.Wrap(err, "loading sample")
	}
	return i.setBuffer(buf)
}

// LoadFile decodes a WAV or MP3 file and loads it.
func (i *Instrument) LoadFile(path string) error {
	buf, err := sample.LoadFile(path)
	if err != nil {
		return err
	}
	return i.setBuffer(buf)
}

func (i *Instrument) setBuffer(buf *sample.Buffer) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.send(message.Command{Kind: message.CmdSetBuffer, Buffer: buf}) {
		return errors.Wrap(ErrQueueFull, "loading sample")
	}
	i.buffer = buf
	i.logger.Info("sample loaded: %d frames, %d channels, %.0f Hz, %d zero crossings",
		buf.Frames(), buf.Channels(), buf.SampleRate(), len(buf.ZeroCrossings()))
	return nil
}

// ActiveVoices returns the number of voices not yet reported free.
func (i *Instrument) ActiveVoices() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.pool.ActiveCount()
}

// Stats returns the render statistics.
func (i *Instrument) Stats() debug.StatsSnapshot {
	return i.engine.Stats().Snapshot()
}

// Process renders frames into out. Render context only.
func (i *Instrument) Process(out [][]float32, frames int) {
	i.engine.Process(out, frames)
}

// PumpEvents drains the event ring, returns finished voices to the pool
// and forwards every event to the sink. It returns the number of events.
// Concurrent calls are delivered one after the other, in ring order. The
// sink must not call PumpEvents itself.
func (i *Instrument) PumpEvents() int {
	i.pumpMu.Lock()
	defer i.pumpMu.Unlock()

	i.mu.Lock()
	events := i.events[:0]
	for {
		ev, ok := i.engine.Events().Pop()
		if !ok {
			break
		}
		if ev.Kind == message.EventVoiceAvailable {
			i.pool.Reclaim(voice.Handle{Index: ev.Voice, Generation: ev.Generation})
		}
		events = append(events, ev)
	}
	i.events = events
	i.logCounters()
	sink := i.sink
	i.mu.Unlock()

	if sink != nil {
		for _, ev := range events {
			sink.HandleEvent(ev)
		}
	}
	return len(events)
}

// Run pumps events every PumpInterval until ctx is done.
func (i *Instrument) Run(ctx context.Context) error {
	ticker := time.NewTicker(i.cfg.PumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			i.PumpEvents()
			return ctx.Err()
		case <-ticker.C:
			i.PumpEvents()
		}
	}
}

// logCounters warns when the render-side failure counters grow. Callers hold mu.
func (i *Instrument) logCounters() {
	s := i.engine.Stats().Snapshot()
	if s.DroppedEvents > i.dropped {
		i.logger.Warn("event queue full: %d events dropped", s.DroppedEvents-i.dropped)
		i.dropped = s.DroppedEvents
	}
	if s.Overruns > i.overruns {
		i.logger.Warn("%d blocks exceeded %d frames", s.Overruns-i.overruns, i.cfg.MaxBlockSize)
		i.overruns = s.Overruns
	}
}

// send pushes cmd to the render side. Callers hold mu.
func (i *Instrument) send(cmd message.Command) bool {
	if i.engine.Commands().Push(cmd) {
		return true
	}
	i.logger.Warn("command queue full, dropped %s", cmd.Kind)
	return false
}

// sendAll sends kind for every handle in i.handles. Callers hold mu.
func (i *Instrument) sendAll(kind message.CommandKind) {
	for _, h := range i.handles {
		i.send(message.Command{Kind: kind, Voice: h.Index, Generation: h.Generation})
	}
}

// report delivers a control-side error event to the sink.
func (i *Instrument) report(note uint8, err error) {
	i.mu.Lock()
	sink := i.sink
	i.mu.Unlock()

	if sink != nil {
		sink.HandleEvent(message.Event{Kind: message.EventError, Voice: -1, Note: note, Err: err})
	}
}

func (i *Instrument) delayFrames(delay time.Duration) int {
	if delay <= 0 {
		return 0
	}
	return int(math.Round(delay.Seconds() * i.cfg.SampleRate))
}
