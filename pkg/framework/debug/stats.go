package debug

import (
	"fmt"
	"sync/atomic"
	"time"
)

// RenderStats collects counters written by the render context and read by
// the control context. Every field is a lock-free atomic.
type RenderStats struct {
	blocks        atomic.Uint64
	frames        atomic.Uint64
	overruns      atomic.Uint64
	droppedEvents atomic.Uint64
	lastNanos     atomic.Int64
	peakNanos     atomic.Int64
	totalNanos    atomic.Int64
	activeVoices  atomic.Int32
}

// StatsSnapshot is a point-in-time copy of RenderStats.
type StatsSnapshot struct {
	Blocks        uint64
	Frames        uint64
	Overruns      uint64
	DroppedEvents uint64
	Last          time.Duration
	Peak          time.Duration
	Average       time.Duration
	ActiveVoices  int
}

// RecordBlock accounts for one rendered block of frames that took elapsed.
func (s *RenderStats) RecordBlock(frames int, elapsed time.Duration, activeVoices int) {
	s.blocks.Add(1)
	s.frames.Add(uint64(frames))
	s.lastNanos.Store(int64(elapsed))
	s.totalNanos.Add(int64(elapsed))
	s.activeVoices.Store(int32(activeVoices))

	for {
		peak := s.peakNanos.Load()
		if int64(elapsed) <= peak || s.peakNanos.CompareAndSwap(peak, int64(elapsed)) {
			break
		}
	}
}

// RecordOverrun counts a block that asked for more frames than the engine
// was sized for.
func (s *RenderStats) RecordOverrun() {
	s.overruns.Add(1)
}

// RecordDroppedEvent counts a telemetry event lost to a full queue.
func (s *RenderStats) RecordDroppedEvent() {
	s.droppedEvents.Add(1)
}

// Snapshot returns the current counter values.
func (s *RenderStats) Snapshot() StatsSnapshot {
	snap := StatsSnapshot{
		Blocks:        s.blocks.Load(),
		Frames:        s.frames.Load(),
		Overruns:      s.overruns.Load(),
		DroppedEvents: s.droppedEvents.Load(),
		Last:          time.Duration(s.lastNanos.Load()),
		Peak:          time.Duration(s.peakNanos.Load()),
		ActiveVoices:  int(s.activeVoices.Load()),
	}
	if snap.Blocks > 0 {
		snap.Average = time.Duration(s.totalNanos.Load() / int64(snap.Blocks))
	}
	return snap
}

// Reset clears every counter.
func (s *RenderStats) Reset() {
	s.blocks.Store(0)
	s.frames.Store(0)
	s.overruns.Store(0)
	s.droppedEvents.Store(0)
	s.lastNanos.Store(0)
	s.peakNanos.Store(0)
	s.totalNanos.Store(0)
	s.activeVoices.Store(0)
}

// Load returns the average render time as a fraction of the real-time
// budget for blocks of blockFrames at sampleRate.
func (s StatsSnapshot) Load(sampleRate float64, blockFrames int) float64 {
	if sampleRate <= 0 || blockFrames <= 0 {
		return 0
	}
	budget := float64(blockFrames) / sampleRate * float64(time.Second)
	return float64(s.Average) / budget
}

func (s StatsSnapshot) String() string {
	return fmt.Sprintf("blocks=%d frames=%d voices=%d avg=%v peak=%v overruns=%d dropped=%d",
		s.Blocks, s.Frames, s.ActiveVoices, s.Average, s.Peak, s.Overruns, s.DroppedEvents)
}
