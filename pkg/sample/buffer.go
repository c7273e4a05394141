// Package sample holds decoded PCM sample data shared by every voice of an instrument.
package sample

import (
	"math"

	"github.com/pkg/errors"
)

// Channel limits for a playable buffer
const (
	MinChannels = 1
	MaxChannels = 2
)

var (
	// ErrEmpty is returned when the PCM data holds no frames.
	ErrEmpty = errors.New("sample: no frames")
	// ErrChannels is returned for channel counts outside 1-2.
	ErrChannels = errors.New("sample: only 1 or 2 channels are supported")
	// ErrSampleRate is returned for a non-positive or non-finite sample rate.
	ErrSampleRate = errors.New("sample: invalid sample rate")
	// ErrChannelLength is returned when channels differ in length.
	ErrChannelLength = errors.New("sample: channels differ in length")
)

// PCM is decoded, deinterleaved audio as handed over by a decoder.
type PCM struct {
	SampleRate float64
	Channels   [][]float32
}

// Buffer is immutable sample data plus its zero-crossing index.
// It is built off the audio thread and never mutated afterwards, so any
// number of voices may read it concurrently.
type Buffer struct {
	sampleRate float64
	frames     int
	data       [][]float32

	// ascending frame indices where the signal changes sign
	zeroCrossings []int
	// the same table expressed in seconds, used as macro snap values
	zeroCrossingSeconds []float64
}

// Load validates pcm, copies it and computes the zero-crossing table.
func Load(pcm PCM) (*Buffer, error) {
	if len(pcm.Channels) < MinChannels || len(pcm.Channels) > MaxChannels {
		return nil, errors.Wrapf(ErrChannels, "got %d", len(pcm.Channels))
	}
	if !(pcm.SampleRate > 0) || math.IsInf(pcm.SampleRate, 0) {
		return nil, errors.Wrapf(ErrSampleRate, "got %v", pcm.SampleRate)
	}

	frames := len(pcm.Channels[0])
	for ch := 1; ch < len(pcm.Channels); ch++ {
		if len(pcm.Channels[ch]) != frames {
			return nil, errors.Wrapf(ErrChannelLength, "channel %d has %d frames, want %d",
				ch, len(pcm.Channels[ch]), frames)
		}
	}
	if frames == 0 {
		return nil, ErrEmpty
	}

	b := &Buffer{
		sampleRate: pcm.SampleRate,
		frames:     frames,
		data:       make([][]float32, len(pcm.Channels)),
	}
	for ch, src := range pcm.Channels {
		dst := make([]float32, frames)
		for i, v := range src {
			// Non-finite input would poison interpolation forever
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				v = 0
			}
			dst[i] = v
		}
		b.data[ch] = dst
	}

	b.zeroCrossings = findZeroCrossings(b.data)
	b.zeroCrossingSeconds = make([]float64, len(b.zeroCrossings))
	for i, frame := range b.zeroCrossings {
		b.zeroCrossingSeconds[i] = float64(frame) / b.sampleRate
	}

	return b, nil
}

// FromInterleaved deinterleaves samples and loads them.
func FromInterleaved(samples []float32, channels int, sampleRate float64) (*Buffer, error) {
	if channels < MinChannels || channels > MaxChannels {
		return nil, errors.Wrapf(ErrChannels, "got %d", channels)
	}
	frames := len(samples) / channels
	pcm := PCM{
		SampleRate: sampleRate,
		Channels:   make([][]float32, channels),
	}
	for ch := range pcm.Channels {
		pcm.Channels[ch] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			pcm.Channels[ch][i] = samples[i*channels+ch]
		}
	}
	return Load(pcm)
}

// findZeroCrossings scans the mono sum of all channels and records every
// frame whose sign differs from the previous frame. Zero counts as positive.
func findZeroCrossings(data [][]float32) []int {
	frames := len(data[0])
	crossings := make([]int, 0, 64)

	mono := func(i int) float32 {
		var sum float32
		for ch := range data {
			sum += data[ch][i]
		}
		return sum
	}

	prev := mono(0)
	for i := 1; i < frames; i++ {
		cur := mono(i)
		if (prev < 0) != (cur < 0) {
			crossings = append(crossings, i)
		}
		prev = cur
	}
	return crossings
}

// Channels returns the channel count (1 or 2).
func (b *Buffer) Channels() int {
	return len(b.data)
}

// SampleRate returns the rate the data was recorded at.
func (b *Buffer) SampleRate() float64 {
	return b.sampleRate
}

// Frames returns the number of frames per channel.
func (b *Buffer) Frames() int {
	return b.frames
}

// Duration returns the buffer length in seconds.
func (b *Buffer) Duration() float64 {
	return float64(b.frames) / b.sampleRate
}

// Channel returns the read-only sample data of channel ch.
// Out-of-range channels return nil.
func (b *Buffer) Channel(ch int) []float32 {
	if ch < 0 || ch >= len(b.data) {
		return nil
	}
	return b.data[ch]
}

// ZeroCrossings returns the ascending zero-crossing frame table.
// Callers must not modify it.
func (b *Buffer) ZeroCrossings() []int {
	return b.zeroCrossings
}

// ZeroCrossingSeconds returns the zero-crossing table in seconds.
// Callers must not modify it.
func (b *Buffer) ZeroCrossingSeconds() []float64 {
	return b.zeroCrossingSeconds
}

// SecondsToFrame converts seconds to a floored frame index in this buffer's
// time base, without clamping. Non-finite input yields 0.
func (b *Buffer) SecondsToFrame(seconds float64) int {
	f := math.Floor(seconds * b.sampleRate)
	if math.IsNaN(f) {
		return 0
	}
	if f > float64(math.MaxInt32) {
		return math.MaxInt32
	}
	if f < float64(math.MinInt32) {
		return math.MinInt32
	}
	return int(f)
}
