package sample

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"
)

func sineChannel(frames int, period float64) []float32 {
	out := make([]float32, frames)
	for i := range out {
		out[i] = float32(math.Sin(2 * math.Pi * float64(i) / period))
	}
	return out
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		pcm  PCM
		want error
	}{
		{"NoChannels", PCM{SampleRate: 44100}, ErrChannels},
		{"ThreeChannels", PCM{SampleRate: 44100, Channels: make([][]float32, 3)}, ErrChannels},
		{"ZeroRate", PCM{SampleRate: 0, Channels: [][]float32{{1}}}, ErrSampleRate},
		{"NaNRate", PCM{SampleRate: math.NaN(), Channels: [][]float32{{1}}}, ErrSampleRate},
		{"Empty", PCM{SampleRate: 44100, Channels: [][]float32{{}}}, ErrEmpty},
		{"Ragged", PCM{SampleRate: 44100, Channels: [][]float32{{1, 2}, {1}}}, ErrChannelLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.pcm)
			if errors.Cause(err) != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadCopiesAndSanitizes(t *testing.T) {
	src := []float32{0.5, float32(math.NaN()), float32(math.Inf(1)), -0.5}
	buf, err := Load(PCM{SampleRate: 48000, Channels: [][]float32{src}})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	src[0] = 1
	data := buf.Channel(0)
	if data[0] != 0.5 {
		t.Errorf("Buffer aliases caller data: got %f", data[0])
	}
	if data[1] != 0 || data[2] != 0 {
		t.Errorf("Non-finite input not replaced: %v", data)
	}
	if buf.Channel(1) != nil {
		t.Error("Expected nil for missing channel")
	}
	if buf.Frames() != 4 || buf.Channels() != 1 {
		t.Errorf("Unexpected shape: %d frames, %d channels", buf.Frames(), buf.Channels())
	}
}

func TestZeroCrossings(t *testing.T) {
	buf, err := Load(PCM{SampleRate: 8, Channels: [][]float32{{1, 0.5, -0.5, -1, 0, 1, -1, -1}}})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := []int{2, 4, 6}
	got := buf.ZeroCrossings()
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Crossing %d: expected %d, got %d", i, want[i], got[i])
		}
		if secs := buf.ZeroCrossingSeconds()[i]; secs != float64(want[i])/8 {
			t.Errorf("Crossing %d: expected %f s, got %f s", i, float64(want[i])/8, secs)
		}
	}
}

func TestZeroCrossingsAscendingAndBounded(t *testing.T) {
	buf, err := Load(PCM{SampleRate: 44100, Channels: [][]float32{sineChannel(4410, 37.3), sineChannel(4410, 51.1)}})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	zc := buf.ZeroCrossings()
	if len(zc) == 0 {
		t.Fatal("Expected zero crossings in a sine")
	}
	for i, frame := range zc {
		if frame < 0 || frame >= buf.Frames() {
			t.Errorf("Crossing %d out of range: %d", i, frame)
		}
		if i > 0 && frame <= zc[i-1] {
			t.Errorf("Table not strictly ascending at %d: %d <= %d", i, frame, zc[i-1])
		}
	}
}

func TestFromInterleaved(t *testing.T) {
	buf, err := FromInterleaved([]float32{0.1, -0.1, 0.2, -0.2, 0.3, -0.3}, 2, 44100)
	if err != nil {
		t.Fatalf("FromInterleaved failed: %v", err)
	}
	if buf.Frames() != 3 {
		t.Fatalf("Expected 3 frames, got %d", buf.Frames())
	}
	if buf.Channel(0)[2] != 0.3 || buf.Channel(1)[2] != -0.3 {
		t.Errorf("Deinterleave mismatch: %v %v", buf.Channel(0), buf.Channel(1))
	}

	if _, err := FromInterleaved([]float32{1}, 3, 44100); errors.Cause(err) != ErrChannels {
		t.Errorf("Expected ErrChannels, got %v", err)
	}
}

func TestSecondsToFrame(t *testing.T) {
	buf, _ := Load(PCM{SampleRate: 1000, Channels: [][]float32{make([]float32, 1000)}})

	tests := []struct {
		seconds float64
		want    int
	}{
		{0, 0},
		{0.0019, 1},
		{0.25, 250},
		{-0.0005, -1},
		{math.NaN(), 0},
		{math.Inf(1), math.MaxInt32},
	}
	for _, tt := range tests {
		if got := buf.SecondsToFrame(tt.seconds); got != tt.want {
			t.Errorf("SecondsToFrame(%v): expected %d, got %d", tt.seconds, tt.want, got)
		}
	}
}

func TestLoadFileWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	data := []int{0, 0, 16384, -16384, -32768, 32767, 100, -100}
	enc := wav.NewEncoder(f, 22050, 16, 2, 1)
	ib := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: 22050},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(ib); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Encoder close failed: %v", err)
	}
	f.Close()

	buf, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if buf.Channels() != 2 || buf.Frames() != 4 || buf.SampleRate() != 22050 {
		t.Fatalf("Unexpected shape: %d ch, %d frames, %f Hz", buf.Channels(), buf.Frames(), buf.SampleRate())
	}
	if got := buf.Channel(0)[1]; math.Abs(float64(got)-0.5) > 1e-6 {
		t.Errorf("Expected 0.5, got %f", got)
	}
	if got := buf.Channel(0)[2]; got != -1 {
		t.Errorf("Expected -1, got %f", got)
	}
}

func TestIntBufferToPCM(t *testing.T) {
	tests := []struct {
		name     string
		bitDepth int
		data     []int
		want     []float32
	}{
		{"16Bit", 16, []int{0, 16384, -32768, 32767}, []float32{0, 0.5, -1, float32(32767.0 / 32768.0)}},
		{"8BitUnsigned", 8, []int{128, 192, 0, 255}, []float32{0, 0.5, -1, float32(127.0 / 128.0)}},
		{"24Bit", 24, []int{0, 1 << 22, -(1 << 23)}, []float32{0, 0.5, -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ib := &audio.IntBuffer{
				Format: &audio.Format{NumChannels: 1, SampleRate: 8000},
				Data:   tt.data,
			}
			pcm := intBufferToPCM(ib, tt.bitDepth)
			if pcm.SampleRate != 8000 || len(pcm.Channels) != 1 {
				t.Fatalf("Unexpected shape: %f Hz, %d channels", pcm.SampleRate, len(pcm.Channels))
			}
			for i, want := range tt.want {
				if got := pcm.Channels[0][i]; math.Abs(float64(got-want)) > 1e-6 {
					t.Errorf("Sample %d: expected %f, got %f", i, want, got)
				}
			}
		})
	}
}

func TestLoadFileUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); errors.Cause(err) != ErrFormat {
		t.Errorf("Expected ErrFormat, got %v", err)
	}
}

func BenchmarkLoad(b *testing.B) {
	pcm := PCM{SampleRate: 44100, Channels: [][]float32{sineChannel(44100, 100), sineChannel(44100, 101)}}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Load(pcm); err != nil {
			b.Fatal(err)
		}
	}
}
