package sample

import (
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/pkg/errors"
)

// ErrFormat is returned for files that are neither WAV nor MP3.
var ErrFormat = errors.New("sample: unsupported file format")

// DecodeWAV decodes an integer PCM WAV stream.
func DecodeWAV(r io.ReadSeeker) (PCM, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return PCM{}, errors.Wrap(ErrFormat, "invalid wav stream")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return PCM{}, errors.Wrap(err, "decoding wav pcm")
	}
	if buf.Format == nil {
		return PCM{}, errors.Wrap(ErrFormat, "wav stream has no format chunk")
	}

	bitDepth := int(dec.BitDepth)
	if bitDepth == 0 {
		bitDepth = buf.SourceBitDepth
	}
	if bitDepth <= 0 || bitDepth > 32 {
		return PCM{}, errors.Wrapf(ErrFormat, "unsupported bit depth %d", bitDepth)
	}

	channels := buf.Format.NumChannels
	if channels < MinChannels || channels > MaxChannels {
		return PCM{}, errors.Wrapf(ErrChannels, "wav has %d channels", channels)
	}

	return intBufferToPCM(buf, bitDepth), nil
}

// intBufferToPCM deinterleaves buf into floats in [-1, 1).
func intBufferToPCM(buf *audio.IntBuffer, bitDepth int) PCM {
	scale := 1.0 / math.Pow(2, float64(bitDepth-1))
	if bitDepth == 8 {
		// 8-bit WAV is unsigned
		scale = 1.0 / 128.0
	}

	channels := buf.Format.NumChannels
	frames := buf.NumFrames()
	pcm := PCM{
		SampleRate: float64(buf.Format.SampleRate),
		Channels:   make([][]float32, channels),
	}
	for ch := range pcm.Channels {
		pcm.Channels[ch] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			v := buf.Data[i*channels+ch]
			if bitDepth == 8 {
				v -= 128
			}
			pcm.Channels[ch][i] = float32(float64(v) * scale)
		}
	}
	return pcm
}

// DecodeMP3 decodes an MP3 stream. The decoder always yields 16-bit stereo.
func DecodeMP3(r io.Reader) (PCM, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return PCM{}, errors.Wrap(err, "opening mp3 stream")
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return PCM{}, errors.Wrap(err, "decoding mp3")
	}

	const channels = 2
	frames := len(raw) / (2 * channels)
	pcm := PCM{
		SampleRate: float64(dec.SampleRate()),
		Channels:   [][]float32{make([]float32, frames), make([]float32, frames)},
	}
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			off := (i*channels + ch) * 2
			v := int16(uint16(raw[off]) | uint16(raw[off+1])<<8)
			pcm.Channels[ch][i] = float32(v) / 32768
		}
	}
	return pcm, nil
}

// LoadFile decodes a .wav or .mp3 file by extension and prepares a Buffer.
func LoadFile(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	var pcm PCM
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		pcm, err = DecodeWAV(f)
	case ".mp3":
		pcm, err = DecodeMP3(f)
	default:
		return nil, errors.Wrapf(ErrFormat, "%s", path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", path)
	}

	buf, err := Load(pcm)
	if err != nil {
		return nil, errors.Wrapf(err, "preparing %s", path)
	}
	return buf, nil
}
