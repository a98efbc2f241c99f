package decode

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-audio/wav"
)

// WAVDecoder decodes RIFF/WAVE containers using go-audio.
type WAVDecoder struct{}

// NewWAVDecoder creates a WAVDecoder.
func NewWAVDecoder() *WAVDecoder {
	return &WAVDecoder{}
}

// Decode parses a WAV byte stream into mono PCM at TargetSampleRate.
func (d *WAVDecoder) Decode(_ context.Context, data []byte) (PCM, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return PCM{}, fmt.Errorf("%w: not a valid WAV file", ErrDecodeFailed)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return PCM{}, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return PCM{}, fmt.Errorf("%w: no audio data", ErrDecodeFailed)
	}

	bitDepth := int(dec.BitDepth)
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))

	interleaved := make([]float64, len(buf.Data))
	for i, s := range buf.Data {
		interleaved[i] = float64(s) / scale
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}

	return toTarget(interleaved, channels, buf.Format.SampleRate), nil
}
