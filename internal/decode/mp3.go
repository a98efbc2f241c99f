package decode

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"

	mp3 "github.com/hajimehoshi/go-mp3"
)

// MP3Decoder decodes MPEG Layer III audio using go-mp3.
// go-mp3 always renders signed 16-bit little-endian stereo.
type MP3Decoder struct{}

// NewMP3Decoder creates an MP3Decoder.
func NewMP3Decoder() *MP3Decoder {
	return &MP3Decoder{}
}

// Decode parses an MP3 byte stream into mono PCM at TargetSampleRate.
func (d *MP3Decoder) Decode(_ context.Context, data []byte) (PCM, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return PCM{}, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return PCM{}, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	// 2 bytes per sample, 2 channels.
	frames := len(raw) / 4
	if frames == 0 {
		return PCM{}, fmt.Errorf("%w: no audio data", ErrDecodeFailed)
	}

	interleaved := make([]float64, frames*2)
	for i := 0; i < frames; i++ {
		left := int16(binary.LittleEndian.Uint16(raw[i*4:]))
		right := int16(binary.LittleEndian.Uint16(raw[i*4+2:]))
		interleaved[i*2] = float64(left) / 32768.0
		interleaved[i*2+1] = float64(right) / 32768.0
	}

	return toTarget(interleaved, 2, dec.SampleRate()), nil
}
