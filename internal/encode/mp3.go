package encode

import (
	"bytes"
	"fmt"

	mp3 "github.com/braheezy/shine-mp3/pkg/mp3"

	"github.com/reelscribe/reelscribe/internal/audio"
)

// mp3BlockSamples is the MP3 Layer III granule size; shine encodes in whole
// blocks, so input is zero-padded up to a block boundary.
const mp3BlockSamples = 1152

// MP3Encoder renders chunks as mono MPEG Layer III via shine (pure Go).
// Roughly an eighth of the WAV byte rate, useful under tight relay ceilings.
type MP3Encoder struct{}

// NewMP3Encoder creates an MP3Encoder.
func NewMP3Encoder() *MP3Encoder {
	return &MP3Encoder{}
}

// Encode writes the chunk into an in-memory MP3 stream.
func (e *MP3Encoder) Encode(chunk audio.Chunk, sourceName string) (Segment, error) {
	if len(chunk.Samples) == 0 {
		return Segment{}, fmt.Errorf("chunk %d: %w", chunk.ID, ErrEmptyChunk)
	}

	data := make([]int16, len(chunk.Samples))
	for i, s := range chunk.Samples {
		data[i] = pcm16(s)
	}
	for len(data)%mp3BlockSamples != 0 {
		data = append(data, 0)
	}

	var buf bytes.Buffer
	enc := mp3.NewEncoder(chunk.SampleRate, 1)
	if err := enc.Write(&buf, data); err != nil {
		return Segment{}, fmt.Errorf("chunk %d: mp3 encode: %w", chunk.ID, err)
	}

	if buf.Len() == 0 {
		return Segment{}, fmt.Errorf("chunk %d: mp3 encoder produced no frames", chunk.ID)
	}

	return Segment{
		Name:      segmentName(sourceName, chunk.ID, "mp3"),
		MIME:      "audio/mpeg",
		Data:      buf.Bytes(),
		StartTime: chunk.StartTime,
	}, nil
}
