package encode

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/orcaman/writerseeker"

	"github.com/reelscribe/reelscribe/internal/audio"
)

// WAVEncoder renders chunks as 16-bit PCM mono RIFF/WAVE, the canonical
// submission container: every provider accepts it and the per-second byte
// rate is known exactly, which keeps the planner's size math honest.
type WAVEncoder struct{}

// NewWAVEncoder creates a WAVEncoder.
func NewWAVEncoder() *WAVEncoder {
	return &WAVEncoder{}
}

// Encode writes the chunk into an in-memory WAV container.
func (e *WAVEncoder) Encode(chunk audio.Chunk, sourceName string) (Segment, error) {
	if len(chunk.Samples) == 0 {
		return Segment{}, fmt.Errorf("chunk %d: %w", chunk.ID, ErrEmptyChunk)
	}

	data := make([]int, len(chunk.Samples))
	for i, s := range chunk.Samples {
		data[i] = int(pcm16(s))
	}

	ws := &writerseeker.WriterSeeker{}
	enc := wav.NewEncoder(ws, chunk.SampleRate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: chunk.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}

	if err := enc.Write(buf); err != nil {
		return Segment{}, fmt.Errorf("chunk %d: wav write: %w", chunk.ID, err)
	}
	// Close backfills the RIFF and data sub-chunk lengths.
	if err := enc.Close(); err != nil {
		return Segment{}, fmt.Errorf("chunk %d: wav finalize: %w", chunk.ID, err)
	}

	raw, err := io.ReadAll(ws.Reader())
	if err != nil {
		return Segment{}, fmt.Errorf("chunk %d: %w", chunk.ID, err)
	}

	return Segment{
		Name:      segmentName(sourceName, chunk.ID, "wav"),
		MIME:      "audio/wav",
		Data:      raw,
		StartTime: chunk.StartTime,
	}, nil
}
