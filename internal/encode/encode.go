// Package encode renders planned chunks into submittable audio containers.
package encode

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/reelscribe/reelscribe/internal/audio"
)

// ErrEmptyChunk indicates a chunk with no samples reached the encoder.
// This is a planner bug, not an input condition.
var ErrEmptyChunk = errors.New("chunk has no samples")

// Segment is the byte-exact container produced from one chunk. Transient:
// owned solely by the submission step, not retained after a response.
type Segment struct {
	Name      string        // Deterministic: <source base>_chunk<id>.<ext>.
	MIME      string        // Container MIME type.
	Data      []byte        // Full container bytes.
	StartTime time.Duration // Carried through from the chunk for reassembly.
}

// Size returns the container size in bytes.
func (s Segment) Size() int64 {
	return int64(len(s.Data))
}

// Encoder renders one chunk into a container accepted by the relay.
type Encoder interface {
	Encode(chunk audio.Chunk, sourceName string) (Segment, error)
}

// Compile-time interface implementation checks.
var (
	_ Encoder = (*WAVEncoder)(nil)
	_ Encoder = (*MP3Encoder)(nil)
)

// segmentName derives the deterministic segment filename from the original
// source name and the chunk's ordinal id.
func segmentName(sourceName string, id int, ext string) string {
	base := strings.TrimSuffix(filepath.Base(sourceName), filepath.Ext(sourceName))
	if base == "" || base == "." {
		base = "audio"
	}
	return fmt.Sprintf("%s_chunk%03d.%s", base, id, ext)
}

// pcm16 clips a float sample into [-1, 1] and scales it to signed 16-bit.
// Negative values scale by 0x8000 and non-negative by 0x7FFF so neither
// direction can overflow.
func pcm16(s float64) int16 {
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	if s < 0 {
		return int16(s * 0x8000)
	}
	return int16(s * 0x7FFF)
}
