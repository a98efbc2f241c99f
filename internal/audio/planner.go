package audio

import (
	"fmt"
	"time"

	"github.com/reelscribe/reelscribe/internal/format"
)

// Default planning parameters.
const (
	// DefaultMaxChunkBytes is the target maximum encoded chunk size.
	// Provider ceilings in the wild run 4-25MB; 20MB leaves headroom under
	// the common 25MB limit.
	DefaultMaxChunkBytes = 20 * 1024 * 1024

	// defaultMinChunkDuration is the floor below which no chunk is emitted.
	// Very short uploads waste round trips and confuse providers.
	defaultMinChunkDuration = 5 * time.Second

	// defaultOverlap extends each chunk's tail into its successor so
	// boundary words are captured in at least one chunk. Compensated for
	// during stitching, not here.
	defaultOverlap = 1 * time.Second

	// defaultTolerance bounds how far from the size-budget target a silence
	// candidate may sit and still be preferred over a hard cut.
	defaultTolerance = 15 * time.Second

	// defaultFadeSamples is the linear fade length applied at cut boundaries
	// to avoid audible clicks. Kept short so no speech is attenuated.
	defaultFadeSamples = 100
)

// Chunk is a time-bounded slice of the original stream submitted as one
// transcription unit. Immutable once created; consumed once by the encoder.
type Chunk struct {
	ID         int           // Ordinal index in sequence order.
	Samples    []float64     // Mono PCM including the overlap tail.
	SampleRate int           // Fixed target rate.
	StartTime  time.Duration // Offset in the original stream; authoritative for reassembly.
}

// Duration returns the length of this chunk including its overlap tail.
func (c Chunk) Duration() time.Duration {
	return samplesToDuration(len(c.Samples), c.SampleRate)
}

// String returns a human-readable representation for logging.
func (c Chunk) String() string {
	return fmt.Sprintf("chunk %d: %s+%s",
		c.ID,
		format.Duration(c.StartTime),
		format.Duration(c.Duration()))
}

// PlannerConfig holds chunk planning parameters.
type PlannerConfig struct {
	// MaxChunkBytes is the encoded byte-size ceiling per chunk, enforced
	// here (before encoding), never after.
	MaxChunkBytes int64

	// BytesPerSecond is the assumed encoding rate used to translate the
	// byte ceiling into a time budget. Zero means 16-bit PCM at the
	// stream's sample rate.
	BytesPerSecond float64

	// MinChunkDuration is the floor under which no chunk is emitted, even
	// if that means slightly exceeding the nominal size target.
	MinChunkDuration time.Duration

	// Overlap is the tail extension into the next chunk.
	Overlap time.Duration

	// Tolerance bounds the silence-candidate search window around the
	// size-budget target.
	Tolerance time.Duration

	// FadeSamples is the linear fade length at non-edge boundaries.
	FadeSamples int

	// Detector configures silence detection.
	Detector DetectorConfig
}

// DefaultPlannerConfig returns the default planning parameters.
func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{
		MaxChunkBytes:    DefaultMaxChunkBytes,
		MinChunkDuration: defaultMinChunkDuration,
		Overlap:          defaultOverlap,
		Tolerance:        defaultTolerance,
		FadeSamples:      defaultFadeSamples,
		Detector:         DefaultDetectorConfig(),
	}
}

// Planner partitions a mono PCM stream into ordered, slightly overlapping
// chunks whose encoded size stays under the provider ceiling.
type Planner struct {
	cfg PlannerConfig
}

// NewPlanner creates a Planner, normalizing zero-valued config fields.
func NewPlanner(cfg PlannerConfig) *Planner {
	def := DefaultPlannerConfig()
	if cfg.MaxChunkBytes <= 0 {
		cfg.MaxChunkBytes = def.MaxChunkBytes
	}
	if cfg.MinChunkDuration <= 0 {
		cfg.MinChunkDuration = def.MinChunkDuration
	}
	if cfg.Overlap < 0 {
		cfg.Overlap = 0
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = def.Tolerance
	}
	if cfg.FadeSamples <= 0 || cfg.FadeSamples > defaultFadeSamples {
		cfg.FadeSamples = def.FadeSamples
	}

	return &Planner{cfg: cfg}
}

// Plan splits the stream into chunks. The final chunk's end always equals the
// stream length exactly; a stream shorter than the minimum chunk duration (or
// a ceiling larger than the whole stream) produces exactly one chunk with no
// fades.
func (p *Planner) Plan(samples []float64, sampleRate int) ([]Chunk, error) {
	if len(samples) == 0 || sampleRate <= 0 {
		return nil, ErrEmptyStream
	}

	bytesPerSecond := p.cfg.BytesPerSecond
	if bytesPerSecond <= 0 {
		// 16-bit PCM.
		bytesPerSecond = float64(2 * sampleRate)
	}

	budget := time.Duration(float64(p.cfg.MaxChunkBytes) / bytesPerSecond * float64(time.Second))
	if p.cfg.Overlap >= budget {
		return nil, fmt.Errorf("%w: overlap %v >= budget %v", ErrInvalidOverlap, p.cfg.Overlap, budget)
	}

	total := len(samples)
	budgetSamples := durationToSamples(budget, sampleRate)
	minSamples := durationToSamples(p.cfg.MinChunkDuration, sampleRate)
	overlapSamples := durationToSamples(p.cfg.Overlap, sampleRate)
	toleranceSamples := durationToSamples(p.cfg.Tolerance, sampleRate)

	// The overlap tail counts against the encoded size, so cuts target the
	// budget minus the overlap. The ceiling is enforced here, not after
	// encoding.
	cutBudget := budgetSamples - overlapSamples

	// Whole stream fits in one chunk, or is too short to split.
	if budgetSamples >= total || total <= minSamples {
		return []Chunk{{
			ID:         0,
			Samples:    copySamples(samples),
			SampleRate: sampleRate,
			StartTime:  0,
		}}, nil
	}

	silences := DetectSilences(samples, sampleRate, p.cfg.Detector)

	var chunks []Chunk
	start := 0
	for start < total {
		target := start + cutBudget
		end := target
		last := false

		if target >= total {
			end = total
			last = true
		} else if cut, ok := nearestSilenceCut(silences, sampleRate, target, toleranceSamples, start+minSamples); ok {
			end = cut
		} else {
			// No usable silence near the target: hard time-budget cut,
			// nudged to the nearest zero crossing to soften the seam.
			end = nearestZeroCrossing(samples, target, sampleRate/100)
		}

		// Enforce the duration floor even at the cost of exceeding the
		// nominal size target slightly.
		if end-start < minSamples {
			end = min(start+minSamples, total)
		}
		// Absorb a trailing remainder too short to stand on its own.
		if total-end < minSamples {
			end = total
			last = true
		}

		tail := min(end+overlapSamples, total)
		// A zero-crossing nudge can land a few samples past the target;
		// shave the tail rather than breach the byte ceiling. The duration
		// floor is the one sanctioned exception.
		if limit := start + budgetSamples; tail > limit && end-start > minSamples {
			tail = max(limit, end)
		}
		chunk := Chunk{
			ID:         len(chunks),
			Samples:    copySamples(samples[start:tail]),
			SampleRate: sampleRate,
			StartTime:  samplesToDuration(start, sampleRate),
		}
		if len(chunks) > 0 {
			fadeIn(chunk.Samples, p.cfg.FadeSamples)
		}
		if !last {
			fadeOut(chunk.Samples, p.cfg.FadeSamples)
		}
		chunks = append(chunks, chunk)

		if last {
			break
		}
		start = end
	}

	return chunks, nil
}

// nearestSilenceCut finds the silence midpoint closest to target within
// tolerance, no earlier than floor and no later than target (a later cut
// would push the encoded chunk over the byte ceiling). Returns false if none
// qualifies.
func nearestSilenceCut(silences []SilenceRegion, sampleRate, target, tolerance, floor int) (int, bool) {
	best := -1
	bestDist := tolerance + 1

	for _, s := range silences {
		mid := durationToSamples(s.Midpoint(), sampleRate)
		if mid <= floor || mid > target {
			continue
		}
		dist := mid - target
		if dist < 0 {
			dist = -dist
		}
		if dist < bestDist {
			best = mid
			bestDist = dist
		}
	}

	if best < 0 {
		return 0, false
	}
	return best, true
}

// nearestZeroCrossing searches outward from idx for a sign change, bounded by
// window samples in each direction. Returns idx unchanged if none is found.
func nearestZeroCrossing(samples []float64, idx, window int) int {
	isCrossing := func(i int) bool {
		if i <= 0 || i >= len(samples) {
			return false
		}
		return samples[i] == 0 || (samples[i-1] < 0) != (samples[i] < 0)
	}

	for off := 0; off <= window; off++ {
		if isCrossing(idx - off) {
			return idx - off
		}
		if isCrossing(idx + off) {
			return idx + off
		}
	}
	return idx
}

// fadeIn applies a linear ramp from zero over the first n samples.
func fadeIn(samples []float64, n int) {
	n = min(n, len(samples))
	for i := 0; i < n; i++ {
		samples[i] *= float64(i) / float64(n)
	}
}

// fadeOut applies a linear ramp to zero over the last n samples.
func fadeOut(samples []float64, n int) {
	n = min(n, len(samples))
	base := len(samples) - n
	for i := 0; i < n; i++ {
		samples[base+i] *= float64(n-1-i) / float64(n)
	}
}

func copySamples(s []float64) []float64 {
	out := make([]float64, len(s))
	copy(out, s)
	return out
}
