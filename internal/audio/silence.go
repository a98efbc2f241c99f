// Package audio splits a decoded PCM stream into provider-size-compliant
// chunks cut at acoustically safe boundaries.
package audio

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
)

// Default silence detection parameters. Empirical tuning values; exposed
// through DetectorConfig rather than hardcoded at call sites.
const (
	// defaultThresholdDB is the RMS energy threshold below which a window
	// counts as silence. -50 dBFS suits voice recordings with room tone.
	defaultThresholdDB = -50.0

	// defaultWindow is the RMS analysis window length.
	defaultWindow = 20 * time.Millisecond

	// defaultMinSilence is the minimum contiguous silence worth cutting at.
	// 0.5s catches natural pauses in speech without over-splitting.
	defaultMinSilence = 500 * time.Millisecond
)

// DetectorConfig holds silence detection parameters.
type DetectorConfig struct {
	// ThresholdDB is the dBFS level below which a window is silent.
	ThresholdDB float64

	// Window is the RMS analysis window length.
	Window time.Duration

	// MinSilence is the minimum region length to report.
	MinSilence time.Duration
}

// DefaultDetectorConfig returns the default detection parameters.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		ThresholdDB: defaultThresholdDB,
		Window:      defaultWindow,
		MinSilence:  defaultMinSilence,
	}
}

// normalize fills zero-valued fields with defaults.
func (c *DetectorConfig) normalize() {
	if c.ThresholdDB == 0 {
		c.ThresholdDB = defaultThresholdDB
	}
	if c.Window <= 0 {
		c.Window = defaultWindow
	}
	if c.MinSilence <= 0 {
		c.MinSilence = defaultMinSilence
	}
}

// SilenceRegion is a contiguous low-energy span of the stream.
type SilenceRegion struct {
	Start time.Duration
	End   time.Duration
}

// Duration returns the length of the region.
func (s SilenceRegion) Duration() time.Duration {
	return s.End - s.Start
}

// Midpoint returns the middle of the region, ideal for cutting.
func (s SilenceRegion) Midpoint() time.Duration {
	return s.Start + (s.End-s.Start)/2
}

// DetectSilences scans mono PCM for regions whose windowed RMS energy falls
// below the configured threshold. A pure scan: no mutation, deterministic for
// identical input. Finding no silence is not an error, merely a signal that
// the planner must fall back to time-budget cuts.
func DetectSilences(samples []float64, sampleRate int, cfg DetectorConfig) []SilenceRegion {
	cfg.normalize()

	if len(samples) == 0 || sampleRate <= 0 {
		return nil
	}

	windowSamples := int(float64(sampleRate) * cfg.Window.Seconds())
	if windowSamples < 1 {
		windowSamples = 1
	}

	var regions []SilenceRegion
	var regionStart int
	inSilence := false

	for i := 0; i < len(samples); i += windowSamples {
		end := min(i+windowSamples, len(samples))
		silent := windowDB(samples[i:end]) < cfg.ThresholdDB

		switch {
		case silent && !inSilence:
			regionStart = i
			inSilence = true
		case !silent && inSilence:
			regions = appendRegion(regions, regionStart, i, sampleRate, cfg.MinSilence)
			inSilence = false
		}
	}

	if inSilence {
		regions = appendRegion(regions, regionStart, len(samples), sampleRate, cfg.MinSilence)
	}

	return regions
}

// appendRegion converts a sample span to a SilenceRegion, dropping spans
// shorter than minSilence.
func appendRegion(regions []SilenceRegion, start, end, sampleRate int, minSilence time.Duration) []SilenceRegion {
	r := SilenceRegion{
		Start: samplesToDuration(start, sampleRate),
		End:   samplesToDuration(end, sampleRate),
	}
	if r.Duration() < minSilence {
		return regions
	}
	return append(regions, r)
}

// windowDB returns the RMS energy of the window in dBFS.
// A window of true digital zero reports -inf, well under any threshold.
func windowDB(window []float64) float64 {
	if len(window) == 0 {
		return math.Inf(-1)
	}
	rms := floats.Norm(window, 2) / math.Sqrt(float64(len(window)))
	if rms == 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(rms)
}

// samplesToDuration converts a sample offset to a time offset.
func samplesToDuration(n, sampleRate int) time.Duration {
	return time.Duration(float64(n) / float64(sampleRate) * float64(time.Second))
}

// durationToSamples converts a time offset to a sample offset.
func durationToSamples(d time.Duration, sampleRate int) int {
	return int(d.Seconds() * float64(sampleRate))
}
