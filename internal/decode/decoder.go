// Package decode turns opaque media byte streams into mono PCM at the target
// sample rate expected by the transcription provider.
package decode

import (
	"context"
	"time"
)

// TargetSampleRate is the sample rate the rest of the pipeline works at.
// 16 kHz is the common denominator for speech-to-text providers.
const TargetSampleRate = 16000

// PCM is linear mono audio at a known sample rate. Samples are in [-1, 1].
type PCM struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the length of the stream.
func (p PCM) Duration() time.Duration {
	if p.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(p.Samples)) / float64(p.SampleRate) * float64(time.Second))
}

// Decoder turns an opaque media byte stream into mono PCM at TargetSampleRate.
// Implementations must be deterministic for identical input.
type Decoder interface {
	Decode(ctx context.Context, data []byte) (PCM, error)
}

// Compile-time interface implementation checks.
var (
	_ Decoder = (*WAVDecoder)(nil)
	_ Decoder = (*MP3Decoder)(nil)
	_ Decoder = (*FFmpegDecoder)(nil)
)

// DownmixMono reduces interleaved multi-channel samples to a single channel
// by taking the arithmetic mean of all channel samples per frame.
func DownmixMono(interleaved []float64, channels int) []float64 {
	if channels <= 1 {
		return interleaved
	}

	frames := len(interleaved) / channels
	mono := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += interleaved[i*channels+c]
		}
		mono[i] = sum / float64(channels)
	}
	return mono
}

// Resample converts samples from srcRate to dstRate using nearest-source-sample
// selection: sourceIndex = floor(targetIndex * srcRate / dstRate). Crude but
// deterministic, and adequate for speech at 16 kHz.
func Resample(samples []float64, srcRate, dstRate int) []float64 {
	if srcRate == dstRate || srcRate <= 0 || dstRate <= 0 {
		return samples
	}

	outLen := int(int64(len(samples)) * int64(dstRate) / int64(srcRate))
	out := make([]float64, outLen)
	for i := range out {
		src := int(int64(i) * int64(srcRate) / int64(dstRate))
		if src >= len(samples) {
			src = len(samples) - 1
		}
		out[i] = samples[src]
	}
	return out
}

// toTarget downmixes interleaved samples and resamples them to TargetSampleRate.
func toTarget(interleaved []float64, channels, srcRate int) PCM {
	mono := DownmixMono(interleaved, channels)
	mono = Resample(mono, srcRate, TargetSampleRate)
	return PCM{Samples: mono, SampleRate: TargetSampleRate}
}
