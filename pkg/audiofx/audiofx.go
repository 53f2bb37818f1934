// Package audiofx post-processes synthesized audio. All operations are
// fail-open: buffers that do not parse as PCM16 WAV pass through unchanged,
// so an upstream codec switch degrades quality instead of breaking synthesis.
package audiofx

import (
	"log/slog"
	"math"
)

// DefaultTargetDBFS is the loudness normalization target.
const DefaultTargetDBFS = -20.0

// Compression parameters for dynamic range reduction.
const (
	compressThresholdDBFS = -20.0
	compressRatio         = 4.0
)

// Processor applies loudness normalization and dynamic range compression to
// PCM16 WAV buffers.
type Processor struct {
	// TargetDBFS is the normalization target level.
	TargetDBFS float64

	logger *slog.Logger
}

// NewProcessor creates a Processor with the given target level. A zero
// target selects the default.
func NewProcessor(targetDBFS float64, logger *slog.Logger) *Processor {
	if targetDBFS == 0 {
		targetDBFS = DefaultTargetDBFS
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		TargetDBFS: targetDBFS,
		logger:     logger.With("component", "audiofx"),
	}
}

// Normalize applies uniform gain so the buffer's RMS level matches
// TargetDBFS. Non-WAV input is returned unchanged.
func (p *Processor) Normalize(audio []byte) []byte {
	wav, err := decodeWAV(audio)
	if err != nil {
		p.logger.Debug("normalize skipped", "reason", err)
		return audio
	}

	current := dbfs(wav.samples)
	if math.IsInf(current, -1) {
		// Pure silence, nothing to scale.
		return audio
	}

	gainDB := p.TargetDBFS - current
	scale := math.Pow(10, gainDB/20)
	for i, s := range wav.samples {
		wav.samples[i] = clampSample(float64(s) * scale)
	}

	p.logger.Debug("audio normalized",
		"from_dbfs", round1(current),
		"to_dbfs", p.TargetDBFS,
		"gain_db", round1(gainDB),
	)
	return wav.encode()
}

// Compress applies dynamic range compression: samples above the threshold
// are scaled down by the compression ratio. Non-WAV input is returned
// unchanged.
func (p *Processor) Compress(audio []byte) []byte {
	wav, err := decodeWAV(audio)
	if err != nil {
		p.logger.Debug("compress skipped", "reason", err)
		return audio
	}

	threshold := math.Pow(10, compressThresholdDBFS/20) * math.MaxInt16
	for i, s := range wav.samples {
		amp := math.Abs(float64(s))
		if amp <= threshold {
			continue
		}
		compressed := threshold + (amp-threshold)/compressRatio
		if s < 0 {
			compressed = -compressed
		}
		wav.samples[i] = clampSample(compressed)
	}

	return wav.encode()
}

// Duration returns the playback duration in seconds, or 0 for non-WAV input.
func (p *Processor) Duration(audio []byte) float64 {
	wav, err := decodeWAV(audio)
	if err != nil {
		return 0
	}
	return wav.duration()
}

// dbfs computes the RMS level relative to full scale. Returns -Inf for
// silence.
func dbfs(samples []int16) float64 {
	if len(samples) == 0 {
		return math.Inf(-1)
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	rms := math.Sqrt(sum / float64(len(samples)))
	if rms == 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(rms/math.MaxInt16)
}

func clampSample(v float64) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
