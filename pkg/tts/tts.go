// Package tts provides the text-to-audio synthesis backend interface and its
// ElevenLabs implementations. The pipeline dispatcher only sees the Provider
// interface; implementations can be swapped without changing caller code.
package tts

import (
	"context"
)

// Provider defines the synthesis backend interface.
type Provider interface {
	// Synthesize converts text to audio, returning the complete buffer and
	// its estimated playback duration in seconds.
	Synthesize(ctx context.Context, text string) (*Result, error)

	// Health checks backend connectivity and API key validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// Result is a complete synthesis result.
type Result struct {
	// Audio contains the raw audio bytes.
	Audio []byte

	// Duration is the estimated playback duration in seconds.
	Duration float64

	// LatencyMs is the backend round-trip time in milliseconds.
	LatencyMs int64
}

// estimateDuration approximates playback seconds from the byte length at the
// configured sample rate (PCM16 mono).
func estimateDuration(byteLen, sampleRate int) float64 {
	if sampleRate <= 0 || byteLen <= 0 {
		return 0
	}
	return float64(byteLen) / float64(sampleRate*2)
}
