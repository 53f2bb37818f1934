// Package stt provides the speech-to-text backend interface and a client for
// an OpenAI-compatible Whisper server. Transcription is a straight
// passthrough in the pipeline, so the interface stays deliberately small.
package stt

import (
	"context"
)

// Transcriber defines the speech recognition backend interface.
type Transcriber interface {
	// Transcribe converts audio bytes to text. The language hint may be
	// empty, in which case the backend auto-detects.
	Transcribe(ctx context.Context, audio []byte, language string) (*Result, error)

	// Health checks backend connectivity.
	Health(ctx context.Context) error
}

// Result is a complete transcription result.
type Result struct {
	// Text is the full transcript.
	Text string

	// Language is the detected (or hinted) language code.
	Language string

	// LanguageProbability is the backend's confidence in the detected
	// language, when reported.
	LanguageProbability float64

	// Duration is the audio duration in seconds, when reported.
	Duration float64

	// Segments are per-utterance timing records, when reported.
	Segments []Segment
}

// Segment is one timed slice of the transcript.
type Segment struct {
	Start        float64 `json:"start"`
	End          float64 `json:"end"`
	Text         string  `json:"text"`
	AvgLogProb   float64 `json:"avg_logprob"`
	NoSpeechProb float64 `json:"no_speech_prob"`
}
