// Package pipeline dispatches voice requests through the resilience stack:
// cache lookup, retry policy, and circuit breaker for synthesis; direct
// passthrough for transcription. The dispatcher never returns a Go error to
// the transport; every outcome is a Response.
package pipeline

// Request is a closed sum over the operations a session can ask for.
// Construct with NewSynthesis or NewTranscription; the zero Request is
// invalid and dispatches to a Failure.
type Request struct {
	kind kind

	// Synthesis
	text string

	// Transcription
	audio    []byte
	language string
}

type kind int

const (
	kindInvalid kind = iota
	kindSynthesis
	kindTranscription
)

// NewSynthesis builds a text-to-speech request.
func NewSynthesis(text string) Request {
	return Request{kind: kindSynthesis, text: text}
}

// NewTranscription builds a speech-to-text request. The language hint may
// be empty for auto-detection.
func NewTranscription(audio []byte, language string) Request {
	return Request{kind: kindTranscription, audio: audio, language: language}
}
