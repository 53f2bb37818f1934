package pipeline

import (
	"github.com/voicepipe/voicepipe/pkg/sentiment"
	"github.com/voicepipe/voicepipe/pkg/stt"
)

// Response is the closed set of dispatch outcomes. The unexported marker
// keeps the sum sealed to this package.
type Response interface {
	isResponse()
}

// Audio is a successful synthesis outcome.
type Audio struct {
	// Data is the raw audio payload.
	Data []byte `json:"-"`

	// Duration is the estimated playback duration in seconds.
	Duration float64 `json:"duration"`

	// Cached reports whether the audio was served from the cache.
	Cached bool `json:"cached"`

	// Sentiment is scored on the literal request text.
	Sentiment sentiment.Score `json:"sentiment"`

	// LatencyMs is the end-to-end dispatch latency.
	LatencyMs int64 `json:"latency_ms"`
}

// Transcript is a successful transcription outcome.
type Transcript struct {
	Text                string          `json:"text"`
	Language            string          `json:"language"`
	LanguageProbability float64         `json:"language_probability"`
	Duration            float64         `json:"duration"`
	Segments            []stt.Segment   `json:"segments,omitempty"`
	Sentiment           sentiment.Score `json:"sentiment"`
	LatencyMs           int64           `json:"latency_ms"`
}

// Failure is a request-level error outcome. Message is a stable,
// user-facing string with no internal detail; Class lets transports pick a
// status code without parsing the message.
type Failure struct {
	Message string `json:"message"`
	Class   Class  `json:"-"`
}

func (Audio) isResponse()      {}
func (Transcript) isResponse() {}
func (Failure) isResponse()    {}
