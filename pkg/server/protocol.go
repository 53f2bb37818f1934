package server

import (
	"encoding/json"
	"fmt"

	"github.com/voicepipe/voicepipe/pkg/pipeline"
	"github.com/voicepipe/voicepipe/pkg/sentiment"
	"github.com/voicepipe/voicepipe/pkg/stt"
)

// MessageType identifies a WebSocket message on /ws/voice.
type MessageType string

const (
	// Client → server
	TypeText  MessageType = "text"  // synthesis request
	TypeAudio MessageType = "audio" // transcription request (also the synthesis response type)

	// Server → client
	TypeTranscript MessageType = "transcript"
	TypeError      MessageType = "error"
)

// ClientMessage is the inbound envelope. Text carries synthesis input;
// Audio carries base64 audio for transcription with an optional language
// hint.
type ClientMessage struct {
	Type     MessageType `json:"type"`
	Text     string      `json:"text,omitempty"`
	Audio    string      `json:"audio,omitempty"`
	Language string      `json:"language,omitempty"`
}

// ParseClientMessage parses an inbound frame.
func ParseClientMessage(data []byte) (*ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("parse message: %w", err)
	}
	return &msg, nil
}

// AudioMessage is the synthesis response envelope. Audio is base64.
type AudioMessage struct {
	Type      MessageType     `json:"type"`
	Audio     string          `json:"audio"`
	Duration  float64         `json:"duration"`
	LatencyMs int64           `json:"latency_ms"`
	Cached    bool            `json:"cached"`
	Sentiment sentiment.Score `json:"sentiment"`
}

// TranscriptMessage is the transcription response envelope.
type TranscriptMessage struct {
	Type                MessageType     `json:"type"`
	Text                string          `json:"text"`
	Language            string          `json:"language"`
	LanguageProbability float64         `json:"language_probability"`
	Duration            float64         `json:"duration"`
	Segments            []stt.Segment   `json:"segments,omitempty"`
	LatencyMs           int64           `json:"latency_ms"`
	Sentiment           sentiment.Score `json:"sentiment"`
}

// ErrorMessage answers request-level failures in-band; the connection stays
// open.
type ErrorMessage struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}

// encodeResponse converts a pipeline outcome into its wire envelope.
func encodeResponse(resp pipeline.Response) any {
	switch r := resp.(type) {
	case pipeline.Audio:
		return AudioMessage{
			Type:      TypeAudio,
			Audio:     encodeAudio(r.Data),
			Duration:  r.Duration,
			LatencyMs: r.LatencyMs,
			Cached:    r.Cached,
			Sentiment: r.Sentiment,
		}
	case pipeline.Transcript:
		return TranscriptMessage{
			Type:                TypeTranscript,
			Text:                r.Text,
			Language:            r.Language,
			LanguageProbability: r.LanguageProbability,
			Duration:            r.Duration,
			Segments:            r.Segments,
			LatencyMs:           r.LatencyMs,
			Sentiment:           r.Sentiment,
		}
	case pipeline.Failure:
		return ErrorMessage{Type: TypeError, Message: r.Message}
	default:
		return ErrorMessage{Type: TypeError, Message: "Internal error"}
	}
}
