package tts

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	elevenLabsWSBaseURL = "wss://api.elevenlabs.io/v1/text-to-speech"
	wsHandshakeTimeout  = 10 * time.Second
)

// ElevenLabsWS synthesizes over the stream-input WebSocket endpoint. Each
// Synthesize call opens a fresh connection, streams the text, and collects
// audio chunks until the service signals the final frame.
type ElevenLabsWS struct {
	config  *Config
	logger  *slog.Logger
	baseURL string
}

// NewElevenLabsWS creates a WebSocket-based ElevenLabs provider.
func NewElevenLabsWS(opts ...Option) (*ElevenLabsWS, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = elevenLabsWSBaseURL
	}

	return &ElevenLabsWS{
		config:  cfg,
		logger:  cfg.Logger.With("component", "tts.elevenlabs_ws"),
		baseURL: baseURL,
	}, nil
}

// Synthesize streams text over a single WebSocket session and returns the
// assembled audio.
func (e *ElevenLabsWS) Synthesize(ctx context.Context, text string) (*Result, error) {
	start := time.Now()

	url := fmt.Sprintf("%s/%s/stream-input?model_id=%s",
		e.baseURL, e.config.VoiceID, e.config.ModelID)

	headers := http.Header{}
	headers.Set("xi-api-key", e.config.APIKey)

	dialer := websocket.Dialer{HandshakeTimeout: wsHandshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, url, headers)
	if err != nil {
		if resp != nil {
			return nil, &APIError{
				StatusCode: resp.StatusCode,
				Message:    fmt.Sprintf("websocket dial failed: %v", err),
				Provider:   providerElevenLabs,
			}
		}
		return nil, WrapError(providerElevenLabs, fmt.Errorf("websocket dial: %w", err))
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(deadline)
		conn.SetWriteDeadline(deadline)
	}

	bos := map[string]any{
		"text": " ",
		"voice_settings": map[string]any{
			"stability":        e.config.Stability,
			"similarity_boost": e.config.SimilarityBoost,
		},
		"generation_config": map[string]any{
			"chunk_length_schedule": []int{120, 160, 250, 290},
		},
	}
	if err := conn.WriteJSON(bos); err != nil {
		return nil, WrapError(providerElevenLabs, fmt.Errorf("send BOS: %w", err))
	}

	if err := conn.WriteJSON(map[string]any{
		"text":                   text,
		"try_trigger_generation": true,
	}); err != nil {
		return nil, WrapError(providerElevenLabs, fmt.Errorf("send text: %w", err))
	}

	// EOS is an empty text frame.
	if err := conn.WriteJSON(map[string]any{"text": ""}); err != nil {
		return nil, WrapError(providerElevenLabs, fmt.Errorf("send EOS: %w", err))
	}

	var audio []byte
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				break
			}
			return nil, WrapError(providerElevenLabs, fmt.Errorf("read audio: %w", err))
		}

		var frame struct {
			Audio   string `json:"audio"`
			IsFinal bool   `json:"isFinal"`
		}
		if err := json.Unmarshal(message, &frame); err != nil {
			e.logger.Warn("unparseable frame", "error", err)
			continue
		}

		if frame.Audio != "" {
			chunk, err := base64.StdEncoding.DecodeString(frame.Audio)
			if err != nil {
				e.logger.Warn("undecodable audio chunk", "error", err)
				continue
			}
			audio = append(audio, chunk...)
		}

		if frame.IsFinal {
			break
		}
	}

	if len(audio) == 0 {
		return nil, WrapError(providerElevenLabs, ErrEmptyAudio)
	}

	latency := time.Since(start).Milliseconds()
	e.logger.Debug("synthesized audio over websocket",
		"chars", len(text),
		"bytes", len(audio),
		"latency_ms", latency,
	)

	return &Result{
		Audio:     audio,
		Duration:  estimateDuration(len(audio), e.config.SampleRate),
		LatencyMs: latency,
	}, nil
}

// Health reports whether the WS endpoint accepts a handshake.
func (e *ElevenLabsWS) Health(ctx context.Context) error {
	url := fmt.Sprintf("%s/%s/stream-input?model_id=%s",
		e.baseURL, e.config.VoiceID, e.config.ModelID)

	headers := http.Header{}
	headers.Set("xi-api-key", e.config.APIKey)

	dialer := websocket.Dialer{HandshakeTimeout: wsHandshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, url, headers)
	if err != nil {
		if resp != nil {
			return &APIError{
				StatusCode: resp.StatusCode,
				Message:    fmt.Sprintf("websocket dial failed: %v", err),
				Provider:   providerElevenLabs,
			}
		}
		return WrapError(providerElevenLabs, err)
	}
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()
	return nil
}

// Close is a no-op; connections are per-call.
func (e *ElevenLabsWS) Close() error { return nil }

var _ Provider = (*ElevenLabsWS)(nil)
