package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/voicepipe/voicepipe/internal/httpc"
)

const defaultWhisperTimeout = 60 * time.Second

// Whisper is a client for an OpenAI-compatible Whisper transcription server
// (POST /v1/audio/transcriptions with verbose_json response format).
type Whisper struct {
	baseURL string
	model   string
	client  *http.Client
	logger  *slog.Logger
}

// WhisperOption configures the Whisper client.
type WhisperOption func(*Whisper)

// WithModel sets the transcription model name.
func WithModel(model string) WhisperOption {
	return func(w *Whisper) { w.model = model }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) WhisperOption {
	return func(w *Whisper) { w.client = httpc.NewClient(timeout) }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) WhisperOption {
	return func(w *Whisper) { w.logger = logger }
}

// NewWhisper creates a Whisper client for the given server URL.
func NewWhisper(baseURL string, opts ...WhisperOption) *Whisper {
	w := &Whisper{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   "whisper-1",
		client:  httpc.NewClient(defaultWhisperTimeout),
		logger:  slog.Default().With("component", "stt.whisper"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// verboseResponse mirrors the verbose_json transcription payload.
type verboseResponse struct {
	Text                string    `json:"text"`
	Language            string    `json:"language"`
	LanguageProbability float64   `json:"language_probability"`
	Duration            float64   `json:"duration"`
	Segments            []Segment `json:"segments"`
}

// Transcribe uploads the audio as multipart form data and parses the
// verbose_json response.
func (w *Whisper) Transcribe(ctx context.Context, audio []byte, language string) (*Result, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("model", w.model); err != nil {
		return nil, fmt.Errorf("stt: write model field: %w", err)
	}
	if err := writer.WriteField("response_format", "verbose_json"); err != nil {
		return nil, fmt.Errorf("stt: write format field: %w", err)
	}
	if language != "" {
		if err := writer.WriteField("language", language); err != nil {
			return nil, fmt.Errorf("stt: write language field: %w", err)
		}
	}

	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return nil, fmt.Errorf("stt: create form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, fmt.Errorf("stt: write audio: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("stt: close multipart writer: %w", err)
	}

	url := w.baseURL + "/v1/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, fmt.Errorf("stt: create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	start := time.Now()
	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stt: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("stt: server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed verboseResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("stt: decode response: %w", err)
	}

	w.logger.Debug("transcribed audio",
		"bytes", len(audio),
		"chars", len(parsed.Text),
		"language", parsed.Language,
		"latency_ms", time.Since(start).Milliseconds(),
	)

	return &Result{
		Text:                strings.TrimSpace(parsed.Text),
		Language:            parsed.Language,
		LanguageProbability: parsed.LanguageProbability,
		Duration:            parsed.Duration,
		Segments:            parsed.Segments,
	}, nil
}

// Health checks that the server responds on its health endpoint.
func (w *Whisper) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("stt: create request: %w", err)
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("stt: health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stt: health check returned %d", resp.StatusCode)
	}
	return nil
}

var _ Transcriber = (*Whisper)(nil)
