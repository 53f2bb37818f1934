package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/voicepipe/voicepipe/pkg/backoff"
	"github.com/voicepipe/voicepipe/pkg/breaker"
	"github.com/voicepipe/voicepipe/pkg/cache"
	"github.com/voicepipe/voicepipe/pkg/sentiment"
	"github.com/voicepipe/voicepipe/pkg/stt"
	"github.com/voicepipe/voicepipe/pkg/tts"
)

// Stable failure messages. Transports relay these verbatim.
const (
	msgEmptyText      = "Empty text"
	msgEmptyAudio     = "Empty audio data"
	msgInvalidMessage = "Invalid message type"
	msgBreakerOpen    = "TTS service unavailable: circuit breaker open"
)

// Dispatcher routes requests through the resilience stack. All collaborators
// are injected; the tests drive it entirely with mocks.
type Dispatcher struct {
	cache       *cache.Cache
	breaker     *breaker.Breaker
	retry       backoff.Policy
	synthesizer tts.Provider
	transcriber stt.Transcriber
	stats       *Stats
	logger      *slog.Logger

	// score and normalize are injectable for tests; defaults are
	// sentiment.Analyze and the identity function.
	score     func(text string) sentiment.Score
	normalize func(audio []byte) []byte

	synthesisTimeout     time.Duration
	transcriptionTimeout time.Duration
}

// DispatcherConfig wires a Dispatcher.
type DispatcherConfig struct {
	Cache       *cache.Cache
	Breaker     *breaker.Breaker
	Retry       backoff.Policy
	Synthesizer tts.Provider
	Transcriber stt.Transcriber
	Stats       *Stats
	Logger      *slog.Logger

	// Score overrides sentiment.Analyze.
	Score func(text string) sentiment.Score

	// Normalize post-processes synthesized audio before it is cached.
	Normalize func(audio []byte) []byte

	SynthesisTimeout     time.Duration
	TranscriptionTimeout time.Duration
}

// NewDispatcher creates a Dispatcher from cfg, filling in defaults for
// optional fields.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	d := &Dispatcher{
		cache:                cfg.Cache,
		breaker:              cfg.Breaker,
		retry:                cfg.Retry,
		synthesizer:          cfg.Synthesizer,
		transcriber:          cfg.Transcriber,
		stats:                cfg.Stats,
		logger:               cfg.Logger,
		score:                cfg.Score,
		normalize:            cfg.Normalize,
		synthesisTimeout:     cfg.SynthesisTimeout,
		transcriptionTimeout: cfg.TranscriptionTimeout,
	}
	if d.stats == nil {
		d.stats = NewStats()
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	d.logger = d.logger.With("component", "pipeline")
	if d.score == nil {
		d.score = sentiment.Analyze
	}
	if d.normalize == nil {
		d.normalize = func(audio []byte) []byte { return audio }
	}
	if d.synthesisTimeout <= 0 {
		d.synthesisTimeout = 30 * time.Second
	}
	if d.transcriptionTimeout <= 0 {
		d.transcriptionTimeout = 60 * time.Second
	}
	return d
}

// Stats returns the dispatcher's aggregator.
func (d *Dispatcher) Stats() *Stats { return d.stats }

// Snapshot merges the aggregator with the cache and breaker state.
func (d *Dispatcher) Snapshot() Snapshot {
	return d.stats.Snapshot(d.cache, d.breaker)
}

// Handle dispatches one request and always produces a Response.
func (d *Dispatcher) Handle(ctx context.Context, req Request) Response {
	d.stats.recordMessage()

	switch req.kind {
	case kindSynthesis:
		return d.synthesize(ctx, req.text, true)
	case kindTranscription:
		return d.transcribe(ctx, req.audio, req.language)
	default:
		d.stats.recordFailure()
		return Failure{Message: msgInvalidMessage, Class: ClassValidation}
	}
}

// Synthesize runs the synthesis path directly. useCache=false skips both
// the lookup and the write-back, for callers that need fresh audio.
func (d *Dispatcher) Synthesize(ctx context.Context, text string, useCache bool) Response {
	d.stats.recordMessage()
	return d.synthesize(ctx, text, useCache)
}

// Transcribe runs the transcription path directly.
func (d *Dispatcher) Transcribe(ctx context.Context, audio []byte, language string) Response {
	d.stats.recordMessage()
	return d.transcribe(ctx, audio, language)
}

// synthesize is the cache-aside path: validate, look up, and only on a
// miss run the backend under the retry policy and circuit breaker.
func (d *Dispatcher) synthesize(ctx context.Context, text string, useCache bool) Response {
	start := time.Now()

	if strings.TrimSpace(text) == "" {
		d.stats.recordFailure()
		return Failure{Message: msgEmptyText, Class: ClassValidation}
	}

	key := cache.Key(text)
	if useCache {
		if entry, ok := d.cache.Get(ctx, key); ok {
			d.stats.recordSynthesis()
			return Audio{
				Data:      entry.Audio,
				Duration:  entry.Duration,
				Cached:    true,
				Sentiment: d.score(text),
				LatencyMs: time.Since(start).Milliseconds(),
			}
		}
	}

	var result *tts.Result
	err := d.retry.Do(ctx, func(ctx context.Context) error {
		return d.breaker.Execute(ctx, func(ctx context.Context) error {
			callCtx, cancel := context.WithTimeout(ctx, d.synthesisTimeout)
			defer cancel()

			r, synthErr := d.synthesizer.Synthesize(callCtx, text)
			if synthErr != nil {
				return synthErr
			}
			result = r
			return nil
		})
	}, retryable)

	if err != nil {
		d.stats.recordFailure()
		class := Classify(err)
		d.logger.Warn("synthesis failed", "class", class.String(), "error", err)
		if class == ClassBreakerOpen {
			return Failure{Message: msgBreakerOpen, Class: class}
		}
		return Failure{Message: "TTS service error: " + class.String(), Class: class}
	}

	audio := d.normalize(result.Audio)
	duration := result.Duration
	if useCache {
		d.cache.Put(ctx, key, audio, duration)
	}

	d.stats.recordSynthesis()
	return Audio{
		Data:      audio,
		Duration:  duration,
		Cached:    false,
		Sentiment: d.score(text),
		LatencyMs: time.Since(start).Milliseconds(),
	}
}

// transcribe is a direct passthrough: no cache, no breaker, no retry.
// Audio is never identical twice, so none of them pay off.
func (d *Dispatcher) transcribe(ctx context.Context, audio []byte, language string) Response {
	start := time.Now()

	if len(audio) == 0 {
		d.stats.recordFailure()
		return Failure{Message: msgEmptyAudio, Class: ClassValidation}
	}

	callCtx, cancel := context.WithTimeout(ctx, d.transcriptionTimeout)
	defer cancel()

	result, err := d.transcriber.Transcribe(callCtx, audio, language)
	if err != nil {
		d.stats.recordFailure()
		class := Classify(err)
		d.logger.Warn("transcription failed", "class", class.String(), "error", err)
		return Failure{Message: "STT service error: " + class.String(), Class: class}
	}

	d.stats.recordTranscription()
	return Transcript{
		Text:                result.Text,
		Language:            result.Language,
		LanguageProbability: result.LanguageProbability,
		Duration:            result.Duration,
		Segments:            result.Segments,
		Sentiment:           d.score(result.Text),
		LatencyMs:           time.Since(start).Milliseconds(),
	}
}

// Health reports reachability of the pipeline's dependencies.
type Health struct {
	CacheReachable bool   `json:"cache_reachable"`
	BreakerState   string `json:"breaker_state"`
}

// Health probes the cache store and reads the breaker state.
func (d *Dispatcher) Health(ctx context.Context) Health {
	return Health{
		CacheReachable: d.cache.Ping(ctx),
		BreakerState:   d.breaker.State().String(),
	}
}
