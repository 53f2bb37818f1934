// Package config loads voicepipe configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all tunable parameters for the voice pipeline service.
// Values are loaded from environment variables with production defaults.
type Config struct {
	// Server
	Port     int    `env:"PORT" envDefault:"8000"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	Debug    bool   `env:"DEBUG" envDefault:"false"`

	// ElevenLabs synthesis backend
	ElevenLabsAPIKey  string `env:"ELEVENLABS_API_KEY"`
	ElevenLabsVoiceID string `env:"ELEVENLABS_VOICE_ID" envDefault:"IKne3meq5aSn9XLyUdCD"`
	ElevenLabsModelID string `env:"ELEVENLABS_MODEL_ID" envDefault:"eleven_monolingual_v1"`

	// Whisper transcription backend (co-located HTTP service)
	WhisperURL string `env:"WHISPER_URL" envDefault:"http://localhost:9000"`

	// Cache
	CacheStore      string        `env:"CACHE_STORE" envDefault:"memory"` // "memory" or "sqlite"
	CacheDBPath     string        `env:"CACHE_DB_PATH" envDefault:"voicepipe-cache.db"`
	CacheTTL        time.Duration `env:"CACHE_TTL" envDefault:"1h"`
	CacheMaxEntries int           `env:"CACHE_MAX_ENTRIES" envDefault:"4096"`

	// Circuit breaker (synthesis backend only)
	BreakerFailureThreshold int           `env:"BREAKER_FAILURE_THRESHOLD" envDefault:"5"`
	BreakerRecoveryTimeout  time.Duration `env:"BREAKER_RECOVERY_TIMEOUT" envDefault:"60s"`
	BreakerSuccessThreshold int           `env:"BREAKER_SUCCESS_THRESHOLD" envDefault:"2"`

	// Retry policy for transient synthesis failures
	MaxRetries      int           `env:"MAX_RETRIES" envDefault:"3"`
	RetryMinWait    time.Duration `env:"RETRY_MIN_WAIT" envDefault:"1s"`
	RetryMaxWait    time.Duration `env:"RETRY_MAX_WAIT" envDefault:"10s"`
	RetryMultiplier float64       `env:"RETRY_MULTIPLIER" envDefault:"2.0"`

	// Backend call timeouts
	SynthesisTimeout     time.Duration `env:"SYNTHESIS_TIMEOUT" envDefault:"30s"`
	TranscriptionTimeout time.Duration `env:"TRANSCRIPTION_TIMEOUT" envDefault:"60s"`

	// Audio processing
	AudioSampleRate int     `env:"AUDIO_SAMPLE_RATE" envDefault:"22050"`
	TargetDBFS      float64 `env:"TARGET_DBFS" envDefault:"-20.0"`
}

// Load parses the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}
	return cfg, nil
}

// Validate checks for configuration errors that would prevent startup.
// The ElevenLabs key is checked separately so tooling that never reaches
// the synthesis backend (cache CLI) can run without it.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Port)
	}
	if c.CacheStore != "memory" && c.CacheStore != "sqlite" {
		return fmt.Errorf("config: unknown cache store %q", c.CacheStore)
	}
	if c.BreakerFailureThreshold < 1 {
		return errors.New("config: breaker failure threshold must be >= 1")
	}
	if c.BreakerSuccessThreshold < 1 {
		return errors.New("config: breaker success threshold must be >= 1")
	}
	if c.MaxRetries < 1 {
		return errors.New("config: max retries must be >= 1")
	}
	if c.RetryMultiplier < 1 {
		return errors.New("config: retry multiplier must be >= 1")
	}
	return nil
}

// RequireSynthesis checks settings that only the serving path needs.
func (c *Config) RequireSynthesis() error {
	if c.ElevenLabsAPIKey == "" {
		return errors.New("config: ELEVENLABS_API_KEY is required")
	}
	return nil
}
