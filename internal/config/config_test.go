package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 8000 {
		t.Errorf("expected default port 8000, got %d", cfg.Port)
	}
	if cfg.CacheTTL != time.Hour {
		t.Errorf("expected default cache TTL 1h, got %v", cfg.CacheTTL)
	}
	if cfg.BreakerFailureThreshold != 5 {
		t.Errorf("expected breaker failure threshold 5, got %d", cfg.BreakerFailureThreshold)
	}
	if cfg.BreakerRecoveryTimeout != 60*time.Second {
		t.Errorf("expected breaker recovery timeout 60s, got %v", cfg.BreakerRecoveryTimeout)
	}
	if cfg.BreakerSuccessThreshold != 2 {
		t.Errorf("expected breaker success threshold 2, got %d", cfg.BreakerSuccessThreshold)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("expected max retries 3, got %d", cfg.MaxRetries)
	}
	if cfg.RetryMinWait != time.Second || cfg.RetryMaxWait != 10*time.Second {
		t.Errorf("unexpected retry waits: %v, %v", cfg.RetryMinWait, cfg.RetryMaxWait)
	}
	if cfg.RetryMultiplier != 2.0 {
		t.Errorf("expected retry multiplier 2.0, got %f", cfg.RetryMultiplier)
	}
	if cfg.TargetDBFS != -20.0 {
		t.Errorf("expected target dBFS -20.0, got %f", cfg.TargetDBFS)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9100")
	t.Setenv("CACHE_TTL", "30m")
	t.Setenv("CACHE_STORE", "sqlite")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 9100 {
		t.Errorf("expected port 9100, got %d", cfg.Port)
	}
	if cfg.CacheTTL != 30*time.Minute {
		t.Errorf("expected cache TTL 30m, got %v", cfg.CacheTTL)
	}
	if cfg.CacheStore != "sqlite" {
		t.Errorf("expected sqlite store, got %s", cfg.CacheStore)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"bad port", func(c *Config) { c.Port = -1 }, true},
		{"unknown store", func(c *Config) { c.CacheStore = "redis" }, true},
		{"zero failure threshold", func(c *Config) { c.BreakerFailureThreshold = 0 }, true},
		{"zero success threshold", func(c *Config) { c.BreakerSuccessThreshold = 0 }, true},
		{"zero retries", func(c *Config) { c.MaxRetries = 0 }, true},
		{"multiplier below one", func(c *Config) { c.RetryMultiplier = 0.5 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			if err != nil {
				t.Fatal(err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRequireSynthesis(t *testing.T) {
	cfg := &Config{}
	if err := cfg.RequireSynthesis(); err == nil {
		t.Error("expected error when API key missing")
	}
	cfg.ElevenLabsAPIKey = "key"
	if err := cfg.RequireSynthesis(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
