package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/voicepipe/voicepipe/internal/config"
	"github.com/voicepipe/voicepipe/internal/log"
	"github.com/voicepipe/voicepipe/pkg/audiofx"
	"github.com/voicepipe/voicepipe/pkg/backoff"
	"github.com/voicepipe/voicepipe/pkg/breaker"
	"github.com/voicepipe/voicepipe/pkg/cache"
	"github.com/voicepipe/voicepipe/pkg/cache/memory"
	"github.com/voicepipe/voicepipe/pkg/cache/sqlite"
	"github.com/voicepipe/voicepipe/pkg/pipeline"
	"github.com/voicepipe/voicepipe/pkg/server"
	"github.com/voicepipe/voicepipe/pkg/stt"
	"github.com/voicepipe/voicepipe/pkg/tts"
)

func newServeCmd() *cobra.Command {
	var useWS bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the voice pipeline server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := cfg.RequireSynthesis(); err != nil {
				return err
			}

			log.Init(cfg.LogLevel)
			logger := log.L()

			store, err := newStore(cfg)
			if err != nil {
				return err
			}
			audioCache := cache.New(store, cfg.CacheTTL, logger)

			ttsBreaker := breaker.New(breaker.Config{
				Name:             "tts",
				FailureThreshold: cfg.BreakerFailureThreshold,
				RecoveryTimeout:  cfg.BreakerRecoveryTimeout,
				SuccessThreshold: cfg.BreakerSuccessThreshold,
				Logger:           logger,
			})

			retry := backoff.Policy{
				MinWait:     cfg.RetryMinWait,
				MaxWait:     cfg.RetryMaxWait,
				Multiplier:  cfg.RetryMultiplier,
				MaxAttempts: cfg.MaxRetries,
			}

			synthesizer, err := newSynthesizer(cfg, useWS)
			if err != nil {
				return err
			}
			defer synthesizer.Close()

			transcriber := stt.NewWhisper(cfg.WhisperURL,
				stt.WithTimeout(cfg.TranscriptionTimeout),
				stt.WithLogger(logger),
			)

			processor := audiofx.NewProcessor(cfg.TargetDBFS, logger)

			dispatcher := pipeline.NewDispatcher(pipeline.DispatcherConfig{
				Cache:                audioCache,
				Breaker:              ttsBreaker,
				Retry:                retry,
				Synthesizer:          synthesizer,
				Transcriber:          transcriber,
				Logger:               logger,
				Normalize:            processor.Normalize,
				SynthesisTimeout:     cfg.SynthesisTimeout,
				TranscriptionTimeout: cfg.TranscriptionTimeout,
			})

			srv := server.New(server.Config{
				Dispatcher: dispatcher,
				Logger:     logger,
				RequestLog: cfg.Debug,
				Version:    version,
			})

			// Graceful shutdown on SIGINT/SIGTERM.
			done := make(chan error, 1)
			go func() {
				done <- srv.Listen(fmt.Sprintf(":%d", cfg.Port))
			}()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-done:
				return err
			case s := <-sig:
				logger.Info("shutting down", "signal", s.String())
				if err := srv.Shutdown(); err != nil {
					logger.Error("shutdown failed", "error", err)
				}
				if err := audioCache.Close(); err != nil {
					logger.Error("cache close failed", "error", err)
				}
				return nil
			}
		},
	}

	cmd.Flags().BoolVar(&useWS, "tts-websocket", false, "use the ElevenLabs streaming WebSocket backend")
	return cmd
}

// newStore selects the cache backing store from configuration.
func newStore(cfg *config.Config) (cache.Store, error) {
	switch cfg.CacheStore {
	case "sqlite":
		return sqlite.New(cfg.CacheDBPath)
	default:
		return memory.New(memory.WithMaxEntries(cfg.CacheMaxEntries)), nil
	}
}

// newSynthesizer builds the ElevenLabs backend, HTTP by default.
func newSynthesizer(cfg *config.Config, useWS bool) (tts.Provider, error) {
	opts := []tts.Option{
		tts.WithAPIKey(cfg.ElevenLabsAPIKey),
		tts.WithVoice(cfg.ElevenLabsVoiceID),
		tts.WithModel(cfg.ElevenLabsModelID),
		tts.WithSampleRate(cfg.AudioSampleRate),
		tts.WithTimeout(cfg.SynthesisTimeout),
		tts.WithLogger(log.L()),
	}
	if useWS {
		return tts.NewElevenLabsWS(opts...)
	}
	return tts.NewElevenLabs(opts...)
}
