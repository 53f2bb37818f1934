// Package server exposes the voice pipeline over HTTP and WebSocket using
// fiber. REST covers one-shot synthesis and transcription; /ws/voice runs a
// full-duplex session loop.
package server

import (
	"encoding/base64"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/voicepipe/voicepipe/pkg/pipeline"
)

// Config wires a Server.
type Config struct {
	Dispatcher *pipeline.Dispatcher
	Logger     *slog.Logger

	// AppName shows up in fiber's identification header.
	AppName string

	// RequestLog enables fiber's per-request log middleware.
	RequestLog bool

	// Version is reported on /health.
	Version string
}

// Server is the HTTP/WebSocket front end.
type Server struct {
	app        *fiber.App
	dispatcher *pipeline.Dispatcher
	logger     *slog.Logger
	version    string
}

// New builds the fiber app with middleware and routes registered.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.AppName == "" {
		cfg.AppName = "voicepipe"
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		DisableStartupMessage: true,
		BodyLimit:             32 * 1024 * 1024, // base64 audio uploads
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))
	if cfg.RequestLog {
		app.Use(logger.New())
	}

	s := &Server{
		app:        app,
		dispatcher: cfg.Dispatcher,
		logger:     cfg.Logger.With("component", "server"),
		version:    cfg.Version,
	}
	s.registerRoutes()
	return s
}

// App exposes the fiber app, mainly for tests (app.Test).
func (s *Server) App() *fiber.App { return s.app }

// Listen starts serving on addr and blocks.
func (s *Server) Listen(addr string) error {
	s.logger.Info("listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown drains connections gracefully.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) registerRoutes() {
	s.app.Get("/health", s.handleHealth)
	s.app.Get("/stats", s.handleStats)

	api := s.app.Group("/api")
	api.Post("/tts", s.handleTTS)
	api.Post("/stt", s.handleSTT)

	s.registerWebSocket()
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	health := s.dispatcher.Health(c.Context())

	status := "healthy"
	if !health.CacheReachable {
		status = "degraded"
	}

	return c.JSON(fiber.Map{
		"status":             status,
		"version":            s.version,
		"timestamp":          time.Now().UTC().Format(time.RFC3339),
		"active_connections": s.dispatcher.Stats().ActiveConnections(),
		"services": fiber.Map{
			"cache": health.CacheReachable,
			"tts":   health.BreakerState,
		},
	})
}

func (s *Server) handleStats(c *fiber.Ctx) error {
	return c.JSON(s.dispatcher.Snapshot())
}

// handleTTS is the one-shot synthesis endpoint.
func (s *Server) handleTTS(c *fiber.Ctx) error {
	var req struct {
		Text     string `json:"text"`
		UseCache *bool  `json:"use_cache"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}

	useCache := req.UseCache == nil || *req.UseCache
	resp := s.dispatcher.Synthesize(c.Context(), req.Text, useCache)

	switch r := resp.(type) {
	case pipeline.Audio:
		return c.JSON(fiber.Map{
			"audio_base64": encodeAudio(r.Data),
			"duration":     r.Duration,
			"cached":       r.Cached,
			"sentiment":    r.Sentiment,
			"latency_ms":   r.LatencyMs,
		})
	case pipeline.Failure:
		return c.Status(failureStatus(r)).JSON(fiber.Map{"error": r.Message})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "unexpected response"})
	}
}

// handleSTT is the one-shot transcription endpoint.
func (s *Server) handleSTT(c *fiber.Ctx) error {
	var req struct {
		AudioBase64 string `json:"audio_base64"`
		Language    string `json:"language"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}

	audio, err := base64.StdEncoding.DecodeString(req.AudioBase64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid base64 audio"})
	}

	resp := s.dispatcher.Transcribe(c.Context(), audio, req.Language)

	switch r := resp.(type) {
	case pipeline.Transcript:
		return c.JSON(r)
	case pipeline.Failure:
		return c.Status(failureStatus(r)).JSON(fiber.Map{"error": r.Message})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "unexpected response"})
	}
}

// failureStatus maps a pipeline failure class to an HTTP status.
func failureStatus(f pipeline.Failure) int {
	switch f.Class {
	case pipeline.ClassValidation:
		return fiber.StatusBadRequest
	case pipeline.ClassBreakerOpen:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func encodeAudio(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
