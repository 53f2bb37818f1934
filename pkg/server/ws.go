package server

import (
	"context"
	"encoding/base64"
	"log/slog"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/voicepipe/voicepipe/pkg/pipeline"
)

// registerWebSocket installs the /ws/voice session endpoint.
func (s *Server) registerWebSocket() {
	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	s.app.Get("/ws/voice", websocket.New(s.handleVoiceSession))
}

// handleVoiceSession runs one session's read→dispatch→write loop.
// Responses are in order because the loop is strictly sequential; sessions
// are independent goroutines managed by fiber.
func (s *Server) handleVoiceSession(c *websocket.Conn) {
	connID := uuid.NewString()
	stats := s.dispatcher.Stats()
	stats.ConnectionOpened()
	logger := s.logger.With("conn", connID)
	logger.Info("session opened", "active", stats.ActiveConnections())

	defer func() {
		stats.ConnectionClosed()
		logger.Info("session closed", "active", stats.ActiveConnections())
	}()

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			logger.Debug("read loop ended", "error", err)
			return
		}

		envelope := s.dispatchFrame(context.Background(), logger, data)
		if err := c.WriteJSON(envelope); err != nil {
			logger.Warn("write failed", "error", err)
			return
		}
	}
}

// dispatchFrame converts one inbound frame into its response envelope. All
// failures are answered in-band; nothing here closes the connection.
func (s *Server) dispatchFrame(ctx context.Context, logger *slog.Logger, data []byte) any {
	msg, err := ParseClientMessage(data)
	if err != nil {
		logger.Warn("malformed frame", "error", err)
		return ErrorMessage{Type: TypeError, Message: "Invalid message type"}
	}

	switch msg.Type {
	case TypeText:
		return encodeResponse(s.dispatcher.Handle(ctx, pipeline.NewSynthesis(msg.Text)))

	case TypeAudio:
		if msg.Audio == "" {
			return ErrorMessage{Type: TypeError, Message: "Empty audio data"}
		}
		audio, err := base64.StdEncoding.DecodeString(msg.Audio)
		if err != nil {
			return ErrorMessage{Type: TypeError, Message: "Invalid audio encoding"}
		}
		return encodeResponse(s.dispatcher.Handle(ctx, pipeline.NewTranscription(audio, msg.Language)))

	default:
		return encodeResponse(s.dispatcher.Handle(ctx, pipeline.Request{}))
	}
}
