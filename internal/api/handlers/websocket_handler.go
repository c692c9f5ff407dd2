package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/nix-ai/backend/internal/engine"
	"github.com/nix-ai/backend/pkg/logger"
)

type WebSocketHandler struct {
	engine  *engine.Engine
	weather engine.WeatherService
}

func NewWebSocketHandler(eng *engine.Engine, weather engine.WeatherService) *WebSocketHandler {
	return &WebSocketHandler{engine: eng, weather: weather}
}

type wsRequest struct {
	Type      string `json:"type"`
	UserID    int64  `json:"user_id"`
	Content   string `json:"content"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// HandleConnection runs a chat session over one connection. The connection
// is the dialog: it remembers the followup kind and pending question between
// turns, so a teach-me or city prompt is answered by the next message.
func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket chat session started")

	defer func() {
		c.Close()
		logger.Info("WebSocket chat session closed")
	}()

	awaiting := engine.FollowupNone
	pendingQuestion := ""

	for {
		var msg wsRequest
		if err := c.ReadJSON(&msg); err != nil {
			logger.Debug("WebSocket read ended", zap.Error(err))
			break
		}

		if msg.Type != "message" || msg.UserID == 0 {
			h.sendError(c, "Expected a message with user_id")
			continue
		}

		content := strings.TrimSpace(msg.Content)
		if content == "" {
			h.sendError(c, "Message is empty")
			continue
		}

		ctx := context.Background()

		if awaiting == engine.FollowupWeather {
			awaiting = engine.FollowupNone
			h.sendResponse(c, h.weather.GetWeather(ctx, content), engine.TurnOutcome{FollowupKind: engine.FollowupNone})
			continue
		}

		req := engine.TurnRequest{
			UserID:    msg.UserID,
			Text:      content,
			Username:  msg.Username,
			FirstName: msg.FirstName,
			LastName:  msg.LastName,
		}
		if awaiting == engine.FollowupCorrection {
			req.Correction = &engine.CorrectionContext{Question: pendingQuestion}
			awaiting = engine.FollowupNone
			pendingQuestion = ""
		}

		outcome := h.engine.ProcessTurn(ctx, req)

		if outcome.NeedsFollowup {
			awaiting = outcome.FollowupKind
			pendingQuestion = outcome.PendingQuestion
		}

		h.sendResponse(c, outcome.Response, outcome)
	}
}

func (h *WebSocketHandler) sendResponse(c *websocket.Conn, content string, outcome engine.TurnOutcome) {
	msg := map[string]any{
		"type":           "response",
		"content":        content,
		"needs_followup": outcome.NeedsFollowup,
		"followup_kind":  outcome.FollowupKind,
	}

	if err := c.WriteJSON(msg); err != nil {
		logger.Error("Failed to write WebSocket response", zap.Error(err))
	}
}

func (h *WebSocketHandler) sendError(c *websocket.Conn, errorMsg string) {
	c.WriteJSON(map[string]any{
		"type":  "error",
		"error": errorMsg,
	})
}
