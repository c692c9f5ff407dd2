package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/nix-ai/backend/internal/engine"
	"github.com/nix-ai/backend/pkg/logger"
)

type ChatHandler struct {
	engine *engine.Engine
}

func NewChatHandler(eng *engine.Engine) *ChatHandler {
	return &ChatHandler{engine: eng}
}

// HandleChat processes one conversational turn. The caller is responsible
// for carrying followup_kind / pending_question between requests and sending
// pending_question back when replying to a teach-me prompt.
func (h *ChatHandler) HandleChat(c *fiber.Ctx) error {
	var req struct {
		UserID          int64  `json:"user_id"`
		Message         string `json:"message"`
		Username        string `json:"username"`
		FirstName       string `json:"first_name"`
		LastName        string `json:"last_name"`
		PendingQuestion string `json:"pending_question"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse chat request", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.UserID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user_id is required",
		})
	}
	if req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "message is required",
		})
	}

	turnReq := engine.TurnRequest{
		UserID:    req.UserID,
		Text:      req.Message,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
	if req.PendingQuestion != "" {
		turnReq.Correction = &engine.CorrectionContext{Question: req.PendingQuestion}
	}

	outcome := h.engine.ProcessTurn(c.Context(), turnReq)

	return c.JSON(fiber.Map{
		"response":         outcome.Response,
		"needs_followup":   outcome.NeedsFollowup,
		"followup_kind":    outcome.FollowupKind,
		"pending_question": outcome.PendingQuestion,
	})
}
