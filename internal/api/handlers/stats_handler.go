package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/nix-ai/backend/internal/storage/knowledge"
	"github.com/nix-ai/backend/internal/storage/sqlite"
	"github.com/nix-ai/backend/pkg/logger"
)

type StatsHandler struct {
	store   *knowledge.Store
	history *sqlite.Client
}

func NewStatsHandler(store *knowledge.Store, history *sqlite.Client) *StatsHandler {
	return &StatsHandler{store: store, history: history}
}

func (h *StatsHandler) GetStats(c *fiber.Ctx) error {
	stats := h.store.Stats()

	resp := fiber.Map{
		"total_messages":       stats.TotalMessages,
		"learned_qna":          stats.LearnedQnA,
		"corrections_received": stats.CorrectionsReceived,
		"total_users":          stats.TotalUsers,
		"first_start":          stats.FirstStart,
	}

	if raw := c.Query("user_id"); raw != "" {
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "user_id must be an integer",
			})
		}
		if profile, ok := h.store.Profile(userID); ok {
			resp["user"] = fiber.Map{
				"user_id":               profile.UserID,
				"total_messages":        profile.TotalMessages,
				"learned_contributions": profile.LearnedContributions,
				"conversation_count":    profile.ConversationCount,
				"last_active":           profile.LastActive,
			}
		}
	}

	return c.JSON(resp)
}

func (h *StatsHandler) GetHistory(c *fiber.Ctx) error {
	raw := c.Query("user_id")
	if raw == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user_id is required",
		})
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user_id must be an integer",
		})
	}

	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	records, err := h.history.GetUserHistory(userID, limit)
	if err != nil {
		logger.Error("Failed to load turn history", zap.Int64("user_id", userID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load history",
		})
	}

	items := make([]fiber.Map, 0, len(records))
	for _, r := range records {
		items = append(items, fiber.Map{
			"id":         r.ID,
			"message":    r.Message,
			"response":   r.Response,
			"source":     r.Source,
			"created_at": r.CreatedAt,
		})
	}

	return c.JSON(fiber.Map{"history": items})
}
