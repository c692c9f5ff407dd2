package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nix-ai/backend/internal/storage/knowledge"
	"github.com/nix-ai/backend/pkg/logger"
)

type KnowledgeHandler struct {
	store *knowledge.Store
}

func NewKnowledgeHandler(store *knowledge.Store) *KnowledgeHandler {
	return &KnowledgeHandler{store: store}
}

// GetSummary returns the QnA table size plus a small sample of pairs.
func (h *KnowledgeHandler) GetSummary(c *fiber.Ctx) error {
	pairs := h.store.QnA()

	sample := make([]fiber.Map, 0, 5)
	for question, answer := range pairs {
		if len(sample) >= 5 {
			break
		}
		sample = append(sample, fiber.Map{
			"question": question,
			"answer":   answer,
		})
	}

	return c.JSON(fiber.Map{
		"total_questions": len(pairs),
		"sample":          sample,
	})
}

// ClearKnowledge wipes all learned material. Seed facts and user profiles
// are kept.
func (h *KnowledgeHandler) ClearKnowledge(c *fiber.Ctx) error {
	h.store.ClearLearned()
	logger.Info("Learned knowledge cleared")

	return c.JSON(fiber.Map{
		"response": "✅ Память очищена. Я все забыл. 🧹",
	})
}
