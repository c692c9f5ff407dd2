package validation

import (
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Config struct {
	MaxMessageLength int
	Logger           *zap.Logger
}

// Middleware validates chat requests: the message must be present,
// reasonably sized, and free of null bytes.
func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxMessageLength == 0 {
		cfg.MaxMessageLength = 2000
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost || !strings.Contains(c.Path(), "/api/v1/chat") {
			return c.Next()
		}

		var req map[string]any
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid JSON format",
			})
		}

		message, ok := req["message"].(string)
		message = sanitize(message)
		if !ok || message == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Message is required and must be a non-empty string",
			})
		}

		if utf8.RuneCountInString(message) > cfg.MaxMessageLength {
			cfg.Logger.Warn("Oversized chat message rejected",
				zap.String("ip", c.IP()),
				zap.Int("length", utf8.RuneCountInString(message)),
			)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Message exceeds maximum length",
			})
		}

		req["message"] = message
		c.Locals("sanitized_body", req)

		return c.Next()
	}
}

func sanitize(input string) string {
	input = strings.TrimSpace(input)
	return strings.ReplaceAll(input, "\x00", "")
}
