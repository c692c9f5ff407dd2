package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nix-ai/backend/internal/weather"
)

type WeatherHandler struct {
	weather *weather.Client
}

func NewWeatherHandler(client *weather.Client) *WeatherHandler {
	return &WeatherHandler{weather: client}
}

func (h *WeatherHandler) GetWeather(c *fiber.Ctx) error {
	city := c.Query("city")
	if city == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "city is required",
		})
	}

	return c.JSON(fiber.Map{
		"city":    city,
		"weather": h.weather.GetWeather(c.Context(), city),
	})
}
