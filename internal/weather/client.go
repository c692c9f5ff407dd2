package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nix-ai/backend/internal/metrics"
	"github.com/nix-ai/backend/pkg/circuitbreaker"
	"github.com/nix-ai/backend/pkg/logger"
)

// Cache maps a normalized city name to a previously formatted answer.
type Cache interface {
	Get(ctx context.Context, city string) (string, bool)
	Set(ctx context.Context, city, text string)
}

type Config struct {
	APIKey  string
	BaseURL string
	Units   string
	Lang    string
	Timeout time.Duration
}

// Client turns a city name into a formatted current-conditions summary.
// Every failure mode resolves to user-visible text; it never returns an
// error to the caller.
type Client struct {
	apiKey     string
	baseURL    string
	units      string
	lang       string
	httpClient *http.Client
	cache      Cache
	breaker    *circuitbreaker.Breaker
}

type conditions struct {
	Name string `json:"name"`
	Sys  struct {
		Country string `json:"country"`
	} `json:"sys"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
		Pressure  int     `json:"pressure"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

func NewClient(cfg Config, cache Cache, breaker *circuitbreaker.Breaker) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		units:   cfg.Units,
		lang:    cfg.Lang,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		cache:   cache,
		breaker: breaker,
	}
}

func (c *Client) GetWeather(ctx context.Context, city string) string {
	key := strings.ToLower(strings.TrimSpace(city))

	if text, ok := c.cache.Get(ctx, key); ok {
		metrics.CacheHits.WithLabelValues("weather").Inc()
		logger.Debug("Weather cache hit", zap.String("city", key))
		return text
	}
	metrics.CacheMisses.WithLabelValues("weather").Inc()

	if c.apiKey == "" {
		return "🌤️ Для работы погодного сервиса нужен API ключ OpenWeatherMap.\nДобавьте его в конфигурацию (weather.apiKey)."
	}

	var text string
	var notFound bool

	err := c.breaker.Execute(func() error {
		result, status, err := c.fetch(ctx, city)
		if err != nil {
			return err
		}
		if status == http.StatusNotFound {
			notFound = true
			return nil
		}
		if status != http.StatusOK {
			return fmt.Errorf("provider returned status %d", status)
		}
		text = c.format(result)
		return nil
	})

	switch {
	case errors.Is(err, circuitbreaker.ErrOpen), errors.Is(err, circuitbreaker.ErrTooManyRequests):
		metrics.WeatherRequests.WithLabelValues("unavailable").Inc()
		return "⚠️ Погодный сервис временно недоступен. Попробуйте позже."
	case err != nil:
		metrics.WeatherRequests.WithLabelValues("error").Inc()
		logger.Warn("Weather provider call failed", zap.String("city", city), zap.Error(err))
		return fmt.Sprintf("⚠️ Произошла ошибка при получении погоды: %v", err)
	case notFound:
		metrics.WeatherRequests.WithLabelValues("not_found").Inc()
		return fmt.Sprintf("🌍 Город '%s' не найден. Проверьте правильность написания.", city)
	}

	metrics.WeatherRequests.WithLabelValues("ok").Inc()
	c.cache.Set(ctx, key, text)
	return text
}

func (c *Client) fetch(ctx context.Context, city string) (*conditions, int, error) {
	params := url.Values{}
	params.Set("q", city)
	params.Set("appid", c.apiKey)
	params.Set("units", c.units)
	params.Set("lang", c.lang)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s?%s", c.baseURL, params.Encode()), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to reach weather provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, nil
	}

	var data conditions
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, 0, fmt.Errorf("failed to parse provider response: %w", err)
	}

	return &data, resp.StatusCode, nil
}

func (c *Client) format(data *conditions) string {
	city := data.Name
	if city == "" {
		city = "Неизвестный город"
	}

	description := ""
	if len(data.Weather) > 0 {
		description = capitalize(data.Weather[0].Description)
	}

	return fmt.Sprintf("%s Погода в %s, %s\n\n"+
		"• Температура: %.1f°C\n"+
		"• Ощущается как: %.1f°C\n"+
		"• %s\n"+
		"• Влажность: %d%%\n"+
		"• Давление: %d hPa\n"+
		"• Ветер: %g м/с",
		iconFor(description), city, data.Sys.Country,
		data.Main.Temp, data.Main.FeelsLike, description,
		data.Main.Humidity, data.Main.Pressure, data.Wind.Speed)
}

func iconFor(description string) string {
	lower := strings.ToLower(description)

	switch {
	case strings.Contains(lower, "дождь"):
		return "🌧️"
	case strings.Contains(lower, "снег"):
		return "❄️"
	case strings.Contains(lower, "облачно"):
		return "☁️"
	case strings.Contains(lower, "ясно"), strings.Contains(lower, "солнце"):
		return "☀️"
	case strings.Contains(lower, "туман"):
		return "🌫️"
	case strings.Contains(lower, "гроза"):
		return "⛈️"
	default:
		return "🌤️"
	}
}

func capitalize(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	return strings.ToUpper(string(runes[0])) + string(runes[1:])
}
