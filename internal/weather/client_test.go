package weather

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nix-ai/backend/internal/cache/memory"
	"github.com/nix-ai/backend/pkg/circuitbreaker"
)

const sampleBody = `{
	"name": "Москва",
	"sys": {"country": "RU"},
	"main": {"temp": 5.3, "feels_like": 2.1, "humidity": 80, "pressure": 1012},
	"weather": [{"description": "пасмурно, дождь"}],
	"wind": {"speed": 4.5}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc, ttl time.Duration) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Units:   "metric",
		Lang:    "ru",
	}, memory.New(ttl), circuitbreaker.New("weather-test", circuitbreaker.Config{
		FailureThreshold: 3,
	}))
	return client, server
}

func TestGetWeatherFormatsConditions(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Москва", r.URL.Query().Get("q"))
		assert.Equal(t, "test-key", r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		assert.Equal(t, "ru", r.URL.Query().Get("lang"))
		fmt.Fprint(w, sampleBody)
	}, 30*time.Minute)

	text := client.GetWeather(context.Background(), "Москва")

	assert.Contains(t, text, "Погода в Москва, RU")
	assert.Contains(t, text, "Температура: 5.3°C")
	assert.Contains(t, text, "Ощущается как: 2.1°C")
	assert.Contains(t, text, "Пасмурно, дождь")
	assert.Contains(t, text, "Влажность: 80%")
	assert.Contains(t, text, "Давление: 1012 hPa")
	assert.Contains(t, text, "Ветер: 4.5 м/с")
	assert.Contains(t, text, "🌧️")
}

func TestGetWeatherCachesByNormalizedCity(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, sampleBody)
	}, 30*time.Minute)

	first := client.GetWeather(context.Background(), "Москва")
	second := client.GetWeather(context.Background(), "  МОСКВА ")

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetWeatherExpiredEntryRefetches(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, sampleBody)
	}, time.Nanosecond)

	client.GetWeather(context.Background(), "Москва")
	time.Sleep(time.Millisecond)
	client.GetWeather(context.Background(), "Москва")

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGetWeatherUnknownCity(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}, 30*time.Minute)

	text := client.GetWeather(context.Background(), "Нарния")
	assert.Contains(t, text, "Город 'Нарния' не найден")

	// The not-found answer must not be cached.
	client.GetWeather(context.Background(), "Нарния")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGetWeatherRequiresAPIKey(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	client := NewClient(Config{
		APIKey:  "",
		BaseURL: server.URL,
	}, memory.New(30*time.Minute), circuitbreaker.New("weather-test", circuitbreaker.Config{}))

	text := client.GetWeather(context.Background(), "Москва")
	assert.Contains(t, text, "API ключ")
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestGetWeatherServerErrorEmbedsStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, 30*time.Minute)

	text := client.GetWeather(context.Background(), "Москва")
	assert.Contains(t, text, "Произошла ошибка при получении погоды")
	assert.Contains(t, text, "500")
}

func TestGetWeatherBreakerOpensAfterRepeatedFailures(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, 30*time.Minute)

	for i := 0; i < 3; i++ {
		text := client.GetWeather(context.Background(), "Москва")
		assert.Contains(t, text, "Произошла ошибка")
	}

	text := client.GetWeather(context.Background(), "Москва")
	assert.Equal(t, "⚠️ Погодный сервис временно недоступен. Попробуйте позже.", text)
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Пасмурно", capitalize("пасмурно"))
	assert.Equal(t, "", capitalize(""))
	assert.Equal(t, "Clear", capitalize("clear"))
}

func TestIconFor(t *testing.T) {
	tests := []struct {
		description string
		icon        string
	}{
		{"небольшой дождь", "🌧️"},
		{"снег", "❄️"},
		{"облачно с прояснениями", "☁️"},
		{"ясно", "☀️"},
		{"туман", "🌫️"},
		{"гроза", "⛈️"},
		{"что-то странное", "🌤️"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.icon, iconFor(tt.description), tt.description)
	}
}

func TestBreakerNotTrippedByNotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}, 30*time.Minute)

	require.NotNil(t, client)
	for i := 0; i < 10; i++ {
		text := client.GetWeather(context.Background(), "Нарния")
		assert.Contains(t, text, "не найден")
	}
}
