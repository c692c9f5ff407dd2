package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TurnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nix_ai_turns_total",
			Help: "Total turns processed, by resolution source",
		},
		[]string{"source"},
	)

	TurnDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nix_ai_turn_duration_seconds",
			Help:    "Turn processing duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
	)

	ConfidenceScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nix_ai_confidence_score",
			Help:    "Keyword-overlap confidence scores for unresolved turns",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)

	LearnedQnATotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nix_ai_learned_qna_total",
			Help: "Total answers learned through corrections",
		},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nix_ai_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nix_ai_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	WeatherRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nix_ai_weather_requests_total",
			Help: "Weather provider requests, by outcome",
		},
		[]string{"status"},
	)
)

func Init() {
	prometheus.MustRegister(TurnsTotal)
	prometheus.MustRegister(TurnDuration)
	prometheus.MustRegister(ConfidenceScore)
	prometheus.MustRegister(LearnedQnATotal)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(WeatherRequests)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
