package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/nix-ai/backend/internal/api/handlers"
	memorycache "github.com/nix-ai/backend/internal/cache/memory"
	rediscache "github.com/nix-ai/backend/internal/cache/redis"
	"github.com/nix-ai/backend/internal/engine"
	"github.com/nix-ai/backend/internal/metrics"
	"github.com/nix-ai/backend/internal/middleware/ratelimit"
	"github.com/nix-ai/backend/internal/middleware/security"
	"github.com/nix-ai/backend/internal/middleware/validation"
	"github.com/nix-ai/backend/internal/qna"
	"github.com/nix-ai/backend/internal/rules"
	"github.com/nix-ai/backend/internal/storage/knowledge"
	"github.com/nix-ai/backend/internal/storage/sqlite"
	"github.com/nix-ai/backend/internal/weather"
	"github.com/nix-ai/backend/pkg/circuitbreaker"
	"github.com/nix-ai/backend/pkg/config"
	appLogger "github.com/nix-ai/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting Nix AI API Server")

	metrics.Init()

	store, err := knowledge.Open(cfg.Storage.KnowledgePath)
	if err != nil {
		appLogger.Fatal("Failed to open knowledge store", zap.Error(err))
	}

	history, err := sqlite.NewClient(cfg.History.Path)
	if err != nil {
		appLogger.Fatal("Failed to create history client", zap.Error(err))
	}
	defer history.Close()

	if err := history.InitSchema(); err != nil {
		appLogger.Fatal("Failed to initialize history schema", zap.Error(err))
	}

	cacheTTL := time.Duration(cfg.Weather.CacheTTLMin) * time.Minute
	var weatherCache weather.Cache = memorycache.New(cacheTTL)
	if cfg.Redis.Enabled {
		redisCache, err := rediscache.NewCache(
			cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB, cacheTTL)
		if err != nil {
			appLogger.Warn("Redis unavailable, using in-memory weather cache", zap.Error(err))
		} else {
			defer redisCache.Close()
			weatherCache = redisCache
		}
	}

	breaker := circuitbreaker.New("weather", circuitbreaker.Config{
		FailureThreshold: 3,
		SuccessThreshold: 1,
		Timeout:          60 * time.Second,
		Logger:           appLogger.Log,
	})

	weatherClient := weather.NewClient(weather.Config{
		APIKey:  cfg.Weather.APIKey,
		BaseURL: cfg.Weather.BaseURL,
		Units:   cfg.Weather.Units,
		Lang:    cfg.Weather.Lang,
		Timeout: time.Duration(cfg.Weather.TimeoutSec) * time.Second,
	}, weatherCache, breaker)

	if cfg.Weather.APIKey == "" {
		appLogger.Warn("Weather API key is not configured, weather answers will be degraded")
	}

	dispatcher := rules.NewDispatcher(store)
	matcher := qna.NewMatcher(store)

	eng := engine.New(store, dispatcher, matcher, weatherClient, history, engine.Config{
		ConfidenceThreshold: cfg.Engine.ConfidenceThreshold,
		AutoLearn:           cfg.Engine.AutoLearn,
	})

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, X-User-ID",
		AllowMethods: "GET, POST, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.Server.MaxRequestsPerMinute,
		Logger:               appLogger.Log,
	})
	defer limiter.Stop()

	chatHandler := handlers.NewChatHandler(eng)
	weatherHandler := handlers.NewWeatherHandler(weatherClient)
	statsHandler := handlers.NewStatsHandler(store, history)
	knowledgeHandler := handlers.NewKnowledgeHandler(store)
	wsHandler := handlers.NewWebSocketHandler(eng, weatherClient)

	api := app.Group("/api/v1")

	api.Post("/chat", limiter.Middleware(), validation.Middleware(validation.Config{
		Logger: appLogger.Log,
	}), chatHandler.HandleChat)
	api.Get("/weather", limiter.Middleware(), weatherHandler.GetWeather)
	api.Get("/stats", statsHandler.GetStats)
	api.Get("/history", statsHandler.GetHistory)
	api.Get("/knowledge", knowledgeHandler.GetSummary)
	api.Delete("/knowledge", knowledgeHandler.ClearKnowledge)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/chat", websocket.New(wsHandler.HandleConnection))

	app.Get("/metrics", metrics.MetricsHandler())

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
