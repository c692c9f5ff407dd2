package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nix-ai/backend/pkg/logger"
	"github.com/nix-ai/backend/pkg/retry"
)

// Cache stores formatted weather answers in Redis with a server-side TTL, as
// an alternative to the in-process map when several instances share a cache.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(host string, port int, password string, db int, ttl time.Duration) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg := retry.DefaultConfig()
	cfg.Logger = logger.Log
	if err := retry.Do(ctx, cfg, func() error {
		return client.Ping(ctx).Err()
	}); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis weather cache initialized",
		zap.String("addr", fmt.Sprintf("%s:%d", host, port)),
		zap.Duration("ttl", ttl),
	)

	return &Cache{client: client, ttl: ttl}, nil
}

func (c *Cache) Close() error {
	return c.client.Close()
}

// Get treats any Redis error as a miss; the caller falls through to the
// provider.
func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	text, err := c.client.Get(ctx, cacheKey(key)).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		logger.Warn("Redis cache read failed", zap.String("key", key), zap.Error(err))
		return "", false
	}
	return text, true
}

func (c *Cache) Set(ctx context.Context, key, text string) {
	if err := c.client.Set(ctx, cacheKey(key), text, c.ttl).Err(); err != nil {
		logger.Warn("Redis cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func cacheKey(city string) string {
	return fmt.Sprintf("weather:%s", city)
}
