package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"scanpay/internal/config"

	"github.com/redis/go-redis/v9"
)

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     20,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
}

// Connect dials Redis and wraps it in a CacheService. A nil service and the
// ping error are returned when Redis is unreachable so callers can run
// without a cache.
func Connect(ctx context.Context, cfg config.RedisConfig, ttl time.Duration) (*CacheService, error) {
	client := NewRedisClient(cfg)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	log.Printf("✅ Redis connected at %s:%s", cfg.Host, cfg.Port)
	return NewCacheService(client, ttl), nil
}
