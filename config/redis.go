package config

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	redisClient *redis.Client
	redisOnce   sync.Once
)

// ConnectRedis initializes a singleton Redis client from cfg. It returns nil
// without error when Redis is disabled or the app runs in test mode.
func ConnectRedis(cfg *Config) (*redis.Client, error) {
	var err error
	redisOnce.Do(func() {
		if cfg == nil || cfg.IsTest() || !cfg.RedisEnabled {
			return
		}

		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err = rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			redisClient = nil
			err = fmt.Errorf("redis ping failed: %w", err)
			return
		}

		redisClient = rdb
		slog.Info("Connected to Redis", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
	})
	return redisClient, err
}

// GetRedisClient returns the initialized Redis client (may be nil if ConnectRedis failed or not called).
func GetRedisClient() *redis.Client {
	return redisClient
}

// SetRedisClientForTesting allows tests to inject a mock Redis client.
// This should only be used in tests.
func SetRedisClientForTesting(client *redis.Client) {
	redisClient = client
}

// ResetRedisClientForTest resets the Redis client singleton for testing purposes.
func ResetRedisClientForTest() {
	redisClient = nil
	redisOnce = sync.Once{}
}
