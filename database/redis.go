package database

import (
	"context"
	"fmt"
	"time"

	"delivery-support-chatbot/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var redisClient *redis.Client

// ConnectRedis opens the Redis client used for rate limiting.
func ConnectRedis(cfg *config.Config, logger *zap.Logger) error {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to ping Redis: %w", err)
	}

	redisClient = client
	logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))
	return nil
}

// GetRedis returns the Redis client, or nil when Redis is not configured.
func GetRedis() *redis.Client {
	return redisClient
}

// DisconnectRedis closes the Redis client.
func DisconnectRedis(logger *zap.Logger) error {
	if redisClient == nil {
		return nil
	}
	if err := redisClient.Close(); err != nil {
		return fmt.Errorf("failed to close Redis: %w", err)
	}
	redisClient = nil
	logger.Info("disconnected from Redis")
	return nil
}
