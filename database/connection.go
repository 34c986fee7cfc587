package database

import (
	"context"
	"fmt"
	"time"

	"delivery-support-chatbot/config"

	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Connect opens every backing store the configuration enables.
func Connect(cfg *config.Config, logger *zap.Logger) error {
	switch cfg.Database.Type {
	case "mongodb":
		if err := ConnectMongoDB(cfg, logger); err != nil {
			return err
		}
	case "none":
	default:
		return fmt.Errorf("unsupported database type: %s", cfg.Database.Type)
	}

	if cfg.Redis.Addr != "" {
		if err := ConnectRedis(cfg, logger); err != nil {
			return err
		}
	}

	return nil
}

// Disconnect closes database connections
func Disconnect(logger *zap.Logger) {
	if err := DisconnectMongoDB(logger); err != nil {
		logger.Warn("mongodb disconnect failed", zap.Error(err))
	}
	if err := DisconnectRedis(logger); err != nil {
		logger.Warn("redis disconnect failed", zap.Error(err))
	}
}

// HealthCheck pings every connected store.
func HealthCheck(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	status := map[string]string{}

	if mongoClient != nil {
		status["mongodb"] = "ok"
		if err := mongoClient.Ping(ctx, readpref.Primary()); err != nil {
			status["mongodb"] = err.Error()
		}
	}

	if redisClient != nil {
		status["redis"] = "ok"
		if err := redisClient.Ping(ctx).Err(); err != nil {
			status["redis"] = err.Error()
		}
	}

	return status
}
