// Package redis builds the Redis client used by the quote cache.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// Environment keys read by NewRedisClient.
const (
	EnvKeyURI      = "REDIS_URI"
	EnvKeyHost     = "REDIS_HOST"
	EnvKeyPort     = "REDIS_PORT"
	EnvKeyPassword = "REDIS_PASSWORD"
)

const pingTimeout = 3 * time.Second

// Enabled reports whether any Redis location is configured.
func Enabled() bool {
	return os.Getenv(EnvKeyURI) != "" || os.Getenv(EnvKeyHost) != ""
}

// OptionsFromEnv resolves client options. REDIS_URI wins over the host/port pair.
func OptionsFromEnv() (*redis.Options, error) {
	if uri := os.Getenv(EnvKeyURI); uri != "" {
		opts, err := redis.ParseURL(uri)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", EnvKeyURI, err)
		}
		return opts, nil
	}
	port := os.Getenv(EnvKeyPort)
	if port == "" {
		port = "6379"
	}
	return &redis.Options{
		Addr:     os.Getenv(EnvKeyHost) + ":" + port,
		Password: os.Getenv(EnvKeyPassword),
		DB:       0,
	}, nil
}

// NewRedisClient connects and pings Redis.
func NewRedisClient(ctx context.Context) (*redis.Client, error) {
	opts, err := OptionsFromEnv()
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	// 接続確認
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Error("Redis connection failed", "address", opts.Addr, "error", err)
		_ = rdb.Close()
		return nil, err
	}

	slog.Info("Redis connection successful", "address", opts.Addr)
	return rdb, nil
}
