package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/redis/go-redis/v9"
)

// Env holds the Redis connection settings read from the environment.
type Env struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"redis:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// Client wraps a go-redis client.
type Client struct {
	rdb *redis.Client
}

// MustNewClient connects to Redis and panics when it is unreachable.
func MustNewClient() *Client {
	var cfg Env
	if err := env.Parse(&cfg); err != nil {
		panic(fmt.Sprintf("Failed to parse Redis env: %v", err))
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		panic(fmt.Sprintf("Failed to connect to Redis: %v", err))
	}

	slog.Info("Redis connected", "addr", cfg.Addr)

	return &Client{rdb: rdb}
}

// RDB returns the underlying client.
func (c *Client) RDB() *redis.Client {
	return c.rdb
}

// Close closes the client for graceful shutdown.
func (c *Client) Close() error {
	return c.rdb.Close()
}
