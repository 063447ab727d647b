package redisclient

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client is a Redis Streams backed queue.Bus. Each channel is a stream read
// through one consumer group.
type Client struct {
	redisdb *redis.Client
	group   string
	log     *slog.Logger
}

type Config struct {
	Addr     string
	Password string
	DB       int
	// Group is the consumer group every subscriber joins.
	Group string
}

func New(cfg Config, log *slog.Logger) *Client {
	redisdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	return newClient(redisdb, cfg.Group, log)
}

func newClient(redisdb *redis.Client, group string, log *slog.Logger) *Client {
	if group == "" {
		group = "eventmanager"
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{redisdb: redisdb, group: group, log: log}
}

// Ping checks redis connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.redisdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.redisdb.Close()
}
