package redis

import (
	"context"

	"github.com/go-redis/redis/v8"

	"social-autopost/internal/config"
)

// NewClient connects to Redis and verifies the connection with a ping.
// The raw client is shared by the job queue and the execution locker.
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	c := redis.NewClient(&redis.Options{
		Addr:     cfg.URL,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := c.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return c, nil
}
