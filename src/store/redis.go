package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gracecoe/placement-portal/src/config"
)

// NewClient connects to redis and verifies the connection with a ping.
func NewClient(cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return client, nil
}
