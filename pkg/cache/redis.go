package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/section-allocator/pkg/config"
)

const (
	pingAttempts = 3
	pingBackoff  = 500 * time.Millisecond
)

// NewRedis returns a configured Redis client. The initial ping is retried briefly so the
// API and the worker tolerate Redis starting alongside them.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	var err error
	for attempt := 1; attempt <= pingAttempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = client.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			return client, nil
		}
		if attempt < pingAttempts {
			select {
			case <-ctx.Done():
				_ = client.Close()
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * pingBackoff):
			}
		}
	}
	_ = client.Close()
	return nil, fmt.Errorf("ping redis: %w", err)
}
