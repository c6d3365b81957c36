package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type listClient interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
}

// RedisList is a durable FIFO hand-off between processes: producers push on the left,
// the worker pops from the right.
type RedisList struct {
	client listClient
	key    string
}

// NewRedisList binds a list key.
func NewRedisList(client listClient, key string) *RedisList {
	return &RedisList{client: client, key: key}
}

// Key returns the list key.
func (l *RedisList) Key() string { return l.key }

// Push appends a payload.
func (l *RedisList) Push(ctx context.Context, payload []byte) error {
	if err := l.client.LPush(ctx, l.key, payload).Err(); err != nil {
		return fmt.Errorf("push %s: %w", l.key, err)
	}
	return nil
}

// Pop blocks up to wait for the oldest payload. It returns nil without error when the wait elapses.
func (l *RedisList) Pop(ctx context.Context, wait time.Duration) ([]byte, error) {
	values, err := l.client.BRPop(ctx, wait, l.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pop %s: %w", l.key, err)
	}
	if len(values) != 2 {
		return nil, fmt.Errorf("pop %s: unexpected reply %v", l.key, values)
	}
	return []byte(values[1]), nil
}
