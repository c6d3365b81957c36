package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listStub struct {
	pushed  []interface{}
	pushErr error
	popped  []string
	popErr  error
}

func (s *listStub) LPush(_ context.Context, _ string, values ...interface{}) *redis.IntCmd {
	s.pushed = append(s.pushed, values...)
	return redis.NewIntResult(int64(len(s.pushed)), s.pushErr)
}

func (s *listStub) BRPop(_ context.Context, _ time.Duration, _ ...string) *redis.StringSliceCmd {
	return redis.NewStringSliceResult(s.popped, s.popErr)
}

func TestRedisListPushAndPop(t *testing.T) {
	stub := &listStub{popped: []string{"scheduler:jobs", `{"semesterId":"s1"}`}}
	list := NewRedisList(stub, "scheduler:jobs")

	require.NoError(t, list.Push(context.Background(), []byte("payload")))
	assert.Len(t, stub.pushed, 1)

	payload, err := list.Pop(context.Background(), time.Second)
	require.NoError(t, err)
	assert.JSONEq(t, `{"semesterId":"s1"}`, string(payload))
}

func TestRedisListPopTimeoutIsNotAnError(t *testing.T) {
	list := NewRedisList(&listStub{popErr: redis.Nil}, "scheduler:jobs")
	payload, err := list.Pop(context.Background(), time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, payload)
}

func TestRedisListWrapsErrors(t *testing.T) {
	list := NewRedisList(&listStub{pushErr: errors.New("down"), popErr: errors.New("down")}, "k")
	assert.ErrorContains(t, list.Push(context.Background(), []byte("x")), "push k")
	_, err := list.Pop(context.Background(), time.Millisecond)
	assert.ErrorContains(t, err, "pop k")
}
