package lock

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisLockerWithClientFillsDefaults(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	locker := NewRedisLockerWithClient(client, RedisConfig{Prefix: "test:"})
	defer func() { _ = locker.Close() }()

	assert.Equal(t, 10*time.Second, locker.config.TTL)
	assert.Equal(t, 5*time.Second, locker.config.Wait)
	assert.Equal(t, "test:", locker.config.Prefix)
}

func TestRedisLockerUnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	locker := NewRedisLockerWithClient(client, DefaultRedisConfig())
	defer func() { _ = locker.Close() }()

	_, err := locker.Lock(context.Background(), "user:1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to acquire lock user:1")
}
