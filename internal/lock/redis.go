package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockTimeout is returned when a Redis lock cannot be acquired in time.
var ErrLockTimeout = errors.New("timed out waiting for lock")

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisConfig configures a RedisLocker.
type RedisConfig struct {
	Addr     string
	Password string
	Prefix   string
	TTL      time.Duration
	Wait     time.Duration
	Retry    time.Duration
	DB       int
}

// DefaultRedisConfig returns sensible lock timings.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:   "localhost:6379",
		Prefix: "zerbin:lock:",
		TTL:    10 * time.Second,
		Wait:   5 * time.Second,
		Retry:  25 * time.Millisecond,
	}
}

// RedisLocker is a Locker shared across processes, built on SET NX PX.
type RedisLocker struct {
	client redis.UniversalClient
	config RedisConfig
}

// NewRedisLocker connects to Redis and verifies the connection.
func NewRedisLocker(ctx context.Context, config RedisConfig) (*RedisLocker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", config.Addr, err)
	}

	return NewRedisLockerWithClient(client, config), nil
}

// NewRedisLockerWithClient wraps an existing client.
func NewRedisLockerWithClient(client redis.UniversalClient, config RedisConfig) *RedisLocker {
	defaults := DefaultRedisConfig()
	if config.TTL <= 0 {
		config.TTL = defaults.TTL
	}
	if config.Wait <= 0 {
		config.Wait = defaults.Wait
	}
	if config.Retry <= 0 {
		config.Retry = defaults.Retry
	}
	return &RedisLocker{client: client, config: config}
}

// Lock polls until the key is acquired, the wait budget runs out or ctx is done.
// The lock expires after TTL even if unlock is never called.
func (r *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	fullKey := r.config.Prefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(r.config.Wait)

	for {
		ok, err := r.client.SetNX(ctx, fullKey, token, r.config.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			return func() {
				// Use a fresh context so cancellation of the caller does not leak the lock.
				releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				_ = releaseScript.Run(releaseCtx, r.client, []string{fullKey}, token).Err()
			}, nil
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %s", ErrLockTimeout, key)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.config.Retry):
		}
	}
}

// Close closes the underlying client.
func (r *RedisLocker) Close() error {
	return r.client.Close()
}
