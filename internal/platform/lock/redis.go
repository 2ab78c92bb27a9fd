package lock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// extendScript pushes the expiry out only if the key still holds our token.
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisClient is the subset of the go-redis client the locker needs.
type RedisClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	redis.Scripter
}

// RedisLocker is a lease-based lock shared by every process pointed at the same Redis.
// The lease is renewed every TTL/3 while held, so a holder that dies loses the lock after
// at most TTL and a live holder keeps it for as long as it runs.
type RedisLocker struct {
	client RedisClient
	ttl    time.Duration
	prefix string
}

// NewRedisLocker creates a Locker backed by Redis SET NX PX.
func NewRedisLocker(client RedisClient, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl, prefix: "ffe:lock:"}
}

var _ Locker = (*RedisLocker)(nil)

func (l *RedisLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	redisKey := l.prefix + key
	token := uuid.NewString()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond

	_, err := backoff.Retry(ctx, func() (bool, error) {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return false, backoff.Permanent(err)
		}
		if !ok {
			return false, fmt.Errorf("lock %q is held", key)
		}
		return true, nil
	}, backoff.WithBackOff(b), backoff.WithMaxElapsedTime(l.ttl))
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrLockTimeout, key, ctx.Err())
		}
		return nil, fmt.Errorf("%w %q: %v", ErrLockTimeout, key, err)
	}

	stop := make(chan struct{})
	renewed := make(chan struct{})
	go l.renew(context.WithoutCancel(ctx), redisKey, token, stop, renewed)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-renewed
			// Release even when the caller's context is already cancelled.
			if err := releaseScript.Run(context.WithoutCancel(ctx), l.client, []string{redisKey}, token).Err(); err != nil {
				slog.Default().Warn("Failed to release redis lock", slog.String("key", redisKey), slog.String("error", err.Error()))
			}
		})
	}, nil
}

// renew extends the lease until stop is closed or the lease turns out to be lost.
func (l *RedisLocker) renew(ctx context.Context, redisKey, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	interval := l.ttl / 3
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			n, err := extendScript.Run(ctx, l.client, []string{redisKey}, token, l.ttl.Milliseconds()).Int64()
			if err != nil {
				// The next tick retries; the lease still has two intervals left.
				slog.Default().Warn("Failed to renew redis lock", slog.String("key", redisKey), slog.String("error", err.Error()))
				continue
			}
			if n == 0 {
				slog.Default().Error("Redis lock lease lost while held", slog.String("key", redisKey))
				return
			}
		}
	}
}

// NewRedisClient parses a redis:// URL and verifies the server is reachable.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// FromConfig returns a Redis-backed locker when redisURL is set and an in-process one otherwise.
// The returned close func releases the Redis connection.
func FromConfig(ctx context.Context, redisURL string, ttl time.Duration) (Locker, func(), error) {
	if redisURL == "" {
		return NewLocalLocker(), func() {}, nil
	}
	client, err := NewRedisClient(ctx, redisURL)
	if err != nil {
		return nil, nil, err
	}
	return NewRedisLocker(client, ttl), func() { _ = client.Close() }, nil
}
