package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	defaultLockTTL       = 10 * time.Second
	defaultRetryInterval = 25 * time.Millisecond
	lockKeyPrefix        = "lock:"
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// RedisLocker is a Locker shared by every process pointing at the same Redis.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
	logger zerolog.Logger
}

// NewRedisLocker creates a locker. Zero durations fall back to defaults.
func NewRedisLocker(client *redis.Client, ttl, retry time.Duration, logger *zerolog.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if retry <= 0 {
		retry = defaultRetryInterval
	}
	return &RedisLocker{
		client: client,
		ttl:    ttl,
		retry:  retry,
		logger: logger.With().Str("component", "redis_lock").Logger(),
	}
}

// Acquire polls SET NX until it wins or ctx is done.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	fullKey := lockKeyPrefix + key
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, fullKey, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, ctx.Err())
			}
			return nil, fmt.Errorf("acquire %s: %w", fullKey, err)
		}
		if ok {
			break
		}

		select {
		case <-time.After(l.retry):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, ctx.Err())
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, l.client, []string{fullKey}, token).Err(); err != nil {
				l.logger.Warn().Err(err).Str("key", fullKey).Msg("failed to release lock")
			}
		})
	}, nil
}
