package lease

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token,
// so an expired lease never frees a lease taken over by someone else.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a Locker shared by every instance talking to the same Redis.
type RedisLocker struct {
	rdb          *redis.Client
	ttl          time.Duration
	wait         time.Duration
	pollInterval time.Duration
}

// NewRedisLocker creates a RedisLocker. ttl bounds how long a crashed holder blocks the key.
func NewRedisLocker(rdb *redis.Client, ttl, wait, pollInterval time.Duration) *RedisLocker {
	if pollInterval <= 0 {
		pollInterval = 25 * time.Millisecond
	}

	return &RedisLocker{
		rdb:          rdb,
		ttl:          ttl,
		wait:         wait,
		pollInterval: pollInterval,
	}
}

// Acquire polls SET NX until it wins, the wait elapses or ctx is done.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (Lease, error) {
	redisKey := "lease:" + key
	token := uuid.NewString()

	parent := ctx
	if l.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}

	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()

	for {
		ok, err := l.rdb.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("failed to acquire lease %s: %w", key, err)
		}
		if ok {
			return &redisLease{rdb: l.rdb, key: redisKey, token: token}, nil
		}

		select {
		case <-ctx.Done():
			return nil, acquireErr(parent, ctx, key)
		case <-ticker.C:
		}
	}
}

type redisLease struct {
	rdb   *redis.Client
	key   string
	token string
}

func (l *redisLease) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.rdb, []string{l.key}, l.token).Err(); err != nil {
		return fmt.Errorf("failed to release lease %s: %w", l.key, err)
	}

	return nil
}
