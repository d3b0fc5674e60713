package locker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"research-assistant-be/internal/pkg/logger"
	"research-assistant-be/pkg/apperr"
)

const (
	defaultLockTTL   = 30 * time.Second
	defaultRetryWait = 50 * time.Millisecond
	maxRetryWait     = time.Second
)

// compare-and-delete so an expired holder cannot release someone else's lock
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisLocker is a SET NX PX lock shared by every instance pointing at the same Redis.
// The lease is renewed every ttl/3 until the holder unlocks, so the ttl only
// bounds how long a crashed holder blocks the key.
type RedisLocker struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
	logger logger.ILogger
}

func NewRedisLocker(rdb redis.UniversalClient, prefix string, ttl time.Duration, log logger.ILogger) *RedisLocker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if prefix == "" {
		prefix = "research:lock:"
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &RedisLocker{rdb: rdb, prefix: prefix, ttl: ttl, logger: log}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := l.prefix + key
	token := uuid.NewString()
	wait := defaultRetryWait

	for {
		ok, err := l.rdb.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return nil, apperr.Storage("lock "+key, err)
		}
		if ok {
			break
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, apperr.Wrap(apperr.KindBusy, "lock "+key, ctx.Err())
		case <-timer.C:
		}
		if wait *= 2; wait > maxRetryWait {
			wait = maxRetryWait
		}
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go l.renew(redisKey, token, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done

			// the caller's context may already be done
			unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := unlockScript.Run(unlockCtx, l.rdb, []string{redisKey}, token).Err(); err != nil {
				l.logger.Warn("LOCKER", "Failed to release lock, it expires with its lease", map[string]interface{}{
					"key":   redisKey,
					"lease": l.ttl.String(),
					"error": err.Error(),
				})
			}
		})
	}, nil
}

// renew extends the lease while the holder runs. It stops on unlock or once
// the key no longer carries this holder's token.
func (l *RedisLocker) renew(key, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	interval := l.ttl / 3
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), interval)
		n, err := renewScript.Run(ctx, l.rdb, []string{key}, token, l.ttl.Milliseconds()).Int64()
		cancel()
		switch {
		case err != nil:
			l.logger.Warn("LOCKER", "Failed to renew lock lease", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		case n == 0:
			l.logger.Error("LOCKER", "Lock lease lost before unlock", map[string]interface{}{
				"key": key,
			})
			return
		}
	}
}
