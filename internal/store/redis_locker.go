package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if it still carries our token, so an
// expired lock re-acquired by another instance is left alone.
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`

type redisClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// RedisLocker extends per-task exclusion across processes sharing one Redis.
// Goroutines of the same process queue on a local KeyedMutex first so only
// one of them polls Redis per key.
type RedisLocker struct {
	rdb    redisClient
	local  *KeyedMutex
	ttl    time.Duration
	poll   time.Duration
	prefix string
}

func NewRedisLocker(rdb redisClient, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		rdb:    rdb,
		local:  NewKeyedMutex(),
		ttl:    ttl,
		poll:   25 * time.Millisecond,
		prefix: "taskboard:lock:",
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	unlockLocal, err := l.local.Lock(ctx, key)
	if err != nil {
		return nil, err
	}

	redisKey := l.prefix + key
	token := uuid.NewString()
	for {
		ok, err := l.rdb.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			unlockLocal()
			return nil, err
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			unlockLocal()
			return nil, ctx.Err()
		case <-time.After(l.poll):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			if err := l.rdb.Eval(context.Background(), releaseScript, []string{redisKey}, token).Err(); err != nil {
				slog.Warn("failed to release redis lock", "key", redisKey, "error", err)
			}
			unlockLocal()
		})
	}, nil
}
