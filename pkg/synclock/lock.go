// Package synclock keeps at most one merge batch per entity kind in flight
// across service replicas.
package synclock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/simple-clinic/clinic-sync/pkg/common/logger"
)

var ErrLockHeld = errors.New("merge already in progress")

// Locker acquires a named lock and hands back its release function.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisLocker struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisLocker(client redis.UniversalClient, prefix string) *RedisLocker {
	if prefix == "" {
		prefix = "clinic-sync:lock:"
	}
	return &RedisLocker{client: client, prefix: prefix}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	fullKey := l.prefix + key
	token := uuid.New().String()

	ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquiring lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrLockHeld
	}

	release := func() {
		// The caller's context may already be done; release on a fresh one.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{fullKey}, token).Err(); err != nil {
			logger.Log.WithError(err).WithField("lock", fullKey).Warn("failed to release merge lock")
		}
	}
	return release, nil
}

// NoopLocker is used when no redis is configured.
type NoopLocker struct{}

func (NoopLocker) Acquire(context.Context, string, time.Duration) (func(), error) {
	return func() {}, nil
}
