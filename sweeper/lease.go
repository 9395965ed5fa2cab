package sweeper

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Lease is a Redis-backed single-holder lock. The engine assumes exactly one
// active sweeper; the lease makes that assumption hold when a second replica
// is accidentally deployed.
type Lease struct {
	rdb   *redis.Client
	key   string
	ttl   time.Duration
	token string
}

func NewLease(rdb *redis.Client, key string, ttl time.Duration) *Lease {
	return &Lease{rdb: rdb, key: key, ttl: ttl, token: uuid.NewString()}
}

func (l *Lease) Acquire(ctx context.Context) (bool, error) {
	return l.rdb.SetNX(ctx, l.key, l.token, l.ttl).Result()
}

// Release drops the lease only if we still hold it; an expired lease taken
// over by another holder is left alone.
func (l *Lease) Release(ctx context.Context) {
	val, err := l.rdb.Get(ctx, l.key).Result()
	if err != nil || val != l.token {
		return
	}
	l.rdb.Del(ctx, l.key)
}
