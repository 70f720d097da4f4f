package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "submission-cooldown:"

// Redis is a Limiter shared by every process pointing at the same Redis.
//
// Each accepted attempt is a key set with NX and a TTL equal to the
// cooldown. SET NX is atomic, so two replicas racing on the same client can
// never both be allowed, and Redis expires the keys on its own.
type Redis struct {
	rdb      redis.Cmdable
	cooldown time.Duration
	now      func() time.Time
}

// NewRedis creates a Redis limiter on an existing client.
func NewRedis(rdb redis.Cmdable, cooldown time.Duration) *Redis {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Redis{rdb: rdb, cooldown: cooldown, now: time.Now}
}

// NewRedisClient parses a redis:// URL into a client.
func NewRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: parsing redis url: %w", err)
	}
	return redis.NewClient(opt), nil
}

// compile-time check that *Redis implements Limiter
var _ Limiter = (*Redis)(nil)

// Allow implements Limiter.
func (r *Redis) Allow(ctx context.Context, clientID string) (bool, error) {
	ok, err := r.rdb.SetNX(ctx, keyPrefix+clientID, r.now().UnixMilli(), r.cooldown).Result()
	if err != nil {
		return false, fmt.Errorf("ratelimit: redis setnx for %s: %w", clientID, err)
	}
	return ok, nil
}
