package telephony

import (
	"context"
	"time"

	"ivr-service/pkg/utils"

	"github.com/redis/go-redis/v9"
)

const bridgeCapKeyPrefix = "ivr:bridge:"

// RedisBridgeLimiter shares the bridge cap across every API replica.
type RedisBridgeLimiter struct {
	rdb   redis.Scripter
	limit int
	// ttl bounds a slot whose status callback never arrives.
	ttl time.Duration
}

func NewRedisBridgeLimiter(rdb redis.Scripter, limit int, ttl time.Duration) *RedisBridgeLimiter {
	if limit <= 0 {
		limit = 1
	}
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &RedisBridgeLimiter{rdb: rdb, limit: limit, ttl: ttl}
}

func (l *RedisBridgeLimiter) Acquire(ctx context.Context, destination string) (bool, error) {
	return utils.AcquireConcurrencyCap(ctx, l.rdb, bridgeCapKeyPrefix+destination, l.limit, l.ttl)
}

func (l *RedisBridgeLimiter) Release(ctx context.Context, destination string) error {
	return utils.ReleaseConcurrencyCap(ctx, l.rdb, bridgeCapKeyPrefix+destination)
}
