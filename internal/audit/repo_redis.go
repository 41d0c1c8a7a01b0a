package audit

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultStream       = "ivr:alerts"
	defaultStreamMaxLen = 10000
)

// RedisRepo appends alerts to a capped Redis stream that on-call tooling tails.
type RedisRepo struct {
	rdb    *redis.Client
	stream string
	maxLen int64
}

func NewRedisRepo(rdb *redis.Client, stream string) *RedisRepo {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisRepo{rdb: rdb, stream: stream, maxLen: defaultStreamMaxLen}
}

func (r *RedisRepo) Append(ctx context.Context, e Event) error {
	if r.rdb == nil {
		return errors.New("audit: redis client is nil")
	}
	return r.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: r.stream,
		MaxLen: r.maxLen,
		Approx: true,
		Values: streamValues(e),
	}).Err()
}

func streamValues(e Event) map[string]any {
	return map[string]any{
		"id":         e.ID,
		"type":       string(e.Type),
		"call_id":    e.CallID,
		"message":    e.Message,
		"metadata":   e.Metadata,
		"created_at": e.CreatedAt.Format(time.RFC3339Nano),
	}
}
