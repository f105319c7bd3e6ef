package activation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jack-barr3tt/gbr-tsdb/src/common/types"
	"github.com/redis/go-redis/v9"
)

// Cache is the external "was this train activated" side channel other
// services check without loading the daily schedule.
type Cache interface {
	Record(ctx context.Context, uid string, runDate time.Time, trainID string) error
	Lookup(ctx context.Context, uid string, runDate time.Time) (string, bool, error)
}

type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func Key(uid string, runDate time.Time) string {
	return fmt.Sprintf("ACT:%s:%s", uid, types.RunDateKey(runDate))
}

func (c *RedisCache) Record(ctx context.Context, uid string, runDate time.Time, trainID string) error {
	return c.rdb.Set(ctx, Key(uid, runDate), trainID, c.ttl).Err()
}

func (c *RedisCache) Lookup(ctx context.Context, uid string, runDate time.Time) (string, bool, error) {
	trainID, err := c.rdb.Get(ctx, Key(uid, runDate)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return trainID, true, nil
}

type NoopCache struct{}

func (NoopCache) Record(context.Context, string, time.Time, string) error { return nil }

func (NoopCache) Lookup(context.Context, string, time.Time) (string, bool, error) {
	return "", false, nil
}
