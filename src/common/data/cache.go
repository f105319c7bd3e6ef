package data

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/types"
	"github.com/redis/go-redis/v9"
)

// TiplocLookup is the read side of the reference data the engine needs on
// every movement.
type TiplocLookup interface {
	TiplocByCode(ctx context.Context, code string) (*types.Tiploc, error)
	TiplocsByStanox(ctx context.Context, stanox string) ([]types.Tiploc, error)
}

const notFoundMarker = "N/A"

// CachedTiplocs reads TIPLOC reference data through a Redis cache. Misses are
// cached too so unknown codes do not hit the database on every message.
type CachedTiplocs struct {
	next  TiplocLookup
	cache *cache.Cache[string]
}

func NewCachedTiplocs(next TiplocLookup, rdb *redis.Client, ttl time.Duration) *CachedTiplocs {
	redisStore := redisstore.NewRedis(rdb, store.WithExpiration(ttl))
	return &CachedTiplocs{
		next:  next,
		cache: cache.New[string](redisStore),
	}
}

func (c *CachedTiplocs) TiplocByCode(ctx context.Context, code string) (*types.Tiploc, error) {
	key := "TIPLOC:" + code
	if v, err := c.cache.Get(ctx, key); err == nil {
		if v == notFoundMarker {
			return nil, ErrNotFound
		}
		var t types.Tiploc
		if err := json.Unmarshal([]byte(v), &t); err == nil {
			return &t, nil
		}
	}

	t, err := c.next.TiplocByCode(ctx, code)
	if errors.Is(err, ErrNotFound) {
		_ = c.cache.Set(ctx, key, notFoundMarker)
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(t); err == nil {
		_ = c.cache.Set(ctx, key, string(b))
	}
	return t, nil
}

func (c *CachedTiplocs) TiplocsByStanox(ctx context.Context, stanox string) ([]types.Tiploc, error) {
	key := "STANOX:" + stanox
	if v, err := c.cache.Get(ctx, key); err == nil {
		var tiplocs []types.Tiploc
		if err := json.Unmarshal([]byte(v), &tiplocs); err == nil {
			return tiplocs, nil
		}
	}

	tiplocs, err := c.next.TiplocsByStanox(ctx, stanox)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(tiplocs); err == nil {
		_ = c.cache.Set(ctx, key, string(b))
	}
	return tiplocs, nil
}
