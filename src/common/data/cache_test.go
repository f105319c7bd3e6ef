package data

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/types"
	"github.com/redis/go-redis/v9"
)

type countingLookup struct {
	TiplocLookup
	byCode   int
	byStanox int
}

func (c *countingLookup) TiplocByCode(ctx context.Context, code string) (*types.Tiploc, error) {
	c.byCode++
	return c.TiplocLookup.TiplocByCode(ctx, code)
}

func (c *countingLookup) TiplocsByStanox(ctx context.Context, stanox string) ([]types.Tiploc, error) {
	c.byStanox++
	return c.TiplocLookup.TiplocsByStanox(ctx, stanox)
}

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestCachedTiplocs(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_ = store.InsertTiploc(ctx, types.Tiploc{TiplocCode: "LIVST", Stanox: "52741", Description: "LONDON LIVERPOOL STREET"})
	_ = store.InsertTiploc(ctx, types.Tiploc{TiplocCode: "LIVSTLL", Stanox: "52741"})

	counting := &countingLookup{TiplocLookup: store}
	cached := NewCachedTiplocs(counting, newTestRedis(t), time.Hour)

	for i := 0; i < 3; i++ {
		tl, err := cached.TiplocByCode(ctx, "LIVST")
		if err != nil || tl.Description != "LONDON LIVERPOOL STREET" {
			t.Fatalf("TiplocByCode = %+v, %v", tl, err)
		}
		tiplocs, err := cached.TiplocsByStanox(ctx, "52741")
		if err != nil || len(tiplocs) != 2 {
			t.Fatalf("TiplocsByStanox = %+v, %v", tiplocs, err)
		}
	}
	if counting.byCode != 1 || counting.byStanox != 1 {
		t.Errorf("expected one backing lookup each, got %d and %d", counting.byCode, counting.byStanox)
	}

	for i := 0; i < 2; i++ {
		if _, err := cached.TiplocByCode(ctx, "NOWHERE"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	}
	if counting.byCode != 2 {
		t.Errorf("misses should be cached, backing store saw %d lookups", counting.byCode)
	}
}
