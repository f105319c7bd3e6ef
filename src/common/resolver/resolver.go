package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/jack-barr3tt/gbr-tsdb/src/common/types"
)

// Schedules is the read side of the schedule store the resolver needs.
type Schedules interface {
	SchedulesByUID(ctx context.Context, uid string) ([]types.BasicSchedule, error)
	SchedulesValidOn(ctx context.Context, date time.Time) ([]types.BasicSchedule, error)
}

// Resolver is read only and safe for concurrent use.
type Resolver struct {
	store Schedules
}

func New(store Schedules) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the single schedule that applies to uid on date, or nil
// if none does.
func (r *Resolver) Resolve(ctx context.Context, uid string, date time.Time) (*types.BasicSchedule, error) {
	candidates, err := r.store.SchedulesByUID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedules for %s: %w", uid, err)
	}

	resolved := Pipeline(
		ByUIDAndDateRange(uid, date),
		ByDayOfWeek(date),
		ByPrecedence(),
	)(candidates)
	if len(resolved) == 0 {
		return nil, nil
	}
	return &resolved[0], nil
}

// RunsOn returns the applicable variant of every train that runs on date.
// Trains whose applicable variant is a cancellation are left out.
func (r *Resolver) RunsOn(ctx context.Context, date time.Time, extra ...Filter) ([]types.BasicSchedule, error) {
	candidates, err := r.store.SchedulesValidOn(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedules for %s: %w", types.RunDateKey(date), err)
	}

	filters := append([]Filter{
		ByDateRange(date),
		ByDayOfWeek(date),
		ByPrecedence(),
		ExcludeCancelled(),
	}, extra...)
	return Pipeline(filters...)(candidates), nil
}
