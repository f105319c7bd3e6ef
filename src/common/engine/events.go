package engine

import (
	"context"
	"errors"
	"time"

	"github.com/jack-barr3tt/gbr-tsdb/src/common/types"
)

func (e *Engine) Cancel(ctx context.Context, trainID string, ts time.Time, reason string) types.Result {
	_, err := e.mutate(ctx, trainID, func(ds *types.DailySchedule) error {
		ds.Cancelled = true
		ds.CancellationReason = reason
		ds.CancellationTimestamp = &ts
		return nil
	})
	if errors.Is(err, ErrNotActivated) {
		return types.Failure(err, "Cancellation message for unactivated train %s", trainID)
	}
	if err != nil {
		return types.Failure(err, "Failed to cancel train %s: %v", trainID, err)
	}

	e.logger.Infow("Cancelled train", "train_id", trainID, "reason", reason)
	return types.Ok("Cancelled train %s due to reason %s", trainID, reason)
}

func (e *Engine) Reinstate(ctx context.Context, trainID string) types.Result {
	_, err := e.mutate(ctx, trainID, func(ds *types.DailySchedule) error {
		ds.Cancelled = false
		ds.CancellationReason = ""
		ds.CancellationTimestamp = nil
		return nil
	})
	if errors.Is(err, ErrNotActivated) {
		return types.Failure(err, "Reinstatement message for unactivated train %s", trainID)
	}
	if err != nil {
		return types.Failure(err, "Failed to reinstate train %s: %v", trainID, err)
	}

	e.logger.Infow("Reinstated train", "train_id", trainID)
	return types.Ok("Reinstated train %s", trainID)
}

// ChangeOfOrigin cancels every location before the first one in the new
// origin's area. The journey itself stays uncancelled.
func (e *Engine) ChangeOfOrigin(ctx context.Context, trainID, stanox, reason string) types.Result {
	if _, ok := e.index.Get(trainID); !ok {
		return types.Failure(ErrNotActivated, "COO message for unactivated train %s", trainID)
	}

	tiplocs, err := e.tiplocs.TiplocsByStanox(ctx, stanox)
	if err != nil {
		return types.Failure(err, "COO message for train %s: failed to look up STANOX %s: %v", trainID, stanox, err)
	}
	if len(tiplocs) == 0 {
		return types.Failure(ErrUnknownLocation, "COO message for train %s specifies unknown STANOX %s", trainID, stanox)
	}

	inArea := make(map[string]bool, len(tiplocs))
	for _, t := range tiplocs {
		inArea[t.TiplocCode] = true
	}

	var origin string
	_, err = e.mutate(ctx, trainID, func(ds *types.DailySchedule) error {
		newOrigin := -1
		for i := range ds.Locations {
			if inArea[ds.Locations[i].TiplocCode] {
				newOrigin = i
				break
			}
		}
		if newOrigin < 0 {
			return ErrLocationNotInSchedule
		}
		origin = ds.Locations[newOrigin].TiplocCode
		for i := 0; i < newOrigin; i++ {
			ds.Locations[i].Cancelled = true
			ds.Locations[i].CancellationReason = reason
		}
		return nil
	})

	switch {
	case errors.Is(err, ErrNotActivated):
		return types.Failure(err, "COO message for unactivated train %s", trainID)
	case errors.Is(err, ErrLocationNotInSchedule):
		return types.Failure(err, "COO message for train %s changes origin to %s which is not in the schedule", trainID, tiplocs[0].Name())
	case err != nil:
		return types.Failure(err, "Failed to change origin of train %s: %v", trainID, err)
	}

	name := e.locationName(ctx, origin)
	e.logger.Infow("Changed origin", "train_id", trainID, "origin", origin, "reason", reason)
	return types.Ok("Changed origin of train %s to %s for reason %s", trainID, name, reason)
}
