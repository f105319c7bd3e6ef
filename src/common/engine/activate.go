package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/jack-barr3tt/gbr-tsdb/src/common/data"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/types"
)

// reasonPlannedCancellation is applied to trains activated against a
// cancellation schedule.
const reasonPlannedCancellation = "PD"

// Activate creates the daily schedule for a train on the date its origin
// departure falls on, and registers it under the message's train ID.
func (e *Engine) Activate(ctx context.Context, act types.TrustActivation) types.Result {
	reporter := fmt.Sprintf("%s %s", act.SourceSystemID, act.OriginalDataSource)
	runDate := types.Date(act.OriginDepartureTimestamp.In(types.London))

	unlock := e.locks.lock(act.TrainID)
	defer unlock()

	bs, err := e.resolver.Resolve(ctx, act.TrainUID, runDate)
	if err != nil {
		return types.Failure(err, "%s failed to activate CIF schedule %s: %v", reporter, act.TrainUID, err)
	}
	if bs == nil {
		return types.Failure(ErrUnknownSchedule, "%s failed to activate CIF schedule %s", reporter, act.TrainUID)
	}

	ds := types.NewDailySchedule(bs, runDate, act.TrainID)
	if bs.STPIndicator == types.ShortTermCancellation {
		ts := act.QueueTimestamp
		ds.Cancelled = true
		ds.CancellationReason = reasonPlannedCancellation
		ds.CancellationTimestamp = &ts
	}

	if err := e.store.InsertDailySchedule(ctx, ds); err != nil {
		if errors.Is(err, data.ErrConflict) {
			return types.Failure(ErrAlreadyActivated, "%s failed to activate %s schedule %s: already activated for %s",
				reporter, bs.Source, bs.TrainUID, types.RunDateKey(runDate))
		}
		return types.Failure(err, "%s failed to activate %s schedule %s: %v", reporter, bs.Source, bs.TrainUID, err)
	}
	e.index.Put(act.TrainID, ds)

	if err := e.cache.Record(ctx, bs.TrainUID, runDate, act.TrainID); err != nil {
		e.logger.Warnw("Failed to record activation in cache", "train_uid", bs.TrainUID, "train_id", act.TrainID, "error", err)
	}

	e.logger.Infow("Activated train",
		"train_uid", bs.TrainUID,
		"train_id", act.TrainID,
		"runs_on", types.RunDateKey(runDate),
		"stp_indicator", bs.STPIndicator,
	)

	return types.Ok("%s successfully activated %s %s schedule %s for %s, departing %s at %s as %s (%s)",
		reporter, bs.Source, bs.STPIndicator.Label(), bs.TrainUID, e.operatorName(ctx, bs.ATOCCode),
		e.originCode(ctx, bs, act.OriginStanox),
		act.OriginDepartureTimestamp.In(types.London).Format("2006-01-02 15:04:05"),
		bs.TrainIdentity, act.TrainID,
	)
}

func (e *Engine) operatorName(ctx context.Context, code string) string {
	if code == "" {
		return "an unknown TOC"
	}
	if e.operators != nil {
		if op, err := e.operators.OperatorByCode(ctx, code); err == nil {
			return op.Name
		}
	}
	return "TOC " + code
}

// originCode is the schedule's first TIPLOC. Cancellation schedules carry
// no locations, so the activation's origin area is used instead.
func (e *Engine) originCode(ctx context.Context, bs *types.BasicSchedule, stanox string) string {
	if origin := bs.Origin(); origin != nil {
		return origin.TiplocCode
	}
	if tiplocs, err := e.tiplocs.TiplocsByStanox(ctx, stanox); err == nil && len(tiplocs) > 0 {
		return tiplocs[0].TiplocCode
	}
	return stanox
}
