package engine

import (
	"context"
	"errors"

	"github.com/jack-barr3tt/gbr-tsdb/src/common/types"
)

// visitedFor reports whether a location already carries an actual time for
// the event kind. Passing points only ever record a pass.
func visitedFor(l *types.DailyScheduleLocation, event types.EventType) bool {
	if l.IsPassingPoint() {
		return l.ActualPass != nil
	}
	switch event {
	case types.EventArrival:
		return l.ActualArrival != nil
	case types.EventDeparture:
		return l.ActualDeparture != nil
	}
	return l.ActualPass != nil
}

// selectLocation picks the location a movement in an area applies to: the
// first location by sequence whose TIPLOC is in the area and which has not
// been visited for the event. Without one it defaults to the location after
// the last touched one.
//
// An area may hold several TIPLOCs on the route. This is a heuristic: two
// unvisited candidates are always resolved in sequence order, however far
// either is from the last touched location.
func selectLocation(ds *types.DailySchedule, inArea map[string]bool, event types.EventType) int {
	for i := range ds.Locations {
		if inArea[ds.Locations[i].TiplocCode] && !visitedFor(&ds.Locations[i], event) {
			return i
		}
	}
	if next := ds.LastLocation + 1; next < len(ds.Locations) {
		return next
	}
	return -1
}

func applyMovement(ds *types.DailySchedule, idx int, mv types.TrustMovement) {
	loc := &ds.Locations[idx]
	ts := mv.ActualTimestamp

	switch {
	case loc.IsPassingPoint() || mv.EventType == types.EventPass:
		loc.ActualPass = &ts
	case mv.EventType == types.EventArrival:
		loc.ActualArrival = &ts
		setIfPresent(&loc.ActualPlatform, mv.Platform)
		setIfPresent(&loc.ActualLine, mv.Line)
	case mv.EventType == types.EventDeparture:
		loc.ActualDeparture = &ts
		setIfPresent(&loc.ActualPlatform, mv.Platform)
		setIfPresent(&loc.ActualLine, mv.Line)
		if idx == 0 {
			ds.DepartedOrigin = true
		}
	}

	loc.EventSource = mv.EventSource
	if loc.EventSource == "" {
		loc.EventSource = types.EventSourceAutomatic
	}

	if idx > ds.LastLocation {
		ds.LastLocation = idx
	}
	if mv.Terminated {
		ds.Terminated = true
	}
}

func setIfPresent(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Movement records an actual arrival, departure or pass.
func (e *Engine) Movement(ctx context.Context, mv types.TrustMovement) types.Result {
	if _, ok := e.index.Get(mv.TrainID); !ok {
		return types.Failure(ErrNotActivated, "Movement message for unactivated train %s", mv.TrainID)
	}

	tiplocs, err := e.tiplocs.TiplocsByStanox(ctx, mv.Stanox)
	if err != nil {
		return types.Failure(err, "Movement message for train %s: failed to look up STANOX %s: %v", mv.TrainID, mv.Stanox, err)
	}
	inArea := make(map[string]bool, len(tiplocs))
	for _, t := range tiplocs {
		inArea[t.TiplocCode] = true
	}

	var tiploc string
	_, err = e.mutate(ctx, mv.TrainID, func(ds *types.DailySchedule) error {
		idx := selectLocation(ds, inArea, mv.EventType)
		if idx < 0 {
			return ErrLocationNotInSchedule
		}
		applyMovement(ds, idx, mv)
		tiploc = ds.Locations[idx].TiplocCode
		return nil
	})

	switch {
	case errors.Is(err, ErrNotActivated):
		return types.Failure(err, "Movement message for unactivated train %s", mv.TrainID)
	case errors.Is(err, ErrLocationNotInSchedule):
		return types.Failure(err, "Movement message for train %s at STANOX %s does not match any remaining location", mv.TrainID, mv.Stanox)
	case err != nil:
		return types.Failure(err, "Failed to process movement for train %s: %v", mv.TrainID, err)
	}

	e.logger.Debugw("Processed movement",
		"train_id", mv.TrainID,
		"tiploc", tiploc,
		"event_type", mv.EventType,
		"event_source", mv.EventSource,
		"terminated", mv.Terminated,
	)
	return types.Ok("Processed movement type %s for train %s at %s", mv.EventType, mv.TrainID, e.locationName(ctx, tiploc))
}
