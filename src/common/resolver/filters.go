// Package resolver picks the timetable variant that applies to a train on a
// date, and enumerates the trains calling in a time window.
package resolver

import (
	"time"

	"github.com/jack-barr3tt/gbr-tsdb/src/common/types"
)

// Filter narrows a set of candidate schedules. Filters never mutate their
// input slice's elements.
type Filter func([]types.BasicSchedule) []types.BasicSchedule

// Pipeline applies filters left to right.
func Pipeline(filters ...Filter) Filter {
	return func(in []types.BasicSchedule) []types.BasicSchedule {
		for _, f := range filters {
			if len(in) == 0 {
				return in
			}
			in = f(in)
		}
		return in
	}
}

func keep(in []types.BasicSchedule, pred func(*types.BasicSchedule) bool) []types.BasicSchedule {
	out := make([]types.BasicSchedule, 0, len(in))
	for i := range in {
		if pred(&in[i]) {
			out = append(out, in[i])
		}
	}
	return out
}

// ByDateRange keeps schedules whose runs_from..runs_to includes date.
func ByDateRange(date time.Time) Filter {
	date = types.Date(date)
	return func(in []types.BasicSchedule) []types.BasicSchedule {
		return keep(in, func(bs *types.BasicSchedule) bool {
			return !date.Before(bs.RunsFrom) && !date.After(bs.RunsTo)
		})
	}
}

// ByUIDAndDateRange keeps one train's schedules whose range includes date.
func ByUIDAndDateRange(uid string, date time.Time) Filter {
	inRange := ByDateRange(date)
	return func(in []types.BasicSchedule) []types.BasicSchedule {
		return inRange(keep(in, func(bs *types.BasicSchedule) bool {
			return bs.TrainUID == uid
		}))
	}
}

func ByDayOfWeek(date time.Time) Filter {
	weekday := types.Date(date).Weekday()
	return func(in []types.BasicSchedule) []types.BasicSchedule {
		return keep(in, func(bs *types.BasicSchedule) bool {
			return bs.DaysRun.RunsOn(weekday)
		})
	}
}

// ByPrecedence keeps, per train UID, only the variant with the highest
// STP precedence. Input order is preserved among the survivors.
func ByPrecedence() Filter {
	return func(in []types.BasicSchedule) []types.BasicSchedule {
		best := make(map[string]int)
		for _, bs := range in {
			if p := bs.STPIndicator.Precedence(); p > best[bs.TrainUID] {
				best[bs.TrainUID] = p
			}
		}
		seen := make(map[string]bool)
		return keep(in, func(bs *types.BasicSchedule) bool {
			if seen[bs.TrainUID] || bs.STPIndicator.Precedence() != best[bs.TrainUID] {
				return false
			}
			seen[bs.TrainUID] = true
			return true
		})
	}
}

// ExcludeCancelled drops schedules that resolved to a cancellation. Used
// only where a listing of running trains is wanted.
func ExcludeCancelled() Filter {
	return func(in []types.BasicSchedule) []types.BasicSchedule {
		return keep(in, func(bs *types.BasicSchedule) bool {
			return bs.STPIndicator != types.ShortTermCancellation
		})
	}
}

func OnlyPassenger() Filter {
	return func(in []types.BasicSchedule) []types.BasicSchedule {
		return keep(in, func(bs *types.BasicSchedule) bool {
			return bs.IsPassenger()
		})
	}
}
