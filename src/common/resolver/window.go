package resolver

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/types"
)

var ErrInvalidWindow = errors.New("invalid time window")

type Mode int

const (
	// CallsBetween matches scheduled arrivals and departures.
	CallsBetween Mode = iota
	// PassesBetween also matches passing times.
	PassesBetween
)

func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "calls":
		return CallsBetween, nil
	case "passes":
		return PassesBetween, nil
	}
	return 0, errors.New("mode must be calls or passes")
}

type WindowQuery struct {
	From time.Time
	To   time.Time
	Mode Mode
	// Tiplocs restricts which locations may fall in the window. Empty
	// means any location.
	Tiplocs []string
	// RunsFrom and RunsTo require a call at one of the given TIPLOCs
	// before, or after, the matched location.
	RunsFrom      []string
	RunsTo        []string
	OnlyPassenger bool
}

// DateGroup holds the schedules found for one run date, ordered by the
// time of their matched call.
type DateGroup struct {
	RunsOn    time.Time
	Schedules []types.BasicSchedule
}

const endOfDay = 24*3600 - 1

// subset is one of the date/time-range/next-day combinations a window is
// split into.
type subset struct {
	runsOn  time.Time
	from    int
	to      int
	nextDay bool
}

func clockSeconds(t time.Time) int {
	return t.Hour()*3600 + t.Minute()*60 + t.Second()
}

// subsets splits a window into the queries needed to cover it. A window
// inside one day also picks up yesterday's trains calling after midnight. A
// window spanning midnight covers the start day up to midnight, the start
// day's trains after midnight, and the end day's own early calls.
func subsets(from, to time.Time) ([]subset, error) {
	from, to = from.In(types.London), to.In(types.London)
	if to.Before(from) {
		return nil, ErrInvalidWindow
	}
	fromDay, toDay := types.Date(from), types.Date(to)

	switch {
	case fromDay.Equal(toDay):
		return []subset{
			{runsOn: fromDay, from: clockSeconds(from), to: clockSeconds(to)},
			{runsOn: fromDay.AddDate(0, 0, -1), from: clockSeconds(from), to: clockSeconds(to), nextDay: true},
		}, nil
	case fromDay.AddDate(0, 0, 1).Equal(toDay):
		return []subset{
			{runsOn: fromDay, from: clockSeconds(from), to: endOfDay},
			{runsOn: fromDay, from: 0, to: clockSeconds(to), nextDay: true},
			{runsOn: toDay, from: 0, to: clockSeconds(to)},
		}, nil
	}
	return nil, ErrInvalidWindow
}

type timing struct {
	time    types.NominalTime
	nextDay bool
}

func timings(l *types.Location, mode Mode) []timing {
	out := []timing{
		{l.Arrival, l.NextDayArrival},
		{l.Departure, l.NextDayDeparture},
	}
	if mode == PassesBetween {
		out = append(out, timing{l.Pass, l.NextDayPass})
	}
	return out
}

func toSet(codes []string) map[string]bool {
	if len(codes) == 0 {
		return nil
	}
	set := make(map[string]bool, len(codes))
	for _, c := range codes {
		set[c] = true
	}
	return set
}

type matcher struct {
	mode     Mode
	tiplocs  map[string]bool
	runsFrom map[string]bool
	runsTo   map[string]bool
}

func (m *matcher) callsAt(set map[string]bool, locs []types.Location) bool {
	for i := range locs {
		if set[locs[i].TiplocCode] {
			return true
		}
	}
	return false
}

// match returns the seconds of the earliest call of bs inside sub, and
// whether there was one.
func (m *matcher) match(bs *types.BasicSchedule, sub subset) (int, bool) {
	best, found := 0, false
	for i := range bs.Locations {
		loc := &bs.Locations[i]
		if m.tiplocs != nil && !m.tiplocs[loc.TiplocCode] {
			continue
		}
		if m.runsFrom != nil && !m.callsAt(m.runsFrom, bs.Locations[:i]) {
			continue
		}
		if m.runsTo != nil && !m.callsAt(m.runsTo, bs.Locations[i+1:]) {
			continue
		}
		for _, tm := range timings(loc, m.mode) {
			if !tm.time.IsSet() || tm.nextDay != sub.nextDay {
				continue
			}
			secs, ok := tm.time.Seconds()
			if !ok || secs < sub.from || secs > sub.to {
				continue
			}
			if tm.nextDay {
				secs += 24 * 3600
			}
			if !found || secs < best {
				best, found = secs, true
			}
		}
	}
	return best, found
}

// Window enumerates the schedules calling within q's time window, grouped by
// the date they run on. A schedule appears at most once per date.
func (r *Resolver) Window(ctx context.Context, q WindowQuery) ([]DateGroup, error) {
	subs, err := subsets(q.From, q.To)
	if err != nil {
		return nil, err
	}

	m := &matcher{
		mode:     q.Mode,
		tiplocs:  toSet(q.Tiplocs),
		runsFrom: toSet(q.RunsFrom),
		runsTo:   toSet(q.RunsTo),
	}
	var extra []Filter
	if q.OnlyPassenger {
		extra = append(extra, OnlyPassenger())
	}

	type hit struct {
		schedule types.BasicSchedule
		secs     int
	}
	byDate := make(map[time.Time]map[uuid.UUID]hit)
	running := make(map[time.Time][]types.BasicSchedule)

	for _, sub := range subs {
		schedules, ok := running[sub.runsOn]
		if !ok {
			if schedules, err = r.RunsOn(ctx, sub.runsOn, extra...); err != nil {
				return nil, err
			}
			running[sub.runsOn] = schedules
		}

		for i := range schedules {
			secs, ok := m.match(&schedules[i], sub)
			if !ok {
				continue
			}
			hits := byDate[sub.runsOn]
			if hits == nil {
				hits = make(map[uuid.UUID]hit)
				byDate[sub.runsOn] = hits
			}
			if prev, seen := hits[schedules[i].ID]; seen && prev.secs <= secs {
				continue
			}
			hits[schedules[i].ID] = hit{schedule: schedules[i], secs: secs}
		}
	}

	groups := make([]DateGroup, 0, len(byDate))
	for date, hits := range byDate {
		ordered := make([]hit, 0, len(hits))
		for _, h := range hits {
			ordered = append(ordered, h)
		}
		sort.Slice(ordered, func(i, j int) bool {
			if ordered[i].secs != ordered[j].secs {
				return ordered[i].secs < ordered[j].secs
			}
			return ordered[i].schedule.TrainUID < ordered[j].schedule.TrainUID
		})

		group := DateGroup{RunsOn: date, Schedules: make([]types.BasicSchedule, len(ordered))}
		for i, h := range ordered {
			group.Schedules[i] = h.schedule
		}
		groups = append(groups, group)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].RunsOn.Before(groups[j].RunsOn) })
	return groups, nil
}
