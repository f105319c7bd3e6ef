package data

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/types"
)

// MemoryStore keeps everything in process. It backs tests and the offline
// command line tools.
type MemoryStore struct {
	mu        sync.RWMutex
	schedules []types.BasicSchedule
	tiplocs   map[string]types.Tiploc
	daily     map[string]*types.DailySchedule
	operators map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tiplocs: make(map[string]types.Tiploc),
		daily:   make(map[string]*types.DailySchedule),
	}
}

func dailyKey(uid string, date time.Time) string {
	return uid + ":" + types.RunDateKey(types.Date(date))
}

func copySchedule(bs types.BasicSchedule) types.BasicSchedule {
	bs.Locations = append([]types.Location(nil), bs.Locations...)
	return bs
}

func (m *MemoryStore) SchedulesByUID(_ context.Context, uid string) ([]types.BasicSchedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []types.BasicSchedule
	for _, bs := range m.schedules {
		if bs.TrainUID == uid {
			out = append(out, copySchedule(bs))
		}
	}
	return out, nil
}

func (m *MemoryStore) SchedulesValidOn(_ context.Context, date time.Time) ([]types.BasicSchedule, error) {
	date = types.Date(date)

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []types.BasicSchedule
	for _, bs := range m.schedules {
		if !date.Before(bs.RunsFrom) && !date.After(bs.RunsTo) {
			out = append(out, copySchedule(bs))
		}
	}
	return out, nil
}

func (m *MemoryStore) InsertSchedule(_ context.Context, bs *types.BasicSchedule) error {
	if bs.ID == uuid.Nil {
		bs.ID = uuid.New()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedules = append(m.schedules, copySchedule(*bs))
	return nil
}

func (m *MemoryStore) DeleteSchedules(_ context.Context, uid string, from, to time.Time, source types.ScheduleSource) (int, error) {
	from, to = types.Date(from), types.Date(to)

	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.schedules[:0]
	deleted := 0
	for _, bs := range m.schedules {
		if bs.TrainUID == uid && bs.RunsFrom.Equal(from) && bs.RunsTo.Equal(to) && bs.Source == source {
			deleted++
			continue
		}
		kept = append(kept, bs)
	}
	m.schedules = kept
	return deleted, nil
}

func (m *MemoryStore) LatestScheduleDate(_ context.Context) (time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest time.Time
	for _, bs := range m.schedules {
		if bs.RunsTo.After(latest) {
			latest = bs.RunsTo
		}
	}
	if latest.IsZero() {
		return time.Time{}, ErrNotFound
	}
	return latest, nil
}

func (m *MemoryStore) TiplocByCode(_ context.Context, code string) (*types.Tiploc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tiplocs[code]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (m *MemoryStore) TiplocsByStanox(_ context.Context, stanox string) ([]types.Tiploc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []types.Tiploc
	for _, t := range m.tiplocs {
		if t.Stanox == stanox {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TiplocCode < out[j].TiplocCode })
	return out, nil
}

func (m *MemoryStore) InsertTiploc(_ context.Context, t types.Tiploc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tiplocs[t.TiplocCode] = t
	return nil
}

func (m *MemoryStore) InsertDailySchedule(_ context.Context, ds *types.DailySchedule) error {
	key := dailyKey(ds.TrainUID, ds.RunsOn)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.daily[key]; ok {
		return fmt.Errorf("daily schedule %s: %w", key, ErrConflict)
	}
	m.daily[key] = ds.Clone()
	return nil
}

func (m *MemoryStore) UpdateDailySchedule(_ context.Context, ds *types.DailySchedule) error {
	key := dailyKey(ds.TrainUID, ds.RunsOn)

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.daily[key]
	if !ok || existing.ID != ds.ID {
		return ErrNotFound
	}
	m.daily[key] = ds.Clone()
	return nil
}

func (m *MemoryStore) DailyScheduleByUIDAndDate(_ context.Context, uid string, date time.Time) (*types.DailySchedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ds, ok := m.daily[dailyKey(uid, date)]
	if !ok {
		return nil, ErrNotFound
	}
	return ds.Clone(), nil
}

func (m *MemoryStore) DailySchedulesOn(_ context.Context, date time.Time) ([]types.DailySchedule, error) {
	date = types.Date(date)

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []types.DailySchedule
	for _, ds := range m.daily {
		if ds.RunsOn.Equal(date) {
			out = append(out, *ds.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TrainUID < out[j].TrainUID })
	return out, nil
}
