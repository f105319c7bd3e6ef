// Package activation maps the feed's per-journey train IDs to the daily
// schedules they were activated as.
package activation

import (
	"sync"

	"github.com/jack-barr3tt/gbr-tsdb/src/common/types"
)

// Index is the in-process journey lookup. Entries are never removed; a
// train ID reused on a later date simply replaces the stale entry.
type Index struct {
	mu       sync.RWMutex
	journeys map[string]*types.DailySchedule
}

func NewIndex() *Index {
	return &Index{journeys: make(map[string]*types.DailySchedule)}
}

func (i *Index) Put(trainID string, ds *types.DailySchedule) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.journeys[trainID] = ds
}

func (i *Index) Get(trainID string) (*types.DailySchedule, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	ds, ok := i.journeys[trainID]
	return ds, ok
}

func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.journeys)
}
