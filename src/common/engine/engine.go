// Package engine applies train activity and train describer messages to the
// daily schedules of activated trains.
package engine

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/jack-barr3tt/gbr-tsdb/src/common/activation"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/data"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/decode"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/resolver"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/types"
	"go.uber.org/zap"
)

var (
	ErrUnknownSchedule       = errors.New("no schedule applies")
	ErrAlreadyActivated      = errors.New("schedule already activated")
	ErrNotActivated          = errors.New("train not activated")
	ErrUnknownLocation       = errors.New("unknown location")
	ErrLocationNotInSchedule = errors.New("location not in schedule")
	ErrUnsupportedReport     = errors.New("report type not supported")
)

type Engine struct {
	store     data.Store
	tiplocs   data.TiplocLookup
	operators data.OperatorLookup
	resolver  *resolver.Resolver
	index     *activation.Index
	cache     activation.Cache
	berths    *BerthMap
	locks     *journeyLocks
	logger    *zap.SugaredLogger
}

type Option func(*Engine)

// WithTiplocs replaces the store as the source of TIPLOC reference data,
// typically with a cached lookup.
func WithTiplocs(t data.TiplocLookup) Option {
	return func(e *Engine) { e.tiplocs = t }
}

// WithOperators names operators in activation reports.
func WithOperators(o data.OperatorLookup) Option {
	return func(e *Engine) { e.operators = o }
}

func WithCache(c activation.Cache) Option {
	return func(e *Engine) { e.cache = c }
}

func WithBerthMap(b *BerthMap) Option {
	return func(e *Engine) { e.berths = b }
}

func New(store data.Store, logger *zap.SugaredLogger, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		tiplocs:  store,
		resolver: resolver.New(store),
		index:    activation.NewIndex(),
		cache:    activation.NoopCache{},
		locks:    newJourneyLocks(64),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// journeyLocks serialises updates to one journey. Train IDs are striped
// over a fixed set of mutexes so the set never grows.
type journeyLocks struct {
	stripes []sync.Mutex
}

func newJourneyLocks(n int) *journeyLocks {
	return &journeyLocks{stripes: make([]sync.Mutex, n)}
}

func (l *journeyLocks) lock(trainID string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(trainID))
	m := &l.stripes[h.Sum32()%uint32(len(l.stripes))]
	m.Lock()
	return m.Unlock
}

// Journey returns a copy of the daily schedule activated as trainID.
func (e *Engine) Journey(trainID string) (*types.DailySchedule, bool) {
	ds, ok := e.index.Get(trainID)
	if !ok {
		return nil, false
	}
	return ds.Clone(), true
}

// mutate applies fn to a copy of the journey and only publishes the copy
// once it has been stored, so a failed update leaves no trace.
func (e *Engine) mutate(ctx context.Context, trainID string, fn func(ds *types.DailySchedule) error) (*types.DailySchedule, error) {
	unlock := e.locks.lock(trainID)
	defer unlock()

	current, ok := e.index.Get(trainID)
	if !ok {
		return nil, ErrNotActivated
	}
	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	if err := e.store.UpdateDailySchedule(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to save train %s: %w", trainID, err)
	}
	e.index.Put(trainID, next)
	return next, nil
}

// ProcessTrust decodes and applies one positional train activity record.
func (e *Engine) ProcessTrust(ctx context.Context, record string) types.Result {
	f, err := decode.TrustRaw(record)
	if err != nil {
		return types.Failure(err, "Failed to decode TRUST message: %v", err)
	}
	return e.ProcessTrustFields(ctx, f)
}

// ProcessTrustJSON applies one message of the JSON train movements feed.
func (e *Engine) ProcessTrustJSON(ctx context.Context, msg types.TrustMessage) types.Result {
	f, err := decode.TrustJSON(msg)
	if err != nil {
		return types.Failure(err, "Failed to decode TRUST message: %v", err)
	}
	return e.ProcessTrustFields(ctx, f)
}

func (e *Engine) ProcessTrustFields(ctx context.Context, f decode.Fields) types.Result {
	switch msgType := f.MsgType(); msgType {
	case types.TrainActivation:
		return e.Activate(ctx, f.AsActivation())
	case types.TrainCancellation:
		c := f.AsCancellation()
		return e.Cancel(ctx, c.TrainID, c.Timestamp, c.ReasonCode)
	case types.TrainMovement:
		return e.Movement(ctx, f.AsMovement())
	case types.TrainReinstatement:
		return e.Reinstate(ctx, f.AsReinstatement().TrainID)
	case types.ChangeOfOrigin:
		coo := f.AsChangeOfOrigin()
		return e.ChangeOfOrigin(ctx, coo.TrainID, coo.Stanox, coo.ReasonCode)
	case types.UnidentifiedTrain, types.ChangeOfIdentity, types.ChangeOfLocation:
		return types.Warning(ErrUnsupportedReport, "%s report not processed, pending support", msgType.Name())
	default:
		err := &decode.DecodeError{Family: "TRUST", Discriminant: string(msgType)}
		return types.Failure(err, "Failed to decode TRUST message: %v", err)
	}
}

// Warm rebuilds the activation index from the daily schedules stored for
// date and the day before, which covers trains running over midnight.
func (e *Engine) Warm(ctx context.Context, date time.Time) (int, error) {
	date = types.Date(date)
	count := 0
	for _, d := range []time.Time{date.AddDate(0, 0, -1), date} {
		schedules, err := e.store.DailySchedulesOn(ctx, d)
		if err != nil {
			return count, fmt.Errorf("failed to load daily schedules for %s: %w", types.RunDateKey(d), err)
		}
		for i := range schedules {
			if schedules[i].TrainIdentityUnique == "" {
				continue
			}
			e.index.Put(schedules[i].TrainIdentityUnique, &schedules[i])
			count++
		}
	}
	return count, nil
}

// locationName is the human readable name of a TIPLOC, or the code itself.
func (e *Engine) locationName(ctx context.Context, tiploc string) string {
	t, err := e.tiplocs.TiplocByCode(ctx, tiploc)
	if err != nil {
		return tiploc
	}
	return t.Name()
}
