package data

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jack-barr3tt/gbr-tsdb/src/common/types"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// Store is the schedule store the realtime core reads timetables from and
// writes daily schedules to.
type Store interface {
	SchedulesByUID(ctx context.Context, uid string) ([]types.BasicSchedule, error)
	SchedulesValidOn(ctx context.Context, date time.Time) ([]types.BasicSchedule, error)
	InsertSchedule(ctx context.Context, bs *types.BasicSchedule) error
	DeleteSchedules(ctx context.Context, uid string, from, to time.Time, source types.ScheduleSource) (int, error)
	LatestScheduleDate(ctx context.Context) (time.Time, error)

	TiplocByCode(ctx context.Context, code string) (*types.Tiploc, error)
	TiplocsByStanox(ctx context.Context, stanox string) ([]types.Tiploc, error)
	InsertTiploc(ctx context.Context, t types.Tiploc) error

	InsertDailySchedule(ctx context.Context, ds *types.DailySchedule) error
	UpdateDailySchedule(ctx context.Context, ds *types.DailySchedule) error
	DailyScheduleByUIDAndDate(ctx context.Context, uid string, date time.Time) (*types.DailySchedule, error)
	DailySchedulesOn(ctx context.Context, date time.Time) ([]types.DailySchedule, error)
}

//go:embed schema.sql
var schema string

type DataClient struct {
	pg     *pgxpool.Pool
	logger *zap.SugaredLogger
}

func NewDataClient(db *pgxpool.Pool, logger *zap.SugaredLogger) *DataClient {
	return &DataClient{
		pg:     db,
		logger: logger,
	}
}

// Migrate creates any missing tables. Every statement is idempotent.
func (dc *DataClient) Migrate(ctx context.Context) error {
	if _, err := dc.pg.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
