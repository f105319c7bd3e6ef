package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jack-barr3tt/gbr-tsdb/src/common/types"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// InsertDailySchedule stores a newly activated run. A second run for the same
// train UID and date fails with ErrConflict.
func (dc *DataClient) InsertDailySchedule(ctx context.Context, ds *types.DailySchedule) error {
	doc, err := json.Marshal(ds)
	if err != nil {
		return fmt.Errorf("failed to encode daily schedule %s: %w", ds.TrainUID, err)
	}

	_, err = dc.pg.Exec(ctx, `
		INSERT INTO daily_schedule (id, basic_schedule_id, runs_on, train_uid, train_identity_unique, document)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, ds.ID, ds.BasicScheduleID, ds.RunsOn, ds.TrainUID, ds.TrainIdentityUnique, doc)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("daily schedule %s on %s: %w", ds.TrainUID, types.RunDateKey(ds.RunsOn), ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to insert daily schedule %s: %w", ds.TrainUID, err)
	}
	return nil
}

func (dc *DataClient) UpdateDailySchedule(ctx context.Context, ds *types.DailySchedule) error {
	doc, err := json.Marshal(ds)
	if err != nil {
		return fmt.Errorf("failed to encode daily schedule %s: %w", ds.TrainUID, err)
	}

	tag, err := dc.pg.Exec(ctx, `
		UPDATE daily_schedule SET document = $2, train_identity_unique = $3 WHERE id = $1
	`, ds.ID, doc, ds.TrainIdentityUnique)
	if err != nil {
		return fmt.Errorf("failed to update daily schedule %s: %w", ds.TrainUID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (dc *DataClient) DailyScheduleByUIDAndDate(ctx context.Context, uid string, date time.Time) (*types.DailySchedule, error) {
	var doc []byte
	err := dc.pg.QueryRow(ctx, `
		SELECT document FROM daily_schedule WHERE train_uid = $1 AND runs_on = $2
	`, uid, types.Date(date)).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query daily schedule %s: %w", uid, err)
	}

	var ds types.DailySchedule
	if err := json.Unmarshal(doc, &ds); err != nil {
		return nil, fmt.Errorf("failed to decode daily schedule %s: %w", uid, err)
	}
	return &ds, nil
}

func (dc *DataClient) DailySchedulesOn(ctx context.Context, date time.Time) ([]types.DailySchedule, error) {
	rows, err := dc.pg.Query(ctx, `
		SELECT document FROM daily_schedule WHERE runs_on = $1 ORDER BY train_uid
	`, types.Date(date))
	if err != nil {
		return nil, fmt.Errorf("failed to query daily schedules: %w", err)
	}
	defer rows.Close()

	var out []types.DailySchedule
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var ds types.DailySchedule
		if err := json.Unmarshal(doc, &ds); err != nil {
			return nil, fmt.Errorf("failed to decode daily schedule: %w", err)
		}
		out = append(out, ds)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
