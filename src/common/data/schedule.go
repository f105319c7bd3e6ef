package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/types"
	"github.com/jackc/pgx/v5"
)

const scheduleColumns = `
	s.id, s.train_uid, s.stp_indicator, s.schedule_start_date, s.schedule_end_date,
	s.schedule_days_runs, s.bank_holiday_running, s.train_status, s.train_category,
	s.signalling_id, s.headcode, s.train_service_code, s.power_type, s.timing_load,
	s.speed, s.operating_characteristics, s.train_class, s.atoc_code, s.source`

func (dc *DataClient) SchedulesByUID(ctx context.Context, uid string) ([]types.BasicSchedule, error) {
	return dc.querySchedules(ctx, `SELECT `+scheduleColumns+` FROM schedule s WHERE s.train_uid = $1`, uid)
}

// SchedulesValidOn returns every schedule whose date range covers date. Day
// of week filtering is left to the resolver.
func (dc *DataClient) SchedulesValidOn(ctx context.Context, date time.Time) ([]types.BasicSchedule, error) {
	return dc.querySchedules(ctx, `
		SELECT `+scheduleColumns+` FROM schedule s
		WHERE s.schedule_start_date <= $1 AND s.schedule_end_date >= $1
	`, types.Date(date))
}

func (dc *DataClient) LatestScheduleDate(ctx context.Context) (time.Time, error) {
	var latest sql.NullTime
	if err := dc.pg.QueryRow(ctx, `SELECT MAX(schedule_end_date) FROM schedule`).Scan(&latest); err != nil {
		return time.Time{}, fmt.Errorf("failed to query latest schedule date: %w", err)
	}
	if !latest.Valid {
		return time.Time{}, ErrNotFound
	}
	return types.Date(latest.Time), nil
}

func (dc *DataClient) querySchedules(ctx context.Context, query string, args ...any) ([]types.BasicSchedule, error) {
	rows, err := dc.pg.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute schedule query: %w", err)
	}
	defer rows.Close()

	schedules := []types.BasicSchedule{}
	var ids []uuid.UUID
	for rows.Next() {
		var bs types.BasicSchedule
		var stp, daysRuns, source string
		var bankHoliday, status, category, identity, headcode, serviceCode sql.NullString
		var powerType, timingLoad, speed, operatingChars, trainClass, atocCode sql.NullString

		err := rows.Scan(
			&bs.ID, &bs.TrainUID, &stp, &bs.RunsFrom, &bs.RunsTo,
			&daysRuns, &bankHoliday, &status, &category,
			&identity, &headcode, &serviceCode, &powerType, &timingLoad,
			&speed, &operatingChars, &trainClass, &atocCode, &source,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule row: %w", err)
		}

		bs.STPIndicator = types.STPIndicator(stp)
		bs.Source = types.ScheduleSource(source)
		bs.RunsFrom = types.Date(bs.RunsFrom)
		bs.RunsTo = types.Date(bs.RunsTo)
		if bs.DaysRun, err = types.ParseDaysRun(daysRuns); err != nil {
			return nil, fmt.Errorf("schedule %s: %w", bs.ID, err)
		}
		bs.BankHolidayRunning = bankHoliday.String
		bs.Status = status.String
		bs.Category = category.String
		bs.TrainIdentity = identity.String
		bs.Headcode = headcode.String
		bs.ServiceCode = serviceCode.String
		bs.PowerType = powerType.String
		bs.TimingLoad = timingLoad.String
		bs.Speed = speed.String
		bs.OperatingChars = operatingChars.String
		bs.TrainClass = trainClass.String
		bs.ATOCCode = atocCode.String

		ids = append(ids, bs.ID)
		schedules = append(schedules, bs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schedule rows: %w", err)
	}

	if len(ids) == 0 {
		return schedules, nil
	}

	locations, err := dc.fetchScheduleLocations(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch schedule locations: %w", err)
	}
	for i := range schedules {
		schedules[i].Locations = locations[schedules[i].ID]
	}
	return schedules, nil
}

func (dc *DataClient) fetchScheduleLocations(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]types.Location, error) {
	rows, err := dc.pg.Query(ctx, `
		SELECT schedule_id, location_order, tiploc_code, tiploc_instance,
			   arrival, public_arrival, pass, departure, public_departure,
			   platform, line, path, activity,
			   next_day_arrival, next_day_pass, next_day_departure
		FROM schedule_location
		WHERE schedule_id = ANY($1)
		ORDER BY schedule_id, location_order
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bySchedule := make(map[uuid.UUID][]types.Location)
	for rows.Next() {
		var scheduleID uuid.UUID
		var loc types.Location
		var instance, arrival, publicArrival, pass, departure, publicDeparture sql.NullString
		var platform, line, path, activity sql.NullString

		if err := rows.Scan(
			&scheduleID, &loc.Seq, &loc.TiplocCode, &instance,
			&arrival, &publicArrival, &pass, &departure, &publicDeparture,
			&platform, &line, &path, &activity,
			&loc.NextDayArrival, &loc.NextDayPass, &loc.NextDayDeparture,
		); err != nil {
			return nil, err
		}

		loc.TiplocInstance = instance.String
		loc.Arrival = types.NominalTime(arrival.String)
		loc.PublicArrival = types.NominalTime(publicArrival.String)
		loc.Pass = types.NominalTime(pass.String)
		loc.Departure = types.NominalTime(departure.String)
		loc.PublicDeparture = types.NominalTime(publicDeparture.String)
		loc.Platform = platform.String
		loc.Line = line.String
		loc.Path = path.String
		loc.ApplyActivity(activity.String)

		bySchedule[scheduleID] = append(bySchedule[scheduleID], loc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bySchedule, nil
}

// InsertSchedule writes a schedule and its locations in one transaction,
// assigning an ID if the schedule has none.
func (dc *DataClient) InsertSchedule(ctx context.Context, bs *types.BasicSchedule) error {
	if bs.ID == uuid.Nil {
		bs.ID = uuid.New()
	}

	tx, err := dc.pg.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction for schedule %s: %w", bs.TrainUID, err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO schedule (
			id, train_uid, stp_indicator, schedule_start_date, schedule_end_date,
			schedule_days_runs, bank_holiday_running, train_status, train_category,
			signalling_id, headcode, train_service_code, power_type, timing_load,
			speed, operating_characteristics, train_class, atoc_code, source
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		bs.ID, bs.TrainUID, string(bs.STPIndicator), bs.RunsFrom, bs.RunsTo,
		bs.DaysRun.String(), bs.BankHolidayRunning, bs.Status, bs.Category,
		bs.TrainIdentity, bs.Headcode, bs.ServiceCode, bs.PowerType, bs.TimingLoad,
		bs.Speed, bs.OperatingChars, bs.TrainClass, bs.ATOCCode, string(bs.Source),
	)
	if err != nil {
		return fmt.Errorf("failed to insert schedule %s: %w", bs.TrainUID, err)
	}

	batch := &pgx.Batch{}
	for _, loc := range bs.Locations {
		batch.Queue(`
			INSERT INTO schedule_location (
				schedule_id, location_order, tiploc_code, tiploc_instance,
				arrival, public_arrival, pass, departure, public_departure,
				platform, line, path, activity,
				next_day_arrival, next_day_pass, next_day_departure
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
			bs.ID, loc.Seq, loc.TiplocCode, loc.TiplocInstance,
			string(loc.Arrival), string(loc.PublicArrival), string(loc.Pass),
			string(loc.Departure), string(loc.PublicDeparture),
			loc.Platform, loc.Line, loc.Path, loc.Activity,
			loc.NextDayArrival, loc.NextDayPass, loc.NextDayDeparture,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert locations for schedule %s: %w", bs.TrainUID, err)
	}

	return tx.Commit(ctx)
}

// DeleteSchedules removes the schedules of uid from source with exactly the
// given date range. Locations go with them.
func (dc *DataClient) DeleteSchedules(ctx context.Context, uid string, from, to time.Time, source types.ScheduleSource) (int, error) {
	tag, err := dc.pg.Exec(ctx, `
		DELETE FROM schedule
		WHERE train_uid = $1 AND schedule_start_date = $2 AND schedule_end_date = $3 AND source = $4
	`, uid, types.Date(from), types.Date(to), string(source))
	if err != nil {
		return 0, fmt.Errorf("failed to delete schedules for %s: %w", uid, err)
	}
	return int(tag.RowsAffected()), nil
}
