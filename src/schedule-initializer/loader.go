package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/data"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/types"
	"go.uber.org/zap"
)

// counts tallies what a load wrote, for progress and summary logging.
type counts struct {
	Processed int
	Tiplocs   int
	Schedules int
	Deleted   int
	Skipped   int
}

func parseDate(dateStr string) (time.Time, error) {
	layouts := []string{
		"2006-01-02T15:04:05Z",
		"2006-01-02T15:04:05",
		"2006-01-02",
		"06-01-02",
		"060102",
		"2006/01/02",
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, dateStr); err == nil {
			return types.Date(t), nil
		}
	}

	return time.Time{}, fmt.Errorf("failed to parse date '%s' with any known layout", dateStr)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func toTiploc(t *types.TiplocV1) types.Tiploc {
	return types.Tiploc{
		TiplocCode:     strings.TrimSpace(t.TiplocCode),
		Nalco:          t.Nalco,
		Stanox:         deref(t.Stanox),
		CRSCode:        deref(t.CrsCode),
		Description:    deref(t.Description),
		TPSDescription: strings.TrimSpace(t.TpsDescription),
	}
}

var (
	trainUIDPattern      = regexp.MustCompile(`^[A-Z][0-9]{5}$`)
	trainIdentityPattern = regexp.MustCompile(`^[0-9][A-Z][0-9]{2}$`)

	validate = newValidator()
)

// newValidator checks schedule headers against the extract's record formats.
// Cancellations may leave out the status and the train identity.
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("train_uid", func(fl validator.FieldLevel) bool {
		return trainUIDPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("train_identity", func(fl validator.FieldLevel) bool {
		return trainIdentityPattern.MatchString(fl.Field().String())
	})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		bs := sl.Current().Interface().(types.BasicSchedule)
		if bs.STPIndicator == types.ShortTermCancellation {
			return
		}
		if bs.Status == "" {
			sl.ReportError(bs.Status, "Status", "Status", "required", "")
		}
		if bs.TrainIdentity == "" {
			sl.ReportError(bs.TrainIdentity, "TrainIdentity", "TrainIdentity", "required", "")
		}
	}, types.BasicSchedule{})
	return v
}

// toSchedule converts one bulk extract schedule record.
func toSchedule(s *types.JsonScheduleV1) (*types.BasicSchedule, error) {
	stp, err := types.ParseSTPIndicator(s.StpIndicator)
	if err != nil {
		return nil, err
	}
	from, err := parseDate(s.ScheduleStartDate)
	if err != nil {
		return nil, err
	}
	to, err := parseDate(s.ScheduleEndDate)
	if err != nil {
		return nil, err
	}
	days, err := types.ParseDaysRun(s.ScheduleDaysRuns)
	if err != nil {
		return nil, err
	}

	seg := s.ScheduleSegment
	bs := &types.BasicSchedule{
		TrainUID:           strings.TrimSpace(s.TrainUID),
		STPIndicator:       stp,
		RunsFrom:           from,
		RunsTo:             to,
		DaysRun:            days,
		BankHolidayRunning: deref(s.BankHolidayRunning),
		Status:             strings.TrimSpace(s.TrainStatus),
		Category:           strings.TrimSpace(seg.TrainCategory),
		TrainIdentity:      strings.TrimSpace(seg.SignallingID),
		Headcode:           strings.TrimSpace(seg.Headcode),
		ServiceCode:        strings.TrimSpace(seg.TrainServiceCode),
		PowerType:          deref(seg.PowerType),
		TimingLoad:         deref(seg.TimingLoad),
		Speed:              deref(seg.Speed),
		OperatingChars:     deref(seg.OperatingCharacteristics),
		TrainClass:         deref(seg.TrainClass),
		ATOCCode:           deref(s.AtocCode),
		Source:             types.SourceBulkImport,
		Locations:          make([]types.Location, 0, len(seg.ScheduleLocation)),
	}
	if err := validate.Struct(bs); err != nil {
		return nil, fmt.Errorf("invalid schedule %s: %w", bs.TrainUID, err)
	}

	for i, l := range seg.ScheduleLocation {
		loc := types.Location{
			Seq:            i + 1,
			TiplocCode:     strings.TrimSpace(l.TiplocCode),
			TiplocInstance: deref(l.TiplocInstance),
			Platform:       deref(l.Platform),
			Line:           deref(l.Line),
			Path:           deref(l.Path),
		}
		times := []struct {
			raw    string
			dst    *types.NominalTime
			public bool
		}{
			{deref(l.Arrival), &loc.Arrival, false},
			{deref(l.PublicArrival), &loc.PublicArrival, true},
			{deref(l.Pass), &loc.Pass, false},
			{deref(l.Departure), &loc.Departure, false},
			{deref(l.PublicDeparture), &loc.PublicDeparture, true},
		}
		for _, t := range times {
			// the extract carries 0000 for public times that do not apply
			if t.public && t.raw == "0000" {
				continue
			}
			if *t.dst, err = types.ParseNominalTime(t.raw); err != nil {
				return nil, fmt.Errorf("location %d (%s): %w", i+1, loc.TiplocCode, err)
			}
		}
		loc.ApplyActivity(deref(l.Activity))
		bs.Locations = append(bs.Locations, loc)
	}
	bs.MarkNextDay()
	return bs, nil
}

// load reads a bulk timetable extract, one JSON record per line, into store.
// Bad records are logged and skipped.
func load(ctx context.Context, r io.Reader, store data.Store, logger *zap.SugaredLogger) (counts, error) {
	var c counts

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return c, err
		}

		var entry types.TimetableEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			logger.Warnw("Error unmarshalling JSON", "error", err)
			c.Skipped++
			continue
		}

		c.Processed++
		if c.Processed%10000 == 0 {
			logger.Infow("Progress", "processed", c.Processed, "tiplocs", c.Tiplocs, "schedules", c.Schedules)
		}

		switch {
		case entry.JsonTimetableV1 != nil:
			logger.Infow("Loading timetable extract",
				"sequence", entry.JsonTimetableV1.Metadata.Sequence,
				"type", entry.JsonTimetableV1.Metadata.Type,
			)

		case entry.TiplocV1 != nil:
			if err := store.InsertTiploc(ctx, toTiploc(entry.TiplocV1)); err != nil {
				logger.Warnw("Error inserting TIPLOC", "tiploc", entry.TiplocV1.TiplocCode, "error", err)
				c.Skipped++
				continue
			}
			c.Tiplocs++

		case entry.JsonScheduleV1 != nil:
			s := entry.JsonScheduleV1
			if strings.EqualFold(s.TransactionType, "Delete") {
				from, errFrom := parseDate(s.ScheduleStartDate)
				to, errTo := parseDate(s.ScheduleEndDate)
				if errFrom != nil || errTo != nil {
					logger.Warnw("Error parsing schedule dates", "train_uid", s.TrainUID)
					c.Skipped++
					continue
				}
				n, err := store.DeleteSchedules(ctx, strings.TrimSpace(s.TrainUID), from, to, types.SourceBulkImport)
				if err != nil {
					logger.Warnw("Error deleting schedule", "train_uid", s.TrainUID, "error", err)
					c.Skipped++
					continue
				}
				c.Deleted += n
				continue
			}

			bs, err := toSchedule(s)
			if err != nil {
				logger.Warnw("Error converting schedule", "train_uid", s.TrainUID, "error", err)
				c.Skipped++
				continue
			}
			if err := store.InsertSchedule(ctx, bs); err != nil {
				logger.Warnw("Error inserting schedule", "train_uid", s.TrainUID, "error", err)
				c.Skipped++
				continue
			}
			c.Schedules++

		case entry.EOF:
			logger.Info("End of schedule data reached")
			return c, nil
		}
	}

	if err := scanner.Err(); err != nil {
		return c, fmt.Errorf("error reading schedule file: %w", err)
	}
	return c, nil
}
