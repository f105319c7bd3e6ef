package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/data"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/types"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

var errBadDate = errors.New("date must be yyyy-mm-dd")

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, errBadDate
	}
	return t, nil
}

// parseInstant reads a window bound. Bounds without a zone are London time.
func parseInstant(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.ParseInLocation(layout, s, types.London); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("time must be RFC 3339 or yyyy-mm-ddThh:mm")
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.ToUpper(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
		Error:   "Bad Request",
		Message: message,
	})
}

func internalError(c *fiber.Ctx, message string, err error) error {
	errStr := err.Error()
	return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
		Error:   "Database error",
		Message: message,
		Stack:   &errStr,
	})
}

func notFound(c *fiber.Ctx, message string) error {
	return c.Status(http.StatusNotFound).JSON(NotFoundResponse{Error: message})
}

func optional[T ~string](v T) *string {
	if v == "" {
		return nil
	}
	s := string(v)
	return &s
}

func formatActual(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.In(types.London).Format(time.RFC3339)
	return &s
}

// describe fills a location from the TIPLOC reference data, when known.
func (s *APIServer) describe(ctx context.Context, tiploc string, names map[string]Location) Location {
	if loc, ok := names[tiploc]; ok {
		return loc
	}
	loc := Location{Tiploc: tiploc}
	t, err := s.Tiplocs.TiplocByCode(ctx, tiploc)
	switch {
	case err == nil:
		loc.Stanox = optional(t.Stanox)
		loc.Crs = optional(t.CRSCode)
		name := t.Name()
		loc.FullName = &name
	case !errors.Is(err, data.ErrNotFound):
		s.Logger.Debugw("TIPLOC lookup failed", "tiploc", tiploc, "error", err)
	}
	names[tiploc] = loc
	return loc
}

func (s *APIServer) toService(ctx context.Context, bs *types.BasicSchedule, names map[string]Location) ServiceResponse {
	resp := ServiceResponse{
		Id:                bs.ID.String(),
		TrainUid:          bs.TrainUID,
		StpIndicator:      string(bs.STPIndicator),
		Source:            string(bs.Source),
		SignallingId:      bs.TrainIdentity,
		TrainCategory:     bs.Category,
		TrainStatus:       bs.Status,
		AtocCode:          bs.ATOCCode,
		ScheduleStartDate: openapi_types.Date{Time: bs.RunsFrom},
		ScheduleEndDate:   openapi_types.Date{Time: bs.RunsTo},
		ScheduleDaysRuns:  bs.DaysRun.String(),
		Locations:         make([]ScheduleLocation, 0, len(bs.Locations)),
	}
	for _, l := range bs.Locations {
		resp.Locations = append(resp.Locations, ScheduleLocation{
			Location:        s.describe(ctx, l.TiplocCode, names),
			LocationOrder:   l.Seq,
			Arrival:         optional(l.Arrival),
			PublicArrival:   optional(l.PublicArrival),
			Pass:            optional(l.Pass),
			Departure:       optional(l.Departure),
			PublicDeparture: optional(l.PublicDeparture),
			Platform:        optional(l.Platform),
			Activity:        optional(l.Activity),
			NextDay:         l.NextDayArrival || l.NextDayPass || l.NextDayDeparture,
		})
	}
	return resp
}

func (s *APIServer) toDaily(ctx context.Context, ds *types.DailySchedule) DailyScheduleResponse {
	names := map[string]Location{}
	resp := DailyScheduleResponse{
		Id:                  ds.ID.String(),
		TrainUid:            ds.TrainUID,
		RunsOn:              openapi_types.Date{Time: ds.RunsOn},
		TrainIdentityUnique: ds.TrainIdentityUnique,
		SignallingId:        ds.TrainIdentity,
		Cancelled:           ds.Cancelled,
		CancellationReason:  optional(ds.CancellationReason),
		DepartedOrigin:      ds.DepartedOrigin,
		Terminated:          ds.Terminated,
		Locations:           make([]DailyLocation, 0, len(ds.Locations)),
	}
	if ds.LastLocation >= 0 && ds.LastLocation < len(ds.Locations) {
		resp.LastLocation = &ds.Locations[ds.LastLocation].TiplocCode
	}
	for _, l := range ds.Locations {
		resp.Locations = append(resp.Locations, DailyLocation{
			ScheduleLocation: ScheduleLocation{
				Location:        s.describe(ctx, l.TiplocCode, names),
				LocationOrder:   l.Seq,
				Arrival:         optional(l.Arrival),
				PublicArrival:   optional(l.PublicArrival),
				Pass:            optional(l.Pass),
				Departure:       optional(l.Departure),
				PublicDeparture: optional(l.PublicDeparture),
				Platform:        optional(l.Platform),
				NextDay:         l.NextDayArrival || l.NextDayPass || l.NextDayDeparture,
			},
			ActualArrival:   formatActual(l.ActualArrival),
			ActualPass:      formatActual(l.ActualPass),
			ActualDeparture: formatActual(l.ActualDeparture),
			ActualPlatform:  optional(l.ActualPlatform),
			Cancelled:       l.Cancelled,
		})
	}
	return resp
}
