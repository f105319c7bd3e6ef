package api

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/data"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/resolver"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// GetSchedule returns the schedule variant that applies to a train on a date.
func (s *APIServer) GetSchedule(c *fiber.Ctx) error {
	uid := strings.ToUpper(c.Params("uid"))
	date, err := parseDate(c.Params("date"))
	if err != nil {
		return badRequest(c, err.Error())
	}

	bs, err := s.Resolver.Resolve(c.UserContext(), uid, date)
	if err != nil {
		return internalError(c, "Failed to resolve schedule", err)
	}
	if bs == nil {
		return notFound(c, "No schedule applies")
	}
	return c.JSON(s.toService(c.UserContext(), bs, map[string]Location{}))
}

// GetWindow lists the schedules calling in a time window, grouped by the
// date they run on.
func (s *APIServer) GetWindow(c *fiber.Ctx) error {
	from, err := parseInstant(c.Query("from"))
	if err != nil {
		return badRequest(c, "from: "+err.Error())
	}
	to, err := parseInstant(c.Query("to"))
	if err != nil {
		return badRequest(c, "to: "+err.Error())
	}
	mode, err := resolver.ParseMode(c.Query("mode"))
	if err != nil {
		return badRequest(c, err.Error())
	}

	groups, err := s.Resolver.Window(c.UserContext(), resolver.WindowQuery{
		From:          from,
		To:            to,
		Mode:          mode,
		Tiplocs:       splitList(c.Query("tiploc")),
		RunsFrom:      splitList(c.Query("runs_from")),
		RunsTo:        splitList(c.Query("runs_to")),
		OnlyPassenger: c.QueryBool("passenger"),
	})
	if errors.Is(err, resolver.ErrInvalidWindow) {
		return badRequest(c, "to must not be before from")
	}
	if err != nil {
		return internalError(c, "Failed to search window", err)
	}

	names := map[string]Location{}
	resp := WindowResponse{Dates: make([]WindowDate, 0, len(groups))}
	for _, g := range groups {
		wd := WindowDate{
			RunsOn:   openapi_types.Date{Time: g.RunsOn},
			Services: make([]ServiceResponse, 0, len(g.Schedules)),
		}
		for i := range g.Schedules {
			wd.Services = append(wd.Services, s.toService(c.UserContext(), &g.Schedules[i], names))
		}
		resp.Dates = append(resp.Dates, wd)
	}
	return c.JSON(resp)
}

// GetDailySchedule returns the realtime state of an activated train.
func (s *APIServer) GetDailySchedule(c *fiber.Ctx) error {
	uid := strings.ToUpper(c.Params("uid"))
	date, err := parseDate(c.Params("date"))
	if err != nil {
		return badRequest(c, err.Error())
	}

	ds, err := s.Store.DailyScheduleByUIDAndDate(c.UserContext(), uid, date)
	if errors.Is(err, data.ErrNotFound) {
		return notFound(c, "Train not activated")
	}
	if err != nil {
		return internalError(c, "Failed to retrieve daily schedule", err)
	}
	return c.JSON(s.toDaily(c.UserContext(), ds))
}
