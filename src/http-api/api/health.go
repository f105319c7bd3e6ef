package api

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/data"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// GetHealth reports whether the API can reach its store and how far ahead
// timetable data has been loaded. An empty store is healthy but flagged, as
// the bulk schedule load has not run yet.
func (s *APIServer) GetHealth(c *fiber.Ctx) error {
	response := HealthResponse{
		Status:  "healthy",
		Version: "1.0.0",
	}

	latest, err := s.Store.LatestScheduleDate(c.UserContext())
	switch {
	case errors.Is(err, data.ErrNotFound):
		response.Status = "empty"
	case err != nil:
		s.Logger.Warnw("Health check failed to query schedules", "error", err)
		response.Status = "unhealthy"
		return c.Status(http.StatusServiceUnavailable).JSON(response)
	default:
		response.LatestScheduleDate = &openapi_types.Date{Time: latest}
	}
	return c.JSON(response)
}
