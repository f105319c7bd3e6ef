package api

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/utils"
)

// Maintenance answers 503 while maintenance mode is set. A Redis failure
// lets the request through.
func (s *APIServer) Maintenance(c *fiber.Ctx) error {
	if s.Redis == nil {
		return c.Next()
	}
	msg, on, err := utils.MaintenanceMode(c.UserContext(), s.Redis)
	if err != nil {
		s.Logger.Warnw("failed to read maintenance mode", "error", err)
		return c.Next()
	}
	if on {
		return c.Status(http.StatusServiceUnavailable).JSON(MaintenanceResponse{
			Error:   "Service Unavailable",
			Message: msg,
		})
	}
	return c.Next()
}
