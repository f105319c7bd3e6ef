package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// GetBerths returns the train description in each occupied berth of a train
// describer area.
func (s *APIServer) GetBerths(c *fiber.Ctx) error {
	area := strings.ToUpper(c.Params("area"))
	if len(area) != 2 {
		return badRequest(c, "area must be a two character TD area")
	}

	berths, err := s.Berths.Occupancy(c.UserContext(), area)
	if err != nil {
		return internalError(c, "Failed to read berth occupancy", err)
	}
	return c.JSON(BerthsResponse{Area: area, Berths: berths})
}
