package handlers

import (
	"github.com/gofiber/fiber/v2"

	"courtwatch/internal/domain"
	"courtwatch/internal/log"
	"courtwatch/internal/services"
)

type PageHandler struct {
	Avail   *services.AvailabilityService
	Refresh *services.RefreshService
	Venue   string
}

// GET /
func (h *PageHandler) Home(c *fiber.Ctx) error {
	slots, err := h.Avail.All(c.UserContext())
	if err != nil {
		log.Error(c, "page.home.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load availability. Please retry."})
	}
	return render(c, "index", fiber.Map{
		"Venue":       domain.VenueName(h.Venue),
		"LastUpdated": h.Refresh.LastUpdated(),
		"Days":        services.GroupByDate(slots),
		"Err":         c.Query("err"),
	})
}
