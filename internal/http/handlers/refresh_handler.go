package handlers

import (
	"github.com/gofiber/fiber/v2"

	"courtwatch/internal/log"
	"courtwatch/internal/repos"
	"courtwatch/internal/services"
	"courtwatch/internal/subscribers"
)

type RefreshHandler struct {
	Refresh *services.RefreshService
	Slots   *repos.SlotRepo
	Subs    *subscribers.Store
}

// POST /api/v1/refresh
func (h *RefreshHandler) Trigger(c *fiber.Ctx) error {
	n, err := h.Refresh.Refresh(c.UserContext())
	if err != nil {
		log.Error(c, "refresh.manual.fail", err, nil)
		return jsonError(c, fiber.StatusBadGateway, "refresh failed, try again later")
	}
	log.Audit(c, "refresh.manual", map[string]any{"fetched": n})
	return c.JSON(fiber.Map{"fetched": n, "last_updated": h.Refresh.LastUpdated()})
}

// POST /refresh (form on the home page)
func (h *RefreshHandler) TriggerForm(c *fiber.Ctx) error {
	n, err := h.Refresh.Refresh(c.UserContext())
	if err != nil {
		log.Error(c, "refresh.manual.fail", err, nil)
		return c.Redirect("/?err=Refresh+failed.+Please+try+again+later.")
	}
	log.Audit(c, "refresh.manual", map[string]any{"fetched": n})
	return c.Redirect("/")
}

// GET /api/v1/status
func (h *RefreshHandler) Status(c *fiber.Ctx) error {
	stored, err := h.Slots.Count(c.UserContext())
	if err != nil {
		log.Error(c, "status.count.fail", err, nil)
		return jsonError(c, fiber.StatusInternalServerError, "could not read status")
	}
	return c.JSON(fiber.Map{
		"last_updated":             h.Refresh.LastUpdated(),
		"stored_slots":             stored,
		"subscribers":              len(h.Subs.Subscribers()),
		"polling_interval_seconds": int(h.Subs.PollingInterval().Seconds()),
	})
}
