package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"courtwatch/internal/domain"
	"courtwatch/internal/log"
	"courtwatch/internal/services"
	"courtwatch/internal/validate"
)

type SlotHandler struct {
	Avail *services.AvailabilityService
}

// GET /api/v1/slots[?date=YYYY-MM-DD | ?period=morning|afternoon|evening][&format=text]
func (h *SlotHandler) List(c *fiber.Ctx) error {
	format, ok := validate.Format(c.Query("format"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "format"})
		return jsonError(c, fiber.StatusBadRequest, "format must be json or text")
	}
	rawDate := strings.TrimSpace(c.Query("date"))
	rawPeriod := strings.TrimSpace(c.Query("period"))
	if rawDate != "" && rawPeriod != "" {
		return jsonError(c, fiber.StatusBadRequest, "use either date or period, not both")
	}

	switch {
	case rawPeriod != "":
		name, ok := validate.Period(rawPeriod)
		if !ok {
			log.Security(c, "validation.fail", map[string]any{"field": "period", "value": rawPeriod})
			return jsonError(c, fiber.StatusBadRequest, "period must be morning, afternoon or evening")
		}
		p, _ := services.LookupPeriod(name)
		days, err := h.Avail.ByPeriod(c.UserContext(), p)
		if err != nil {
			log.Error(c, "slots.period.fail", err, map[string]any{"period": name})
			return jsonError(c, fiber.StatusInternalServerError, "could not load availability")
		}
		if format == "text" {
			var flat []domain.Slot
			for _, d := range days {
				flat = append(flat, d.Slots...)
			}
			return c.SendString(services.FormatAvailability(flat, p.NoneMessage()))
		}
		if days == nil {
			days = []services.DayGroup{}
		}
		return c.JSON(fiber.Map{"period": p.Name, "from": p.From, "to": p.To, "days": days})

	case rawDate != "":
		date, ok := validate.Date(rawDate)
		if !ok {
			log.Security(c, "validation.fail", map[string]any{"field": "date", "value": rawDate})
			return jsonError(c, fiber.StatusBadRequest, "date must be YYYY-MM-DD")
		}
		slots, err := h.Avail.ByDate(c.UserContext(), date)
		if err != nil {
			log.Error(c, "slots.date.fail", err, map[string]any{"date": date})
			return jsonError(c, fiber.StatusInternalServerError, "could not load availability")
		}
		if format == "text" {
			return c.SendString(services.FormatAvailability(slots, "❌ No courts available on "+services.DayLabel(date)+"."))
		}
		return c.JSON(fiber.Map{"date": date, "count": len(slots), "slots": slots})
	}

	slots, err := h.Avail.All(c.UserContext())
	if err != nil {
		log.Error(c, "slots.all.fail", err, nil)
		return jsonError(c, fiber.StatusInternalServerError, "could not load availability")
	}
	if format == "text" {
		return c.SendString(services.FormatAvailability(slots, "❌ No courts available."))
	}
	return c.JSON(fiber.Map{"count": len(slots), "slots": slots})
}
