package handlers

import (
	"errors"
	"io/fs"
	"os"

	"github.com/gofiber/fiber/v2"

	"courtwatch/internal/log"
)

type ScheduleHandler struct {
	Path string
}

// GET /schedule.ics
func (h *ScheduleHandler) Serve(c *fiber.Ctx) error {
	body, err := os.ReadFile(h.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return jsonError(c, fiber.StatusNotFound, "schedule not generated yet")
	}
	if err != nil {
		log.Error(c, "schedule.read.fail", err, nil)
		return jsonError(c, fiber.StatusInternalServerError, "could not read schedule")
	}
	c.Set(fiber.HeaderContentType, "text/calendar; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="courts.ics"`)
	return c.Send(body)
}
