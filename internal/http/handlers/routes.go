package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	applog "courtwatch/internal/log"
)

// Mount registers every route on app. The HTML form is CSRF-protected; the JSON API is not.
func Mount(app *fiber.App, d *Deps) {
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		ContextKey:     "csrf",
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/api/")
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", nil)
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	})

	refreshLimiter := limiter.New(limiter.Config{
		Max:        2,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|refresh"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.refresh.hit", nil)
			return jsonError(c, fiber.StatusTooManyRequests, "rate limit exceeded, retry soon")
		},
	})

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Get("/", d.PageHandler.Home)
	app.Post("/refresh", refreshLimiter, d.RefreshHandler.TriggerForm)
	app.Get("/schedule.ics", d.ScheduleHandler.Serve)

	api := app.Group("/api/v1")
	api.Get("/slots", d.SlotHandler.List)
	api.Get("/status", d.RefreshHandler.Status)
	api.Post("/refresh", refreshLimiter, d.RefreshHandler.Trigger)

	app.Use(func(c *fiber.Ctx) error {
		if strings.HasPrefix(c.Path(), "/api/") {
			return jsonError(c, fiber.StatusNotFound, "not found")
		}
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Page not found"})
	})
}

// ErrorHandler logs the failure and answers without internal detail.
func ErrorHandler(c *fiber.Ctx, err error) error {
	applog.Error(c, "server.error", err, nil)
	if strings.HasPrefix(c.Path(), "/api/") {
		return jsonError(c, fiber.StatusInternalServerError, "something went wrong")
	}
	if rerr := c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{
		"Message": "Something went wrong. Please try again.",
	}); rerr != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("Something went wrong. Please try again.")
	}
	return nil
}
