package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	System   *handlers.SystemHandler
	Feedback *handlers.FeedbackHandler
	Tickets  *handlers.TicketsHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/", cfg.System.Root)
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.System.Metrics)

	feedback := app.Group("/api/feedback")
	feedback.Post("/submit", cfg.Feedback.Submit)
	feedback.Get("/requests/:id", cfg.Feedback.GetRequest)
	feedback.Get("/tickets", cfg.Tickets.ListTickets)
	feedback.Get("/tickets/:id", cfg.Tickets.GetTicket)
	feedback.Patch("/tickets/:id/status", cfg.Tickets.UpdateStatus)

	app.Use(NotFound)
}

// NotFound answers requests that matched no route.
func NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"success": false,
		"error": fiber.Map{
			"code":    "NOT_FOUND",
			"message": "route not found",
		},
	})
}
