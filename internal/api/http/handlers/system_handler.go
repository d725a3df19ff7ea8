package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/observability"
)

// SystemHandler serves the service descriptor and metrics.
type SystemHandler struct {
	serviceName string
	version     string
	metrics     *observability.Metrics
}

// NewSystemHandler returns a new handler instance.
func NewSystemHandler(serviceName, version string, metrics *observability.Metrics) *SystemHandler {
	return &SystemHandler{serviceName: serviceName, version: version, metrics: metrics}
}

// Root GET /.
func (h *SystemHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": h.serviceName,
		"version": h.version,
		"endpoints": fiber.Map{
			"submit":        "POST /api/feedback/submit",
			"tickets":       "GET /api/feedback/tickets",
			"ticket":        "GET /api/feedback/tickets/:id",
			"update_status": "PATCH /api/feedback/tickets/:id/status",
			"request":       "GET /api/feedback/requests/:id",
			"health":        "GET /health/live, GET /health/ready",
			"metrics":       "GET /metrics",
		},
	})
}

// Metrics GET /metrics.
func (h *SystemHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(h.metrics.Snapshot())
}
