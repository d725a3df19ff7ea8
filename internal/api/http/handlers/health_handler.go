package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/persistence"
)

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	postgres    *persistence.Postgres
	redis       *persistence.Redis
}

// NewHealthHandler returns a new handler instance.
func NewHealthHandler(serviceName, version string, postgres *persistence.Postgres, redis *persistence.Redis) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, postgres: postgres, redis: redis}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready reports service readiness by checking dependencies.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	depStatus := fiber.Map{}
	ready := true

	status, ok := dependencyStatus(h.postgres.Enabled(), func() error { return h.postgres.Ping(ctx) })
	depStatus["postgres"] = status
	ready = ready && ok

	status, ok = dependencyStatus(h.redis.Enabled(), func() error { return h.redis.Ping(ctx) })
	depStatus["redis"] = status
	ready = ready && ok

	if ready {
		return c.JSON(fiber.Map{
			"status":       "ready",
			"dependencies": depStatus,
		})
	}

	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"success": false,
		"error": fiber.Map{
			"code":    "DEPENDENCY_UNAVAILABLE",
			"message": "one or more dependencies unavailable",
			"details": depStatus,
		},
	})
}

// dependencyStatus reports a dependency that was never configured as
// disabled rather than unavailable.
func dependencyStatus(enabled bool, ping func() error) (string, bool) {
	if !enabled {
		return "disabled", true
	}
	if err := ping(); err != nil {
		return err.Error(), false
	}
	return "ok", true
}
