package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// Pinger checks a backing service.
type Pinger func(ctx context.Context) error

type HealthController struct {
	database Pinger
}

func NewHealthController(database Pinger) *HealthController {
	return &HealthController{database: database}
}

// HandleHealth serves GET /healthz
func (hc *HealthController) HandleHealth(c *fiber.Ctx) error {
	if hc.database == nil {
		return c.JSON(fiber.Map{"status": "ok", "database": "unchecked"})
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()
	if err := hc.database(ctx); err != nil {
		log.Warnf("[Health] Database ping failed: %v", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":   "degraded",
			"database": "unreachable",
		})
	}
	return c.JSON(fiber.Map{"status": "ok", "database": "ok"})
}
