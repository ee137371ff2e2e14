package controllers

import (
	"errors"
	"time"

	"github.com/aktp/portal/app/repository"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

const (
	defaultEventLimit = 20
	maxEventLimit     = 100
)

type EventController struct {
	events repository.EventRepository
	now    func() time.Time
}

func NewEventController(events repository.EventRepository) *EventController {
	return &EventController{events: events, now: time.Now}
}

// HandleList serves GET /api/v1/events
func (ec *EventController) HandleList(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultEventLimit)
	if limit < 1 {
		limit = defaultEventLimit
	}
	if limit > maxEventLimit {
		limit = maxEventLimit
	}

	events, err := ec.events.ListUpcoming(ec.now(), limit)
	if err != nil {
		log.Errorf("[Events] Failed to list upcoming events: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "Failed to load events")
	}
	return c.JSON(fiber.Map{"success": true, "data": events})
}

// HandleShow serves GET /api/v1/events/:slug
func (ec *EventController) HandleShow(c *fiber.Ctx) error {
	event, err := ec.events.GetPublishedBySlug(c.Params("slug"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return jsonError(c, fiber.StatusNotFound, "Event not found")
	}
	if err != nil {
		log.Errorf("[Events] Lookup of %q failed: %v", c.Params("slug"), err)
		return jsonError(c, fiber.StatusInternalServerError, "Failed to load event")
	}
	return c.JSON(fiber.Map{"success": true, "data": event})
}
