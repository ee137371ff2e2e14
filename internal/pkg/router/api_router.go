package router

import (
	"strings"
	"time"

	"github.com/aktp/portal/app/controllers"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

const (
	apiRateLimit       = 60
	apiRateLimitWindow = time.Minute
	leadRateLimit      = 5
	leadRateWindow     = 10 * time.Minute
)

type ApiRouter struct {
	storage fiber.Storage
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", cors.New(), limiter.New(limiter.Config{
		Max:          apiRateLimit,
		Expiration:   apiRateLimitWindow,
		KeyGenerator: controllers.ClientIP,
		Storage:      h.storage,
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/api/webhooks/")
		},
		LimitReached: tooManyRequests,
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group("/v1")
	v1.Get("/providers", controllers.HandleProviderList)
	v1.Get("/providers/:slug", controllers.HandleProviderShow)
	v1.Get("/events", controllers.HandleEventList)
	v1.Get("/events/:slug", controllers.HandleEventShow)
	v1.Post("/leads", limiter.New(limiter.Config{
		Max:        leadRateLimit,
		Expiration: leadRateWindow,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "leads:" + controllers.ClientIP(c)
		},
		Storage:      h.storage,
		LimitReached: tooManyRequests,
	}), controllers.HandleLeadCreate)
}

// NewApiRouter creates the /api router. A nil storage keeps limiter state in memory.
func NewApiRouter(storage fiber.Storage) *ApiRouter {
	return &ApiRouter{storage: storage}
}

func tooManyRequests(c *fiber.Ctx) error {
	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
		"success": false,
		"error":   "Too many requests",
	})
}
