package router

import (
	"github.com/aktp/portal/internal/pkg/env"
	"github.com/gofiber/fiber/v2"
)

type HttpRouter struct {
	metricsUser     string
	metricsPassword string
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	h.registerPublicRoutes(app)
	h.registerOpsRoutes(app)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{
		metricsUser:     env.GetEnv("METRICS_USER", "metrics"),
		metricsPassword: env.GetEnv("METRICS_PASSWORD", ""),
	}
}
