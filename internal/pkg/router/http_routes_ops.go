package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (h HttpRouter) registerOpsRoutes(app *fiber.App) {
	if h.metricsPassword == "" {
		log.Warn("[Router] METRICS_PASSWORD is not set, /metrics is disabled")
		return
	}
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			h.metricsUser: h.metricsPassword,
		},
	}), adaptor.HTTPHandler(promhttp.Handler()))
}
