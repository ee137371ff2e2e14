package router

import (
	"github.com/aktp/portal/app/controllers"
	"github.com/gofiber/fiber/v2"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	app.Get("/healthz", controllers.HandleHealth)

	// Billing provider webhooks (signature-verified in controller)
	app.Post("/webhooks/stripe", controllers.HandleStripeWebhook)
	app.Post("/api/webhooks/stripe", controllers.HandleStripeWebhook)
}
