package router

import (
	"github.com/gofiber/fiber/v2"
)

// Router installs a group of routes on the app.
type Router interface {
	InstallRouter(app *fiber.App)
}

// InstallRouter registers the public endpoints first so webhook and health
// routes are matched before the rate limited /api group.
func InstallRouter(app *fiber.App, limiterStorage fiber.Storage) {
	setup(app, NewHttpRouter(), NewApiRouter(limiterStorage))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
