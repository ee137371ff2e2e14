package controllers

import (
	"github.com/aktp/portal/app/repository"
	"github.com/aktp/portal/internal/pkg/archive"
	"github.com/aktp/portal/internal/pkg/cache"
	"github.com/aktp/portal/internal/pkg/directory"
	"github.com/gofiber/fiber/v2"
)

// Global controller instances
var (
	billingController   *BillingController
	directoryController *DirectoryController
	eventController     *EventController
	leadController      *LeadController
	healthController    *HealthController
)

// InitializeBillingController wires the Stripe webhook endpoint
func InitializeBillingController(processor WebhookProcessor, locker cache.Locker, archiver archive.Archiver) {
	billingController = NewBillingController(processor, locker, archiver)
}

// GetBillingController returns the global billing controller instance
func GetBillingController() *BillingController {
	if billingController == nil {
		panic("Billing controller not initialized. Call InitializeBillingController first.")
	}
	return billingController
}

// InitializeDirectoryController builds the directory controller on the global
// repositories. store may be nil to disable result caching.
func InitializeDirectoryController(store cache.Store) {
	practitioners := repository.GetGlobalFactory().GetPractitionerRepository()
	directoryController = NewDirectoryController(directory.NewService(practitioners, store))
}

// GetDirectoryController returns the global directory controller instance
func GetDirectoryController() *DirectoryController {
	if directoryController == nil {
		InitializeDirectoryController(nil)
	}
	return directoryController
}

// GetEventController returns the global event controller instance
func GetEventController() *EventController {
	if eventController == nil {
		eventController = NewEventController(repository.GetGlobalFactory().GetEventRepository())
	}
	return eventController
}

// GetLeadController returns the global lead controller instance
func GetLeadController() *LeadController {
	if leadController == nil {
		leadController = NewLeadController(repository.GetGlobalFactory().GetLeadRepository())
	}
	return leadController
}

// InitializeHealthController sets the database check used by /healthz
func InitializeHealthController(database Pinger) {
	healthController = NewHealthController(database)
}

// GetHealthController returns the global health controller instance
func GetHealthController() *HealthController {
	if healthController == nil {
		InitializeHealthController(nil)
	}
	return healthController
}

// Adapter functions used by the router

// HandleStripeWebhook - Adapter for the Stripe webhook endpoint
func HandleStripeWebhook(c *fiber.Ctx) error {
	return GetBillingController().HandleStripeWebhook(c)
}

// HandleProviderList - Adapter for the provider directory listing
func HandleProviderList(c *fiber.Ctx) error {
	return GetDirectoryController().HandleList(c)
}

// HandleProviderShow - Adapter for a single provider profile
func HandleProviderShow(c *fiber.Ctx) error {
	return GetDirectoryController().HandleShow(c)
}

// HandleEventList - Adapter for upcoming events
func HandleEventList(c *fiber.Ctx) error {
	return GetEventController().HandleList(c)
}

// HandleEventShow - Adapter for event details
func HandleEventShow(c *fiber.Ctx) error {
	return GetEventController().HandleShow(c)
}

// HandleLeadCreate - Adapter for form submissions
func HandleLeadCreate(c *fiber.Ctx) error {
	return GetLeadController().HandleCreate(c)
}

// HandleHealth - Adapter for the health check
func HandleHealth(c *fiber.Ctx) error {
	return GetHealthController().HandleHealth(c)
}
