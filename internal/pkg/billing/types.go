package billing

import (
	"context"

	"github.com/aktp/portal/app/models"
)

// Stripe event types handled by the reconciler.
const (
	EventCheckoutSessionCompleted   = "checkout.session.completed"
	EventSubscriptionCreated        = "customer.subscription.created"
	EventSubscriptionUpdated        = "customer.subscription.updated"
	EventSubscriptionDeleted        = "customer.subscription.deleted"
	EventInvoicePaid                = "invoice.paid"
	EventInvoicePaymentSucceeded    = "invoice.payment_succeeded"
	EventInvoicePaymentFailed       = "invoice.payment_failed"
	EventPaymentIntentSucceeded     = "payment_intent.succeeded"
	EventPaymentIntentPaymentFailed = "payment_intent.payment_failed"
)

// Outcome classifies how an event was handled. Only infrastructure failures
// are returned as errors; everything else is an outcome.
type Outcome string

const (
	OutcomeHandled   Outcome = models.WebhookOutcomeHandled
	OutcomeSkipped   Outcome = models.WebhookOutcomeSkipped
	OutcomeIgnored   Outcome = models.WebhookOutcomeIgnored
	OutcomeDuplicate Outcome = models.WebhookOutcomeDuplicate
	OutcomeFailed    Outcome = models.WebhookOutcomeFailed
)

// Result is the outcome of handling one event plus a machine readable reason.
type Result struct {
	Outcome Outcome
	Reason  string
}

// Notification template names understood by the dispatcher.
const (
	TemplateWelcome           = "welcome"
	TemplateEventRegistration = "event_registration"
)

// Notifier renders and sends a templated email.
type Notifier interface {
	Send(ctx context.Context, template, to string, data any) error
}

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	Provider        string
	ProviderEventID string
	EventType       string
	PayloadJSON     string
}

// WelcomeEmailData is rendered by the welcome template.
type WelcomeEmailData struct {
	Name string
	Tier string
}

// EventRegistrationEmailData is rendered by the event_registration template.
type EventRegistrationEmailData struct {
	FirstName  string
	EventTitle string
	EventDate  string
	Location   string
	AmountPaid string
}

type purchaseItem struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}
