package models

import "time"

const BillingProviderStripe = "stripe"

// Outcomes recorded for a processed webhook event.
const (
	WebhookOutcomeHandled   = "handled"
	WebhookOutcomeSkipped   = "skipped"
	WebhookOutcomeIgnored   = "ignored"
	WebhookOutcomeDuplicate = "duplicate"
	WebhookOutcomeFailed    = "failed"
)

// BillingWebhookEvent stores verified provider webhook payloads with
// deduplication metadata so redeliveries and replays can be reasoned about.
type BillingWebhookEvent struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Provider        string     `gorm:"type:varchar(20);not null;index:ux_billing_webhook_events_provider_event,unique,priority:1;index" json:"provider"`
	ProviderEventID string     `gorm:"type:varchar(191);not null;default:'';index:ux_billing_webhook_events_provider_event,unique,priority:2" json:"provider_event_id"`
	EventType       string     `gorm:"type:varchar(100);not null;index" json:"event_type"`
	PayloadJSON     string     `gorm:"type:longtext;not null" json:"payload_json"`
	Outcome         string     `gorm:"type:varchar(20);default:'';index" json:"outcome"`
	ProcessedAt     *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
	ProcessingError string     `gorm:"type:text" json:"processing_error"`
	Attempts        int        `gorm:"not null;default:0" json:"attempts"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsSettled reports whether a previous run finished in a state that must not
// be re-run on redelivery.
func (e *BillingWebhookEvent) IsSettled() bool {
	if e.ProcessedAt == nil {
		return false
	}
	switch e.Outcome {
	case WebhookOutcomeHandled, WebhookOutcomeIgnored, WebhookOutcomeDuplicate:
		return true
	default:
		return false
	}
}
