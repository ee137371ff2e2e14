package billing

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

var (
	ErrMissingSignature = errors.New("missing stripe signature header")
	ErrInvalidSignature = errors.New("invalid stripe signature")
)

// VerifyStripeSignature checks the Stripe-Signature header against the raw
// request body and returns the decoded event. The payload must be the exact
// bytes received; re-encoded JSON will not verify.
func VerifyStripeSignature(payload []byte, signatureHeader, webhookSecret string, tolerance time.Duration) (stripe.Event, error) {
	sig := strings.TrimSpace(signatureHeader)
	if sig == "" {
		return stripe.Event{}, ErrMissingSignature
	}
	secret := strings.TrimSpace(webhookSecret)
	if secret == "" {
		return stripe.Event{}, fmt.Errorf("%w: webhook secret is not configured", ErrInvalidSignature)
	}
	if tolerance <= 0 {
		tolerance = webhook.DefaultTolerance
	}

	event, err := webhook.ConstructEventWithOptions(payload, sig, secret, webhook.ConstructEventOptions{
		Tolerance:                tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return stripe.Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return event, nil
}
