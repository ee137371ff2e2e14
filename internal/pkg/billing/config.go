package billing

import (
	"strconv"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/aktp/portal/app/models"
	"github.com/aktp/portal/internal/pkg/env"
)

// Config carries the values the reconciler would otherwise read from globals.
type Config struct {
	WebhookSecret      string
	SignatureTolerance time.Duration
	// MinorUnitDivisor converts provider amounts (cents) to currency units.
	MinorUnitDivisor int64
	// DefaultTier applies when a subscription checkout carries no usable tier.
	DefaultTier models.MembershipTier
}

// DefaultConfig returns a config with every field but the secret populated.
func DefaultConfig() Config {
	return Config{
		SignatureTolerance: webhook.DefaultTolerance,
		MinorUnitDivisor:   100,
		DefaultTier:        models.TierProfessional,
	}
}

// ConfigFromEnv builds the reconciler config from STRIPE_* and MEMBERSHIP_* keys.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.WebhookSecret = strings.TrimSpace(env.GetEnv("STRIPE_WEBHOOK_SECRET", ""))

	if raw := env.GetEnv("STRIPE_WEBHOOK_TOLERANCE_SECONDS", ""); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			cfg.SignatureTolerance = time.Duration(secs) * time.Second
		}
	}
	if tier, ok := models.ParseMembershipTier(env.GetEnv("MEMBERSHIP_DEFAULT_TIER", "")); ok {
		cfg.DefaultTier = tier
	}
	return cfg
}

func (c Config) normalized() Config {
	if c.SignatureTolerance <= 0 {
		c.SignatureTolerance = webhook.DefaultTolerance
	}
	if c.MinorUnitDivisor <= 0 {
		c.MinorUnitDivisor = 100
	}
	if _, ok := models.ParseMembershipTier(string(c.DefaultTier)); !ok {
		c.DefaultTier = models.TierProfessional
	}
	return c
}
