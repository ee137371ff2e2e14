package billing

import (
	"strings"

	"github.com/aktp/portal/app/models"
)

// MapSubscriptionStatus translates a Stripe subscription status into the
// membership status vocabulary. Unknown statuses map to INACTIVE.
func MapSubscriptionStatus(status string) models.MembershipStatus {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "active", "trialing":
		return models.MembershipActive
	case "past_due":
		return models.MembershipPastDue
	case "canceled", "unpaid":
		return models.MembershipCancelled
	default:
		return models.MembershipInactive
	}
}

// resolveTier returns the tier named by raw, or def when raw is empty or unknown.
func resolveTier(raw string, def models.MembershipTier) models.MembershipTier {
	if tier, ok := models.ParseMembershipTier(raw); ok {
		return tier
	}
	return def
}
