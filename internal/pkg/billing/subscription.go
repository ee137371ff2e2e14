package billing

import (
	"context"
	"strings"
	"time"

	"github.com/aktp/portal/app/models"
	"github.com/gofiber/fiber/v2/log"
	"github.com/stripe/stripe-go/v76"
)

func (s *Service) practitionerForCustomer(ctx context.Context, customer *stripe.Customer, eventID string) (*models.Practitioner, error) {
	customerID := ""
	if customer != nil {
		customerID = strings.TrimSpace(customer.ID)
	}
	if customerID == "" {
		log.Warnf("[Billing] Event %s carries no customer", eventID)
		return nil, nil
	}
	p, err := s.repo.GetPractitionerByStripeCustomerID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		log.Warnf("[Billing] No practitioner linked to customer %s (event %s)", customerID, eventID)
	}
	return p, nil
}

func (s *Service) handleSubscriptionChanged(ctx context.Context, event stripe.Event) (Result, error) {
	var sub stripe.Subscription
	if err := decodeEventObject(event, &sub); err != nil {
		return Result{}, err
	}
	p, err := s.practitionerForCustomer(ctx, sub.Customer, event.ID)
	if err != nil {
		return Result{}, err
	}
	if p == nil {
		return skipped("account_not_linked")
	}

	p.MembershipStatus = MapSubscriptionStatus(string(sub.Status))
	if sub.CurrentPeriodEnd > 0 {
		expiry := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
		p.MembershipExpiry = &expiry
	}
	if tier, ok := models.ParseMembershipTier(sub.Metadata[metaTier]); ok {
		p.MembershipTier = tier
	}
	if id := optionalString(sub.ID); id != nil {
		p.StripeSubscriptionID = id
	}
	if err := s.repo.SaveMembership(ctx, p); err != nil {
		return Result{}, err
	}
	log.Infof("[Billing] Practitioner %s subscription %s is %s (%s)", p.ID, sub.ID, sub.Status, p.MembershipStatus)
	return handled("subscription_synced")
}

func (s *Service) handleSubscriptionDeleted(ctx context.Context, event stripe.Event) (Result, error) {
	var sub stripe.Subscription
	if err := decodeEventObject(event, &sub); err != nil {
		return Result{}, err
	}
	p, err := s.practitionerForCustomer(ctx, sub.Customer, event.ID)
	if err != nil {
		return Result{}, err
	}
	if p == nil {
		return skipped("account_not_linked")
	}

	p.MembershipTier = models.TierFree
	p.MembershipStatus = models.MembershipCancelled
	p.StripeSubscriptionID = nil
	if err := s.repo.SaveMembership(ctx, p); err != nil {
		return Result{}, err
	}
	log.Infof("[Billing] Practitioner %s subscription cancelled", p.ID)
	return handled("subscription_cancelled")
}

func (s *Service) handleInvoicePaid(ctx context.Context, event stripe.Event) (Result, error) {
	var invoice stripe.Invoice
	if err := decodeEventObject(event, &invoice); err != nil {
		return Result{}, err
	}
	p, err := s.practitionerForCustomer(ctx, invoice.Customer, event.ID)
	if err != nil {
		return Result{}, err
	}
	if p == nil {
		return skipped("account_not_linked")
	}
	if p.MembershipStatus == models.MembershipActive {
		return handled("already_active")
	}

	p.MembershipStatus = models.MembershipActive
	if err := s.repo.SaveMembership(ctx, p); err != nil {
		return Result{}, err
	}
	log.Infof("[Billing] Invoice %s paid, practitioner %s reactivated", invoice.ID, p.ID)
	return handled("membership_reactivated")
}

func (s *Service) handleInvoiceFailed(ctx context.Context, event stripe.Event) (Result, error) {
	var invoice stripe.Invoice
	if err := decodeEventObject(event, &invoice); err != nil {
		return Result{}, err
	}
	p, err := s.practitionerForCustomer(ctx, invoice.Customer, event.ID)
	if err != nil {
		return Result{}, err
	}
	if p == nil {
		return skipped("account_not_linked")
	}

	p.MembershipStatus = models.MembershipPastDue
	if err := s.repo.SaveMembership(ctx, p); err != nil {
		return Result{}, err
	}
	log.Warnf("[Billing] Invoice %s payment failed, practitioner %s is past due", invoice.ID, p.ID)
	return handled("membership_past_due")
}
