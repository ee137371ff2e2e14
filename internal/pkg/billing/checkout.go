package billing

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/aktp/portal/app/models"
	"github.com/gofiber/fiber/v2/log"
	"github.com/stripe/stripe-go/v76"
)

func (s *Service) handleCheckoutCompleted(ctx context.Context, event stripe.Event) (Result, error) {
	var session stripe.CheckoutSession
	if err := decodeEventObject(event, &session); err != nil {
		return Result{}, err
	}

	intent, rule := classifyCheckout(session.Metadata)
	if rule == "explicit_type" && intent == IntentUnclassified {
		log.Warnf("[Billing] Checkout %s has unknown type %q, falling back to mode", session.ID, session.Metadata[metaType])
	}

	switch intent {
	case IntentSubscription:
		return s.handleSubscriptionCheckout(ctx, &session)
	case IntentEventRegistration:
		return s.handleEventRegistration(ctx, &session)
	case IntentCourseEnrollment:
		return s.handleCourseEnrollment(ctx, &session)
	case IntentStorePurchase:
		return s.handleStorePurchase(ctx, &session)
	}

	if session.Mode == stripe.CheckoutSessionModeSubscription {
		return s.handleSubscriptionCheckout(ctx, &session)
	}
	log.Infof("[Billing] Checkout %s (mode %s) has no recognizable metadata, nothing to do", session.ID, session.Mode)
	return Result{Outcome: OutcomeIgnored, Reason: "unclassified_checkout"}, nil
}

func (s *Service) handleSubscriptionCheckout(ctx context.Context, session *stripe.CheckoutSession) (Result, error) {
	md := session.Metadata
	practitionerID := strings.TrimSpace(md[metaPractitionerID])
	if practitionerID == "" {
		log.Warnf("[Billing] Subscription checkout %s has no practitionerId", session.ID)
		return skipped("missing_practitioner_id")
	}

	p, err := s.repo.GetPractitionerByID(ctx, practitionerID)
	if err != nil {
		return Result{}, err
	}
	if p == nil {
		log.Warnf("[Billing] Subscription checkout %s references unknown practitioner %s", session.ID, practitionerID)
		return skipped("practitioner_not_found")
	}

	now := s.now()
	p.StripeCustomerID = optionalString(checkoutCustomerID(session))
	p.StripeSubscriptionID = optionalString(checkoutSubscriptionID(session))
	p.MembershipTier = resolveTier(md[metaTier], s.cfg.DefaultTier)
	p.MembershipStatus = models.MembershipActive
	p.MembershipStartDate = &now
	p.MembershipExpiry = nil
	if err := s.repo.SaveMembership(ctx, p); err != nil {
		return Result{}, err
	}
	log.Infof("[Billing] Practitioner %s subscribed at tier %s", p.ID, p.MembershipTier)

	to := p.Email
	if to == "" {
		to = checkoutEmail(session)
	}
	s.notify(ctx, TemplateWelcome, to, WelcomeEmailData{
		Name: p.DisplayName(),
		Tier: string(p.MembershipTier),
	})
	return handled("membership_activated")
}

func (s *Service) handleEventRegistration(ctx context.Context, session *stripe.CheckoutSession) (Result, error) {
	md := session.Metadata
	eventID := strings.TrimSpace(md[metaEventID])
	email := strings.ToLower(strings.TrimSpace(md[metaEmail]))
	if eventID == "" || email == "" {
		log.Warnf("[Billing] Event registration checkout %s is missing eventId or email", session.ID)
		return skipped("missing_registration_fields")
	}

	amount := s.toMajorUnits(session.AmountTotal)
	paymentID := checkoutPaymentID(session)

	existing, err := s.repo.FindEventRegistration(ctx, eventID, email)
	if err != nil {
		return Result{}, err
	}
	if existing != nil {
		existing.Status = models.RegistrationRegistered
		existing.AmountPaid = amount
		existing.StripePaymentID = paymentID
		if err := s.repo.UpdateEventRegistration(ctx, existing); err != nil {
			return Result{}, err
		}
		log.Infof("[Billing] Updated registration %s for event %s", existing.ID, eventID)
		return handled("registration_updated")
	}

	reg := &models.EventRegistration{
		EventID:         eventID,
		Email:           email,
		FirstName:       strings.TrimSpace(md[metaFirstName]),
		LastName:        strings.TrimSpace(md[metaLastName]),
		PractitionerID:  optionalString(md[metaPractitionerID]),
		Status:          models.RegistrationRegistered,
		AmountPaid:      amount,
		StripePaymentID: paymentID,
	}
	if err := s.repo.CreateEventRegistration(ctx, reg); err != nil {
		return Result{}, err
	}
	log.Infof("[Billing] Registered %s for event %s", email, eventID)

	ev, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		log.Errorf("[Billing] Could not load event %s for confirmation email: %v", eventID, err)
		return handled("registration_created")
	}
	if ev == nil {
		return handled("registration_created")
	}

	location := ev.Location
	if ev.IsVirtual {
		location = "Virtual"
	}
	s.notify(ctx, TemplateEventRegistration, email, EventRegistrationEmailData{
		FirstName:  reg.FirstName,
		EventTitle: ev.Title,
		EventDate:  ev.StartDate.Format("Monday, January 2, 2006"),
		Location:   location,
		AmountPaid: "$" + amount.StringFixed(2),
	})
	return handled("registration_created")
}

func (s *Service) handleCourseEnrollment(ctx context.Context, session *stripe.CheckoutSession) (Result, error) {
	md := session.Metadata
	courseID := strings.TrimSpace(md[metaCourseID])
	userID := strings.TrimSpace(md[metaUserID])
	email := strings.ToLower(strings.TrimSpace(md[metaUserEmail]))
	if courseID == "" || userID == "" || email == "" {
		log.Warnf("[Billing] Course checkout %s is missing courseId, userId or userEmail", session.ID)
		return skipped("missing_enrollment_fields")
	}

	paymentID := checkoutPaymentID(session)
	existing, err := s.repo.FindCourseEnrollment(ctx, courseID, userID, email)
	if err != nil {
		return Result{}, err
	}
	if existing != nil {
		existing.StripePaymentID = paymentID
		if err := s.repo.UpdateCourseEnrollment(ctx, existing); err != nil {
			return Result{}, err
		}
		return handled("enrollment_updated")
	}

	enrollment := &models.CourseEnrollment{
		CourseID:        courseID,
		UserID:          userID,
		Email:           email,
		Progress:        0,
		StripePaymentID: paymentID,
	}
	if err := s.repo.CreateCourseEnrollment(ctx, enrollment); err != nil {
		return Result{}, err
	}
	log.Infof("[Billing] Enrolled user %s in course %s", userID, courseID)
	return handled("enrollment_created")
}

func (s *Service) handleStorePurchase(ctx context.Context, session *stripe.CheckoutSession) (Result, error) {
	existing, err := s.repo.GetOrderByStripeSessionID(ctx, session.ID)
	if err != nil {
		return Result{}, err
	}
	if existing != nil {
		log.Infof("[Billing] Order %s already exists for checkout %s", existing.ID, session.ID)
		return Result{Outcome: OutcomeDuplicate, Reason: "order_exists"}, nil
	}

	var items []purchaseItem
	if err := json.Unmarshal([]byte(session.Metadata[metaItems]), &items); err != nil {
		log.Warnf("[Billing] Checkout %s has unparseable items metadata: %v", session.ID, err)
		return skipped("invalid_items")
	}

	ids := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if _, ok := seen[it.ID]; ok || it.ID == "" {
			continue
		}
		seen[it.ID] = struct{}{}
		ids = append(ids, it.ID)
	}
	products, err := s.repo.ListProductsByIDs(ctx, ids)
	if err != nil {
		return Result{}, err
	}
	catalog := make(map[string]models.Product, len(products))
	for _, p := range products {
		catalog[p.ID] = p
	}

	physical := strings.EqualFold(strings.TrimSpace(session.Metadata[metaHasPhysicalItems]), "true")
	order := &models.Order{
		StripeSessionID: session.ID,
		StripePaymentID: checkoutPaymentID(session),
		Email:           checkoutEmail(session),
		Subtotal:        s.toMajorUnits(session.AmountSubtotal),
		Total:           s.toMajorUnits(session.AmountTotal),
		Status:          models.OrderStatusCompleted,
	}
	if session.ShippingCost != nil {
		order.Shipping = s.toMajorUnits(session.ShippingCost.AmountTotal)
	}
	if physical {
		order.Status = models.OrderStatusProcessing
		applyShippingDetails(order, session.ShippingDetails)
	}

	decrements := make(map[string]int)
	for _, it := range items {
		if it.Quantity <= 0 {
			continue
		}
		product, ok := catalog[it.ID]
		if !ok {
			log.Warnf("[Billing] Checkout %s references unknown product %s", session.ID, it.ID)
			continue
		}
		order.Items = append(order.Items, models.OrderItem{
			ProductID: product.ID,
			Quantity:  it.Quantity,
			Price:     product.Price,
		})
		if !product.IsDigital {
			decrements[product.ID] += it.Quantity
		}
	}

	if err := s.repo.CreateOrder(ctx, order, decrements); err != nil {
		return Result{}, err
	}
	log.Infof("[Billing] Created order %s for checkout %s with %d items", order.ID, session.ID, len(order.Items))
	return handled("order_created")
}

func applyShippingDetails(order *models.Order, details *stripe.ShippingDetails) {
	if details == nil {
		return
	}
	order.ShippingName = details.Name
	if details.Address == nil {
		return
	}
	order.ShippingLine1 = details.Address.Line1
	order.ShippingLine2 = details.Address.Line2
	order.ShippingCity = details.Address.City
	order.ShippingState = details.Address.State
	order.ShippingZip = details.Address.PostalCode
	order.ShippingCountry = details.Address.Country
}

func checkoutCustomerID(session *stripe.CheckoutSession) string {
	if session.Customer == nil {
		return ""
	}
	return session.Customer.ID
}

func checkoutSubscriptionID(session *stripe.CheckoutSession) string {
	if session.Subscription == nil {
		return ""
	}
	return session.Subscription.ID
}

func checkoutPaymentID(session *stripe.CheckoutSession) string {
	if session.PaymentIntent == nil {
		return ""
	}
	return session.PaymentIntent.ID
}

func checkoutEmail(session *stripe.CheckoutSession) string {
	if session.CustomerDetails != nil && session.CustomerDetails.Email != "" {
		return session.CustomerDetails.Email
	}
	return session.CustomerEmail
}
