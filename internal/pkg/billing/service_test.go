package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aktp/portal/app/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(repo Repository, notifier Notifier) *Service {
	cfg := DefaultConfig()
	cfg.WebhookSecret = testWebhookSecret
	return NewService(repo, notifier, cfg, WithClock(func() time.Time { return fixedNow }))
}

func testEvent(t *testing.T, id, eventType string, object any) stripe.Event {
	t.Helper()
	raw, err := json.Marshal(object)
	require.NoError(t, err)
	return stripe.Event{
		ID:   id,
		Type: stripe.EventType(eventType),
		Data: &stripe.EventData{Raw: raw},
	}
}

func checkoutObject(id string, md map[string]string, extra map[string]any) map[string]any {
	obj := map[string]any{
		"id":       id,
		"object":   "checkout.session",
		"metadata": md,
		"mode":     "payment",
	}
	for k, v := range extra {
		obj[k] = v
	}
	return obj
}

func TestHandleEvent_SubscriptionCheckoutEndToEnd(t *testing.T) {
	repo := newMemoryRepo()
	repo.addPractitioner(models.Practitioner{
		ID:               "p1",
		FirstName:        "Ada",
		LastName:         "Lovelace",
		Email:            "ada@example.com",
		MembershipTier:   models.TierFree,
		MembershipStatus: models.MembershipInactive,
	})
	notifier := &recordingNotifier{err: errors.New("smtp down")}
	svc := newTestService(repo, notifier)

	event := testEvent(t, "evt_1", EventCheckoutSessionCompleted, checkoutObject("cs_1",
		map[string]string{"type": "subscription", "practitionerId": "p1", "tier": "elite"},
		map[string]any{"mode": "subscription", "customer": "cus_1", "subscription": "sub_1"},
	))

	res, err := svc.HandleEvent(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, OutcomeHandled, res.Outcome)

	p := repo.practitioners["p1"]
	assert.Equal(t, models.TierElite, p.MembershipTier)
	assert.Equal(t, models.MembershipActive, p.MembershipStatus)
	require.NotNil(t, p.StripeCustomerID)
	assert.Equal(t, "cus_1", *p.StripeCustomerID)
	require.NotNil(t, p.StripeSubscriptionID)
	assert.Equal(t, "sub_1", *p.StripeSubscriptionID)
	require.NotNil(t, p.MembershipStartDate)
	assert.True(t, fixedNow.Equal(*p.MembershipStartDate))
	assert.Nil(t, p.MembershipExpiry)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, TemplateWelcome, notifier.sent[0].Template)
	assert.Equal(t, "ada@example.com", notifier.sent[0].To)
}

func TestHandleEvent_SubscriptionCheckoutDefaults(t *testing.T) {
	t.Run("unknown tier falls back to default", func(t *testing.T) {
		repo := newMemoryRepo()
		repo.addPractitioner(models.Practitioner{ID: "p1", Email: "p1@example.com"})
		svc := newTestService(repo, &recordingNotifier{})

		event := testEvent(t, "evt_1", EventCheckoutSessionCompleted, checkoutObject("cs_1",
			map[string]string{"practitionerId": "p1", "tier": "platinum"},
			map[string]any{"mode": "subscription", "customer": "cus_1"},
		))
		res, err := svc.HandleEvent(context.Background(), event)
		require.NoError(t, err)
		assert.Equal(t, OutcomeHandled, res.Outcome)
		assert.Equal(t, models.TierProfessional, repo.practitioners["p1"].MembershipTier)
	})

	t.Run("missing practitioner id writes nothing", func(t *testing.T) {
		repo := newMemoryRepo()
		notifier := &recordingNotifier{}
		svc := newTestService(repo, notifier)

		event := testEvent(t, "evt_2", EventCheckoutSessionCompleted, checkoutObject("cs_2",
			map[string]string{"type": "subscription", "tier": "elite"},
			map[string]any{"mode": "subscription"},
		))
		res, err := svc.HandleEvent(context.Background(), event)
		require.NoError(t, err)
		assert.Equal(t, OutcomeSkipped, res.Outcome)
		assert.Equal(t, "missing_practitioner_id", res.Reason)
		assert.Zero(t, repo.membershipSaves)
		assert.Empty(t, notifier.sent)
	})

	t.Run("unclassified subscription mode uses subscription handler", func(t *testing.T) {
		repo := newMemoryRepo()
		svc := newTestService(repo, &recordingNotifier{})

		event := testEvent(t, "evt_3", EventCheckoutSessionCompleted, checkoutObject("cs_3",
			map[string]string{"practitionerId": "p9"},
			map[string]any{"mode": "subscription"},
		))
		res, err := svc.HandleEvent(context.Background(), event)
		require.NoError(t, err)
		assert.Equal(t, OutcomeSkipped, res.Outcome)
		assert.Equal(t, "practitioner_not_found", res.Reason)
	})

	t.Run("unclassified payment mode is log only", func(t *testing.T) {
		repo := newMemoryRepo()
		svc := newTestService(repo, &recordingNotifier{})

		event := testEvent(t, "evt_4", EventCheckoutSessionCompleted, checkoutObject("cs_4", map[string]string{}, nil))
		res, err := svc.HandleEvent(context.Background(), event)
		require.NoError(t, err)
		assert.Equal(t, OutcomeIgnored, res.Outcome)
	})
}

func TestHandleEvent_EventRegistrationIsIdempotent(t *testing.T) {
	repo := newMemoryRepo()
	repo.events["e1"] = &models.Event{ID: "e1", Title: "Annual Summit", Location: "Denver, CO", StartDate: fixedNow}
	notifier := &recordingNotifier{}
	svc := newTestService(repo, notifier)

	md := map[string]string{"type": "event_registration", "eventId": "e1", "email": "Jane@Example.com", "firstName": "Jane"}
	first := testEvent(t, "evt_1", EventCheckoutSessionCompleted, checkoutObject("cs_1", md, map[string]any{"amount_total": 15000, "payment_intent": "pi_1"}))
	second := testEvent(t, "evt_2", EventCheckoutSessionCompleted, checkoutObject("cs_2", md, map[string]any{"amount_total": 17500, "payment_intent": "pi_2"}))

	res, err := svc.HandleEvent(context.Background(), first)
	require.NoError(t, err)
	assert.Equal(t, "registration_created", res.Reason)

	res, err = svc.HandleEvent(context.Background(), second)
	require.NoError(t, err)
	assert.Equal(t, "registration_updated", res.Reason)

	require.Len(t, repo.registrations, 1)
	reg := repo.registrations[0]
	assert.Equal(t, "jane@example.com", reg.Email)
	assert.Equal(t, models.RegistrationRegistered, reg.Status)
	assert.True(t, decimal.RequireFromString("175").Equal(reg.AmountPaid), "got %s", reg.AmountPaid)
	assert.Equal(t, "pi_2", reg.StripePaymentID)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, TemplateEventRegistration, notifier.sent[0].Template)
	data, ok := notifier.sent[0].Data.(EventRegistrationEmailData)
	require.True(t, ok)
	assert.Equal(t, "Annual Summit", data.EventTitle)
	assert.Equal(t, "$150.00", data.AmountPaid)
}

func TestHandleEvent_EventRegistrationMissingEmail(t *testing.T) {
	repo := newMemoryRepo()
	repo.events["e1"] = &models.Event{ID: "e1", Title: "Annual Summit"}
	notifier := &recordingNotifier{}
	svc := newTestService(repo, notifier)

	event := testEvent(t, "evt_1", EventCheckoutSessionCompleted, checkoutObject("cs_1",
		map[string]string{"type": "event_registration", "eventId": "e1"}, nil))
	res, err := svc.HandleEvent(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, res.Outcome)
	assert.Empty(t, repo.registrations)
	assert.Empty(t, notifier.sent)
}

func TestHandleEvent_EventRegistrationWithoutEventRecord(t *testing.T) {
	repo := newMemoryRepo()
	notifier := &recordingNotifier{}
	svc := newTestService(repo, notifier)

	event := testEvent(t, "evt_1", EventCheckoutSessionCompleted, checkoutObject("cs_1",
		map[string]string{"eventId": "missing", "email": "a@example.com"}, nil))
	res, err := svc.HandleEvent(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, OutcomeHandled, res.Outcome)
	assert.Len(t, repo.registrations, 1)
	assert.Empty(t, notifier.sent)
}

func TestHandleEvent_CourseEnrollment(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, &recordingNotifier{})

	md := map[string]string{"courseId": "c1", "userId": "u1", "userEmail": "U1@example.com"}
	res, err := svc.HandleEvent(context.Background(), testEvent(t, "evt_1", EventCheckoutSessionCompleted,
		checkoutObject("cs_1", md, map[string]any{"payment_intent": "pi_1"})))
	require.NoError(t, err)
	assert.Equal(t, "enrollment_created", res.Reason)

	md["userId"] = "u-other"
	res, err = svc.HandleEvent(context.Background(), testEvent(t, "evt_2", EventCheckoutSessionCompleted,
		checkoutObject("cs_2", md, map[string]any{"payment_intent": "pi_2"})))
	require.NoError(t, err)
	assert.Equal(t, "enrollment_updated", res.Reason)

	require.Len(t, repo.enrollments, 1)
	assert.Equal(t, 0, repo.enrollments[0].Progress)
	assert.Equal(t, "pi_2", repo.enrollments[0].StripePaymentID)

	res, err = svc.HandleEvent(context.Background(), testEvent(t, "evt_3", EventCheckoutSessionCompleted,
		checkoutObject("cs_3", map[string]string{"courseId": "c1", "userId": "u1"}, nil)))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, res.Outcome)
}

func TestHandleEvent_StorePurchaseInventory(t *testing.T) {
	repo := newMemoryRepo()
	repo.products["digital"] = &models.Product{ID: "digital", Price: decimal.RequireFromString("19.99"), IsDigital: true, Inventory: 100}
	repo.products["book"] = &models.Product{ID: "book", Price: decimal.RequireFromString("45.00"), Inventory: 5}
	svc := newTestService(repo, &recordingNotifier{})

	items := `[{"id":"digital","quantity":3},{"id":"book","quantity":2},{"id":"ghost","quantity":1}]`
	event := testEvent(t, "evt_1", EventCheckoutSessionCompleted, checkoutObject("cs_store",
		map[string]string{"type": "store_purchase", "items": items, "hasPhysicalItems": "true"},
		map[string]any{
			"amount_subtotal":  14997,
			"amount_total":     15997,
			"shipping_cost":    map[string]any{"amount_total": 1000},
			"customer_details": map[string]any{"email": "buyer@example.com"},
			"shipping_details": map[string]any{
				"name":    "Buyer",
				"address": map[string]any{"line1": "1 Main St", "city": "Austin", "state": "TX", "postal_code": "78701", "country": "US"},
			},
		},
	))

	res, err := svc.HandleEvent(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, OutcomeHandled, res.Outcome)

	assert.Equal(t, 3, repo.products["book"].Inventory)
	assert.Equal(t, 100, repo.products["digital"].Inventory)

	require.Len(t, repo.orders, 1)
	order := repo.orders[0]
	assert.Equal(t, "cs_store", order.StripeSessionID)
	assert.Equal(t, "buyer@example.com", order.Email)
	assert.True(t, decimal.RequireFromString("149.97").Equal(order.Subtotal))
	assert.True(t, decimal.RequireFromString("10").Equal(order.Shipping))
	assert.True(t, decimal.RequireFromString("159.97").Equal(order.Total))
	assert.Equal(t, models.OrderStatusProcessing, order.Status)
	assert.Equal(t, "Austin", order.ShippingCity)
	require.Len(t, order.Items, 2)
	assert.True(t, decimal.RequireFromString("45").Equal(order.Items[1].Price))

	res, err = svc.HandleEvent(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, res.Outcome)
	assert.Len(t, repo.orders, 1)
	assert.Equal(t, 3, repo.products["book"].Inventory)
}

func TestHandleEvent_StorePurchaseInvalidItems(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, &recordingNotifier{})

	event := testEvent(t, "evt_1", EventCheckoutSessionCompleted, checkoutObject("cs_1",
		map[string]string{"items": "not-json"}, nil))
	res, err := svc.HandleEvent(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, res.Outcome)
	assert.Empty(t, repo.orders)
}

func TestHandleEvent_SubscriptionLifecycle(t *testing.T) {
	repo := newMemoryRepo()
	repo.addPractitioner(models.Practitioner{
		ID:                   "p1",
		MembershipTier:       models.TierPremium,
		MembershipStatus:     models.MembershipActive,
		StripeCustomerID:     strPtr("cus_123"),
		StripeSubscriptionID: strPtr("sub_123"),
	})
	svc := newTestService(repo, &recordingNotifier{})
	periodEnd := fixedNow.Add(30 * 24 * time.Hour).Unix()

	res, err := svc.HandleEvent(context.Background(), testEvent(t, "evt_1", EventSubscriptionUpdated, map[string]any{
		"id":                 "sub_123",
		"object":             "subscription",
		"customer":           "cus_123",
		"status":             "past_due",
		"current_period_end": periodEnd,
		"metadata":           map[string]string{"tier": "elite"},
	}))
	require.NoError(t, err)
	assert.Equal(t, OutcomeHandled, res.Outcome)
	p := repo.practitioners["p1"]
	assert.Equal(t, models.MembershipPastDue, p.MembershipStatus)
	assert.Equal(t, models.TierElite, p.MembershipTier)
	require.NotNil(t, p.MembershipExpiry)
	assert.Equal(t, periodEnd, p.MembershipExpiry.Unix())

	res, err = svc.HandleEvent(context.Background(), testEvent(t, "evt_2", EventSubscriptionDeleted, map[string]any{
		"id":       "sub_123",
		"object":   "subscription",
		"customer": "cus_123",
		"status":   "canceled",
	}))
	require.NoError(t, err)
	assert.Equal(t, OutcomeHandled, res.Outcome)
	assert.Equal(t, models.TierFree, p.MembershipTier)
	assert.Equal(t, models.MembershipCancelled, p.MembershipStatus)
	assert.Nil(t, p.StripeSubscriptionID)
}

func TestHandleEvent_SubscriptionForUnlinkedCustomer(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, &recordingNotifier{})

	for _, eventType := range []string{EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted, EventInvoicePaid, EventInvoicePaymentFailed} {
		res, err := svc.HandleEvent(context.Background(), testEvent(t, "evt_"+eventType, eventType, map[string]any{
			"id":       "obj_1",
			"customer": "cus_unknown",
			"status":   "active",
		}))
		require.NoError(t, err, eventType)
		assert.Equal(t, OutcomeSkipped, res.Outcome, eventType)
		assert.Equal(t, "account_not_linked", res.Reason, eventType)
	}
	assert.Zero(t, repo.membershipSaves)
}

func TestHandleEvent_Invoices(t *testing.T) {
	repo := newMemoryRepo()
	repo.addPractitioner(models.Practitioner{
		ID:               "p1",
		MembershipStatus: models.MembershipPastDue,
		StripeCustomerID: strPtr("cus_1"),
	})
	svc := newTestService(repo, &recordingNotifier{})
	invoice := map[string]any{"id": "in_1", "object": "invoice", "customer": "cus_1"}

	res, err := svc.HandleEvent(context.Background(), testEvent(t, "evt_1", EventInvoicePaymentSucceeded, invoice))
	require.NoError(t, err)
	assert.Equal(t, "membership_reactivated", res.Reason)
	assert.Equal(t, models.MembershipActive, repo.practitioners["p1"].MembershipStatus)

	saves := repo.membershipSaves
	res, err = svc.HandleEvent(context.Background(), testEvent(t, "evt_2", EventInvoicePaid, invoice))
	require.NoError(t, err)
	assert.Equal(t, "already_active", res.Reason)
	assert.Equal(t, saves, repo.membershipSaves)

	res, err = svc.HandleEvent(context.Background(), testEvent(t, "evt_3", EventInvoicePaymentFailed, invoice))
	require.NoError(t, err)
	assert.Equal(t, OutcomeHandled, res.Outcome)
	assert.Equal(t, models.MembershipPastDue, repo.practitioners["p1"].MembershipStatus)
}

func TestHandleEvent_LogOnlyAndUnknownTypes(t *testing.T) {
	svc := newTestService(newMemoryRepo(), &recordingNotifier{})

	res, err := svc.HandleEvent(context.Background(), testEvent(t, "evt_1", EventPaymentIntentSucceeded, map[string]any{"id": "pi_1", "amount": 500}))
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, res.Outcome)

	res, err = svc.HandleEvent(context.Background(), testEvent(t, "evt_2", EventPaymentIntentPaymentFailed, map[string]any{
		"id":                 "pi_2",
		"last_payment_error": map[string]any{"message": "card declined"},
	}))
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, res.Outcome)

	res, err = svc.HandleEvent(context.Background(), testEvent(t, "evt_3", "customer.tax_id.created", map[string]any{"id": "txi_1"}))
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, res.Outcome)
	assert.Equal(t, "unhandled_type", res.Reason)
}

func TestHandleEvent_InfrastructureErrors(t *testing.T) {
	t.Run("store failure", func(t *testing.T) {
		repo := newMemoryRepo()
		repo.addPractitioner(models.Practitioner{ID: "p1", StripeCustomerID: strPtr("cus_1")})
		repo.failSaves = errors.New("db gone")
		svc := newTestService(repo, &recordingNotifier{})

		_, err := svc.HandleEvent(context.Background(), testEvent(t, "evt_1", EventInvoicePaymentFailed, map[string]any{"customer": "cus_1"}))
		assert.EqualError(t, err, "db gone")
	})

	t.Run("missing data object", func(t *testing.T) {
		svc := newTestService(newMemoryRepo(), &recordingNotifier{})
		_, err := svc.HandleEvent(context.Background(), stripe.Event{ID: "evt_1", Type: EventInvoicePaid})
		assert.Error(t, err)
	})

	t.Run("panic is recovered", func(t *testing.T) {
		svc := newTestService(panickingRepo{newMemoryRepo()}, &recordingNotifier{})
		res, err := svc.HandleEvent(context.Background(), testEvent(t, "evt_1", EventCheckoutSessionCompleted,
			checkoutObject("cs_1", map[string]string{"practitionerId": "p1", "tier": "elite"}, nil)))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "panic handling")
		assert.Equal(t, OutcomeFailed, res.Outcome)
	})
}

type panickingRepo struct {
	*memoryRepo
}

func (panickingRepo) GetPractitionerByID(context.Context, string) (*models.Practitioner, error) {
	panic("boom")
}

func TestProcessVerifiedEvent_Ledger(t *testing.T) {
	repo := newMemoryRepo()
	repo.events["e1"] = &models.Event{ID: "e1", Title: "Summit"}
	notifier := &recordingNotifier{}
	svc := newTestService(repo, notifier)

	event := testEvent(t, "evt_dup", EventCheckoutSessionCompleted, checkoutObject("cs_1",
		map[string]string{"eventId": "e1", "email": "a@example.com"}, nil))
	raw, err := json.Marshal(map[string]any{"id": "evt_dup", "type": EventCheckoutSessionCompleted})
	require.NoError(t, err)

	res, err := svc.ProcessVerifiedEvent(context.Background(), event, raw)
	require.NoError(t, err)
	assert.Equal(t, OutcomeHandled, res.Outcome)

	res, err = svc.ProcessVerifiedEvent(context.Background(), event, raw)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, res.Outcome)

	require.Len(t, repo.webhooks, 1)
	assert.Equal(t, models.WebhookOutcomeHandled, repo.webhooks[0].Outcome)
	assert.Equal(t, 1, repo.webhooks[0].Attempts)
	assert.Len(t, notifier.sent, 1)
}

func TestProcessVerifiedEvent_SkippedEventsRunAgain(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, &recordingNotifier{})

	event := testEvent(t, "evt_race", EventSubscriptionUpdated, map[string]any{
		"id": "sub_1", "customer": "cus_1", "status": "active",
	})
	res, err := svc.ProcessVerifiedEvent(context.Background(), event, []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, res.Outcome)
	assert.Equal(t, "account_not_linked", repo.webhooks[0].ProcessingError)

	repo.addPractitioner(models.Practitioner{ID: "p1", StripeCustomerID: strPtr("cus_1")})
	res, err = svc.ProcessVerifiedEvent(context.Background(), event, []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, OutcomeHandled, res.Outcome)
	assert.Equal(t, 2, repo.webhooks[0].Attempts)
	assert.Equal(t, models.MembershipActive, repo.practitioners["p1"].MembershipStatus)
}

func TestReplay(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, &recordingNotifier{})

	payload := `{"id":"evt_r","object":"event","type":"invoice.payment_failed","data":{"object":{"id":"in_1","object":"invoice","customer":"cus_1"}}}`
	created, stored, err := svc.RecordWebhookEvent(context.Background(), WebhookEventInput{
		Provider:        models.BillingProviderStripe,
		ProviderEventID: "evt_r",
		EventType:       EventInvoicePaymentFailed,
		PayloadJSON:     payload,
	})
	require.NoError(t, err)
	require.True(t, created)
	require.NoError(t, svc.MarkWebhookProcessed(context.Background(), stored.ID, Result{Outcome: OutcomeSkipped, Reason: "account_not_linked"}, nil))

	repo.addPractitioner(models.Practitioner{ID: "p1", MembershipStatus: models.MembershipActive, StripeCustomerID: strPtr("cus_1")})

	results := svc.Replay(context.Background(), []uint{stored.ID, 999})
	require.Len(t, results, 2)
	require.NoError(t, results[0].Err)
	assert.Equal(t, OutcomeHandled, results[0].Result.Outcome)
	assert.Equal(t, "evt_r", results[0].EventID)
	assert.Equal(t, models.MembershipPastDue, repo.practitioners["p1"].MembershipStatus)
	assert.ErrorIs(t, results[1].Err, ErrWebhookEventNotFound)

	pending, err := svc.ListWebhookEvents(context.Background(), WebhookEventFilter{PendingOnly: true})
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRecordWebhookEvent_HashesMissingID(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, &recordingNotifier{})

	_, stored, err := svc.RecordWebhookEvent(context.Background(), WebhookEventInput{Provider: "Stripe", PayloadJSON: `{"a":1}`})
	require.NoError(t, err)
	assert.Equal(t, "stripe", stored.Provider)
	assert.Contains(t, stored.ProviderEventID, "hash:")

	_, _, err = svc.RecordWebhookEvent(context.Background(), WebhookEventInput{})
	assert.Error(t, err)
}

func TestMetricsObserveOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := MustNewMetrics(reg)
	cfg := DefaultConfig()
	svc := NewService(newMemoryRepo(), &recordingNotifier{}, cfg, WithMetrics(metrics))

	for i := 0; i < 2; i++ {
		_, err := svc.HandleEvent(context.Background(), testEvent(t, fmt.Sprintf("evt_%d", i), "charge.refunded", map[string]any{}))
		require.NoError(t, err)
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.events.WithLabelValues("charge.refunded", string(OutcomeIgnored))))
	assert.Same(t, metrics.events, MustNewMetrics(reg).events)
}
