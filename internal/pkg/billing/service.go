package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aktp/portal/app/models"
	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"gorm.io/gorm"
)

// ErrWebhookEventNotFound is returned by Replay for unknown ledger ids.
var ErrWebhookEventNotFound = errors.New("webhook event not found")

// Service reconciles verified Stripe events into local state.
type Service struct {
	repo     Repository
	notifier Notifier
	cfg      Config
	metrics  *Metrics
	now      func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithMetrics reports processed events to m.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the time source used for membership start dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a billing service from an injected repository and notifier.
func NewService(repo Repository, notifier Notifier, cfg Config, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		notifier: notifier,
		cfg:      cfg.normalized(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, notifier Notifier, cfg Config, opts ...Option) *Service {
	return NewService(NewRepository(db), notifier, cfg, opts...)
}

// Config returns the effective reconciler configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// VerifyEvent authenticates a raw webhook body with the configured secret.
func (s *Service) VerifyEvent(payload []byte, signatureHeader string) (stripe.Event, error) {
	return VerifyStripeSignature(payload, signatureHeader, s.cfg.WebhookSecret, s.cfg.SignatureTolerance)
}

// HandleEvent dispatches a verified event to exactly one handler. Business
// aborts come back as OutcomeSkipped; the error is reserved for store
// failures, undecodable objects and recovered panics.
func (s *Service) HandleEvent(ctx context.Context, event stripe.Event) (res Result, err error) {
	start := s.now()
	eventType := string(event.Type)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic handling %s %s: %v", eventType, event.ID, r)
			res = Result{Outcome: OutcomeFailed, Reason: "panic"}
		}
		outcome := res.Outcome
		if err != nil {
			outcome = OutcomeFailed
		}
		s.metrics.observe(eventType, outcome, s.now().Sub(start))
	}()

	switch eventType {
	case EventCheckoutSessionCompleted:
		return s.handleCheckoutCompleted(ctx, event)
	case EventSubscriptionCreated, EventSubscriptionUpdated:
		return s.handleSubscriptionChanged(ctx, event)
	case EventSubscriptionDeleted:
		return s.handleSubscriptionDeleted(ctx, event)
	case EventInvoicePaid, EventInvoicePaymentSucceeded:
		return s.handleInvoicePaid(ctx, event)
	case EventInvoicePaymentFailed:
		return s.handleInvoiceFailed(ctx, event)
	case EventPaymentIntentSucceeded:
		return s.logPaymentIntent(event, "succeeded")
	case EventPaymentIntentPaymentFailed:
		return s.logPaymentIntent(event, "failed")
	default:
		log.Infof("[Billing] Unhandled event type %s (%s)", eventType, event.ID)
		return Result{Outcome: OutcomeIgnored, Reason: "unhandled_type"}, nil
	}
}

// ProcessVerifiedEvent records the event in the ledger, runs it unless a
// previous delivery already settled it, and stores the outcome.
func (s *Service) ProcessVerifiedEvent(ctx context.Context, event stripe.Event, rawPayload []byte) (Result, error) {
	created, stored, err := s.RecordWebhookEvent(ctx, WebhookEventInput{
		Provider:        models.BillingProviderStripe,
		ProviderEventID: event.ID,
		EventType:       string(event.Type),
		PayloadJSON:     string(rawPayload),
	})
	if err != nil {
		return Result{}, fmt.Errorf("record webhook event: %w", err)
	}
	if !created && stored.IsSettled() {
		log.Infof("[Billing] Event %s already processed (%s), acknowledging redelivery", event.ID, stored.Outcome)
		return Result{Outcome: OutcomeDuplicate, Reason: "already_processed"}, nil
	}

	res, handleErr := s.HandleEvent(ctx, event)
	if markErr := s.MarkWebhookProcessed(ctx, stored.ID, res, handleErr); markErr != nil {
		log.Errorf("[Billing] Failed to mark event %s processed: %v", event.ID, markErr)
	}
	return res, handleErr
}

// RecordWebhookEvent persists webhook payloads idempotently.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (bool, *models.BillingWebhookEvent, error) {
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		return false, nil, errors.New("provider is required")
	}
	eventID := strings.TrimSpace(in.ProviderEventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.BillingWebhookEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(in.EventType),
		PayloadJSON:     in.PayloadJSON,
	}
	return s.repo.CreateWebhookEventIfNotExists(ctx, event)
}

// MarkWebhookProcessed stores the outcome of a run. Skip reasons and
// processing errors share the processing_error column.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, res Result, processingErr error) error {
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	outcome := res.Outcome
	msg := ""
	if res.Outcome == OutcomeSkipped {
		msg = res.Reason
	}
	if processingErr != nil {
		outcome = OutcomeFailed
		msg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(ctx, webhookEventID, string(outcome), msg)
}

// ListWebhookEvents returns ledger rows for operators.
func (s *Service) ListWebhookEvents(ctx context.Context, filter WebhookEventFilter) ([]models.BillingWebhookEvent, error) {
	return s.repo.ListWebhookEvents(ctx, filter)
}

// ReplayResult is the outcome of re-running one recorded event.
type ReplayResult struct {
	ID      uint
	EventID string
	Type    string
	Result  Result
	Err     error
}

// Replay re-runs recorded events from their stored payloads. The payloads
// were verified on receipt, so no signature check is done here.
func (s *Service) Replay(ctx context.Context, ids []uint) []ReplayResult {
	results := make([]ReplayResult, 0, len(ids))
	for _, id := range ids {
		rr := ReplayResult{ID: id}
		stored, err := s.repo.GetWebhookEvent(ctx, id)
		if err != nil {
			rr.Err = err
			results = append(results, rr)
			continue
		}
		if stored == nil {
			rr.Err = fmt.Errorf("%w: %d", ErrWebhookEventNotFound, id)
			results = append(results, rr)
			continue
		}
		rr.EventID = stored.ProviderEventID
		rr.Type = stored.EventType

		var event stripe.Event
		if err := json.Unmarshal([]byte(stored.PayloadJSON), &event); err != nil {
			rr.Err = fmt.Errorf("decode stored payload: %w", err)
			results = append(results, rr)
			continue
		}

		log.Infof("[Billing] Replaying event %s (%s)", stored.ProviderEventID, stored.EventType)
		rr.Result, rr.Err = s.HandleEvent(ctx, event)
		if markErr := s.MarkWebhookProcessed(ctx, stored.ID, rr.Result, rr.Err); markErr != nil {
			log.Errorf("[Billing] Failed to mark replayed event %s: %v", stored.ProviderEventID, markErr)
		}
		results = append(results, rr)
	}
	return results
}

func (s *Service) logPaymentIntent(event stripe.Event, state string) (Result, error) {
	var pi stripe.PaymentIntent
	if err := decodeEventObject(event, &pi); err != nil {
		return Result{}, err
	}
	if state == "failed" && pi.LastPaymentError != nil {
		log.Warnf("[Billing] Payment intent %s failed: %s", pi.ID, pi.LastPaymentError.Msg)
	} else {
		log.Infof("[Billing] Payment intent %s %s (amount %d)", pi.ID, state, pi.Amount)
	}
	return Result{Outcome: OutcomeIgnored, Reason: "log_only"}, nil
}

// notify sends a best-effort notification. Failures are logged and never
// reach the caller.
func (s *Service) notify(ctx context.Context, template, to string, data any) {
	if s.notifier == nil {
		return
	}
	to = strings.TrimSpace(to)
	if to == "" {
		log.Warnf("[Billing] No recipient for %s notification", template)
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("[Billing] Notification %s to %s panicked: %v", template, to, r)
		}
	}()
	if err := s.notifier.Send(ctx, template, to, data); err != nil {
		log.Errorf("[Billing] Failed to send %s notification to %s: %v", template, to, err)
	}
}

func (s *Service) toMajorUnits(amount int64) decimal.Decimal {
	return decimal.NewFromInt(amount).Div(decimal.NewFromInt(s.cfg.MinorUnitDivisor))
}

func decodeEventObject(event stripe.Event, v any) error {
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return fmt.Errorf("event %s carries no data object", event.ID)
	}
	if err := json.Unmarshal(event.Data.Raw, v); err != nil {
		return fmt.Errorf("decode %s object: %w", event.Type, err)
	}
	return nil
}

func skipped(reason string) (Result, error) {
	return Result{Outcome: OutcomeSkipped, Reason: reason}, nil
}

func handled(reason string) (Result, error) {
	return Result{Outcome: OutcomeHandled, Reason: reason}, nil
}

func optionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
