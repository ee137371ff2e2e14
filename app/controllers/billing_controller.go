package controllers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aktp/portal/internal/pkg/archive"
	"github.com/aktp/portal/internal/pkg/billing"
	"github.com/aktp/portal/internal/pkg/cache"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/stripe/stripe-go/v76"
)

const (
	stripeSignatureHeader = "Stripe-Signature"
	eventLockTTL          = 30 * time.Second
)

// WebhookProcessor verifies and reconciles Stripe events.
type WebhookProcessor interface {
	VerifyEvent(payload []byte, signatureHeader string) (stripe.Event, error)
	ProcessVerifiedEvent(ctx context.Context, event stripe.Event, rawPayload []byte) (billing.Result, error)
}

type BillingController struct {
	processor WebhookProcessor
	locker    cache.Locker
	archiver  archive.Archiver
	timeout   time.Duration
}

// NewBillingController wires the webhook endpoint. locker and archiver are optional.
func NewBillingController(processor WebhookProcessor, locker cache.Locker, archiver archive.Archiver) *BillingController {
	return &BillingController{
		processor: processor,
		locker:    locker,
		archiver:  archiver,
		timeout:   15 * time.Second,
	}
}

func (bc *BillingController) HandleStripeWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := strings.TrimSpace(c.Get(stripeSignatureHeader))

	event, err := bc.processor.VerifyEvent(rawBody, signature)
	if err != nil {
		if errors.Is(err, billing.ErrMissingSignature) {
			log.Warnf("[Webhook] Rejected request from %s: missing %s header", ClientIP(c), stripeSignatureHeader)
			return jsonError(c, fiber.StatusBadRequest, "Missing signature")
		}
		log.Warnf("[Webhook] Rejected request from %s: %v", ClientIP(c), err)
		return jsonError(c, fiber.StatusBadRequest, "Invalid signature")
	}

	ctx, cancel := context.WithTimeout(context.Background(), bc.timeout)
	defer cancel()

	lock, err := bc.obtainLock(ctx, event.ID)
	if errors.Is(err, cache.ErrLockHeld) {
		log.Infof("[Webhook] Event %s is being processed elsewhere, acknowledging", event.ID)
		return received(c)
	}
	if lock != nil {
		defer func() {
			if rErr := lock.Release(context.Background()); rErr != nil {
				log.Warnf("[Webhook] Failed to release lock for %s: %v", event.ID, rErr)
			}
		}()
	}

	if bc.archiver != nil {
		if aErr := bc.archiver.Archive(ctx, event.ID, time.Now(), rawBody); aErr != nil {
			log.Warnf("[Webhook] Failed to archive event %s: %v", event.ID, aErr)
		}
	}

	res, err := bc.processor.ProcessVerifiedEvent(ctx, event, rawBody)
	if err != nil {
		log.Errorf("[Webhook] Handler failed for %s (%s): %v", event.ID, event.Type, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Webhook handler failed",
			"message": err.Error(),
		})
	}

	log.Infof("[Webhook] %s %s -> %s %s", event.ID, event.Type, res.Outcome, res.Reason)
	return received(c)
}

// obtainLock returns (nil, nil) when no lock could be taken for reasons
// other than another holder; processing then continues unlocked.
func (bc *BillingController) obtainLock(ctx context.Context, eventID string) (cache.Lock, error) {
	if bc.locker == nil || eventID == "" {
		return nil, nil
	}
	lock, err := bc.locker.Obtain(ctx, "lock:stripe-event:"+eventID, eventLockTTL)
	if errors.Is(err, cache.ErrLockHeld) {
		return nil, err
	}
	if err != nil {
		log.Warnf("[Webhook] Redis lock unavailable for %s, proceeding without lock: %v", eventID, err)
		return nil, nil
	}
	return lock, nil
}

func received(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "received": true})
}
