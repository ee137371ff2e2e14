package billing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aktp/portal/app/models"
	"github.com/google/uuid"
)

type memoryRepo struct {
	practitioners map[string]*models.Practitioner
	events        map[string]*models.Event
	registrations []*models.EventRegistration
	enrollments   []*models.CourseEnrollment
	orders        []*models.Order
	products      map[string]*models.Product
	webhooks      []*models.BillingWebhookEvent

	membershipSaves int
	failSaves       error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		practitioners: map[string]*models.Practitioner{},
		events:        map[string]*models.Event{},
		products:      map[string]*models.Product{},
	}
}

func (r *memoryRepo) addPractitioner(p models.Practitioner) *models.Practitioner {
	cp := p
	r.practitioners[cp.ID] = &cp
	return &cp
}

func (r *memoryRepo) GetPractitionerByID(_ context.Context, id string) (*models.Practitioner, error) {
	p, ok := r.practitioners[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *memoryRepo) GetPractitionerByStripeCustomerID(_ context.Context, customerID string) (*models.Practitioner, error) {
	for _, p := range r.practitioners {
		if p.StripeCustomerID != nil && *p.StripeCustomerID == customerID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memoryRepo) SaveMembership(_ context.Context, p *models.Practitioner) error {
	if r.failSaves != nil {
		return r.failSaves
	}
	stored, ok := r.practitioners[p.ID]
	if !ok {
		return errors.New("practitioner not found")
	}
	stored.MembershipTier = p.MembershipTier
	stored.MembershipStatus = p.MembershipStatus
	stored.StripeCustomerID = p.StripeCustomerID
	stored.StripeSubscriptionID = p.StripeSubscriptionID
	stored.MembershipStartDate = p.MembershipStartDate
	stored.MembershipExpiry = p.MembershipExpiry
	r.membershipSaves++
	return nil
}

func (r *memoryRepo) GetEvent(_ context.Context, id string) (*models.Event, error) {
	e, ok := r.events[id]
	if !ok {
		return nil, nil
	}
	return e, nil
}

func (r *memoryRepo) FindEventRegistration(_ context.Context, eventID, email string) (*models.EventRegistration, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, reg := range r.registrations {
		if reg.EventID == eventID && reg.Email == email {
			cp := *reg
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memoryRepo) CreateEventRegistration(_ context.Context, reg *models.EventRegistration) error {
	reg.ID = uuid.NewString()
	reg.Email = strings.ToLower(reg.Email)
	cp := *reg
	r.registrations = append(r.registrations, &cp)
	return nil
}

func (r *memoryRepo) UpdateEventRegistration(_ context.Context, reg *models.EventRegistration) error {
	for _, stored := range r.registrations {
		if stored.ID == reg.ID {
			stored.Status = reg.Status
			stored.AmountPaid = reg.AmountPaid
			stored.StripePaymentID = reg.StripePaymentID
			return nil
		}
	}
	return errors.New("registration not found")
}

func (r *memoryRepo) FindCourseEnrollment(_ context.Context, courseID, userID, email string) (*models.CourseEnrollment, error) {
	for _, e := range r.enrollments {
		if e.CourseID == courseID && (e.UserID == userID || e.Email == strings.ToLower(email)) {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memoryRepo) CreateCourseEnrollment(_ context.Context, e *models.CourseEnrollment) error {
	e.ID = uuid.NewString()
	cp := *e
	r.enrollments = append(r.enrollments, &cp)
	return nil
}

func (r *memoryRepo) UpdateCourseEnrollment(_ context.Context, e *models.CourseEnrollment) error {
	for _, stored := range r.enrollments {
		if stored.ID == e.ID {
			stored.StripePaymentID = e.StripePaymentID
			return nil
		}
	}
	return errors.New("enrollment not found")
}

func (r *memoryRepo) GetOrderByStripeSessionID(_ context.Context, sessionID string) (*models.Order, error) {
	for _, o := range r.orders {
		if o.StripeSessionID == sessionID {
			return o, nil
		}
	}
	return nil, nil
}

func (r *memoryRepo) ListProductsByIDs(_ context.Context, ids []string) ([]models.Product, error) {
	var out []models.Product
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *memoryRepo) CreateOrder(_ context.Context, order *models.Order, decrements map[string]int) error {
	order.ID = uuid.NewString()
	for productID, qty := range decrements {
		if p, ok := r.products[productID]; ok {
			p.Inventory -= qty
		}
	}
	r.orders = append(r.orders, order)
	return nil
}

func (r *memoryRepo) CreateWebhookEventIfNotExists(_ context.Context, event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	for _, stored := range r.webhooks {
		if stored.Provider == event.Provider && stored.ProviderEventID == event.ProviderEventID {
			return false, stored, nil
		}
	}
	event.ID = uint(len(r.webhooks) + 1)
	r.webhooks = append(r.webhooks, event)
	return true, event, nil
}

func (r *memoryRepo) MarkWebhookProcessed(_ context.Context, id uint, outcome, processingError string) error {
	for _, stored := range r.webhooks {
		if stored.ID == id {
			now := time.Now()
			stored.ProcessedAt = &now
			stored.Outcome = outcome
			stored.ProcessingError = processingError
			stored.Attempts++
			return nil
		}
	}
	return errors.New("webhook event not found")
}

func (r *memoryRepo) GetWebhookEvent(_ context.Context, id uint) (*models.BillingWebhookEvent, error) {
	for _, stored := range r.webhooks {
		if stored.ID == id {
			return stored, nil
		}
	}
	return nil, nil
}

func (r *memoryRepo) ListWebhookEvents(_ context.Context, filter WebhookEventFilter) ([]models.BillingWebhookEvent, error) {
	var out []models.BillingWebhookEvent
	for _, stored := range r.webhooks {
		if filter.EventType != "" && stored.EventType != filter.EventType {
			continue
		}
		if filter.PendingOnly && stored.IsSettled() {
			continue
		}
		out = append(out, *stored)
	}
	return out, nil
}

type sentNotification struct {
	Template string
	To       string
	Data     any
}

type recordingNotifier struct {
	sent []sentNotification
	err  error
}

func (n *recordingNotifier) Send(ctx context.Context, template, to string, data any) error {
	n.sent = append(n.sent, sentNotification{Template: template, To: to, Data: data})
	return n.err
}

func strPtr(s string) *string { return &s }
