package billing

import (
	"context"
	"strings"
	"time"

	"github.com/aktp/portal/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides DB operations used by the billing service. Find
// methods return (nil, nil) when no row matches.
type Repository interface {
	GetPractitionerByID(ctx context.Context, id string) (*models.Practitioner, error)
	GetPractitionerByStripeCustomerID(ctx context.Context, customerID string) (*models.Practitioner, error)
	SaveMembership(ctx context.Context, p *models.Practitioner) error

	GetEvent(ctx context.Context, id string) (*models.Event, error)
	FindEventRegistration(ctx context.Context, eventID, email string) (*models.EventRegistration, error)
	CreateEventRegistration(ctx context.Context, r *models.EventRegistration) error
	UpdateEventRegistration(ctx context.Context, r *models.EventRegistration) error

	FindCourseEnrollment(ctx context.Context, courseID, userID, email string) (*models.CourseEnrollment, error)
	CreateCourseEnrollment(ctx context.Context, e *models.CourseEnrollment) error
	UpdateCourseEnrollment(ctx context.Context, e *models.CourseEnrollment) error

	GetOrderByStripeSessionID(ctx context.Context, sessionID string) (*models.Order, error)
	ListProductsByIDs(ctx context.Context, ids []string) ([]models.Product, error)
	// CreateOrder inserts the order with its items and applies the inventory
	// decrements (product id -> quantity) atomically.
	CreateOrder(ctx context.Context, order *models.Order, decrements map[string]int) error

	CreateWebhookEventIfNotExists(ctx context.Context, event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error)
	MarkWebhookProcessed(ctx context.Context, id uint, outcome, processingError string) error
	GetWebhookEvent(ctx context.Context, id uint) (*models.BillingWebhookEvent, error)
	ListWebhookEvents(ctx context.Context, filter WebhookEventFilter) ([]models.BillingWebhookEvent, error)
}

// WebhookEventFilter narrows ledger listings.
type WebhookEventFilter struct {
	EventType   string
	PendingOnly bool
	Limit       int
}

// membershipColumns are the fields the reconciler owns on a practitioner.
var membershipColumns = []string{
	"membership_tier",
	"membership_status",
	"stripe_customer_id",
	"stripe_subscription_id",
	"membership_start_date",
	"membership_expiry",
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// findOne loads at most one row. A miss is not an error, so it goes through
// Find instead of First and never reaches the logger as ErrRecordNotFound.
func findOne[T any](q *gorm.DB) (*T, error) {
	var v T
	res := q.Limit(1).Find(&v)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &v, nil
}

func (r *gormRepository) GetPractitionerByID(ctx context.Context, id string) (*models.Practitioner, error) {
	return findOne[models.Practitioner](r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *gormRepository) GetPractitionerByStripeCustomerID(ctx context.Context, customerID string) (*models.Practitioner, error) {
	return findOne[models.Practitioner](r.db.WithContext(ctx).Where("stripe_customer_id = ?", customerID))
}

func (r *gormRepository) SaveMembership(ctx context.Context, p *models.Practitioner) error {
	return r.db.WithContext(ctx).Model(p).Select(membershipColumns).Updates(p).Error
}

func (r *gormRepository) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	return findOne[models.Event](r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *gormRepository) FindEventRegistration(ctx context.Context, eventID, email string) (*models.EventRegistration, error) {
	return findOne[models.EventRegistration](r.db.WithContext(ctx).
		Where("event_id = ? AND email = ?", eventID, strings.ToLower(strings.TrimSpace(email))))
}

func (r *gormRepository) CreateEventRegistration(ctx context.Context, reg *models.EventRegistration) error {
	return r.db.WithContext(ctx).Create(reg).Error
}

func (r *gormRepository) UpdateEventRegistration(ctx context.Context, reg *models.EventRegistration) error {
	return r.db.WithContext(ctx).Model(reg).Select("status", "amount_paid", "stripe_payment_id", "updated_at").Updates(reg).Error
}

func (r *gormRepository) FindCourseEnrollment(ctx context.Context, courseID, userID, email string) (*models.CourseEnrollment, error) {
	db := r.db.WithContext(ctx)
	return findOne[models.CourseEnrollment](db.Where("course_id = ?", courseID).
		Where(db.Where("user_id = ?", userID).Or("email = ?", strings.ToLower(strings.TrimSpace(email)))))
}

func (r *gormRepository) CreateCourseEnrollment(ctx context.Context, e *models.CourseEnrollment) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *gormRepository) UpdateCourseEnrollment(ctx context.Context, e *models.CourseEnrollment) error {
	return r.db.WithContext(ctx).Model(e).Select("stripe_payment_id", "updated_at").Updates(e).Error
}

func (r *gormRepository) GetOrderByStripeSessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	return findOne[models.Order](r.db.WithContext(ctx).Where("stripe_session_id = ?", sessionID))
}

func (r *gormRepository) ListProductsByIDs(ctx context.Context, ids []string) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error
	return products, err
}

func (r *gormRepository) CreateOrder(ctx context.Context, order *models.Order, decrements map[string]int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		for productID, qty := range decrements {
			if err := tx.Model(&models.Product{}).
				Where("id = ?", productID).
				UpdateColumn("inventory", gorm.Expr("inventory - ?", qty)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *gormRepository) CreateWebhookEventIfNotExists(ctx context.Context, event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	db := r.db.WithContext(ctx)
	tx := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.BillingWebhookEvent
	if err := db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(ctx context.Context, id uint, outcome, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"outcome":          outcome,
		"processing_error": processingError,
		"attempts":         gorm.Expr("attempts + 1"),
	}
	return r.db.WithContext(ctx).Model(&models.BillingWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}

func (r *gormRepository) GetWebhookEvent(ctx context.Context, id uint) (*models.BillingWebhookEvent, error) {
	return findOne[models.BillingWebhookEvent](r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *gormRepository) ListWebhookEvents(ctx context.Context, filter WebhookEventFilter) ([]models.BillingWebhookEvent, error) {
	q := r.db.WithContext(ctx).Model(&models.BillingWebhookEvent{}).Order("created_at DESC")
	if filter.EventType != "" {
		q = q.Where("event_type = ?", filter.EventType)
	}
	if filter.PendingOnly {
		q = q.Where("processed_at IS NULL OR outcome IN ?", []string{models.WebhookOutcomeSkipped, models.WebhookOutcomeFailed})
	}
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	var events []models.BillingWebhookEvent
	err := q.Limit(limit).Find(&events).Error
	return events, err
}
