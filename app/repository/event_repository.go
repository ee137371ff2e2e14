package repository

import (
	"time"

	"github.com/aktp/portal/app/models"
	"gorm.io/gorm"
)

type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new event repository instance
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

// ListUpcoming returns published events starting at or after from
func (r *eventRepository) ListUpcoming(from time.Time, limit int) ([]models.Event, error) {
	var events []models.Event
	err := r.db.Where("is_published = ? AND start_date >= ?", true, from).
		Order("start_date ASC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

// GetPublishedBySlug retrieves a published event by slug
func (r *eventRepository) GetPublishedBySlug(slug string) (*models.Event, error) {
	var event models.Event
	err := r.db.Where("slug = ? AND is_published = ?", slug, true).First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}
