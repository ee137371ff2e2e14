package repository

import (
	"time"

	"github.com/aktp/portal/app/models"
	"gorm.io/gorm"
)

// PractitionerFilter narrows the public directory listing.
type PractitionerFilter struct {
	Query     string
	State     string
	Specialty string
	Offset    int
	Limit     int
}

// PractitionerRepository defines read access to the public directory
type PractitionerRepository interface {
	Search(filter PractitionerFilter) ([]models.Practitioner, int64, error)
	GetListedBySlug(slug string) (*models.Practitioner, error)
}

// EventRepository defines read access to published events
type EventRepository interface {
	ListUpcoming(from time.Time, limit int) ([]models.Event, error)
	GetPublishedBySlug(slug string) (*models.Event, error)
}

// LeadRepository stores form submissions
type LeadRepository interface {
	Create(lead *models.Lead) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	Practitioner PractitionerRepository
	Event        EventRepository
	Lead         LeadRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Practitioner: NewPractitionerRepository(db),
		Event:        NewEventRepository(db),
		Lead:         NewLeadRepository(db),
	}
}
