package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	RegistrationRegistered = "REGISTERED"
	RegistrationWaitlisted = "WAITLISTED"
	RegistrationCancelled  = "CANCELLED"
	RegistrationAttended   = "ATTENDED"
)

// Event is a conference, workshop or webinar hosted by the association.
type Event struct {
	ID          string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	Slug        string          `gorm:"type:varchar(191);uniqueIndex;not null" json:"slug"`
	Title       string          `gorm:"type:varchar(255);not null" json:"title"`
	Description string          `gorm:"type:text" json:"description,omitempty"`
	Location    string          `gorm:"type:varchar(255)" json:"location"`
	IsVirtual   bool            `gorm:"default:false" json:"isVirtual"`
	StartDate   time.Time       `gorm:"type:timestamp;not null;index" json:"startDate"`
	EndDate     *time.Time      `gorm:"type:timestamp;default:null" json:"endDate,omitempty"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"price"`
	Capacity    int             `gorm:"default:0" json:"capacity"`
	IsPublished bool            `gorm:"default:false;index" json:"-"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// EventRegistration is unique per (event, lowercased email).
type EventRegistration struct {
	ID              string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	EventID         string          `gorm:"type:varchar(36);not null;index:ux_event_registrations_event_email,unique,priority:1" json:"eventId"`
	Email           string          `gorm:"type:varchar(200);not null;index:ux_event_registrations_event_email,unique,priority:2" json:"email"`
	FirstName       string          `gorm:"type:varchar(100)" json:"firstName"`
	LastName        string          `gorm:"type:varchar(100)" json:"lastName"`
	PractitionerID  *string         `gorm:"type:varchar(36);index" json:"practitionerId,omitempty"`
	Status          string          `gorm:"type:varchar(20);not null;default:'REGISTERED'" json:"status"`
	AmountPaid      decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"amountPaid"`
	StripePaymentID string          `gorm:"type:varchar(191)" json:"-"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (r *EventRegistration) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	return nil
}
