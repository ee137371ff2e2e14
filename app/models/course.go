package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Course struct {
	ID          string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	Slug        string          `gorm:"type:varchar(191);uniqueIndex;not null" json:"slug"`
	Title       string          `gorm:"type:varchar(255);not null" json:"title"`
	Description string          `gorm:"type:text" json:"description,omitempty"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"price"`
	CECredits   decimal.Decimal `gorm:"type:decimal(5,2);default:0" json:"ceCredits"`
	IsPublished bool            `gorm:"default:false;index" json:"-"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// CourseEnrollment is matched by course and either user id or email.
type CourseEnrollment struct {
	ID              string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	CourseID        string     `gorm:"type:varchar(36);not null;index" json:"courseId"`
	UserID          string     `gorm:"type:varchar(36);index" json:"userId"`
	Email           string     `gorm:"type:varchar(200);index" json:"email"`
	Progress        int        `gorm:"not null;default:0" json:"progress"`
	StripePaymentID string     `gorm:"type:varchar(191)" json:"-"`
	CompletedAt     *time.Time `gorm:"type:timestamp;default:null" json:"completedAt,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (e *CourseEnrollment) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.Email = strings.ToLower(strings.TrimSpace(e.Email))
	return nil
}
