package models

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	LeadTypeSponsorship = "sponsorship"
	LeadTypeMembership  = "membership"
	LeadTypeContact     = "contact"
)

// Lead is a submission from one of the public multi-step forms.
type Lead struct {
	ID               string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Type             string    `gorm:"type:varchar(20);not null;index" json:"type" validate:"required,oneof=sponsorship membership contact"`
	FirstName        string    `gorm:"type:varchar(100);not null" json:"firstName" validate:"required,min=1,max=100"`
	LastName         string    `gorm:"type:varchar(100);not null" json:"lastName" validate:"required,min=1,max=100"`
	Email            string    `gorm:"type:varchar(200);not null;index" json:"email" validate:"required,email,max=200"`
	Phone            string    `gorm:"type:varchar(50)" json:"phone,omitempty" validate:"max=50"`
	Organization     string    `gorm:"type:varchar(200)" json:"organization,omitempty" validate:"max=200"`
	Message          string    `gorm:"type:text" json:"message,omitempty" validate:"max=5000"`
	SponsorshipLevel string    `gorm:"type:varchar(20)" json:"sponsorshipLevel,omitempty" validate:"omitempty,oneof=bronze silver gold platinum"`
	Source           string    `gorm:"type:varchar(100)" json:"source,omitempty" validate:"max=100"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (l *Lead) Validate() error {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)
	v.RegisterStructValidation(leadStructLevel, Lead{})
	return v.Struct(l)
}

// sponsorship submissions must pick a level.
func leadStructLevel(sl validator.StructLevel) {
	l := sl.Current().Interface().(Lead)
	if l.Type == LeadTypeSponsorship && l.SponsorshipLevel == "" {
		sl.ReportError(l.SponsorshipLevel, "sponsorshipLevel", "SponsorshipLevel", "required_if", "type sponsorship")
	}
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

func (l *Lead) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}
