package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MembershipTier is the paid plan level of a practitioner account.
type MembershipTier string

const (
	TierFree         MembershipTier = "FREE"
	TierProfessional MembershipTier = "PROFESSIONAL"
	TierPremium      MembershipTier = "PREMIUM"
	TierElite        MembershipTier = "ELITE"
	TierEnterprise   MembershipTier = "ENTERPRISE"
)

// Rank orders tiers: FREE < PROFESSIONAL < PREMIUM < ELITE < ENTERPRISE.
func (t MembershipTier) Rank() int {
	switch t {
	case TierEnterprise:
		return 4
	case TierElite:
		return 3
	case TierPremium:
		return 2
	case TierProfessional:
		return 1
	default:
		return 0
	}
}

// ParseMembershipTier resolves a tier name case-insensitively.
func ParseMembershipTier(raw string) (MembershipTier, bool) {
	switch t := MembershipTier(strings.ToUpper(strings.TrimSpace(raw))); t {
	case TierFree, TierProfessional, TierPremium, TierElite, TierEnterprise:
		return t, true
	default:
		return "", false
	}
}

// MembershipStatus is the billing health of a practitioner account.
type MembershipStatus string

const (
	MembershipActive    MembershipStatus = "ACTIVE"
	MembershipInactive  MembershipStatus = "INACTIVE"
	MembershipPastDue   MembershipStatus = "PAST_DUE"
	MembershipCancelled MembershipStatus = "CANCELLED"
	MembershipTrial     MembershipStatus = "TRIAL"
)

// Practitioner is a provider account listed in the directory and billed
// through Stripe subscriptions.
type Practitioner struct {
	ID                   string           `gorm:"type:varchar(36);primaryKey" json:"id"`
	Slug                 string           `gorm:"type:varchar(191);uniqueIndex;not null" json:"slug"`
	FirstName            string           `gorm:"type:varchar(100)" json:"firstName"`
	LastName             string           `gorm:"type:varchar(100)" json:"lastName"`
	Credentials          string           `gorm:"type:varchar(100)" json:"credentials"`
	PracticeName         string           `gorm:"type:varchar(200)" json:"practiceName"`
	Email                string           `gorm:"type:varchar(200);index" json:"-"`
	Phone                string           `gorm:"type:varchar(50)" json:"phone,omitempty"`
	Website              string           `gorm:"type:varchar(255)" json:"website,omitempty"`
	Bio                  string           `gorm:"type:text" json:"bio,omitempty"`
	City                 string           `gorm:"type:varchar(100);index" json:"city"`
	State                string           `gorm:"type:varchar(2);index" json:"state"`
	Specialties          string           `gorm:"type:varchar(500)" json:"-"`
	IsPublic             bool             `gorm:"default:true;index" json:"-"`
	MembershipTier       MembershipTier   `gorm:"type:varchar(20);not null;default:'FREE';index" json:"membershipTier"`
	MembershipStatus     MembershipStatus `gorm:"type:varchar(20);not null;default:'INACTIVE';index" json:"membershipStatus"`
	StripeCustomerID     *string          `gorm:"type:varchar(191);uniqueIndex" json:"-"`
	StripeSubscriptionID *string          `gorm:"type:varchar(191)" json:"-"`
	MembershipStartDate  *time.Time       `gorm:"type:timestamp;default:null" json:"membershipStartDate,omitempty"`
	MembershipExpiry     *time.Time       `gorm:"type:timestamp;default:null" json:"membershipExpiry,omitempty"`
	CreatedAt            time.Time        `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt            time.Time        `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (p *Practitioner) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// DisplayName is the name used in emails and directory cards.
func (p *Practitioner) DisplayName() string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if p.Credentials != "" && name != "" {
		name += ", " + p.Credentials
	}
	if name == "" {
		return p.PracticeName
	}
	return name
}

// SpecialtyList splits the comma separated specialties column.
func (p *Practitioner) SpecialtyList() []string {
	var out []string
	for _, s := range strings.Split(p.Specialties, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// IsListed reports whether the practitioner appears in the public directory.
func (p *Practitioner) IsListed() bool {
	if !p.IsPublic {
		return false
	}
	return p.MembershipStatus == MembershipActive || p.MembershipStatus == MembershipTrial
}
