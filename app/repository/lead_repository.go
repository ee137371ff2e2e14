package repository

import (
	"github.com/aktp/portal/app/models"
	"gorm.io/gorm"
)

type leadRepository struct {
	db *gorm.DB
}

// NewLeadRepository creates a new lead repository instance
func NewLeadRepository(db *gorm.DB) LeadRepository {
	return &leadRepository{db: db}
}

// Create stores a validated form submission
func (r *leadRepository) Create(lead *models.Lead) error {
	return r.db.Create(lead).Error
}
