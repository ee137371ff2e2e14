package repository

import (
	"strings"

	"github.com/aktp/portal/app/models"
	"gorm.io/gorm"
)

// tierOrder sorts higher membership tiers first in the directory.
const tierOrder = `CASE membership_tier
	WHEN 'ENTERPRISE' THEN 4
	WHEN 'ELITE' THEN 3
	WHEN 'PREMIUM' THEN 2
	WHEN 'PROFESSIONAL' THEN 1
	ELSE 0 END DESC`

// likeEscaper escapes LIKE wildcards with '!', which MySQL and SQLite both
// accept as an ESCAPE character without extra quoting rules.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// containsPattern matches term literally anywhere in a column.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

type practitionerRepository struct {
	db *gorm.DB
}

// NewPractitionerRepository creates a new practitioner repository instance
func NewPractitionerRepository(db *gorm.DB) PractitionerRepository {
	return &practitionerRepository{db: db}
}

func (r *practitionerRepository) listed() *gorm.DB {
	return r.db.Model(&models.Practitioner{}).
		Where("is_public = ?", true).
		Where("membership_status IN ?", []models.MembershipStatus{models.MembershipActive, models.MembershipTrial})
}

// Search returns one page of listed practitioners and the total match count
func (r *practitionerRepository) Search(filter PractitionerFilter) ([]models.Practitioner, int64, error) {
	q := r.listed()
	if state := strings.ToUpper(strings.TrimSpace(filter.State)); state != "" {
		q = q.Where("state = ?", state)
	}
	if specialty := strings.TrimSpace(filter.Specialty); specialty != "" {
		q = q.Where("specialties LIKE ? ESCAPE '!'", containsPattern(specialty))
	}
	if term := strings.TrimSpace(filter.Query); term != "" {
		like := containsPattern(term)
		q = q.Where(
			r.db.Where("first_name LIKE ? ESCAPE '!'", like).
				Or("last_name LIKE ? ESCAPE '!'", like).
				Or("practice_name LIKE ? ESCAPE '!'", like).
				Or("city LIKE ? ESCAPE '!'", like),
		)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var practitioners []models.Practitioner
	err := q.Order(tierOrder).
		Order("last_name ASC").
		Order("first_name ASC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&practitioners).Error
	return practitioners, total, err
}

// GetListedBySlug retrieves a listed practitioner by slug
func (r *practitionerRepository) GetListedBySlug(slug string) (*models.Practitioner, error) {
	var p models.Practitioner
	err := r.listed().Where("slug = ?", slug).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}
