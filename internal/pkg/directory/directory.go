package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aktp/portal/app/models"
	"github.com/aktp/portal/app/repository"
	"github.com/aktp/portal/internal/pkg/cache"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

const (
	DefaultLimit = 12
	MaxLimit     = 50
	cacheTTL     = 60 * time.Second
)

var ErrNotFound = errors.New("provider not found")

// Query is a directory search request.
type Query struct {
	Q         string
	State     string
	Specialty string
	Page      int
	Limit     int
}

func (q Query) normalized() Query {
	q.Q = strings.TrimSpace(q.Q)
	q.State = strings.ToUpper(strings.TrimSpace(q.State))
	q.Specialty = strings.TrimSpace(q.Specialty)
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	return q
}

func (q Query) cacheKey() string {
	return fmt.Sprintf("directory:providers:q=%s|state=%s|specialty=%s|page=%d|limit=%d",
		strings.ToLower(q.Q), q.State, strings.ToLower(q.Specialty), q.Page, q.Limit)
}

// Provider is the public view of a listed practitioner.
type Provider struct {
	Slug         string                `json:"slug"`
	Name         string                `json:"name"`
	Credentials  string                `json:"credentials,omitempty"`
	PracticeName string                `json:"practiceName,omitempty"`
	City         string                `json:"city"`
	State        string                `json:"state"`
	Specialties  []string              `json:"specialties"`
	Tier         models.MembershipTier `json:"tier"`
	Featured     bool                  `json:"featured"`
	Website      string                `json:"website,omitempty"`
	Phone        string                `json:"phone,omitempty"`
	Bio          string                `json:"bio,omitempty"`
}

func toProvider(p *models.Practitioner) Provider {
	specialties := p.SpecialtyList()
	if specialties == nil {
		specialties = []string{}
	}
	return Provider{
		Slug:         p.Slug,
		Name:         strings.TrimSpace(p.FirstName + " " + p.LastName),
		Credentials:  p.Credentials,
		PracticeName: p.PracticeName,
		City:         p.City,
		State:        p.State,
		Specialties:  specialties,
		Tier:         p.MembershipTier,
		Featured:     p.MembershipTier.Rank() >= models.TierElite.Rank(),
		Website:      p.Website,
		Phone:        p.Phone,
		Bio:          p.Bio,
	}
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

type Result struct {
	Data       []Provider `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// Service answers directory queries, caching result pages.
type Service struct {
	repo  repository.PractitionerRepository
	cache cache.Store
}

// NewService creates a directory service. store may be nil to disable caching.
func NewService(repo repository.PractitionerRepository, store cache.Store) *Service {
	return &Service{repo: repo, cache: store}
}

func (s *Service) Search(ctx context.Context, query Query) (*Result, error) {
	q := query.normalized()
	key := q.cacheKey()

	if s.cache != nil {
		var cached Result
		hit, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			log.Warnf("[Directory] Cache read failed for %s: %v", key, err)
		} else if hit {
			return &cached, nil
		}
	}

	practitioners, total, err := s.repo.Search(repository.PractitionerFilter{
		Query:     q.Q,
		State:     q.State,
		Specialty: q.Specialty,
		Offset:    (q.Page - 1) * q.Limit,
		Limit:     q.Limit,
	})
	if err != nil {
		return nil, err
	}

	result := &Result{
		Data: make([]Provider, 0, len(practitioners)),
		Pagination: Pagination{
			Page:       q.Page,
			Limit:      q.Limit,
			Total:      total,
			TotalPages: int((total + int64(q.Limit) - 1) / int64(q.Limit)),
		},
	}
	for i := range practitioners {
		result.Data = append(result.Data, toProvider(&practitioners[i]))
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, result, cacheTTL); err != nil {
			log.Warnf("[Directory] Cache write failed for %s: %v", key, err)
		}
	}
	return result, nil
}

func (s *Service) Get(ctx context.Context, slug string) (*Provider, error) {
	_ = ctx
	p, err := s.repo.GetListedBySlug(strings.TrimSpace(slug))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	provider := toProvider(p)
	return &provider, nil
}
