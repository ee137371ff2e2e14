package controllers

import (
	"errors"
	"strings"

	"github.com/aktp/portal/app/models"
	"github.com/aktp/portal/app/repository"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

type LeadController struct {
	leads repository.LeadRepository
}

func NewLeadController(leads repository.LeadRepository) *LeadController {
	return &LeadController{leads: leads}
}

type leadRequest struct {
	Type             string `json:"type"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	Organization     string `json:"organization"`
	Message          string `json:"message"`
	SponsorshipLevel string `json:"sponsorshipLevel"`
	Source           string `json:"source"`
}

func (r leadRequest) toModel() *models.Lead {
	return &models.Lead{
		Type:             strings.ToLower(strings.TrimSpace(r.Type)),
		FirstName:        strings.TrimSpace(r.FirstName),
		LastName:         strings.TrimSpace(r.LastName),
		Email:            strings.ToLower(strings.TrimSpace(r.Email)),
		Phone:            strings.TrimSpace(r.Phone),
		Organization:     strings.TrimSpace(r.Organization),
		Message:          strings.TrimSpace(r.Message),
		SponsorshipLevel: strings.ToLower(strings.TrimSpace(r.SponsorshipLevel)),
		Source:           strings.TrimSpace(r.Source),
	}
}

// HandleCreate serves POST /api/v1/leads
func (lc *LeadController) HandleCreate(c *fiber.Ctx) error {
	var req leadRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	lead := req.toModel()
	if err := lead.Validate(); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return jsonError(c, fiber.StatusBadRequest, "Validation failed")
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Validation failed",
			"fields":  fields,
		})
	}

	if err := lc.leads.Create(lead); err != nil {
		log.Errorf("[Leads] Failed to store %s lead from %s: %v", lead.Type, ClientIP(c), err)
		return jsonError(c, fiber.StatusInternalServerError, "Failed to save submission")
	}

	log.Infof("[Leads] Stored %s lead %s", lead.Type, lead.ID)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "id": lead.ID})
}
