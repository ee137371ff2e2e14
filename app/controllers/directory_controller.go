package controllers

import (
	"context"
	"errors"

	"github.com/aktp/portal/internal/pkg/directory"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// ProviderDirectory answers public directory lookups.
type ProviderDirectory interface {
	Search(ctx context.Context, query directory.Query) (*directory.Result, error)
	Get(ctx context.Context, slug string) (*directory.Provider, error)
}

type DirectoryController struct {
	directory ProviderDirectory
}

func NewDirectoryController(dir ProviderDirectory) *DirectoryController {
	return &DirectoryController{directory: dir}
}

// HandleList serves GET /api/v1/providers
func (dc *DirectoryController) HandleList(c *fiber.Ctx) error {
	query := directory.Query{
		Q:         c.Query("q"),
		State:     c.Query("state"),
		Specialty: c.Query("specialty"),
		Page:      c.QueryInt("page", 1),
		Limit:     c.QueryInt("limit", directory.DefaultLimit),
	}

	result, err := dc.directory.Search(c.UserContext(), query)
	if err != nil {
		log.Errorf("[Directory] Search failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "Failed to load providers")
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       result.Data,
		"pagination": result.Pagination,
	})
}

// HandleShow serves GET /api/v1/providers/:slug
func (dc *DirectoryController) HandleShow(c *fiber.Ctx) error {
	provider, err := dc.directory.Get(c.UserContext(), c.Params("slug"))
	if errors.Is(err, directory.ErrNotFound) {
		return jsonError(c, fiber.StatusNotFound, "Provider not found")
	}
	if err != nil {
		log.Errorf("[Directory] Lookup of %q failed: %v", c.Params("slug"), err)
		return jsonError(c, fiber.StatusInternalServerError, "Failed to load provider")
	}
	return c.JSON(fiber.Map{"success": true, "data": provider})
}
