package handlers

import (
	"os"
	"time"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/resume-screener/internal/services"
)

const banner = "Resume Screening API is running. Use /api endpoints or start the frontend dev server."

type MetaHandler struct {
	catalog   *services.SkillCatalog
	indexPath string
}

// NewMetaHandler serves health, the skill catalog and the optional frontend index.
func NewMetaHandler(catalog *services.SkillCatalog, indexPath string) *MetaHandler {
	return &MetaHandler{
		catalog:   catalog,
		indexPath: indexPath,
	}
}

func (h *MetaHandler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

func (h *MetaHandler) HandleDomainSkills(c *fiber.Ctx) error {
	return c.JSON(h.catalog.Skills())
}

func (h *MetaHandler) HandleIndex(c *fiber.Ctx) error {
	if h.indexPath != "" {
		if info, err := os.Stat(h.indexPath); err == nil && !info.IsDir() {
			return c.SendFile(h.indexPath)
		}
	}
	return c.SendString(banner)
}
