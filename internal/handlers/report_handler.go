package handlers

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/resume-screener/internal/models"
	"alfredoptarigan/resume-screener/internal/services"
)

type ReportHandler struct {
	renderer services.ReportRenderer
	storage  services.StorageService
	archive  services.ReportArchive
	log      *zap.Logger
}

// NewReportHandler creates the report handler. archive may be nil.
func NewReportHandler(
	renderer services.ReportRenderer,
	storage services.StorageService,
	archive services.ReportArchive,
	log *zap.Logger,
) *ReportHandler {
	return &ReportHandler{
		renderer: renderer,
		storage:  storage,
		archive:  archive,
		log:      log,
	}
}

// HandleGenerateReport handles POST /api/generate-report
func (h *ReportHandler) HandleGenerateReport(c *fiber.Ctx) error {
	var req models.ReportRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request payload")
	}

	if strings.TrimSpace(req.FileName) == "" {
		return errorJSON(c, fiber.StatusBadRequest, "fileName is required")
	}
	if strings.TrimSpace(req.Domain) == "" {
		return errorJSON(c, fiber.StatusBadRequest, "domain is required")
	}

	report, err := h.renderer.Render(services.ReportData{
		FileName:      req.FileName,
		Domain:        req.Domain,
		MatchScore:    req.MatchScore,
		Selected:      req.Selected,
		KeyStrengths:  req.KeyStrengths,
		MissingSkills: req.MissingSkills,
		FullAnalysis:  req.FullAnalysis,
		GeneratedAt:   time.Now(),
	})
	if err != nil {
		return err
	}

	path, err := h.storage.SaveReport(report.FileName, report.Content)
	if err != nil {
		return err
	}

	resp := models.ReportResponse{
		Success:  true,
		Message:  "Report generated successfully",
		FilePath: path,
		FileName: report.FileName,
	}

	if h.archive != nil {
		location, err := h.archive.Upload(c.UserContext(), report.FileName, report.Content)
		if err != nil {
			h.log.Warn("failed to archive report", zap.String("report", report.FileName), zap.Error(err))
		} else {
			resp.ArchiveLocation = location
		}
	}

	return c.JSON(resp)
}

// HandleDownloadReport handles GET /api/reports/:name
func (h *ReportHandler) HandleDownloadReport(c *fiber.Ctx) error {
	name := c.Params("name")

	path, err := h.storage.ReportPath(name)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return errorJSON(c, fiber.StatusNotFound, "Report not found")
		}
		return err
	}

	return c.Download(path, name)
}
