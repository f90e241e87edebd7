package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/resume-screener/internal/models"
	"alfredoptarigan/resume-screener/internal/repositories"
	"alfredoptarigan/resume-screener/internal/services"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// ScreeningHandler serves queued screening jobs and stored results. It
// answers 503 when history is not configured (nil repositories).
type ScreeningHandler struct {
	jobRepo     repositories.ScreeningJobRepository
	recordRepo  repositories.ScreeningRecordRepository
	worker      services.Worker
	catalog     *services.SkillCatalog
	storage     services.StorageService
	maxFileSize int64
	log         *zap.Logger
}

func NewScreeningHandler(
	jobRepo repositories.ScreeningJobRepository,
	recordRepo repositories.ScreeningRecordRepository,
	worker services.Worker,
	catalog *services.SkillCatalog,
	storage services.StorageService,
	maxFileSize int64,
	log *zap.Logger,
) *ScreeningHandler {
	return &ScreeningHandler{
		jobRepo:     jobRepo,
		recordRepo:  recordRepo,
		worker:      worker,
		catalog:     catalog,
		storage:     storage,
		maxFileSize: maxFileSize,
		log:         log,
	}
}

func (h *ScreeningHandler) enabled() bool {
	return h.jobRepo != nil && h.recordRepo != nil && h.worker != nil
}

// HandleCreateScreening handles POST /api/screenings
func (h *ScreeningHandler) HandleCreateScreening(c *fiber.Ctx) error {
	if !h.enabled() {
		return errorJSON(c, fiber.StatusServiceUnavailable, services.ErrHistoryDisabled.Error())
	}

	domain, files, err := parseScreeningForm(c, h.catalog, h.maxFileSize)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	paths, err := saveUploads(h.storage, files, h.log)
	if err != nil {
		h.log.Error("failed to store uploads", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to store uploaded files")
	}

	names := make([]string, len(files))
	for i, file := range files {
		names[i] = file.Filename
	}

	job := &models.ScreeningJob{
		ID:            uuid.New(),
		Domain:        domain,
		Status:        models.StatusQueued,
		FilePaths:     paths,
		OriginalNames: names,
	}

	if err := h.jobRepo.Create(job); err != nil {
		removeUploads(h.storage, paths, h.log)
		h.log.Error("failed to create screening job", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to create screening job")
	}

	h.worker.EnqueueJob(job.ID)

	return c.Status(fiber.StatusAccepted).JSON(models.JobResponse{
		ID:     job.ID.String(),
		Status: string(models.StatusQueued),
		Domain: domain,
		Files:  names,
	})
}

// HandleGetScreening handles GET /api/screenings/:id
func (h *ScreeningHandler) HandleGetScreening(c *fiber.Ctx) error {
	if !h.enabled() {
		return errorJSON(c, fiber.StatusServiceUnavailable, services.ErrHistoryDisabled.Error())
	}

	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid screening ID format")
	}

	job, err := h.jobRepo.FindByID(jobID)
	if err != nil {
		if errors.Is(err, repositories.ErrJobNotFound) {
			return errorJSON(c, fiber.StatusNotFound, "Screening not found")
		}
		return err
	}

	response := models.JobResponse{
		ID:           job.ID.String(),
		Status:       string(job.Status),
		Domain:       job.Domain,
		Files:        job.OriginalNames,
		ErrorMessage: job.ErrorMessage,
	}

	if job.Status == models.StatusProcessing || job.Status == models.StatusCompleted {
		records, err := h.recordRepo.FindByJobID(jobID)
		if err != nil {
			return err
		}
		response.Results = toResults(records)
	}

	return c.JSON(response)
}

// HandleGetResult handles GET /api/results/:id
func (h *ScreeningHandler) HandleGetResult(c *fiber.Ctx) error {
	if h.recordRepo == nil {
		return errorJSON(c, fiber.StatusServiceUnavailable, services.ErrHistoryDisabled.Error())
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid result ID format")
	}

	record, err := h.recordRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return errorJSON(c, fiber.StatusNotFound, "Result not found")
		}
		return err
	}

	return c.JSON(record.ToResult())
}

// HandleListResults handles GET /api/results?domain=&limit=
func (h *ScreeningHandler) HandleListResults(c *fiber.Ctx) error {
	if h.recordRepo == nil {
		return errorJSON(c, fiber.StatusServiceUnavailable, services.ErrHistoryDisabled.Error())
	}

	domain := c.Query("domain")
	if domain != "" && !h.catalog.Has(domain) {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid domain selected")
	}

	limit := c.QueryInt("limit", defaultListLimit)
	if limit < 1 || limit > maxListLimit {
		return errorJSON(c, fiber.StatusBadRequest, "limit must be between 1 and 100")
	}

	records, err := h.recordRepo.ListByDomain(domain, limit)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"results": toResults(records),
	})
}

func toResults(records []models.ScreeningRecord) []models.ScreeningResult {
	results := make([]models.ScreeningResult, len(records))
	for i := range records {
		results[i] = records[i].ToResult()
	}
	return results
}
