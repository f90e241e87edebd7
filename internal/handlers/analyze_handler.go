package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/resume-screener/internal/models"
	"alfredoptarigan/resume-screener/internal/services"
)

type AnalyzeHandler struct {
	screener    services.ScreenerService
	catalog     *services.SkillCatalog
	storage     services.StorageService
	maxFileSize int64
	log         *zap.Logger
}

func NewAnalyzeHandler(
	screener services.ScreenerService,
	catalog *services.SkillCatalog,
	storage services.StorageService,
	maxFileSize int64,
	log *zap.Logger,
) *AnalyzeHandler {
	return &AnalyzeHandler{
		screener:    screener,
		catalog:     catalog,
		storage:     storage,
		maxFileSize: maxFileSize,
		log:         log,
	}
}

// HandleAnalyze handles POST /api/analyze
func (h *AnalyzeHandler) HandleAnalyze(c *fiber.Ctx) error {
	domain, files, err := parseScreeningForm(c, h.catalog, h.maxFileSize)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	paths, err := saveUploads(h.storage, files, h.log)
	if err != nil {
		h.log.Error("failed to store uploads", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to store uploaded files")
	}
	defer removeUploads(h.storage, paths, h.log)

	resumes := make([]services.ResumeFile, len(files))
	for i, file := range files {
		resumes[i] = services.ResumeFile{
			Name: file.Filename,
			Path: paths[i],
			Mime: services.MimePDF,
		}
	}

	results, err := h.screener.ScreenBatch(c.UserContext(), domain, resumes)
	if err != nil {
		if errors.Is(err, services.ErrUnknownDomain) || errors.Is(err, services.ErrNoResumeFiles) {
			return errorJSON(c, fiber.StatusBadRequest, err.Error())
		}
		return err
	}

	return c.JSON(models.AnalyzeResponse{
		Success: true,
		Message: fmt.Sprintf("Analyzed %d resume(s)", len(results)),
		Results: results,
	})
}

// parseScreeningForm reads and validates the domain and files fields of a multipart request.
func parseScreeningForm(c *fiber.Ctx, catalog *services.SkillCatalog, maxFileSize int64) (string, []*multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return "", nil, errors.New("failed to parse multipart form")
	}

	var domain string
	if values := form.Value["domain"]; len(values) > 0 {
		domain = strings.TrimSpace(values[0])
	}
	if !catalog.Has(domain) {
		return "", nil, errors.New("Invalid domain selected")
	}

	files := form.File["files"]
	if len(files) == 0 {
		return "", nil, errors.New("No files uploaded")
	}

	for _, file := range files {
		if maxFileSize > 0 && file.Size > maxFileSize {
			return "", nil, fmt.Errorf("%s is too large. Max size: %d bytes", file.Filename, maxFileSize)
		}
		if err := services.ValidatePDFUpload(file); err != nil {
			return "", nil, err
		}
	}

	return domain, files, nil
}

func saveUploads(storage services.StorageService, files []*multipart.FileHeader, log *zap.Logger) ([]string, error) {
	paths := make([]string, 0, len(files))
	for _, file := range files {
		path, err := storage.SaveUpload(file)
		if err != nil {
			removeUploads(storage, paths, log)
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func removeUploads(storage services.StorageService, paths []string, log *zap.Logger) {
	for _, path := range paths {
		if err := storage.DeleteFile(path); err != nil {
			log.Warn("failed to remove upload", zap.String("path", path), zap.Error(err))
		}
	}
}
