package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"alfredoptarigan/resume-screener/internal/models"
	"alfredoptarigan/resume-screener/internal/repositories"
)

var (
	ErrNoResumeFiles   = errors.New("no resume files provided")
	ErrHistoryDisabled = errors.New("screening history is disabled")
)

const processingErrorSkill = "Processing error"

// ResumeFile is one resume to screen. Data takes precedence over Path.
type ResumeFile struct {
	Name string
	Path string
	Mime string
	Data []byte
}

type ScreenerService interface {
	ScreenBatch(ctx context.Context, domain string, files []ResumeFile) ([]models.ScreeningResult, error)
	ScreenResume(ctx context.Context, domain string, file ResumeFile, guidance string) (models.ScreeningResult, error)
	Guidance(ctx context.Context, domain string) string
	ProcessJob(ctx context.Context, jobID uuid.UUID) error
}

// ScreenerDeps wires the screener. Retriever, Records, Jobs, Publisher and
// Storage are optional and may be nil.
type ScreenerDeps struct {
	Catalog   *SkillCatalog
	Gateway   LLMGateway
	Extractor TextExtractor
	Retriever ReferenceRetriever
	Records   repositories.ScreeningRecordRepository
	Jobs      repositories.ScreeningJobRepository
	Publisher EventPublisher
	Storage   StorageService
	Log       *zap.Logger
}

type screenerService struct {
	catalog   *SkillCatalog
	prompts   *PromptBuilder
	gateway   LLMGateway
	extractor TextExtractor
	retriever ReferenceRetriever
	records   repositories.ScreeningRecordRepository
	jobs      repositories.ScreeningJobRepository
	publisher EventPublisher
	storage   StorageService
	log       *zap.Logger
	now       func() time.Time
}

func NewScreenerService(deps ScreenerDeps) ScreenerService {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}

	return &screenerService{
		catalog:   deps.Catalog,
		prompts:   NewPromptBuilder(deps.Catalog),
		gateway:   deps.Gateway,
		extractor: deps.Extractor,
		retriever: deps.Retriever,
		records:   deps.Records,
		jobs:      deps.Jobs,
		publisher: deps.Publisher,
		storage:   deps.Storage,
		log:       log,
		now:       time.Now,
	}
}

// ScreenBatch screens files in order. The domain and file list are validated
// before any LLM call; a failing file yields a degraded result instead of an error.
func (s *screenerService) ScreenBatch(ctx context.Context, domain string, files []ResumeFile) ([]models.ScreeningResult, error) {
	if _, err := s.catalog.Lookup(domain); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoResumeFiles
	}

	s.log.Info("screening batch", zap.String("domain", domain), zap.Int("files", len(files)))

	guidance := s.Guidance(ctx, domain)

	results := make([]models.ScreeningResult, 0, len(files))
	for i, file := range files {
		result := s.screen(ctx, domain, file, guidance)
		s.record(ctx, nil, i, &result)
		results = append(results, result)
	}

	return results, nil
}

// ScreenResume screens a single file against guidance fetched once per batch
// with Guidance.
func (s *screenerService) ScreenResume(ctx context.Context, domain string, file ResumeFile, guidance string) (models.ScreeningResult, error) {
	if _, err := s.catalog.Lookup(domain); err != nil {
		return models.ScreeningResult{}, err
	}

	result := s.screen(ctx, domain, file, guidance)
	s.record(ctx, nil, 0, &result)
	return result, nil
}

// ProcessJob screens every stored file of a queued job and removes the uploads afterwards.
func (s *screenerService) ProcessJob(ctx context.Context, jobID uuid.UUID) error {
	if s.jobs == nil || s.records == nil {
		return ErrHistoryDisabled
	}

	claimed, err := s.jobs.Claim(jobID)
	if err != nil {
		return err
	}
	if !claimed {
		s.log.Debug("job already claimed", zap.String("job_id", jobID.String()))
		return nil
	}

	job, err := s.jobs.FindByID(jobID)
	if err != nil {
		s.failJob(jobID, err)
		return fmt.Errorf("failed to load job: %w", err)
	}
	defer s.removeUploads(job.FilePaths)

	if _, err := s.catalog.Lookup(job.Domain); err != nil {
		s.failJob(jobID, err)
		return err
	}
	if len(job.FilePaths) == 0 {
		s.failJob(jobID, ErrNoResumeFiles)
		return ErrNoResumeFiles
	}

	log := s.log.With(zap.String("job_id", jobID.String()), zap.String("domain", job.Domain))
	log.Info("processing screening job", zap.Int("files", len(job.FilePaths)))

	guidance := s.Guidance(ctx, job.Domain)

	for i, path := range job.FilePaths {
		if err := ctx.Err(); err != nil {
			s.failJob(jobID, err)
			return err
		}

		result := s.screen(ctx, job.Domain, ResumeFile{
			Name: jobFileName(job, i),
			Path: path,
			Mime: MimePDF,
		}, guidance)
		s.record(ctx, &job.ID, i, &result)
	}

	if err := s.jobs.MarkCompleted(jobID); err != nil {
		return err
	}

	log.Info("screening job completed")
	return nil
}

func (s *screenerService) screen(ctx context.Context, domain string, file ResumeFile, guidance string) models.ScreeningResult {
	log := s.log.With(zap.String("file", file.Name), zap.String("domain", domain))

	verdict, err := s.screenOne(ctx, domain, file, guidance)
	if err != nil {
		log.Error("resume screening failed", zap.Error(err))
		return degradedResult(file.Name, domain, err, s.now())
	}

	if !verdict.ScoreInRange() {
		log.Warn("match score outside 0-100", zap.Int("score", verdict.MatchScore))
	}

	log.Info("resume screened",
		zap.Int("score", verdict.MatchScore),
		zap.Bool("selected", verdict.Selected),
	)

	return models.ScreeningResult{
		FileName:      file.Name,
		Domain:        domain,
		MatchScore:    verdict.MatchScore,
		Selected:      verdict.Selected,
		KeyStrengths:  verdict.KeyStrengths,
		MissingSkills: verdict.MissingSkills,
		FullAnalysis:  verdict.RawText,
		Timestamp:     s.now().UTC(),
	}
}

func (s *screenerService) screenOne(ctx context.Context, domain string, file ResumeFile, guidance string) (Verdict, error) {
	var (
		text string
		err  error
	)
	if file.Data != nil {
		text, err = s.extractor.Extract(file.Name, file.Mime, file.Data)
	} else {
		text, err = s.extractor.ExtractFile(file.Path)
	}
	if err != nil {
		return Verdict{}, fmt.Errorf("failed to extract text: %w", err)
	}

	prompt, err := s.prompts.BuildScreeningPrompt(domain, text, guidance)
	if err != nil {
		return Verdict{}, err
	}

	reply, err := s.gateway.Generate(ctx, prompt)
	if err != nil {
		return Verdict{}, err
	}

	return ParseVerdict(reply), nil
}

// Guidance returns reference text for the domain, or "" when retrieval is
// disabled or fails.
func (s *screenerService) Guidance(ctx context.Context, domain string) string {
	if s.retriever == nil {
		return ""
	}

	guidance, err := s.retriever.Retrieve(ctx, domain)
	if err != nil {
		s.log.Warn("failed to retrieve reference guidance", zap.String("domain", domain), zap.Error(err))
		return ""
	}
	return guidance
}

// record persists and publishes a result. Failures are logged only.
func (s *screenerService) record(ctx context.Context, jobID *uuid.UUID, position int, result *models.ScreeningResult) {
	if s.records != nil {
		row := &models.ScreeningRecord{
			JobID:         jobID,
			Position:      position,
			FileName:      result.FileName,
			Domain:        result.Domain,
			MatchScore:    result.MatchScore,
			Selected:      result.Selected,
			KeyStrengths:  pq.StringArray(result.KeyStrengths),
			MissingSkills: pq.StringArray(result.MissingSkills),
			FullAnalysis:  result.FullAnalysis,
			Failed:        result.Failed,
			CreatedAt:     result.Timestamp,
		}
		if err := s.records.Create(row); err != nil {
			s.log.Warn("failed to persist screening result", zap.String("file", result.FileName), zap.Error(err))
		} else {
			result.ID = row.ID.String()
		}
	}

	if s.publisher != nil {
		event := ScreeningEvent{Failed: result.Failed, Result: *result}
		if jobID != nil {
			event.JobID = jobID.String()
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.log.Warn("failed to publish screening event", zap.String("file", result.FileName), zap.Error(err))
		}
	}
}

func (s *screenerService) failJob(jobID uuid.UUID, cause error) {
	if err := s.jobs.UpdateError(jobID, cause.Error()); err != nil {
		s.log.Error("failed to mark job failed", zap.String("job_id", jobID.String()), zap.Error(err))
	}
}

func (s *screenerService) removeUploads(paths []string) {
	if s.storage == nil {
		return
	}
	for _, path := range paths {
		if err := s.storage.DeleteFile(path); err != nil {
			s.log.Warn("failed to remove upload", zap.String("path", path), zap.Error(err))
		}
	}
}

func jobFileName(job *models.ScreeningJob, i int) string {
	if i < len(job.OriginalNames) && job.OriginalNames[i] != "" {
		return job.OriginalNames[i]
	}
	return filepath.Base(job.FilePaths[i])
}

func degradedResult(fileName, domain string, cause error, now time.Time) models.ScreeningResult {
	return models.ScreeningResult{
		FileName:      fileName,
		Domain:        domain,
		MatchScore:    0,
		Selected:      false,
		KeyStrengths:  []string{},
		MissingSkills: []string{processingErrorSkill},
		FullAnalysis:  "Error: " + cause.Error(),
		Timestamp:     now.UTC(),
		Failed:        true,
	}
}
