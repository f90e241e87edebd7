package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/resume-screener/internal/models"
)

var ErrJobNotFound = errors.New("screening job not found")

type ScreeningJobRepository interface {
	Create(job *models.ScreeningJob) error
	FindByID(id uuid.UUID) (*models.ScreeningJob, error)
	Claim(id uuid.UUID) (bool, error)
	MarkCompleted(id uuid.UUID) error
	UpdateError(id uuid.UUID, errorMsg string) error
	FindPendingJobs(limit int) ([]models.ScreeningJob, error)
}

type screeningJobRepository struct {
	db *gorm.DB
}

func NewScreeningJobRepository(db *gorm.DB) ScreeningJobRepository {
	return &screeningJobRepository{db: db}
}

func (r *screeningJobRepository) Create(job *models.ScreeningJob) error {
	if err := r.db.Create(job).Error; err != nil {
		return fmt.Errorf("failed to create screening job: %w", err)
	}
	return nil
}

func (r *screeningJobRepository) FindByID(id uuid.UUID) (*models.ScreeningJob, error) {
	var job models.ScreeningJob
	if err := r.db.Where("id = ?", id).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to find screening job: %w", err)
	}
	return &job, nil
}

// Claim moves a queued job to processing. It reports false when another
// worker already took the job or it is no longer queued.
func (r *screeningJobRepository) Claim(id uuid.UUID) (bool, error) {
	result := r.db.Model(&models.ScreeningJob{}).
		Where("id = ? AND status = ?", id, models.StatusQueued).
		Updates(map[string]interface{}{
			"status":     models.StatusProcessing,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return false, fmt.Errorf("failed to claim screening job: %w", result.Error)
	}

	return result.RowsAffected == 1, nil
}

func (r *screeningJobRepository) MarkCompleted(id uuid.UUID) error {
	return r.update(id, map[string]interface{}{
		"status": models.StatusCompleted,
	})
}

func (r *screeningJobRepository) UpdateError(id uuid.UUID, errorMsg string) error {
	return r.update(id, map[string]interface{}{
		"status":        models.StatusFailed,
		"error_message": errorMsg,
	})
}

func (r *screeningJobRepository) update(id uuid.UUID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result := r.db.Model(&models.ScreeningJob{}).
		Where("id = ?", id).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to update screening job: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrJobNotFound
	}

	return nil
}

func (r *screeningJobRepository) FindPendingJobs(limit int) ([]models.ScreeningJob, error) {
	var jobs []models.ScreeningJob
	err := r.db.
		Where("status = ?", models.StatusQueued).
		Order("created_at ASC").
		Limit(limit).
		Find(&jobs).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find pending jobs: %w", err)
	}

	return jobs, nil
}
