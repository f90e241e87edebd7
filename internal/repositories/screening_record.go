package repositories

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/resume-screener/internal/models"
)

var ErrRecordNotFound = errors.New("screening record not found")

type ScreeningRecordRepository interface {
	Create(record *models.ScreeningRecord) error
	FindByID(id uuid.UUID) (*models.ScreeningRecord, error)
	FindByJobID(jobID uuid.UUID) ([]models.ScreeningRecord, error)
	ListByDomain(domain string, limit int) ([]models.ScreeningRecord, error)
}

type screeningRecordRepository struct {
	db *gorm.DB
}

func NewScreeningRecordRepository(db *gorm.DB) ScreeningRecordRepository {
	return &screeningRecordRepository{db: db}
}

// Create implements ScreeningRecordRepository.
func (r *screeningRecordRepository) Create(record *models.ScreeningRecord) error {
	if err := r.db.Create(record).Error; err != nil {
		return fmt.Errorf("failed to create screening record: %w", err)
	}

	return nil
}

// FindByID implements ScreeningRecordRepository.
func (r *screeningRecordRepository) FindByID(id uuid.UUID) (*models.ScreeningRecord, error) {
	var record models.ScreeningRecord
	if err := r.db.Where("id = ?", id).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}

		return nil, fmt.Errorf("failed to find screening record: %w", err)
	}

	return &record, nil
}

// FindByJobID implements ScreeningRecordRepository.
func (r *screeningRecordRepository) FindByJobID(jobID uuid.UUID) ([]models.ScreeningRecord, error) {
	var records []models.ScreeningRecord
	if err := r.db.Where("job_id = ?", jobID).Order("position ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to find screening records: %w", err)
	}

	return records, nil
}

// ListByDomain implements ScreeningRecordRepository.
func (r *screeningRecordRepository) ListByDomain(domain string, limit int) ([]models.ScreeningRecord, error) {
	var records []models.ScreeningRecord
	query := r.db.Order("created_at DESC").Limit(limit)
	if domain != "" {
		query = query.Where("domain = ?", domain)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list screening records: %w", err)
	}

	return records, nil
}
