package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// ScreeningJob is a queued batch: one domain, many stored resume files.
type ScreeningJob struct {
	ID            uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Domain        string         `gorm:"type:text;not null" json:"domain"`
	Status        JobStatus      `gorm:"not null;default:'queued'" json:"status"`
	FilePaths     pq.StringArray `gorm:"type:text[]" json:"-"`
	OriginalNames pq.StringArray `gorm:"type:text[]" json:"original_names"`
	ErrorMessage  *string        `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt     time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`

	Records []ScreeningRecord `gorm:"foreignKey:JobID" json:"-"`
}

func (ScreeningJob) TableName() string {
	return "screening_jobs"
}
