package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ScreeningRecord is one persisted screening result.
type ScreeningRecord struct {
	ID            uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	JobID         *uuid.UUID     `gorm:"type:uuid;index" json:"job_id,omitempty"`
	Position      int            `gorm:"not null;default:0" json:"position"`
	FileName      string         `gorm:"type:text" json:"file_name"`
	Domain        string         `gorm:"type:text;index" json:"domain"`
	MatchScore    int            `gorm:"not null" json:"match_score"`
	Selected      bool           `gorm:"not null" json:"selected"`
	KeyStrengths  pq.StringArray `gorm:"type:text[]" json:"key_strengths"`
	MissingSkills pq.StringArray `gorm:"type:text[]" json:"missing_skills"`
	FullAnalysis  string         `gorm:"type:text" json:"full_analysis"`
	Failed        bool           `gorm:"not null;default:false" json:"failed"`
	CreatedAt     time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (ScreeningRecord) TableName() string {
	return "screening_records"
}

// ToResult converts the stored row into the service response shape.
func (r *ScreeningRecord) ToResult() ScreeningResult {
	return ScreeningResult{
		ID:            r.ID.String(),
		FileName:      r.FileName,
		Domain:        r.Domain,
		MatchScore:    r.MatchScore,
		Selected:      r.Selected,
		KeyStrengths:  nonNil(r.KeyStrengths),
		MissingSkills: nonNil(r.MissingSkills),
		FullAnalysis:  r.FullAnalysis,
		Timestamp:     r.CreatedAt.UTC(),
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
