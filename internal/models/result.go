package models

import "time"

// ScreeningResult is the per-file payload returned by the API and rendered into reports.
type ScreeningResult struct {
	ID            string    `json:"id,omitempty"`
	FileName      string    `json:"fileName"`
	Domain        string    `json:"domain"`
	MatchScore    int       `json:"matchScore"`
	Selected      bool      `json:"selected"`
	KeyStrengths  []string  `json:"keyStrengths"`
	MissingSkills []string  `json:"missingSkills"`
	FullAnalysis  string    `json:"fullAnalysis"`
	Timestamp     time.Time `json:"timestamp"`
	Failed        bool      `json:"-"`
}

type AnalyzeResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Results []ScreeningResult `json:"results"`
}

type ReportRequest struct {
	FileName      string   `json:"fileName"`
	Domain        string   `json:"domain"`
	MatchScore    int      `json:"matchScore"`
	Selected      bool     `json:"selected"`
	KeyStrengths  []string `json:"keyStrengths"`
	MissingSkills []string `json:"missingSkills"`
	FullAnalysis  string   `json:"fullAnalysis"`
}

type ReportResponse struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	FilePath        string `json:"filePath"`
	FileName        string `json:"fileName"`
	ArchiveLocation string `json:"archiveLocation,omitempty"`
}

type JobResponse struct {
	ID           string            `json:"id"`
	Status       string            `json:"status"`
	Domain       string            `json:"domain"`
	Files        []string          `json:"files"`
	Results      []ScreeningResult `json:"results,omitempty"`
	ErrorMessage *string           `json:"errorMessage,omitempty"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
