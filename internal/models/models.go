// Package models defines the persisted records shared across the pipeline.
//
// Application status graph:
//
//	PENDING ──► APPLIED   (terminal, never retried)
//	    │
//	    ├─────► SKIPPED   (terminal, never retried)
//	    │
//	    └─────► FAILED    (retryable up to the configured attempt limit)
package models

import (
	"fmt"
	"time"
)

type ApplicationStatus string

const (
	StatusPending ApplicationStatus = "PENDING"
	StatusApplied ApplicationStatus = "APPLIED"
	StatusFailed  ApplicationStatus = "FAILED"
	StatusSkipped ApplicationStatus = "SKIPPED"
)

// ParseStatus converts a raw string to an ApplicationStatus, returning an
// error for unknown values.
func ParseStatus(s string) (ApplicationStatus, error) {
	st := ApplicationStatus(s)
	switch st {
	case StatusPending, StatusApplied, StatusFailed, StatusSkipped:
		return st, nil
	}
	return "", fmt.Errorf("unknown application status %q", s)
}

// IsTerminal reports whether the status ends the job's application
// lifecycle for good. FAILED is not terminal: failed jobs stay eligible
// for retry until the attempt limit.
func (s ApplicationStatus) IsTerminal() bool {
	return s == StatusApplied || s == StatusSkipped
}

// Job is one listing scraped from the job-search surface. ExternalID is the
// platform's listing identifier and the dedup key.
type Job struct {
	ID            int64     `json:"id"`
	ExternalID    string    `json:"external_id"`
	Title         string    `json:"title"`
	Company       string    `json:"company"`
	Location      string    `json:"location"`
	Description   string    `json:"description"`
	URL           string    `json:"url"`
	EasyApply     bool      `json:"easy_apply"`
	PostedDate    string    `json:"posted_date"`
	SearchKeyword string    `json:"search_keyword"`
	ScrapedAt     time.Time `json:"scraped_at"`
}

// Application tracks one apply attempt against a Job.
type Application struct {
	ID          int64             `json:"id"`
	JobID       int64             `json:"job_id"`
	Status      ApplicationStatus `json:"status"`
	ResumeUsed  string            `json:"resume_used"`
	CoverLetter *string           `json:"cover_letter,omitempty"`
	ErrorDetail *string           `json:"error_detail,omitempty"`
	AttemptedAt *time.Time        `json:"attempted_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// ResumeProfile is a named candidate document plus the keywords that make
// it the right pick for a posting. Loaded from config, never persisted.
type ResumeProfile struct {
	Name     string   `yaml:"name"`
	File     string   `yaml:"file"`
	Keywords []string `yaml:"keywords"`
	Weight   float64  `yaml:"weight"`
}
