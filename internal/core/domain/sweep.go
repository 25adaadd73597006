package domain

import "time"

// SweepStatus represents the current state of an ingestion sweep
type SweepStatus string

const (
	SweepStatusIdle      SweepStatus = "idle"
	SweepStatusRunning   SweepStatus = "running"
	SweepStatusCompleted SweepStatus = "completed"
	SweepStatusFailed    SweepStatus = "failed"
)

// SweepState tracks the most recent ingestion sweep
type SweepState struct {
	Status      SweepStatus `json:"status"`
	LastSweepAt *time.Time  `json:"last_sweep_at,omitempty"`
	Stats       SweepStats  `json:"stats"`
	Error       string      `json:"error,omitempty"`
	StartedAt   *time.Time  `json:"started_at,omitempty"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}

// SweepStats holds statistics for one ingestion sweep.
// Fetched counts every message pulled from the mail source; Skipped counts
// duplicates already present by external ID. Fetched == Processed + Skipped + Failed.
type SweepStats struct {
	Fetched   int `json:"fetched"`
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Responded int `json:"responded"`
	Failed    int `json:"failed"`
}

// SweepResult represents the outcome of one ingestion sweep
type SweepResult struct {
	Success  bool       `json:"success"`
	Stats    SweepStats `json:"stats"`
	Error    string     `json:"error,omitempty"`
	Duration float64    `json:"duration_seconds"`
}

// CleanupResult reports a retention cleanup run.
// Skipped counts records retained because of their urgent priority.
type CleanupResult struct {
	Examined int     `json:"examined"`
	Deleted  int     `json:"deleted"`
	Skipped  int     `json:"skipped"`
	Duration float64 `json:"duration_seconds"`
}

// RefreshResult reports a knowledge refresh run over recent responded threads
type RefreshResult struct {
	Candidates int     `json:"candidates"`
	Indexed    int     `json:"indexed"`
	Failed     int     `json:"failed"`
	Duration   float64 `json:"duration_seconds"`
}
