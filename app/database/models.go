package database

import (
	"time"
)

const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run is one pass of the pipeline over the feed
type Run struct {
	ID         int64
	Trigger    string // schedule, api or cli
	AsOf       time.Time
	Status     string
	Selected   int
	Processed  int
	Skipped    int
	Error      string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// RunItem is the outcome of one candidate within a run
type RunItem struct {
	RunID       int64
	SourceLabel string
	PostURL     string
	State       string
	Reason      string
	Error       string
	FieldCount  int
	Duration    time.Duration
}

type RunStats struct {
	Runs          int
	FailedRuns    int
	Appended      int
	Skipped       int
	LastRunAt     *time.Time
	LastRunStatus string
}
