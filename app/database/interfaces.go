package database

import (
	"time"
)

type RunRepository interface {
	CreateRun(trigger string, asOf time.Time) (int64, error)
	FinishRun(runID int64, status string, selected, processed, skipped int, runErr error) error
	AddRunItems(runID int64, items []RunItem) error

	GetRun(runID int64) (*Run, error)
	GetRunItems(runID int64) ([]RunItem, error)
	GetRecentRuns(limit int) ([]Run, error)
	GetRunStats() (RunStats, error)
}
