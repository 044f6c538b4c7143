package api

import (
	"time"

	"github.com/lysyi3m/listing-comb/app/database"
	"github.com/lysyi3m/listing-comb/app/feed"
	"github.com/lysyi3m/listing-comb/app/tasks"
)

// RecordCounter is implemented by output stores that can count their rows
// cheaply. Only the SQLite store does.
type RecordCounter interface {
	GetRecordCount() (int, error)
}

var _ RecordCounter = (*database.RecordTable)(nil)

type Handler struct {
	runRepo     database.RunRepository
	records     RecordCounter
	configCache *feed.ConfigCache
	scheduler   tasks.TaskSchedulerInterface
	version     string
	startedAt   time.Time
}

type RunResponse struct {
	ID         int64      `json:"id"`
	Trigger    string     `json:"trigger"`
	AsOf       string     `json:"as_of"`
	Status     string     `json:"status"`
	Selected   int        `json:"selected"`
	Processed  int        `json:"processed"`
	Skipped    int        `json:"skipped"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

type RunItemResponse struct {
	SourceLabel string `json:"source_label"`
	PostURL     string `json:"post_url"`
	State       string `json:"state"`
	Reason      string `json:"reason,omitempty"`
	Error       string `json:"error,omitempty"`
	FieldCount  int    `json:"field_count"`
	Duration    string `json:"duration"`
}

func newRunResponse(run database.Run) RunResponse {
	return RunResponse{
		ID:         run.ID,
		Trigger:    run.Trigger,
		AsOf:       run.AsOf.Format("2006-01-02"),
		Status:     run.Status,
		Selected:   run.Selected,
		Processed:  run.Processed,
		Skipped:    run.Skipped,
		Error:      run.Error,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
	}
}

func newRunItemResponse(item database.RunItem) RunItemResponse {
	return RunItemResponse{
		SourceLabel: item.SourceLabel,
		PostURL:     item.PostURL,
		State:       item.State,
		Reason:      item.Reason,
		Error:       item.Error,
		FieldCount:  item.FieldCount,
		Duration:    item.Duration.String(),
	}
}
