package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/listing-comb/app/feed"
)

// ReloadFeedsTask re-reads the RSS feed configurations so edits to the
// feeds directory apply to the next run.
type ReloadFeedsTask struct {
	Task
	configCache *feed.ConfigCache
}

func NewReloadFeedsTask(configCache *feed.ConfigCache) *ReloadFeedsTask {
	return &ReloadFeedsTask{
		Task:        NewTask(TaskTypeReloadFeeds),
		configCache: configCache,
	}
}

func (t *ReloadFeedsTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := t.configCache.Run(); err != nil {
		slog.Error("Task failed", "type", "ReloadFeeds", "error", err)
		return fmt.Errorf("failed to reload feed configs: %w", err)
	}

	slog.Info("Task completed",
		"type", "ReloadFeeds",
		"feeds", t.configCache.GetConfigCount(),
		"duration", t.GetDuration())

	return nil
}
