package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/listing-comb/app/database"
	"github.com/lysyi3m/listing-comb/app/feed"
	"github.com/lysyi3m/listing-comb/app/lock"
	"github.com/lysyi3m/listing-comb/app/metrics"
	"github.com/lysyi3m/listing-comb/app/pipeline"
	"github.com/lysyi3m/listing-comb/app/store"
)

// Collector runs the whole pipeline once: header bootstrap, URL snapshot,
// candidate selection and the sequential run, recorded in run history.
type Collector struct {
	source   feed.Source
	table    store.Table
	selector *feed.Selector
	runner   CandidateRunner
	runRepo  database.RunRepository
	locker   lock.Locker
}

// NewCollector wires the pipeline. runRepo may be nil to skip run history.
func NewCollector(source feed.Source, table store.Table, selector *feed.Selector, runner CandidateRunner,
	runRepo database.RunRepository, locker lock.Locker) *Collector {
	if locker == nil {
		locker = lock.NewLocalLocker()
	}

	return &Collector{
		source:   source,
		table:    table,
		selector: selector,
		runner:   runner,
		runRepo:  runRepo,
		locker:   locker,
	}
}

// Collect processes the feed as of asOf. Errors before the first candidate
// abort the run; per-candidate failures are only reported in the summary.
func (c *Collector) Collect(ctx context.Context, trigger string, asOf time.Time) (pipeline.Summary, error) {
	release, err := c.locker.Acquire(ctx)
	if err != nil {
		metrics.RunsTotal.WithLabelValues(trigger, "locked").Inc()
		return pipeline.Summary{}, err
	}
	defer release()

	runID := c.startRun(trigger, asOf)

	summary, err := c.collect(ctx, asOf)

	c.finishRun(runID, summary, err)
	metrics.LastRunTimestamp.SetToCurrentTime()
	if err != nil {
		metrics.RunsTotal.WithLabelValues(trigger, database.RunStatusFailed).Inc()
		return summary, err
	}
	metrics.RunsTotal.WithLabelValues(trigger, database.RunStatusCompleted).Inc()

	return summary, nil
}

func (c *Collector) collect(ctx context.Context, asOf time.Time) (pipeline.Summary, error) {
	if err := store.EnsureHeader(ctx, c.table); err != nil {
		return pipeline.Summary{}, err
	}

	rows, err := c.table.ReadAll(ctx)
	if err != nil {
		return pipeline.Summary{}, fmt.Errorf("failed to snapshot output table: %w", err)
	}
	existing := feed.URLSnapshot(rows)

	records, err := c.source.Records(ctx)
	if err != nil {
		return pipeline.Summary{}, fmt.Errorf("failed to read feed: %w", err)
	}

	candidates := c.selector.Select(records, existing, asOf)
	slog.Info("Candidates selected",
		"records", len(records),
		"existing", len(existing),
		"selected", len(candidates),
		"as_of", asOf.Format("2006-01-02"))

	return c.runner.Run(ctx, candidates, asOf), nil
}

func (c *Collector) startRun(trigger string, asOf time.Time) int64 {
	if c.runRepo == nil {
		return 0
	}

	runID, err := c.runRepo.CreateRun(trigger, asOf)
	if err != nil {
		slog.Warn("Failed to record run start", "error", err)
		return 0
	}
	return runID
}

func (c *Collector) finishRun(runID int64, summary pipeline.Summary, runErr error) {
	if c.runRepo == nil || runID == 0 {
		return
	}

	items := make([]database.RunItem, 0, len(summary.Outcomes))
	for _, outcome := range summary.Outcomes {
		item := database.RunItem{
			RunID:       runID,
			SourceLabel: outcome.Candidate.SourceLabel,
			PostURL:     outcome.Candidate.PostURL,
			State:       string(outcome.State),
			Reason:      string(outcome.Reason),
			FieldCount:  outcome.FieldCount,
			Duration:    outcome.Duration,
		}
		if outcome.Err != nil {
			item.Error = outcome.Err.Error()
		}
		items = append(items, item)
	}

	if err := c.runRepo.AddRunItems(runID, items); err != nil {
		slog.Warn("Failed to record run items", "run_id", runID, "error", err)
	}

	status := database.RunStatusCompleted
	if runErr != nil {
		status = database.RunStatusFailed
	}
	if err := c.runRepo.FinishRun(runID, status, summary.Selected, summary.Processed, summary.Skipped, runErr); err != nil {
		slog.Warn("Failed to record run finish", "run_id", runID, "error", err)
	}
}

// CollectListingsTask runs the collector once. AsOf is resolved when the task
// executes, so a run that waited in the queue past midnight uses the new day.
type CollectListingsTask struct {
	Task
	Trigger   string
	AsOf      time.Time
	location  *time.Location
	collector *Collector
	summary   pipeline.Summary
}

func NewCollectListingsTask(trigger string, location *time.Location, collector *Collector) *CollectListingsTask {
	if location == nil {
		location = time.Local
	}

	return &CollectListingsTask{
		Task:      NewTask(TaskTypeCollectListings),
		Trigger:   trigger,
		location:  location,
		collector: collector,
	}
}

func (t *CollectListingsTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if t.AsOf.IsZero() {
		t.AsOf = time.Now().In(t.location)
	}

	summary, err := t.collector.Collect(ctx, t.Trigger, t.AsOf)
	t.summary = summary
	if errors.Is(err, lock.ErrLocked) {
		slog.Warn("Run skipped, another run holds the lock", "trigger", t.Trigger)
		return err
	}
	if err != nil {
		slog.Error("Task failed", "type", "CollectListings", "trigger", t.Trigger, "error", err)
		return fmt.Errorf("failed to collect listings: %w", err)
	}

	slog.Info("Task completed",
		"type", "CollectListings",
		"trigger", t.Trigger,
		"duration", t.GetDuration(),
		"selected", summary.Selected,
		"processed", summary.Processed,
		"skipped", summary.Skipped)

	return nil
}

func (t *CollectListingsTask) Summary() pipeline.Summary {
	return t.summary
}
