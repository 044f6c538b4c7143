package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lysyi3m/listing-comb/app/feed"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// Scheduler owns a single worker so pipeline runs never overlap inside one
// process. Runs are enqueued by the cron schedule and by the API.
type Scheduler struct {
	collector   *Collector
	configCache *feed.ConfigCache
	cron        *cron.Cron
	schedule    string
	location    *time.Location
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface
}

// NewScheduler validates the cron schedule up front. An empty schedule
// disables periodic runs; configCache is nil unless feeds come from RSS.
func NewScheduler(collector *Collector, configCache *feed.ConfigCache, schedule string, location *time.Location) (*Scheduler, error) {
	if schedule != "" {
		if _, err := cron.ParseStandard(schedule); err != nil {
			return nil, fmt.Errorf("invalid schedule %q: %w", schedule, err)
		}
	}
	if location == nil {
		location = time.Local
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		collector:   collector,
		configCache: configCache,
		cron:        cron.New(cron.WithLocation(location)),
		schedule:    schedule,
		location:    location,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, 10),
	}, nil
}

func (s *Scheduler) Start() error {
	s.wg.Add(1)
	go s.worker()

	if s.schedule == "" {
		slog.Info("Scheduler started without periodic runs")
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.EnqueueRun(TriggerSchedule); err != nil {
			slog.Warn("Failed to enqueue scheduled run", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("failed to register schedule: %w", err)
	}

	s.cron.Start()
	slog.Info("Scheduler started", "schedule", s.schedule, "location", s.location.String())

	return nil
}

// Stop waits for the cron loop to exit, then cancels the worker. A run in
// progress finishes its current candidate before stopping.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// EnqueueRun queues a feed reload (RSS only) followed by a collection run
// dated by the configured location when it starts.
func (s *Scheduler) EnqueueRun(trigger string) error {
	if s.configCache != nil {
		if err := s.EnqueueTask(NewReloadFeedsTask(s.configCache)); err != nil {
			return err
		}
	}

	return s.EnqueueTask(NewCollectListingsTask(trigger, s.location, s.collector))
}

func (s *Scheduler) worker() {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(task)
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(task TaskInterface) {
	task.Start()

	if err := task.Execute(s.ctx); err != nil {
		slog.Error("Worker task execution failed",
			"type", string(task.GetType()),
			"id", task.GetID(),
			"duration", task.GetDuration(),
			"error", err)
	}
}
