package tasks

import (
	"context"
	"time"

	"github.com/lysyi3m/listing-comb/app/feed"
	"github.com/lysyi3m/listing-comb/app/pipeline"
)

// TaskSchedulerInterface is used by main and the API to run the pipeline in
// the background.
//
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueRun(tasks.TriggerAPI)
type TaskSchedulerInterface interface {
	Start() error
	Stop()
	EnqueueTask(task TaskInterface) error
	EnqueueRun(trigger string) error
}

type CandidateRunner interface {
	Run(ctx context.Context, candidates []feed.Candidate, asOf time.Time) pipeline.Summary
}
