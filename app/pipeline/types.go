package pipeline

import (
	"context"
	"time"

	"github.com/lysyi3m/listing-comb/app/feed"
	"github.com/lysyi3m/listing-comb/app/listing"
)

type State string

const (
	StateFetching   State = "fetching"
	StateExtracting State = "extracting"
	StateAppending  State = "appending"
	StateDone       State = "done"
	StateSkipped    State = "skipped"
)

type Reason string

const (
	ReasonNone           Reason = ""
	ReasonContentMissing Reason = "content_missing"
	ReasonFetchError     Reason = "fetch_error"
	ReasonAppendError    Reason = "append_error"
	ReasonPanic          Reason = "panic"
	// ReasonNotAttempted marks candidates left over when a run is cancelled.
	ReasonNotAttempted Reason = "not_attempted"
)

type PageFetcher interface {
	Fetch(ctx context.Context, postURL string) (string, error)
}

type FieldExtractor interface {
	Run(ctx context.Context, rawText string) listing.Extracted
}

type RowAppender interface {
	AppendRow(ctx context.Context, row []string) error
}

// Pacer waits between fetching a page and extracting it.
type Pacer interface {
	Wait(ctx context.Context) error
}

type FixedPacer struct {
	Delay time.Duration
}

func (p FixedPacer) Wait(ctx context.Context) error {
	if p.Delay <= 0 {
		return nil
	}

	timer := time.NewTimer(p.Delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type Outcome struct {
	Candidate  feed.Candidate
	State      State
	Reason     Reason
	Err        error
	FieldCount int
	Duration   time.Duration
}

func (o Outcome) Appended() bool {
	return o.State == StateDone
}

type Summary struct {
	Selected  int
	Processed int
	Skipped   int
	Outcomes  []Outcome
}
