package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/listing-comb/app/feed"
	"github.com/lysyi3m/listing-comb/app/listing"
	"github.com/lysyi3m/listing-comb/app/metrics"
	"github.com/lysyi3m/listing-comb/app/page"
)

// Runner processes candidates one at a time: fetch the post, wait, extract
// the listing fields and append one output row.
type Runner struct {
	fetcher   PageFetcher
	extractor FieldExtractor
	appender  RowAppender
	pacer     Pacer
}

func NewRunner(fetcher PageFetcher, extractor FieldExtractor, appender RowAppender, pacer Pacer) *Runner {
	if pacer == nil {
		pacer = FixedPacer{}
	}

	return &Runner{
		fetcher:   fetcher,
		extractor: extractor,
		appender:  appender,
		pacer:     pacer,
	}
}

// Run processes candidates in order and stamps appended rows with asOf as
// the collection date. A failing candidate never stops the batch. Once ctx
// is cancelled the candidate in flight is finished and the rest are
// reported as not attempted.
func (r *Runner) Run(ctx context.Context, candidates []feed.Candidate, asOf time.Time) Summary {
	summary := Summary{
		Selected: len(candidates),
		Outcomes: make([]Outcome, 0, len(candidates)),
	}

	for i, candidate := range candidates {
		if ctx.Err() != nil {
			slog.Warn("Run cancelled, leaving remaining candidates", "remaining", len(candidates)-i)
			for _, rest := range candidates[i:] {
				summary.add(Outcome{Candidate: rest, State: StateSkipped, Reason: ReasonNotAttempted, Err: ctx.Err()})
			}
			break
		}

		outcome := r.process(context.WithoutCancel(ctx), candidate, asOf)
		summary.add(outcome)
		record(outcome)
	}

	return summary
}

func (s *Summary) add(outcome Outcome) {
	s.Outcomes = append(s.Outcomes, outcome)
	if outcome.Appended() {
		s.Processed++
	} else {
		s.Skipped++
	}
}

func (r *Runner) process(ctx context.Context, candidate feed.Candidate, asOf time.Time) (outcome Outcome) {
	started := time.Now()
	outcome = Outcome{Candidate: candidate, State: StateFetching}

	defer func() {
		if p := recover(); p != nil {
			outcome = skip(outcome, ReasonPanic, fmt.Errorf("panic while %s: %v", outcome.State, p))
		}
		outcome.Duration = time.Since(started)
	}()

	text, err := r.fetcher.Fetch(ctx, candidate.PostURL)
	if errors.Is(err, page.ErrContentNotFound) {
		return skip(outcome, ReasonContentMissing, err)
	}
	if err != nil {
		return skip(outcome, ReasonFetchError, err)
	}

	if err := r.pacer.Wait(ctx); err != nil {
		slog.Debug("Pacing wait interrupted", "url", candidate.PostURL, "error", err)
	}

	outcome.State = StateExtracting
	fields := r.extractor.Run(ctx, text)
	outcome.FieldCount = fields.Count()

	outcome.State = StateAppending
	row := listing.Record{
		SourceLabel: candidate.SourceLabel,
		PostURL:     candidate.PostURL,
		Fields:      fields,
		CollectedAt: asOf,
	}.Row()

	if err := r.appender.AppendRow(ctx, row); err != nil {
		return skip(outcome, ReasonAppendError, err)
	}

	outcome.State = StateDone
	return outcome
}

func skip(outcome Outcome, reason Reason, err error) Outcome {
	outcome.State = StateSkipped
	outcome.Reason = reason
	outcome.Err = err
	return outcome
}

func record(outcome Outcome) {
	metrics.CandidatesTotal.WithLabelValues(string(outcome.State), string(outcome.Reason)).Inc()
	metrics.CandidateDuration.WithLabelValues(string(outcome.State)).Observe(outcome.Duration.Seconds())

	if outcome.Appended() {
		slog.Info("Candidate processed",
			"label", outcome.Candidate.SourceLabel,
			"url", outcome.Candidate.PostURL,
			"fields", outcome.FieldCount,
			"duration", outcome.Duration)
		return
	}

	slog.Warn("Candidate skipped",
		"label", outcome.Candidate.SourceLabel,
		"url", outcome.Candidate.PostURL,
		"reason", string(outcome.Reason),
		"error", outcome.Err)
}
