// Package verify drives the verification cascade: for each citation
// record, in fixed source order, it invokes adapters until the pass
// threshold is cleared or every source is exhausted, then aggregates
// batch statistics.
package verify

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/lidianycs/cerca/internal/match"
	"github.com/lidianycs/cerca/internal/reference"
	"github.com/lidianycs/cerca/internal/sources"
)

// DefaultPacing is the fixed delay between records, there to respect the
// external sources' rate limits.
const DefaultPacing = 150 * time.Millisecond

// Summary aggregates pass/fail counts across a batch.
type Summary struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// Update is a progress event posted to the presentation side. Events flow
// through a single-consumer channel; the consumer applies visible changes,
// so record state is never read from two goroutines at once mid-batch.
type Update struct {
	RecordID int
	Status   reference.Status
	Score    int
	Done     bool // true once the record's cascade has finished
}

// Orchestrator runs verification batches. Record processing and adapter
// calls are strictly sequential; pacing and per-call HTTP timeouts are the
// only blocking points, and cancellation is checked between records only.
type Orchestrator struct {
	sources []sources.Source
	limiter *rate.Limiter
	updates chan<- Update
	log     zerolog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPacing overrides the inter-record delay.
func WithPacing(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithUpdates sets the channel progress events are posted to. The caller
// owns draining it.
func WithUpdates(ch chan<- Update) Option {
	return func(o *Orchestrator) { o.updates = ch }
}

// New creates an Orchestrator over the given sources, tried in order.
func New(srcs []sources.Source, log zerolog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		sources: srcs,
		limiter: rate.NewLimiter(rate.Every(DefaultPacing), 1),
		log:     log,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RunBatch verifies every record in order and returns the batch summary.
// Cancelling the context stops the batch after the current record; there
// is no mid-record cancellation.
func (o *Orchestrator) RunBatch(ctx context.Context, recs []*reference.Record) Summary {
	for _, rec := range recs {
		if err := o.limiter.Wait(ctx); err != nil {
			o.log.Warn().Int("record", rec.ID).Msg("verification stopped before record")
			break
		}
		o.verifyRecord(ctx, rec)
	}
	return Summarize(recs)
}

// verifyRecord runs the cascade for one record. Exactly one cascade runs
// per record per batch.
func (o *Orchestrator) verifyRecord(ctx context.Context, rec *reference.Record) {
	rec.SetStatus(reference.StatusSearching)
	o.post(rec, false)

	found := false
	for _, src := range o.sources {
		if rec.MatchScore > match.PassThreshold {
			break
		}
		if c, ok := src.(sources.Conditional); ok && !c.Eligible(rec) {
			continue
		}

		ok, err := src.Verify(ctx, rec)
		if err != nil {
			// Source failures are isolated: log and move on to the next
			// source, never abort the batch.
			switch {
			case sources.IsAuthError(err):
				o.log.Error().Str("source", src.Name()).Int("record", rec.ID).
					Err(err).Msg("source credentials rejected")
			case sources.IsRateLimited(err):
				o.log.Warn().Str("source", src.Name()).Int("record", rec.ID).
					Err(err).Msg("source rate limited")
			default:
				o.log.Warn().Str("source", src.Name()).Int("record", rec.ID).
					Err(err).Msg("source lookup failed")
			}
		}
		found = found || ok
	}

	if !found {
		rec.MarkNotFound()
	} else {
		rec.SetVerified(rec.MatchScore > match.PassThreshold)
	}
	o.post(rec, true)
}

func (o *Orchestrator) post(rec *reference.Record, done bool) {
	if o.updates == nil {
		return
	}
	o.updates <- Update{
		RecordID: rec.ID,
		Status:   rec.Status,
		Score:    rec.MatchScore,
		Done:     done,
	}
}

// Summarize recomputes the batch aggregate from record state.
func Summarize(recs []*reference.Record) Summary {
	sum := Summary{Total: len(recs)}
	for _, rec := range recs {
		if rec.Verified {
			sum.Passed++
		}
	}
	sum.Failed = sum.Total - sum.Passed
	return sum
}

// WatchSummary subscribes to every record and invokes fn with a fresh
// Summary whenever any record changes, e.g. when a user toggles the
// verified flag after a batch has completed.
func WatchSummary(recs []*reference.Record, fn func(Summary)) {
	for _, rec := range recs {
		rec.OnChange(func(*reference.Record) {
			fn(Summarize(recs))
		})
	}
}
