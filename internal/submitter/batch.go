package submitter

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/formbuilder/internal/display"
	"github.com/nao1215/formbuilder/internal/form"
	"github.com/nao1215/formbuilder/internal/model"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of submissions a Batch runs at once.
const DefaultConcurrency = 10

// Job is one form to submit as part of a batch.
type Job struct {
	// Name identifies the job in logs and results, e.g. the page URL.
	Name string

	Form      *form.Form
	Submitter *Submitter

	// Display receives the job's own outcomes, in addition to the batch
	// display. May be nil.
	Display display.Display
}

// Batch submits several independent forms concurrently.
// Jobs never cancel each other: a failed submission is recorded in its
// Attempt and the remaining jobs continue.
type Batch struct {
	concurrency int
	logger      *slog.Logger

	// display is shared by every job, so it ends up showing whichever
	// submission completed last.
	display display.Display
}

// BatchOption configures a Batch.
type BatchOption func(*Batch)

// WithConcurrency sets the maximum number of concurrent submissions.
func WithConcurrency(n int) BatchOption {
	return func(b *Batch) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithBatchLogger sets the logger for batch-level messages.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *Batch) {
		b.logger = logger
	}
}

// WithDisplay sets the display shared by all jobs.
func WithDisplay(d display.Display) BatchOption {
	return func(b *Batch) {
		b.display = d
	}
}

// NewBatch creates a Batch.
func NewBatch(opts ...BatchOption) *Batch {
	b := &Batch{
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	if b.display == nil {
		b.display = display.Discard
	}
	return b
}

// Run submits every job and returns the results in job order.
// The error is non-nil only when ctx is cancelled before all jobs started;
// attempts of jobs that did not run have an empty Outcome message.
func (b *Batch) Run(ctx context.Context, jobs []Job) ([]model.Attempt, error) {
	b.logger.Info("starting batch submission",
		"total_forms", len(jobs),
		"concurrency", b.concurrency,
	)
	startTime := time.Now()

	results := make([]model.Attempt, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i, job := range jobs {
		results[i].Page = job.Name

		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			d := b.display
			if job.Display != nil {
				d = display.Multi{job.Display, b.display}
			}

			outcome := job.Submitter.Handle(ctx, job.Form, d)
			results[i].Outcome = outcome

			if outcome.Status.Failed() {
				b.logger.Warn("submission failed",
					"form", job.Name,
					"outcome", outcome.Status.String(),
					"message", outcome.Message,
				)
				return nil
			}

			b.logger.Info("submission completed", "form", job.Name)
			return nil
		})
	}

	err := g.Wait()

	b.logger.Info("batch submission complete",
		"total_forms", len(jobs),
		"elapsed", time.Since(startTime),
	)

	return results, err
}
