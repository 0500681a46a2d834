// Package batch runs a delivered batch of jobs through validation, the
// dispatcher and the retry policy, and returns one disposition per job.
//
// Jobs are independent. A failure in one job never stops the others, and
// dispositions come back in input order regardless of how many jobs ran
// at once. If the context is cancelled, jobs that had not started keep
// the zero disposition (retry.Unreported) so the queue redelivers them.
package batch

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xraph/vidqueue/ext"
	"github.com/xraph/vidqueue/job"
	"github.com/xraph/vidqueue/retry"
)

// DefaultConcurrency is the number of jobs handled at once when no
// WithConcurrency option is given.
const DefaultConcurrency = 4

// Dispatcher routes a job to its handler. handler.Dispatcher implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, j job.Job) job.Outcome
}

// Processor handles batches.
type Processor struct {
	dispatcher  Dispatcher
	policy      *retry.Policy
	extensions  *ext.Registry
	concurrency int
	logger      *slog.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithConcurrency bounds how many jobs of one batch run at once. Values
// below one mean one.
func WithConcurrency(n int) Option {
	return func(p *Processor) { p.concurrency = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Processor) { p.logger = l }
}

// WithExtensions sets the registry that receives lifecycle events.
func WithExtensions(r *ext.Registry) Option {
	return func(p *Processor) { p.extensions = r }
}

// New creates a Processor. A nil policy means retry.NewPolicy().
func New(d Dispatcher, policy *retry.Policy, opts ...Option) *Processor {
	if policy == nil {
		policy = retry.NewPolicy()
	}
	p := &Processor{
		dispatcher:  d,
		policy:      policy,
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.concurrency < 1 {
		p.concurrency = 1
	}
	if p.extensions == nil {
		p.extensions = ext.NewRegistry(p.logger)
	}
	return p
}

// Process handles every job and returns their dispositions in input
// order. Every disposition carries its job's ID, including unreported
// ones.
func (p *Processor) Process(ctx context.Context, jobs []job.Job) []retry.Disposition {
	out := make([]retry.Disposition, len(jobs))
	for i := range jobs {
		out[i].JobID = jobs[i].ID
	}

	// A plain Group: one job's failure must not cancel its siblings.
	var g errgroup.Group
	g.SetLimit(p.concurrency)

	for i := range jobs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			out[i] = p.run(ctx, jobs[i])
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		s := Summarize(out)
		p.logger.Warn("batch interrupted",
			slog.Int("jobs", len(jobs)),
			slog.Int("unreported", s.Unreported),
			slog.String("error", ctx.Err().Error()),
		)
	}
	return out
}

// run validates, dispatches and decides one job. Once a disposition
// exists it is final; emitting it cannot change it.
func (p *Processor) run(ctx context.Context, j job.Job) retry.Disposition {
	start := time.Now()

	if err := j.Validate(); err != nil {
		d := p.policy.Decide(job.Invalid(err))
		d.JobID = j.ID
		p.logger.Warn("job rejected",
			slog.String("job_id", j.ID),
			slog.String("action", string(j.Action())),
			slog.Any("notes", j.Notes),
			slog.String("error", err.Error()),
		)
		p.extensions.EmitJobRejected(ctx, j, err)
		return d
	}

	d := p.policy.Decide(p.dispatch(ctx, j))
	d.JobID = j.ID
	p.emit(ctx, j, d, time.Since(start))
	return d
}

// dispatch calls the dispatcher, turning a panic into a retryable outcome.
func (p *Processor) dispatch(ctx context.Context, j job.Job) (o job.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("job processing panicked",
				slog.String("job_id", j.ID),
				slog.Any("panic", r),
			)
			o = job.Panicked(r)
		}
	}()
	return p.dispatcher.Dispatch(ctx, j)
}

// emit logs the decision and notifies extensions.
func (p *Processor) emit(ctx context.Context, j job.Job, d retry.Disposition, elapsed time.Duration) {
	attrs := []any{
		slog.String("job_id", j.ID),
		slog.String("action", string(j.Action())),
		slog.Int("status", d.Status),
		slog.String("class", string(d.Class)),
		slog.Duration("elapsed", elapsed),
	}
	if d.Err != nil {
		attrs = append(attrs, slog.String("error", d.Err.Error()))
	}

	switch {
	case d.Kind == retry.Retry:
		p.logger.Info("job scheduled for retry", append(attrs, slog.Duration("delay", d.Delay))...)
		p.extensions.EmitJobRetrying(ctx, j, d)
	case d.Status == job.StatusInvalid:
		// Acknowledged without effect. Nothing else records it.
		p.logger.Warn("job dropped", append(attrs, slog.Any("notes", j.Notes))...)
		p.extensions.EmitJobDropped(ctx, j, d)
	default:
		p.logger.Info("job acknowledged", attrs...)
		p.extensions.EmitJobAcknowledged(ctx, j, d)
	}
}

// Summary counts dispositions by kind.
type Summary struct {
	Acked      int
	Retried    int
	Unreported int
}

// Summarize counts ds by kind.
func Summarize(ds []retry.Disposition) Summary {
	var s Summary
	for _, d := range ds {
		switch d.Kind {
		case retry.Ack:
			s.Acked++
		case retry.Retry:
			s.Retried++
		default:
			s.Unreported++
		}
	}
	return s
}
