package handler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/xraph/vidqueue"
	"github.com/xraph/vidqueue/job"
	"github.com/xraph/vidqueue/middleware"
)

// Dispatcher routes a job to the handler registered for its action.
// The table is copied at construction and never changes, so a Dispatcher
// is safe for concurrent use.
type Dispatcher struct {
	handlers map[job.Action]Handler
	mw       middleware.Middleware
	logger   *slog.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithMiddleware wraps every handler call in the given middleware. The
// first middleware is the outermost.
func WithMiddleware(mws ...middleware.Middleware) DispatcherOption {
	return func(d *Dispatcher) { d.mw = middleware.Chain(mws...) }
}

// WithLogger sets the logger used for routing diagnostics.
func WithLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = l }
}

// NewDispatcher creates a Dispatcher over handlers. Nil entries are
// skipped.
func NewDispatcher(handlers map[job.Action]Handler, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		handlers: make(map[job.Action]Handler, len(handlers)),
		mw:       middleware.Chain(),
		logger:   slog.Default(),
	}
	for a, h := range handlers {
		if h != nil {
			d.handlers[a] = h
		}
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch invokes the handler for j's action and returns its outcome.
// An action with no registered handler yields a 400 outcome wrapping
// vidqueue.ErrUnknownAction, and no handler is called.
func (d *Dispatcher) Dispatch(ctx context.Context, j job.Job) job.Outcome {
	h, ok := d.handlers[j.Action()]
	if !ok {
		d.logger.Warn("no handler for action",
			slog.String("job_id", j.ID),
			slog.String("action", string(j.Action())),
		)
		return job.Invalid(fmt.Errorf("%w: %q", vidqueue.ErrUnknownAction, j.Action()))
	}

	return d.mw(ctx, j, func(ctx context.Context) job.Outcome {
		return h.Handle(ctx, j)
	})
}

// Actions returns the registered actions, sorted.
func (d *Dispatcher) Actions() []job.Action {
	out := make([]job.Action, 0, len(d.handlers))
	for a := range d.handlers {
		out = append(out, a)
	}
	sort.Slice(out, func(i, k int) bool { return out[i] < out[k] })
	return out
}
