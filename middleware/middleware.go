package middleware

import (
	"context"

	"github.com/xraph/vidqueue/job"
)

// Handler is the terminal function that performs the job's operation.
type Handler func(ctx context.Context) job.Outcome

// Middleware wraps a Handler with cross-cutting logic.
// It receives the current context, the job being handled, and the next
// handler to call. Middleware MUST call next to continue the chain
// (unless short-circuiting with its own outcome).
type Middleware func(ctx context.Context, j job.Job, next Handler) job.Outcome

// Chain composes multiple middleware into a single Middleware.
// The first middleware in the list is the outermost wrapper.
//
// Example: Chain(logging, recover) executes as:
//
//	logging → recover → handler
func Chain(mws ...Middleware) Middleware {
	return func(ctx context.Context, j job.Job, next Handler) job.Outcome {
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			mw := mws[i]
			prev := h
			h = func(ctx context.Context) job.Outcome {
				return mw(ctx, j, prev)
			}
		}
		return h(ctx)
	}
}
