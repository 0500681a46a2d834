package middleware

import (
	"context"
	"time"

	"github.com/xraph/vidqueue/job"
)

// Timeout returns middleware that bounds each handler call with d. The
// handler's outbound request observes the deadline and fails with a
// transport error, which surfaces as an Unreachable outcome. A
// non-positive d disables the bound.
func Timeout(d time.Duration) Middleware {
	return func(ctx context.Context, _ job.Job, next Handler) job.Outcome {
		if d <= 0 {
			return next(ctx)
		}
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return next(ctx)
	}
}
