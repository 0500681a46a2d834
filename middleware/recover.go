package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/xraph/vidqueue/job"
)

// Recover returns middleware that recovers from panics in the handler
// chain. A panic becomes a Panicked outcome so the job is retried
// rather than lost, and the stack is logged.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, j job.Job, next Handler) (out job.Outcome) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("job handler panicked",
					slog.String("job_id", j.ID),
					slog.String("action", string(j.Action())),
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())),
				)
				out = job.Panicked(fmt.Sprintf("%s: %v", j.Action(), r))
			}
		}()
		return next(ctx)
	}
}
