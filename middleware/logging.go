package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/vidqueue/job"
)

// Logging returns middleware that logs the start and outcome of each call.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, j job.Job, next Handler) job.Outcome {
		logger.Debug("job handling started",
			slog.String("job_id", j.ID),
			slog.String("action", string(j.Action())),
			slog.Any("notes", j.Notes),
		)

		start := time.Now()
		o := next(ctx)
		elapsed := time.Since(start)

		if o.OK() {
			logger.Info("job handled",
				slog.String("job_id", j.ID),
				slog.String("action", string(j.Action())),
				slog.Int("status", o.Status),
				slog.Duration("elapsed", elapsed),
			)
			return o
		}

		attrs := []any{
			slog.String("job_id", j.ID),
			slog.String("action", string(j.Action())),
			slog.Int("status", o.Status),
			slog.Duration("elapsed", elapsed),
		}
		if o.Err != nil {
			attrs = append(attrs, slog.String("error", o.Err.Error()))
		}
		logger.Warn("job handling failed", attrs...)
		return o
	}
}
