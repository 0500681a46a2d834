// Package handler holds the operation handlers, one per job action, and
// the Dispatcher that routes a job to its handler.
//
// Each handler makes exactly one call to the media API per invocation and
// reports the HTTP status as a job.Outcome. Transport failures and
// unreadable 2xx replies become synthetic failure statuses; they are
// never reported as success.
package handler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/vidqueue"
	"github.com/xraph/vidqueue/job"
	"github.com/xraph/vidqueue/mediaapi"
)

// Handler performs the single outbound operation for a job.
type Handler interface {
	Handle(ctx context.Context, j job.Job) job.Outcome
}

// Func adapts a function to the Handler interface.
type Func func(ctx context.Context, j job.Job) job.Outcome

// Handle implements Handler.
func (f Func) Handle(ctx context.Context, j job.Job) job.Outcome { return f(ctx, j) }

// API is the subset of the media API client the handlers use.
type API interface {
	CopyFromURL(ctx context.Context, req mediaapi.CopyRequest) (*mediaapi.Response, error)
	EnableDownloads(ctx context.Context, uid string) (*mediaapi.Response, error)
	GenerateCaptions(ctx context.Context, uid, lang string) (*mediaapi.Response, error)
}

// Table builds the standard action→handler mapping over api.
func Table(api API, logger *slog.Logger, opts ...CaptionsOption) map[job.Action]Handler {
	return map[job.Action]Handler{
		job.ActionFetchFromURL:   NewFetch(api, logger),
		job.ActionEnableDownload: NewDownload(api, logger),
		job.ActionEnableCaptions: NewCaptions(api, logger, opts...),
	}
}

// outcomeOf normalizes a client result.
func outcomeOf(resp *mediaapi.Response, err error) job.Outcome {
	switch {
	case err == nil:
		return job.Status(resp.StatusCode)
	case resp != nil && mediaapi.IsMalformed(err):
		if resp.OK() {
			return job.MalformedResponse(err)
		}
		// The status already says what went wrong; keep it.
		return job.Outcome{Status: resp.StatusCode, Err: err}
	default:
		return job.Unreachable(err)
	}
}

func wrongPayload(h string, j job.Job) job.Outcome {
	return job.Invalid(fmt.Errorf("%w: %s handler cannot run %q", vidqueue.ErrInvalidJob, h, j.Action()))
}

func logResponse(logger *slog.Logger, msg string, j job.Job, o job.Outcome) {
	attrs := []any{
		slog.String("job_id", j.ID),
		slog.String("action", string(j.Action())),
		slog.Int("status", o.Status),
	}
	if o.Err != nil {
		attrs = append(attrs, slog.String("error", o.Err.Error()))
	}
	logger.Info(msg, attrs...)
}

func orDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
