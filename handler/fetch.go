package handler

import (
	"context"
	"log/slog"

	"github.com/xraph/vidqueue/job"
	"github.com/xraph/vidqueue/mediaapi"
)

// Fetch ingests a video from its source URL.
type Fetch struct {
	api    API
	logger *slog.Logger
}

// NewFetch creates a Fetch handler.
func NewFetch(api API, logger *slog.Logger) *Fetch {
	return &Fetch{api: api, logger: orDefault(logger)}
}

// Handle implements Handler.
func (h *Fetch) Handle(ctx context.Context, j job.Job) job.Outcome {
	p, ok := j.Payload.(job.FetchFromURL)
	if !ok {
		return wrongPayload("fetch", j)
	}

	resp, err := h.api.CopyFromURL(ctx, mediaapi.CopyRequest{
		URL:     p.Source,
		Creator: p.Creator,
		Meta:    mediaapi.Meta{Name: p.Name},
	})
	o := outcomeOf(resp, err)
	logResponse(h.logger, "fetch from url requested", j, o)
	return o
}
