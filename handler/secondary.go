package handler

import (
	"context"
	"log/slog"

	"github.com/xraph/vidqueue/job"
)

// Download enables the MP4 download for an existing video.
type Download struct {
	api    API
	logger *slog.Logger
}

// NewDownload creates a Download handler.
func NewDownload(api API, logger *slog.Logger) *Download {
	return &Download{api: api, logger: orDefault(logger)}
}

// Handle implements Handler.
func (h *Download) Handle(ctx context.Context, j job.Job) job.Outcome {
	p, ok := j.Payload.(job.EnableDownload)
	if !ok {
		return wrongPayload("download", j)
	}

	o := outcomeOf(h.api.EnableDownloads(ctx, p.UID))
	logResponse(h.logger, "mp4 download requested", j, o)
	return o
}

// Captions requests auto-generated captions for an existing video.
type Captions struct {
	api      API
	logger   *slog.Logger
	language string
}

// CaptionsOption configures a Captions handler.
type CaptionsOption func(*Captions)

// WithDefaultLanguage sets the language used when a job names none.
func WithDefaultLanguage(lang string) CaptionsOption {
	return func(h *Captions) {
		if lang != "" {
			h.language = lang
		}
	}
}

// NewCaptions creates a Captions handler.
func NewCaptions(api API, logger *slog.Logger, opts ...CaptionsOption) *Captions {
	h := &Captions{api: api, logger: orDefault(logger), language: job.DefaultLanguage}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle implements Handler.
func (h *Captions) Handle(ctx context.Context, j job.Job) job.Outcome {
	p, ok := j.Payload.(job.EnableCaptions)
	if !ok {
		return wrongPayload("captions", j)
	}

	lang := p.Language
	if lang == "" {
		lang = h.language
	}

	o := outcomeOf(h.api.GenerateCaptions(ctx, p.UID, lang))
	logResponse(h.logger, "captions requested", j, o)
	return o
}
