package ext

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/vidqueue/job"
	"github.com/xraph/vidqueue/retry"
)

// Named entry types pair a hook implementation with the extension name
// captured at registration time.
type jobAcknowledgedEntry struct {
	name string
	hook JobAcknowledged
}

type jobRetryingEntry struct {
	name string
	hook JobRetrying
}

type jobDroppedEntry struct {
	name string
	hook JobDropped
}

type jobRejectedEntry struct {
	name string
	hook JobRejected
}

type batchProcessedEntry struct {
	name string
	hook BatchProcessed
}

type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. It type-caches extensions at registration time so emit calls
// iterate only over extensions that implement the relevant hook.
//
// Register must not be called concurrently with the Emit methods; the
// Emit methods themselves are safe for concurrent use.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	jobAcknowledged []jobAcknowledgedEntry
	jobRetrying     []jobRetryingEntry
	jobDropped      []jobDroppedEntry
	jobRejected     []jobRejectedEntry
	batchProcessed  []batchProcessedEntry
	shutdown        []shutdownEntry
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds an extension and type-asserts it into all applicable
// hook caches. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(JobAcknowledged); ok {
		r.jobAcknowledged = append(r.jobAcknowledged, jobAcknowledgedEntry{name, h})
	}
	if h, ok := e.(JobRetrying); ok {
		r.jobRetrying = append(r.jobRetrying, jobRetryingEntry{name, h})
	}
	if h, ok := e.(JobDropped); ok {
		r.jobDropped = append(r.jobDropped, jobDroppedEntry{name, h})
	}
	if h, ok := e.(JobRejected); ok {
		r.jobRejected = append(r.jobRejected, jobRejectedEntry{name, h})
	}
	if h, ok := e.(BatchProcessed); ok {
		r.batchProcessed = append(r.batchProcessed, batchProcessedEntry{name, h})
	}
	if h, ok := e.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension { return r.extensions }

// ──────────────────────────────────────────────────
// Job event emitters
// ──────────────────────────────────────────────────

// EmitJobAcknowledged notifies all extensions that implement JobAcknowledged.
func (r *Registry) EmitJobAcknowledged(ctx context.Context, j job.Job, d retry.Disposition) {
	for _, e := range r.jobAcknowledged {
		r.call("OnJobAcknowledged", e.name, func() error { return e.hook.OnJobAcknowledged(ctx, j, d) })
	}
}

// EmitJobRetrying notifies all extensions that implement JobRetrying.
func (r *Registry) EmitJobRetrying(ctx context.Context, j job.Job, d retry.Disposition) {
	for _, e := range r.jobRetrying {
		r.call("OnJobRetrying", e.name, func() error { return e.hook.OnJobRetrying(ctx, j, d) })
	}
}

// EmitJobDropped notifies all extensions that implement JobDropped.
func (r *Registry) EmitJobDropped(ctx context.Context, j job.Job, d retry.Disposition) {
	for _, e := range r.jobDropped {
		r.call("OnJobDropped", e.name, func() error { return e.hook.OnJobDropped(ctx, j, d) })
	}
}

// EmitJobRejected notifies all extensions that implement JobRejected.
func (r *Registry) EmitJobRejected(ctx context.Context, j job.Job, jobErr error) {
	for _, e := range r.jobRejected {
		r.call("OnJobRejected", e.name, func() error { return e.hook.OnJobRejected(ctx, j, jobErr) })
	}
}

// ──────────────────────────────────────────────────
// Other event emitters
// ──────────────────────────────────────────────────

// EmitBatchProcessed notifies all extensions that implement BatchProcessed.
func (r *Registry) EmitBatchProcessed(ctx context.Context, size int, elapsed time.Duration) {
	for _, e := range r.batchProcessed {
		r.call("OnBatchProcessed", e.name, func() error { return e.hook.OnBatchProcessed(ctx, size, elapsed) })
	}
}

// EmitShutdown notifies all extensions that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		r.call("OnShutdown", e.name, func() error { return e.hook.OnShutdown(ctx) })
	}
}

// call runs one hook. A returned error or a panic is logged and
// swallowed so one extension cannot affect the job or its siblings.
func (r *Registry) call(hook, extName string, fn func() error) {
	defer func() {
		if p := recover(); p != nil {
			r.logHookError(hook, extName, fmt.Errorf("panic: %v", p))
		}
	}()
	if err := fn(); err != nil {
		r.logHookError(hook, extName, err)
	}
}

// SetLogger replaces the logger used for hook errors.
func (r *Registry) SetLogger(l *slog.Logger) {
	if l != nil {
		r.logger = l
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Errors from hooks are never propagated.
func (r *Registry) logHookError(hook, extName string, err error) {
	r.logger.Warn("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extName),
		slog.String("error", err.Error()),
	)
}
