package ext

import (
	"context"
	"time"

	"github.com/xraph/vidqueue/job"
	"github.com/xraph/vidqueue/retry"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// ──────────────────────────────────────────────────
// Job lifecycle hooks
// ──────────────────────────────────────────────────

// JobAcknowledged is called when a job's disposition is Ack for any
// reason other than a 400.
type JobAcknowledged interface {
	OnJobAcknowledged(ctx context.Context, j job.Job, d retry.Disposition) error
}

// JobRetrying is called when a job is scheduled for redelivery.
type JobRetrying interface {
	OnJobRetrying(ctx context.Context, j job.Job, d retry.Disposition) error
}

// JobDropped is called when the media API answered 400 and the job is
// acknowledged without having taken effect.
type JobDropped interface {
	OnJobDropped(ctx context.Context, j job.Job, d retry.Disposition) error
}

// JobRejected is called when a job fails validation before dispatch.
type JobRejected interface {
	OnJobRejected(ctx context.Context, j job.Job, err error) error
}

// ──────────────────────────────────────────────────
// Other lifecycle hooks
// ──────────────────────────────────────────────────

// BatchProcessed is called after the consumer reports a batch.
type BatchProcessed interface {
	OnBatchProcessed(ctx context.Context, size int, elapsed time.Duration) error
}

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
