package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/vidqueue/ext"
	"github.com/xraph/vidqueue/job"
	"github.com/xraph/vidqueue/retry"
)

// Compile-time interface checks.
var (
	_ ext.Extension       = (*MetricsExtension)(nil)
	_ ext.JobAcknowledged = (*MetricsExtension)(nil)
	_ ext.JobRetrying     = (*MetricsExtension)(nil)
	_ ext.JobDropped      = (*MetricsExtension)(nil)
	_ ext.JobRejected     = (*MetricsExtension)(nil)
	_ ext.BatchProcessed  = (*MetricsExtension)(nil)
)

const scopeName = "github.com/xraph/vidqueue/observability"

// MetricsExtension records lifecycle counters through an OpenTelemetry
// meter. Job counters carry an "action" attribute; retry and drop
// counters add the status code.
type MetricsExtension struct {
	JobAcknowledged metric.Int64Counter
	JobRetried      metric.Int64Counter
	JobDropped      metric.Int64Counter
	JobRejected     metric.Int64Counter
	BatchProcessed  metric.Int64Counter
	BatchJobs       metric.Int64Counter
	BatchDuration   metric.Float64Histogram
}

// NewMetricsExtension creates a MetricsExtension on the global meter
// provider.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithMeter(otel.GetMeterProvider().Meter(scopeName))
}

// NewMetricsExtensionWithMeter creates a MetricsExtension on the given
// meter. Instrument creation errors fall back to no-op instruments, as
// the OTel API guarantees a usable instrument alongside any error.
func NewMetricsExtensionWithMeter(meter metric.Meter) *MetricsExtension {
	acked, _ := meter.Int64Counter("vidqueue.job.acknowledged",
		metric.WithDescription("Jobs acknowledged after success or conflict"))
	retried, _ := meter.Int64Counter("vidqueue.job.retried",
		metric.WithDescription("Jobs scheduled for redelivery"))
	dropped, _ := meter.Int64Counter("vidqueue.job.dropped",
		metric.WithDescription("Jobs acknowledged after a 400 from the media API"))
	rejected, _ := meter.Int64Counter("vidqueue.job.rejected",
		metric.WithDescription("Jobs that failed validation"))
	batches, _ := meter.Int64Counter("vidqueue.batch.processed",
		metric.WithDescription("Batches reported to the queue"))
	batchJobs, _ := meter.Int64Counter("vidqueue.batch.jobs",
		metric.WithDescription("Messages handled across all batches"))
	batchDur, _ := meter.Float64Histogram("vidqueue.batch.duration",
		metric.WithDescription("Batch processing duration"),
		metric.WithUnit("s"))

	return &MetricsExtension{
		JobAcknowledged: acked,
		JobRetried:      retried,
		JobDropped:      dropped,
		JobRejected:     rejected,
		BatchProcessed:  batches,
		BatchJobs:       batchJobs,
		BatchDuration:   batchDur,
	}
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnJobAcknowledged implements ext.JobAcknowledged.
func (m *MetricsExtension) OnJobAcknowledged(ctx context.Context, j job.Job, d retry.Disposition) error {
	m.JobAcknowledged.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", string(j.Action())),
		attribute.String("class", string(d.Class)),
	))
	return nil
}

// OnJobRetrying implements ext.JobRetrying.
func (m *MetricsExtension) OnJobRetrying(ctx context.Context, j job.Job, d retry.Disposition) error {
	m.JobRetried.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", string(j.Action())),
		attribute.Int("status_code", d.Status),
	))
	return nil
}

// OnJobDropped implements ext.JobDropped.
func (m *MetricsExtension) OnJobDropped(ctx context.Context, j job.Job, d retry.Disposition) error {
	m.JobDropped.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", string(j.Action())),
		attribute.Int("status_code", d.Status),
	))
	return nil
}

// OnJobRejected implements ext.JobRejected.
func (m *MetricsExtension) OnJobRejected(ctx context.Context, j job.Job, _ error) error {
	m.JobRejected.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", string(j.Action())),
	))
	return nil
}

// OnBatchProcessed implements ext.BatchProcessed.
func (m *MetricsExtension) OnBatchProcessed(ctx context.Context, size int, elapsed time.Duration) error {
	m.BatchProcessed.Add(ctx, 1)
	m.BatchJobs.Add(ctx, int64(size))
	m.BatchDuration.Record(ctx, elapsed.Seconds())
	return nil
}
