package middleware

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/vidqueue/job"
)

// meterName is the instrumentation scope name for vidqueue metrics.
const meterName = "github.com/xraph/vidqueue"

// Metrics returns middleware that records per-call metrics using the
// global OTel MeterProvider.
//
// Instruments:
//   - vidqueue.job.duration (Float64Histogram): call time in seconds
//   - vidqueue.job.calls (Int64Counter): total calls
//
// Both carry the attributes action, status_code and status ("ok" or
// "error").
func Metrics() Middleware {
	return MetricsWithMeter(otel.Meter(meterName))
}

// MetricsWithMeter returns metrics middleware using the provided meter.
func MetricsWithMeter(meter metric.Meter) Middleware {
	// On error the API hands back noop instruments.
	duration, _ := meter.Float64Histogram(
		"vidqueue.job.duration",
		metric.WithDescription("Duration of media api calls in seconds"),
		metric.WithUnit("s"),
	)
	calls, _ := meter.Int64Counter(
		"vidqueue.job.calls",
		metric.WithDescription("Total number of media api calls"),
		metric.WithUnit("{call}"),
	)

	return func(ctx context.Context, j job.Job, next Handler) job.Outcome {
		start := time.Now()
		o := next(ctx)
		elapsed := time.Since(start).Seconds()

		status := "ok"
		if !o.OK() {
			status = "error"
		}

		attrs := metric.WithAttributes(
			attribute.String("action", string(j.Action())),
			attribute.String("status_code", strconv.Itoa(o.Status)),
			attribute.String("status", status),
		)
		duration.Record(ctx, elapsed, attrs)
		calls.Add(ctx, 1, attrs)

		return o
	}
}
