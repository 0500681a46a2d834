package middleware

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/vidqueue/job"
)

// tracerName is the instrumentation scope name for vidqueue tracing.
const tracerName = "github.com/xraph/vidqueue"

// Tracing returns middleware that wraps each handler call in an
// OpenTelemetry span. Without a global TracerProvider the noop tracer is
// used.
//
// Span attributes: vidqueue.job.id, vidqueue.job.action,
// vidqueue.job.status.
func Tracing() Middleware {
	return TracingWithTracer(otel.Tracer(tracerName))
}

// TracingWithTracer returns tracing middleware using the provided tracer.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, j job.Job, next Handler) job.Outcome {
		ctx, span := tracer.Start(ctx, "vidqueue.job.handle",
			trace.WithAttributes(
				attribute.String("vidqueue.job.id", j.ID),
				attribute.String("vidqueue.job.action", string(j.Action())),
			),
			trace.WithSpanKind(trace.SpanKindClient),
		)
		defer span.End()

		o := next(ctx)
		span.SetAttributes(attribute.Int("vidqueue.job.status", o.Status))

		if o.OK() {
			span.SetStatus(codes.Ok, "")
			return o
		}
		if o.Err != nil {
			span.RecordError(o.Err)
		}
		span.SetStatus(codes.Error, fmt.Sprintf("status %d", o.Status))
		return o
	}
}
