// Package observability provides an OpenTelemetry metrics extension for
// vidqueue. The MetricsExtension implements lifecycle hooks to record
// system-wide counters for acknowledged, retried, dropped and rejected
// jobs, and for processed batches.
//
// For per-call tracing and metrics, see the middleware package:
// middleware.Tracing() and middleware.Metrics().
package observability
