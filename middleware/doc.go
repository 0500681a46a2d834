// Package middleware provides composable middleware around operation
// handler calls.
//
// A [Middleware] wraps the call a handler makes for one job. Middleware
// are composed with [Chain]; the first in the list is the outermost.
//
//	// logging → recover → handler
//	chain := middleware.Chain(middleware.Logging(logger), middleware.Recover(logger))
//
// # Built-in Middleware
//
//   - [Logging]: logs action, status and duration of each call
//   - [Recover]: turns handler panics into a retryable outcome
//   - [Timeout]: bounds each call with a deadline
//   - [Tracing]: wraps each call in an OpenTelemetry span
//   - [Metrics]: records call duration and counts by action and status
//
// Middleware never changes how an outcome is classified; the retry
// package does that from the status alone.
package middleware
