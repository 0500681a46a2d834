// Package vidqueue drains a queue of media-processing jobs against a
// Cloudflare Stream style REST API. Jobs are pulled in batches, dispatched
// to one operation handler per action, and each outcome is turned into a
// disposition: acknowledge, or retry after a fixed delay.
//
// vidqueue is built as a set of small packages that can be used on their
// own or wired together by cmd/vidqueue:
//
//	job            typed job model, wire codec, validation
//	handler        operation handlers and the action dispatcher
//	retry          outcome classification and ack/retry decisions
//	backoff        the delay strategy behind retry decisions
//	batch          per-batch processing with bounded concurrency
//	mediaapi       HTTP client for the media API
//	middleware     handler wrappers: logging, recover, timeout, tracing, metrics
//	ext            lifecycle hooks; observability counts them with OpenTelemetry
//	queue          transport contracts plus Cloudflare, Redis and memory backends
//	dlq            inspection and replay of dead-lettered messages
//	consumer       the pull/process/report loop
//	api            inbound HTTP for fetch requests and media webhooks
//	engine         wires all of the above from a Config
//
// # Quick Start
//
//	client := mediaapi.New(cfg.API.BaseURL, cfg.API.AccountID, cfg.API.Token)
//	d := handler.NewDispatcher(handler.Table(client, logger))
//	p := batch.New(d, retry.NewPolicy(), batch.WithConcurrency(4))
//	dispositions := p.Process(ctx, jobs)
//
// The core is stateless across attempts. Maximum-attempt and dead-letter
// policy belong to the queue transport.
package vidqueue
