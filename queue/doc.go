// Package queue defines the transport boundary between a message queue
// and the batch processor.
//
// A [Consumer] hands out leased messages and accepts a [Report] telling
// it which leases to acknowledge and which to make visible again after a
// delay. A [Producer] accepts encoded jobs. Three transports implement
// them:
//
//   - queue/cfqueues: Cloudflare Queues over the HTTP pull API
//   - queue/redisq: Redis sorted sets with lease expiry and dead-lettering
//   - queue/memory: in-process, for tests and local runs
//
// Maximum-attempt and dead-letter policy belong to the transport. The
// batch processor and retry policy never count attempts.
package queue
