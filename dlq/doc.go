// Package dlq inspects and replays messages that a queue transport has
// dead-lettered after too many deliveries.
//
// The retry policy never gives up on a job; bounding attempts is the
// transport's job. queue/redisq moves a message to its dead-letter list
// once it has been delivered more than MaxAttempts times. [Service] reads
// that list and can send its bodies back to the ready queue.
//
//	svc := dlq.NewService(redisQueue, redisQueue)
//
//	entries, _ := svc.List(ctx)
//	n, _ := svc.Replay(ctx, 0) // 0 replays everything
//	svc.Purge(ctx)
//
// Replayed jobs carry an extra note with the replay time. Bodies that do
// not decode into a valid job are sent back unchanged; the batch processor
// rejects them again on the next pass.
package dlq
