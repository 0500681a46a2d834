package redisq

// Redis key naming. Every key is namespaced by the queue's prefix
// (default "vidqueue:").

// readyKey is the Sorted Set of message IDs scored by visible-at (unix ms).
func (q *Queue) readyKey() string { return q.prefix + "ready" }

// inflightKey is the Sorted Set of lease IDs scored by lease expiry.
func (q *Queue) inflightKey() string { return q.prefix + "inflight" }

// leasesKey is the Hash mapping lease ID to message ID.
func (q *Queue) leasesKey() string { return q.prefix + "leases" }

// msgKey returns the Hash holding a message's body and counters.
func (q *Queue) msgKey(msgID string) string { return q.prefix + "msg:" + msgID }

// deadKey is the List of dead-lettered message bodies.
func (q *Queue) deadKey() string { return q.prefix + "dead" }
