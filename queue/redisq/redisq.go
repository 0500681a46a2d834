// Package redisq implements the queue transport on Redis. Ready messages
// live in a Sorted Set scored by the time they become visible; leased
// messages move to an in-flight Sorted Set scored by lease expiry and
// return to the ready set when the lease lapses. Message bodies are
// stored as Hashes.
//
// Unlike the batch processor, this transport counts deliveries: with
// WithMaxAttempts set, a message pulled more than that many times is moved
// to the dead-letter list instead of being delivered.
//
// Usage:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	q := redisq.New(client, redisq.WithMaxAttempts(10))
//	if err := q.Ping(ctx); err != nil { ... }
package redisq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/vidqueue"
	"github.com/xraph/vidqueue/id"
	"github.com/xraph/vidqueue/queue"
)

// Compile-time interface checks.
var (
	_ queue.Consumer = (*Queue)(nil)
	_ queue.Producer = (*Queue)(nil)
)

// DefaultPrefix namespaces every key.
const DefaultPrefix = "vidqueue:"

// DefaultVisibility is how long a pulled message stays leased.
const DefaultVisibility = 2 * time.Minute

// Option configures the Queue.
type Option func(*Queue)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(q *Queue) { q.logger = l }
}

// WithPrefix sets the key prefix.
func WithPrefix(p string) Option {
	return func(q *Queue) { q.prefix = p }
}

// WithVisibility sets the lease duration.
func WithVisibility(d time.Duration) Option {
	return func(q *Queue) { q.visibility = d }
}

// WithMaxAttempts dead-letters a message once it has been delivered n
// times. Zero means unlimited.
func WithMaxAttempts(n int) Option {
	return func(q *Queue) { q.maxAttempts = n }
}

// WithClock replaces time.Now for scoring.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) { q.now = now }
}

// Queue is a Redis-backed queue transport.
type Queue struct {
	client      goredis.Cmdable
	logger      *slog.Logger
	prefix      string
	visibility  time.Duration
	maxAttempts int
	now         func() time.Time
}

// New creates a Queue. The caller owns the Redis client lifecycle.
func New(client goredis.Cmdable, opts ...Option) *Queue {
	q := &Queue{
		client:     client,
		logger:     slog.Default(),
		prefix:     DefaultPrefix,
		visibility: DefaultVisibility,
		now:        time.Now,
	}
	for _, o := range opts {
		o(q)
	}
	return q
}

// Ping verifies the Redis connection is alive.
func (q *Queue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Send implements queue.Producer. The message is visible immediately.
func (q *Queue) Send(ctx context.Context, body []byte) error {
	msgID := id.NewMessage()
	now := q.now()

	pipe := q.client.TxPipeline()
	pipe.HSet(ctx, q.msgKey(msgID),
		"body", body,
		"attempts", 0,
		"sent_at", now.UnixMilli(),
	)
	pipe.ZAdd(ctx, q.readyKey(), goredis.Z{Score: score(now), Member: msgID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("vidqueue/redisq: send: %w", err)
	}
	return nil
}

// Pull implements queue.Consumer. Expired leases are reclaimed first.
// A message is claimed by removing it from the ready set, so two
// consumers never lease the same delivery.
func (q *Queue) Pull(ctx context.Context, max int) ([]queue.Message, error) {
	now := q.now()
	if err := q.reclaim(ctx, now); err != nil {
		return nil, err
	}
	if max <= 0 {
		max = 1
	}

	ids, err := q.client.ZRangeByScore(ctx, q.readyKey(), &goredis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.UnixMilli(), 10),
		Count: int64(max),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("vidqueue/redisq: pull range: %w", err)
	}

	msgs := make([]queue.Message, 0, len(ids))
	for _, msgID := range ids {
		removed, err := q.client.ZRem(ctx, q.readyKey(), msgID).Result()
		if err != nil {
			return msgs, fmt.Errorf("vidqueue/redisq: pull claim: %w", err)
		}
		if removed == 0 {
			continue // claimed by another consumer
		}

		m, ok, err := q.lease(ctx, msgID, now)
		if err != nil {
			return msgs, err
		}
		if ok {
			msgs = append(msgs, m)
		}
	}
	return msgs, nil
}

// lease records a delivery of msgID. It reports false when the message
// was dead-lettered or has vanished.
func (q *Queue) lease(ctx context.Context, msgID string, now time.Time) (queue.Message, bool, error) {
	key := q.msgKey(msgID)

	attempts, err := q.client.HIncrBy(ctx, key, "attempts", 1).Result()
	if err != nil {
		return queue.Message{}, false, fmt.Errorf("vidqueue/redisq: pull attempts: %w", err)
	}
	vals, err := q.client.HMGet(ctx, key, "body", "sent_at").Result()
	if err != nil {
		return queue.Message{}, false, fmt.Errorf("vidqueue/redisq: pull body: %w", err)
	}
	body, _ := vals[0].(string)
	if vals[0] == nil {
		// HINCRBY recreated a hash for a message that was acked meanwhile.
		if err := q.client.Del(ctx, key).Err(); err != nil {
			return queue.Message{}, false, fmt.Errorf("vidqueue/redisq: pull cleanup: %w", err)
		}
		return queue.Message{}, false, nil
	}

	if q.maxAttempts > 0 && int(attempts) > q.maxAttempts {
		pipe := q.client.TxPipeline()
		pipe.LPush(ctx, q.deadKey(), body)
		pipe.Del(ctx, key)
		if _, err := pipe.Exec(ctx); err != nil {
			return queue.Message{}, false, fmt.Errorf("vidqueue/redisq: dead-letter: %w", err)
		}
		q.logger.Warn("message dead-lettered",
			slog.String("message_id", msgID),
			slog.Int("attempts", int(attempts)-1),
			slog.Int("max_attempts", q.maxAttempts),
		)
		return queue.Message{}, false, nil
	}

	leaseID := id.NewLease()
	pipe := q.client.TxPipeline()
	pipe.ZAdd(ctx, q.inflightKey(), goredis.Z{Score: score(now.Add(q.visibility)), Member: leaseID})
	pipe.HSet(ctx, q.leasesKey(), leaseID, msgID)
	if _, err := pipe.Exec(ctx); err != nil {
		return queue.Message{}, false, fmt.Errorf("vidqueue/redisq: lease: %w", err)
	}

	m := queue.Message{
		ID:       msgID,
		LeaseID:  leaseID,
		Body:     []byte(body),
		Attempts: int(attempts),
	}
	if s, ok := vals[1].(string); ok {
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			m.Timestamp = time.UnixMilli(ms).UTC()
		}
	}
	return m, true, nil
}

// reclaim returns messages with lapsed leases to the ready set.
func (q *Queue) reclaim(ctx context.Context, now time.Time) error {
	leases, err := q.client.ZRangeByScore(ctx, q.inflightKey(), &goredis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return fmt.Errorf("vidqueue/redisq: reclaim range: %w", err)
	}

	for _, leaseID := range leases {
		msgID, ok, err := q.release(ctx, leaseID)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := q.client.ZAdd(ctx, q.readyKey(), goredis.Z{Score: score(now), Member: msgID}).Err(); err != nil {
			return fmt.Errorf("vidqueue/redisq: reclaim requeue: %w", err)
		}
		q.logger.Debug("lease expired", slog.String("lease_id", leaseID), slog.String("message_id", msgID))
	}
	return nil
}

// release removes a lease and returns the message it covered. It reports
// false if another caller released it first.
func (q *Queue) release(ctx context.Context, leaseID string) (string, bool, error) {
	if !id.IsLease(leaseID) {
		return "", false, nil
	}
	removed, err := q.client.ZRem(ctx, q.inflightKey(), leaseID).Result()
	if err != nil {
		return "", false, fmt.Errorf("vidqueue/redisq: release: %w", err)
	}
	if removed == 0 {
		return "", false, nil
	}

	msgID, err := q.client.HGet(ctx, q.leasesKey(), leaseID).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("vidqueue/redisq: release lookup: %w", err)
	}
	if err := q.client.HDel(ctx, q.leasesKey(), leaseID).Err(); err != nil {
		return "", false, fmt.Errorf("vidqueue/redisq: release delete: %w", err)
	}
	return msgID, true, nil
}

// Ack implements queue.Consumer. Every known lease in r is settled; the
// returned error names any that were unknown or already expired.
func (q *Queue) Ack(ctx context.Context, r queue.Report) error {
	var errs []error

	for _, leaseID := range r.Acks {
		msgID, ok, err := q.release(ctx, leaseID)
		if err != nil {
			return err
		}
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s", vidqueue.ErrUnknownLease, leaseID))
			continue
		}
		if err := q.client.Del(ctx, q.msgKey(msgID)).Err(); err != nil {
			return fmt.Errorf("vidqueue/redisq: ack delete: %w", err)
		}
	}

	now := q.now()
	for _, rt := range r.Retries {
		msgID, ok, err := q.release(ctx, rt.LeaseID)
		if err != nil {
			return err
		}
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s", vidqueue.ErrUnknownLease, rt.LeaseID))
			continue
		}
		visible := now.Add(rt.Delay)
		if err := q.client.ZAdd(ctx, q.readyKey(), goredis.Z{Score: score(visible), Member: msgID}).Err(); err != nil {
			return fmt.Errorf("vidqueue/redisq: retry requeue: %w", err)
		}
	}
	return errors.Join(errs...)
}

// DeadLetters returns the bodies in the dead-letter list, newest first.
func (q *Queue) DeadLetters(ctx context.Context) ([][]byte, error) {
	vals, err := q.client.LRange(ctx, q.deadKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("vidqueue/redisq: dead letters: %w", err)
	}
	out := make([][]byte, len(vals))
	for i, v := range vals {
		out[i] = []byte(v)
	}
	return out, nil
}

// PopDeadLetter removes and returns the oldest dead-lettered body. It
// reports false when the list is empty.
func (q *Queue) PopDeadLetter(ctx context.Context) ([]byte, bool, error) {
	v, err := q.client.RPop(ctx, q.deadKey()).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("vidqueue/redisq: pop dead letter: %w", err)
	}
	return []byte(v), true, nil
}

// RestoreDeadLetter puts body back at the oldest end of the dead-letter
// list, undoing a PopDeadLetter.
func (q *Queue) RestoreDeadLetter(ctx context.Context, body []byte) error {
	if err := q.client.RPush(ctx, q.deadKey(), body).Err(); err != nil {
		return fmt.Errorf("vidqueue/redisq: restore dead letter: %w", err)
	}
	return nil
}

// PurgeDeadLetters deletes the dead-letter list and returns how many
// bodies it held.
func (q *Queue) PurgeDeadLetters(ctx context.Context) (int, error) {
	pipe := q.client.TxPipeline()
	n := pipe.LLen(ctx, q.deadKey())
	pipe.Del(ctx, q.deadKey())
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("vidqueue/redisq: purge dead letters: %w", err)
	}
	return int(n.Val()), nil
}

// Len returns the number of ready and in-flight messages.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	pipe := q.client.Pipeline()
	ready := pipe.ZCard(ctx, q.readyKey())
	inflight := pipe.ZCard(ctx, q.inflightKey())
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("vidqueue/redisq: len: %w", err)
	}
	return ready.Val() + inflight.Val(), nil
}

func score(t time.Time) float64 { return float64(t.UnixMilli()) }
