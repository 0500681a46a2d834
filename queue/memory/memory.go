// Package memory is an in-process queue transport. Safe for concurrent
// use. Intended for unit testing and local development.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/xraph/vidqueue"
	"github.com/xraph/vidqueue/id"
	"github.com/xraph/vidqueue/queue"
)

// Compile-time interface checks.
var (
	_ queue.Consumer = (*Queue)(nil)
	_ queue.Producer = (*Queue)(nil)
)

// DefaultVisibility is how long a pulled message stays leased.
const DefaultVisibility = 2 * time.Minute

type entry struct {
	msg       queue.Message
	visibleAt time.Time
}

// Queue holds messages in memory.
type Queue struct {
	mu         sync.Mutex
	ready      map[string]*entry // by message ID
	leased     map[string]*entry // by lease ID
	visibility time.Duration
	now        func() time.Time
	closed     bool
}

// Option configures a Queue.
type Option func(*Queue)

// WithVisibility sets the lease duration.
func WithVisibility(d time.Duration) Option {
	return func(q *Queue) { q.visibility = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) { q.now = now }
}

// New returns an empty Queue.
func New(opts ...Option) *Queue {
	q := &Queue{
		ready:      make(map[string]*entry),
		leased:     make(map[string]*entry),
		visibility: DefaultVisibility,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Send implements queue.Producer.
func (q *Queue) Send(_ context.Context, body []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return vidqueue.ErrQueueClosed
	}

	now := q.now()
	msgID := id.NewMessage()
	q.ready[msgID] = &entry{
		msg: queue.Message{
			ID:        msgID,
			Body:      append([]byte(nil), body...),
			Timestamp: now,
		},
		visibleAt: now,
	}
	return nil
}

// Pull implements queue.Consumer. Expired leases are returned to the
// ready set first. Messages are handed out oldest first.
func (q *Queue) Pull(_ context.Context, max int) ([]queue.Message, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil, vidqueue.ErrQueueClosed
	}

	now := q.now()
	for leaseID, e := range q.leased {
		if !now.Before(e.visibleAt) {
			delete(q.leased, leaseID)
			q.ready[e.msg.ID] = e
		}
	}

	var due []*entry
	for _, e := range q.ready {
		if !now.Before(e.visibleAt) {
			due = append(due, e)
		}
	}
	sort.Slice(due, func(i, k int) bool {
		if due[i].msg.Timestamp.Equal(due[k].msg.Timestamp) {
			return due[i].msg.ID < due[k].msg.ID
		}
		return due[i].msg.Timestamp.Before(due[k].msg.Timestamp)
	})
	if max > 0 && len(due) > max {
		due = due[:max]
	}

	out := make([]queue.Message, 0, len(due))
	for _, e := range due {
		delete(q.ready, e.msg.ID)
		e.msg.Attempts++
		e.msg.LeaseID = id.NewLease()
		e.visibleAt = now.Add(q.visibility)
		q.leased[e.msg.LeaseID] = e
		out = append(out, e.msg)
	}
	return out, nil
}

// Ack implements queue.Consumer. Every known lease in r is settled; the
// returned error names any that were unknown or already expired.
func (q *Queue) Ack(_ context.Context, r queue.Report) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return vidqueue.ErrQueueClosed
	}

	var errs []error
	for _, leaseID := range r.Acks {
		if _, ok := q.leased[leaseID]; !ok {
			errs = append(errs, fmt.Errorf("%w: %s", vidqueue.ErrUnknownLease, leaseID))
			continue
		}
		delete(q.leased, leaseID)
	}

	now := q.now()
	for _, rt := range r.Retries {
		e, ok := q.leased[rt.LeaseID]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s", vidqueue.ErrUnknownLease, rt.LeaseID))
			continue
		}
		delete(q.leased, rt.LeaseID)
		e.msg.LeaseID = ""
		e.visibleAt = now.Add(rt.Delay)
		q.ready[e.msg.ID] = e
	}
	return errors.Join(errs...)
}

// Len returns the number of messages not yet acknowledged, leased or not.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ready) + len(q.leased)
}

// Close makes every later call fail with vidqueue.ErrQueueClosed.
func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	return nil
}
