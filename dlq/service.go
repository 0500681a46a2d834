package dlq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/xraph/vidqueue/job"
	"github.com/xraph/vidqueue/queue"
)

// Store is a transport that keeps dead letters. queue/redisq implements it.
type Store interface {
	// DeadLetters returns every dead-lettered body, newest first.
	DeadLetters(ctx context.Context) ([][]byte, error)

	// PopDeadLetter removes the oldest body. It reports false when empty.
	PopDeadLetter(ctx context.Context) ([]byte, bool, error)

	// RestoreDeadLetter puts a popped body back as the oldest entry.
	RestoreDeadLetter(ctx context.Context, body []byte) error

	// PurgeDeadLetters deletes every body and returns how many there were.
	PurgeDeadLetters(ctx context.Context) (int, error)
}

// Service provides dead-letter operations over a Store.
type Service struct {
	store    Store
	producer queue.Producer
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock overrides the time source used for replay notes.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service that replays into producer.
func NewService(store Store, producer queue.Producer, opts ...Option) *Service {
	s := &Service{
		store:    store,
		producer: producer,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every dead letter, oldest first.
func (s *Service) List(ctx context.Context) ([]Entry, error) {
	bodies, err := s.store.DeadLetters(ctx)
	if err != nil {
		return nil, err
	}
	slices.Reverse(bodies)

	entries := make([]Entry, len(bodies))
	for i, b := range bodies {
		j := job.Decode("", b)
		entries[i] = Entry{Position: i, Job: j, Body: b, Err: j.Validate()}
	}
	return entries, nil
}

// Count returns the number of dead letters.
func (s *Service) Count(ctx context.Context) (int, error) {
	bodies, err := s.store.DeadLetters(ctx)
	if err != nil {
		return 0, err
	}
	return len(bodies), nil
}

// Replay sends up to limit dead letters, oldest first, back to the
// producer. limit <= 0 replays all of them. A body that fails to send is
// restored to the dead-letter list and Replay stops.
func (s *Service) Replay(ctx context.Context, limit int) (int, error) {
	replayed := 0
	for limit <= 0 || replayed < limit {
		if err := ctx.Err(); err != nil {
			return replayed, err
		}

		body, ok, err := s.store.PopDeadLetter(ctx)
		if err != nil {
			return replayed, err
		}
		if !ok {
			break
		}

		if err := s.producer.Send(ctx, s.annotate(body)); err != nil {
			restoreErr := s.store.RestoreDeadLetter(context.WithoutCancel(ctx), body)
			return replayed, errors.Join(fmt.Errorf("dlq: replay send: %w", err), restoreErr)
		}
		replayed++
	}

	s.logger.Info("dead letters replayed", slog.Int("count", replayed))
	return replayed, nil
}

// Purge deletes every dead letter.
func (s *Service) Purge(ctx context.Context) (int, error) {
	n, err := s.store.PurgeDeadLetters(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Warn("dead letters purged", slog.Int("count", n))
	return n, nil
}

// annotate adds a replay note to bodies that decode into a valid job.
func (s *Service) annotate(body []byte) []byte {
	j := job.Decode("", body)
	if j.Validate() != nil {
		return body
	}
	out, err := job.Encode(j.WithNote("Replayed from dead letters at %s", s.now().UTC().Format(time.RFC3339)))
	if err != nil {
		return body
	}
	return out
}
