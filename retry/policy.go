// Package retry turns a job outcome into a disposition: acknowledge the
// message, or make it visible again after a delay.
//
// Rules, in priority order:
//
//	200–299  acknowledge
//	429      retry after the backoff delay
//	409      acknowledge (already done upstream)
//	400      acknowledge (permanent; the job is dropped)
//	other    retry after the backoff delay
//
// The policy keeps no state between calls and cannot tell a first failure
// from a tenth. Bounded retries and dead-lettering belong to the queue
// transport.
package retry

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/xraph/vidqueue"
	"github.com/xraph/vidqueue/backoff"
	"github.com/xraph/vidqueue/job"
)

// Kind is what the transport should do with a message.
type Kind int

const (
	// Unreported means no decision was made, usually because the batch
	// was cancelled before the job started. The transport's default
	// redelivery applies.
	Unreported Kind = iota
	// Ack removes the message from the queue.
	Ack
	// Retry makes the message visible again after Delay.
	Retry
)

func (k Kind) String() string {
	switch k {
	case Ack:
		return "ack"
	case Retry:
		return "retry"
	default:
		return "unreported"
	}
}

// Class is the error taxonomy an outcome falls into.
type Class string

const (
	ClassSuccess     Class = "success"
	ClassConflict    Class = "conflict"
	ClassClientError Class = "client_error"
	ClassValidation  Class = "validation"
	ClassRateLimited Class = "rate_limited"
	ClassTransient   Class = "transient"
)

// Disposition is the decision for one job.
type Disposition struct {
	// JobID echoes job.Job.ID so the transport can find the message.
	JobID string

	Kind  Kind
	Delay time.Duration

	// Class and Status record why the decision was made.
	Class  Class
	Status int
	Err    error
}

// Acked reports whether the disposition removes the message.
func (d Disposition) Acked() bool { return d.Kind == Ack }

func (d Disposition) String() string {
	if d.Kind == Retry {
		return fmt.Sprintf("%s after %s (%s, status %d)", d.Kind, d.Delay, d.Class, d.Status)
	}
	return fmt.Sprintf("%s (%s, status %d)", d.Kind, d.Class, d.Status)
}

// Policy maps outcomes to dispositions.
type Policy struct {
	backoff backoff.Strategy
}

// Option configures a Policy.
type Option func(*Policy)

// WithBackoff sets the delay strategy used for retry decisions.
func WithBackoff(s backoff.Strategy) Option {
	return func(p *Policy) { p.backoff = s }
}

// WithDelay is shorthand for WithBackoff(backoff.NewConstant(d)).
func WithDelay(d time.Duration) Option {
	return WithBackoff(backoff.NewConstant(d))
}

// NewPolicy creates a Policy. The default delay is five minutes.
func NewPolicy(opts ...Option) *Policy {
	p := &Policy{backoff: backoff.DefaultStrategy()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Classify places an outcome in the error taxonomy.
func (p *Policy) Classify(o job.Outcome) Class {
	switch {
	case o.OK():
		return ClassSuccess
	case o.Status == http.StatusTooManyRequests:
		return ClassRateLimited
	case o.Status == http.StatusConflict:
		return ClassConflict
	case o.Status == http.StatusBadRequest:
		if errors.Is(o.Err, vidqueue.ErrInvalidJob) || errors.Is(o.Err, vidqueue.ErrUnknownAction) {
			return ClassValidation
		}
		return ClassClientError
	default:
		return ClassTransient
	}
}

// Decide returns the disposition for an outcome. JobID is left empty.
func (p *Policy) Decide(o job.Outcome) Disposition {
	d := Disposition{
		Class:  p.Classify(o),
		Status: o.Status,
		Err:    o.Err,
	}

	switch d.Class {
	case ClassSuccess, ClassConflict, ClassClientError, ClassValidation:
		d.Kind = Ack
	default:
		d.Kind = Retry
		d.Delay = p.backoff.Delay(0)
	}
	return d
}

var defaultPolicy = NewPolicy()

// Decide applies the default five-minute policy.
func Decide(o job.Outcome) Disposition { return defaultPolicy.Decide(o) }
