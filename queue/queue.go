package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/vidqueue/job"
	"github.com/xraph/vidqueue/retry"
)

// Message is one leased delivery.
type Message struct {
	// ID identifies the message across deliveries.
	ID string

	// LeaseID identifies this delivery. Acks and retries name it.
	LeaseID string

	// Body is the encoded job.
	Body []byte

	// Attempts counts deliveries including this one.
	Attempts int

	// Timestamp is when the message was first sent.
	Timestamp time.Time
}

// Retry asks the transport to redeliver a lease after Delay.
type Retry struct {
	LeaseID string
	Delay   time.Duration
}

// Report is the per-lease outcome of a batch. Leases in neither list are
// left to expire and are redelivered by the transport.
type Report struct {
	Acks    []string
	Retries []Retry
}

// Empty reports whether r names no leases.
func (r Report) Empty() bool { return len(r.Acks) == 0 && len(r.Retries) == 0 }

// Consumer pulls leased messages and settles them.
type Consumer interface {
	// Pull returns up to max messages. An empty result is not an error.
	Pull(ctx context.Context, max int) ([]Message, error)

	// Ack settles the leases named in r.
	Ack(ctx context.Context, r Report) error
}

// Producer accepts new messages.
type Producer interface {
	Send(ctx context.Context, body []byte) error
}

// Jobs decodes each message into a job whose ID is the message ID.
// Bodies that cannot be decoded become job.Rejected payloads.
func Jobs(msgs []Message) []job.Job {
	jobs := make([]job.Job, len(msgs))
	for i, m := range msgs {
		jobs[i] = job.Decode(m.ID, m.Body)
	}
	return jobs
}

// BuildReport pairs each message with the disposition at the same index.
// Unreported dispositions are left out so their leases lapse.
func BuildReport(msgs []Message, ds []retry.Disposition) Report {
	var r Report
	for i := 0; i < len(msgs) && i < len(ds); i++ {
		switch ds[i].Kind {
		case retry.Ack:
			r.Acks = append(r.Acks, msgs[i].LeaseID)
		case retry.Retry:
			r.Retries = append(r.Retries, Retry{LeaseID: msgs[i].LeaseID, Delay: ds[i].Delay})
		}
	}
	return r
}

// SendJob encodes j and hands it to p.
func SendJob(ctx context.Context, p Producer, j job.Job) error {
	body, err := job.Encode(j)
	if err != nil {
		return fmt.Errorf("queue: encode job: %w", err)
	}
	return p.Send(ctx, body)
}
