package retry_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/xraph/vidqueue"
	"github.com/xraph/vidqueue/backoff"
	"github.com/xraph/vidqueue/job"
	"github.com/xraph/vidqueue/retry"
)

func TestDecide_SuccessRangeAcks(t *testing.T) {
	for status := 200; status <= 299; status++ {
		d := retry.Decide(job.Status(status))
		if d.Kind != retry.Ack {
			t.Fatalf("status %d: Kind = %v, want ack", status, d.Kind)
		}
		if d.Class != retry.ClassSuccess {
			t.Errorf("status %d: Class = %v, want success", status, d.Class)
		}
		if d.Delay != 0 {
			t.Errorf("status %d: Delay = %v, want 0", status, d.Delay)
		}
	}
}

func TestDecide_Table(t *testing.T) {
	tests := []struct {
		name      string
		outcome   job.Outcome
		wantKind  retry.Kind
		wantClass retry.Class
		wantDelay time.Duration
	}{
		{"rate limited", job.Status(429), retry.Retry, retry.ClassRateLimited, 300 * time.Second},
		{"conflict", job.Status(409), retry.Ack, retry.ClassConflict, 0},
		{"bad request", job.Status(400), retry.Ack, retry.ClassClientError, 0},
		{"invalid job", job.Invalid(vidqueue.ErrInvalidJob), retry.Ack, retry.ClassValidation, 0},
		{"unknown action", job.Invalid(vidqueue.ErrUnknownAction), retry.Ack, retry.ClassValidation, 0},
		{"server error", job.Status(500), retry.Retry, retry.ClassTransient, 300 * time.Second},
		{"bad gateway", job.Status(502), retry.Retry, retry.ClassTransient, 300 * time.Second},
		{"unreachable", job.Unreachable(errors.New("dial")), retry.Retry, retry.ClassTransient, 300 * time.Second},
		{"malformed response", job.MalformedResponse(errors.New("eof")), retry.Retry, retry.ClassTransient, 300 * time.Second},
		{"not found", job.Status(404), retry.Retry, retry.ClassTransient, 300 * time.Second},
		{"unauthorized", job.Status(401), retry.Retry, retry.ClassTransient, 300 * time.Second},
		{"redirect", job.Status(302), retry.Retry, retry.ClassTransient, 300 * time.Second},
		{"informational", job.Status(100), retry.Retry, retry.ClassTransient, 300 * time.Second},
		{"zero", job.Status(0), retry.Retry, retry.ClassTransient, 300 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := retry.Decide(tt.outcome)
			if d.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", d.Kind, tt.wantKind)
			}
			if d.Class != tt.wantClass {
				t.Errorf("Class = %v, want %v", d.Class, tt.wantClass)
			}
			if d.Delay != tt.wantDelay {
				t.Errorf("Delay = %v, want %v", d.Delay, tt.wantDelay)
			}
			if d.Status != tt.outcome.Status {
				t.Errorf("Status = %d, want %d", d.Status, tt.outcome.Status)
			}
		})
	}
}

func TestDecide_EveryOtherStatusRetries(t *testing.T) {
	for status := -5; status < 600; status++ {
		if (status >= 200 && status <= 299) || status == 400 || status == 409 {
			continue
		}
		d := retry.Decide(job.Status(status))
		if d.Kind != retry.Retry || d.Delay != 300*time.Second {
			t.Fatalf("status %d: got %v, want retry after 300s", status, d)
		}
	}
}

func TestDecide_Stateless(t *testing.T) {
	p := retry.NewPolicy()
	for i := 0; i < 10; i++ {
		if d := p.Decide(job.Status(503)); d.Delay != 5*time.Minute {
			t.Fatalf("call %d: Delay = %v, want 5m", i, d.Delay)
		}
	}
}

func TestPolicy_CustomBackoff(t *testing.T) {
	p := retry.NewPolicy(retry.WithBackoff(backoff.NewConstant(time.Minute)))
	if d := p.Decide(job.Status(429)); d.Delay != time.Minute {
		t.Errorf("Delay = %v, want 1m", d.Delay)
	}

	p = retry.NewPolicy(retry.WithDelay(42 * time.Second))
	if d := p.Decide(job.Status(500)); d.Delay != 42*time.Second {
		t.Errorf("Delay = %v, want 42s", d.Delay)
	}
}

func TestKind_String(t *testing.T) {
	tests := map[retry.Kind]string{
		retry.Unreported: "unreported",
		retry.Ack:        "ack",
		retry.Retry:      "retry",
	}
	for k, want := range tests {
		if got := k.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", k, got, want)
		}
	}
}

func TestDisposition_String(t *testing.T) {
	d := retry.Decide(job.Status(429))
	if got, want := d.String(), fmt.Sprintf("retry after %s (rate_limited, status 429)", 5*time.Minute); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got := retry.Decide(job.Status(201)).String(); got != "ack (success, status 201)" {
		t.Errorf("String() = %q", got)
	}
}
