package job

import (
	"fmt"
	"net/http"

	"github.com/xraph/vidqueue"
)

// Synthetic status codes for failures that did not produce a usable HTTP
// status from the media API.
const (
	// StatusInvalid marks a job rejected before any call was made.
	StatusInvalid = http.StatusBadRequest
	// StatusUnreachable marks a call that never got a response.
	StatusUnreachable = -1
	// StatusMalformedResponse marks a 2xx reply whose body could not be read.
	StatusMalformedResponse = -2
)

// Outcome is the normalized result of running one job.
type Outcome struct {
	// Status is the HTTP status of the outbound call, or a synthetic code.
	Status int

	// Err carries diagnostic detail. It never changes classification.
	Err error
}

// Status returns an Outcome for a plain HTTP status.
func Status(code int) Outcome { return Outcome{Status: code} }

// Invalid returns the Outcome for a job that failed validation.
func Invalid(err error) Outcome {
	return Outcome{Status: StatusInvalid, Err: err}
}

// Unreachable returns the Outcome for a transport-level failure.
func Unreachable(err error) Outcome {
	return Outcome{Status: StatusUnreachable, Err: fmt.Errorf("%w: %w", vidqueue.ErrUnreachable, err)}
}

// Panicked returns the Outcome for a handler that panicked. It is retried
// like a transport failure but wraps vidqueue.ErrHandlerPanic instead of
// vidqueue.ErrUnreachable.
func Panicked(v any) Outcome {
	return Outcome{Status: StatusUnreachable, Err: fmt.Errorf("%w: %v", vidqueue.ErrHandlerPanic, v)}
}

// MalformedResponse returns the Outcome for a 2xx reply with an unreadable
// body.
func MalformedResponse(err error) Outcome {
	return Outcome{Status: StatusMalformedResponse, Err: fmt.Errorf("%w: %w", vidqueue.ErrMalformedResponse, err)}
}

// OK reports whether Status is in the 2xx range.
func (o Outcome) OK() bool { return o.Status >= 200 && o.Status <= 299 }

// String renders the status and, when present, the error.
func (o Outcome) String() string {
	if o.Err != nil {
		return fmt.Sprintf("status %d: %v", o.Status, o.Err)
	}
	return fmt.Sprintf("status %d", o.Status)
}
