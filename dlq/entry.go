package dlq

import (
	"github.com/xraph/vidqueue/job"
)

// Entry is one dead-lettered message.
type Entry struct {
	// Position is the entry's index, oldest first.
	Position int

	// Job is the body decoded for display. A body that does not decode
	// carries a job.Rejected payload.
	Job job.Job

	// Body is the raw message body.
	Body []byte

	// Err is the validation error for Job, if any.
	Err error
}

// Valid reports whether the entry would pass validation if replayed.
func (e Entry) Valid() bool { return e.Err == nil }
