package vidqueue

import "errors"

var (
	// Job errors.
	ErrInvalidJob    = errors.New("vidqueue: invalid job")
	ErrUnknownAction = errors.New("vidqueue: unknown action")
	ErrMissingField  = errors.New("vidqueue: missing required field")
	ErrMalformedJob  = errors.New("vidqueue: malformed job body")

	// External API errors.
	ErrUnreachable       = errors.New("vidqueue: media api unreachable")
	ErrMalformedResponse = errors.New("vidqueue: malformed media api response")

	// Handler errors.
	ErrHandlerPanic = errors.New("vidqueue: handler panicked")

	// Queue errors.
	ErrQueueClosed     = errors.New("vidqueue: queue closed")
	ErrUnknownLease    = errors.New("vidqueue: unknown lease")
	ErrQueueRequest    = errors.New("vidqueue: queue request failed")
	ErrUnknownBackend  = errors.New("vidqueue: unknown queue backend")
	ErrMissingSetting  = errors.New("vidqueue: missing configuration setting")
	ErrConsumerRunning = errors.New("vidqueue: consumer already running")
)
