// Package backoff provides the retry delay strategy attached to retry
// decisions. Strategies are stateless and safe for concurrent use.
package backoff

import "time"

// DefaultDelay is the fixed delay between delivery attempts.
const DefaultDelay = 5 * time.Minute

// Strategy computes the delay before a message is made visible again.
type Strategy interface {
	// Delay returns how long to wait before the next delivery attempt.
	// The argument is the number of deliveries seen so far, or zero when
	// the transport does not report it.
	Delay(attempts int) time.Duration
}

// Constant always returns the same delay regardless of attempt count.
type Constant struct {
	Interval time.Duration
}

// NewConstant creates a constant backoff strategy.
func NewConstant(interval time.Duration) *Constant {
	return &Constant{Interval: interval}
}

// Delay returns the fixed interval.
func (c *Constant) Delay(_ int) time.Duration {
	return c.Interval
}

// DefaultStrategy returns a Constant of DefaultDelay.
func DefaultStrategy() Strategy {
	return NewConstant(DefaultDelay)
}
