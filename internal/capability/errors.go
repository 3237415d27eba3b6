package capability

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// TimeoutError indicates a capability call exceeded its deadline. The
// provider layer has already retried with backoff by the time this
// surfaces; callers decide whether to degrade (skip an enrichment) or
// fail the operation, but must never pass off an empty result as success.
type TimeoutError struct {
	Op      string
	Timeout time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Op, e.Timeout)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// IsTimeout reports whether err is or wraps a TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// mapTimeout converts a deadline expiry into a TimeoutError, leaving other
// errors untouched.
func mapTimeout(err error, op string, timeout time.Duration) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Op: op, Timeout: timeout, Err: err}
	}
	return err
}
