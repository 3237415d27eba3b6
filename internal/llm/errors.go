package llm

import (
	"encoding/json"
	"fmt"
	"time"
)

// Provider adapters normalize SDK and transport failures into the error
// types below so the retry layer can classify them without knowing which
// vendor produced them. Callers match with errors.As.

// ErrRateLimit indicates the provider throttled the request (HTTP 429).
// RetryAfter is zero when the provider gave no hint about how long to wait.
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrBadRequest indicates the provider rejected the request itself: a bad
// API key, a malformed payload, a model the account cannot use. The same
// request never succeeds on retry.
type ErrBadRequest struct {
	Status int
	Err    error
}

func (e *ErrBadRequest) Error() string {
	return fmt.Sprintf("provider rejected request (HTTP %d): %v", e.Status, e.Err)
}

func (e *ErrBadRequest) Unwrap() error { return e.Err }

// ErrInvalidResponse indicates the model produced output that is not valid
// JSON or does not conform to the requested schema. Content carries the
// raw output for the call log.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid LLM response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable indicates the provider is down, unreachable, or
// answered with a server-side error.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
	}
	return "LLM provider unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded indicates the response was cut off at the MaxTokens
// limit. Truncated output is a prompt sizing problem; the retry layer never
// retries it.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return "LLM response truncated: max tokens exceeded"
}
