package interview

import (
	"errors"
	"fmt"
)

// SessionConflictError is returned when a learner starts an interview while
// another one is still in flight. Recoverable: finish or abandon the
// conflicting session first.
type SessionConflictError struct {
	LearnerID string
	SessionID string
}

func (e *SessionConflictError) Error() string {
	return fmt.Sprintf("learner %q already has interview session %s in flight", e.LearnerID, e.SessionID)
}

var (
	// ErrSessionNotFound is returned for a session ID the engine does not know.
	ErrSessionNotFound = errors.New("interview: session not found")
	// ErrSessionNotActive is returned when an operation needs an in-progress
	// session but the session already finished or was abandoned.
	ErrSessionNotActive = errors.New("interview: session is not in progress")
	// ErrSessionExpired is returned after a session's deadline passed; the
	// session is abandoned as a side effect.
	ErrSessionExpired = errors.New("interview: session deadline expired")
	// ErrNoPendingQuestion is returned when Submit is called but no question
	// is awaiting an answer.
	ErrNoPendingQuestion = errors.New("interview: no question awaiting an answer")
)
