// Package interview runs adaptive mock interviews. A session walks a plan of
// the learner's weakest uncertain skills, escalating to harder skills on
// strong answers and dropping back to prerequisites on weak ones. Completed
// sessions feed scored answers back into the mastery model; abandoned
// sessions feed back nothing.
package interview

import (
	"time"

	"github.com/abhisek/mentor/internal/validate"
)

// State is the lifecycle phase of a session.
type State int

const (
	StateCreated    State = iota // allocated, first question not yet served
	StateInProgress              // questions being served and answered
	StateScoring                 // finishing: scoring any unscored answers
	StateCompleted               // report emitted, observations merged
	StateAbandoned               // cancelled or expired, no observations
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateInProgress:
		return "in_progress"
	case StateScoring:
		return "scoring"
	case StateCompleted:
		return "completed"
	case StateAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// TargetReason records why a skill was chosen as the next question target.
type TargetReason string

const (
	ReasonPlanned     TargetReason = "planned"
	ReasonEscalated   TargetReason = "escalated"
	ReasonDeescalated TargetReason = "deescalated"
)

// Item is one question/answer exchange within a session. Scored is false
// when the judge failed for this item; such items carry no score and emit no
// observation.
type Item struct {
	SkillID    string
	SkillName  string
	Question   string
	Answer     string
	Reason     TargetReason
	Answered   bool
	Scored     bool
	Score      float64
	Confidence float64
	Feedback   string
	AskedAt    time.Time
	AnsweredAt time.Time
}

// Session is the runtime state of one interview.
type Session struct {
	ID            string
	LearnerID     string
	Role          string
	State         State
	Plan          []string // planned skill IDs, weakest first
	QuestionCount int      // answers this session collects before it is done
	Items         []Item
	StartedAt     time.Time
	Deadline      time.Time // zero means no deadline
	FinishedAt    time.Time
}

// clone returns a deep copy so callers can inspect a session without racing
// the engine's own mutations.
func (s *Session) clone() *Session {
	out := *s
	out.Plan = append([]string(nil), s.Plan...)
	out.Items = append([]Item(nil), s.Items...)
	return &out
}

// pending returns the item awaiting an answer, or nil.
func (s *Session) pending() *Item {
	if len(s.Items) == 0 {
		return nil
	}
	last := &s.Items[len(s.Items)-1]
	if last.Answered {
		return nil
	}
	return last
}

// asked returns the set of skills already used for a question.
func (s *Session) asked() map[string]bool {
	set := make(map[string]bool, len(s.Items))
	for _, it := range s.Items {
		set[it.SkillID] = true
	}
	return set
}

// answered counts items that received an answer.
func (s *Session) answered() int {
	n := 0
	for _, it := range s.Items {
		if it.Answered {
			n++
		}
	}
	return n
}

// questionTexts lists every question asked so far, for dedup.
func (s *Session) questionTexts() []string {
	texts := make([]string, 0, len(s.Items))
	for _, it := range s.Items {
		texts = append(texts, it.Question)
	}
	return texts
}

// expired reports whether the session deadline passed.
func (s *Session) expired(now time.Time) bool {
	return !s.Deadline.IsZero() && now.After(s.Deadline)
}

// Config controls session length and the difficulty cursor.
type Config struct {
	// QuestionCount is how many questions a session asks by default.
	QuestionCount int `mapstructure:"question-count" validate:"min=1"`
	// WindowK is how many recent scored answers the difficulty cursor
	// averages over.
	WindowK int `mapstructure:"window-k" validate:"min=1"`
	// ConfidentThreshold is the running average at or above which the next
	// question escalates to a dependent skill.
	ConfidentThreshold float64 `mapstructure:"confident-threshold" validate:"min=0,max=1,gtfield=StrugglingThreshold"`
	// StrugglingThreshold is the running average at or below which the next
	// question drops back to a prerequisite.
	StrugglingThreshold float64 `mapstructure:"struggling-threshold" validate:"min=0,max=1"`
	// SessionTimeout abandons sessions idle past the deadline. Zero
	// disables the deadline.
	SessionTimeout time.Duration `mapstructure:"session-timeout" validate:"min=0"`
}

// DefaultConfig returns the standard interview parameters.
func DefaultConfig() Config {
	return Config{
		QuestionCount:       5,
		WindowK:             3,
		ConfidentThreshold:  0.75,
		StrugglingThreshold: 0.4,
		SessionTimeout:      30 * time.Minute,
	}
}

// Validate checks the configuration bounds.
func (c Config) Validate() error {
	return validate.Struct("interview config", c)
}
