// Package progress keeps the learner's working state: an append-only log of
// completion marks, folded onto the current roadmap on read, and periodic
// snapshots of the full learner state for fast startup.
package progress

import (
	"time"

	"github.com/abhisek/mentor/internal/roadmap"
	"github.com/abhisek/mentor/internal/validate"
)

// Ref kinds a completion mark can point at.
const (
	KindUnit    = "unit"    // a roadmap unit
	KindSession = "session" // an interview session
)

// Event is one completion mark. Fraction is absolute, not incremental: the
// latest mark for a ref wins, so a learner can revise earlier marks by
// appending new ones.
type Event struct {
	RefID      string  `validate:"required"`
	Kind       string  `validate:"oneof=unit session"`
	Fraction   float64 `validate:"min=0,max=1"`
	OccurredAt time.Time
}

// Status describes how far along one roadmap unit is.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

func statusOf(fraction float64) Status {
	switch {
	case fraction >= 1:
		return StatusCompleted
	case fraction > 0:
		return StatusInProgress
	default:
		return StatusPending
	}
}

// UnitProgress pairs a roadmap unit with its folded completion state.
type UnitProgress struct {
	Unit     roadmap.Unit
	Fraction float64
	Status   Status
}

// Snapshot is the learner's roadmap with completion folded in.
type Snapshot struct {
	LearnerID   string
	Role        string
	GeneratedAt time.Time // when the underlying roadmap was generated
	Units       []UnitProgress

	Completed        int // units at fraction 1
	Total            int
	RemainingMinutes int // effort left, completion-weighted
	Sessions         int // interview sessions marked complete
}

// HistoryPoint is one step of a skill's mastery series: the estimate right
// after an observation merged.
type HistoryPoint struct {
	At         time.Time
	Mastery    float64
	Confidence float64
	Source     string
}

// Config holds the tracker's tunables.
type Config struct {
	// KeepSnapshots bounds how many persisted snapshots a learner retains.
	KeepSnapshots int `mapstructure:"keep-snapshots" validate:"min=1"`
}

// DefaultConfig returns the default tracker configuration.
func DefaultConfig() Config {
	return Config{KeepSnapshots: 20}
}

// Validate checks the configuration ranges.
func (c Config) Validate() error {
	return validate.Struct("progress config", c)
}
