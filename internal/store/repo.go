package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // occurred >= From
	To     time.Time // occurred <= To
}

// ObservationRecord is one appended mastery observation together with the
// estimate it produced. MasteryAfter and ConfidenceAfter make the event log
// self-contained: a per-skill history series can be read straight off the
// log without replaying the merge.
type ObservationRecord struct {
	Sequence        int64
	LearnerID       string
	SkillID         string
	Strength        float64
	Confidence      float64
	Source          string
	MasteryAfter    float64
	ConfidenceAfter float64
	ObservedAt      time.Time
}

// SessionEventRecord is one interview lifecycle event.
type SessionEventRecord struct {
	Sequence   int64
	LearnerID  string
	SessionID  string
	Action     string
	SkillID    string
	Detail     string
	Score      float64
	OccurredAt time.Time
}

// ProgressEventRecord marks partial or full completion of a roadmap unit or
// an interview session. The log is append-only: the learner's progress is
// the fold over all events, never an update in place.
type ProgressEventRecord struct {
	Sequence   int64
	LearnerID  string
	RefID      string  // roadmap unit ID or interview session ID
	Kind       string  // "unit" or "session"
	Fraction   float64 // completion in [0,1]
	OccurredAt time.Time
}

// LLMCallRecord captures one LLM API call for usage accounting.
type LLMCallRecord struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
}

// LLMUsage aggregates LLM call records.
type LLMUsage struct {
	Calls        int
	Failures     int
	InputTokens  int64
	OutputTokens int64
}

// SkillEstimate is the persisted form of one mastery estimate. UpdatedAt is
// RFC3339 so snapshots stay readable across store backends.
type SkillEstimate struct {
	Mastery    float64 `json:"mastery"`
	Confidence float64 `json:"confidence"`
	UpdatedAt  string  `json:"updated_at"`
}

// MasterySnapshot is the persisted form of one learner's mastery state.
type MasterySnapshot struct {
	Skills map[string]SkillEstimate `json:"skills"`
}

// RoadmapUnitData is the persisted form of one roadmap unit.
type RoadmapUnitData struct {
	ID            string  `json:"id"`
	SkillID       string  `json:"skill_id"`
	Kind          string  `json:"kind"`
	TargetDelta   float64 `json:"target_delta"`
	EffortMinutes int     `json:"effort_minutes"`
}

// RoadmapSnapshot is the persisted form of one generated roadmap.
type RoadmapSnapshot struct {
	Role        string            `json:"role"`
	GeneratedAt string            `json:"generated_at"`
	Units       []RoadmapUnitData `json:"units"`
}

// SnapshotData captures the full learner state at a point in time.
type SnapshotData struct {
	Version int              `json:"version"`
	Mastery *MasterySnapshot `json:"mastery,omitempty"`
	Roadmap *RoadmapSnapshot `json:"roadmap,omitempty"`
}

// Snapshot represents a point-in-time capture of one learner's state.
type Snapshot struct {
	ID        int64
	LearnerID string
	Sequence  int64
	TakenAt   time.Time
	Data      SnapshotData
}

// EventRepo provides append and query access to domain events.
type EventRepo interface {
	// AppendObservation records a merged mastery observation.
	AppendObservation(ctx context.Context, rec ObservationRecord) error

	// Observations returns a learner's observation events in sequence order.
	Observations(ctx context.Context, learnerID string, opts QueryOpts) ([]ObservationRecord, error)

	// SkillHistory returns the most recent observation events for one skill,
	// newest first. limit <= 0 returns all of them.
	SkillHistory(ctx context.Context, learnerID, skillID string, limit int) ([]ObservationRecord, error)

	// AppendSessionEvent records an interview lifecycle event.
	AppendSessionEvent(ctx context.Context, rec SessionEventRecord) error

	// SessionEvents returns the events of one interview session in sequence
	// order.
	SessionEvents(ctx context.Context, learnerID, sessionID string) ([]SessionEventRecord, error)

	// AppendProgressEvent records a unit or session completion mark.
	AppendProgressEvent(ctx context.Context, rec ProgressEventRecord) error

	// ProgressEvents returns a learner's progress events in sequence order.
	ProgressEvents(ctx context.Context, learnerID string, opts QueryOpts) ([]ProgressEventRecord, error)

	// AppendLLMCall records an LLM API call.
	AppendLLMCall(ctx context.Context, rec LLMCallRecord) error

	// LLMUsage aggregates all recorded LLM calls.
	LLMUsage(ctx context.Context) (LLMUsage, error)
}

// SnapshotRepo manages learner state snapshots.
type SnapshotRepo interface {
	// SaveSnapshot stores a new snapshot. A zero Sequence is stamped from
	// the shared counter so the snapshot orders against the event log.
	SaveSnapshot(ctx context.Context, snap *Snapshot) error

	// LatestSnapshot returns the learner's most recent snapshot, or nil if
	// none exist.
	LatestSnapshot(ctx context.Context, learnerID string) (*Snapshot, error)

	// PruneSnapshots deletes all but the learner's N most recent snapshots.
	PruneSnapshots(ctx context.Context, learnerID string, keep int) error
}

// Store is the full persistence surface. Both backends implement it.
type Store interface {
	EventRepo
	SnapshotRepo

	// DeleteLearner removes all of a learner's events and snapshots. LLM
	// call records are kept: they are cost accounting, not learner state.
	DeleteLearner(ctx context.Context, learnerID string) error

	// Close releases the underlying connections.
	Close() error
}
