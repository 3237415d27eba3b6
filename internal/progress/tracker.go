package progress

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/mentor/internal/logger"
	"github.com/abhisek/mentor/internal/mastery"
	"github.com/abhisek/mentor/internal/roadmap"
	"github.com/abhisek/mentor/internal/skillgraph"
	"github.com/abhisek/mentor/internal/store"
	"github.com/abhisek/mentor/internal/validate"
)

// Tracker bridges the store and the in-memory model: it appends completion
// marks, lazily regenerates the roadmap when the learner's state moved, and
// persists point-in-time snapshots so the next process start is a read
// instead of a replay.
type Tracker struct {
	graph  *skillgraph.Graph
	model  *mastery.Model
	gen    *roadmap.Generator
	store  store.Store
	cfg    Config
	logger *zap.Logger

	mu    sync.Mutex
	dirty map[string]bool
}

// New creates a tracker over the given store.
func New(graph *skillgraph.Graph, model *mastery.Model, gen *roadmap.Generator, st store.Store, cfg Config, log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{
		graph:  graph,
		model:  model,
		gen:    gen,
		store:  st,
		cfg:    cfg,
		logger: log,
		dirty:  make(map[string]bool),
	}
}

// Record appends one completion mark to the learner's log and marks the
// cached roadmap dirty. Prior marks are never mutated.
func (t *Tracker) Record(ctx context.Context, learnerID string, ev Event) error {
	if learnerID == "" {
		return &validate.ValidationError{
			Subject: "progress event",
			Fields:  []validate.FieldError{{Field: "LearnerID", Rule: "required", Value: ""}},
		}
	}
	if err := validate.Struct("progress event", ev); err != nil {
		return err
	}

	rec := store.ProgressEventRecord{
		LearnerID:  learnerID,
		RefID:      ev.RefID,
		Kind:       ev.Kind,
		Fraction:   ev.Fraction,
		OccurredAt: ev.OccurredAt,
	}
	if err := t.store.AppendProgressEvent(ctx, rec); err != nil {
		return fmt.Errorf("recording progress: %w", err)
	}

	t.mu.Lock()
	t.dirty[learnerID] = true
	t.mu.Unlock()

	t.logger.Debug("progress recorded",
		zap.String(logger.FieldLearner, learnerID),
		zap.String("ref", ev.RefID),
		zap.String("kind", ev.Kind),
		zap.Float64("fraction", ev.Fraction),
	)
	return nil
}

// Snapshot returns the learner's roadmap for the role with completion marks
// folded in. The roadmap is regenerated only when needed: after a recorded
// mark, when observations landed after the cached copy, or when no usable
// cached copy exists. Regeneration persists a fresh store snapshot.
func (t *Tracker) Snapshot(ctx context.Context, learnerID, role string, now time.Time) (*Snapshot, error) {
	rm, err := t.currentRoadmap(ctx, learnerID, role, now)
	if err != nil {
		return nil, err
	}

	events, err := t.store.ProgressEvents(ctx, learnerID, store.QueryOpts{})
	if err != nil {
		return nil, fmt.Errorf("loading progress events: %w", err)
	}

	// Fold in sequence order: the last mark for a ref wins.
	fractions := make(map[string]float64)
	sessions := make(map[string]bool)
	for _, ev := range events {
		switch ev.Kind {
		case KindUnit:
			fractions[ev.RefID] = ev.Fraction
		case KindSession:
			sessions[ev.RefID] = ev.Fraction >= 1
		}
	}

	snap := &Snapshot{
		LearnerID:   learnerID,
		Role:        rm.Role,
		GeneratedAt: rm.GeneratedAt,
		Units:       make([]UnitProgress, 0, len(rm.Units)),
		Total:       len(rm.Units),
	}
	for _, done := range sessions {
		if done {
			snap.Sessions++
		}
	}
	for _, u := range rm.Units {
		f := fractions[u.ID]
		up := UnitProgress{Unit: u, Fraction: f, Status: statusOf(f)}
		snap.Units = append(snap.Units, up)
		if up.Status == StatusCompleted {
			snap.Completed++
			continue
		}
		snap.RemainingMinutes += int(math.Ceil(float64(u.EffortMinutes) * (1 - f)))
	}
	return snap, nil
}

// History returns the learner's mastery series for one skill, oldest first.
// Each point is the estimate right after an observation merged; the log is
// self-contained, so no replay happens here.
func (t *Tracker) History(ctx context.Context, learnerID, skillID string) ([]HistoryPoint, error) {
	recs, err := t.store.SkillHistory(ctx, learnerID, skillID, 0)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}

	// SkillHistory returns newest first; the series reads oldest first.
	points := make([]HistoryPoint, len(recs))
	for i, rec := range recs {
		points[len(recs)-1-i] = HistoryPoint{
			At:         rec.ObservedAt,
			Mastery:    rec.MasteryAfter,
			Confidence: rec.ConfidenceAfter,
			Source:     rec.Source,
		}
	}
	return points, nil
}

// Hydrate seeds the in-memory model from the learner's latest persisted
// snapshot plus any observation events appended after it. Each observation
// record carries the estimate it produced, so catching up past the snapshot
// is a read, not a replay of merges.
func (t *Tracker) Hydrate(ctx context.Context, learnerID string) error {
	latest, err := t.store.LatestSnapshot(ctx, learnerID)
	if err != nil {
		return fmt.Errorf("loading snapshot: %w", err)
	}

	merged := &store.MasterySnapshot{Skills: make(map[string]store.SkillEstimate)}
	var after int64
	if latest != nil {
		after = latest.Sequence
		if latest.Data.Mastery != nil {
			for id, se := range latest.Data.Mastery.Skills {
				merged.Skills[id] = se
			}
		}
	}

	recs, err := t.store.Observations(ctx, learnerID, store.QueryOpts{After: after})
	if err != nil {
		return fmt.Errorf("loading observations: %w", err)
	}
	for _, rec := range recs {
		merged.Skills[rec.SkillID] = store.SkillEstimate{
			Mastery:    rec.MasteryAfter,
			Confidence: rec.ConfidenceAfter,
			UpdatedAt:  rec.ObservedAt.UTC().Format(time.RFC3339),
		}
	}
	t.model.Restore(learnerID, merged)

	t.logger.Debug("hydrated learner",
		zap.String(logger.FieldLearner, learnerID),
		zap.Int("skills", len(merged.Skills)),
		zap.Int("tail_events", len(recs)),
	)
	return nil
}

// Checkpoint persists a mastery-only snapshot of the learner's current
// model state. Evidence ingestion calls this after merging, so the next
// process start hydrates from the snapshot instead of walking the whole
// observation log. The saved snapshot carries no roadmap; the next Snapshot
// call regenerates against the new estimates.
func (t *Tracker) Checkpoint(ctx context.Context, learnerID string, now time.Time) error {
	snap := &store.Snapshot{
		LearnerID: learnerID,
		TakenAt:   now,
		Data: store.SnapshotData{
			Version: snapshotVersion,
			Mastery: t.model.Snapshot(learnerID),
		},
	}
	if err := t.store.SaveSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	if err := t.store.PruneSnapshots(ctx, learnerID, t.cfg.KeepSnapshots); err != nil {
		t.logger.Warn("pruning snapshots",
			zap.String(logger.FieldLearner, learnerID),
			zap.Error(err),
		)
	}
	return nil
}

// currentRoadmap returns the cached roadmap when it is still valid, and
// regenerates (and persists) otherwise.
func (t *Tracker) currentRoadmap(ctx context.Context, learnerID, role string, now time.Time) (*roadmap.Roadmap, error) {
	t.mu.Lock()
	dirty := t.dirty[learnerID]
	t.mu.Unlock()

	latest, err := t.store.LatestSnapshot(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}

	if !dirty && latest != nil && latest.Data.Roadmap != nil && latest.Data.Roadmap.Role == role {
		// The cached copy goes stale when observations land after the
		// snapshot was taken, in this process or another one.
		newer, err := t.store.Observations(ctx, learnerID, store.QueryOpts{After: latest.Sequence, Limit: 1})
		if err != nil {
			return nil, fmt.Errorf("checking staleness: %w", err)
		}
		if len(newer) == 0 {
			return t.roadmapFromStored(learnerID, latest.Data.Roadmap), nil
		}
	}

	rm, err := t.gen.Generate(learnerID, role, now)
	if err != nil {
		return nil, err
	}
	t.persist(ctx, learnerID, rm, now)
	return rm, nil
}

// persist saves a fresh snapshot and clears the dirty mark. A failed save is
// logged and absorbed: the snapshot is an optimization, and the next read
// simply regenerates again.
func (t *Tracker) persist(ctx context.Context, learnerID string, rm *roadmap.Roadmap, now time.Time) {
	snap := &store.Snapshot{
		LearnerID: learnerID,
		TakenAt:   now,
		Data: store.SnapshotData{
			Version: snapshotVersion,
			Mastery: t.model.Snapshot(learnerID),
			Roadmap: storedRoadmap(rm),
		},
	}
	if err := t.store.SaveSnapshot(ctx, snap); err != nil {
		t.logger.Warn("saving snapshot",
			zap.String(logger.FieldLearner, learnerID),
			zap.Error(err),
		)
		return
	}
	if err := t.store.PruneSnapshots(ctx, learnerID, t.cfg.KeepSnapshots); err != nil {
		t.logger.Warn("pruning snapshots",
			zap.String(logger.FieldLearner, learnerID),
			zap.Error(err),
		)
	}

	t.mu.Lock()
	delete(t.dirty, learnerID)
	t.mu.Unlock()
}
