package mastery

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/mentor/internal/skillgraph"
	"github.com/abhisek/mentor/internal/store"
	"github.com/abhisek/mentor/internal/validate"
)

// Config holds the tunable constants of the mastery model.
type Config struct {
	Decay DecayConfig `mapstructure:"decay"`
}

// DefaultConfig returns the default model configuration.
func DefaultConfig() Config {
	return Config{Decay: DefaultDecay()}
}

// Validate checks the decay parameters.
func (c Config) Validate() error {
	return validate.Struct("mastery config", c)
}

// ObservationLog receives one record per successful merge. Append failures
// abort the merge so the in-memory state and the log never diverge.
type ObservationLog interface {
	AppendObservation(ctx context.Context, rec store.ObservationRecord) error
}

// Model owns every learner's mastery estimates. All mutation goes through
// Merge, which serializes per learner: the weighted-average update is not
// associative under interleaving, so concurrent observations for one learner
// are applied as a strict sequence.
type Model struct {
	graph  *skillgraph.Graph
	cfg    Config
	log    ObservationLog
	logger *zap.Logger

	mu       sync.Mutex
	learners map[string]*learnerState
}

type learnerState struct {
	mu        sync.Mutex
	estimates map[string]Estimate
}

// NewModel creates a model over the given graph. log may be nil for a purely
// in-memory model (tests, dry runs).
func NewModel(graph *skillgraph.Graph, cfg Config, log ObservationLog, logger *zap.Logger) *Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Model{
		graph:    graph,
		cfg:      cfg,
		log:      log,
		logger:   logger,
		learners: make(map[string]*learnerState),
	}
}

func (m *Model) learner(learnerID string) *learnerState {
	m.mu.Lock()
	defer m.mu.Unlock()
	ls, ok := m.learners[learnerID]
	if !ok {
		ls = &learnerState{estimates: make(map[string]Estimate)}
		m.learners[learnerID] = ls
	}
	return ls
}

// Merge folds one observation into the learner's estimate for its skill.
//
// The prior confidence is decay-adjusted first, then:
//
//	mastery'    = (m_old*c_old + strength*c_src) / (c_old + c_src)
//	confidence' = min(1.0, c_old + c_src*(1 - c_old))
//
// The first observation for a skill starts from the zero estimate, so the
// result is exactly (strength, c_src). The update is all-or-nothing: a
// rejected observation or a failed log append leaves the prior estimate
// untouched.
func (m *Model) Merge(ctx context.Context, learnerID string, obs Observation, now time.Time) (Estimate, error) {
	if err := obs.Validate(); err != nil {
		return Estimate{}, err
	}
	if !m.graph.Has(obs.SkillID) {
		return Estimate{}, &validate.ValidationError{
			Subject: "observation",
			Fields:  []validate.FieldError{{Field: "SkillID", Rule: "known_skill", Value: obs.SkillID}},
		}
	}

	ls := m.learner(learnerID)
	ls.mu.Lock()
	defer ls.mu.Unlock()

	var mOld, cOld float64
	if prior, ok := ls.estimates[obs.SkillID]; ok {
		mOld = prior.Mastery
		cOld = DecayedConfidence(prior.Confidence, prior.UpdatedAt, now, m.cfg.Decay)
	}

	mNew := mOld
	if denom := cOld + obs.Confidence; denom > 0 {
		mNew = (mOld*cOld + obs.Strength*obs.Confidence) / denom
	}
	cNew := math.Min(1.0, cOld+obs.Confidence*(1-cOld))

	next := Estimate{
		SkillID:    obs.SkillID,
		Mastery:    mNew,
		Confidence: cNew,
		UpdatedAt:  now,
	}

	if m.log != nil {
		rec := store.ObservationRecord{
			LearnerID:       learnerID,
			SkillID:         obs.SkillID,
			Strength:        obs.Strength,
			Confidence:      obs.Confidence,
			Source:          string(obs.Source),
			MasteryAfter:    next.Mastery,
			ConfidenceAfter: next.Confidence,
			ObservedAt:      now,
		}
		if err := m.log.AppendObservation(ctx, rec); err != nil {
			return Estimate{}, fmt.Errorf("recording observation: %w", err)
		}
	}

	ls.estimates[obs.SkillID] = next

	m.logger.Debug("merged observation",
		zap.String("learner", learnerID),
		zap.String("skill", obs.SkillID),
		zap.String("source", string(obs.Source)),
		zap.Float64("mastery", next.Mastery),
		zap.Float64("confidence", next.Confidence),
	)
	return next, nil
}

// Current returns the learner's estimate for a skill with decay applied, or
// false if no observation has ever touched the skill.
func (m *Model) Current(learnerID, skillID string, now time.Time) (Estimate, bool) {
	ls := m.learner(learnerID)
	ls.mu.Lock()
	defer ls.mu.Unlock()

	est, ok := ls.estimates[skillID]
	if !ok {
		return Estimate{}, false
	}
	est.Confidence = DecayedConfidence(est.Confidence, est.UpdatedAt, now, m.cfg.Decay)
	return est, true
}

// All returns the learner's estimates with decay applied, sorted by skill ID.
func (m *Model) All(learnerID string, now time.Time) []Estimate {
	ls := m.learner(learnerID)
	ls.mu.Lock()
	defer ls.mu.Unlock()

	result := make([]Estimate, 0, len(ls.estimates))
	for _, est := range ls.estimates {
		est.Confidence = DecayedConfidence(est.Confidence, est.UpdatedAt, now, m.cfg.Decay)
		result = append(result, est)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SkillID < result[j].SkillID })
	return result
}

// Gap returns, for each skill the role targets, how far the learner's mastery
// falls short: max(0, target - mastery). Skills already at or above target
// are omitted. Skills never observed count as mastery 0.
func (m *Model) Gap(learnerID, role string, now time.Time) (map[string]float64, error) {
	targets, err := m.graph.RoleTargets(role)
	if err != nil {
		return nil, err
	}

	ls := m.learner(learnerID)
	ls.mu.Lock()
	defer ls.mu.Unlock()

	gaps := make(map[string]float64)
	for skillID, target := range targets {
		var mastery float64
		if est, ok := ls.estimates[skillID]; ok {
			mastery = est.Mastery
		}
		if gap := target - mastery; gap > 0 {
			gaps[skillID] = gap
		}
	}
	return gaps, nil
}

// WeakestUncertain returns the n skills with the lowest mastery×confidence
// product, the interview engine's targeting signal. Unobserved skills score
// zero. Ties break by graph topological order.
func (m *Model) WeakestUncertain(learnerID string, n int, now time.Time) []skillgraph.Skill {
	return m.weakest(learnerID, n, now, nil)
}

// WeakestUncertainAmong is WeakestUncertain restricted to the given skill
// IDs. Used to keep interview targeting inside a role's target set.
func (m *Model) WeakestUncertainAmong(learnerID string, n int, now time.Time, among []string) []skillgraph.Skill {
	allowed := make(map[string]bool, len(among))
	for _, id := range among {
		allowed[id] = true
	}
	return m.weakest(learnerID, n, now, allowed)
}

func (m *Model) weakest(learnerID string, n int, now time.Time, allowed map[string]bool) []skillgraph.Skill {
	if n <= 0 {
		return nil
	}

	ls := m.learner(learnerID)
	ls.mu.Lock()

	// Topological order in, stable sort by product: ties keep topo order out.
	candidates := m.graph.TopologicalOrder()
	products := make(map[string]float64, len(candidates))
	for _, s := range candidates {
		if est, ok := ls.estimates[s.ID]; ok {
			conf := DecayedConfidence(est.Confidence, est.UpdatedAt, now, m.cfg.Decay)
			products[s.ID] = est.Mastery * conf
		}
	}
	ls.mu.Unlock()

	if allowed != nil {
		filtered := candidates[:0]
		for _, s := range candidates {
			if allowed[s.ID] {
				filtered = append(filtered, s)
			}
		}
		candidates = filtered
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return products[candidates[i].ID] < products[candidates[j].ID]
	})

	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates
}
