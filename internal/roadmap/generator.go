package roadmap

import (
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/mentor/internal/logger"
	"github.com/abhisek/mentor/internal/mastery"
	"github.com/abhisek/mentor/internal/skillgraph"
)

// Generator produces roadmaps from the skill graph and mastery model.
type Generator struct {
	graph  *skillgraph.Graph
	model  *mastery.Model
	cfg    Config
	logger *zap.Logger
}

// NewGenerator creates a generator. A nil logger disables logging.
func NewGenerator(graph *skillgraph.Graph, model *mastery.Model, cfg Config, log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{graph: graph, model: model, cfg: cfg, logger: log}
}

// Generate builds the unit sequence for a learner pursuing a role. Learn
// units close mastery gaps in topological order; review units for met but
// stale skills follow them. An unknown role propagates *UnknownRoleError.
// Generation is idempotent over unchanged model state.
func (g *Generator) Generate(learnerID, role string, now time.Time) (*Roadmap, error) {
	gaps, err := g.model.Gap(learnerID, role, now)
	if err != nil {
		return nil, err
	}

	var units []Unit
	for _, skill := range g.graph.TopologicalOrder() {
		gap, ok := gaps[skill.ID]
		if !ok {
			continue
		}
		units = append(units, g.learnUnits(skill, gap)...)
	}

	units = append(units, g.reviewUnits(learnerID, role, gaps, now)...)

	g.logger.Debug("generated roadmap",
		zap.String(logger.FieldLearner, learnerID),
		zap.String(logger.FieldRole, role),
		zap.Int("units", len(units)),
	)
	return &Roadmap{
		LearnerID:   learnerID,
		Role:        role,
		GeneratedAt: now.UTC(),
		Units:       units,
	}, nil
}

// learnUnits sizes the unit(s) for one gap. A gap above the per-unit cap is
// split into equal sequential slices so deltas sum exactly to the gap and no
// slice degenerates into a sliver.
func (g *Generator) learnUnits(skill skillgraph.Skill, gap float64) []Unit {
	parts := 1
	if g.cfg.UnitDeltaCap > 0 && gap > g.cfg.UnitDeltaCap {
		parts = int(math.Ceil(gap / g.cfg.UnitDeltaCap))
	}
	delta := gap / float64(parts)
	base := g.cfg.baseMinutes(skill.Tier)

	units := make([]Unit, 0, parts)
	for i := 0; i < parts; i++ {
		id := skill.ID + "-unit"
		if parts > 1 {
			id = fmt.Sprintf("%s-unit-%d", skill.ID, i+1)
		}
		units = append(units, Unit{
			ID:            id,
			SkillID:       skill.ID,
			SkillName:     skill.Name,
			Kind:          KindLearn,
			TargetDelta:   delta,
			EffortMinutes: int(math.Ceil(delta * float64(base))),
			Resources:     skill.Resources,
		})
	}
	return units
}

// reviewUnits finds skills whose role target is met but whose decayed
// confidence fell below the review threshold, ordered most-stale first.
func (g *Generator) reviewUnits(learnerID, role string, gaps map[string]float64, now time.Time) []Unit {
	targets, err := g.graph.RoleTargets(role)
	if err != nil {
		// Gap already validated the role.
		return nil
	}

	type candidate struct {
		skill skillgraph.Skill
		est   mastery.Estimate
	}
	var candidates []candidate
	// Walking topological order keeps ties in a stable, deterministic order.
	for _, skill := range g.graph.TopologicalOrder() {
		if _, targeted := targets[skill.ID]; !targeted {
			continue
		}
		if _, open := gaps[skill.ID]; open {
			continue
		}
		est, ok := g.model.Current(learnerID, skill.ID, now)
		if !ok {
			continue
		}
		if est.Confidence >= g.cfg.ReviewThreshold {
			continue
		}
		candidates = append(candidates, candidate{skill: skill, est: est})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].est.UpdatedAt.Before(candidates[j].est.UpdatedAt)
	})

	units := make([]Unit, 0, len(candidates))
	for _, c := range candidates {
		units = append(units, Unit{
			ID:            c.skill.ID + "-review",
			SkillID:       c.skill.ID,
			SkillName:     c.skill.Name,
			Kind:          KindReview,
			TargetDelta:   0,
			EffortMinutes: g.cfg.ReviewMinutes,
			Resources:     c.skill.Resources,
		})
	}
	return units
}
