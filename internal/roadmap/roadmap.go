// Package roadmap turns mastery gaps into an ordered sequence of learning
// units. A roadmap is regenerated wholesale, never patched, so it always
// reflects the current model and graph.
package roadmap

import (
	"time"

	"github.com/abhisek/mentor/internal/skillgraph"
	"github.com/abhisek/mentor/internal/validate"
)

// Kind distinguishes units that raise mastery from units that refresh a
// stale but met skill.
type Kind string

const (
	KindLearn  Kind = "learn"
	KindReview Kind = "review"
)

// Unit is one step of the roadmap. Position is its index in the sequence.
type Unit struct {
	ID            string
	SkillID       string
	SkillName     string
	Kind          Kind
	TargetDelta   float64
	EffortMinutes int
	Resources     []skillgraph.Resource
}

// Roadmap is the ordered unit sequence for one learner and role. GeneratedAt
// is informational only: two generations over identical model state produce
// identical units regardless of when they ran.
type Roadmap struct {
	LearnerID   string
	Role        string
	GeneratedAt time.Time
	Units       []Unit
}

// TotalMinutes sums the effort across all units.
func (r *Roadmap) TotalMinutes() int {
	total := 0
	for _, u := range r.Units {
		total += u.EffortMinutes
	}
	return total
}

// TierMinutes is the base effort, in minutes, to close a full-size gap at
// each difficulty tier. Higher tiers take longer.
type TierMinutes struct {
	Foundational int `mapstructure:"foundational" validate:"min=1"`
	Intermediate int `mapstructure:"intermediate" validate:"min=1,gtfield=Foundational"`
	Advanced     int `mapstructure:"advanced" validate:"min=1,gtfield=Intermediate"`
}

// Config controls unit sizing and review scheduling.
type Config struct {
	// UnitDeltaCap is the largest mastery delta a single unit may target.
	// Gaps above the cap are split into sequential units.
	UnitDeltaCap float64 `mapstructure:"unit-delta-cap" validate:"gt=0,max=1"`
	// TierBaseMinutes scales effort by difficulty tier.
	TierBaseMinutes TierMinutes `mapstructure:"tier-base-minutes"`
	// ReviewThreshold is the decayed-confidence level below which a met
	// skill earns a review unit.
	ReviewThreshold float64 `mapstructure:"review-threshold" validate:"min=0,max=1"`
	// ReviewMinutes is the fixed effort of one review unit.
	ReviewMinutes int `mapstructure:"review-minutes" validate:"min=1"`
}

// DefaultConfig returns the standard sizing parameters.
func DefaultConfig() Config {
	return Config{
		UnitDeltaCap: 0.25,
		TierBaseMinutes: TierMinutes{
			Foundational: 240,
			Intermediate: 360,
			Advanced:     480,
		},
		ReviewThreshold: 0.4,
		ReviewMinutes:   30,
	}
}

// Validate checks the configuration bounds.
func (c Config) Validate() error {
	return validate.Struct("roadmap config", c)
}

func (c Config) baseMinutes(tier skillgraph.Tier) int {
	switch tier {
	case skillgraph.TierAdvanced:
		return c.TierBaseMinutes.Advanced
	case skillgraph.TierIntermediate:
		return c.TierBaseMinutes.Intermediate
	default:
		return c.TierBaseMinutes.Foundational
	}
}
