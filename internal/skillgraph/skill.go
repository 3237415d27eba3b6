package skillgraph

import "fmt"

// Tier represents a skill's difficulty tier. Tiers are ordered: foundational
// skills sort before intermediate, intermediate before advanced.
type Tier int

const (
	TierFoundational Tier = iota
	TierIntermediate
	TierAdvanced
)

// AllTiers returns all tiers in ascending difficulty order.
func AllTiers() []Tier {
	return []Tier{TierFoundational, TierIntermediate, TierAdvanced}
}

// ParseTier parses the document form of a tier.
func ParseTier(s string) (Tier, error) {
	switch s {
	case "foundational":
		return TierFoundational, nil
	case "intermediate":
		return TierIntermediate, nil
	case "advanced":
		return TierAdvanced, nil
	default:
		return 0, fmt.Errorf("unknown tier %q", s)
	}
}

func (t Tier) String() string {
	switch t {
	case TierFoundational:
		return "foundational"
	case TierIntermediate:
		return "intermediate"
	case TierAdvanced:
		return "advanced"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// DisplayName returns a human-readable name for a tier.
func (t Tier) DisplayName() string {
	switch t {
	case TierFoundational:
		return "Foundational"
	case TierIntermediate:
		return "Intermediate"
	case TierAdvanced:
		return "Advanced"
	default:
		return "Unknown"
	}
}

// Resource is a learning resource attached to a skill in the graph document.
// Roadmap units carry these through for presentation.
type Resource struct {
	Title string
	URL   string
}

// Skill represents a single competency node in the graph.
type Skill struct {
	ID            string
	Name          string
	Description   string
	Tier          Tier
	Keywords      []string
	Prerequisites []string
	Resources     []Resource
}

// Role holds the per-skill target mastery levels for one target role.
type Role struct {
	ID      string
	Targets map[string]float64
}
