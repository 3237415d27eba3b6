package mastery

import "time"

// Estimate is the model's current belief about one skill of one learner.
// Mastery is the estimated proficiency; Confidence is how reliable that
// estimate is. Estimates are created lazily on first observation and never
// deleted: staleness shows up as decayed confidence instead.
type Estimate struct {
	SkillID    string
	Mastery    float64
	Confidence float64
	UpdatedAt  time.Time
}

// Level buckets a mastery value for display.
type Level int

const (
	LevelBeginner Level = iota
	LevelIntermediate
	LevelAdvanced
	LevelExpert
)

// LevelOf maps a mastery value to its display band.
func LevelOf(mastery float64) Level {
	switch {
	case mastery >= 0.8:
		return LevelExpert
	case mastery >= 0.6:
		return LevelAdvanced
	case mastery >= 0.4:
		return LevelIntermediate
	default:
		return LevelBeginner
	}
}

func (l Level) String() string {
	switch l {
	case LevelExpert:
		return "expert"
	case LevelAdvanced:
		return "advanced"
	case LevelIntermediate:
		return "intermediate"
	default:
		return "beginner"
	}
}

// DisplayName returns a human-readable label for the level.
func (l Level) DisplayName() string {
	switch l {
	case LevelExpert:
		return "Expert"
	case LevelAdvanced:
		return "Advanced"
	case LevelIntermediate:
		return "Intermediate"
	default:
		return "Beginner"
	}
}
