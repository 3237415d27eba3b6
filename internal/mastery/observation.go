package mastery

import (
	"fmt"

	"github.com/abhisek/mentor/internal/validate"
)

// Source tags where a piece of evidence came from. Each source carries a
// configured base confidence: a resume claim is weaker evidence than
// repository activity, which is weaker than a manual attestation.
type Source string

const (
	SourceResume     Source = "resume"
	SourceRepository Source = "repository"
	SourceInterview  Source = "interview"
	SourceManual     Source = "manual"
)

// AllSources returns the known source tags.
func AllSources() []Source {
	return []Source{SourceResume, SourceRepository, SourceInterview, SourceManual}
}

// ParseSource parses a source tag.
func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case SourceResume, SourceRepository, SourceInterview, SourceManual:
		return Source(s), nil
	default:
		return "", fmt.Errorf("unknown observation source %q", s)
	}
}

// Valid reports whether the source is one of the known tags.
func (s Source) Valid() bool {
	_, err := ParseSource(string(s))
	return err == nil
}

// Observation is one piece of evidence about a learner's skill level.
// Ephemeral: consumed by a single Merge call.
type Observation struct {
	SkillID    string  `validate:"required"`
	Strength   float64 `validate:"min=0,max=1"`
	Confidence float64 `validate:"min=0,max=1"`
	Source     Source  `validate:"required"`
}

// NewObservation builds a validated observation. Out-of-range strength or
// confidence and unknown sources are rejected with a ValidationError rather
// than clamped.
func NewObservation(skillID string, strength, confidence float64, source Source) (Observation, error) {
	obs := Observation{
		SkillID:    skillID,
		Strength:   strength,
		Confidence: confidence,
		Source:     source,
	}
	if err := obs.Validate(); err != nil {
		return Observation{}, err
	}
	return obs, nil
}

// Validate checks the observation's fields. Merge re-runs this so that a
// hand-built observation cannot slip out-of-range values into the model.
func (o Observation) Validate() error {
	if err := validate.Struct("observation", o); err != nil {
		return err
	}
	if !o.Source.Valid() {
		return &validate.ValidationError{
			Subject: "observation",
			Fields:  []validate.FieldError{{Field: "Source", Rule: "known_source", Value: string(o.Source)}},
		}
	}
	return nil
}
