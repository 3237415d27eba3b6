package extractor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/abhisek/mentor/internal/mastery"
	"github.com/abhisek/mentor/internal/skillgraph"
)

// RepositoryEvidence summarizes one code repository: its language byte
// counts as reported by the hosting platform.
type RepositoryEvidence struct {
	Name      string
	Languages map[string]int64
}

// ExtractRepository maps a single repository's language histogram onto the
// skill graph. It is deterministic and never calls a capability.
func (e *Extractor) ExtractRepository(evidence RepositoryEvidence) ([]mastery.Observation, error) {
	return e.ExtractRepositories([]RepositoryEvidence{evidence})
}

// ExtractRepositories aggregates language histograms across repositories
// and maps each language onto graph skills whose name or keywords match.
// Strength is the language's share of total bytes, dampened by repository
// count: one repository counts for half its share, and more repositories
// asymptotically restore the full share. A histogram that matches no graph
// skill yields an empty slice and a nil error.
func (e *Extractor) ExtractRepositories(repos []RepositoryEvidence) ([]mastery.Observation, error) {
	totals := make(map[string]int64)
	reposWith := make(map[string]int)
	var grand int64
	for _, repo := range repos {
		for lang, bytes := range repo.Languages {
			if bytes < 0 {
				return nil, fmt.Errorf("repository %s: negative byte count for %s", repo.Name, lang)
			}
			if bytes == 0 {
				continue
			}
			key := strings.ToLower(lang)
			totals[key] += bytes
			reposWith[key]++
			grand += bytes
		}
	}
	if grand == 0 {
		return nil, nil
	}

	// A skill can match several languages (e.g. a "frontend" skill keyed on
	// both javascript and typescript). Shares add up, capped at 1.
	strengths := make(map[string]float64)
	for lang, bytes := range totals {
		share := float64(bytes) / float64(grand)
		n := float64(reposWith[lang])
		dampened := share * n / (n + 1)
		for _, skill := range e.graph.Skills() {
			if languageMatches(lang, skill) {
				strengths[skill.ID] += dampened
			}
		}
	}

	ids := make([]string, 0, len(strengths))
	for id := range strengths {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	observations := make([]mastery.Observation, 0, len(ids))
	for _, id := range ids {
		strength := strengths[id]
		if strength > 1 {
			strength = 1
		}
		obs, err := mastery.NewObservation(id, strength, e.cfg.SourceConfidence.Repository, mastery.SourceRepository)
		if err != nil {
			return nil, fmt.Errorf("repository observation for %s: %w", id, err)
		}
		observations = append(observations, obs)
	}
	return observations, nil
}

// languageMatches reports whether a lowercase language name matches the
// skill's name or any keyword.
func languageMatches(lang string, skill skillgraph.Skill) bool {
	if strings.ToLower(skill.Name) == lang {
		return true
	}
	for _, kw := range skill.Keywords {
		if strings.ToLower(kw) == lang {
			return true
		}
	}
	return false
}
