package interview

import (
	"sort"

	"github.com/abhisek/mentor/internal/skillgraph"
)

// recentAverage returns the running average over the last k scored answers
// and whether any scored answer exists.
func recentAverage(items []Item, k int) (float64, bool) {
	var scores []float64
	for _, it := range items {
		if it.Answered && it.Scored {
			scores = append(scores, it.Score)
		}
	}
	if len(scores) == 0 {
		return 0, false
	}
	if k > 0 && len(scores) > k {
		scores = scores[len(scores)-k:]
	}
	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores)), true
}

// nextTarget picks the skill for the next question. Pure: it reads session
// history and the graph and mutates neither.
//
// A running average at or above the confident threshold escalates to the
// first dependent of the current skill (topological order) not yet asked; at
// or below the struggling threshold it drops to the first unasked
// prerequisite. Both fall back to the plan, which itself falls back to
// nothing when exhausted (empty skill ID ends the session early).
func nextTarget(s *Session, graph *skillgraph.Graph, cfg Config) (string, TargetReason) {
	asked := s.asked()

	avg, scoredAny := recentAverage(s.Items, cfg.WindowK)
	if scoredAny && len(s.Items) > 0 {
		current := s.Items[len(s.Items)-1].SkillID
		if avg >= cfg.ConfidentThreshold {
			if id := firstUnasked(graph, graph.DependentsOf(current), asked); id != "" {
				return id, ReasonEscalated
			}
		} else if avg <= cfg.StrugglingThreshold {
			if id := firstUnasked(graph, graph.PrerequisitesOf(current), asked); id != "" {
				return id, ReasonDeescalated
			}
		}
	}

	for _, id := range s.Plan {
		if !asked[id] {
			return id, ReasonPlanned
		}
	}
	return "", ReasonPlanned
}

// firstUnasked returns the topologically earliest skill from candidates that
// has not been asked yet, or empty.
func firstUnasked(graph *skillgraph.Graph, candidates []skillgraph.Skill, asked map[string]bool) string {
	ordered := append([]skillgraph.Skill(nil), candidates...)
	sort.Slice(ordered, func(i, j int) bool {
		return graph.TopoIndex(ordered[i].ID) < graph.TopoIndex(ordered[j].ID)
	})
	for _, sk := range ordered {
		if !asked[sk.ID] {
			return sk.ID
		}
	}
	return ""
}
