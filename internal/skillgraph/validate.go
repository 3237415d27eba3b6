package skillgraph

import (
	"fmt"
	"strings"
)

// validateGraph performs all structural checks on the skill set and roles.
// Returns a *GraphError describing all problems found, or nil if valid.
func validateGraph(skills []Skill, roles []Role) error {
	var problems []string

	if len(skills) == 0 {
		problems = append(problems, "graph has no skills")
	}

	idSet := make(map[string]bool, len(skills))

	// Check for duplicate IDs
	for _, s := range skills {
		if s.ID == "" {
			problems = append(problems, fmt.Sprintf("skill %q has an empty ID", s.Name))
			continue
		}
		if idSet[s.ID] {
			problems = append(problems, fmt.Sprintf("duplicate skill ID: %q", s.ID))
		}
		idSet[s.ID] = true
	}

	// Check for dangling or self-referential prerequisites
	for _, s := range skills {
		for _, prereqID := range s.Prerequisites {
			if prereqID == s.ID {
				problems = append(problems, fmt.Sprintf("skill %q lists itself as a prerequisite", s.ID))
				continue
			}
			if !idSet[prereqID] {
				problems = append(problems, fmt.Sprintf("skill %q references nonexistent prerequisite %q", s.ID, prereqID))
			}
		}
	}

	// Check for cycles using Kahn's algorithm
	inDegree := make(map[string]int, len(skills))
	adjList := make(map[string][]string)
	for _, s := range skills {
		inDegree[s.ID] = len(s.Prerequisites)
		for _, prereqID := range s.Prerequisites {
			adjList[prereqID] = append(adjList[prereqID], s.ID)
		}
	}

	var queue []string
	for _, s := range skills {
		if inDegree[s.ID] == 0 {
			queue = append(queue, s.ID)
		}
	}

	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++
		for _, depID := range adjList[id] {
			inDegree[depID]--
			if inDegree[depID] == 0 {
				queue = append(queue, depID)
			}
		}
	}

	if visited < len(skills) {
		var cycleNodes []string
		for _, s := range skills {
			if inDegree[s.ID] > 0 {
				cycleNodes = append(cycleNodes, s.ID)
			}
		}
		problems = append(problems, fmt.Sprintf("cycle detected involving skills: %s", strings.Join(cycleNodes, ", ")))
	}

	// Check roles: unique IDs, resolvable targets, target range
	roleSet := make(map[string]bool, len(roles))
	for _, r := range roles {
		if r.ID == "" {
			problems = append(problems, "role with empty ID")
			continue
		}
		if roleSet[r.ID] {
			problems = append(problems, fmt.Sprintf("duplicate role ID: %q", r.ID))
		}
		roleSet[r.ID] = true

		if len(r.Targets) == 0 {
			problems = append(problems, fmt.Sprintf("role %q has no skill targets", r.ID))
		}
		for skillID, target := range r.Targets {
			if !idSet[skillID] {
				problems = append(problems, fmt.Sprintf("role %q targets nonexistent skill %q", r.ID, skillID))
			}
			if target < 0 || target > 1 {
				problems = append(problems, fmt.Sprintf("role %q target for %q must be in [0, 1], got %g", r.ID, skillID, target))
			}
		}
	}

	// Check resources carry both a title and a URL
	for _, s := range skills {
		for i, res := range s.Resources {
			if res.Title == "" || res.URL == "" {
				problems = append(problems, fmt.Sprintf("skill %q resource %d missing title or url", s.ID, i))
			}
		}
	}

	if len(problems) > 0 {
		return &GraphError{Problems: problems}
	}
	return nil
}
