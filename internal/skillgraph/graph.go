package skillgraph

import (
	"fmt"
	"slices"
	"sort"
)

// Graph holds the skill DAG with precomputed indices. Immutable after New;
// concurrent reads need no locking.
type Graph struct {
	skills     []Skill
	byID       map[string]*Skill
	roles      map[string]Role
	roots      []Skill
	dependents map[string][]string
	topoOrder  []Skill
	topoIndex  map[string]int
}

// New constructs a graph from skills and roles, validating the full structure
// first. Returns a *GraphError describing every problem found if the input is
// not a well-formed DAG with resolvable role targets.
func New(skills []Skill, roles []Role) (*Graph, error) {
	if err := validateGraph(skills, roles); err != nil {
		return nil, err
	}

	g := &Graph{
		skills:     slices.Clone(skills),
		byID:       make(map[string]*Skill, len(skills)),
		roles:      make(map[string]Role, len(roles)),
		dependents: make(map[string][]string),
		topoIndex:  make(map[string]int, len(skills)),
	}

	// Build ID index
	for i := range g.skills {
		g.byID[g.skills[i].ID] = &g.skills[i]
	}

	for _, r := range roles {
		targets := make(map[string]float64, len(r.Targets))
		for id, target := range r.Targets {
			targets[id] = target
		}
		g.roles[r.ID] = Role{ID: r.ID, Targets: targets}
	}

	// Build reverse edges (dependents)
	for i := range g.skills {
		for _, prereqID := range g.skills[i].Prerequisites {
			g.dependents[prereqID] = append(g.dependents[prereqID], g.skills[i].ID)
		}
	}
	for id := range g.dependents {
		sort.Strings(g.dependents[id])
	}

	// Topological sort (Kahn's algorithm). The ready set is kept ordered by
	// ascending tier, then skill ID, which makes the linearization
	// deterministic for any input order.
	inDegree := make(map[string]int, len(skills))
	for i := range g.skills {
		inDegree[g.skills[i].ID] = len(g.skills[i].Prerequisites)
	}

	var ready []string
	for id, deg := range inDegree {
		if deg == 0 {
			ready = append(ready, id)
		}
	}
	g.sortReady(ready)

	topoOrder := make([]Skill, 0, len(skills))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]

		topoOrder = append(topoOrder, *g.byID[id])

		for _, depID := range g.dependents[id] {
			inDegree[depID]--
			if inDegree[depID] == 0 {
				ready = append(ready, depID)
			}
		}
		g.sortReady(ready)
	}

	g.topoOrder = topoOrder
	for i, s := range g.topoOrder {
		g.topoIndex[s.ID] = i
	}

	// Identify roots
	for i := range g.skills {
		if len(g.skills[i].Prerequisites) == 0 {
			g.roots = append(g.roots, g.skills[i])
		}
	}

	return g, nil
}

// sortReady orders the queue of prerequisite-free skills by tier, then ID.
func (g *Graph) sortReady(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		a, b := g.byID[ids[i]], g.byID[ids[j]]
		if a.Tier != b.Tier {
			return a.Tier < b.Tier
		}
		return a.ID < b.ID
	})
}

// Skill returns a skill by ID, or an error if not found.
func (g *Graph) Skill(id string) (Skill, error) {
	s, ok := g.byID[id]
	if !ok {
		return Skill{}, fmt.Errorf("skill not found: %q", id)
	}
	return *s, nil
}

// Has reports whether the graph contains a skill with the given ID.
func (g *Graph) Has(id string) bool {
	_, ok := g.byID[id]
	return ok
}

// Skills returns all skills in the graph.
func (g *Graph) Skills() []Skill {
	return slices.Clone(g.skills)
}

// RootSkills returns all skills with no prerequisites.
func (g *Graph) RootSkills() []Skill {
	return slices.Clone(g.roots)
}

// PrerequisitesOf returns the direct prerequisite skills for a given skill ID.
func (g *Graph) PrerequisitesOf(id string) []Skill {
	s, ok := g.byID[id]
	if !ok {
		return nil
	}
	result := make([]Skill, 0, len(s.Prerequisites))
	for _, prereqID := range s.Prerequisites {
		if p, ok := g.byID[prereqID]; ok {
			result = append(result, *p)
		}
	}
	return result
}

// DependentsOf returns skills that directly depend on the given skill ID.
func (g *Graph) DependentsOf(id string) []Skill {
	depIDs := g.dependents[id]
	result := make([]Skill, 0, len(depIDs))
	for _, depID := range depIDs {
		if s, ok := g.byID[depID]; ok {
			result = append(result, *s)
		}
	}
	return result
}

// TopologicalOrder returns all skills in a valid topological order: every
// skill appears after all of its transitive prerequisites. Ties are broken by
// ascending tier, then skill ID.
func (g *Graph) TopologicalOrder() []Skill {
	return slices.Clone(g.topoOrder)
}

// TopoIndex returns the position of a skill in the topological order, or -1
// for an unknown skill.
func (g *Graph) TopoIndex(id string) int {
	idx, ok := g.topoIndex[id]
	if !ok {
		return -1
	}
	return idx
}

// Roles returns the IDs of all roles with targets, sorted.
func (g *Graph) Roles() []string {
	ids := make([]string, 0, len(g.roles))
	for id := range g.roles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// TargetMastery returns the target mastery for a skill under a role. The
// second return is false when the role does not target the skill.
func (g *Graph) TargetMastery(role, skillID string) (float64, bool) {
	r, ok := g.roles[role]
	if !ok {
		return 0, false
	}
	target, ok := r.Targets[skillID]
	return target, ok
}

// RoleTargets returns a copy of the skill → target mastery mapping for the
// role, or an *UnknownRoleError if the role has no entries.
func (g *Graph) RoleTargets(role string) (map[string]float64, error) {
	r, ok := g.roles[role]
	if !ok {
		return nil, &UnknownRoleError{Role: role, Known: g.Roles()}
	}
	targets := make(map[string]float64, len(r.Targets))
	for id, target := range r.Targets {
		targets[id] = target
	}
	return targets, nil
}
