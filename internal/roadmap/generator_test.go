package roadmap

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/abhisek/mentor/internal/mastery"
	"github.com/abhisek/mentor/internal/skillgraph"
)

func testGraph(t *testing.T) *skillgraph.Graph {
	t.Helper()
	skills := []skillgraph.Skill{
		{ID: "networking-basics", Name: "Networking Basics", Tier: skillgraph.TierFoundational},
		{ID: "http", Name: "HTTP", Tier: skillgraph.TierIntermediate, Prerequisites: []string{"networking-basics"},
			Resources: []skillgraph.Resource{{Title: "HTTP guide", URL: "https://example.com/http"}}},
		{ID: "sql", Name: "SQL", Tier: skillgraph.TierIntermediate},
		{ID: "distributed-systems", Name: "Distributed Systems", Tier: skillgraph.TierAdvanced, Prerequisites: []string{"http"}},
	}
	roles := []skillgraph.Role{
		{ID: "backend-engineer", Targets: map[string]float64{"http": 0.7, "sql": 0.6}},
		{ID: "architect", Targets: map[string]float64{"distributed-systems": 0.8, "networking-basics": 0.5}},
	}
	g, err := skillgraph.New(skills, roles)
	if err != nil {
		t.Fatalf("building test graph: %v", err)
	}
	return g
}

// wideOpenConfig has a cap large enough that no gap splits, so unit IDs and
// deltas stay readable in assertions.
func wideOpenConfig() Config {
	cfg := DefaultConfig()
	cfg.UnitDeltaCap = 1.0
	return cfg
}

func newModel(t *testing.T, g *skillgraph.Graph, decay mastery.DecayConfig) *mastery.Model {
	t.Helper()
	return mastery.NewModel(g, mastery.Config{Decay: decay}, nil, nil)
}

func merge(t *testing.T, m *mastery.Model, learner, skill string, strength, confidence float64, now time.Time) {
	t.Helper()
	obs, err := mastery.NewObservation(skill, strength, confidence, mastery.SourceManual)
	if err != nil {
		t.Fatalf("observation: %v", err)
	}
	if _, err := m.Merge(context.Background(), learner, obs, now); err != nil {
		t.Fatalf("merge %s: %v", skill, err)
	}
}

func TestGenerateOrdersUnitsTopologically(t *testing.T) {
	g := testGraph(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	model := newModel(t, g, mastery.DecayConfig{})
	merge(t, model, "alice", "networking-basics", 0.9, 0.9, now)
	merge(t, model, "alice", "http", 0.3, 0.4, now)
	// sql absent entirely.

	gen := NewGenerator(g, model, wideOpenConfig(), nil)
	rm, err := gen.Generate("alice", "backend-engineer", now)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if len(rm.Units) != 2 {
		t.Fatalf("got %d units, want 2: %+v", len(rm.Units), rm.Units)
	}
	if rm.Units[0].ID != "http-unit" || rm.Units[1].ID != "sql-unit" {
		t.Errorf("unit order = [%s, %s], want [http-unit, sql-unit]", rm.Units[0].ID, rm.Units[1].ID)
	}
	if d := rm.Units[0].TargetDelta; math.Abs(d-0.4) > 1e-9 {
		t.Errorf("http delta = %v, want 0.4", d)
	}
	if d := rm.Units[1].TargetDelta; math.Abs(d-0.6) > 1e-9 {
		t.Errorf("sql delta = %v, want 0.6", d)
	}
	for _, u := range rm.Units {
		if u.Kind != KindLearn {
			t.Errorf("%s: kind = %s, want learn", u.ID, u.Kind)
		}
	}
}

func TestGenerateIdempotent(t *testing.T) {
	g := testGraph(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	model := newModel(t, g, mastery.DecayConfig{})
	merge(t, model, "alice", "http", 0.2, 0.5, now)

	gen := NewGenerator(g, model, DefaultConfig(), nil)
	first, err := gen.Generate("alice", "backend-engineer", now)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	second, err := gen.Generate("alice", "backend-engineer", now.Add(3*time.Minute))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if !reflect.DeepEqual(first.Units, second.Units) {
		t.Errorf("unit sequences differ:\n%+v\n%+v", first.Units, second.Units)
	}
	if !second.GeneratedAt.After(first.GeneratedAt) {
		t.Errorf("GeneratedAt should advance: %v then %v", first.GeneratedAt, second.GeneratedAt)
	}
}

func TestGenerateSplitsOversizedGaps(t *testing.T) {
	g := testGraph(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	model := newModel(t, g, mastery.DecayConfig{})
	// sql absent: full 0.6 gap against the backend-engineer target.

	cfg := DefaultConfig()
	cfg.UnitDeltaCap = 0.25
	gen := NewGenerator(g, model, cfg, nil)
	rm, err := gen.Generate("alice", "backend-engineer", now)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	var sqlUnits []Unit
	for _, u := range rm.Units {
		if u.SkillID == "sql" {
			sqlUnits = append(sqlUnits, u)
		}
	}
	if len(sqlUnits) != 3 {
		t.Fatalf("got %d sql units, want 3 (gap 0.6, cap 0.25): %+v", len(sqlUnits), sqlUnits)
	}
	sum := 0.0
	for i, u := range sqlUnits {
		wantID := []string{"sql-unit-1", "sql-unit-2", "sql-unit-3"}[i]
		if u.ID != wantID {
			t.Errorf("unit %d ID = %s, want %s", i, u.ID, wantID)
		}
		if u.TargetDelta > cfg.UnitDeltaCap+1e-9 {
			t.Errorf("%s delta %v exceeds cap %v", u.ID, u.TargetDelta, cfg.UnitDeltaCap)
		}
		sum += u.TargetDelta
	}
	if math.Abs(sum-0.6) > 1e-9 {
		t.Errorf("split deltas sum to %v, want 0.6", sum)
	}
}

func TestGenerateEffortScalesWithTier(t *testing.T) {
	g := testGraph(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	model := newModel(t, g, mastery.DecayConfig{})
	// architect wants networking-basics 0.5 (foundational) and
	// distributed-systems 0.8 (advanced); both fully absent.

	cfg := wideOpenConfig()
	gen := NewGenerator(g, model, cfg, nil)
	rm, err := gen.Generate("bob", "architect", now)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	byID := map[string]Unit{}
	for _, u := range rm.Units {
		byID[u.ID] = u
	}
	nb := byID["networking-basics-unit"]
	ds := byID["distributed-systems-unit"]
	if want := int(math.Ceil(0.5 * float64(cfg.TierBaseMinutes.Foundational))); nb.EffortMinutes != want {
		t.Errorf("foundational effort = %d, want %d", nb.EffortMinutes, want)
	}
	if want := int(math.Ceil(0.8 * float64(cfg.TierBaseMinutes.Advanced))); ds.EffortMinutes != want {
		t.Errorf("advanced effort = %d, want %d", ds.EffortMinutes, want)
	}
	if ds.EffortMinutes <= nb.EffortMinutes {
		t.Errorf("advanced unit (%d min) should outweigh foundational (%d min)", ds.EffortMinutes, nb.EffortMinutes)
	}
}

func TestGenerateReviewUnits(t *testing.T) {
	g := testGraph(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	model := newModel(t, g, mastery.DecayConfig{HalfLife: 30 * 24 * time.Hour})

	// http met long ago: confidence 0.8 decays through three half-lives to
	// 0.1, under the review threshold. sql met recently stays confident.
	merge(t, model, "alice", "http", 0.9, 0.8, now.Add(-90*24*time.Hour))
	merge(t, model, "alice", "sql", 0.8, 0.8, now)

	cfg := wideOpenConfig()
	cfg.ReviewThreshold = 0.4
	gen := NewGenerator(g, model, cfg, nil)
	rm, err := gen.Generate("alice", "backend-engineer", now)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if len(rm.Units) != 1 {
		t.Fatalf("got %d units, want exactly the review unit: %+v", len(rm.Units), rm.Units)
	}
	u := rm.Units[0]
	if u.ID != "http-review" || u.Kind != KindReview {
		t.Errorf("unit = %+v, want http-review of kind review", u)
	}
	if u.TargetDelta != 0 {
		t.Errorf("review delta = %v, want 0", u.TargetDelta)
	}
	if u.EffortMinutes != cfg.ReviewMinutes {
		t.Errorf("review effort = %d, want %d", u.EffortMinutes, cfg.ReviewMinutes)
	}
}

func TestGenerateReviewUnitsAfterLearnUnitsMostStaleFirst(t *testing.T) {
	g := testGraph(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	model := newModel(t, g, mastery.DecayConfig{HalfLife: 30 * 24 * time.Hour})

	// architect targets: networking-basics 0.5, distributed-systems 0.8.
	// Both met but stale; distributed-systems is staler despite coming later
	// in topological order. http has no architect target, so its staleness
	// is irrelevant here.
	merge(t, model, "carol", "distributed-systems", 0.9, 0.9, now.Add(-200*24*time.Hour))
	merge(t, model, "carol", "networking-basics", 0.9, 0.9, now.Add(-100*24*time.Hour))
	merge(t, model, "carol", "http", 0.1, 0.9, now.Add(-300*24*time.Hour))

	gen := NewGenerator(g, model, wideOpenConfig(), nil)
	rm, err := gen.Generate("carol", "architect", now)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	var ids []string
	for _, u := range rm.Units {
		ids = append(ids, u.ID)
	}
	want := []string{"distributed-systems-review", "networking-basics-review"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("unit IDs = %v, want %v", ids, want)
	}
}

func TestGenerateReviewFollowsLearn(t *testing.T) {
	g := testGraph(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	model := newModel(t, g, mastery.DecayConfig{HalfLife: 30 * 24 * time.Hour})

	// http met but stale; sql open.
	merge(t, model, "alice", "http", 0.9, 0.9, now.Add(-180*24*time.Hour))

	gen := NewGenerator(g, model, wideOpenConfig(), nil)
	rm, err := gen.Generate("alice", "backend-engineer", now)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if len(rm.Units) != 2 {
		t.Fatalf("got %d units, want 2: %+v", len(rm.Units), rm.Units)
	}
	if rm.Units[0].Kind != KindLearn || rm.Units[1].Kind != KindReview {
		t.Errorf("kinds = [%s, %s], want learn before review", rm.Units[0].Kind, rm.Units[1].Kind)
	}
}

func TestGenerateUnknownRole(t *testing.T) {
	g := testGraph(t)
	model := newModel(t, g, mastery.DecayConfig{})
	gen := NewGenerator(g, model, DefaultConfig(), nil)

	_, err := gen.Generate("alice", "astronaut", time.Now())
	var unknownRole *skillgraph.UnknownRoleError
	if !errors.As(err, &unknownRole) {
		t.Fatalf("got %v, want UnknownRoleError", err)
	}
	if unknownRole.Role != "astronaut" {
		t.Errorf("error role = %s", unknownRole.Role)
	}
}

func TestGenerateCarriesResources(t *testing.T) {
	g := testGraph(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	model := newModel(t, g, mastery.DecayConfig{})

	gen := NewGenerator(g, model, wideOpenConfig(), nil)
	rm, err := gen.Generate("alice", "backend-engineer", now)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	for _, u := range rm.Units {
		if u.SkillID == "http" {
			if len(u.Resources) != 1 || u.Resources[0].URL != "https://example.com/http" {
				t.Errorf("http unit resources = %+v", u.Resources)
			}
			return
		}
	}
	t.Fatal("no http unit generated")
}

func TestGenerateAllTargetsMet(t *testing.T) {
	g := testGraph(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	model := newModel(t, g, mastery.DecayConfig{})
	merge(t, model, "alice", "http", 0.9, 0.9, now)
	merge(t, model, "alice", "sql", 0.9, 0.9, now)

	gen := NewGenerator(g, model, DefaultConfig(), nil)
	rm, err := gen.Generate("alice", "backend-engineer", now)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(rm.Units) != 0 {
		t.Errorf("got %d units for a fully met role, want 0: %+v", len(rm.Units), rm.Units)
	}
	if rm.TotalMinutes() != 0 {
		t.Errorf("TotalMinutes = %d, want 0", rm.TotalMinutes())
	}
}

func TestConfigValidation(t *testing.T) {
	bad := DefaultConfig()
	bad.UnitDeltaCap = 0
	if err := bad.Validate(); err == nil {
		t.Error("zero delta cap should fail validation")
	}

	inverted := DefaultConfig()
	inverted.TierBaseMinutes.Advanced = 10
	if err := inverted.Validate(); err == nil {
		t.Error("advanced base below intermediate should fail validation")
	}

	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}
