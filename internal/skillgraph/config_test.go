package skillgraph

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_ValidDocument(t *testing.T) {
	g, err := Load(filepath.Join("testdata", "graph.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(g.Skills()) != 4 {
		t.Errorf("got %d skills, want 4", len(g.Skills()))
	}

	s, err := g.Skill("networking-basics")
	if err != nil {
		t.Fatalf("networking-basics missing: %v", err)
	}
	if s.Tier != TierFoundational {
		t.Errorf("networking-basics tier: got %v, want foundational", s.Tier)
	}
	if len(s.Keywords) != 4 {
		t.Errorf("networking-basics keywords: got %v", s.Keywords)
	}
	if len(s.Resources) != 1 || s.Resources[0].URL != "https://hpbn.co/" {
		t.Errorf("networking-basics resources: got %v", s.Resources)
	}

	target, ok := g.TargetMastery("api-architect", "rest-design")
	if !ok || target != 0.8 {
		t.Errorf("api-architect/rest-design: got (%g, %v)", target, ok)
	}

	roles := g.Roles()
	if len(roles) != 2 || roles[0] != "api-architect" || roles[1] != "backend-engineer" {
		t.Errorf("Roles(): got %v", roles)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "does-not-exist.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	// A missing file is an I/O problem, not a document problem.
	var graphErr *GraphError
	if errors.As(err, &graphErr) {
		t.Errorf("missing file should not be reported as GraphError, got %v", err)
	}
}

func TestLoad_UnsupportedVersion(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "graph_v2.yaml"))
	if err == nil {
		t.Fatal("expected error for unsupported version")
	}
	var graphErr *GraphError
	if !errors.As(err, &graphErr) {
		t.Fatalf("expected *GraphError, got %T", err)
	}
	if !strings.Contains(err.Error(), "not supported") {
		t.Errorf("error should mention unsupported version, got: %v", err)
	}
}

func TestLoad_BadTier(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "graph_bad_tier.yaml"))
	if err == nil {
		t.Fatal("expected error for unknown tier")
	}
	if !strings.Contains(err.Error(), "unknown tier") {
		t.Errorf("error should mention the tier, got: %v", err)
	}
}

func TestFromDoc_VersionGate(t *testing.T) {
	tests := []struct {
		version string
		ok      bool
	}{
		{"v1", true},
		{"v1.0.0", true},
		{"v1.3.2", true},
		{"v2", false},
		{"v0.9.0", false},
		{"1.0.0", false}, // semver here requires the leading v
		{"", false},
		{"garbage", false},
	}

	for _, tt := range tests {
		t.Run("version "+tt.version, func(t *testing.T) {
			doc := &graphDoc{
				Version: tt.version,
				Skills:  []skillDoc{{ID: "a", Tier: "foundational"}},
				Roles:   map[string]map[string]float64{"r": {"a": 0.5}},
			}
			_, err := fromDoc(doc)
			if tt.ok && err != nil {
				t.Fatalf("expected success, got %v", err)
			}
			if !tt.ok && err == nil {
				t.Fatal("expected version gate to reject document")
			}
		})
	}
}

func TestFromDoc_DefaultsNameToID(t *testing.T) {
	doc := &graphDoc{
		Version: "v1",
		Skills:  []skillDoc{{ID: "kubernetes", Tier: "advanced"}},
		Roles:   map[string]map[string]float64{"r": {"kubernetes": 0.4}},
	}
	g, err := fromDoc(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, _ := g.Skill("kubernetes")
	if s.Name != "kubernetes" {
		t.Errorf("name should default to ID, got %q", s.Name)
	}
}
