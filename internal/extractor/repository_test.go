package extractor

import (
	"testing"

	"github.com/abhisek/mentor/internal/mastery"
)

func TestExtractRepositoryShares(t *testing.T) {
	e := New(testGraph(t), &fakeAnalyzer{}, DefaultConfig(), nil)

	obs, err := e.ExtractRepository(RepositoryEvidence{
		Name:      "svc",
		Languages: map[string]int64{"Go": 750, "Python": 250},
	})
	if err != nil {
		t.Fatalf("ExtractRepository: %v", err)
	}
	if len(obs) != 2 {
		t.Fatalf("got %d observations, want 2: %+v", len(obs), obs)
	}

	// Sorted by skill ID. With a single repository each share is halved.
	byID := map[string]mastery.Observation{}
	for _, o := range obs {
		byID[o.SkillID] = o
	}
	if o := byID["go-programming"]; !approx(o.Strength, 0.75/2) {
		t.Errorf("go strength = %v, want %v", o.Strength, 0.75/2)
	}
	if o := byID["python-programming"]; !approx(o.Strength, 0.25/2) {
		t.Errorf("python strength = %v, want %v", o.Strength, 0.25/2)
	}
	for id, o := range byID {
		if o.Source != mastery.SourceRepository {
			t.Errorf("%s: source = %s, want repository", id, o.Source)
		}
		if !approx(o.Confidence, DefaultConfig().SourceConfidence.Repository) {
			t.Errorf("%s: confidence = %v", id, o.Confidence)
		}
	}
}

func TestExtractRepositoriesDampening(t *testing.T) {
	e := New(testGraph(t), &fakeAnalyzer{}, DefaultConfig(), nil)

	// The same language across two repositories is stronger evidence than
	// the same bytes in one.
	obs, err := e.ExtractRepositories([]RepositoryEvidence{
		{Name: "svc-a", Languages: map[string]int64{"Go": 500}},
		{Name: "svc-b", Languages: map[string]int64{"Go": 500}},
	})
	if err != nil {
		t.Fatalf("ExtractRepositories: %v", err)
	}
	if len(obs) != 1 {
		t.Fatalf("got %d observations, want 1", len(obs))
	}
	if want := 1.0 * 2 / 3; !approx(obs[0].Strength, want) {
		t.Errorf("strength = %v, want %v", obs[0].Strength, want)
	}

	single, err := e.ExtractRepository(RepositoryEvidence{Name: "svc", Languages: map[string]int64{"Go": 1000}})
	if err != nil {
		t.Fatalf("ExtractRepository: %v", err)
	}
	if obs[0].Strength <= single[0].Strength {
		t.Errorf("two repos (%v) should outweigh one (%v)", obs[0].Strength, single[0].Strength)
	}
}

func TestExtractRepositoryUnknownLanguages(t *testing.T) {
	e := New(testGraph(t), &fakeAnalyzer{}, DefaultConfig(), nil)

	obs, err := e.ExtractRepository(RepositoryEvidence{
		Name:      "dotfiles",
		Languages: map[string]int64{"Vimscript": 4000},
	})
	if err != nil {
		t.Fatalf("ExtractRepository: %v", err)
	}
	if len(obs) != 0 {
		t.Errorf("got %d observations for unmatched language, want 0", len(obs))
	}
}

func TestExtractRepositoryEmptyHistogram(t *testing.T) {
	e := New(testGraph(t), &fakeAnalyzer{}, DefaultConfig(), nil)

	obs, err := e.ExtractRepository(RepositoryEvidence{Name: "empty"})
	if err != nil {
		t.Fatalf("ExtractRepository: %v", err)
	}
	if obs != nil {
		t.Errorf("got %+v, want nil", obs)
	}
}

func TestExtractRepositoryNegativeBytes(t *testing.T) {
	e := New(testGraph(t), &fakeAnalyzer{}, DefaultConfig(), nil)

	if _, err := e.ExtractRepository(RepositoryEvidence{
		Name:      "bad",
		Languages: map[string]int64{"Go": -1},
	}); err == nil {
		t.Fatal("want an error for a negative byte count")
	}
}

func TestExtractRepositoryMatchesByName(t *testing.T) {
	e := New(testGraph(t), &fakeAnalyzer{}, DefaultConfig(), nil)

	// "Python" matches the skill name, not only keywords.
	obs, err := e.ExtractRepository(RepositoryEvidence{
		Name:      "ml",
		Languages: map[string]int64{"python": 100},
	})
	if err != nil {
		t.Fatalf("ExtractRepository: %v", err)
	}
	if len(obs) != 1 || obs[0].SkillID != "python-programming" {
		t.Errorf("got %+v, want python-programming", obs)
	}
}
