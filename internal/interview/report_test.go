package interview

import (
	"testing"
	"time"
)

func TestBandOf(t *testing.T) {
	cases := []struct {
		score float64
		want  Band
	}{
		{0.95, BandStrong},
		{0.8, BandStrong},
		{0.79, BandSolid},
		{0.6, BandSolid},
		{0.59, BandDeveloping},
		{0.4, BandDeveloping},
		{0.39, BandNeedsWork},
		{0.0, BandNeedsWork},
	}
	for _, tc := range cases {
		if got := BandOf(tc.score); got != tc.want {
			t.Errorf("BandOf(%v) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestBuildReport(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	s := &Session{
		ID:         "sess-1",
		LearnerID:  "alice",
		Role:       "backend-engineer",
		StartedAt:  start,
		FinishedAt: start.Add(12 * time.Minute),
		Items: []Item{
			{SkillID: "web", Answered: true, Scored: true, Score: 0.9, Feedback: "great"},
			{SkillID: "distributed", Answered: true, Scored: true, Score: 0.3},
			{SkillID: "basics", Answered: true}, // unscorable
			{SkillID: "web", Answered: false},   // pending, never answered
		},
	}

	r := buildReport(s, 2)
	if len(r.Items) != 3 {
		t.Fatalf("report items = %d, want 3 (unanswered excluded)", len(r.Items))
	}
	if r.Items[0].Band != BandStrong || r.Items[1].Band != BandNeedsWork {
		t.Errorf("bands = %s, %s", r.Items[0].Band, r.Items[1].Band)
	}
	if r.Items[2].Scored || r.Items[2].Band != "" {
		t.Errorf("unscorable item = %+v, want unscored with no band", r.Items[2])
	}
	if want := (0.9 + 0.3) / 2; !approx(r.Average, want) {
		t.Errorf("average = %v, want %v", r.Average, want)
	}
	if r.Duration != 12*time.Minute {
		t.Errorf("duration = %v", r.Duration)
	}
	if r.Observations != 2 {
		t.Errorf("observations = %d", r.Observations)
	}
}
