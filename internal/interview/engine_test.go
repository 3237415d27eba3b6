package interview

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/abhisek/mentor/internal/capability"
	"github.com/abhisek/mentor/internal/mastery"
	"github.com/abhisek/mentor/internal/skillgraph"
	"github.com/abhisek/mentor/internal/store"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

// testGraph builds a three-skill chain: basics -> web -> distributed.
func testGraph(t *testing.T) *skillgraph.Graph {
	t.Helper()
	skills := []skillgraph.Skill{
		{ID: "basics", Name: "Computing Basics", Tier: skillgraph.TierFoundational},
		{ID: "web", Name: "Web Services", Tier: skillgraph.TierIntermediate, Prerequisites: []string{"basics"}},
		{ID: "distributed", Name: "Distributed Systems", Tier: skillgraph.TierAdvanced, Prerequisites: []string{"web"}},
	}
	roles := []skillgraph.Role{
		{ID: "backend-engineer", Targets: map[string]float64{"web": 0.7, "distributed": 0.8}},
	}
	g, err := skillgraph.New(skills, roles)
	if err != nil {
		t.Fatalf("building test graph: %v", err)
	}
	return g
}

// obsLog counts observations reaching the store, by source.
type obsLog struct {
	mu   sync.Mutex
	recs []store.ObservationRecord
}

func (l *obsLog) AppendObservation(_ context.Context, rec store.ObservationRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.recs = append(l.recs, rec)
	return nil
}

func (l *obsLog) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.recs)
}

// memEvents is an in-memory session event trail.
type memEvents struct {
	mu   sync.Mutex
	recs []store.SessionEventRecord
}

func (m *memEvents) AppendSessionEvent(_ context.Context, rec store.SessionEventRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, rec)
	return nil
}

func (m *memEvents) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.recs))
	for _, r := range m.recs {
		out = append(out, r.Action)
	}
	return out
}

// scriptJudge replays a fixed sequence of judgments and errors.
type scriptJudge struct {
	mu      sync.Mutex
	results []judgeResult
}

type judgeResult struct {
	judgment capability.Judgment
	err      error
}

func score(s float64) judgeResult {
	return judgeResult{judgment: capability.Judgment{Score: s, Confidence: 0.7, Feedback: "noted"}}
}

func judgeFail() judgeResult {
	return judgeResult{err: errors.New("judge unavailable")}
}

func (j *scriptJudge) Judge(_ context.Context, _ capability.JudgeInput) (capability.Judgment, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if len(j.results) == 0 {
		return capability.Judgment{Score: 0.5, Confidence: 0.5}, nil
	}
	r := j.results[0]
	j.results = j.results[1:]
	return r.judgment, r.err
}

type fixture struct {
	engine *Engine
	model  *mastery.Model
	obs    *obsLog
	events *memEvents
	judge  *scriptJudge
	clock  *time.Time
}

func newFixture(t *testing.T, results ...judgeResult) *fixture {
	t.Helper()
	g := testGraph(t)
	obs := &obsLog{}
	model := mastery.NewModel(g, mastery.Config{Decay: mastery.DefaultDecay()}, obs, nil)
	events := &memEvents{}
	judge := &scriptJudge{results: results}
	eng := NewEngine(g, model, nil, judge, events, DefaultConfig(), nil)

	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	eng.now = func() time.Time { return now }
	return &fixture{engine: eng, model: model, obs: obs, events: events, judge: judge, clock: &now}
}

func TestStartServesFirstQuestion(t *testing.T) {
	f := newFixture(t)
	s, err := f.engine.Start(context.Background(), "alice", "backend-engineer", 2)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if s.ID == "" {
		t.Error("session ID is empty")
	}
	if s.State != StateInProgress {
		t.Errorf("state = %s, want in_progress", s.State)
	}
	// Absent skills tie at product zero, so the plan follows topological
	// order restricted to the role targets.
	if len(s.Plan) != 2 || s.Plan[0] != "web" || s.Plan[1] != "distributed" {
		t.Errorf("plan = %v, want [web distributed]", s.Plan)
	}
	if len(s.Items) != 1 || s.Items[0].SkillID != "web" || s.Items[0].Question == "" {
		t.Errorf("first item = %+v, want a question on web", s.Items)
	}
	if s.Deadline.IsZero() {
		t.Error("deadline not set despite configured timeout")
	}
}

func TestStartConflict(t *testing.T) {
	f := newFixture(t, score(0.9))
	first, err := f.engine.Start(context.Background(), "alice", "backend-engineer", 2)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := f.engine.Submit(context.Background(), first.ID, "an answer"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	before, err := f.engine.Session(first.ID)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}

	_, err = f.engine.Start(context.Background(), "alice", "backend-engineer", 2)
	var conflict *SessionConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("got %v, want SessionConflictError", err)
	}
	if conflict.SessionID != first.ID || conflict.LearnerID != "alice" {
		t.Errorf("conflict = %+v", conflict)
	}

	after, err := f.engine.Session(first.ID)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if after.State != before.State || len(after.Items) != len(before.Items) {
		t.Errorf("first session changed by conflicting start: %+v vs %+v", before, after)
	}

	// A different learner is unaffected.
	if _, err := f.engine.Start(context.Background(), "bob", "backend-engineer", 2); err != nil {
		t.Errorf("Start for bob: %v", err)
	}
}

func TestStartUnknownRole(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.Start(context.Background(), "alice", "astronaut", 2)
	var unknownRole *skillgraph.UnknownRoleError
	if !errors.As(err, &unknownRole) {
		t.Fatalf("got %v, want UnknownRoleError", err)
	}
	if _, active := f.engine.Active("alice"); active {
		t.Error("failed start left an active session behind")
	}
}

func TestSubmitEscalatesOnStrongAnswers(t *testing.T) {
	f := newFixture(t, score(0.9))
	// No role restriction: plan covers the whole graph, first question on
	// basics (topological tie-break at product zero).
	s, err := f.engine.Start(context.Background(), "alice", "", 3)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.Items[0].SkillID != "basics" {
		t.Fatalf("first question on %s, want basics", s.Items[0].SkillID)
	}

	turn, err := f.engine.Submit(context.Background(), s.ID, "a thorough answer")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !turn.Item.Scored || turn.Item.Score != 0.9 {
		t.Errorf("item = %+v, want scored 0.9", turn.Item)
	}
	if turn.NextSkillID != "web" || turn.Reason != ReasonEscalated {
		t.Errorf("next = %s (%s), want web (escalated)", turn.NextSkillID, turn.Reason)
	}
}

func TestSubmitDeescalatesOnWeakAnswers(t *testing.T) {
	f := newFixture(t, score(0.1))
	now := *f.clock
	// Make basics well-known so the plan starts at web; a weak answer then
	// drops back to the unasked prerequisite.
	obs, err := mastery.NewObservation("basics", 0.9, 0.9, mastery.SourceManual)
	if err != nil {
		t.Fatalf("observation: %v", err)
	}
	if _, err := f.model.Merge(context.Background(), "alice", obs, now); err != nil {
		t.Fatalf("merge: %v", err)
	}

	s, err := f.engine.Start(context.Background(), "alice", "", 3)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.Items[0].SkillID != "web" {
		t.Fatalf("first question on %s, want web", s.Items[0].SkillID)
	}

	turn, err := f.engine.Submit(context.Background(), s.ID, "not sure")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if turn.NextSkillID != "basics" || turn.Reason != ReasonDeescalated {
		t.Errorf("next = %s (%s), want basics (deescalated)", turn.NextSkillID, turn.Reason)
	}
}

func TestSubmitJudgeFailureIsIsolated(t *testing.T) {
	f := newFixture(t, judgeFail())
	s, err := f.engine.Start(context.Background(), "alice", "backend-engineer", 2)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	turn, err := f.engine.Submit(context.Background(), s.ID, "an answer")
	if err != nil {
		t.Fatalf("Submit should survive a failed judge: %v", err)
	}
	if turn.Item.Scored {
		t.Error("item should stay unscored after judge failure")
	}
	if turn.Done || turn.NextQuestion == "" {
		t.Errorf("session should continue: %+v", turn)
	}
	// No scored answers yet, so the cursor stays on the plan.
	if turn.Reason != ReasonPlanned {
		t.Errorf("reason = %s, want planned", turn.Reason)
	}
}

func TestFinishEmitsOneObservationPerAnsweredQuestion(t *testing.T) {
	f := newFixture(t, score(0.6), score(0.7))
	s, err := f.engine.Start(context.Background(), "alice", "backend-engineer", 2)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := f.engine.Submit(context.Background(), s.ID, "an answer"); err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
	}
	if f.obs.count() != 0 {
		t.Fatalf("observations before Finish = %d, want 0", f.obs.count())
	}

	report, err := f.engine.Finish(context.Background(), s.ID)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if report.Observations != 2 || f.obs.count() != 2 {
		t.Errorf("observations = %d (report %d), want 2", f.obs.count(), report.Observations)
	}
	for _, rec := range f.obs.recs {
		if rec.Source != string(mastery.SourceInterview) {
			t.Errorf("observation source = %s, want interview", rec.Source)
		}
	}
	if avg := (0.6 + 0.7) / 2; !approx(report.Average, avg) {
		t.Errorf("average = %v, want %v", report.Average, avg)
	}

	// The learner may start again once the session completed.
	if _, err := f.engine.Start(context.Background(), "alice", "backend-engineer", 2); err != nil {
		t.Errorf("Start after Finish: %v", err)
	}
}

func TestFinishRetriesUnscoredItems(t *testing.T) {
	// Judge fails during Submit, succeeds on the finishing retry.
	f := newFixture(t, judgeFail(), score(0.8), score(0.8))
	s, err := f.engine.Start(context.Background(), "alice", "backend-engineer", 2)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := f.engine.Submit(context.Background(), s.ID, "an answer"); err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
	}

	report, err := f.engine.Finish(context.Background(), s.ID)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if report.Observations != 2 {
		t.Errorf("observations = %d, want 2 after retrying the unscored item", report.Observations)
	}
}

func TestFinishDegradesOnUnscorableItems(t *testing.T) {
	// Judge fails during Submit and again on the finishing retry.
	f := newFixture(t, judgeFail(), score(0.8), judgeFail())
	s, err := f.engine.Start(context.Background(), "alice", "backend-engineer", 2)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := f.engine.Submit(context.Background(), s.ID, "an answer"); err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
	}

	report, err := f.engine.Finish(context.Background(), s.ID)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if report.Observations != 1 {
		t.Errorf("observations = %d, want 1 (one item unscorable)", report.Observations)
	}
	unscored := 0
	for _, item := range report.Items {
		if !item.Scored {
			unscored++
		}
	}
	if unscored != 1 {
		t.Errorf("unscored items = %d, want 1", unscored)
	}
}

func TestAbandonEmitsNothing(t *testing.T) {
	f := newFixture(t, score(0.9), score(0.9))
	s, err := f.engine.Start(context.Background(), "alice", "backend-engineer", 2)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := f.engine.Submit(context.Background(), s.ID, "an answer"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if err := f.engine.Abandon(s.ID); err != nil {
		t.Fatalf("Abandon: %v", err)
	}
	if f.obs.count() != 0 {
		t.Errorf("abandoned session emitted %d observations, want 0", f.obs.count())
	}

	got, err := f.engine.Session(s.ID)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if got.State != StateAbandoned {
		t.Errorf("state = %s, want abandoned", got.State)
	}
	if _, err := f.engine.Finish(context.Background(), s.ID); !errors.Is(err, ErrSessionNotActive) {
		t.Errorf("Finish after Abandon = %v, want ErrSessionNotActive", err)
	}
	if _, err := f.engine.Start(context.Background(), "alice", "backend-engineer", 2); err != nil {
		t.Errorf("Start after Abandon: %v", err)
	}
}

func TestSubmitAfterDeadlineAbandons(t *testing.T) {
	f := newFixture(t)
	s, err := f.engine.Start(context.Background(), "alice", "backend-engineer", 2)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	*f.clock = f.clock.Add(DefaultConfig().SessionTimeout + time.Minute)
	if _, err := f.engine.Submit(context.Background(), s.ID, "too late"); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("Submit = %v, want ErrSessionExpired", err)
	}

	got, err := f.engine.Session(s.ID)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if got.State != StateAbandoned {
		t.Errorf("state = %s, want abandoned", got.State)
	}
	if f.obs.count() != 0 {
		t.Errorf("expired session emitted %d observations", f.obs.count())
	}
}

func TestExpireStale(t *testing.T) {
	f := newFixture(t)
	a, err := f.engine.Start(context.Background(), "alice", "backend-engineer", 2)
	if err != nil {
		t.Fatalf("Start alice: %v", err)
	}

	// Bob starts later, inside the window that expires alice.
	*f.clock = f.clock.Add(20 * time.Minute)
	if _, err := f.engine.Start(context.Background(), "bob", "backend-engineer", 2); err != nil {
		t.Fatalf("Start bob: %v", err)
	}

	sweep := f.clock.Add(15 * time.Minute) // alice at 35m > 30m timeout, bob at 15m
	if n := f.engine.ExpireStale(sweep); n != 1 {
		t.Fatalf("ExpireStale = %d, want 1", n)
	}
	got, err := f.engine.Session(a.ID)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if got.State != StateAbandoned {
		t.Errorf("alice state = %s, want abandoned", got.State)
	}
	if _, active := f.engine.Active("bob"); !active {
		t.Error("bob's session should survive the sweep")
	}
}

func TestSubmitUnknownSession(t *testing.T) {
	f := newFixture(t)
	if _, err := f.engine.Submit(context.Background(), "nope", "answer"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("got %v, want ErrSessionNotFound", err)
	}
}

func TestSessionEventTrail(t *testing.T) {
	f := newFixture(t, score(0.9), score(0.9))
	s, err := f.engine.Start(context.Background(), "alice", "backend-engineer", 2)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := f.engine.Submit(context.Background(), s.ID, "an answer"); err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
	}
	if _, err := f.engine.Finish(context.Background(), s.ID); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	want := []string{
		actionStarted, actionQuestion,
		actionAnswer, actionQuestion,
		actionAnswer,
		actionFinished,
	}
	got := f.events.actions()
	if len(got) != len(want) {
		t.Fatalf("actions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("action %d = %s, want %s", i, got[i], want[i])
		}
	}
}
