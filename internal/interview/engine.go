package interview

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/mentor/internal/capability"
	"github.com/abhisek/mentor/internal/logger"
	"github.com/abhisek/mentor/internal/mastery"
	"github.com/abhisek/mentor/internal/skillgraph"
	"github.com/abhisek/mentor/internal/store"
)

// Session event actions recorded in the store.
const (
	actionStarted   = "started"
	actionQuestion  = "question"
	actionAnswer    = "answer"
	actionFinished  = "finished"
	actionAbandoned = "abandoned"
)

// SessionEventLog records session events for the audit trail.
type SessionEventLog interface {
	AppendSessionEvent(ctx context.Context, rec store.SessionEventRecord) error
}

// Turn is the outcome of one Submit call: the judged answer plus the next
// question, if any.
type Turn struct {
	SessionID    string
	Item         Item // the answered item after judging
	NextSkillID  string
	NextQuestion string
	Reason       TargetReason
	Remaining    int // answers still expected after this one
	Done         bool
}

// slot pairs a session with its own lock so different learners' sessions
// never serialize behind each other's judge calls.
type slot struct {
	mu sync.Mutex
	s  *Session
}

// Engine runs interview sessions. One session per learner may be in flight
// at a time.
type Engine struct {
	graph     *skillgraph.Graph
	model     *mastery.Model
	questions capability.QuestionSource
	fallback  *StaticBank
	judge     capability.ResponseJudge
	events    SessionEventLog
	cfg       Config
	logger    *zap.Logger
	now       func() time.Time

	mu        sync.Mutex
	sessions  map[string]*slot
	byLearner map[string]string
}

// NewEngine creates an engine. questions may be nil to use the static bank
// alone; a nil judge leaves every answer unscored, which completes sessions
// without emitting observations. events may be nil for a trail-less engine.
func NewEngine(graph *skillgraph.Graph, model *mastery.Model, questions capability.QuestionSource, judge capability.ResponseJudge, events SessionEventLog, cfg Config, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		graph:     graph,
		model:     model,
		questions: questions,
		fallback:  NewStaticBank(),
		judge:     judge,
		events:    events,
		cfg:       cfg,
		logger:    log,
		now:       time.Now,
		sessions:  make(map[string]*slot),
		byLearner: make(map[string]string),
	}
}

// Start creates a session and serves its first question. Targets come from
// the mastery model's weakest uncertain skills, restricted to the role's
// target skills when the role defines any. A second start while the
// learner's previous session is in flight fails with *SessionConflictError
// and leaves that session untouched.
func (e *Engine) Start(ctx context.Context, learnerID, role string, nQuestions int) (*Session, error) {
	if nQuestions <= 0 {
		nQuestions = e.cfg.QuestionCount
	}
	now := e.now()

	// Resolve the role before touching engine state so an unknown role
	// cannot leave a half-registered session behind.
	var restrict []string
	if role != "" {
		targets, err := e.graph.RoleTargets(role)
		if err != nil {
			return nil, err
		}
		restrict = make([]string, 0, len(targets))
		for id := range targets {
			restrict = append(restrict, id)
		}
	}

	var planSkills []skillgraph.Skill
	if len(restrict) > 0 {
		planSkills = e.model.WeakestUncertainAmong(learnerID, nQuestions, now, restrict)
	} else {
		planSkills = e.model.WeakestUncertain(learnerID, nQuestions, now)
	}
	if len(planSkills) == 0 {
		return nil, fmt.Errorf("no skills available to interview %q on", learnerID)
	}
	plan := make([]string, 0, len(planSkills))
	for _, sk := range planSkills {
		plan = append(plan, sk.ID)
	}

	s := &Session{
		ID:            uuid.NewString(),
		LearnerID:     learnerID,
		Role:          role,
		State:         StateCreated,
		Plan:          plan,
		QuestionCount: nQuestions,
		StartedAt:     now,
	}
	if e.cfg.SessionTimeout > 0 {
		s.Deadline = now.Add(e.cfg.SessionTimeout)
	}

	sl := &slot{s: s}
	e.mu.Lock()
	if conflict := e.checkConflictLocked(learnerID, now); conflict != nil {
		e.mu.Unlock()
		return nil, conflict
	}
	e.sessions[s.ID] = sl
	e.byLearner[learnerID] = s.ID
	e.mu.Unlock()

	sl.mu.Lock()
	defer sl.mu.Unlock()
	e.appendEvent(ctx, s, actionStarted, "", role, 0, now)
	e.askQuestion(ctx, s, plan[0], ReasonPlanned, now)
	s.State = StateInProgress

	e.logger.Info("interview started",
		zap.String(logger.FieldLearner, learnerID),
		zap.String(logger.FieldRole, role),
		zap.String(logger.FieldSession, s.ID),
		zap.Int("questions", nQuestions),
	)
	return s.clone(), nil
}

// checkConflictLocked enforces one in-flight session per learner, sweeping
// out sessions that already ended or expired. Caller holds e.mu.
func (e *Engine) checkConflictLocked(learnerID string, now time.Time) error {
	activeID, ok := e.byLearner[learnerID]
	if !ok {
		return nil
	}
	sl := e.sessions[activeID]
	if sl == nil {
		delete(e.byLearner, learnerID)
		return nil
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	switch sl.s.State {
	case StateCompleted, StateAbandoned:
		delete(e.byLearner, learnerID)
		return nil
	case StateInProgress:
		if sl.s.expired(now) {
			e.abandonLocked(sl.s, "timeout", now)
			delete(e.byLearner, learnerID)
			return nil
		}
	}
	return &SessionConflictError{LearnerID: learnerID, SessionID: activeID}
}

// Submit records the answer to the pending question, scores it, and serves
// the next question. A failed judge leaves this item unscored and the
// session continues.
func (e *Engine) Submit(ctx context.Context, sessionID, response string) (*Turn, error) {
	sl, err := e.slotFor(sessionID)
	if err != nil {
		return nil, err
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	s := sl.s

	if s.State != StateInProgress {
		return nil, ErrSessionNotActive
	}
	now := e.now()
	if s.expired(now) {
		e.abandonLocked(s, "timeout", now)
		return nil, ErrSessionExpired
	}
	item := s.pending()
	if item == nil {
		return nil, ErrNoPendingQuestion
	}

	item.Answer = response
	item.Answered = true
	item.AnsweredAt = now
	e.scoreItem(ctx, s, item)
	e.appendEvent(ctx, s, actionAnswer, item.SkillID, item.Feedback, item.Score, now)

	turn := &Turn{
		SessionID: s.ID,
		Item:      *item,
		Remaining: s.QuestionCount - s.answered(),
	}
	if turn.Remaining <= 0 {
		turn.Done = true
		return turn, nil
	}

	nextID, reason := nextTarget(s, e.graph, e.cfg)
	if nextID == "" {
		// Plan and graph neighborhood exhausted before the question count.
		turn.Done = true
		turn.Remaining = 0
		return turn, nil
	}
	q := e.askQuestion(ctx, s, nextID, reason, now)
	turn.NextSkillID = nextID
	turn.NextQuestion = q
	turn.Reason = reason
	return turn, nil
}

// Finish scores any unscored answers, merges one observation per scored
// answer into the mastery model, and returns the report.
func (e *Engine) Finish(ctx context.Context, sessionID string) (*Report, error) {
	sl, err := e.slotFor(sessionID)
	if err != nil {
		return nil, err
	}
	sl.mu.Lock()
	s := sl.s

	if s.State != StateInProgress {
		sl.mu.Unlock()
		return nil, ErrSessionNotActive
	}
	now := e.now()
	if s.expired(now) {
		e.abandonLocked(s, "timeout", now)
		sl.mu.Unlock()
		e.release(s)
		return nil, ErrSessionExpired
	}

	s.State = StateScoring
	for i := range s.Items {
		item := &s.Items[i]
		if item.Answered && !item.Scored {
			e.scoreItem(ctx, s, item)
		}
	}

	observations := 0
	for _, item := range s.Items {
		if !item.Answered || !item.Scored {
			continue
		}
		obs, err := mastery.NewObservation(item.SkillID, item.Score, item.Confidence, mastery.SourceInterview)
		if err != nil {
			e.logger.Warn("skipping invalid interview observation",
				zap.String(logger.FieldSession, s.ID),
				zap.String(logger.FieldSkill, item.SkillID),
				zap.Error(err),
			)
			continue
		}
		if _, err := e.model.Merge(ctx, s.LearnerID, obs, now); err != nil {
			e.logger.Warn("merging interview observation failed",
				zap.String(logger.FieldSession, s.ID),
				zap.String(logger.FieldSkill, item.SkillID),
				zap.Error(err),
			)
			continue
		}
		observations++
	}

	s.State = StateCompleted
	s.FinishedAt = now
	report := buildReport(s, observations)
	e.appendEvent(ctx, s, actionFinished, "", fmt.Sprintf("observations=%d", observations), report.Average, now)
	sl.mu.Unlock()

	e.release(s)
	e.logger.Info("interview finished",
		zap.String(logger.FieldLearner, s.LearnerID),
		zap.String(logger.FieldSession, s.ID),
		zap.Int("observations", observations),
		zap.Float64("average", report.Average),
	)
	return report, nil
}

// Abandon cancels an in-flight session. No observations are emitted.
func (e *Engine) Abandon(sessionID string) error {
	sl, err := e.slotFor(sessionID)
	if err != nil {
		return err
	}
	sl.mu.Lock()
	s := sl.s
	if s.State != StateInProgress && s.State != StateCreated {
		sl.mu.Unlock()
		return ErrSessionNotActive
	}
	e.abandonLocked(s, "cancelled", e.now())
	sl.mu.Unlock()

	e.release(s)
	return nil
}

// ExpireStale abandons every in-progress session whose deadline passed.
// Returns how many were abandoned.
func (e *Engine) ExpireStale(now time.Time) int {
	e.mu.Lock()
	slots := make([]*slot, 0, len(e.sessions))
	for _, sl := range e.sessions {
		slots = append(slots, sl)
	}
	e.mu.Unlock()

	expired := 0
	for _, sl := range slots {
		sl.mu.Lock()
		if sl.s.State == StateInProgress && sl.s.expired(now) {
			e.abandonLocked(sl.s, "timeout", now)
			expired++
			s := sl.s
			sl.mu.Unlock()
			e.release(s)
			continue
		}
		sl.mu.Unlock()
	}
	return expired
}

// Session returns a copy of a session's current state.
func (e *Engine) Session(sessionID string) (*Session, error) {
	sl, err := e.slotFor(sessionID)
	if err != nil {
		return nil, err
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.s.clone(), nil
}

// Active returns a copy of the learner's in-flight session, if any.
func (e *Engine) Active(learnerID string) (*Session, bool) {
	e.mu.Lock()
	id, ok := e.byLearner[learnerID]
	sl := e.sessions[id]
	e.mu.Unlock()
	if !ok || sl == nil {
		return nil, false
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.s.State != StateInProgress && sl.s.State != StateCreated {
		return nil, false
	}
	return sl.s.clone(), true
}

func (e *Engine) slotFor(sessionID string) (*slot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	sl, ok := e.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sl, nil
}

// release drops the learner's active-session mapping once a session ended.
// Taken without the slot lock held to keep lock ordering engine -> slot.
func (e *Engine) release(s *Session) {
	e.mu.Lock()
	if e.byLearner[s.LearnerID] == s.ID {
		delete(e.byLearner, s.LearnerID)
	}
	e.mu.Unlock()
}

// askQuestion fetches the next question and appends the pending item. The
// static bank backstops a failed generator, so a session never stalls on
// question generation. Caller holds the slot lock.
func (e *Engine) askQuestion(ctx context.Context, s *Session, skillID string, reason TargetReason, now time.Time) string {
	skill, err := e.graph.Skill(skillID)
	if err != nil {
		// nextTarget only returns graph skills.
		skill = skillgraph.Skill{ID: skillID, Name: skillID}
	}
	input := capability.QuestionInput{Skill: skill, PriorQuestions: s.questionTexts()}

	var q capability.Question
	if e.questions != nil {
		q, err = e.questions.NextQuestion(ctx, input)
		if err != nil {
			e.logger.Warn("question generator failed, using static bank",
				zap.String(logger.FieldSession, s.ID),
				zap.String(logger.FieldSkill, skillID),
				zap.Error(err),
			)
			q, _ = e.fallback.NextQuestion(ctx, input)
		}
	} else {
		q, _ = e.fallback.NextQuestion(ctx, input)
	}

	s.Items = append(s.Items, Item{
		SkillID:   skillID,
		SkillName: skill.Name,
		Question:  q.Text,
		Reason:    reason,
		AskedAt:   now,
	})
	e.appendEvent(ctx, s, actionQuestion, skillID, q.Text, 0, now)
	return q.Text
}

// scoreItem judges one answered item. Failures are isolated: the item stays
// unscored and the session continues.
func (e *Engine) scoreItem(ctx context.Context, s *Session, item *Item) {
	if e.judge == nil {
		return
	}
	skill, err := e.graph.Skill(item.SkillID)
	if err != nil {
		skill = skillgraph.Skill{ID: item.SkillID, Name: item.SkillName}
	}
	judgment, err := e.judge.Judge(ctx, capability.JudgeInput{
		Skill:    skill,
		Question: item.Question,
		Answer:   item.Answer,
	})
	if err != nil {
		e.logger.Warn("judge failed, leaving answer unscored",
			zap.String(logger.FieldSession, s.ID),
			zap.String(logger.FieldSkill, item.SkillID),
			zap.Error(err),
		)
		return
	}
	item.Scored = true
	item.Score = judgment.Score
	item.Confidence = judgment.Confidence
	item.Feedback = judgment.Feedback
}

// abandonLocked marks a session abandoned. Caller holds the slot lock.
func (e *Engine) abandonLocked(s *Session, reason string, now time.Time) {
	s.State = StateAbandoned
	s.FinishedAt = now
	e.appendEvent(context.Background(), s, actionAbandoned, "", reason, 0, now)
	e.logger.Info("interview abandoned",
		zap.String(logger.FieldLearner, s.LearnerID),
		zap.String(logger.FieldSession, s.ID),
		zap.String("reason", reason),
	)
}

// appendEvent records one session event. The trail is advisory: a failed
// append is logged, never fatal to the session.
func (e *Engine) appendEvent(ctx context.Context, s *Session, action, skillID, detail string, score float64, now time.Time) {
	if e.events == nil {
		return
	}
	rec := store.SessionEventRecord{
		LearnerID:  s.LearnerID,
		SessionID:  s.ID,
		Action:     action,
		SkillID:    skillID,
		Detail:     detail,
		Score:      score,
		OccurredAt: now,
	}
	if err := e.events.AppendSessionEvent(ctx, rec); err != nil {
		e.logger.Warn("recording session event failed",
			zap.String(logger.FieldSession, s.ID),
			zap.String("action", action),
			zap.Error(err),
		)
	}
}
