package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// postgresStore backs multi-learner deployments. Same schema shape as the
// SQLite backend, including integer-nanosecond timestamps, so records read
// back identically from either.
type postgresStore struct {
	pool *pgxpool.Pool

	// Serializes sequence increments in-process; the RETURNING clause keeps
	// them atomic across processes.
	seqMu sync.Mutex
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS global_sequence (
		id INT PRIMARY KEY CHECK (id = 1),
		next_val BIGINT NOT NULL DEFAULT 1
	)`,
	`INSERT INTO global_sequence (id, next_val) VALUES (1, 1) ON CONFLICT (id) DO NOTHING`,
	`CREATE TABLE IF NOT EXISTS observation_events (
		id BIGSERIAL PRIMARY KEY,
		sequence BIGINT NOT NULL,
		learner_id TEXT NOT NULL,
		skill_id TEXT NOT NULL,
		strength DOUBLE PRECISION NOT NULL,
		confidence DOUBLE PRECISION NOT NULL,
		source TEXT NOT NULL,
		mastery_after DOUBLE PRECISION NOT NULL,
		confidence_after DOUBLE PRECISION NOT NULL,
		observed_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS observation_events_learner
		ON observation_events (learner_id, sequence)`,
	`CREATE INDEX IF NOT EXISTS observation_events_skill
		ON observation_events (learner_id, skill_id, sequence)`,
	`CREATE TABLE IF NOT EXISTS session_events (
		id BIGSERIAL PRIMARY KEY,
		sequence BIGINT NOT NULL,
		learner_id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		action TEXT NOT NULL,
		skill_id TEXT NOT NULL DEFAULT '',
		detail TEXT NOT NULL DEFAULT '',
		score DOUBLE PRECISION NOT NULL DEFAULT 0,
		occurred_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS session_events_session
		ON session_events (learner_id, session_id, sequence)`,
	`CREATE TABLE IF NOT EXISTS progress_events (
		id BIGSERIAL PRIMARY KEY,
		sequence BIGINT NOT NULL,
		learner_id TEXT NOT NULL,
		ref_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		fraction DOUBLE PRECISION NOT NULL,
		occurred_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS progress_events_learner
		ON progress_events (learner_id, sequence)`,
	`CREATE TABLE IF NOT EXISTS llm_events (
		id BIGSERIAL PRIMARY KEY,
		sequence BIGINT NOT NULL,
		provider TEXT NOT NULL,
		model TEXT NOT NULL,
		purpose TEXT NOT NULL,
		input_tokens INT NOT NULL,
		output_tokens INT NOT NULL,
		latency_ms BIGINT NOT NULL,
		success BOOLEAN NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		occurred_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS snapshots (
		id BIGSERIAL PRIMARY KEY,
		learner_id TEXT NOT NULL,
		sequence BIGINT NOT NULL,
		taken_at BIGINT NOT NULL,
		data JSONB NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS snapshots_learner
		ON snapshots (learner_id, taken_at)`,
}

// OpenPostgres connects to the Postgres database at dsn and runs migration.
func OpenPostgres(ctx context.Context, dsn string) (Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	for _, stmt := range postgresSchema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("exec schema: %w", err)
		}
	}

	return &postgresStore{pool: pool}, nil
}

func (s *postgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *postgresStore) nextSeq(ctx context.Context) (int64, error) {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()

	var seq int64
	err := s.pool.QueryRow(ctx,
		`UPDATE global_sequence SET next_val = next_val + 1 WHERE id = 1 RETURNING next_val - 1`,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return seq, nil
}

func (s *postgresStore) AppendObservation(ctx context.Context, rec ObservationRecord) error {
	seqNum, err := s.nextSeq(ctx)
	if err != nil {
		return err
	}
	if rec.ObservedAt.IsZero() {
		rec.ObservedAt = time.Now().UTC()
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO observation_events
			(sequence, learner_id, skill_id, strength, confidence, source, mastery_after, confidence_after, observed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		seqNum, rec.LearnerID, rec.SkillID, rec.Strength, rec.Confidence,
		rec.Source, rec.MasteryAfter, rec.ConfidenceAfter, rec.ObservedAt.UTC().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("save observation event: %w", err)
	}
	return nil
}

func (s *postgresStore) Observations(ctx context.Context, learnerID string, opts QueryOpts) ([]ObservationRecord, error) {
	q := `SELECT sequence, learner_id, skill_id, strength, confidence, source, mastery_after, confidence_after, observed_at
		FROM observation_events WHERE learner_id = $1`
	args := []any{learnerID}
	if opts.After > 0 {
		args = append(args, opts.After)
		q += fmt.Sprintf(` AND sequence > $%d`, len(args))
	}
	if opts.Before > 0 {
		args = append(args, opts.Before)
		q += fmt.Sprintf(` AND sequence < $%d`, len(args))
	}
	if !opts.From.IsZero() {
		args = append(args, opts.From.UTC().UnixNano())
		q += fmt.Sprintf(` AND observed_at >= $%d`, len(args))
	}
	if !opts.To.IsZero() {
		args = append(args, opts.To.UTC().UnixNano())
		q += fmt.Sprintf(` AND observed_at <= $%d`, len(args))
	}
	q += ` ORDER BY sequence`
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		q += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query observation events: %w", err)
	}
	defer rows.Close()
	return scanObservations(rows)
}

func (s *postgresStore) SkillHistory(ctx context.Context, learnerID, skillID string, limit int) ([]ObservationRecord, error) {
	q := `SELECT sequence, learner_id, skill_id, strength, confidence, source, mastery_after, confidence_after, observed_at
		FROM observation_events WHERE learner_id = $1 AND skill_id = $2 ORDER BY sequence DESC`
	args := []any{learnerID, skillID}
	if limit > 0 {
		args = append(args, limit)
		q += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query skill history: %w", err)
	}
	defer rows.Close()
	return scanObservations(rows)
}

func (s *postgresStore) AppendSessionEvent(ctx context.Context, rec SessionEventRecord) error {
	seqNum, err := s.nextSeq(ctx)
	if err != nil {
		return err
	}
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = time.Now().UTC()
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO session_events
			(sequence, learner_id, session_id, action, skill_id, detail, score, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		seqNum, rec.LearnerID, rec.SessionID, rec.Action, rec.SkillID,
		rec.Detail, rec.Score, rec.OccurredAt.UTC().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("save session event: %w", err)
	}
	return nil
}

func (s *postgresStore) SessionEvents(ctx context.Context, learnerID, sessionID string) ([]SessionEventRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT sequence, learner_id, session_id, action, skill_id, detail, score, occurred_at
		FROM session_events WHERE learner_id = $1 AND session_id = $2 ORDER BY sequence`,
		learnerID, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query session events: %w", err)
	}
	defer rows.Close()

	var recs []SessionEventRecord
	for rows.Next() {
		var rec SessionEventRecord
		var occurredNs int64
		err := rows.Scan(&rec.Sequence, &rec.LearnerID, &rec.SessionID, &rec.Action,
			&rec.SkillID, &rec.Detail, &rec.Score, &occurredNs)
		if err != nil {
			return nil, fmt.Errorf("scan session event: %w", err)
		}
		rec.OccurredAt = time.Unix(0, occurredNs).UTC()
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (s *postgresStore) AppendProgressEvent(ctx context.Context, rec ProgressEventRecord) error {
	seqNum, err := s.nextSeq(ctx)
	if err != nil {
		return err
	}
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = time.Now().UTC()
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO progress_events (sequence, learner_id, ref_id, kind, fraction, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		seqNum, rec.LearnerID, rec.RefID, rec.Kind, rec.Fraction, rec.OccurredAt.UTC().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("save progress event: %w", err)
	}
	return nil
}

func (s *postgresStore) ProgressEvents(ctx context.Context, learnerID string, opts QueryOpts) ([]ProgressEventRecord, error) {
	q := `SELECT sequence, learner_id, ref_id, kind, fraction, occurred_at
		FROM progress_events WHERE learner_id = $1`
	args := []any{learnerID}
	if opts.After > 0 {
		args = append(args, opts.After)
		q += fmt.Sprintf(` AND sequence > $%d`, len(args))
	}
	if !opts.From.IsZero() {
		args = append(args, opts.From.UTC().UnixNano())
		q += fmt.Sprintf(` AND occurred_at >= $%d`, len(args))
	}
	q += ` ORDER BY sequence`
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		q += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query progress events: %w", err)
	}
	defer rows.Close()
	return scanProgressEvents(rows)
}

func (s *postgresStore) AppendLLMCall(ctx context.Context, rec LLMCallRecord) error {
	seqNum, err := s.nextSeq(ctx)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO llm_events
			(sequence, provider, model, purpose, input_tokens, output_tokens, latency_ms, success, error_message, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		seqNum, rec.Provider, rec.Model, rec.Purpose, rec.InputTokens,
		rec.OutputTokens, rec.LatencyMs, rec.Success, rec.ErrorMessage, time.Now().UTC().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("save llm event: %w", err)
	}
	return nil
}

func (s *postgresStore) LLMUsage(ctx context.Context) (LLMUsage, error) {
	var usage LLMUsage
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN success THEN 0 ELSE 1 END), 0),
			COALESCE(SUM(input_tokens), 0),
			COALESCE(SUM(output_tokens), 0)
		FROM llm_events`,
	).Scan(&usage.Calls, &usage.Failures, &usage.InputTokens, &usage.OutputTokens)
	if err != nil {
		return LLMUsage{}, fmt.Errorf("query llm usage: %w", err)
	}
	return usage, nil
}

func (s *postgresStore) SaveSnapshot(ctx context.Context, snap *Snapshot) error {
	// A zero sequence is stamped from the shared counter, so the snapshot is
	// ordered against the event log: events with a higher sequence landed
	// after the snapshot was taken.
	if snap.Sequence == 0 {
		seqNum, err := s.nextSeq(ctx)
		if err != nil {
			return err
		}
		snap.Sequence = seqNum
	}

	data, err := json.Marshal(snap.Data)
	if err != nil {
		return fmt.Errorf("marshal snapshot data: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO snapshots (learner_id, sequence, taken_at, data) VALUES ($1, $2, $3, $4)`,
		snap.LearnerID, snap.Sequence, snap.TakenAt.UTC().UnixNano(), data,
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *postgresStore) LatestSnapshot(ctx context.Context, learnerID string) (*Snapshot, error) {
	var (
		snap    Snapshot
		takenNs int64
		data    []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, learner_id, sequence, taken_at, data FROM snapshots
		WHERE learner_id = $1 ORDER BY taken_at DESC, id DESC LIMIT 1`,
		learnerID,
	).Scan(&snap.ID, &snap.LearnerID, &snap.Sequence, &takenNs, &data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest snapshot: %w", err)
	}

	snap.TakenAt = time.Unix(0, takenNs).UTC()
	if err := json.Unmarshal(data, &snap.Data); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot data: %w", err)
	}
	return &snap, nil
}

func (s *postgresStore) PruneSnapshots(ctx context.Context, learnerID string, keep int) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM snapshots WHERE learner_id = $1 AND id NOT IN (
			SELECT id FROM snapshots WHERE learner_id = $2
			ORDER BY taken_at DESC, id DESC LIMIT $3
		)`,
		learnerID, learnerID, keep,
	)
	if err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return nil
}

func (s *postgresStore) DeleteLearner(ctx context.Context, learnerID string) error {
	for _, table := range []string{"observation_events", "session_events", "progress_events", "snapshots"} {
		if _, err := s.pool.Exec(ctx,
			`DELETE FROM `+table+` WHERE learner_id = $1`, learnerID,
		); err != nil {
			return fmt.Errorf("delete learner from %s: %w", table, err)
		}
	}
	return nil
}
