package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// sqliteStore is the default single-user backend.
type sqliteStore struct {
	db  *sql.DB
	seq *sequenceCounter
}

// OpenSQLite opens the SQLite database at dsn, applies recommended pragmas
// and runs migration.
func OpenSQLite(ctx context.Context, dsn string) (Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if err := migrateSQLite(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	seq, err := newSequenceCounter(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db, seq: seq}, nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// applyPragmas configures SQLite for single-user performance.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// Timestamps are stored as integer unix nanoseconds so range filters and
// ordering never depend on driver-specific time formatting.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS observation_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence INTEGER NOT NULL,
		learner_id TEXT NOT NULL,
		skill_id TEXT NOT NULL,
		strength REAL NOT NULL,
		confidence REAL NOT NULL,
		source TEXT NOT NULL,
		mastery_after REAL NOT NULL,
		confidence_after REAL NOT NULL,
		observed_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS observation_events_learner
		ON observation_events (learner_id, sequence)`,
	`CREATE INDEX IF NOT EXISTS observation_events_skill
		ON observation_events (learner_id, skill_id, sequence)`,
	`CREATE TABLE IF NOT EXISTS session_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence INTEGER NOT NULL,
		learner_id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		action TEXT NOT NULL,
		skill_id TEXT NOT NULL DEFAULT '',
		detail TEXT NOT NULL DEFAULT '',
		score REAL NOT NULL DEFAULT 0,
		occurred_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS session_events_session
		ON session_events (learner_id, session_id, sequence)`,
	`CREATE TABLE IF NOT EXISTS progress_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence INTEGER NOT NULL,
		learner_id TEXT NOT NULL,
		ref_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		fraction REAL NOT NULL,
		occurred_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS progress_events_learner
		ON progress_events (learner_id, sequence)`,
	`CREATE TABLE IF NOT EXISTS llm_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence INTEGER NOT NULL,
		provider TEXT NOT NULL,
		model TEXT NOT NULL,
		purpose TEXT NOT NULL,
		input_tokens INTEGER NOT NULL,
		output_tokens INTEGER NOT NULL,
		latency_ms INTEGER NOT NULL,
		success INTEGER NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		occurred_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		learner_id TEXT NOT NULL,
		sequence INTEGER NOT NULL,
		taken_at INTEGER NOT NULL,
		data TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS snapshots_learner
		ON snapshots (learner_id, taken_at)`,
}

func migrateSQLite(ctx context.Context, db *sql.DB) error {
	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec schema: %w", err)
		}
	}
	return nil
}

// sequenceCounter manages the global monotonic sequence number shared across
// all event types. Per-table auto-increment IDs can't establish cross-type
// ordering (did the interview answer come before or after the observation?),
// so every event draws from this single counter. The mutex serializes within
// the process; the RETURNING clause makes the increment atomic at the
// database level.
type sequenceCounter struct {
	mu sync.Mutex
	db *sql.DB
}

// newSequenceCounter creates a counter and ensures the tracking table exists.
func newSequenceCounter(db *sql.DB) (*sequenceCounter, error) {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS global_sequence (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		next_val INTEGER NOT NULL DEFAULT 1
	)`)
	if err != nil {
		return nil, fmt.Errorf("create sequence table: %w", err)
	}

	_, err = db.Exec(`INSERT OR IGNORE INTO global_sequence (id, next_val) VALUES (1, 1)`)
	if err != nil {
		return nil, fmt.Errorf("seed sequence: %w", err)
	}

	return &sequenceCounter{db: db}, nil
}

// Next atomically returns the next sequence number and increments the counter.
func (sc *sequenceCounter) Next(ctx context.Context) (int64, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	var seq int64
	err := sc.db.QueryRowContext(ctx,
		`UPDATE global_sequence SET next_val = next_val + 1 WHERE id = 1 RETURNING next_val - 1`,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return seq, nil
}

func (s *sqliteStore) AppendObservation(ctx context.Context, rec ObservationRecord) error {
	seqNum, err := s.seq.Next(ctx)
	if err != nil {
		return err
	}
	if rec.ObservedAt.IsZero() {
		rec.ObservedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO observation_events
			(sequence, learner_id, skill_id, strength, confidence, source, mastery_after, confidence_after, observed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		seqNum, rec.LearnerID, rec.SkillID, rec.Strength, rec.Confidence,
		rec.Source, rec.MasteryAfter, rec.ConfidenceAfter, rec.ObservedAt.UTC().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("save observation event: %w", err)
	}
	return nil
}

func (s *sqliteStore) Observations(ctx context.Context, learnerID string, opts QueryOpts) ([]ObservationRecord, error) {
	q := `SELECT sequence, learner_id, skill_id, strength, confidence, source, mastery_after, confidence_after, observed_at
		FROM observation_events WHERE learner_id = ?`
	args := []any{learnerID}
	if opts.After > 0 {
		q += ` AND sequence > ?`
		args = append(args, opts.After)
	}
	if opts.Before > 0 {
		q += ` AND sequence < ?`
		args = append(args, opts.Before)
	}
	if !opts.From.IsZero() {
		q += ` AND observed_at >= ?`
		args = append(args, opts.From.UTC().UnixNano())
	}
	if !opts.To.IsZero() {
		q += ` AND observed_at <= ?`
		args = append(args, opts.To.UTC().UnixNano())
	}
	q += ` ORDER BY sequence`
	if opts.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query observation events: %w", err)
	}
	defer rows.Close()
	return scanObservations(rows)
}

func (s *sqliteStore) SkillHistory(ctx context.Context, learnerID, skillID string, limit int) ([]ObservationRecord, error) {
	q := `SELECT sequence, learner_id, skill_id, strength, confidence, source, mastery_after, confidence_after, observed_at
		FROM observation_events WHERE learner_id = ? AND skill_id = ? ORDER BY sequence DESC`
	args := []any{learnerID, skillID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query skill history: %w", err)
	}
	defer rows.Close()
	return scanObservations(rows)
}

// eventRows is the row-iterator surface shared by database/sql and pgx.
type eventRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanObservations(rows eventRows) ([]ObservationRecord, error) {
	var recs []ObservationRecord
	for rows.Next() {
		var rec ObservationRecord
		var observedNs int64
		err := rows.Scan(&rec.Sequence, &rec.LearnerID, &rec.SkillID, &rec.Strength,
			&rec.Confidence, &rec.Source, &rec.MasteryAfter, &rec.ConfidenceAfter, &observedNs)
		if err != nil {
			return nil, fmt.Errorf("scan observation event: %w", err)
		}
		rec.ObservedAt = time.Unix(0, observedNs).UTC()
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (s *sqliteStore) AppendSessionEvent(ctx context.Context, rec SessionEventRecord) error {
	seqNum, err := s.seq.Next(ctx)
	if err != nil {
		return err
	}
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO session_events
			(sequence, learner_id, session_id, action, skill_id, detail, score, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		seqNum, rec.LearnerID, rec.SessionID, rec.Action, rec.SkillID,
		rec.Detail, rec.Score, rec.OccurredAt.UTC().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("save session event: %w", err)
	}
	return nil
}

func (s *sqliteStore) SessionEvents(ctx context.Context, learnerID, sessionID string) ([]SessionEventRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT sequence, learner_id, session_id, action, skill_id, detail, score, occurred_at
		FROM session_events WHERE learner_id = ? AND session_id = ? ORDER BY sequence`,
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

func (s *sqliteStore) AppendProgressEvent(ctx context.Context, rec ProgressEventRecord) error {
	seqNum, err := s.seq.Next(ctx)
	if err != nil {
		return err
	}
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO progress_events (sequence, learner_id, ref_id, kind, fraction, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		seqNum, rec.LearnerID, rec.RefID, rec.Kind, rec.Fraction, rec.OccurredAt.UTC().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("save progress event: %w", err)
	}
	return nil
}

func (s *sqliteStore) ProgressEvents(ctx context.Context, learnerID string, opts QueryOpts) ([]ProgressEventRecord, error) {
	q := `SELECT sequence, learner_id, ref_id, kind, fraction, occurred_at
		FROM progress_events WHERE learner_id = ?`
	args := []any{learnerID}
	if opts.After > 0 {
		q += ` AND sequence > ?`
		args = append(args, opts.After)
	}
	if !opts.From.IsZero() {
		q += ` AND occurred_at >= ?`
		args = append(args, opts.From.UTC().UnixNano())
	}
	q += ` ORDER BY sequence`
	if opts.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query progress events: %w", err)
	}
	defer rows.Close()
	return scanProgressEvents(rows)
}

func scanProgressEvents(rows eventRows) ([]ProgressEventRecord, error) {
	var recs []ProgressEventRecord
	for rows.Next() {
		var rec ProgressEventRecord
		var occurredNs int64
		if err := rows.Scan(&rec.Sequence, &rec.LearnerID, &rec.RefID, &rec.Kind, &rec.Fraction, &occurredNs); err != nil {
			return nil, fmt.Errorf("scan progress event: %w", err)
		}
		rec.OccurredAt = time.Unix(0, occurredNs).UTC()
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (s *sqliteStore) AppendLLMCall(ctx context.Context, rec LLMCallRecord) error {
	seqNum, err := s.seq.Next(ctx)
	if err != nil {
		return err
	}

	success := 0
	if rec.Success {
		success = 1
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO llm_events
			(sequence, provider, model, purpose, input_tokens, output_tokens, latency_ms, success, error_message, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		seqNum, rec.Provider, rec.Model, rec.Purpose, rec.InputTokens,
		rec.OutputTokens, rec.LatencyMs, success, rec.ErrorMessage, time.Now().UTC().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("save llm event: %w", err)
	}
	return nil
}

func (s *sqliteStore) LLMUsage(ctx context.Context) (LLMUsage, error) {
	var usage LLMUsage
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(input_tokens), 0),
			COALESCE(SUM(output_tokens), 0)
		FROM llm_events`,
	).Scan(&usage.Calls, &usage.Failures, &usage.InputTokens, &usage.OutputTokens)
	if err != nil {
		return LLMUsage{}, fmt.Errorf("query llm usage: %w", err)
	}
	return usage, nil
}

func (s *sqliteStore) SaveSnapshot(ctx context.Context, snap *Snapshot) error {
	// A zero sequence is stamped from the shared counter, so the snapshot is
	// ordered against the event log: events with a higher sequence landed
	// after the snapshot was taken.
	if snap.Sequence == 0 {
		seqNum, err := s.seq.Next(ctx)
		if err != nil {
			return err
		}
		snap.Sequence = seqNum
	}

	data, err := json.Marshal(snap.Data)
	if err != nil {
		return fmt.Errorf("marshal snapshot data: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (learner_id, sequence, taken_at, data) VALUES (?, ?, ?, ?)`,
		snap.LearnerID, snap.Sequence, snap.TakenAt.UTC().UnixNano(), string(data),
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *sqliteStore) LatestSnapshot(ctx context.Context, learnerID string) (*Snapshot, error) {
	var (
		snap    Snapshot
		takenNs int64
		data    string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, learner_id, sequence, taken_at, data FROM snapshots
		WHERE learner_id = ? ORDER BY taken_at DESC, id DESC LIMIT 1`,
		learnerID,
	).Scan(&snap.ID, &snap.LearnerID, &snap.Sequence, &takenNs, &data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest snapshot: %w", err)
	}

	snap.TakenAt = time.Unix(0, takenNs).UTC()
	if err := json.Unmarshal([]byte(data), &snap.Data); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot data: %w", err)
	}
	return &snap, nil
}

func (s *sqliteStore) PruneSnapshots(ctx context.Context, learnerID string, keep int) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE learner_id = ? AND id NOT IN (
			SELECT id FROM snapshots WHERE learner_id = ?
			ORDER BY taken_at DESC, id DESC LIMIT ?
		)`,
		learnerID, learnerID, keep,
	)
	if err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return nil
}

func (s *sqliteStore) DeleteLearner(ctx context.Context, learnerID string) error {
	for _, table := range []string{"observation_events", "session_events", "progress_events", "snapshots"} {
		if _, err := s.db.ExecContext(ctx,
			`DELETE FROM `+table+` WHERE learner_id = ?`, learnerID,
		); err != nil {
			return fmt.Errorf("delete learner from %s: %w", table, err)
		}
	}
	return nil
}
