package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/p-n-ai/pai-coursework/internal/platform/database"
	"github.com/p-n-ai/pai-coursework/internal/resolve"
	"github.com/p-n-ai/pai-coursework/internal/task"
)

const dbTimeout = 5 * time.Second

// Schema creates the run tables.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS resolution_runs (
		run_id       UUID PRIMARY KEY,
		unit_id      TEXT NOT NULL,
		state        TEXT NOT NULL,
		kind         TEXT,
		failed_stage TEXT,
		error_kind   TEXT,
		error        TEXT,
		assessment   JSONB,
		answer       JSONB,
		started_at   TIMESTAMPTZ NOT NULL,
		finished_at  TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS unit_events (
		id         BIGSERIAL PRIMARY KEY,
		run_id     UUID NOT NULL,
		unit_id    TEXT NOT NULL,
		from_state TEXT NOT NULL,
		to_state   TEXT NOT NULL,
		error      TEXT,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS unit_events_run_idx ON unit_events (run_id, id)`,
	`CREATE INDEX IF NOT EXISTS resolution_runs_started_idx ON resolution_runs (started_at DESC)`,
}

// PostgresStore is a PostgreSQL-backed RunStore.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates the schema if needed and returns the store.
func NewPostgresStore(ctx context.Context, db *database.DB) (*PostgresStore, error) {
	if db == nil || db.Pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	if err := db.Migrate(ctx, Schema...); err != nil {
		return nil, err
	}
	return &PostgresStore{pool: db.Pool}, nil
}

func (s *PostgresStore) RecordTransition(ctx context.Context, t resolve.Transition) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO resolution_runs (run_id, unit_id, state, started_at)
			 VALUES ($1::uuid, $2, $3, $4)
			 ON CONFLICT (run_id) DO UPDATE SET state = EXCLUDED.state`,
			t.RunID.String(), t.UnitID, string(t.To), t.At,
		); err != nil {
			return fmt.Errorf("upsert run: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO unit_events (run_id, unit_id, from_state, to_state, error, created_at)
			 VALUES ($1::uuid, $2, $3, $4, $5, $6)`,
			t.RunID.String(), t.UnitID, string(t.From), string(t.To), nullIfEmpty(t.Err), t.At,
		); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("record transition: %w", err)
	}

	slog.Debug("transition stored", "run_id", t.RunID.String(), "to", string(t.To))
	return nil
}

func (s *PostgresStore) RecordOutcome(ctx context.Context, o resolve.Outcome) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	assessment, err := jsonOrNil(o.Assessment)
	if err != nil {
		return fmt.Errorf("marshal assessment: %w", err)
	}
	answer, err := jsonOrNil(o.Answer)
	if err != nil {
		return fmt.Errorf("marshal answer: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO resolution_runs
		   (run_id, unit_id, state, kind, failed_stage, error_kind, error, assessment, answer, started_at, finished_at)
		 VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8::jsonb, $9::jsonb, $10, $11)
		 ON CONFLICT (run_id) DO UPDATE SET
		   state = EXCLUDED.state,
		   kind = EXCLUDED.kind,
		   failed_stage = EXCLUDED.failed_stage,
		   error_kind = EXCLUDED.error_kind,
		   error = EXCLUDED.error,
		   assessment = EXCLUDED.assessment,
		   answer = EXCLUDED.answer,
		   started_at = EXCLUDED.started_at,
		   finished_at = EXCLUDED.finished_at`,
		o.RunID.String(),
		o.UnitID,
		string(o.State),
		nullIfEmpty(string(o.Kind)),
		nullIfEmpty(string(o.FailedStage)),
		nullIfEmpty(o.ErrorKind),
		nullIfEmpty(o.Err),
		assessment,
		answer,
		o.StartedAt,
		o.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, runID uuid.UUID) (resolve.Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	out, err := scanRun(s.pool.QueryRow(ctx, selectRun+` WHERE run_id = $1::uuid`, runID.String()))
	if errors.Is(err, pgx.ErrNoRows) {
		return resolve.Outcome{}, ErrNotFound
	}
	if err != nil {
		return resolve.Outcome{}, fmt.Errorf("get run: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT unit_id, from_state, to_state, error, created_at
		 FROM unit_events
		 WHERE run_id = $1::uuid
		 ORDER BY id ASC`,
		runID.String(),
	)
	if err != nil {
		return resolve.Outcome{}, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		t := resolve.Transition{RunID: runID}
		var from, to string
		var errText *string
		if err := rows.Scan(&t.UnitID, &from, &to, &errText, &t.At); err != nil {
			return resolve.Outcome{}, fmt.Errorf("scan event: %w", err)
		}
		t.From, t.To = resolve.State(from), resolve.State(to)
		if errText != nil {
			t.Err = *errText
		}
		out.Transitions = append(out.Transitions, t)
	}
	if err := rows.Err(); err != nil {
		return resolve.Outcome{}, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]resolve.Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, selectRun+` ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []resolve.Outcome
	for rows.Next() {
		o, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

const selectRun = `SELECT run_id::text, unit_id, state, kind, failed_stage, error_kind, error,
	assessment, answer, started_at, finished_at
	FROM resolution_runs`

func scanRun(row pgx.Row) (resolve.Outcome, error) {
	var (
		o                                   resolve.Outcome
		runID, state                        string
		kind, failedStage, errorKind, errTx *string
		assessment, answer                  []byte
		finishedAt                          *time.Time
	)
	if err := row.Scan(&runID, &o.UnitID, &state, &kind, &failedStage, &errorKind, &errTx,
		&assessment, &answer, &o.StartedAt, &finishedAt); err != nil {
		return o, err
	}

	id, err := uuid.Parse(runID)
	if err != nil {
		return o, fmt.Errorf("parse run id: %w", err)
	}
	o.RunID = id
	o.State = resolve.State(state)
	o.Kind = task.AssignmentKind(deref(kind))
	o.FailedStage = resolve.State(deref(failedStage))
	o.ErrorKind = deref(errorKind)
	o.Err = deref(errTx)
	if finishedAt != nil {
		o.FinishedAt = *finishedAt
	}
	if len(assessment) > 0 {
		o.Assessment = &task.Assessment{}
		if err := json.Unmarshal(assessment, o.Assessment); err != nil {
			return o, fmt.Errorf("decode assessment: %w", err)
		}
	}
	if len(answer) > 0 {
		o.Answer = &resolve.Answer{}
		if err := json.Unmarshal(answer, o.Answer); err != nil {
			return o, fmt.Errorf("decode answer: %w", err)
		}
	}
	return o, nil
}

func jsonOrNil(v any) (any, error) {
	switch x := v.(type) {
	case *task.Assessment:
		if x == nil {
			return nil, nil
		}
	case *resolve.Answer:
		if x == nil {
			return nil, nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func nullIfEmpty(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
