package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MaksimPopov64/ocr-drw/constants"
	"github.com/MaksimPopov64/ocr-drw/internal/common"
	"github.com/MaksimPopov64/ocr-drw/internal/pipeline"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS results (
	id             TEXT PRIMARY KEY,
	file_name      TEXT NOT NULL,
	expected_claim TEXT NOT NULL DEFAULT '',
	run_status     TEXT NOT NULL,
	error          TEXT NOT NULL DEFAULT '',
	engine         TEXT NOT NULL DEFAULT '',
	confidence     REAL NOT NULL DEFAULT 0,
	text           TEXT NOT NULL DEFAULT '',
	was_cleaned    BOOLEAN NOT NULL DEFAULT FALSE,
	structure      JSONB NOT NULL DEFAULT '{}',
	marks          JSONB NOT NULL DEFAULT '{}',
	decision       JSONB NOT NULL DEFAULT '{}',
	started_at     TIMESTAMPTZ NOT NULL,
	finished_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_results_started ON results (started_at DESC);
`

// PostgresStore keeps history in PostgreSQL for multi-node deployments.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply postgres schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Save(ctx context.Context, rec pipeline.Record) error {
	structure, marks, decision, err := marshalEvidence(rec)
	if err != nil {
		return fmt.Errorf("encode evidence: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO results
			(id, file_name, expected_claim, run_status, error, engine, confidence,
			 text, was_cleaned, structure, marks, decision, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			run_status = EXCLUDED.run_status,
			error = EXCLUDED.error,
			engine = EXCLUDED.engine,
			confidence = EXCLUDED.confidence,
			text = EXCLUDED.text,
			was_cleaned = EXCLUDED.was_cleaned,
			structure = EXCLUDED.structure,
			marks = EXCLUDED.marks,
			decision = EXCLUDED.decision,
			finished_at = EXCLUDED.finished_at`,
		rec.ID, rec.FileName, rec.ExpectedClaim, string(rec.RunStatus), rec.Error,
		string(rec.Engine), rec.Confidence, rec.Text, rec.WasCleaned,
		structure, marks, decision, rec.StartedAt, rec.FinishedAt)
	if err != nil {
		return fmt.Errorf("save result %s: %w", rec.ID, err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (pipeline.Record, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, file_name, expected_claim, run_status, error, engine, confidence,
		       text, was_cleaned, structure, marks, decision, started_at, finished_at
		FROM results WHERE id = $1`, id)
	rec, err := scanPostgresRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return pipeline.Record{}, common.ErrNotFound
	}
	return rec, err
}

func (s *PostgresStore) List(ctx context.Context, limit, offset int) ([]pipeline.Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, file_name, expected_claim, run_status, error, engine, confidence,
		       text, was_cleaned, structure, marks, decision, started_at, finished_at
		FROM results ORDER BY started_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var out []pipeline.Record
	for rows.Next() {
		rec, err := scanPostgresRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanPostgresRow(row pgx.Row) (pipeline.Record, error) {
	var (
		rec                        pipeline.Record
		runStatus, engine          string
		structure, marks, decision []byte
	)
	err := row.Scan(&rec.ID, &rec.FileName, &rec.ExpectedClaim, &runStatus, &rec.Error,
		&engine, &rec.Confidence, &rec.Text, &rec.WasCleaned,
		&structure, &marks, &decision, &rec.StartedAt, &rec.FinishedAt)
	if err != nil {
		return pipeline.Record{}, err
	}
	rec.RunStatus = constants.RunStatus(runStatus)
	rec.Engine = constants.EngineKind(engine)
	if err := unmarshalEvidence(&rec, structure, marks, decision); err != nil {
		return pipeline.Record{}, fmt.Errorf("decode evidence for %s: %w", rec.ID, err)
	}
	return rec, nil
}
