package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/MaksimPopov64/ocr-drw/constants"
	"github.com/MaksimPopov64/ocr-drw/internal/common"
	"github.com/MaksimPopov64/ocr-drw/internal/pipeline"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS results (
	id             TEXT PRIMARY KEY,
	file_name      TEXT NOT NULL,
	expected_claim TEXT NOT NULL DEFAULT '',
	run_status     TEXT NOT NULL,
	error          TEXT NOT NULL DEFAULT '',
	engine         TEXT NOT NULL DEFAULT '',
	confidence     REAL NOT NULL DEFAULT 0,
	text           TEXT NOT NULL DEFAULT '',
	was_cleaned    INTEGER NOT NULL DEFAULT 0,
	structure      TEXT NOT NULL DEFAULT '{}',
	marks          TEXT NOT NULL DEFAULT '{}',
	decision       TEXT NOT NULL DEFAULT '{}',
	started_at     TEXT NOT NULL,
	finished_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_results_started ON results (started_at DESC);
`

// SQLiteStore keeps history in a local file, the default for single-node
// deployments.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and if needed creates) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// The modernc driver serializes writes itself but a single connection
	// avoids SQLITE_BUSY under concurrent batch saves.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, rec pipeline.Record) error {
	structure, marks, decision, err := marshalEvidence(rec)
	if err != nil {
		return fmt.Errorf("encode evidence: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO results
			(id, file_name, expected_claim, run_status, error, engine, confidence,
			 text, was_cleaned, structure, marks, decision, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.FileName, rec.ExpectedClaim, string(rec.RunStatus), rec.Error,
		string(rec.Engine), rec.Confidence, rec.Text, boolToInt(rec.WasCleaned),
		string(structure), string(marks), string(decision),
		rec.StartedAt.UTC().Format(time.RFC3339Nano),
		rec.FinishedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save result %s: %w", rec.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (pipeline.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, file_name, expected_claim, run_status, error, engine, confidence,
		       text, was_cleaned, structure, marks, decision, started_at, finished_at
		FROM results WHERE id = ?`, id)
	rec, err := scanSQLiteRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return pipeline.Record{}, common.ErrNotFound
	}
	return rec, err
}

func (s *SQLiteStore) List(ctx context.Context, limit, offset int) ([]pipeline.Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, file_name, expected_claim, run_status, error, engine, confidence,
		       text, was_cleaned, structure, marks, decision, started_at, finished_at
		FROM results ORDER BY started_at DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var out []pipeline.Record
	for rows.Next() {
		rec, err := scanSQLiteRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteRow(row rowScanner) (pipeline.Record, error) {
	var (
		rec                        pipeline.Record
		runStatus, engine          string
		wasCleaned                 int
		structure, marks, decision string
		startedAt, finishedAt      string
	)
	err := row.Scan(&rec.ID, &rec.FileName, &rec.ExpectedClaim, &runStatus, &rec.Error,
		&engine, &rec.Confidence, &rec.Text, &wasCleaned,
		&structure, &marks, &decision, &startedAt, &finishedAt)
	if err != nil {
		return pipeline.Record{}, err
	}
	rec.RunStatus = constants.RunStatus(runStatus)
	rec.Engine = constants.EngineKind(engine)
	rec.WasCleaned = wasCleaned != 0
	if err := unmarshalEvidence(&rec, []byte(structure), []byte(marks), []byte(decision)); err != nil {
		return pipeline.Record{}, fmt.Errorf("decode evidence for %s: %w", rec.ID, err)
	}
	rec.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
	rec.FinishedAt, _ = time.Parse(time.RFC3339Nano, finishedAt)
	return rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
