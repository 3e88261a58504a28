// Package history persists execution runs to SQLite so past runs can be
// listed and inspected after the process restarts.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/harun/flowmind/pkg/executor"
	"github.com/harun/flowmind/pkg/validator"
)

// ErrNotFound is returned when a run ID has no stored record.
var ErrNotFound = errors.New("run not found")

// Run is one stored execution: the plan document that was submitted, the
// validation verdict, and the execution result when validation passed.
type Run struct {
	ID         string            `json:"id"`
	Target     string            `json:"target"`
	Success    bool              `json:"success"`
	CreatedAt  time.Time         `json:"created_at"`
	Document   map[string]any    `json:"document,omitempty"`
	Validation *validator.Result `json:"validation,omitempty"`
	Execution  *executor.Result  `json:"execution,omitempty"`
}

// RunSummary is the listing view of a run, without the stored payloads.
type RunSummary struct {
	ID        string    `json:"id"`
	Target    string    `json:"target"`
	Success   bool      `json:"success"`
	CreatedAt time.Time `json:"created_at"`
}

// Store records runs in a SQLite database.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Open opens (creating if needed) the run history database at path.
func Open(path string, logger zerolog.Logger) (*Store, error) {
	if path == "" {
		return nil, errors.New("history database path is required")
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// WAL keeps readers from blocking the writer
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger.With().Str("component", "history").Logger(),
	}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	s.logger.Info().Str("path", path).Msg("Run history store opened")
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			target TEXT NOT NULL,
			success INTEGER NOT NULL,
			created_at INTEGER NOT NULL,
			document TEXT NOT NULL,
			validation TEXT NOT NULL,
			execution TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record stores a finished run and returns its generated ID. execution may be
// nil when validation failed and nothing was executed.
func (s *Store) Record(ctx context.Context, doc map[string]any, verdict *validator.Result, execution *executor.Result) (*Run, error) {
	if doc == nil {
		return nil, errors.New("plan document must not be nil")
	}
	if verdict == nil {
		return nil, errors.New("validation result must not be nil")
	}

	run := &Run{
		ID:         uuid.New().String(),
		Target:     targetOf(doc),
		Success:    execution != nil && execution.Success,
		CreatedAt:  time.Now().UTC(),
		Document:   doc,
		Validation: verdict,
		Execution:  execution,
	}

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal plan document: %w", err)
	}
	verdictJSON, err := json.Marshal(verdict)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal validation result: %w", err)
	}
	var execJSON any
	if execution != nil {
		b, err := json.Marshal(execution)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal execution result: %w", err)
		}
		execJSON = string(b)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO runs (id, target, success, created_at, document, validation, execution) VALUES (?, ?, ?, ?, ?, ?, ?)",
		run.ID, run.Target, boolToInt(run.Success), run.CreatedAt.Unix(),
		string(docJSON), string(verdictJSON), execJSON,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}

	s.logger.Debug().Str("run_id", run.ID).Bool("success", run.Success).Msg("Run recorded")
	return run, nil
}

// Get loads a full run by ID.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	var (
		run         Run
		success     int
		createdAt   int64
		docJSON     string
		verdictJSON string
		execJSON    sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, target, success, created_at, document, validation, execution FROM runs WHERE id = ?",
		id,
	).Scan(&run.ID, &run.Target, &success, &createdAt, &docJSON, &verdictJSON, &execJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run: %w", err)
	}

	run.Success = success != 0
	run.CreatedAt = time.Unix(createdAt, 0).UTC()
	if err := json.Unmarshal([]byte(docJSON), &run.Document); err != nil {
		return nil, fmt.Errorf("failed to decode stored plan document: %w", err)
	}
	if err := json.Unmarshal([]byte(verdictJSON), &run.Validation); err != nil {
		return nil, fmt.Errorf("failed to decode stored validation result: %w", err)
	}
	if execJSON.Valid {
		if err := json.Unmarshal([]byte(execJSON.String), &run.Execution); err != nil {
			return nil, fmt.Errorf("failed to decode stored execution result: %w", err)
		}
	}
	return &run, nil
}

// List returns the most recent runs, newest first. limit <= 0 means a default
// of 50.
func (s *Store) List(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, target, success, created_at FROM runs ORDER BY created_at DESC, id LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	summaries := make([]RunSummary, 0, limit)
	for rows.Next() {
		var (
			summary   RunSummary
			success   int
			createdAt int64
		)
		if err := rows.Scan(&summary.ID, &summary.Target, &success, &createdAt); err != nil {
			return nil, err
		}
		summary.Success = success != 0
		summary.CreatedAt = time.Unix(createdAt, 0).UTC()
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func targetOf(doc map[string]any) string {
	if t, ok := doc["target"].(string); ok {
		return t
	}
	return ""
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
