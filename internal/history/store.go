// Package history persists completed task runs to SQLite.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	jsoniter "github.com/json-iterator/go"
	_ "modernc.org/sqlite"

	"github.com/taskpilot-ai/taskpilot/internal/agent"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	input_text      TEXT NOT NULL,
	output_text     TEXT NOT NULL,
	tools_used      TEXT NOT NULL DEFAULT '[]',
	execution_steps TEXT NOT NULL DEFAULT '[]',
	created_at      TEXT NOT NULL,
	thread_id       TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_tasks_created_at ON tasks(created_at);
CREATE INDEX IF NOT EXISTS idx_tasks_thread_id ON tasks(thread_id);
`

// TaskRecord is one persisted task run.
type TaskRecord struct {
	ID             int64                 `json:"id"`
	InputText      string                `json:"input_text"`
	OutputText     string                `json:"output_text"`
	ToolsUsed      []string              `json:"tools_used"`
	ExecutionSteps []agent.ExecutionStep `json:"execution_steps"`
	CreatedAt      string                `json:"created_at"`
	ThreadID       string                `json:"thread_id"`
}

// Store is a SQLite-backed task history. Safe for concurrent use.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// New opens (creating if needed) the history database at path.
func New(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Serialized access keeps the pure-Go driver happy under
	// concurrent handlers.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db, logger: logger.With("component", "history")}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts a record, filling in ID and CreatedAt (when empty).
func (s *Store) Save(ctx context.Context, rec *TaskRecord) error {
	if rec.CreatedAt == "" {
		rec.CreatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	}

	toolsJSON, err := json.Marshal(orEmpty(rec.ToolsUsed))
	if err != nil {
		return fmt.Errorf("marshal tools_used: %w", err)
	}
	steps := rec.ExecutionSteps
	if steps == nil {
		steps = []agent.ExecutionStep{}
	}
	stepsJSON, err := json.Marshal(steps)
	if err != nil {
		return fmt.Errorf("marshal execution_steps: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (input_text, output_text, tools_used, execution_steps, created_at, thread_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.InputText, rec.OutputText, string(toolsJSON), string(stepsJSON), rec.CreatedAt, rec.ThreadID,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}

	rec.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}

	s.logger.Debug("task saved", "id", rec.ID, "thread_id", rec.ThreadID, "tools", len(rec.ToolsUsed))
	return nil
}

// Get returns the record with the given id, or nil if it does not exist.
func (s *Store) Get(ctx context.Context, id int64) (*TaskRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, input_text, output_text, tools_used, execution_steps, created_at, thread_id
		 FROM tasks WHERE id = ?`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

// List returns records newest first. limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, limit, offset int) ([]*TaskRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, input_text, output_text, tools_used, execution_steps, created_at, thread_id
		 FROM tasks ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// ListByThread returns all records for one thread, newest first.
func (s *Store) ListByThread(ctx context.Context, threadID string) ([]*TaskRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, input_text, output_text, tools_used, execution_steps, created_at, thread_id
		 FROM tasks WHERE thread_id = ? ORDER BY created_at DESC, id DESC`, threadID)
	if err != nil {
		return nil, fmt.Errorf("query thread tasks: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// Delete removes a record, reporting whether it existed.
func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Clear removes all records and returns how many were deleted.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks`)
	if err != nil {
		return 0, fmt.Errorf("clear tasks: %w", err)
	}
	return res.RowsAffected()
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks`).Scan(&n)
	return n, err
}

// ExportJSON renders the full history (newest first) as an indented
// JSON array.
func (s *Store) ExportJSON(ctx context.Context) ([]byte, error) {
	records, err := s.List(ctx, 0, 0)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []*TaskRecord{}
	}
	return json.MarshalIndent(records, "", "  ")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*TaskRecord, error) {
	var rec TaskRecord
	var toolsJSON, stepsJSON string

	if err := row.Scan(&rec.ID, &rec.InputText, &rec.OutputText, &toolsJSON, &stepsJSON, &rec.CreatedAt, &rec.ThreadID); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(toolsJSON), &rec.ToolsUsed); err != nil {
		return nil, fmt.Errorf("decode tools_used for task %d: %w", rec.ID, err)
	}
	if err := json.Unmarshal([]byte(stepsJSON), &rec.ExecutionSteps); err != nil {
		return nil, fmt.Errorf("decode execution_steps for task %d: %w", rec.ID, err)
	}
	if rec.ToolsUsed == nil {
		rec.ToolsUsed = []string{}
	}
	if rec.ExecutionSteps == nil {
		rec.ExecutionSteps = []agent.ExecutionStep{}
	}
	return &rec, nil
}

func collectRecords(rows *sql.Rows) ([]*TaskRecord, error) {
	var out []*TaskRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
