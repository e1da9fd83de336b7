// Package history persists completed calculations in a local sqlite
// database so they can be listed from the command line.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"calcnerd/internal/calc"
	"calcnerd/internal/logging"
	"calcnerd/internal/types"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Entry is one stored calculation.
type Entry struct {
	ID        string
	Timestamp time.Time
	Operation types.OperationKind
	Request   *types.CalculationRequest
	Success   bool
	Display   string // result as text, empty on failure
	Outcome   string // calc.Kind of the error, "success" otherwise
	Error     string // banner text, empty on success
	Duration  time.Duration
}

// NewEntry summarises one attempt.
func NewEntry(req *types.CalculationRequest, resp *types.CalculationResponse, err error, d time.Duration) *Entry {
	e := &Entry{
		Request:  req,
		Success:  err == nil,
		Outcome:  calc.Kind(err),
		Error:    calc.UserMessage(err),
		Duration: d,
	}
	if req != nil {
		e.Operation = req.Operation
	}
	if err == nil && resp != nil {
		res := resp.ResultText
		if res.IsZero() {
			res = resp.Result
		}
		e.Display = res.String()
		if res.IsMulti() {
			e.Display = "Solutions: " + e.Display
		}
	}
	return e
}

// Filter narrows List.
type Filter struct {
	Operation types.OperationKind // empty for all
	Limit     int                 // <= 0 for no limit
}

// Store manages the history database.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// NewStore creates or opens the history database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logging.StoreDebug("history store opened at %s", dbPath)
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS calculations (
		id TEXT PRIMARY KEY,
		timestamp DATETIME NOT NULL,
		operation TEXT NOT NULL,
		request_json TEXT NOT NULL,
		success INTEGER NOT NULL,
		display TEXT,
		outcome TEXT NOT NULL,
		error TEXT,
		duration_ms INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_calculations_timestamp ON calculations(timestamp);
	CREATE INDEX IF NOT EXISTS idx_calculations_operation ON calculations(operation);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record stores e, assigning an id and timestamp when missing.
func (s *Store) Record(ctx context.Context, e *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	e.Timestamp = e.Timestamp.UTC()

	reqJSON, err := json.Marshal(e.Request)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO calculations (id, timestamp, operation, request_json, success,
			display, outcome, error, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Timestamp, string(e.Operation), string(reqJSON), e.Success,
		e.Display, e.Outcome, e.Error, e.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to record calculation: %w", err)
	}
	logging.StoreDebug("recorded %s %s (%s)", e.ID, e.Operation, e.Outcome)
	return nil
}

// List returns entries newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, timestamp, operation, request_json, success, display, outcome, error, duration_ms
		FROM calculations`
	var args []any
	if f.Operation != "" {
		query += ` WHERE operation = ?`
		args = append(args, string(f.Operation))
	}
	query += ` ORDER BY timestamp DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list calculations: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var op, reqJSON string
		var display, errText sql.NullString
		var durationMs int64
		if err := rows.Scan(&e.ID, &e.Timestamp, &op, &reqJSON, &e.Success,
			&display, &e.Outcome, &errText, &durationMs); err != nil {
			return nil, fmt.Errorf("failed to scan calculation: %w", err)
		}
		e.Operation = types.OperationKind(op)
		e.Display = display.String
		e.Error = errText.String
		e.Duration = time.Duration(durationMs) * time.Millisecond
		if reqJSON != "" && reqJSON != "null" {
			var req types.CalculationRequest
			if err := json.Unmarshal([]byte(reqJSON), &req); err != nil {
				logging.StoreError("corrupt request in %s: %v", e.ID, err)
			} else {
				e.Request = &req
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM calculations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count calculations: %w", err)
	}
	return n, nil
}

// Clear deletes every entry and returns how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM calculations`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear history: %w", err)
	}
	n, _ := res.RowsAffected()
	logging.Store("cleared %d history entries", n)
	return n, nil
}

// Prune keeps the newest keep entries and deletes the rest.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM calculations WHERE id NOT IN (
			SELECT id FROM calculations ORDER BY timestamp DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
