package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go-segment-report/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

// Store is the SQLite database that receives the verbatim source export and
// the run history.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at dbPath and ensures the run
// history tables exist.
func Open(dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("database path must not be empty")
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	runTable := `
	CREATE TABLE IF NOT EXISTS report_runs (
		id TEXT PRIMARY KEY,
		session_id TEXT,
		kind TEXT,
		format TEXT,
		income_category TEXT,
		status TEXT,
		output TEXT,
		record_count INTEGER,
		created_at DATETIME,
		updated_at DATETIME
	);
	`
	errorTable := `
	CREATE TABLE IF NOT EXISTS run_errors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT,
		error_message TEXT,
		created_at DATETIME
	);
	`
	if _, err := s.db.Exec(runTable); err != nil {
		return fmt.Errorf("failed to create report_runs: %w", err)
	}
	if _, err := s.db.Exec(errorTable); err != nil {
		return fmt.Errorf("failed to create run_errors: %w", err)
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ------------------- Source Tables -------------------

// ReplaceTable writes t verbatim into table name, replacing any previous
// contents. Numeric columns are stored as REAL, every other column as TEXT;
// undefined values and empty cells become NULL. The whole replace runs in one
// transaction, so readers never see a partially written table.
func (s *Store) ReplaceTable(ctx context.Context, name string, t *model.Table) (int, error) {
	if strings.TrimSpace(name) == "" {
		return 0, fmt.Errorf("table name must not be empty")
	}
	cols := t.Columns()
	if len(cols) == 0 {
		return 0, fmt.Errorf("%w: table %s has no columns", model.ErrMalformedSource, t.Name)
	}

	defs := make([]string, len(cols))
	names := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		sqlType := "TEXT"
		if c.Kind == model.KindNumeric {
			sqlType = "REAL"
		}
		names[i] = quoteIdent(c.Name)
		defs[i] = names[i] + " " + sqlType
		marks[i] = "?"
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	table := quoteIdent(name)
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
		return 0, fmt.Errorf("failed to drop %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(defs, ", "))); err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", name, err)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(names, ", "), strings.Join(marks, ", ")))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert into %s: %w", name, err)
	}
	defer stmt.Close()

	args := make([]interface{}, len(cols))
	for r := 0; r < t.Rows(); r++ {
		for i, c := range cols {
			args[i] = cellValue(c, r)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return r, fmt.Errorf("failed to insert row %d into %s: %w", r, name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit %s: %w", name, err)
	}
	return t.Rows(), nil
}

// CountRows returns the number of rows in table name.
func (s *Store) CountRows(ctx context.Context, name string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quoteIdent(name)).Scan(&n)
	return n, err
}

func cellValue(c model.Column, r int) interface{} {
	if c.Kind == model.KindNumeric {
		if model.IsUndefined(c.Values[r]) {
			return nil
		}
		return c.Values[r]
	}
	if c.Cells[r] == "" {
		return nil
	}
	return c.Cells[r]
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// ------------------- Run History -------------------

// SaveRun stores a new run.
func (s *Store) SaveRun(ctx context.Context, run model.Run) error {
	now := time.Now().UTC()
	if run.Status == "" {
		run.Status = "pending"
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO report_runs
		(id, session_id, kind, format, income_category, status, output, record_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.SessionID, run.Kind, run.Format, run.IncomeCategory, run.Status, run.Output, run.RecordCount, now, now)
	return err
}

// UpdateRunStatus records the outcome of a run.
func (s *Store) UpdateRunStatus(ctx context.Context, runID, status, output string, records int) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE report_runs SET status = ?, output = ?, record_count = ?, updated_at = ? WHERE id = ?`,
		status, output, records, now, runID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// SaveRunError records an error for a run.
func (s *Store) SaveRunError(ctx context.Context, runID string, err error) error {
	if err == nil {
		return nil
	}
	now := time.Now().UTC()
	_, e := s.db.ExecContext(ctx, `INSERT INTO run_errors (run_id, error_message, created_at) VALUES (?, ?, ?)`,
		runID, err.Error(), now)
	return e
}

// ListRuns returns all runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]model.Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, session_id, kind, format, income_category, status, output,
		record_count, created_at, updated_at FROM report_runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]model.Run, 0)
	for rows.Next() {
		var run model.Run
		if err := rows.Scan(&run.ID, &run.SessionID, &run.Kind, &run.Format, &run.IncomeCategory, &run.Status,
			&run.Output, &run.RecordCount, &run.CreatedAt, &run.UpdatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun fetches a run with its recorded errors.
func (s *Store) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	var run model.Run
	err := s.db.QueryRowContext(ctx, `SELECT id, session_id, kind, format, income_category, status, output,
		record_count, created_at, updated_at FROM report_runs WHERE id = ?`, runID).
		Scan(&run.ID, &run.SessionID, &run.Kind, &run.Format, &run.IncomeCategory, &run.Status,
			&run.Output, &run.RecordCount, &run.CreatedAt, &run.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT error_message FROM run_errors WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var msg string
		if err := rows.Scan(&msg); err != nil {
			return nil, err
		}
		run.Errors = append(run.Errors, msg)
	}
	return &run, rows.Err()
}
