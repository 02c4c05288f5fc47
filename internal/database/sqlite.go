package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"goupi/internal/database/migrations"
	"goupi/internal/goupi"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteHistory implements goupi.History on SQLite.
type SQLiteHistory struct {
	db   *sql.DB
	path string
}

// NewSQLiteHistory opens the journal at path and migrates it to the latest
// schema. path can be a file path or ":memory:".
func NewSQLiteHistory(path string) (*SQLiteHistory, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating history database: %w", err)
	}

	return &SQLiteHistory{db: db, path: path}, nil
}

// OpenConnection opens and configures a SQLite database connection with appropriate PRAGMAs.
// An in-memory database is limited to one connection so every query sees
// the same data.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// Build runs

func (s *SQLiteHistory) CreateBuildRun(run *goupi.BuildRun) error {
	res, err := s.db.ExecContext(context.Background(), `
		INSERT INTO build_runs (run_id, source_dir, output_dir, status, error, started_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.RunID, run.SourceDir, run.OutputDir, run.Status, run.Error, run.StartedAt.UTC())
	if err != nil {
		return fmt.Errorf("creating build run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading build run id: %w", err)
	}
	run.ID = id
	return nil
}

func (s *SQLiteHistory) FinishBuildRun(run *goupi.BuildRun) error {
	var finishedAt sql.NullTime
	if run.FinishedAt != nil {
		finishedAt = sql.NullTime{Time: run.FinishedAt.UTC(), Valid: true}
	}

	res, err := s.db.ExecContext(context.Background(), `
		UPDATE build_runs
		SET status = ?, error = ?, finished_at = ?, built = ?, up_to_date = ?, failed = ?
		WHERE id = ?`,
		run.Status, run.Error, finishedAt, run.Built, run.UpToDate, run.Failed, run.ID)
	if err != nil {
		return fmt.Errorf("finishing build run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finishing build run: no run with id %d", run.ID)
	}
	return nil
}

const selectBuildRun = `
	SELECT id, run_id, source_dir, output_dir, status, error, started_at, finished_at, built, up_to_date, failed
	FROM build_runs`

func (s *SQLiteHistory) ListBuildRuns(limit int) ([]*goupi.BuildRun, error) {
	rows, err := s.db.QueryContext(context.Background(), selectBuildRun+` ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing build runs: %w", err)
	}
	defer rows.Close()

	var runs []*goupi.BuildRun
	for rows.Next() {
		run, err := scanBuildRun(rows)
		if err != nil {
			return nil, fmt.Errorf("listing build runs: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing build runs: %w", err)
	}
	return runs, nil
}

func (s *SQLiteHistory) FindBuildRun(id int64) (*goupi.BuildRun, error) {
	row := s.db.QueryRowContext(context.Background(), selectBuildRun+` WHERE id = ?`, id)
	run, err := scanBuildRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding build run: %w", err)
	}
	return run, nil
}

func (s *SQLiteHistory) FindBuildRunByRunID(runID string) (*goupi.BuildRun, error) {
	row := s.db.QueryRowContext(context.Background(), selectBuildRun+` WHERE run_id = ?`, runID)
	run, err := scanBuildRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding build run %s: %w", runID, err)
	}
	return run, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBuildRun(row scanner) (*goupi.BuildRun, error) {
	var (
		run        goupi.BuildRun
		finishedAt sql.NullTime
	)
	err := row.Scan(&run.ID, &run.RunID, &run.SourceDir, &run.OutputDir, &run.Status, &run.Error,
		&run.StartedAt, &finishedAt, &run.Built, &run.UpToDate, &run.Failed)
	if err != nil {
		return nil, err
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}
	return &run, nil
}

// Post results

// RecordPostResults stores all results of a run in one transaction.
func (s *SQLiteHistory) RecordPostResults(buildRunID int64, results []goupi.PostResult) error {
	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO post_results (build_run_id, post, status, error, timestamp)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing post result insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range results {
		if _, err := stmt.ExecContext(ctx, buildRunID, r.Post, string(r.Status), r.Error, r.Timestamp); err != nil {
			return fmt.Errorf("recording result for %s: %w", r.Post, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *SQLiteHistory) ListPostResults(buildRunID int64) ([]*goupi.PostResult, error) {
	rows, err := s.db.QueryContext(context.Background(), `
		SELECT build_run_id, post, status, error, timestamp
		FROM post_results
		WHERE build_run_id = ?
		ORDER BY id`, buildRunID)
	if err != nil {
		return nil, fmt.Errorf("listing post results: %w", err)
	}
	defer rows.Close()

	var results []*goupi.PostResult
	for rows.Next() {
		var (
			r      goupi.PostResult
			status string
		)
		if err := rows.Scan(&r.BuildRunID, &r.Post, &status, &r.Error, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("listing post results: %w", err)
		}
		r.Status = goupi.PostStatus(status)
		results = append(results, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing post results: %w", err)
	}
	return results, nil
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteHistory) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteHistory) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// Close closes the database connection.
func (s *SQLiteHistory) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteHistory implements goupi.History interface
var _ goupi.History = (*SQLiteHistory)(nil)
