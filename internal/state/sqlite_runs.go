package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrRunNotFound is returned when a run id is not in the database.
var ErrRunNotFound = errors.New("run not found")

const runColumns = `id, collection, method, script, environment, status,
	started_at, completed_at, error, entries, skipped`

// CreateRun inserts run with status running. StartedAt defaults to now.
func (s *SQLiteStore) CreateRun(ctx context.Context, run *Run) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	run.Status = RunStatusRunning

	s.logger.Debug("creating run",
		slog.String("id", run.ID),
		slog.String("collection", run.Collection),
		slog.String("environment", run.Env))

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, collection, method, script, environment, status, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Collection, run.Method, run.Script, run.Env, string(run.Status), run.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// RecordResult appends the worker outcome for one entry and bumps the run
// counters. Values are stored as JSON.
func (s *SQLiteStore) RecordResult(ctx context.Context, runID string, result EntryResult) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	var value sql.NullString
	if !result.Skipped {
		data, err := json.Marshal(result.Value)
		if err != nil {
			return fmt.Errorf("failed to encode result for %s: %w", result.Key, err)
		}
		value = sql.NullString{String: string(data), Valid: true}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO run_results (run_id, position, key, value, skipped) VALUES (?, ?, ?, ?, ?)`,
		runID, result.Position, result.Key, value, boolInt(result.Skipped)); err != nil {
		return fmt.Errorf("failed to record result: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE runs SET entries = entries + 1, skipped = skipped + ? WHERE id = ?`,
		boolInt(result.Skipped), runID); err != nil {
		return fmt.Errorf("failed to update run counters: %w", err)
	}

	return tx.Commit()
}

// CompleteRun marks a run as completed with the given status.
func (s *SQLiteStore) CompleteRun(ctx context.Context, id string, status RunStatus, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	var errorVal sql.NullString
	if errMsg != "" {
		errorVal = sql.NullString{String: errMsg, Valid: true}
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
		string(status), time.Now().UTC(), errorVal, id)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}

	s.logger.Debug("completed run", slog.String("id", id), slog.String("status", string(status)))
	return nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first. A non-positive limit
// returns all runs.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	return s.listRuns(ctx, `SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limitArg(limit))
}

// ListCollectionRuns is ListRuns restricted to one collection.
func (s *SQLiteStore) ListCollectionRuns(ctx context.Context, collection string, limit int) ([]*Run, error) {
	return s.listRuns(ctx, `SELECT `+runColumns+` FROM runs WHERE collection = ? ORDER BY started_at DESC, rowid DESC LIMIT ?`,
		collection, limitArg(limit))
}

// ListCollections returns every collection with a recorded run, most
// recently run first.
func (s *SQLiteStore) ListCollections(ctx context.Context) ([]string, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT collection FROM runs GROUP BY collection ORDER BY MAX(started_at) DESC, collection`)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	defer rows.Close()

	var collections []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan collection: %w", err)
		}
		collections = append(collections, c)
	}
	return collections, rows.Err()
}

func (s *SQLiteStore) listRuns(ctx context.Context, query string, args ...any) ([]*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// limitArg maps "no limit" (<= 0) to SQLite's LIMIT -1.
func limitArg(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

// GetResults returns the recorded entries of a run in iteration order.
func (s *SQLiteStore) GetResults(ctx context.Context, runID string) ([]EntryResult, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT position, key, value, skipped FROM run_results WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get results: %w", err)
	}
	defer rows.Close()

	var results []EntryResult
	for rows.Next() {
		var (
			r       EntryResult
			value   sql.NullString
			skipped int
		)
		if err := rows.Scan(&r.Position, &r.Key, &value, &skipped); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		r.Skipped = skipped != 0
		if value.Valid {
			if err := json.Unmarshal([]byte(value.String), &r.Value); err != nil {
				return nil, fmt.Errorf("failed to decode result for %s: %w", r.Key, err)
			}
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run       Run
		status    string
		completed sql.NullTime
		errMsg    sql.NullString
	)
	if err := row.Scan(&run.ID, &run.Collection, &run.Method, &run.Script, &run.Env, &status,
		&run.StartedAt, &completed, &errMsg, &run.Entries, &run.Skipped); err != nil {
		return nil, err
	}
	run.Status = RunStatus(status)
	if completed.Valid {
		t := completed.Time
		run.CompletedAt = &t
	}
	run.Error = errMsg.String
	return &run, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
