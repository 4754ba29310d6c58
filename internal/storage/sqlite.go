package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hammamikhairi/brewtimer/internal/domain"
	"github.com/hammamikhairi/brewtimer/internal/logger"
)

// Compile-time interface check.
var _ domain.HistoryStore = (*SQLiteHistory)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT PRIMARY KEY,
	recipe_id   TEXT NOT NULL,
	recipe_name TEXT NOT NULL,
	step_count  INTEGER NOT NULL,
	total_ms    INTEGER NOT NULL,
	started_ns  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_ns);
`

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// SQLiteHistory persists the run history in a SQLite database.
type SQLiteHistory struct {
	db   *sql.DB
	path string
	log  *logger.Logger
}

// OpenSQLite opens or creates the history database at path.
func OpenSQLite(path string, log *logger.Logger) (*SQLiteHistory, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	log.Debug("history database ready at %s", path)
	return &SQLiteHistory{db: db, path: path, log: log}, nil
}

// Path returns the database file path.
func (h *SQLiteHistory) Path() string { return h.path }

// Close closes the underlying database connection.
func (h *SQLiteHistory) Close() error {
	if h == nil || h.db == nil {
		return nil
	}
	return h.db.Close()
}

// RecipeStarted records a run. Recording the same run twice is a no-op.
func (h *SQLiteHistory) RecipeStarted(ctx context.Context, run domain.RunStart) error {
	err := retryOnBusy(ctx, func() error {
		_, err := h.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO runs (run_id, recipe_id, recipe_name, step_count, total_ms, started_ns)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			run.RunID, run.RecipeID, run.RecipeName, run.StepCount,
			run.Total.Milliseconds(), run.StartedAt.UnixNano(),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("record run %s: %w", run.RunID, err)
	}
	h.log.Debug("recorded run %s (recipe=%s)", run.RunID, run.RecipeID)
	return nil
}

// Recent returns up to limit runs, newest first. limit <= 0 means all.
func (h *SQLiteHistory) Recent(ctx context.Context, limit int) ([]domain.RunStart, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := h.db.QueryContext(ctx,
		`SELECT run_id, recipe_id, recipe_name, step_count, total_ms, started_ns
		 FROM runs ORDER BY started_ns DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []domain.RunStart
	for rows.Next() {
		var (
			run     domain.RunStart
			totalMS int64
			started int64
		)
		if err := rows.Scan(&run.RunID, &run.RecipeID, &run.RecipeName, &run.StepCount, &totalMS, &started); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Total = time.Duration(totalMS) * time.Millisecond
		run.StartedAt = time.Unix(0, started).UTC()
		out = append(out, run)
	}
	return out, rows.Err()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil || !isSQLiteBusy(lastErr) {
			return lastErr
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
