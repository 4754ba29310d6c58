package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/hammamikhairi/brewtimer/internal/logger"
)

func openTestDB(t *testing.T) *SQLiteHistory {
	t.Helper()
	h, err := OpenSQLite(filepath.Join(t.TempDir(), "history", "runs.db"), logger.New(logger.LevelOff, nil))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestSQLiteHistory(t *testing.T) {
	historyContract(t, openTestDB(t))
}

func TestSQLiteHistoryIgnoresDuplicates(t *testing.T) {
	h := openTestDB(t)
	ctx := context.Background()
	run := testRuns()[0]

	for i := 0; i < 2; i++ {
		if err := h.RecipeStarted(ctx, run); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	runs, err := h.Recent(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
}

func TestSQLiteHistoryPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	log := logger.New(logger.LevelOff, nil)
	ctx := context.Background()

	h, err := OpenSQLite(path, log)
	if err != nil {
		t.Fatal(err)
	}
	if err := h.RecipeStarted(ctx, testRuns()[1]); err != nil {
		t.Fatal(err)
	}
	if err := h.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := OpenSQLite(path, log)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	runs, err := reopened.Recent(ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].RunID != "run-2" {
		t.Fatalf("history not persisted: %+v", runs)
	}
}

type codedErr struct{ code int }

func (e codedErr) Error() string { return "coded" }
func (e codedErr) Code() int     { return e.code }

func TestRetryOnBusy(t *testing.T) {
	calls := 0
	err := retryOnBusy(context.Background(), func() error {
		calls++
		if calls < 3 {
			return codedErr{code: sqliteBusyCode}
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("retryOnBusy = %v after %d calls", err, calls)
	}

	calls = 0
	permanent := errors.New("constraint failed")
	err = retryOnBusy(context.Background(), func() error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) || calls != 1 {
		t.Fatalf("non-busy error retried: %v after %d calls", err, calls)
	}
}
