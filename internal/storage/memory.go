// Package storage records brew runs.
package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/hammamikhairi/brewtimer/internal/domain"
	"github.com/hammamikhairi/brewtimer/internal/logger"
)

// Compile-time interface check.
var _ domain.HistoryStore = (*MemoryHistory)(nil)

// MemoryHistory keeps the run history in memory. Safe for concurrent access.
type MemoryHistory struct {
	mu   sync.RWMutex
	runs []domain.RunStart
	log  *logger.Logger
}

// NewMemoryHistory creates an empty in-memory history.
func NewMemoryHistory(log *logger.Logger) *MemoryHistory {
	return &MemoryHistory{log: log}
}

// RecipeStarted records a run.
func (h *MemoryHistory) RecipeStarted(ctx context.Context, run domain.RunStart) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.runs = append(h.runs, run)
	h.log.Debug("recorded run %s (recipe=%s)", run.RunID, run.RecipeID)
	return nil
}

// Recent returns up to limit runs, newest first. limit <= 0 means all.
func (h *MemoryHistory) Recent(ctx context.Context, limit int) ([]domain.RunStart, error) {
	h.mu.RLock()
	out := make([]domain.RunStart, len(h.runs))
	copy(out, h.runs)
	h.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close is a no-op.
func (h *MemoryHistory) Close() error { return nil }
