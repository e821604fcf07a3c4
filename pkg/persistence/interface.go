package persistence

import (
	"context"
	"errors"

	"github.com/osvaldoandrade/modelcheck/pkg/domain"
)

var (
	// ErrNotFound is returned when a run does not exist
	ErrNotFound = errors.New("not found")
)

// PluginPersistence provides storage operations for persistence plugins.
// This is the main interface that all ledger backends must implement.
type PluginPersistence interface {
	// RunStorage returns the run ledger implementation
	RunStorage() RunStorage

	// Health checks if the persistence backend is healthy
	Health(ctx context.Context) error

	// Close releases resources held by the persistence backend
	Close() error
}

// RunStorage records batch runs and their task results
type RunStorage interface {
	// SaveRun inserts or replaces a run and marks it as the latest one
	SaveRun(ctx context.Context, run domain.Run) error

	// GetRun retrieves a run by ID
	GetRun(ctx context.Context, id string) (*domain.Run, error)

	// LatestRun retrieves the most recently saved run
	LatestRun(ctx context.Context) (*domain.Run, error)

	// SaveResult stores the result of one task under its run
	SaveResult(ctx context.Context, res domain.Result) error

	// ListResults returns all results for a run ordered by input path
	ListResults(ctx context.Context, runID string) ([]domain.Result, error)
}
