package ports

import (
	"context"
	"errors"

	"landlord/internal/domain"
)

// ErrConflict is returned when a commit keeps losing to concurrent writers.
var ErrConflict = errors.New("table record changed concurrently")

// TableStore persists the game state record and per-table records. Every
// mutation is an atomic read-modify-write: the closure runs against a private
// copy and nothing is written when it returns an error.
type TableStore interface {
	// InitGameState writes the deployment record. It fails with
	// domain.ErrAlreadyInitialized when one exists.
	InitGameState(ctx context.Context, gs *domain.GameState) error

	// GameState reads the deployment record or fails with domain.ErrNotInitialized.
	GameState(ctx context.Context) (*domain.GameState, error)

	// CreateTable runs create against the game state and commits the returned
	// table together with the updated counter.
	CreateTable(ctx context.Context, create func(gs *domain.GameState) (*domain.Table, error)) (*domain.Table, error)

	// UpdateTable runs mutate against a copy of the table and commits the result.
	UpdateTable(ctx context.Context, id uint64, mutate func(t *domain.Table) error) (*domain.Table, error)

	// Table reads one table or fails with domain.ErrTableNotFound.
	Table(ctx context.Context, id uint64) (*domain.Table, error)
}
