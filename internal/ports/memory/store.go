// Package memory provides an in-process table store. Records are kept encoded so
// callers never share state with the store.
package memory

import (
	"context"
	"fmt"
	"sync"

	"landlord/internal/domain"
	"landlord/internal/ports"
	"landlord/internal/ports/record"
)

type entry struct {
	mu  sync.Mutex
	rec []byte
}

// Store implements ports.TableStore in memory.
type Store struct {
	// mu guards the game state record and the tables map. Table records are
	// guarded by their entry lock.
	mu     sync.Mutex
	state  []byte
	tables map[uint64]*entry
}

var _ ports.TableStore = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{tables: make(map[uint64]*entry)}
}

func (s *Store) InitGameState(ctx context.Context, gs *domain.GameState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != nil {
		return domain.ErrAlreadyInitialized
	}
	s.state = record.EncodeGameState(gs)
	return nil
}

func (s *Store) GameState(ctx context.Context) (*domain.GameState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return nil, domain.ErrNotInitialized
	}
	return record.DecodeGameState(s.state)
}

func (s *Store) CreateTable(ctx context.Context, create func(gs *domain.GameState) (*domain.Table, error)) (*domain.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return nil, domain.ErrNotInitialized
	}
	gs, err := record.DecodeGameState(s.state)
	if err != nil {
		return nil, err
	}
	t, err := create(gs)
	if err != nil {
		return nil, err
	}
	if _, ok := s.tables[t.ID]; ok {
		return nil, fmt.Errorf("%w: table %d", domain.ErrIDAlreadyUsed, t.ID)
	}
	rec := record.Encode(t)
	s.state = record.EncodeGameState(gs)
	s.tables[t.ID] = &entry{rec: rec}
	return record.Decode(rec)
}

func (s *Store) UpdateTable(ctx context.Context, id uint64, mutate func(t *domain.Table) error) (*domain.Table, error) {
	e, err := s.entry(ctx, id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	t, err := record.Decode(e.rec)
	if err != nil {
		return nil, err
	}
	if err := mutate(t); err != nil {
		return nil, err
	}
	e.rec = record.Encode(t)
	return t, nil
}

func (s *Store) Table(ctx context.Context, id uint64) (*domain.Table, error) {
	e, err := s.entry(ctx, id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return record.Decode(e.rec)
}

func (s *Store) entry(ctx context.Context, id uint64) (*entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.tables[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrTableNotFound, id)
	}
	return e, nil
}
