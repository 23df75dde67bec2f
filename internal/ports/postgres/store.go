// Package postgres provides a PostgreSQL-backed table store.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"landlord/internal/domain"
	"landlord/internal/ports"
	"landlord/internal/ports/record"
)

//go:embed schema.sql
var schema embed.FS

const uniqueViolation = "23505"

// Store persists table records in PostgreSQL. Mutations lock the row they
// rewrite with SELECT ... FOR UPDATE inside a transaction.
type Store struct{ pool *pgxpool.Pool }

var _ ports.TableStore = (*Store)(nil)

// Open connects to dsn.
func Open(ctx context.Context, dsn string) (*Store, error) {
	p, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{pool: p}, nil
}

// Close releases the pool.
func (s *Store) Close() { s.pool.Close() }

// Migrate applies the embedded schema.
func (s *Store) Migrate(ctx context.Context) error {
	sqlBytes, err := schema.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, string(sqlBytes))
	return err
}

func (s *Store) InitGameState(ctx context.Context, gs *domain.GameState) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO landlord_game_state (id, record) VALUES (1, $1)`,
		record.EncodeGameState(gs))
	if isUniqueViolation(err) {
		return domain.ErrAlreadyInitialized
	}
	if err != nil {
		return fmt.Errorf("insert game state: %w", err)
	}
	return nil
}

func (s *Store) GameState(ctx context.Context) (*domain.GameState, error) {
	return readGameState(ctx, s.pool, "")
}

func (s *Store) CreateTable(ctx context.Context, create func(gs *domain.GameState) (*domain.Table, error)) (*domain.Table, error) {
	var created *domain.Table
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		gs, err := readGameState(ctx, tx, " FOR UPDATE")
		if err != nil {
			return err
		}
		t, err := create(gs)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO landlord_tables (id, record) VALUES ($1, $2)`,
			int64(t.ID), record.Encode(t)); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: table %d", domain.ErrIDAlreadyUsed, t.ID)
			}
			return fmt.Errorf("insert table: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE landlord_game_state SET record = $1 WHERE id = 1`,
			record.EncodeGameState(gs)); err != nil {
			return fmt.Errorf("update game state: %w", err)
		}
		created = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Store) UpdateTable(ctx context.Context, id uint64, mutate func(t *domain.Table) error) (*domain.Table, error) {
	var updated *domain.Table
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		t, err := readTable(ctx, tx, id, " FOR UPDATE")
		if err != nil {
			return err
		}
		if err := mutate(t); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`UPDATE landlord_tables SET record = $1, updated_at = now() WHERE id = $2`,
			record.Encode(t), int64(id)); err != nil {
			return fmt.Errorf("update table: %w", err)
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Store) Table(ctx context.Context, id uint64) (*domain.Table, error) {
	return readTable(ctx, s.pool, id, "")
}

type queryer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func readGameState(ctx context.Context, q queryer, lock string) (*domain.GameState, error) {
	var rec []byte
	err := q.QueryRow(ctx, `SELECT record FROM landlord_game_state WHERE id = 1`+lock).Scan(&rec)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotInitialized
	}
	if err != nil {
		return nil, fmt.Errorf("read game state: %w", err)
	}
	return record.DecodeGameState(rec)
}

func readTable(ctx context.Context, q queryer, id uint64, lock string) (*domain.Table, error) {
	var rec []byte
	err := q.QueryRow(ctx, `SELECT record FROM landlord_tables WHERE id = $1`+lock, int64(id)).Scan(&rec)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", domain.ErrTableNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("read table %d: %w", id, err)
	}
	return record.Decode(rec)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
