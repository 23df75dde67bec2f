// Package sqlite provides a SQLite-backed table store.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"landlord/internal/domain"
	"landlord/internal/ports"
	"landlord/internal/ports/record"
)

//go:embed schema.sql
var schema string

// Store persists table records in SQLite. Every write runs in a BEGIN IMMEDIATE
// transaction, so read-modify-write cycles are serialized by the database lock.
type Store struct {
	sqlDB *sql.DB
}

var _ ports.TableStore = (*Store)(nil)

// Open opens a SQLite store at path and applies the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := "file:" + filepath.Clean(path) +
		"?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_txlock=immediate"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) InitGameState(ctx context.Context, gs *domain.GameState) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO game_state (id, record) VALUES (1, ?)`,
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
	return readGameState(ctx, s.sqlDB)
}

func (s *Store) CreateTable(ctx context.Context, create func(gs *domain.GameState) (*domain.Table, error)) (*domain.Table, error) {
	var created *domain.Table
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		gs, err := readGameState(ctx, tx)
		if err != nil {
			return err
		}
		t, err := create(gs)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO landlord_tables (id, record, updated_at) VALUES (?, ?, ?)`,
			int64(t.ID), record.Encode(t), time.Now().UTC().UnixMilli()); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: table %d", domain.ErrIDAlreadyUsed, t.ID)
			}
			return fmt.Errorf("insert table: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE game_state SET record = ? WHERE id = 1`,
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
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		t, err := readTable(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := mutate(t); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE landlord_tables SET record = ?, updated_at = ? WHERE id = ?`,
			record.Encode(t), time.Now().UTC().UnixMilli(), int64(id)); err != nil {
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
	return readTable(ctx, s.sqlDB, id)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func readGameState(ctx context.Context, q queryer) (*domain.GameState, error) {
	var rec []byte
	err := q.QueryRowContext(ctx, `SELECT record FROM game_state WHERE id = 1`).Scan(&rec)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotInitialized
	}
	if err != nil {
		return nil, fmt.Errorf("read game state: %w", err)
	}
	return record.DecodeGameState(rec)
}

func readTable(ctx context.Context, q queryer, id uint64) (*domain.Table, error) {
	var rec []byte
	err := q.QueryRowContext(ctx, `SELECT record FROM landlord_tables WHERE id = ?`, int64(id)).Scan(&rec)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", domain.ErrTableNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("read table %d: %w", id, err)
	}
	return record.Decode(rec)
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
