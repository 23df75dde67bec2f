// Package storetest holds behaviour checks shared by every ports.TableStore
// implementation.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landlord/internal/domain"
	"landlord/internal/ports"
)

// Run exercises a store. newStore must return an empty store on every call.
func Run(t *testing.T, newStore func(t *testing.T) ports.TableStore) {
	t.Run("game state lifecycle", func(t *testing.T) { testGameState(t, newStore(t)) })
	t.Run("create allocates sequential ids", func(t *testing.T) { testCreate(t, newStore(t)) })
	t.Run("failed closures leave no trace", func(t *testing.T) { testRollback(t, newStore(t)) })
	t.Run("concurrent joins serialize", func(t *testing.T) { testConcurrentJoins(t, newStore(t)) })
	t.Run("concurrent creates race for one id", func(t *testing.T) { testConcurrentCreate(t, newStore(t)) })
}

// Allocate returns a create closure that claims id and opens a table with stake.
func Allocate(id uint64, stake int64) func(*domain.GameState) (*domain.Table, error) {
	return func(gs *domain.GameState) (*domain.Table, error) {
		if err := gs.Allocate(id); err != nil {
			return nil, err
		}
		return domain.NewTable(id, stake, domain.Rules{})
	}
}

func initialized(t *testing.T, store ports.TableStore) context.Context {
	t.Helper()
	ctx := context.Background()
	gs, err := domain.NewGameState("owner")
	require.NoError(t, err)
	require.NoError(t, store.InitGameState(ctx, gs))
	return ctx
}

func testGameState(t *testing.T, store ports.TableStore) {
	ctx := context.Background()
	_, err := store.GameState(ctx)
	require.ErrorIs(t, err, domain.ErrNotInitialized)
	_, err = store.CreateTable(ctx, Allocate(1, 0))
	require.ErrorIs(t, err, domain.ErrNotInitialized)

	initialized(t, store)
	gs, err := store.GameState(ctx)
	require.NoError(t, err)
	assert.Equal(t, "owner", gs.Owner)
	assert.Equal(t, uint64(1), gs.NextTableID)

	again, err := domain.NewGameState("someone-else")
	require.NoError(t, err)
	require.ErrorIs(t, store.InitGameState(ctx, again), domain.ErrAlreadyInitialized)

	gs, err = store.GameState(ctx)
	require.NoError(t, err)
	assert.Equal(t, "owner", gs.Owner)
}

func testCreate(t *testing.T, store ports.TableStore) {
	ctx := initialized(t, store)

	first, err := store.CreateTable(ctx, Allocate(1, 10))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), first.ID)
	assert.Equal(t, int64(10), first.Stake)

	_, err = store.CreateTable(ctx, Allocate(1, 10))
	require.ErrorIs(t, err, domain.ErrIDAlreadyUsed)
	_, err = store.CreateTable(ctx, Allocate(3, 10))
	require.ErrorIs(t, err, domain.ErrIDAlreadyUsed)

	_, err = store.CreateTable(ctx, Allocate(2, 0))
	require.NoError(t, err)
	gs, err := store.GameState(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), gs.NextTableID)

	got, err := store.Table(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseWaitingForPlayers, got.Phase)

	_, err = store.Table(ctx, 99)
	require.ErrorIs(t, err, domain.ErrTableNotFound)
	_, err = store.UpdateTable(ctx, 99, func(*domain.Table) error { return nil })
	require.ErrorIs(t, err, domain.ErrTableNotFound)
}

func testRollback(t *testing.T, store ports.TableStore) {
	ctx := initialized(t, store)
	boom := errors.New("boom")

	_, err := store.CreateTable(ctx, func(gs *domain.GameState) (*domain.Table, error) {
		if err := gs.Allocate(1); err != nil {
			return nil, err
		}
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
	gs, err := store.GameState(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), gs.NextTableID, "counter must not advance without a table")

	_, err = store.CreateTable(ctx, Allocate(1, 0))
	require.NoError(t, err)

	_, err = store.UpdateTable(ctx, 1, func(tb *domain.Table) error {
		if _, _, err := tb.Join("alice", ""); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.Table(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, got.Seats)

	updated, err := store.UpdateTable(ctx, 1, func(tb *domain.Table) error {
		_, _, err := tb.Join("alice", "")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, updated.Seats)
}

func testConcurrentJoins(t *testing.T, store ports.TableStore) {
	ctx := initialized(t, store)
	_, err := store.CreateTable(ctx, Allocate(1, 0))
	require.NoError(t, err)

	const players = 6
	var wg sync.WaitGroup
	errs := make([]error, players)
	for i := 0; i < players; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = store.UpdateTable(ctx, 1, func(tb *domain.Table) error {
				_, _, err := tb.Join(fmt.Sprintf("player-%d", i), "")
				return err
			})
		}(i)
	}
	wg.Wait()

	joined := 0
	for _, err := range errs {
		if err == nil {
			joined++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrTableFull)
	}
	assert.Equal(t, domain.SeatCount, joined)

	got, err := store.Table(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, got.Seats, domain.SeatCount)
}

func testConcurrentCreate(t *testing.T, store ports.TableStore) {
	ctx := initialized(t, store)

	const racers = 4
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = store.CreateTable(ctx, Allocate(1, int64(i)))
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrIDAlreadyUsed)
	}
	assert.Equal(t, 1, created)

	gs, err := store.GameState(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), gs.NextTableID)
}
