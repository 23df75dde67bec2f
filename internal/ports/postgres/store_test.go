package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"landlord/internal/ports"
	"landlord/internal/ports/storetest"
)

func TestStore(t *testing.T) {
	dsn := os.Getenv("LANDLORD_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("LANDLORD_TEST_PG_DSN not set")
	}
	ctx := context.Background()
	store, err := Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	require.NoError(t, store.Migrate(ctx))

	storetest.Run(t, func(t *testing.T) ports.TableStore {
		_, err := store.pool.Exec(ctx, `TRUNCATE landlord_tables, landlord_game_state`)
		require.NoError(t, err)
		return store
	})
}
