// Command landlord-verify replays stored table records from their seeds and move
// logs and reports every table whose stored state does not reproduce.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/sanity-io/litter"

	"landlord/internal/config"
	"landlord/internal/domain"
	"landlord/internal/ports"
	"landlord/internal/ports/nakama"
	"landlord/internal/ports/postgres"
	"landlord/internal/ports/sqlite"
)

func main() {
	_ = godotenv.Load()
	if err := run(context.Background(), os.Args[1:], nil, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, args []string, environ map[string]string, stdout io.Writer) error {
	fs := flag.NewFlagSet("landlord-verify", flag.ContinueOnError)
	fs.SetOutput(stdout)
	tableID := fs.Uint64("table", 0, "table id to verify; 0 verifies every table")
	dump := fs.Bool("dump", false, "print each replayed table")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var env config.VerifyEnv
	if err := config.ParseEnv(&env, environ); err != nil {
		return err
	}
	logger := newStdLogger(stdout)

	store, closeStore, err := openStore(ctx, env)
	if err != nil {
		return err
	}
	defer closeStore()

	var ids []uint64
	if *tableID != 0 {
		ids = append(ids, *tableID)
	} else {
		gs, err := store.GameState(ctx)
		if err != nil {
			return fmt.Errorf("read game state: %w", err)
		}
		for id := uint64(1); id < gs.NextTableID; id++ {
			ids = append(ids, id)
		}
	}

	failed := 0
	for _, id := range ids {
		tl := logger.WithField("table_id", id)
		t, err := store.Table(ctx, id)
		if err != nil {
			tl.Error("load failed: %v", err)
			failed++
			continue
		}
		replayed, err := domain.Replay(t)
		if err != nil {
			tl.Error("replay failed: %v", err)
			failed++
			continue
		}
		tl.Info("ok: %s after deal %d, %d moves", replayed.Phase, replayed.Deals, len(replayed.Moves))
		if *dump {
			fmt.Fprintln(stdout, litter.Sdump(replayed))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d tables failed verification", failed, len(ids))
	}
	return nil
}

func openStore(ctx context.Context, env config.VerifyEnv) (ports.TableStore, func(), error) {
	switch env.Store {
	case "sqlite":
		s, err := sqlite.Open(env.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case "postgres":
		if env.PostgresDSN == "" {
			return nil, nil, fmt.Errorf("LANDLORD_PG_DSN is required for the postgres store")
		}
		s, err := postgres.Open(ctx, env.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "nakama":
		if env.NakamaDSN == "" {
			return nil, nil, fmt.Errorf("LANDLORD_NAKAMA_DSN is required for the nakama store")
		}
		db, err := nakama.OpenStorageDB(ctx, env.NakamaDSN)
		if err != nil {
			return nil, nil, err
		}
		return nakama.NewTableStore(db, 0), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", env.Store)
	}
}
