package nakama

import (
	"context"
	"database/sql"

	"github.com/heroiclabs/nakama-common/runtime"

	"landlord/internal/app"
	"landlord/internal/config"
	"landlord/internal/ports"
)

// InitModule wires the landlord service onto Nakama storage and wallets and registers its RPCs.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	environ, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	var env config.Env
	if err := config.ParseEnv(&env, environ); err != nil {
		logger.Error("Landlord module environment is invalid: %v", err)
		return err
	}

	if err := config.LoadGameConfig(env.GameConfigPath); err != nil {
		logger.Warn("Game config not loaded from %s, using defaults: %v", env.GameConfigPath, err)
	}

	economy := NewNakamaEconomyAdapter(nk)
	var funds ports.EconomyPort
	if env.RequireFunds {
		funds = economy
	}
	registry := app.NewRegistry(NewTableStore(nk, env.MaxCommitRetries), funds, nil, logger)
	tokens := app.NewSeatTokens(env.SeatTokenSecret, env.SeatTokenIssuer, env.SeatTokenTTL)
	svc := app.NewService(registry, tokens, economy, economy)

	handlers := NewHandlers(svc, NewNotifier(nk), config.GetGameConfig())
	if err := RegisterRPCs(initializer, handlers); err != nil {
		return err
	}

	logger.Info("Landlord Go module loaded.")
	return nil
}
