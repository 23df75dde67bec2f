package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Env is the runtime environment of the Nakama module.
type Env struct {
	SeatTokenSecret  string        `env:"LANDLORD_SEAT_TOKEN_SECRET,required,notEmpty"`
	SeatTokenIssuer  string        `env:"LANDLORD_SEAT_TOKEN_ISSUER" envDefault:"landlord"`
	SeatTokenTTL     time.Duration `env:"LANDLORD_SEAT_TOKEN_TTL" envDefault:"24h"`
	GameConfigPath   string        `env:"LANDLORD_GAME_CONFIG" envDefault:"/nakama/data/modules/landlord.json"`
	MaxCommitRetries int           `env:"LANDLORD_MAX_COMMIT_RETRIES" envDefault:"5"`
	// RequireFunds rejects joins from players whose wallet cannot cover the stake.
	RequireFunds bool `env:"LANDLORD_REQUIRE_FUNDS" envDefault:"true"`
}

// VerifyEnv configures the offline record verifier. Store is sqlite, postgres,
// or nakama for records the Nakama module wrote to the server database.
type VerifyEnv struct {
	Store       string `env:"LANDLORD_STORE" envDefault:"sqlite"`
	SQLitePath  string `env:"LANDLORD_SQLITE_PATH" envDefault:"landlord.db"`
	PostgresDSN string `env:"LANDLORD_PG_DSN"`
	NakamaDSN   string `env:"LANDLORD_NAKAMA_DSN"`
}

// ParseEnv fills target from environ, or from the process environment when environ is nil.
func ParseEnv(target any, environ map[string]string) error {
	var err error
	if environ == nil {
		err = env.Parse(target)
	} else {
		err = env.ParseWithOptions(target, env.Options{Environment: environ})
	}
	if err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
