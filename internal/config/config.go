package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"landlord/internal/domain"
)

// DefaultStake is used when no configuration is loaded.
const DefaultStake int64 = 100

type StakeTier struct {
	ID    string `json:"id"`
	Stake int64  `json:"stake"`
}

type GameConfig struct {
	DefaultTier string      `json:"default_tier"`
	Tiers       []StakeTier `json:"tiers"`
	// MaxRedeals caps all-pass re-deals per table; 0 means unlimited.
	MaxRedeals     int  `json:"max_redeals"`
	SpringDoubles  bool `json:"spring_doubles"`
	FeeBasisPoints int  `json:"fee_basis_points"`
}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadGameConfig loads the game configuration from the given path.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read game config: %w", err)
			return
		}

		c, err := ParseGameConfig(data)
		if err != nil {
			loadErr = err
			return
		}
		cfg = c
	})
	return loadErr
}

// ParseGameConfig decodes and checks a JSON game configuration.
func ParseGameConfig(data []byte) (*GameConfig, error) {
	var c GameConfig
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game config: %w", err)
	}
	if c.MaxRedeals < 0 {
		return nil, fmt.Errorf("max_redeals must not be negative")
	}
	if c.FeeBasisPoints < 0 || c.FeeBasisPoints >= 10000 {
		return nil, fmt.Errorf("fee_basis_points must be in [0, 10000)")
	}
	for _, tier := range c.Tiers {
		if err := domain.ValidateStake(tier.Stake); err != nil {
			return nil, fmt.Errorf("tier %q: %w", tier.ID, err)
		}
	}
	return &c, nil
}

// GetGameConfig returns the global game configuration.
func GetGameConfig() *GameConfig {
	return cfg
}

// Rules returns the table rules new tables are created with.
func (c *GameConfig) Rules() domain.Rules {
	if c == nil {
		return domain.Rules{}
	}
	return domain.Rules{
		MaxRedeals:     c.MaxRedeals,
		SpringDoubles:  c.SpringDoubles,
		FeeBasisPoints: c.FeeBasisPoints,
	}
}

// Stake returns the stake for a tier ID, or the default tier's stake if not found.
func (c *GameConfig) Stake(tierID string) int64 {
	if c == nil {
		return DefaultStake
	}

	target := tierID
	if target == "" {
		target = c.DefaultTier
	}
	for _, tier := range c.Tiers {
		if tier.ID == target {
			return tier.Stake
		}
	}

	// Fallback to default tier if specific ID not found
	for _, tier := range c.Tiers {
		if tier.ID == c.DefaultTier {
			return tier.Stake
		}
	}
	return DefaultStake
}
