package ports

import "context"

// WalletUpdate represents a single currency change for a user.
type WalletUpdate struct {
	UserID   string
	Amount   int64
	Metadata map[string]interface{}
}

// EconomyPort reads player balances.
type EconomyPort interface {
	// GetBalance retrieves the current chip balance for a user.
	GetBalance(ctx context.Context, userID string) (int64, error)
}

// AccountPort checks that an account can receive payouts.
type AccountPort interface {
	// AccountExists reports whether userID names an existing account.
	AccountExists(ctx context.Context, userID string) (bool, error)
}

// SettlementPort pays out a finished table at most once.
type SettlementPort interface {
	// SettleOnce applies updates atomically under settlementID. It returns
	// applied=false when the settlement was already recorded.
	SettleOnce(ctx context.Context, settlementID string, updates []WalletUpdate) (applied bool, err error)
}
