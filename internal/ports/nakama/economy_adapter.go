package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"

	"landlord/internal/ports"
)

// WalletModule is the subset of runtime.NakamaModule the economy adapter needs.
type WalletModule interface {
	AccountGetId(ctx context.Context, userID string) (*api.Account, error)
	MultiUpdate(ctx context.Context, accountUpdates []*runtime.AccountUpdate, storageWrites []*runtime.StorageWrite, storageDeletes []*runtime.StorageDelete, walletUpdates []*runtime.WalletUpdate, updateLedger bool) ([]*api.StorageObjectAck, []*runtime.WalletUpdateResult, error)
}

// NakamaEconomyAdapter implements ports.EconomyPort and ports.SettlementPort using Nakama's wallet system.
type NakamaEconomyAdapter struct {
	nk WalletModule
}

var (
	_ ports.EconomyPort    = (*NakamaEconomyAdapter)(nil)
	_ ports.SettlementPort = (*NakamaEconomyAdapter)(nil)
	_ ports.AccountPort    = (*NakamaEconomyAdapter)(nil)
)

// NewNakamaEconomyAdapter creates a new economy adapter.
func NewNakamaEconomyAdapter(nk WalletModule) *NakamaEconomyAdapter {
	return &NakamaEconomyAdapter{
		nk: nk,
	}
}

// GetBalance retrieves the current gold balance for a user.
func (a *NakamaEconomyAdapter) GetBalance(ctx context.Context, userID string) (int64, error) {
	account, err := a.nk.AccountGetId(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get account: %w", err)
	}

	wallet := map[string]int64{}
	if account.GetWallet() != "" {
		if err := json.Unmarshal([]byte(account.GetWallet()), &wallet); err != nil {
			return 0, fmt.Errorf("failed to unmarshal wallet: %w", err)
		}
	}

	return wallet[walletCurrency], nil
}

// AccountExists reports whether userID is a Nakama account. Malformed ids are not.
func (a *NakamaEconomyAdapter) AccountExists(ctx context.Context, userID string) (bool, error) {
	if _, err := a.nk.AccountGetId(ctx, userID); err != nil {
		msg := err.Error()
		if strings.Contains(msg, "account not found") || strings.Contains(msg, "invalid user id") {
			return false, nil
		}
		return false, fmt.Errorf("failed to get account: %w", err)
	}
	return true, nil
}

// SettleOnce applies a settlement's wallet changes together with a marker keyed by
// settlementID. A marker that already exists rejects the whole update, so a
// settlement is paid at most once however often it is retried.
func (a *NakamaEconomyAdapter) SettleOnce(ctx context.Context, settlementID string, updates []ports.WalletUpdate) (bool, error) {
	if settlementID == "" {
		return false, fmt.Errorf("settlementID is required")
	}

	marker := map[string]interface{}{
		"updates":    len(updates),
		"settled_at": time.Now().UTC().Format(time.RFC3339),
	}
	value, err := json.Marshal(marker)
	if err != nil {
		return false, fmt.Errorf("failed to marshal settlement marker: %w", err)
	}

	storageWrites := []*runtime.StorageWrite{
		{
			Collection:      settlementCollection,
			Key:             settlementID,
			Value:           string(value),
			Version:         "*",
			PermissionRead:  runtime.STORAGE_PERMISSION_NO_READ,
			PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
		},
	}

	walletUpdates := make([]*runtime.WalletUpdate, 0, len(updates))
	for _, update := range updates {
		if update.Amount == 0 {
			continue
		}
		walletUpdates = append(walletUpdates, &runtime.WalletUpdate{
			UserID:    update.UserID,
			Changeset: map[string]int64{walletCurrency: update.Amount},
			Metadata:  update.Metadata,
		})
	}

	_, _, err = a.nk.MultiUpdate(ctx, nil, storageWrites, nil, walletUpdates, true)
	if err != nil {
		if errors.Is(err, runtime.ErrStorageRejectedVersion) {
			return false, nil
		}
		return false, fmt.Errorf("failed to apply settlement %s: %w", settlementID, err)
	}

	return true, nil
}
