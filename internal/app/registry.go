package app

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/heroiclabs/nakama-common/runtime"

	"landlord/internal/domain"
	"landlord/internal/ports"
)

// Registry owns the game state record and the table lifecycle up to the deal.
type Registry struct {
	store   ports.TableStore
	economy ports.EconomyPort
	entropy io.Reader
	logger  runtime.Logger
}

// NewRegistry wires a registry. economy may be nil to skip balance checks;
// entropy defaults to crypto/rand and logger to a no-op.
func NewRegistry(store ports.TableStore, economy ports.EconomyPort, entropy io.Reader, logger runtime.Logger) *Registry {
	if entropy == nil {
		entropy = rand.Reader
	}
	if logger == nil {
		logger = nopLogger{}
	}
	return &Registry{store: store, economy: economy, entropy: entropy, logger: logger}
}

// Initialize creates the deployment record owned by owner.
func (r *Registry) Initialize(ctx context.Context, owner string) (*domain.GameState, error) {
	gs, err := domain.NewGameState(owner)
	if err != nil {
		return nil, err
	}
	if err := r.store.InitGameState(ctx, gs); err != nil {
		return nil, err
	}
	r.logger.WithField("owner", owner).Info("game state initialized")
	return gs, nil
}

// GameState returns the deployment record.
func (r *Registry) GameState(ctx context.Context) (*domain.GameState, error) {
	return r.store.GameState(ctx)
}

// CreateTable opens table requestedID. The id must be the next one in sequence.
func (r *Registry) CreateTable(ctx context.Context, requestedID uint64, stake int64, rules domain.Rules) (*domain.Table, error) {
	if err := domain.ValidateStake(stake); err != nil {
		return nil, err
	}
	t, err := r.store.CreateTable(ctx, func(gs *domain.GameState) (*domain.Table, error) {
		if err := gs.Allocate(requestedID); err != nil {
			return nil, err
		}
		return domain.NewTable(requestedID, stake, rules)
	})
	if err != nil {
		return nil, err
	}
	r.logger.WithField("table_id", t.ID).Info("table created with stake %d", stake)
	return t, nil
}

// JoinTable seats identity. The third join deals in the same commit.
func (r *Registry) JoinTable(ctx context.Context, tableID uint64, identity, beneficiary string) (seat int, dealt bool, t *domain.Table, err error) {
	t, err = r.commit(ctx, tableID, "join", func(t *domain.Table) error {
		var full bool
		var err error
		seat, full, err = t.Join(identity, beneficiary)
		if err != nil {
			return err
		}
		if err := r.checkFunds(ctx, identity, t.Stake); err != nil {
			return err
		}
		dealt = full
		if full {
			return r.deal(t)
		}
		return nil
	})
	if err != nil {
		return domain.NoSeat, false, nil, err
	}
	r.logger.WithFields(map[string]interface{}{"table_id": tableID, "user_id": identity}).Info("joined seat %d", seat)
	return seat, dealt, t, nil
}

func (r *Registry) checkFunds(ctx context.Context, identity string, stake int64) error {
	if r.economy == nil || stake == 0 {
		return nil
	}
	balance, err := r.economy.GetBalance(ctx, identity)
	if err != nil {
		return fmt.Errorf("read balance: %w", err)
	}
	if balance < stake {
		return fmt.Errorf("%w: balance %d, stake %d", domain.ErrInsufficientFunds, balance, stake)
	}
	return nil
}

// deal draws entropy now, after every seat is committed, and deals the next hand.
func (r *Registry) deal(t *domain.Table) error {
	entropy := make([]byte, EntropySize)
	if _, err := io.ReadFull(r.entropy, entropy); err != nil {
		return fmt.Errorf("draw deal entropy: %w", err)
	}
	return t.Deal(domain.DeriveSeed(entropy, t.ID, t.Seats, t.Deals+1))
}

// commit applies mutate and refuses to store a table that breaks an invariant.
func (r *Registry) commit(ctx context.Context, tableID uint64, op string, mutate func(t *domain.Table) error) (*domain.Table, error) {
	return r.store.UpdateTable(ctx, tableID, func(t *domain.Table) error {
		if err := mutate(t); err != nil {
			return err
		}
		if err := t.Validate(); err != nil {
			r.logger.WithField("table_id", tableID).Error("%s produced an invalid table: %v", op, err)
			return err
		}
		return nil
	})
}

// nopLogger implements runtime.Logger when no logger is supplied.
type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) WithField(string, interface{}) runtime.Logger {
	return nopLogger{}
}
func (nopLogger) WithFields(map[string]interface{}) runtime.Logger {
	return nopLogger{}
}
func (nopLogger) Fields() map[string]interface{} {
	return nil
}
