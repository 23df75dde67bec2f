package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/runtime"

	"landlord/internal/domain"
	"landlord/internal/ports"
)

// Service contains landlord use-cases. Every state change runs as one atomic
// commit against the table store and reports the events it caused.
type Service struct {
	*Registry
	tokens     *SeatTokens
	settlement ports.SettlementPort
	accounts   ports.AccountPort
	logger     runtime.Logger
}

// ErrUnknownBeneficiary is returned when a join names a beneficiary account that does not exist.
var ErrUnknownBeneficiary = errors.New("unknown beneficiary")

// NewService wires the use-cases. tokens, settlement and accounts may be nil:
// without tokens seats are authorized by identity alone, without settlement
// payouts stay on the table record, without accounts beneficiaries are unchecked.
func NewService(registry *Registry, tokens *SeatTokens, settlement ports.SettlementPort, accounts ports.AccountPort) *Service {
	return &Service{
		Registry:   registry,
		tokens:     tokens,
		settlement: settlement,
		accounts:   accounts,
		logger:     registry.logger,
	}
}

// JoinResult is returned to a player taking a seat.
type JoinResult struct {
	Seat      int        `json:"seat"`
	SeatToken string     `json:"seat_token,omitempty"`
	Table     *TableView `json:"table"`
}

// JoinGame seats identity and issues its seat token.
func (s *Service) JoinGame(ctx context.Context, tableID uint64, identity, beneficiary string) (*JoinResult, []Event, error) {
	if err := s.checkBeneficiary(ctx, identity, beneficiary); err != nil {
		return nil, nil, err
	}
	seat, dealt, t, err := s.JoinTable(ctx, tableID, identity, beneficiary)
	if err != nil {
		return nil, nil, err
	}

	res := &JoinResult{Seat: seat, Table: NewTableView(t, identity)}
	if s.tokens != nil {
		if res.SeatToken, err = s.tokens.Issue(tableID, seat, identity); err != nil {
			return nil, nil, fmt.Errorf("issue seat token: %w", err)
		}
	}

	events := []Event{{
		Kind:    EventPlayerJoined,
		Payload: PlayerJoinedPayload{TableID: tableID, UserID: identity, Seat: seat},
	}}
	if dealt {
		events = append(events, Event{
			Kind:    EventGameStarted,
			Payload: GameStartedPayload{TableID: tableID, Deal: t.Deals, FirstTurnUserID: userAt(t, t.CurrentTurn)},
		})
		events = append(events, dealtEvents(t)...)
	}
	return res, events, nil
}

func (s *Service) checkBeneficiary(ctx context.Context, identity, beneficiary string) error {
	if s.accounts == nil || beneficiary == "" || beneficiary == identity {
		return nil
	}
	ok, err := s.accounts.AccountExists(ctx, beneficiary)
	if err != nil {
		return fmt.Errorf("look up beneficiary: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBeneficiary, beneficiary)
	}
	return nil
}

// Bid places an auction bid; 0 passes.
func (s *Service) Bid(ctx context.Context, tableID uint64, identity, token string, value int) (*domain.Table, []Event, error) {
	var (
		seat    int
		outcome domain.BidOutcome
	)
	t, err := s.commit(ctx, tableID, "bid", func(t *domain.Table) error {
		var err error
		if seat, err = s.authorize(t, identity, token); err != nil {
			return err
		}
		if outcome, err = t.Bid(seat, value); err != nil {
			return err
		}
		if outcome == domain.BidRedeal {
			return s.deal(t)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	events := []Event{{
		Kind:    EventBidPlaced,
		Payload: BidPlacedPayload{TableID: tableID, UserID: identity, Bid: value, NextTurnUserID: userAt(t, t.CurrentTurn)},
	}}
	switch outcome {
	case domain.BidRedeal:
		s.logger.WithField("table_id", tableID).Info("all seats passed, redeal %d", t.Redeals)
		events = append(events, Event{
			Kind:    EventRedealt,
			Payload: RedealtPayload{TableID: tableID, Deal: t.Deals, Redeals: t.Redeals},
		})
		events = append(events, dealtEvents(t)...)
	case domain.BidLandlordChosen:
		landlord := t.Seats[t.Landlord]
		events = append(events,
			Event{
				Kind: EventLandlordElected,
				Payload: LandlordElectedPayload{
					TableID:    tableID,
					UserID:     landlord,
					Seat:       t.Landlord,
					Bid:        t.HighestBid,
					Multiplier: t.Multiplier,
				},
			},
			Event{
				Kind: EventKittyRevealed,
				Payload: KittyRevealedPayload{
					TableID: tableID,
					Kitty:   domain.CardStrings(t.Kitty),
					Hand:    domain.CardStrings(t.Hands[t.Landlord]),
				},
				Recipients: []string{landlord},
			},
		)
	}
	return t, events, nil
}

// Play lays cards for identity's seat.
func (s *Service) Play(ctx context.Context, tableID uint64, identity, token string, cards []domain.Card) (*domain.Table, []Event, error) {
	var (
		seat  int
		combo domain.Combination
	)
	t, err := s.commit(ctx, tableID, "play", func(t *domain.Table) error {
		var err error
		if seat, err = s.authorize(t, identity, token); err != nil {
			return err
		}
		combo, err = t.Play(seat, cards)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	events := []Event{{
		Kind: EventCardPlayed,
		Payload: CardPlayedPayload{
			TableID:        tableID,
			UserID:         identity,
			Cards:          domain.CardStrings(combo.Cards),
			Shape:          combo.Shape.String(),
			CardsLeft:      len(t.Hands[seat]),
			Multiplier:     t.Multiplier,
			NextTurnUserID: userAt(t, t.CurrentTurn),
		},
	}}
	if t.Phase == domain.PhaseFinished {
		s.logger.WithField("table_id", tableID).Info("round finished, seat %d won", t.Winner)
		events = append(events, Event{
			Kind: EventGameEnded,
			Payload: GameEndedPayload{
				TableID:      tableID,
				WinnerUserID: userAt(t, t.Winner),
				WinningTeam:  t.Team(t.Winner).String(),
			},
		})
	}
	return t, events, nil
}

// PassTurn declines to answer the current trick.
func (s *Service) PassTurn(ctx context.Context, tableID uint64, identity, token string) (*domain.Table, []Event, error) {
	var cleared bool
	t, err := s.commit(ctx, tableID, "pass", func(t *domain.Table) error {
		seat, err := s.authorize(t, identity, token)
		if err != nil {
			return err
		}
		cleared, err = t.Pass(seat)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return t, []Event{{
		Kind: EventTurnPassed,
		Payload: TurnPassedPayload{
			TableID:        tableID,
			UserID:         identity,
			TrickCleared:   cleared,
			NextTurnUserID: userAt(t, t.CurrentTurn),
		},
	}}, nil
}

// Finalize caches the settlement of a finished table and pays it out once.
// Anyone may call it; repeated calls return the same settlement and never pay twice.
func (s *Service) Finalize(ctx context.Context, tableID uint64) (*SettlementView, []Event, error) {
	var settlement domain.Settlement
	t, err := s.commit(ctx, tableID, "finalize", func(t *domain.Table) error {
		var err error
		settlement, err = t.Finalize()
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	view := NewSettlementView(t, settlement)

	if s.settlement == nil || t.Stake == 0 {
		return view, nil, nil
	}
	id := SettlementID(t)
	applied, err := s.settlement.SettleOnce(ctx, id, walletUpdates(t, settlement, id))
	if err != nil {
		s.logger.WithField("table_id", tableID).Error("settlement %s failed: %v", id, err)
		return nil, nil, fmt.Errorf("apply settlement: %w", err)
	}
	if !applied {
		return view, nil, nil
	}
	s.logger.WithField("table_id", tableID).Info("settlement %s paid", id)
	return view, []Event{{
		Kind:    EventSettlementPaid,
		Payload: SettlementPaidPayload{TableID: tableID, SettlementID: id, Settlement: view},
	}}, nil
}

// Table returns the table as identity may see it.
func (s *Service) Table(ctx context.Context, tableID uint64, identity string) (*TableView, error) {
	t, err := s.store.Table(ctx, tableID)
	if err != nil {
		return nil, err
	}
	return NewTableView(t, identity), nil
}

// SettlementID is stable for a table's round so retried payouts collapse into one.
func SettlementID(t *domain.Table) string {
	key := fmt.Sprintf("table:%d:deal:%d", t.ID, t.Deals)
	return uuid.NewSHA1(settlementNamespace, []byte(key)).String()
}

func walletUpdates(t *domain.Table, s domain.Settlement, settlementID string) []ports.WalletUpdate {
	updates := make([]ports.WalletUpdate, 0, domain.SeatCount)
	for seat, amount := range s.Amounts {
		if amount == 0 {
			continue
		}
		updates = append(updates, ports.WalletUpdate{
			UserID: payee(t, seat, amount),
			Amount: amount,
			Metadata: map[string]interface{}{
				"table_id":      t.ID,
				"seat":          seat,
				"settlement_id": settlementID,
			},
		})
	}
	return updates
}

// authorize resolves identity's seat and checks its seat token.
func (s *Service) authorize(t *domain.Table, identity, token string) (int, error) {
	seat := t.SeatOf(identity)
	if seat == domain.NoSeat {
		return domain.NoSeat, fmt.Errorf("%w: %s at table %d", domain.ErrNotSeated, identity, t.ID)
	}
	if s.tokens == nil {
		return seat, nil
	}
	granted, err := s.tokens.Verify(token, t.ID, identity)
	if err != nil {
		return domain.NoSeat, err
	}
	if granted != seat {
		return domain.NoSeat, fmt.Errorf("%w: token grants seat %d", ErrInvalidSeatToken, granted)
	}
	return seat, nil
}

func userAt(t *domain.Table, seat int) string {
	if seat < 0 || seat >= len(t.Seats) {
		return ""
	}
	return t.Seats[seat]
}
