package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landlord/internal/domain"
	"landlord/internal/ports"
	"landlord/internal/ports/memory"
)

var players = []string{"alice", "bob", "carol"}

// countingEntropy yields a different fill byte on every read.
type countingEntropy struct{ n byte }

func (c *countingEntropy) Read(p []byte) (int, error) {
	c.n++
	for i := range p {
		p[i] = c.n
	}
	return len(p), nil
}

type fakeEconomy struct {
	balances map[string]int64
	err      error
}

func (f *fakeEconomy) GetBalance(_ context.Context, userID string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.balances[userID], nil
}

type fakeSettlement struct {
	applied map[string][]ports.WalletUpdate
	calls   int
}

func (f *fakeSettlement) SettleOnce(_ context.Context, id string, updates []ports.WalletUpdate) (bool, error) {
	f.calls++
	if _, ok := f.applied[id]; ok {
		return false, nil
	}
	f.applied[id] = updates
	return true, nil
}

type fakeAccounts map[string]bool

func (f fakeAccounts) AccountExists(_ context.Context, userID string) (bool, error) {
	return f[userID], nil
}

type harness struct {
	svc        *Service
	store      *memory.Store
	economy    *fakeEconomy
	settlement *fakeSettlement
	tokens     map[string]string
}

func newHarness(t *testing.T, stake int64, rules domain.Rules) *harness {
	t.Helper()
	h := &harness{
		store:      memory.New(),
		economy:    &fakeEconomy{balances: map[string]int64{"alice": 1000, "bob": 1000, "carol": 1000}},
		settlement: &fakeSettlement{applied: make(map[string][]ports.WalletUpdate)},
		tokens:     make(map[string]string),
	}
	registry := NewRegistry(h.store, h.economy, &countingEntropy{}, nil)
	accounts := fakeAccounts{}
	for _, id := range players {
		accounts[id] = true
		accounts["wallet-"+id] = true
	}
	h.svc = NewService(registry, NewSeatTokens("test-secret", "landlord", time.Hour), h.settlement, accounts)

	ctx := context.Background()
	_, err := h.svc.Initialize(ctx, "owner")
	require.NoError(t, err)
	_, err = h.svc.CreateTable(ctx, 1, stake, rules)
	require.NoError(t, err)
	return h
}

func (h *harness) joinAll(t *testing.T) []Event {
	t.Helper()
	var last []Event
	for i, id := range players {
		res, events, err := h.svc.JoinGame(context.Background(), 1, id, "wallet-"+id)
		require.NoError(t, err)
		require.Equal(t, i, res.Seat)
		require.NotEmpty(t, res.SeatToken)
		h.tokens[id] = res.SeatToken
		last = events
	}
	return last
}

func (h *harness) table(t *testing.T) *domain.Table {
	t.Helper()
	tbl, err := h.store.Table(context.Background(), 1)
	require.NoError(t, err)
	return tbl
}

func (h *harness) bid(t *testing.T, seat, value int) (*domain.Table, []Event) {
	t.Helper()
	id := players[seat]
	tbl, events, err := h.svc.Bid(context.Background(), 1, id, h.tokens[id], value)
	require.NoError(t, err)
	return tbl, events
}

// playOut leads with the lowest card and answers singles with the lowest higher card.
func (h *harness) playOut(t *testing.T) []Event {
	t.Helper()
	ctx := context.Background()
	var last []Event
	for step := 0; ; step++ {
		require.Less(t, step, 500, "round did not terminate")
		tbl := h.table(t)
		if tbl.Phase != domain.PhasePlaying {
			return last
		}
		seat := tbl.CurrentTurn
		id := tbl.Seats[seat]
		hand := tbl.Hands[seat]

		var play []domain.Card
		switch {
		case tbl.LastPlay == nil || tbl.LastPlay.Seat == seat:
			play = hand[:1]
		case tbl.LastPlay.Combination.Shape == domain.ShapeSingle:
			for _, c := range hand {
				if c.Rank() > tbl.LastPlay.Combination.Key {
					play = []domain.Card{c}
					break
				}
			}
		}

		var err error
		if play == nil {
			_, last, err = h.svc.PassTurn(ctx, 1, id, h.tokens[id])
		} else {
			_, last, err = h.svc.Play(ctx, 1, id, h.tokens[id], play)
		}
		require.NoError(t, err)
	}
}

func eventKinds(events []Event) []EventKind {
	out := make([]EventKind, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Kind)
	}
	return out
}

func TestThirdJoinDeals(t *testing.T) {
	h := newHarness(t, 10, domain.Rules{})
	events := h.joinAll(t)

	assert.Equal(t, []EventKind{EventPlayerJoined, EventGameStarted, EventHandDealt, EventHandDealt, EventHandDealt}, eventKinds(events))
	for _, ev := range events[2:] {
		payload := ev.Payload.(HandDealtPayload)
		assert.Len(t, payload.Hand, 17)
		assert.Equal(t, []string{payload.UserID}, ev.Recipients)
	}

	tbl := h.table(t)
	assert.Equal(t, domain.PhaseBidding, tbl.Phase)
	for seat := range tbl.Hands {
		assert.Len(t, tbl.Hands[seat], 17)
	}
	assert.Len(t, tbl.Kitty, 3)
	assert.Equal(t, 1, tbl.Deals)
}

func TestJoinChecksFunds(t *testing.T) {
	h := newHarness(t, 10, domain.Rules{})
	h.economy.balances["carol"] = 9
	ctx := context.Background()

	for _, id := range players[:2] {
		_, _, err := h.svc.JoinGame(ctx, 1, id, "")
		require.NoError(t, err)
	}
	_, _, err := h.svc.JoinGame(ctx, 1, "carol", "")
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	tbl := h.table(t)
	assert.Len(t, tbl.Seats, 2)
	assert.Equal(t, domain.PhaseWaitingForPlayers, tbl.Phase)

	h.economy.err = errors.New("wallet offline")
	_, _, err = h.svc.JoinGame(ctx, 1, "dave", "")
	require.Error(t, err)
	assert.Len(t, h.table(t).Seats, 2)
}

func TestJoinRejections(t *testing.T) {
	h := newHarness(t, 0, domain.Rules{})
	h.joinAll(t)
	ctx := context.Background()

	_, _, err := h.svc.JoinGame(ctx, 1, "alice", "")
	require.ErrorIs(t, err, domain.ErrTableFull)
	_, _, err = h.svc.JoinGame(ctx, 2, "dave", "")
	require.ErrorIs(t, err, domain.ErrTableNotFound)
}

func TestCreateTableRequiresNextID(t *testing.T) {
	h := newHarness(t, 10, domain.Rules{})
	ctx := context.Background()

	_, err := h.svc.CreateTable(ctx, 1, 10, domain.Rules{})
	require.ErrorIs(t, err, domain.ErrIDAlreadyUsed)
	_, err = h.svc.CreateTable(ctx, 3, 10, domain.Rules{})
	require.ErrorIs(t, err, domain.ErrIDAlreadyUsed)
	_, err = h.svc.CreateTable(ctx, 2, -1, domain.Rules{})
	require.ErrorIs(t, err, domain.ErrInvalidStake)

	tbl, err := h.svc.CreateTable(ctx, 2, 10, domain.Rules{})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), tbl.ID)

	gs, err := h.svc.GameState(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), gs.NextTableID)
}

func TestBiddingElectsLandlord(t *testing.T) {
	h := newHarness(t, 10, domain.Rules{})
	h.joinAll(t)

	h.bid(t, 0, 1)
	h.bid(t, 1, domain.BidPass)
	h.bid(t, 2, 2)
	tbl, events := h.bid(t, 0, domain.BidPass)

	assert.Equal(t, []EventKind{EventBidPlaced, EventLandlordElected, EventKittyRevealed}, eventKinds(events))
	assert.Equal(t, []string{"carol"}, events[2].Recipients)
	assert.Equal(t, 2, tbl.Landlord)
	assert.Len(t, tbl.Hands[2], 20)
	assert.Equal(t, domain.PhasePlaying, tbl.Phase)
	assert.Equal(t, 2, tbl.CurrentTurn)
}

func TestAllPassRedealsWithFreshEntropy(t *testing.T) {
	h := newHarness(t, 10, domain.Rules{})
	h.joinAll(t)
	first := h.table(t).Seed

	h.bid(t, 0, domain.BidPass)
	h.bid(t, 1, domain.BidPass)
	tbl, events := h.bid(t, 2, domain.BidPass)

	assert.Equal(t, []EventKind{EventBidPlaced, EventRedealt, EventHandDealt, EventHandDealt, EventHandDealt}, eventKinds(events))
	assert.Equal(t, domain.PhaseBidding, tbl.Phase)
	assert.Equal(t, 2, tbl.Deals)
	assert.Equal(t, 1, tbl.Redeals)
	assert.NotEqual(t, first, tbl.Seed)
	assert.Empty(t, tbl.Bids)
}

func TestSeatTokenGuardsActions(t *testing.T) {
	h := newHarness(t, 10, domain.Rules{})
	h.joinAll(t)
	ctx := context.Background()

	tests := map[string]struct {
		identity string
		token    string
		want     error
	}{
		"missing token":    {identity: "alice", token: "", want: ErrInvalidSeatToken},
		"another's token":  {identity: "alice", token: h.tokens["bob"], want: ErrInvalidSeatToken},
		"garbage token":    {identity: "alice", token: "not-a-jwt", want: ErrInvalidSeatToken},
		"unseated player":  {identity: "mallory", token: h.tokens["alice"], want: domain.ErrNotSeated},
		"out of turn seat": {identity: "bob", token: h.tokens["bob"], want: domain.ErrNotYourTurn},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := h.svc.Bid(ctx, 1, tt.identity, tt.token, 1)
			require.ErrorIs(t, err, tt.want)
		})
	}
	assert.Empty(t, h.table(t).Bids, "rejected bids leave no trace")
}

func TestPlayRejectsIllegalMove(t *testing.T) {
	h := newHarness(t, 10, domain.Rules{})
	h.joinAll(t)
	tbl, _ := h.bid(t, 0, domain.MaxBid)
	ctx := context.Background()

	_, _, err := h.svc.PassTurn(ctx, 1, "alice", h.tokens["alice"])
	require.ErrorIs(t, err, domain.ErrCannotPassAsLeader)

	_, _, err = h.svc.Play(ctx, 1, "alice", h.tokens["alice"], tbl.Hands[1][:1])
	require.ErrorIs(t, err, domain.ErrCardsNotOwned)

	after := h.table(t)
	assert.Empty(t, after.Moves)
	assert.Len(t, after.Hands[0], 20)
}

func TestFullRoundSettlesOnce(t *testing.T) {
	h := newHarness(t, 10, domain.Rules{SpringDoubles: true})
	h.joinAll(t)
	h.bid(t, 0, domain.MaxBid)

	ctx := context.Background()
	_, _, err := h.svc.Finalize(ctx, 1)
	require.ErrorIs(t, err, domain.ErrWrongPhase)

	events := h.playOut(t)
	require.Equal(t, EventGameEnded, events[len(events)-1].Kind)

	view, events, err := h.svc.Finalize(ctx, 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EventSettlementPaid, events[0].Kind)

	var sum int64
	for _, amount := range view.Amounts {
		sum += amount
	}
	assert.Zero(t, sum+view.Fee)
	assert.Equal(t, h.table(t).Settlement.Amounts[:], view.SeatAmounts)
	require.Len(t, h.settlement.applied, 1)
	for id, updates := range h.settlement.applied {
		assert.Equal(t, SettlementID(h.table(t)), id)
		require.Len(t, updates, 3)
		for _, u := range updates {
			assert.Equal(t, view.Amounts[u.UserID], u.Amount)
		}
	}

	again, events, err := h.svc.Finalize(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Equal(t, view, again)
	assert.Equal(t, 2, h.settlement.calls)
	assert.Len(t, h.settlement.applied, 1)

	recomputed, err := domain.Replay(h.table(t))
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseFinished, recomputed.Phase)
}

func TestZeroStakeSkipsPayout(t *testing.T) {
	h := newHarness(t, 0, domain.Rules{})
	h.joinAll(t)
	h.bid(t, 0, 1)
	h.bid(t, 1, domain.BidPass)
	h.bid(t, 2, domain.BidPass)
	h.playOut(t)

	view, events, err := h.svc.Finalize(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Zero(t, h.settlement.calls)
	for _, amount := range view.Amounts {
		assert.Zero(t, amount)
	}
}

func TestTableViewHidesOtherHands(t *testing.T) {
	h := newHarness(t, 10, domain.Rules{})
	h.joinAll(t)
	ctx := context.Background()

	view, err := h.svc.Table(ctx, 1, "bob")
	require.NoError(t, err)
	assert.Len(t, view.Hand, 17)
	assert.Empty(t, view.Kitty)

	spectator, err := h.svc.Table(ctx, 1, "mallory")
	require.NoError(t, err)
	assert.Empty(t, spectator.Hand)
	require.Len(t, spectator.Seats, 3)
	for _, seat := range spectator.Seats {
		assert.Equal(t, 17, seat.CardsLeft)
	}
}

func TestLossesDebitThePlayer(t *testing.T) {
	h := newHarness(t, 10, domain.Rules{})
	h.joinAll(t)
	h.bid(t, 0, 2)
	h.bid(t, 1, domain.BidPass)
	h.bid(t, 2, domain.BidPass)
	h.playOut(t)

	view, _, err := h.svc.Finalize(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, h.settlement.applied, 1)

	var debits, credits int
	for _, updates := range h.settlement.applied {
		for _, u := range updates {
			seat := u.Metadata["seat"].(int)
			assert.Equal(t, view.SeatAmounts[seat], u.Amount)
			if u.Amount < 0 {
				debits++
				assert.Equal(t, players[seat], u.UserID, "a loss is paid by the seated player")
			} else {
				credits++
				assert.Equal(t, "wallet-"+players[seat], u.UserID, "a gain goes to the beneficiary")
			}
		}
	}
	assert.NotZero(t, debits)
	assert.NotZero(t, credits)
	for seat, id := range players {
		if view.SeatAmounts[seat] < 0 {
			assert.Equal(t, view.SeatAmounts[seat], view.Amounts[id])
			assert.NotContains(t, view.Amounts, "wallet-"+id)
		}
	}
}

func TestJoinRejectsUnknownBeneficiary(t *testing.T) {
	h := newHarness(t, 10, domain.Rules{})
	ctx := context.Background()

	_, _, err := h.svc.JoinGame(ctx, 1, "alice", "stranger")
	require.ErrorIs(t, err, ErrUnknownBeneficiary)
	assert.Empty(t, h.table(t).Seats)

	res, _, err := h.svc.JoinGame(ctx, 1, "alice", "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Seat)
}
