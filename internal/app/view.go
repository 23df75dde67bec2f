package app

import "landlord/internal/domain"

// TableView is a table as one player may see it: only the viewer's own hand,
// and the kitty only for the landlord once it has been taken.
type TableView struct {
	ID          uint64          `json:"id"`
	Stake       int64           `json:"stake"`
	Phase       string          `json:"phase"`
	Seats       []SeatView      `json:"seats"`
	CurrentTurn int             `json:"current_turn"`
	HighestBid  int             `json:"highest_bid"`
	Landlord    int             `json:"landlord"`
	Multiplier  int             `json:"multiplier"`
	Deal        int             `json:"deal"`
	LastPlay    *PlayView       `json:"last_play,omitempty"`
	Hand        []string        `json:"hand,omitempty"`
	Kitty       []string        `json:"kitty,omitempty"`
	Winner      int             `json:"winner"`
	Settlement  *SettlementView `json:"settlement,omitempty"`
}

type SeatView struct {
	UserID      string `json:"user_id"`
	Beneficiary string `json:"beneficiary"`
	CardsLeft   int    `json:"cards_left"`
	Passed      bool   `json:"passed,omitempty"`
}

type PlayView struct {
	Seat  int      `json:"seat"`
	Shape string   `json:"shape"`
	Cards []string `json:"cards"`
}

type SettlementView struct {
	Winner      string           `json:"winner"`
	Multiplier  int              `json:"multiplier"`
	Spring      bool             `json:"spring"`
	Fee         int64            `json:"fee"`
	SeatAmounts []int64          `json:"seat_amounts"` // seat -> signed payout
	Amounts     map[string]int64 `json:"amounts"`      // account -> wallet change
}

// NewTableView renders t for viewer, who may be unseated.
func NewTableView(t *domain.Table, viewer string) *TableView {
	v := &TableView{
		ID:          t.ID,
		Stake:       t.Stake,
		Phase:       t.Phase.String(),
		CurrentTurn: t.CurrentTurn,
		HighestBid:  t.HighestBid,
		Landlord:    t.Landlord,
		Multiplier:  t.Multiplier,
		Deal:        t.Deals,
		Winner:      t.Winner,
	}
	for seat, userID := range t.Seats {
		v.Seats = append(v.Seats, SeatView{
			UserID:      userID,
			Beneficiary: t.Beneficiaries[seat],
			CardsLeft:   len(t.Hands[seat]),
			Passed:      t.Phase == domain.PhaseBidding && t.Passed[seat],
		})
	}
	if t.LastPlay != nil {
		v.LastPlay = &PlayView{
			Seat:  t.LastPlay.Seat,
			Shape: t.LastPlay.Combination.Shape.String(),
			Cards: domain.CardStrings(t.LastPlay.Combination.Cards),
		}
	}
	if seat := t.SeatOf(viewer); seat != domain.NoSeat {
		v.Hand = domain.CardStrings(t.Hands[seat])
		if t.KittyRevealed && seat == t.Landlord {
			v.Kitty = domain.CardStrings(t.Kitty)
		}
	}
	if t.Settlement != nil {
		v.Settlement = NewSettlementView(t, *t.Settlement)
	}
	return v
}

// NewSettlementView reports payouts per seat and the wallet change per account.
func NewSettlementView(t *domain.Table, s domain.Settlement) *SettlementView {
	out := &SettlementView{
		Winner:      s.Winner.String(),
		Multiplier:  s.Multiplier,
		Spring:      s.Spring,
		Fee:         s.Fee,
		SeatAmounts: make([]int64, len(t.Seats)),
		Amounts:     make(map[string]int64, len(t.Seats)),
	}
	for seat := range t.Seats {
		amount := s.Amounts[seat]
		out.SeatAmounts[seat] = amount
		out.Amounts[payee(t, seat, amount)] += amount
	}
	return out
}

// payee is the account a seat's payout moves: losses are debited from the player,
// gains go to the beneficiary named at join.
func payee(t *domain.Table, seat int, amount int64) string {
	if amount < 0 {
		return t.Seats[seat]
	}
	return t.Beneficiaries[seat]
}
