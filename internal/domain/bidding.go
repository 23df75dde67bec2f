package domain

import "fmt"

const (
	// BidPass declines to raise.
	BidPass = 0
	// MaxBid ends the auction immediately.
	MaxBid = 3
)

// BidOutcome tells the caller what the auction did after a bid.
type BidOutcome int

const (
	// BidContinues means another seat must act.
	BidContinues BidOutcome = iota
	// BidLandlordChosen means the table moved to PhasePlaying.
	BidLandlordChosen
	// BidRedeal means every seat passed; the caller must Deal a fresh seed in the same commit.
	BidRedeal
)

// Bid applies an auction action for seat. Passing drops the seat out of this deal's
// auction. Accepted raises are strictly increasing.
func (t *Table) Bid(seat, value int) (BidOutcome, error) {
	if t.Phase != PhaseBidding {
		return BidContinues, fmt.Errorf("%w: bidding requires %s, table is %s", ErrWrongPhase, PhaseBidding, t.Phase)
	}
	if seat != t.CurrentTurn {
		return BidContinues, ErrNotYourTurn
	}
	if value != BidPass && (value < 1 || value > MaxBid || value <= t.HighestBid) {
		return BidContinues, fmt.Errorf("%w: %d after %d", ErrInvalidBid, value, t.HighestBid)
	}

	t.Bids = append(t.Bids, Bid{Seat: seat, Value: value})
	if value == BidPass {
		t.Passed[seat] = true
	} else {
		t.HighestBid = value
	}

	if value == MaxBid {
		t.electLandlord(seat, value)
		return BidLandlordChosen, nil
	}

	active := t.activeBidders()
	switch {
	case len(active) == 0:
		if t.Rules.MaxRedeals > 0 && t.Redeals >= t.Rules.MaxRedeals {
			t.electLandlord(0, 1)
			return BidLandlordChosen, nil
		}
		t.Redeals++
		return BidRedeal, nil
	case len(active) == 1 && t.HighestBid > 0 && t.highestBidder() == active[0]:
		t.electLandlord(active[0], t.HighestBid)
		return BidLandlordChosen, nil
	}

	next := nextSeat(seat)
	for t.Passed[next] {
		next = nextSeat(next)
	}
	t.CurrentTurn = next
	return BidContinues, nil
}

func (t *Table) activeBidders() []int {
	var out []int
	for s := 0; s < SeatCount; s++ {
		if !t.Passed[s] {
			out = append(out, s)
		}
	}
	return out
}

func (t *Table) highestBidder() int {
	for i := len(t.Bids) - 1; i >= 0; i-- {
		if t.Bids[i].Value == t.HighestBid && t.HighestBid > 0 {
			return t.Bids[i].Seat
		}
	}
	return NoSeat
}

func (t *Table) electLandlord(seat, bid int) {
	t.Landlord = seat
	t.HighestBid = bid
	t.Multiplier = bid
	t.Hands[seat] = append(t.Hands[seat], t.Kitty...)
	SortHand(t.Hands[seat])
	t.KittyRevealed = true
	t.Phase = PhasePlaying
	t.CurrentTurn = seat
	t.LastPlay = nil
	t.PassStreak = 0
	t.Moves = nil
	t.PlayCounts = [SeatCount]int{}
}
