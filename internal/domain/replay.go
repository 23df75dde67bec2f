package domain

import (
	"fmt"
	"slices"
)

// Replay rebuilds the current deal of rec from its seed, bids and moves and
// checks that the result matches rec. Any observer holding the record can run it.
func Replay(rec *Table) (*Table, error) {
	t, err := NewTable(rec.ID, rec.Stake, rec.Rules)
	if err != nil {
		return nil, err
	}
	for i, identity := range rec.Seats {
		if _, _, err := t.Join(identity, rec.Beneficiaries[i]); err != nil {
			return nil, fmt.Errorf("replay join %d: %w", i, err)
		}
	}
	if rec.Phase == PhaseWaitingForPlayers {
		return t, compareReplay(t, rec)
	}

	t.Deals = rec.Deals - 1
	t.Redeals = rec.Redeals
	if err := t.Deal(rec.Seed); err != nil {
		return nil, fmt.Errorf("replay deal: %w", err)
	}

	for i, b := range rec.Bids {
		outcome, err := t.Bid(b.Seat, b.Value)
		if err != nil {
			return nil, fmt.Errorf("replay bid %d: %w", i, err)
		}
		if outcome == BidRedeal {
			return nil, fmt.Errorf("%w: bid %d forces a redeal inside the recorded deal", ErrReplayMismatch, i)
		}
	}

	for i, m := range rec.Moves {
		if m.IsPass() {
			_, err = t.Pass(m.Seat)
		} else {
			_, err = t.Play(m.Seat, m.Cards)
		}
		if err != nil {
			return nil, fmt.Errorf("replay move %d: %w", i, err)
		}
	}

	if rec.Settlement != nil {
		if _, err := t.Finalize(); err != nil {
			return nil, fmt.Errorf("replay finalize: %w", err)
		}
	}
	return t, compareReplay(t, rec)
}

func compareReplay(got, want *Table) error {
	mismatch := func(field string) error {
		return fmt.Errorf("%w: %s", ErrReplayMismatch, field)
	}
	switch {
	case got.Phase != want.Phase:
		return mismatch("phase")
	case got.CurrentTurn != want.CurrentTurn:
		return mismatch("current turn")
	case got.Landlord != want.Landlord:
		return mismatch("landlord")
	case got.HighestBid != want.HighestBid:
		return mismatch("highest bid")
	case got.Multiplier != want.Multiplier:
		return mismatch("multiplier")
	case got.PassStreak != want.PassStreak:
		return mismatch("pass streak")
	case got.Winner != want.Winner:
		return mismatch("winner")
	case got.KittyRevealed != want.KittyRevealed:
		return mismatch("kitty revealed")
	case got.Passed != want.Passed:
		return mismatch("passed")
	case got.PlayCounts != want.PlayCounts:
		return mismatch("play counts")
	case !slices.Equal(got.Kitty, want.Kitty):
		return mismatch("kitty")
	case !slices.Equal(got.Discard, want.Discard):
		return mismatch("discard")
	}
	for s := range got.Hands {
		if !slices.Equal(got.Hands[s], want.Hands[s]) {
			return mismatch(fmt.Sprintf("hand %d", s))
		}
	}
	if (got.LastPlay == nil) != (want.LastPlay == nil) {
		return mismatch("last play")
	}
	if got.LastPlay != nil && (got.LastPlay.Seat != want.LastPlay.Seat ||
		!slices.Equal(got.LastPlay.Combination.Cards, want.LastPlay.Combination.Cards)) {
		return mismatch("last play")
	}
	if (got.Settlement == nil) != (want.Settlement == nil) {
		return mismatch("settlement")
	}
	if got.Settlement != nil && *got.Settlement != *want.Settlement {
		return mismatch("settlement")
	}
	return nil
}
