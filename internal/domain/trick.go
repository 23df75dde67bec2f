package domain

import "fmt"

// Play lays cards from seat's hand. When the trick has a leader other than seat,
// the cards must beat it. Emptying the hand finishes the round.
func (t *Table) Play(seat int, cards []Card) (Combination, error) {
	if t.Phase != PhasePlaying {
		return Combination{}, fmt.Errorf("%w: play requires %s, table is %s", ErrWrongPhase, PhasePlaying, t.Phase)
	}
	if seat != t.CurrentTurn {
		return Combination{}, ErrNotYourTurn
	}
	if !HoldsAll(t.Hands[seat], cards) {
		return Combination{}, fmt.Errorf("%w: %v", ErrCardsNotOwned, CardStrings(cards))
	}

	combo, err := IdentifyCombination(cards)
	if err != nil {
		return Combination{}, err
	}
	if t.LastPlay != nil && t.LastPlay.Seat != seat {
		if err := CanBeat(t.LastPlay.Combination, combo); err != nil {
			return Combination{}, err
		}
	}

	t.Hands[seat] = RemoveCards(t.Hands[seat], combo.Cards)
	t.Discard = append(t.Discard, combo.Cards...)
	t.LastPlay = &Play{Seat: seat, Combination: combo}
	t.PassStreak = 0
	if combo.IsBomb() {
		t.Multiplier *= 2
	}
	t.Moves = append(t.Moves, Move{Seat: seat, Cards: append([]Card(nil), combo.Cards...)})
	t.PlayCounts[seat]++

	if len(t.Hands[seat]) == 0 {
		t.Phase = PhaseFinished
		t.Winner = seat
		t.CurrentTurn = NoSeat
		return combo, nil
	}
	t.CurrentTurn = nextSeat(seat)
	return combo, nil
}

// Pass declines to answer the trick. After two consecutive passes the trick
// clears and the last player leads again. It reports whether the trick cleared.
func (t *Table) Pass(seat int) (cleared bool, err error) {
	if t.Phase != PhasePlaying {
		return false, fmt.Errorf("%w: pass requires %s, table is %s", ErrWrongPhase, PhasePlaying, t.Phase)
	}
	if seat != t.CurrentTurn {
		return false, ErrNotYourTurn
	}
	if t.LastPlay == nil || t.LastPlay.Seat == seat {
		return false, ErrCannotPassAsLeader
	}

	t.Moves = append(t.Moves, Move{Seat: seat})
	t.PassStreak++
	t.CurrentTurn = nextSeat(seat)
	if t.PassStreak >= SeatCount-1 {
		t.LastPlay = nil
		t.PassStreak = 0
		return true, nil
	}
	return false, nil
}
