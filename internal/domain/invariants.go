package domain

import "fmt"

// Validate checks the structural invariants of a committed table. A failure means
// the engine is broken; callers must abort the commit.
func (t *Table) Validate() error {
	if len(t.Seats) > SeatCount {
		return fmt.Errorf("%w: %d seats", ErrInvariant, len(t.Seats))
	}
	if len(t.Beneficiaries) != len(t.Seats) {
		return fmt.Errorf("%w: %d beneficiaries for %d seats", ErrInvariant, len(t.Beneficiaries), len(t.Seats))
	}
	for i, s := range t.Seats {
		if t.SeatOf(s) != i {
			return fmt.Errorf("%w: identity %q seated twice", ErrInvariant, s)
		}
	}

	landlordSet := t.Landlord != NoSeat
	playing := t.Phase == PhasePlaying || t.Phase == PhaseFinished
	if landlordSet != playing {
		return fmt.Errorf("%w: landlord %d in phase %s", ErrInvariant, t.Landlord, t.Phase)
	}
	if landlordSet && (t.Landlord < 0 || t.Landlord >= SeatCount || !t.KittyRevealed) {
		return fmt.Errorf("%w: landlord %d kitty revealed %t", ErrInvariant, t.Landlord, t.KittyRevealed)
	}

	if t.Phase == PhaseWaitingForPlayers {
		if t.CurrentTurn != NoSeat {
			return fmt.Errorf("%w: turn %d before deal", ErrInvariant, t.CurrentTurn)
		}
		return nil
	}

	if err := t.checkConservation(); err != nil {
		return err
	}

	switch t.Phase {
	case PhaseBidding, PhasePlaying:
		if t.CurrentTurn < 0 || t.CurrentTurn >= SeatCount || len(t.Hands[t.CurrentTurn]) == 0 {
			return fmt.Errorf("%w: turn %d in phase %s", ErrInvariant, t.CurrentTurn, t.Phase)
		}
	case PhaseFinished:
		if t.CurrentTurn != NoSeat || t.Winner == NoSeat || len(t.Hands[t.Winner]) != 0 {
			return fmt.Errorf("%w: finished with turn %d winner %d", ErrInvariant, t.CurrentTurn, t.Winner)
		}
	}
	return nil
}

// checkConservation verifies every ordinal sits in exactly one place.
func (t *Table) checkConservation() error {
	var seen [DeckSize]bool
	total := 0
	place := func(cards []Card, where string) error {
		for _, c := range cards {
			if c >= DeckSize {
				return fmt.Errorf("%w: ordinal %d in %s", ErrInvariant, c, where)
			}
			if seen[c] {
				return fmt.Errorf("%w: card %s duplicated in %s", ErrInvariant, c, where)
			}
			seen[c] = true
			total++
		}
		return nil
	}

	for s, h := range t.Hands {
		if err := place(h, fmt.Sprintf("hand %d", s)); err != nil {
			return err
		}
	}
	if !t.KittyRevealed {
		if err := place(t.Kitty, "kitty"); err != nil {
			return err
		}
	}
	if err := place(t.Discard, "discard"); err != nil {
		return err
	}
	if total != DeckSize {
		return fmt.Errorf("%w: %d cards accounted for", ErrInvariant, total)
	}
	return nil
}
