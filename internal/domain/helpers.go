package domain

// RemoveCards removes the specified cards from a hand and returns the updated hand.
func RemoveCards(hand []Card, toRemove []Card) []Card {
	if len(toRemove) == 0 || len(hand) == 0 {
		return hand
	}

	removeCounts := make(map[Card]int, len(toRemove))
	for _, card := range toRemove {
		removeCounts[card]++
	}

	updated := make([]Card, 0, len(hand))
	for _, card := range hand {
		if count, ok := removeCounts[card]; ok && count > 0 {
			removeCounts[card] = count - 1
			continue
		}
		updated = append(updated, card)
	}

	return updated
}

// HoldsAll reports whether hand contains every card in cards, each at most once.
func HoldsAll(hand []Card, cards []Card) bool {
	var held [DeckSize]bool
	for _, c := range hand {
		if c < DeckSize {
			held[c] = true
		}
	}
	for _, c := range cards {
		if c >= DeckSize || !held[c] {
			return false
		}
		held[c] = false
	}
	return true
}

// nextSeat returns the seat after seat, wrapping around the table.
func nextSeat(seat int) int {
	return (seat + 1) % SeatCount
}

// CardsHeld returns the number of cards per seat.
func (t *Table) CardsHeld() [SeatCount]int {
	var out [SeatCount]int
	for i, h := range t.Hands {
		out[i] = len(h)
	}
	return out
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := *t
	out.Seats = append([]string(nil), t.Seats...)
	out.Beneficiaries = append([]string(nil), t.Beneficiaries...)
	for i := range t.Hands {
		out.Hands[i] = append([]Card(nil), t.Hands[i]...)
	}
	out.Kitty = append([]Card(nil), t.Kitty...)
	out.Discard = append([]Card(nil), t.Discard...)
	out.Bids = append([]Bid(nil), t.Bids...)
	if t.Moves != nil {
		out.Moves = make([]Move, len(t.Moves))
		for i, m := range t.Moves {
			out.Moves[i] = Move{Seat: m.Seat, Cards: append([]Card(nil), m.Cards...)}
		}
	}
	if t.LastPlay != nil {
		lp := *t.LastPlay
		lp.Combination.Cards = append([]Card(nil), t.LastPlay.Combination.Cards...)
		out.LastPlay = &lp
	}
	if t.Settlement != nil {
		s := *t.Settlement
		out.Settlement = &s
	}
	return &out
}
