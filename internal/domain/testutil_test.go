package domain

import (
	"fmt"
	"testing"
)

func cards(t *testing.T, names ...string) []Card {
	t.Helper()
	out, err := ParseCards(names)
	if err != nil {
		t.Fatalf("parse cards %v: %v", names, err)
	}
	return out
}

func testSeed(tableID uint64, deal int) Seed {
	return DeriveSeed([]byte("fixed-test-entropy"), tableID, []string{"alice", "bob", "carol"}, deal)
}

// dealtTable returns a table with three seats and a fresh deal in the bidding phase.
func dealtTable(t *testing.T, stake int64, rules Rules) *Table {
	t.Helper()
	table, err := NewTable(1, stake, rules)
	if err != nil {
		t.Fatalf("new table: %v", err)
	}
	for _, id := range []string{"alice", "bob", "carol"} {
		if _, _, err := table.Join(id, ""); err != nil {
			t.Fatalf("join %s: %v", id, err)
		}
	}
	if err := table.Deal(testSeed(1, 1)); err != nil {
		t.Fatalf("deal: %v", err)
	}
	return table
}

// playingTable returns a table in the playing phase with the given hands. Cards
// not in any hand are treated as already discarded so conservation holds.
func playingTable(t *testing.T, landlord int, hands [SeatCount][]Card) *Table {
	t.Helper()
	table := dealtTable(t, 10, Rules{})
	var held [DeckSize]bool
	for s := range hands {
		SortHand(hands[s])
		for _, c := range hands[s] {
			held[c] = true
		}
	}
	var discard []Card
	for c := Card(0); c < DeckSize; c++ {
		if !held[c] {
			discard = append(discard, c)
		}
	}
	table.Hands = hands
	table.Discard = discard
	table.Landlord = landlord
	table.HighestBid = 1
	table.Multiplier = 1
	table.KittyRevealed = true
	table.Phase = PhasePlaying
	table.CurrentTurn = landlord
	return table
}

func mustValidate(t *testing.T, table *Table) {
	t.Helper()
	if err := table.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

// autoplay drives a table to the end with a trivial policy: the leader plays its
// lowest card, followers answer with the lowest higher single or pass.
func autoplay(t *testing.T, table *Table) {
	t.Helper()
	for step := 0; table.Phase == PhasePlaying; step++ {
		if step > 500 {
			t.Fatalf("round did not terminate")
		}
		seat := table.CurrentTurn
		hand := table.Hands[seat]
		if table.LastPlay == nil || table.LastPlay.Seat == seat {
			if _, err := table.Play(seat, hand[:1]); err != nil {
				t.Fatalf("lead %s: %v", hand[0], err)
			}
			mustValidate(t, table)
			continue
		}
		played := false
		if table.LastPlay.Combination.Shape == ShapeSingle {
			for _, c := range hand {
				if c.Rank() > table.LastPlay.Combination.Key {
					if _, err := table.Play(seat, []Card{c}); err != nil {
						t.Fatalf("answer %s: %v", c, err)
					}
					played = true
					break
				}
			}
		}
		if !played {
			if _, err := table.Pass(seat); err != nil {
				t.Fatalf("pass seat %d: %v", seat, err)
			}
		}
		mustValidate(t, table)
	}
}

func describe(table *Table) string {
	return fmt.Sprintf("phase=%s turn=%d landlord=%d held=%v", table.Phase, table.CurrentTurn, table.Landlord, table.CardsHeld())
}
