package domain

import (
	"errors"
	"testing"
)

func TestIdentifyCombination(t *testing.T) {
	tests := []struct {
		name     string
		cards    []string
		expected Shape
		key      Rank
		units    int
	}{
		{name: "Single", cards: []string{"7H"}, expected: ShapeSingle, key: RankSeven, units: 1},
		{name: "Single joker", cards: []string{"RJ"}, expected: ShapeSingle, key: RankRedJoker, units: 1},
		{name: "Pair", cards: []string{"9S", "9D"}, expected: ShapePair, key: RankNine, units: 1},
		{name: "Triple", cards: []string{"QS", "QH", "QC"}, expected: ShapeTriple, key: RankQueen, units: 1},
		{name: "Triple with single", cards: []string{"5S", "5H", "5C", "KD"}, expected: ShapeTripleWithSingle, key: RankFive, units: 1},
		{name: "Triple with pair", cards: []string{"5S", "5H", "5C", "KD", "KS"}, expected: ShapeTripleWithPair, key: RankFive, units: 1},
		{name: "Straight 5", cards: []string{"3S", "4H", "5C", "6D", "7S"}, expected: ShapeStraight, key: RankSeven, units: 5},
		{name: "Straight to ace", cards: []string{"10S", "JH", "QC", "KD", "AS", "9S"}, expected: ShapeStraight, key: RankAce, units: 6},
		{name: "Pair straight", cards: []string{"3S", "3H", "4S", "4H", "5S", "5H"}, expected: ShapePairStraight, key: RankFive, units: 3},
		{name: "Airplane bare", cards: []string{"7S", "7H", "7C", "8S", "8H", "8C"}, expected: ShapeAirplane, key: RankEight, units: 2},
		{name: "Airplane with singles", cards: []string{"7S", "7H", "7C", "8S", "8H", "8C", "3D", "JD"}, expected: ShapeAirplaneWithSingles, key: RankEight, units: 2},
		{name: "Airplane with singles same rank wings", cards: []string{"7S", "7H", "7C", "8S", "8H", "8C", "3D", "3S"}, expected: ShapeAirplaneWithSingles, key: RankEight, units: 2},
		{name: "Airplane with pairs", cards: []string{"7S", "7H", "7C", "8S", "8H", "8C", "3D", "3S", "2D", "2S"}, expected: ShapeAirplaneWithPairs, key: RankEight, units: 2},
		{name: "Airplane prefers bare reading", cards: []string{"3S", "3H", "3C", "4S", "4H", "4C", "5S", "5H", "5C", "6S", "6H", "6C"}, expected: ShapeAirplane, key: RankSix, units: 4},
		{name: "Bomb", cards: []string{"4S", "4H", "4D", "4C"}, expected: ShapeBomb, key: RankFour, units: 1},
		{name: "Rocket", cards: []string{"BJ", "RJ"}, expected: ShapeRocket, key: RankRedJoker, units: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			combo, err := IdentifyCombination(cards(t, tt.cards...))
			if err != nil {
				t.Fatalf("IdentifyCombination: %v", err)
			}
			if combo.Shape != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, combo.Shape)
			}
			if combo.Key != tt.key {
				t.Errorf("key = %v, want %v", combo.Key, tt.key)
			}
			if combo.Units != tt.units {
				t.Errorf("units = %d, want %d", combo.Units, tt.units)
			}
			if len(combo.Cards) != len(tt.cards) {
				t.Errorf("cards = %d, want %d", len(combo.Cards), len(tt.cards))
			}
		})
	}
}

func TestIdentifyCombinationRejects(t *testing.T) {
	tests := []struct {
		name  string
		cards []string
	}{
		{name: "Empty", cards: nil},
		{name: "Two different singles", cards: []string{"3S", "4S"}},
		{name: "Straight too short", cards: []string{"3S", "4H", "5C", "6D"}},
		{name: "Straight with 2", cards: []string{"JS", "QH", "KC", "AD", "2S"}},
		{name: "Straight with joker", cards: []string{"10S", "JS", "QH", "KC", "AD", "BJ"}},
		{name: "Straight with gap", cards: []string{"3S", "4H", "5C", "6D", "8S"}},
		{name: "Two consecutive pairs", cards: []string{"3S", "3H", "4S", "4H"}},
		{name: "Pair straight with 2", cards: []string{"KS", "KH", "AS", "AH", "2S", "2H"}},
		{name: "Triple with split kicker", cards: []string{"5S", "5H", "5C", "KD", "QS"}},
		{name: "Airplane with 2s", cards: []string{"AS", "AH", "AC", "2S", "2H", "2C"}},
		{name: "Airplane wing shares body rank", cards: []string{"7S", "7H", "7C", "7D", "8S", "8H", "8C", "3D"}},
		{name: "Airplane rocket wings", cards: []string{"7S", "7H", "7C", "8S", "8H", "8C", "BJ", "RJ"}},
		{name: "Airplane four of a kind as pair wings", cards: []string{"7S", "7H", "7C", "8S", "8H", "8C", "3D", "3S", "3H", "3C"}},
		{name: "Two bombs", cards: []string{"3S", "3H", "3D", "3C", "4S", "4H", "4D", "4C"}},
		{name: "Four with two", cards: []string{"9S", "9H", "9D", "9C", "3S", "5H"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var in []Card
			if len(tt.cards) > 0 {
				in = cards(t, tt.cards...)
			}
			combo, err := IdentifyCombination(in)
			if !errors.Is(err, ErrInvalidCombination) {
				t.Fatalf("expected ErrInvalidCombination, got %v (%v)", err, combo.Shape)
			}
		})
	}
}

func TestCanBeat(t *testing.T) {
	tests := []struct {
		name     string
		prev     []string
		new      []string
		expected error
	}{
		{name: "Higher single", prev: []string{"3S"}, new: []string{"4S"}, expected: nil},
		{name: "Same rank single", prev: []string{"3S"}, new: []string{"3C"}, expected: ErrCombinationTooLow},
		{name: "Red joker over black joker", prev: []string{"BJ"}, new: []string{"RJ"}, expected: nil},
		{name: "Two over ace", prev: []string{"AS"}, new: []string{"2D"}, expected: nil},
		{name: "Lower pair", prev: []string{"9S", "9H"}, new: []string{"8S", "8H"}, expected: ErrCombinationTooLow},
		{name: "Pair cannot answer triple", prev: []string{"9S", "9H", "9D"}, new: []string{"10S", "10H"}, expected: ErrInvalidCombination},
		{name: "Straight length must match", prev: []string{"3S", "4H", "5C", "6D", "7S"}, new: []string{"4S", "5H", "6C", "7D", "8S", "9S"}, expected: ErrInvalidCombination},
		{name: "Higher straight", prev: []string{"3S", "4H", "5C", "6D", "7S"}, new: []string{"4S", "5H", "6C", "7D", "8S"}, expected: nil},
		{name: "Triple with pair vs triple with single", prev: []string{"5S", "5H", "5C", "3D"}, new: []string{"6S", "6H", "6C", "3S", "3H"}, expected: ErrInvalidCombination},
		{name: "Airplane wings must match", prev: []string{"7S", "7H", "7C", "8S", "8H", "8C"}, new: []string{"9S", "9H", "9C", "10S", "10H", "10C", "3D", "4D"}, expected: ErrInvalidCombination},
		{name: "Bomb beats straight", prev: []string{"3S", "4H", "5C", "6D", "7S"}, new: []string{"4S", "4H", "4D", "4C"}, expected: nil},
		{name: "Bomb beats pair of twos", prev: []string{"2S", "2H"}, new: []string{"3S", "3H", "3D", "3C"}, expected: nil},
		{name: "Higher bomb", prev: []string{"3S", "3H", "3D", "3C"}, new: []string{"4S", "4H", "4D", "4C"}, expected: nil},
		{name: "Lower bomb", prev: []string{"5S", "5H", "5D", "5C"}, new: []string{"4S", "4H", "4D", "4C"}, expected: ErrCombinationTooLow},
		{name: "Single cannot answer bomb", prev: []string{"5S", "5H", "5D", "5C"}, new: []string{"RJ"}, expected: ErrInvalidCombination},
		{name: "Rocket beats bomb", prev: []string{"2S", "2H", "2D", "2C"}, new: []string{"BJ", "RJ"}, expected: nil},
		{name: "Nothing beats rocket", prev: []string{"BJ", "RJ"}, new: []string{"2S", "2H", "2D", "2C"}, expected: ErrCombinationTooLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev, err := IdentifyCombination(cards(t, tt.prev...))
			if err != nil {
				t.Fatalf("prev: %v", err)
			}
			next, err := IdentifyCombination(cards(t, tt.new...))
			if err != nil {
				t.Fatalf("new: %v", err)
			}
			got := CanBeat(prev, next)
			if tt.expected == nil && got != nil {
				t.Fatalf("CanBeat() = %v, want nil", got)
			}
			if tt.expected != nil && !errors.Is(got, tt.expected) {
				t.Fatalf("CanBeat() = %v, want %v", got, tt.expected)
			}
		})
	}
}
