package domain

import "fmt"

// Shape is the structural kind of a combination.
type Shape int

const (
	ShapeInvalid Shape = iota
	ShapeSingle
	ShapePair
	ShapeTriple
	ShapeTripleWithSingle
	ShapeTripleWithPair
	ShapeStraight     // five or more consecutive singles
	ShapePairStraight // three or more consecutive pairs
	ShapeAirplane     // two or more consecutive triples
	ShapeAirplaneWithSingles
	ShapeAirplaneWithPairs
	ShapeBomb
	ShapeRocket
)

var shapeNames = map[Shape]string{
	ShapeInvalid:             "invalid",
	ShapeSingle:              "single",
	ShapePair:                "pair",
	ShapeTriple:              "triple",
	ShapeTripleWithSingle:    "triple_with_single",
	ShapeTripleWithPair:      "triple_with_pair",
	ShapeStraight:            "straight",
	ShapePairStraight:        "pair_straight",
	ShapeAirplane:            "airplane",
	ShapeAirplaneWithSingles: "airplane_with_singles",
	ShapeAirplaneWithPairs:   "airplane_with_pairs",
	ShapeBomb:                "bomb",
	ShapeRocket:              "rocket",
}

func (s Shape) String() string {
	if name, ok := shapeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Shape(%d)", int(s))
}

const (
	minStraight     = 5
	minPairStraight = 3
	minAirplane     = 2
)

// Combination is a recognised play.
type Combination struct {
	Shape Shape
	// Key is the rank compared between combinations of the same shape: the
	// rank of the body for sets, the highest body rank for sequences.
	Key Rank
	// Units is the body length: sequence length, pair or triple count, 1 otherwise.
	Units int
	Cards []Card // sorted
}

// IsBomb reports whether the combination beats any ordinary play.
func (c Combination) IsBomb() bool {
	return c.Shape == ShapeBomb || c.Shape == ShapeRocket
}

// IdentifyCombination classifies cards. It returns ErrInvalidCombination when the
// cards form no recognised shape.
func IdentifyCombination(cards []Card) (Combination, error) {
	n := len(cards)
	if n == 0 {
		return Combination{}, fmt.Errorf("%w: no cards", ErrInvalidCombination)
	}
	sorted := append([]Card(nil), cards...)
	SortHand(sorted)
	counts := rankCounts(sorted)

	combo := func(shape Shape, key Rank, units int) (Combination, error) {
		return Combination{Shape: shape, Key: key, Units: units, Cards: sorted}, nil
	}

	if n == 2 && counts[RankBlackJoker] == 1 && counts[RankRedJoker] == 1 {
		return combo(ShapeRocket, RankRedJoker, 1)
	}

	if allSameRank(sorted) {
		switch n {
		case 1:
			return combo(ShapeSingle, sorted[0].Rank(), 1)
		case 2:
			return combo(ShapePair, sorted[0].Rank(), 1)
		case 3:
			return combo(ShapeTriple, sorted[0].Rank(), 1)
		case 4:
			return combo(ShapeBomb, sorted[0].Rank(), 1)
		}
	}

	if n == 4 || n == 5 {
		if body, ok := rankWithCount(counts, 3); ok {
			rest := without(counts, body, 3)
			if n == 4 {
				return combo(ShapeTripleWithSingle, body, 1)
			}
			if kicker, ok := rankWithCount(rest, 2); ok && !isJokerRank(kicker) {
				return combo(ShapeTripleWithPair, body, 1)
			}
		}
	}

	if top, ok := sequenceTop(counts, 1, n); ok && n >= minStraight {
		return combo(ShapeStraight, top, n)
	}
	if n%2 == 0 {
		if top, ok := sequenceTop(counts, 2, n/2); ok && n/2 >= minPairStraight {
			return combo(ShapePairStraight, top, n/2)
		}
	}

	if c, ok := identifyAirplane(counts, n); ok {
		c.Cards = sorted
		return c, nil
	}

	return Combination{}, fmt.Errorf("%w: %v", ErrInvalidCombination, CardStrings(sorted))
}

// identifyAirplane tries the bare, single-wing and pair-wing readings in that
// order, preferring the highest body for each.
func identifyAirplane(counts [RankRedJoker + 1]int, n int) (Combination, bool) {
	if n%3 == 0 && n/3 >= minAirplane {
		if top, ok := sequenceTop(counts, 3, n/3); ok {
			return Combination{Shape: ShapeAirplane, Key: top, Units: n / 3}, true
		}
	}
	if n%4 == 0 && n/4 >= minAirplane {
		k := n / 4
		for _, top := range tripleRuns(counts, k) {
			wings := counts
			for r := top - Rank(k) + 1; r <= top; r++ {
				wings[r] -= 3
			}
			if validSingleWings(wings, top, k) {
				return Combination{Shape: ShapeAirplaneWithSingles, Key: top, Units: k}, true
			}
		}
	}
	if n%5 == 0 && n/5 >= minAirplane {
		k := n / 5
		for _, top := range tripleRuns(counts, k) {
			wings := counts
			for r := top - Rank(k) + 1; r <= top; r++ {
				wings[r] -= 3
			}
			if validPairWings(wings, k) {
				return Combination{Shape: ShapeAirplaneWithPairs, Key: top, Units: k}, true
			}
		}
	}
	return Combination{}, false
}

// tripleRuns lists the top ranks of every run of k consecutive ranks below Two
// holding at least three cards each, highest first.
func tripleRuns(counts [RankRedJoker + 1]int, k int) []Rank {
	var tops []Rank
	for top := int(RankAce); top-k+1 >= int(RankThree); top-- {
		ok := true
		for r := top - k + 1; r <= top; r++ {
			if counts[r] < 3 {
				ok = false
				break
			}
		}
		if ok {
			tops = append(tops, Rank(top))
		}
	}
	return tops
}

func validSingleWings(wings [RankRedJoker + 1]int, top Rank, k int) bool {
	if wings[RankBlackJoker] == 1 && wings[RankRedJoker] == 1 {
		return false
	}
	for r := top - Rank(k) + 1; r <= top; r++ {
		if wings[r] != 0 {
			return false
		}
	}
	return true
}

// validPairWings expects the body already removed; a leftover body card shows up
// as a count of one and fails the pair check.
func validPairWings(wings [RankRedJoker + 1]int, k int) bool {
	pairs := 0
	for r, c := range wings {
		if c == 0 {
			continue
		}
		if c != 2 || isJokerRank(Rank(r)) {
			return false
		}
		pairs++
	}
	return pairs == k
}

// CanBeat reports whether next may answer prev in the same trick. A non-bomb
// answer must match shape and size; bombs beat non-bombs and lower bombs; the
// rocket beats everything.
func CanBeat(prev, next Combination) error {
	switch {
	case next.Shape == ShapeRocket:
		return nil
	case prev.Shape == ShapeRocket:
		return fmt.Errorf("%w: rocket cannot be beaten", ErrCombinationTooLow)
	case next.Shape == ShapeBomb && prev.Shape != ShapeBomb:
		return nil
	}

	if next.Shape != prev.Shape || next.Units != prev.Units || len(next.Cards) != len(prev.Cards) {
		return fmt.Errorf("%w: %s of %d cannot answer %s of %d",
			ErrInvalidCombination, next.Shape, len(next.Cards), prev.Shape, len(prev.Cards))
	}
	if next.Key <= prev.Key {
		return fmt.Errorf("%w: %s %s does not beat %s", ErrCombinationTooLow, next.Shape, next.Key, prev.Key)
	}
	return nil
}

func rankCounts(cards []Card) [RankRedJoker + 1]int {
	var counts [RankRedJoker + 1]int
	for _, c := range cards {
		counts[c.Rank()]++
	}
	return counts
}

// sequenceTop checks that the counted cards are exactly `units` consecutive ranks
// below Two with `width` cards each, returning the top rank.
func sequenceTop(counts [RankRedJoker + 1]int, width, units int) (Rank, bool) {
	if units < 2 {
		return 0, false
	}
	low, high := -1, -1
	for r, c := range counts {
		if c == 0 {
			continue
		}
		if c != width || Rank(r) >= RankTwo {
			return 0, false
		}
		if low < 0 {
			low = r
		}
		high = r
	}
	if low < 0 || high-low+1 != units {
		return 0, false
	}
	for r := low; r <= high; r++ {
		if counts[r] != width {
			return 0, false
		}
	}
	return Rank(high), true
}

func rankWithCount(counts [RankRedJoker + 1]int, n int) (Rank, bool) {
	for r, c := range counts {
		if c == n {
			return Rank(r), true
		}
	}
	return 0, false
}

func without(counts [RankRedJoker + 1]int, r Rank, n int) [RankRedJoker + 1]int {
	counts[r] -= n
	return counts
}

func allSameRank(cards []Card) bool {
	if len(cards) == 0 {
		return false
	}
	r := cards[0].Rank()
	for _, c := range cards {
		if c.Rank() != r {
			return false
		}
	}
	return true
}

func isJokerRank(r Rank) bool {
	return r == RankBlackJoker || r == RankRedJoker
}
