package domain

import (
	"fmt"
	"strings"
)

// Rank is the play strength of a card, independent of suit.
type Rank uint8

const (
	RankThree Rank = iota
	RankFour
	RankFive
	RankSix
	RankSeven
	RankEight
	RankNine
	RankTen
	RankJack
	RankQueen
	RankKing
	RankAce
	RankTwo
	RankBlackJoker
	RankRedJoker
)

// Suit of a ranked card. Jokers carry no suit.
type Suit uint8

const (
	SuitSpades Suit = iota
	SuitHearts
	SuitDiamonds
	SuitClubs
	SuitNone
)

const (
	// DeckSize is the number of cards in play: 52 ranked cards plus two jokers.
	DeckSize = 54
	// HandSize is the number of cards dealt to each seat.
	HandSize = 17
	// KittySize is the number of undealt cards handed to the landlord.
	KittySize = 3

	ordinalBlackJoker = 52
	ordinalRedJoker   = 53
)

// Card is a card ordinal in 0..53: rank*4+suit for ranked cards, 52 and 53 for
// the black and red joker. Ordinal order equals play power.
type Card uint8

// NewCard builds the card for a ranked rank/suit pair or a joker rank.
func NewCard(rank Rank, suit Suit) (Card, error) {
	switch {
	case rank == RankBlackJoker:
		return ordinalBlackJoker, nil
	case rank == RankRedJoker:
		return ordinalRedJoker, nil
	case rank <= RankTwo && suit < SuitNone:
		return Card(uint8(rank)*4 + uint8(suit)), nil
	default:
		return 0, fmt.Errorf("%w: rank %d suit %d", ErrInvalidCard, rank, suit)
	}
}

// CardFromOrdinal decodes a persisted ordinal.
func CardFromOrdinal(o uint8) (Card, error) {
	if o >= DeckSize {
		return 0, fmt.Errorf("%w: ordinal %d", ErrInvalidCard, o)
	}
	return Card(o), nil
}

// Ordinal returns the persisted form of the card.
func (c Card) Ordinal() uint8 { return uint8(c) }

func (c Card) Rank() Rank {
	switch c {
	case ordinalBlackJoker:
		return RankBlackJoker
	case ordinalRedJoker:
		return RankRedJoker
	}
	return Rank(c / 4)
}

func (c Card) Suit() Suit {
	if c.IsJoker() {
		return SuitNone
	}
	return Suit(c % 4)
}

func (c Card) IsJoker() bool { return c >= ordinalBlackJoker }

var rankNames = [...]string{"3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A", "2", "BJ", "RJ"}

var suitNames = [...]string{"S", "H", "D", "C", ""}

func (r Rank) String() string {
	if int(r) < len(rankNames) {
		return rankNames[r]
	}
	return fmt.Sprintf("Rank(%d)", uint8(r))
}

// String renders the card as rank then suit, e.g. "10H", or "BJ"/"RJ" for jokers.
func (c Card) String() string {
	if c >= DeckSize {
		return fmt.Sprintf("Card(%d)", uint8(c))
	}
	return c.Rank().String() + suitNames[c.Suit()]
}

// ParseCard is the inverse of Card.String. Suit letters are case-insensitive.
func ParseCard(s string) (Card, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch s {
	case "BJ":
		return ordinalBlackJoker, nil
	case "RJ":
		return ordinalRedJoker, nil
	}
	if len(s) < 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCard, s)
	}
	rankPart, suitPart := s[:len(s)-1], s[len(s)-1:]

	suit := SuitNone
	for i, name := range suitNames[:SuitNone] {
		if name == suitPart {
			suit = Suit(i)
			break
		}
	}
	if suit == SuitNone {
		return 0, fmt.Errorf("%w: suit %q", ErrInvalidCard, suitPart)
	}
	for i, name := range rankNames[:RankBlackJoker] {
		if name == rankPart {
			return NewCard(Rank(i), suit)
		}
	}
	return 0, fmt.Errorf("%w: rank %q", ErrInvalidCard, rankPart)
}

// ParseCards parses a list of card strings, failing on the first invalid entry.
func ParseCards(in []string) ([]Card, error) {
	out := make([]Card, 0, len(in))
	for _, s := range in {
		c, err := ParseCard(s)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// CardStrings renders cards in their text form.
func CardStrings(cards []Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.String()
	}
	return out
}
