package domain

import (
	"crypto/sha256"
	"encoding/binary"
	"math/rand/v2"
	"slices"
)

// Seed keys a deterministic shuffle.
type Seed [32]byte

// NewDeck returns the 54-card deck in ordinal order.
func NewDeck() []Card {
	deck := make([]Card, DeckSize)
	for i := range deck {
		deck[i] = Card(i)
	}
	return deck
}

// DeriveSeed mixes post-join entropy with the table identity, the seated players
// and the deal number. Every input is length-prefixed so distinct inputs never
// collide on concatenation.
func DeriveSeed(entropy []byte, tableID uint64, seats []string, deal int) Seed {
	h := sha256.New()
	writeField := func(b []byte) {
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], uint64(len(b)))
		h.Write(n[:])
		h.Write(b)
	}

	writeField([]byte("landlord/deal/v1"))
	writeField(entropy)
	var scratch [8]byte
	binary.BigEndian.PutUint64(scratch[:], tableID)
	writeField(scratch[:])
	for _, s := range seats {
		writeField([]byte(s))
	}
	binary.BigEndian.PutUint64(scratch[:], uint64(deal))
	writeField(scratch[:])

	var seed Seed
	copy(seed[:], h.Sum(nil))
	return seed
}

// Shuffle permutes the ordered deck with Fisher–Yates, drawing indices from a
// ChaCha8 stream keyed by seed. The result depends only on seed.
func Shuffle(seed Seed) []Card {
	deck := NewDeck()
	src := rand.NewChaCha8(seed)
	for i := len(deck) - 1; i > 0; i-- {
		j := uniform(src, uint64(i+1))
		deck[i], deck[j] = deck[j], deck[i]
	}
	return deck
}

// uniform returns a value in [0, bound) without modulo bias.
func uniform(src *rand.ChaCha8, bound uint64) uint64 {
	threshold := -bound % bound
	for {
		v := src.Uint64()
		if v >= threshold {
			return v % bound
		}
	}
}

// Deal splits a shuffled deck: 17 cards per seat in seat order, the last 3 to the kitty.
func Deal(shuffled []Card) (hands [SeatCount][]Card, kitty []Card) {
	for s := 0; s < SeatCount; s++ {
		hand := append([]Card(nil), shuffled[s*HandSize:(s+1)*HandSize]...)
		SortHand(hand)
		hands[s] = hand
	}
	kitty = append([]Card(nil), shuffled[SeatCount*HandSize:]...)
	SortHand(kitty)
	return hands, kitty
}

// SortHand orders cards by ascending power.
func SortHand(cards []Card) {
	slices.Sort(cards)
}
