// Package record encodes table and game state records in protobuf wire format.
//
// Card placement is stored as a fixed 54-byte location map, one byte per card
// ordinal, so a record can never place a card twice. Hands and the kitty are
// rebuilt from the map in ordinal order; the discard order is rebuilt from the
// move history and must agree with the map.
package record

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"landlord/internal/domain"
)

// ErrMalformed is returned for records that fail to decode.
var ErrMalformed = errors.New("malformed record")

// FormatVersion is written into every record.
const FormatVersion = 1

// Location byte values. The high bit marks a card that was dealt to the kitty.
const (
	locUndealt   byte = 0
	locHand0     byte = 1
	locKitty     byte = 4
	locDiscard   byte = 5
	locFromKitty byte = 0x80
)

// Table fields.
const (
	fieldVersion       protowire.Number = 1
	fieldID            protowire.Number = 2
	fieldStake         protowire.Number = 3
	fieldRules         protowire.Number = 4
	fieldSeat          protowire.Number = 5
	fieldBeneficiary   protowire.Number = 6
	fieldPhase         protowire.Number = 7
	fieldLocations     protowire.Number = 8
	fieldKittyRevealed protowire.Number = 9
	fieldCurrentTurn   protowire.Number = 10
	fieldBid           protowire.Number = 11
	fieldPassed        protowire.Number = 12
	fieldHighestBid    protowire.Number = 13
	fieldLandlord      protowire.Number = 14
	fieldLastPlay      protowire.Number = 15
	fieldPassStreak    protowire.Number = 16
	fieldMultiplier    protowire.Number = 17
	fieldMove          protowire.Number = 18
	fieldPlayCount     protowire.Number = 19
	fieldSeed          protowire.Number = 20
	fieldDeals         protowire.Number = 21
	fieldRedeals       protowire.Number = 22
	fieldWinner        protowire.Number = 23
	fieldSettlement    protowire.Number = 24
)

// Nested message fields.
const (
	fieldRulesMaxRedeals protowire.Number = 1
	fieldRulesSpring     protowire.Number = 2
	fieldRulesFee        protowire.Number = 3

	fieldActionSeat  protowire.Number = 1
	fieldActionValue protowire.Number = 2
	fieldActionCards protowire.Number = 3

	fieldSettleWinner     protowire.Number = 1
	fieldSettleMultiplier protowire.Number = 2
	fieldSettleSpring     protowire.Number = 3
	fieldSettleAmount     protowire.Number = 4
	fieldSettleFee        protowire.Number = 5

	fieldStateOwner  protowire.Number = 2
	fieldStateNextID protowire.Number = 3
)

// EncodeGameState serializes the deployment record.
func EncodeGameState(gs *domain.GameState) []byte {
	var b []byte
	b = appendVarint(b, fieldVersion, FormatVersion)
	b = appendString(b, fieldStateOwner, gs.Owner)
	b = appendVarint(b, fieldStateNextID, gs.NextTableID)
	return b
}

// DecodeGameState parses a record produced by EncodeGameState.
func DecodeGameState(b []byte) (*domain.GameState, error) {
	gs := &domain.GameState{}
	var version uint64
	err := walk(b, func(num protowire.Number, typ protowire.Type, v uint64, raw []byte) error {
		switch num {
		case fieldVersion:
			version = v
		case fieldStateOwner:
			gs.Owner = string(raw)
		case fieldStateNextID:
			gs.NextTableID = v
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if version != FormatVersion {
		return nil, fmt.Errorf("%w: version %d", ErrMalformed, version)
	}
	if gs.Owner == "" || gs.NextTableID == 0 {
		return nil, fmt.Errorf("%w: incomplete game state", ErrMalformed)
	}
	return gs, nil
}

// Encode serializes a table.
func Encode(t *domain.Table) []byte {
	var b []byte
	b = appendVarint(b, fieldVersion, FormatVersion)
	b = appendVarint(b, fieldID, t.ID)
	b = appendVarint(b, fieldStake, uint64(t.Stake))

	var rules []byte
	rules = appendVarint(rules, fieldRulesMaxRedeals, uint64(t.Rules.MaxRedeals))
	rules = appendVarint(rules, fieldRulesSpring, protowire.EncodeBool(t.Rules.SpringDoubles))
	rules = appendVarint(rules, fieldRulesFee, uint64(t.Rules.FeeBasisPoints))
	b = appendBytes(b, fieldRules, rules)

	for i, s := range t.Seats {
		b = appendString(b, fieldSeat, s)
		b = appendString(b, fieldBeneficiary, t.Beneficiaries[i])
	}
	b = appendVarint(b, fieldPhase, uint64(t.Phase))
	b = appendBytes(b, fieldLocations, locations(t))
	b = appendVarint(b, fieldKittyRevealed, protowire.EncodeBool(t.KittyRevealed))
	b = appendSigned(b, fieldCurrentTurn, t.CurrentTurn)

	for _, bid := range t.Bids {
		var m []byte
		m = appendVarint(m, fieldActionSeat, uint64(bid.Seat))
		m = appendVarint(m, fieldActionValue, uint64(bid.Value))
		b = appendBytes(b, fieldBid, m)
	}
	var passed uint64
	for s, p := range t.Passed {
		if p {
			passed |= 1 << s
		}
	}
	b = appendVarint(b, fieldPassed, passed)
	b = appendVarint(b, fieldHighestBid, uint64(t.HighestBid))
	b = appendSigned(b, fieldLandlord, t.Landlord)

	if t.LastPlay != nil {
		var m []byte
		m = appendVarint(m, fieldActionSeat, uint64(t.LastPlay.Seat))
		m = appendBytes(m, fieldActionCards, ordinals(t.LastPlay.Combination.Cards))
		b = appendBytes(b, fieldLastPlay, m)
	}
	b = appendVarint(b, fieldPassStreak, uint64(t.PassStreak))
	b = appendVarint(b, fieldMultiplier, uint64(t.Multiplier))
	for _, mv := range t.Moves {
		var m []byte
		m = appendVarint(m, fieldActionSeat, uint64(mv.Seat))
		m = appendBytes(m, fieldActionCards, ordinals(mv.Cards))
		b = appendBytes(b, fieldMove, m)
	}
	for _, n := range t.PlayCounts {
		b = appendVarint(b, fieldPlayCount, uint64(n))
	}
	b = appendBytes(b, fieldSeed, t.Seed[:])
	b = appendVarint(b, fieldDeals, uint64(t.Deals))
	b = appendVarint(b, fieldRedeals, uint64(t.Redeals))
	b = appendSigned(b, fieldWinner, t.Winner)

	if s := t.Settlement; s != nil {
		var m []byte
		m = appendVarint(m, fieldSettleWinner, uint64(s.Winner))
		m = appendVarint(m, fieldSettleMultiplier, uint64(s.Multiplier))
		m = appendVarint(m, fieldSettleSpring, protowire.EncodeBool(s.Spring))
		for _, a := range s.Amounts {
			m = appendVarint(m, fieldSettleAmount, protowire.EncodeZigZag(a))
		}
		m = appendVarint(m, fieldSettleFee, uint64(s.Fee))
		b = appendBytes(b, fieldSettlement, m)
	}
	return b
}

func locations(t *domain.Table) []byte {
	loc := make([]byte, domain.DeckSize)
	for s, hand := range t.Hands {
		for _, c := range hand {
			loc[c] = locHand0 + byte(s)
		}
	}
	for _, c := range t.Discard {
		loc[c] = locDiscard
	}
	for _, c := range t.Kitty {
		if t.KittyRevealed {
			loc[c] |= locFromKitty
		} else {
			loc[c] = locKitty
		}
	}
	return loc
}

// Decode parses a record produced by Encode and checks the table invariants.
func Decode(b []byte) (*domain.Table, error) {
	t := &domain.Table{}
	var (
		version    uint64
		loc        []byte
		playCounts int
		amounts    int
	)
	err := walk(b, func(num protowire.Number, typ protowire.Type, v uint64, raw []byte) error {
		switch num {
		case fieldVersion:
			version = v
		case fieldID:
			t.ID = v
		case fieldStake:
			t.Stake = int64(v)
		case fieldRules:
			return walk(raw, func(num protowire.Number, _ protowire.Type, v uint64, _ []byte) error {
				switch num {
				case fieldRulesMaxRedeals:
					t.Rules.MaxRedeals = int(v)
				case fieldRulesSpring:
					t.Rules.SpringDoubles = protowire.DecodeBool(v)
				case fieldRulesFee:
					t.Rules.FeeBasisPoints = int(v)
				}
				return nil
			})
		case fieldSeat:
			t.Seats = append(t.Seats, string(raw))
		case fieldBeneficiary:
			t.Beneficiaries = append(t.Beneficiaries, string(raw))
		case fieldPhase:
			t.Phase = domain.Phase(v)
		case fieldLocations:
			loc = append([]byte(nil), raw...)
		case fieldKittyRevealed:
			t.KittyRevealed = protowire.DecodeBool(v)
		case fieldCurrentTurn:
			t.CurrentTurn = decodeSigned(v)
		case fieldBid:
			seat, value, _, err := decodeAction(raw)
			if err != nil {
				return err
			}
			t.Bids = append(t.Bids, domain.Bid{Seat: seat, Value: value})
		case fieldPassed:
			for s := range t.Passed {
				t.Passed[s] = v&(1<<s) != 0
			}
		case fieldHighestBid:
			t.HighestBid = int(v)
		case fieldLandlord:
			t.Landlord = decodeSigned(v)
		case fieldLastPlay:
			seat, _, cards, err := decodeAction(raw)
			if err != nil {
				return err
			}
			combo, err := domain.IdentifyCombination(cards)
			if err != nil {
				return fmt.Errorf("%w: last play: %v", ErrMalformed, err)
			}
			t.LastPlay = &domain.Play{Seat: seat, Combination: combo}
		case fieldPassStreak:
			t.PassStreak = int(v)
		case fieldMultiplier:
			t.Multiplier = int(v)
		case fieldMove:
			seat, _, cards, err := decodeAction(raw)
			if err != nil {
				return err
			}
			t.Moves = append(t.Moves, domain.Move{Seat: seat, Cards: cards})
		case fieldPlayCount:
			if playCounts >= domain.SeatCount {
				return fmt.Errorf("%w: too many play counts", ErrMalformed)
			}
			t.PlayCounts[playCounts] = int(v)
			playCounts++
		case fieldSeed:
			if len(raw) != len(t.Seed) {
				return fmt.Errorf("%w: seed is %d bytes", ErrMalformed, len(raw))
			}
			copy(t.Seed[:], raw)
		case fieldDeals:
			t.Deals = int(v)
		case fieldRedeals:
			t.Redeals = int(v)
		case fieldWinner:
			t.Winner = decodeSigned(v)
		case fieldSettlement:
			s := &domain.Settlement{}
			err := walk(raw, func(num protowire.Number, _ protowire.Type, v uint64, _ []byte) error {
				switch num {
				case fieldSettleWinner:
					s.Winner = domain.Team(v)
				case fieldSettleMultiplier:
					s.Multiplier = int(v)
				case fieldSettleSpring:
					s.Spring = protowire.DecodeBool(v)
				case fieldSettleAmount:
					if amounts >= domain.SeatCount {
						return fmt.Errorf("%w: too many settlement amounts", ErrMalformed)
					}
					s.Amounts[amounts] = protowire.DecodeZigZag(v)
					amounts++
				case fieldSettleFee:
					s.Fee = int64(v)
				}
				return nil
			})
			if err != nil {
				return err
			}
			t.Settlement = s
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if version != FormatVersion {
		return nil, fmt.Errorf("%w: version %d", ErrMalformed, version)
	}
	if len(t.Seats) != len(t.Beneficiaries) {
		return nil, fmt.Errorf("%w: %d seats, %d beneficiaries", ErrMalformed, len(t.Seats), len(t.Beneficiaries))
	}
	if err := placeCards(t, loc); err != nil {
		return nil, err
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// placeCards rebuilds hands, kitty and discard from the location map.
func placeCards(t *domain.Table, loc []byte) error {
	if len(loc) != domain.DeckSize {
		return fmt.Errorf("%w: location map is %d bytes", ErrMalformed, len(loc))
	}

	var discarded [domain.DeckSize]bool
	for c, l := range loc {
		card := domain.Card(c)
		if l&locFromKitty != 0 {
			t.Kitty = append(t.Kitty, card)
			l &^= locFromKitty
		}
		switch {
		case l == locUndealt:
		case l >= locHand0 && l < locHand0+domain.SeatCount:
			s := l - locHand0
			t.Hands[s] = append(t.Hands[s], card)
		case l == locKitty:
			t.Kitty = append(t.Kitty, card)
		case l == locDiscard:
			discarded[c] = true
		default:
			return fmt.Errorf("%w: card %s at location %d", ErrMalformed, card, l)
		}
	}

	for i, m := range t.Moves {
		for _, c := range m.Cards {
			if !discarded[c] {
				return fmt.Errorf("%w: move %d plays %s which is not discarded", ErrMalformed, i, c)
			}
			discarded[c] = false
			t.Discard = append(t.Discard, c)
		}
	}
	for c, d := range discarded {
		if d {
			return fmt.Errorf("%w: %s discarded without a move", ErrMalformed, domain.Card(c))
		}
	}
	return nil
}

func decodeAction(b []byte) (seat, value int, cards []domain.Card, err error) {
	err = walk(b, func(num protowire.Number, _ protowire.Type, v uint64, raw []byte) error {
		switch num {
		case fieldActionSeat:
			seat = int(v)
		case fieldActionValue:
			value = int(v)
		case fieldActionCards:
			for _, o := range raw {
				c, err := domain.CardFromOrdinal(o)
				if err != nil {
					return fmt.Errorf("%w: %v", ErrMalformed, err)
				}
				cards = append(cards, c)
			}
		}
		return nil
	})
	if seat < 0 || seat >= domain.SeatCount {
		err = errors.Join(err, fmt.Errorf("%w: seat %d", ErrMalformed, seat))
	}
	return seat, value, cards, err
}

// walk visits every field of a message. Varint fields report their value in v;
// length-delimited fields report their payload in raw. Other wire types are skipped.
func walk(b []byte, visit func(num protowire.Number, typ protowire.Type, v uint64, raw []byte) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]

		var (
			v   uint64
			raw []byte
		)
		switch typ {
		case protowire.VarintType:
			v, n = protowire.ConsumeVarint(b)
		case protowire.BytesType:
			raw, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
		}
		b = b[n:]

		if typ == protowire.VarintType || typ == protowire.BytesType {
			if err := visit(num, typ, v, raw); err != nil {
				return err
			}
		}
	}
	return nil
}

func ordinals(cards []domain.Card) []byte {
	out := make([]byte, len(cards))
	for i, c := range cards {
		out[i] = c.Ordinal()
	}
	return out
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendSigned(b []byte, num protowire.Number, v int) []byte {
	return appendVarint(b, num, protowire.EncodeZigZag(int64(v)))
}

func decodeSigned(v uint64) int {
	return int(protowire.DecodeZigZag(v))
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}
