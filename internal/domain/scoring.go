package domain

import (
	"fmt"
	"math"
)

const basisPoints = 10000

const (
	// maxBombs counts every quad plus the rocket.
	maxBombs = 14
	// MaxMultiplier bounds a round: the top bid doubled per bomb and once more for a spring.
	MaxMultiplier = MaxBid << (maxBombs + 1)
	// MaxStake keeps the landlord's doubled unit, and its fee, within int64.
	MaxStake = math.MaxInt64 / (MaxMultiplier * 2 * basisPoints)
)

// Finalize computes the round's payouts once and caches them on the table.
// Later calls return the cached settlement unchanged.
func (t *Table) Finalize() (Settlement, error) {
	if t.Phase != PhaseFinished {
		return Settlement{}, fmt.Errorf("%w: finalize requires %s, table is %s", ErrWrongPhase, PhaseFinished, t.Phase)
	}
	if t.Settlement != nil {
		return *t.Settlement, nil
	}

	s := t.CalculateSettlement()
	t.Settlement = &s
	return s, nil
}

// CalculateSettlement derives payouts from the finished round without caching.
func (t *Table) CalculateSettlement() Settlement {
	s := Settlement{
		Winner:     t.Team(t.Winner),
		Multiplier: t.Multiplier,
	}
	if t.Rules.SpringDoubles && t.isSpring(s.Winner) {
		s.Spring = true
		s.Multiplier *= 2
	}

	unit := t.Stake * int64(s.Multiplier)
	for seat := 0; seat < SeatCount; seat++ {
		landlord := seat == t.Landlord
		switch {
		case s.Winner == TeamLandlord && landlord:
			s.Amounts[seat] = 2 * unit
		case s.Winner == TeamLandlord:
			s.Amounts[seat] = -unit
		case landlord:
			s.Amounts[seat] = -2 * unit
		default:
			s.Amounts[seat] = unit
		}
	}

	if t.Rules.FeeBasisPoints > 0 {
		for seat, amount := range s.Amounts {
			if amount <= 0 {
				continue
			}
			fee := amount * int64(t.Rules.FeeBasisPoints) / basisPoints
			s.Amounts[seat] -= fee
			s.Fee += fee
		}
	}
	return s
}

// isSpring reports a shut-out: farmers never played, or the landlord played only its lead.
func (t *Table) isSpring(winner Team) bool {
	switch winner {
	case TeamLandlord:
		for seat, n := range t.PlayCounts {
			if seat != t.Landlord && n > 0 {
				return false
			}
		}
		return true
	case TeamFarmers:
		return t.PlayCounts[t.Landlord] == 1
	}
	return false
}
