package domain

import (
	"fmt"
	"strings"
)

// Phase represents the lifecycle stage of a table. Transitions only move forward.
type Phase uint8

const (
	// PhaseWaitingForPlayers is the pre-deal state where seats fill up.
	PhaseWaitingForPlayers Phase = iota
	// PhaseBidding runs the landlord auction.
	PhaseBidding
	// PhasePlaying runs trick play.
	PhasePlaying
	// PhaseFinished is terminal; the table only accepts finalize and reads.
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseWaitingForPlayers:
		return "waiting_for_players"
	case PhaseBidding:
		return "bidding"
	case PhasePlaying:
		return "playing"
	case PhaseFinished:
		return "finished"
	}
	return fmt.Sprintf("Phase(%d)", uint8(p))
}

const (
	// SeatCount is the fixed number of seats at a table.
	SeatCount = 3
	// NoSeat marks an unset seat reference.
	NoSeat = -1
)

// Rules are table options frozen at creation so a record always replays the same way.
type Rules struct {
	// MaxRedeals caps all-pass re-deals; 0 means unlimited. Once exhausted, an
	// all-pass auction makes seat 0 landlord at bid 1.
	MaxRedeals int
	// SpringDoubles doubles the payout when the losing side never got a play in.
	SpringDoubles bool
	// FeeBasisPoints is withheld from each winner's gain.
	FeeBasisPoints int
}

// GameState is the deployment-wide record holding the table id allocator.
type GameState struct {
	Owner       string
	NextTableID uint64
}

// NewGameState returns the initial record for an owner.
func NewGameState(owner string) (*GameState, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, fmt.Errorf("%w: owner is required", ErrInvalidIdentity)
	}
	return &GameState{Owner: owner, NextTableID: 1}, nil
}

// Allocate claims requested as the next table id. Callers must commit the
// increment together with the new table record.
func (g *GameState) Allocate(requested uint64) error {
	if requested != g.NextTableID {
		return fmt.Errorf("%w: requested %d, next is %d", ErrIDAlreadyUsed, requested, g.NextTableID)
	}
	g.NextTableID++
	return nil
}

// Bid is one auction action; Value 0 is a pass.
type Bid struct {
	Seat  int
	Value int
}

// Move is one trick-play action; no cards means a pass.
type Move struct {
	Seat  int
	Cards []Card
}

// IsPass reports whether the move was a pass.
func (m Move) IsPass() bool { return len(m.Cards) == 0 }

// Play is the combination currently leading the trick.
type Play struct {
	Seat        int
	Combination Combination
}

// Team identifies the winning side of a round.
type Team uint8

const (
	TeamNone Team = iota
	TeamLandlord
	TeamFarmers
)

func (t Team) String() string {
	switch t {
	case TeamLandlord:
		return "landlord"
	case TeamFarmers:
		return "farmers"
	}
	return "none"
}

// Settlement is the cached outcome of Finalize.
type Settlement struct {
	Winner     Team
	Multiplier int
	Spring     bool
	// Amounts are signed per-seat payouts after fees.
	Amounts [SeatCount]int64
	Fee     int64
}

// Table is the authoritative state of one game instance.
type Table struct {
	ID    uint64
	Stake int64
	Rules Rules

	Seats         []string // identities in join order
	Beneficiaries []string // payout recipients, parallel to Seats

	Phase         Phase
	Hands         [SeatCount][]Card
	Kitty         []Card
	KittyRevealed bool // set once the kitty has moved into the landlord's hand
	Discard       []Card

	CurrentTurn int

	Bids       []Bid
	Passed     [SeatCount]bool
	HighestBid int
	Landlord   int

	LastPlay   *Play
	PassStreak int
	Multiplier int
	Moves      []Move
	PlayCounts [SeatCount]int

	Seed    Seed
	Deals   int
	Redeals int

	Winner     int
	Settlement *Settlement
}

// NewTable returns an empty table waiting for players.
func NewTable(id uint64, stake int64, rules Rules) (*Table, error) {
	if err := ValidateStake(stake); err != nil {
		return nil, err
	}
	return &Table{
		ID:          id,
		Stake:       stake,
		Rules:       rules,
		Phase:       PhaseWaitingForPlayers,
		CurrentTurn: NoSeat,
		Landlord:    NoSeat,
		Winner:      NoSeat,
	}, nil
}

// ValidateStake rejects negative stakes and stakes whose payouts could overflow.
func ValidateStake(stake int64) error {
	if stake < 0 || stake > MaxStake {
		return fmt.Errorf("%w: %d not in [0, %d]", ErrInvalidStake, stake, MaxStake)
	}
	return nil
}

// Join seats identity in the next free seat. It reports whether the table is now full;
// the caller must then Deal within the same commit.
func (t *Table) Join(identity, beneficiary string) (seat int, full bool, err error) {
	if strings.TrimSpace(identity) == "" {
		return NoSeat, false, fmt.Errorf("%w: identity is required", ErrInvalidIdentity)
	}
	if len(t.Seats) >= SeatCount {
		return NoSeat, false, ErrTableFull
	}
	if t.SeatOf(identity) != NoSeat {
		return NoSeat, false, ErrAlreadyJoined
	}
	if t.Phase != PhaseWaitingForPlayers {
		return NoSeat, false, fmt.Errorf("%w: phase %s", ErrTableNotJoinable, t.Phase)
	}
	if beneficiary == "" {
		beneficiary = identity
	}

	t.Seats = append(t.Seats, identity)
	t.Beneficiaries = append(t.Beneficiaries, beneficiary)
	return len(t.Seats) - 1, len(t.Seats) == SeatCount, nil
}

// Deal shuffles with seed and hands out a fresh deal, (re)starting the auction.
func (t *Table) Deal(seed Seed) error {
	if len(t.Seats) != SeatCount {
		return fmt.Errorf("%w: %d seats filled", ErrWrongPhase, len(t.Seats))
	}
	if t.Phase != PhaseWaitingForPlayers && t.Phase != PhaseBidding {
		return fmt.Errorf("%w: cannot deal in %s", ErrWrongPhase, t.Phase)
	}

	t.Seed = seed
	t.Hands, t.Kitty = Deal(Shuffle(seed))
	t.KittyRevealed = false
	t.Discard = nil
	t.Bids = nil
	t.Passed = [SeatCount]bool{}
	t.HighestBid = 0
	t.Deals++
	t.Phase = PhaseBidding
	t.CurrentTurn = 0
	return nil
}

// SeatOf returns the seat held by identity, or NoSeat.
func (t *Table) SeatOf(identity string) int {
	for i, s := range t.Seats {
		if s == identity {
			return i
		}
	}
	return NoSeat
}

// Team returns the side a seat plays for once a landlord exists.
func (t *Table) Team(seat int) Team {
	switch {
	case t.Landlord == NoSeat:
		return TeamNone
	case seat == t.Landlord:
		return TeamLandlord
	default:
		return TeamFarmers
	}
}
