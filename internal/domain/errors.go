package domain

import "errors"

// Precondition failures: the caller acted against a stale or wrong table state.
var (
	ErrAlreadyInitialized = errors.New("game state already initialized")
	ErrNotInitialized     = errors.New("game state not initialized")
	ErrIDAlreadyUsed      = errors.New("table id already used")
	ErrTableNotFound      = errors.New("table not found")
	ErrTableFull          = errors.New("table full")
	ErrAlreadyJoined      = errors.New("player already joined")
	ErrTableNotJoinable   = errors.New("table not joinable")
	ErrNotSeated          = errors.New("player not seated at table")
	ErrInsufficientFunds  = errors.New("insufficient funds for stake")
	ErrWrongPhase         = errors.New("wrong phase")
	ErrNotYourTurn        = errors.New("not your turn")
	ErrCardsNotOwned      = errors.New("cards not owned")
)

// Rule failures: the move itself is illegal.
var (
	ErrInvalidBid         = errors.New("invalid bid")
	ErrInvalidCombination = errors.New("invalid combination")
	ErrCombinationTooLow  = errors.New("combination too low")
	ErrCannotPassAsLeader = errors.New("cannot pass as trick leader")
)

// Input and integrity failures.
var (
	ErrInvalidCard     = errors.New("invalid card")
	ErrInvalidIdentity = errors.New("invalid identity")
	ErrInvalidStake    = errors.New("invalid stake")
	ErrInvalidSeat     = errors.New("invalid seat")
	// ErrInvariant marks a state that a correct engine never produces.
	ErrInvariant      = errors.New("table invariant violated")
	ErrReplayMismatch = errors.New("replay does not match record")
)
