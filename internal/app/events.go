package app

import "landlord/internal/domain"

// EventKind identifies emitted domain events for Nakama dispatch.
type EventKind string

const (
	EventPlayerJoined    EventKind = "player_joined"
	EventGameStarted     EventKind = "game_started"
	EventHandDealt       EventKind = "hand_dealt"
	EventBidPlaced       EventKind = "bid_placed"
	EventRedealt         EventKind = "redealt"
	EventLandlordElected EventKind = "landlord_elected"
	EventKittyRevealed   EventKind = "kitty_revealed"
	EventCardPlayed      EventKind = "card_played"
	EventTurnPassed      EventKind = "turn_passed"
	EventGameEnded       EventKind = "game_ended"
	EventSettlementPaid  EventKind = "settlement_paid"
)

// Event is a domain/app event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // user IDs; empty means every seated player
}

type PlayerJoinedPayload struct {
	TableID uint64 `json:"table_id"`
	UserID  string `json:"user_id"`
	Seat    int    `json:"seat"`
}

type GameStartedPayload struct {
	TableID         uint64 `json:"table_id"`
	Deal            int    `json:"deal"`
	FirstTurnUserID string `json:"first_turn_user_id"`
}

type HandDealtPayload struct {
	TableID uint64   `json:"table_id"`
	UserID  string   `json:"user_id"`
	Hand    []string `json:"hand"`
}

type BidPlacedPayload struct {
	TableID        uint64 `json:"table_id"`
	UserID         string `json:"user_id"`
	Bid            int    `json:"bid"`
	NextTurnUserID string `json:"next_turn_user_id,omitempty"`
}

type RedealtPayload struct {
	TableID uint64 `json:"table_id"`
	Deal    int    `json:"deal"`
	Redeals int    `json:"redeals"`
}

type LandlordElectedPayload struct {
	TableID    uint64 `json:"table_id"`
	UserID     string `json:"user_id"`
	Seat       int    `json:"seat"`
	Bid        int    `json:"bid"`
	Multiplier int    `json:"multiplier"`
}

type KittyRevealedPayload struct {
	TableID uint64   `json:"table_id"`
	Kitty   []string `json:"kitty"`
	Hand    []string `json:"hand"`
}

type CardPlayedPayload struct {
	TableID        uint64   `json:"table_id"`
	UserID         string   `json:"user_id"`
	Cards          []string `json:"cards"`
	Shape          string   `json:"shape"`
	CardsLeft      int      `json:"cards_left"`
	Multiplier     int      `json:"multiplier"`
	NextTurnUserID string   `json:"next_turn_user_id,omitempty"`
}

type TurnPassedPayload struct {
	TableID        uint64 `json:"table_id"`
	UserID         string `json:"user_id"`
	TrickCleared   bool   `json:"trick_cleared"`
	NextTurnUserID string `json:"next_turn_user_id"`
}

type GameEndedPayload struct {
	TableID      uint64 `json:"table_id"`
	WinnerUserID string `json:"winner_user_id"`
	WinningTeam  string `json:"winning_team"`
}

type SettlementPaidPayload struct {
	TableID      uint64          `json:"table_id"`
	SettlementID string          `json:"settlement_id"`
	Settlement   *SettlementView `json:"settlement"`
}

func dealtEvents(t *domain.Table) []Event {
	events := make([]Event, 0, domain.SeatCount)
	for seat, userID := range t.Seats {
		events = append(events, Event{
			Kind: EventHandDealt,
			Payload: HandDealtPayload{
				TableID: t.ID,
				UserID:  userID,
				Hand:    domain.CardStrings(t.Hands[seat]),
			},
			Recipients: []string{userID},
		})
	}
	return events
}
