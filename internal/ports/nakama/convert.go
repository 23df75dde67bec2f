package nakama

import (
	"encoding/json"
	"fmt"

	"landlord/internal/app"
	"landlord/internal/domain"
)

type createTableRequest struct {
	TableID uint64 `json:"table_id"`
	Stake   *int64 `json:"stake,omitempty"`
	Tier    string `json:"tier,omitempty"`
}

type joinGameRequest struct {
	TableID     uint64 `json:"table_id"`
	Beneficiary string `json:"beneficiary,omitempty"`
}

type bidRequest struct {
	TableID   uint64 `json:"table_id"`
	SeatToken string `json:"seat_token"`
	Bid       int    `json:"bid"`
}

type playRequest struct {
	TableID   uint64   `json:"table_id"`
	SeatToken string   `json:"seat_token"`
	Cards     []string `json:"cards"`
}

type turnRequest struct {
	TableID   uint64 `json:"table_id"`
	SeatToken string `json:"seat_token"`
}

type tableRequest struct {
	TableID uint64 `json:"table_id"`
}

type gameStateResponse struct {
	Owner       string `json:"owner"`
	NextTableID uint64 `json:"next_table_id"`
}

func decodePayload(payload string, dst interface{}) error {
	if payload == "" {
		payload = "{}"
	}
	if err := json.Unmarshal([]byte(payload), dst); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

func encodeResponse(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode response: %w", err)
	}
	return string(b), nil
}

func cardsFromRequest(names []string) ([]domain.Card, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no cards", domain.ErrInvalidCombination)
	}
	return domain.ParseCards(names)
}

func seatsOf(view *app.TableView) []string {
	out := make([]string, 0, len(view.Seats))
	for _, s := range view.Seats {
		out = append(out, s.UserID)
	}
	return out
}
