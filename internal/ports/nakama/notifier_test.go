package nakama

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landlord/internal/app"
)

func TestPublishRoutesEvents(t *testing.T) {
	nk := newFakeNakama()
	seats := []string{"alice", "bob", "carol"}
	events := []app.Event{
		{Kind: app.EventBidPlaced, Payload: app.BidPlacedPayload{TableID: 1, UserID: "alice", Bid: 3}},
		{
			Kind:       app.EventKittyRevealed,
			Payload:    app.KittyRevealedPayload{TableID: 1, Kitty: []string{"3S", "4S", "5S"}},
			Recipients: []string{"alice"},
		},
		{Kind: app.EventKind("unknown"), Payload: struct{}{}},
	}

	NewNotifier(nk).Publish(context.Background(), noopLogger{}, seats, events)

	sent := nk.sent()
	require.Len(t, sent, 4)
	for i, userID := range seats {
		assert.Equal(t, userID, sent[i].UserID)
		assert.Equal(t, NotifyBidPlaced, sent[i].Code)
		assert.Equal(t, float64(3), sent[i].Content["bid"])
	}
	assert.Equal(t, "alice", sent[3].UserID)
	assert.Equal(t, NotifyKittyRevealed, sent[3].Code)
	assert.Equal(t, string(app.EventKittyRevealed), sent[3].Subject)
}

func TestPublishNothing(t *testing.T) {
	nk := newFakeNakama()
	NewNotifier(nk).Publish(context.Background(), noopLogger{}, []string{"alice"}, nil)
	assert.Empty(t, nk.sent())
}
