package nakama

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/heroiclabs/nakama-common/runtime"

	"landlord/internal/app"
)

// NotificationModule is the subset of runtime.NakamaModule the notifier needs.
type NotificationModule interface {
	NotificationsSend(ctx context.Context, notifications []*runtime.NotificationSend) error
}

var notificationCodes = map[app.EventKind]int{
	app.EventPlayerJoined:    NotifyPlayerJoined,
	app.EventGameStarted:     NotifyGameStarted,
	app.EventHandDealt:       NotifyHandDealt,
	app.EventBidPlaced:       NotifyBidPlaced,
	app.EventRedealt:         NotifyRedealt,
	app.EventLandlordElected: NotifyLandlordElected,
	app.EventKittyRevealed:   NotifyKittyRevealed,
	app.EventCardPlayed:      NotifyCardPlayed,
	app.EventTurnPassed:      NotifyTurnPassed,
	app.EventGameEnded:       NotifyGameEnded,
	app.EventSettlementPaid:  NotifySettlementPaid,
}

// Notifier pushes app events to players as Nakama notifications.
type Notifier struct {
	nk NotificationModule
}

func NewNotifier(nk NotificationModule) *Notifier {
	return &Notifier{nk: nk}
}

// Publish sends each event to its recipients, or to every seated player when the
// event names none. Delivery failures are logged; the state change has already committed.
func (n *Notifier) Publish(ctx context.Context, logger runtime.Logger, seats []string, events []app.Event) {
	var out []*runtime.NotificationSend
	for _, ev := range events {
		code, ok := notificationCodes[ev.Kind]
		if !ok {
			logger.Warn("Unknown event kind: %v", ev.Kind)
			continue
		}
		content, err := toContent(ev.Payload)
		if err != nil {
			logger.Error("Failed to marshal event %v: %v", ev.Kind, err)
			continue
		}

		recipients := ev.Recipients
		if len(recipients) == 0 {
			recipients = seats
		}
		for _, userID := range recipients {
			out = append(out, &runtime.NotificationSend{
				UserID:     userID,
				Subject:    string(ev.Kind),
				Content:    content,
				Code:       code,
				Persistent: false,
			})
		}
	}
	if len(out) == 0 {
		return
	}
	if err := n.nk.NotificationsSend(ctx, out); err != nil {
		logger.Error("Failed to send %d notifications: %v", len(out), err)
	}
}

func toContent(payload any) (map[string]interface{}, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	content := map[string]interface{}{}
	if err := json.Unmarshal(b, &content); err != nil {
		return nil, fmt.Errorf("payload is not an object: %w", err)
	}
	return content, nil
}
