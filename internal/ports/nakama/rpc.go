package nakama

import (
	"context"
	"database/sql"

	"github.com/heroiclabs/nakama-common/runtime"

	"landlord/internal/app"
	"landlord/internal/config"
	"landlord/internal/domain"
)

type rpcFunc = func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error)

// Handlers serves the landlord RPCs. Every call acts as the session user.
type Handlers struct {
	svc      *app.Service
	notifier *Notifier
	cfg      *config.GameConfig
}

func NewHandlers(svc *app.Service, notifier *Notifier, cfg *config.GameConfig) *Handlers {
	return &Handlers{svc: svc, notifier: notifier, cfg: cfg}
}

// RegisterRPCs registers Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer, h *Handlers) error {
	rpcs := map[string]rpcFunc{
		RpcInitialize:  h.RpcInitialize,
		RpcCreateTable: h.RpcCreateTable,
		RpcJoinGame:    h.RpcJoinGame,
		RpcBid:         h.RpcBid,
		RpcPlay:        h.RpcPlay,
		RpcPassTurn:    h.RpcPassTurn,
		RpcFinalize:    h.RpcFinalize,
		RpcGetTable:    h.RpcGetTable,
	}
	for id, fn := range rpcs {
		if err := initializer.RegisterRpc(id, fn); err != nil {
			return err
		}
	}
	return nil
}

// RpcInitialize creates the game state owned by the caller.
// Payload: {} Returns: {"owner", "next_table_id"}
func (h *Handlers) RpcInitialize(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, ok := callerID(ctx)
	if !ok {
		return "", errUnauthenticated
	}
	gs, err := h.svc.Initialize(ctx, userID)
	if err != nil {
		return "", toRuntimeError(logger, RpcInitialize, err)
	}
	return encodeResponse(gameStateResponse{Owner: gs.Owner, NextTableID: gs.NextTableID})
}

// RpcCreateTable opens the next table. The stake is explicit or taken from a configured tier.
// Payload: {"table_id", "stake"?, "tier"?} Returns: table view.
func (h *Handlers) RpcCreateTable(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, ok := callerID(ctx)
	if !ok {
		return "", errUnauthenticated
	}
	var req createTableRequest
	if err := decodePayload(payload, &req); err != nil {
		return "", errInvalidPayload
	}
	stake := h.cfg.Stake(req.Tier)
	if req.Stake != nil {
		stake = *req.Stake
	}

	t, err := h.svc.CreateTable(ctx, req.TableID, stake, h.cfg.Rules())
	if err != nil {
		return "", toRuntimeError(logger, RpcCreateTable, err)
	}
	return encodeResponse(app.NewTableView(t, userID))
}

// RpcJoinGame seats the caller. Payload: {"table_id", "beneficiary"?} Returns: {"seat", "seat_token", "table"}
func (h *Handlers) RpcJoinGame(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, ok := callerID(ctx)
	if !ok {
		return "", errUnauthenticated
	}
	var req joinGameRequest
	if err := decodePayload(payload, &req); err != nil {
		return "", errInvalidPayload
	}

	res, events, err := h.svc.JoinGame(ctx, req.TableID, userID, req.Beneficiary)
	if err != nil {
		return "", toRuntimeError(logger, RpcJoinGame, err)
	}
	h.notifier.Publish(ctx, logger, seatsOf(res.Table), events)
	return encodeResponse(res)
}

// RpcBid places a bid; 0 passes. Payload: {"table_id", "seat_token", "bid"} Returns: table view.
func (h *Handlers) RpcBid(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, ok := callerID(ctx)
	if !ok {
		return "", errUnauthenticated
	}
	var req bidRequest
	if err := decodePayload(payload, &req); err != nil {
		return "", errInvalidPayload
	}

	t, events, err := h.svc.Bid(ctx, req.TableID, userID, req.SeatToken, req.Bid)
	if err != nil {
		return "", toRuntimeError(logger, RpcBid, err)
	}
	return h.respond(ctx, logger, t, userID, events)
}

// RpcPlay lays cards. Payload: {"table_id", "seat_token", "cards": ["3S", ...]} Returns: table view.
func (h *Handlers) RpcPlay(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, ok := callerID(ctx)
	if !ok {
		return "", errUnauthenticated
	}
	var req playRequest
	if err := decodePayload(payload, &req); err != nil {
		return "", errInvalidPayload
	}
	cards, err := cardsFromRequest(req.Cards)
	if err != nil {
		return "", toRuntimeError(logger, RpcPlay, err)
	}

	t, events, err := h.svc.Play(ctx, req.TableID, userID, req.SeatToken, cards)
	if err != nil {
		return "", toRuntimeError(logger, RpcPlay, err)
	}
	return h.respond(ctx, logger, t, userID, events)
}

// RpcPassTurn passes on the current trick. Payload: {"table_id", "seat_token"} Returns: table view.
func (h *Handlers) RpcPassTurn(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, ok := callerID(ctx)
	if !ok {
		return "", errUnauthenticated
	}
	var req turnRequest
	if err := decodePayload(payload, &req); err != nil {
		return "", errInvalidPayload
	}

	t, events, err := h.svc.PassTurn(ctx, req.TableID, userID, req.SeatToken)
	if err != nil {
		return "", toRuntimeError(logger, RpcPassTurn, err)
	}
	return h.respond(ctx, logger, t, userID, events)
}

// RpcFinalize settles a finished table. Any caller may finalize; payouts apply once.
// Payload: {"table_id"} Returns: settlement.
func (h *Handlers) RpcFinalize(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, ok := callerID(ctx)
	if !ok {
		return "", errUnauthenticated
	}
	var req tableRequest
	if err := decodePayload(payload, &req); err != nil {
		return "", errInvalidPayload
	}

	settlement, events, err := h.svc.Finalize(ctx, req.TableID)
	if err != nil {
		return "", toRuntimeError(logger, RpcFinalize, err)
	}
	if len(events) > 0 {
		view, err := h.svc.Table(ctx, req.TableID, userID)
		if err != nil {
			logger.Warn("Finalize: settlement paid but table %d unreadable: %v", req.TableID, err)
		} else {
			h.notifier.Publish(ctx, logger, seatsOf(view), events)
		}
	}
	return encodeResponse(settlement)
}

// RpcGetTable returns the table as the caller may see it. Payload: {"table_id"}
func (h *Handlers) RpcGetTable(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, ok := callerID(ctx)
	if !ok {
		return "", errUnauthenticated
	}
	var req tableRequest
	if err := decodePayload(payload, &req); err != nil {
		return "", errInvalidPayload
	}

	view, err := h.svc.Table(ctx, req.TableID, userID)
	if err != nil {
		return "", toRuntimeError(logger, RpcGetTable, err)
	}
	return encodeResponse(view)
}

func (h *Handlers) respond(ctx context.Context, logger runtime.Logger, t *domain.Table, userID string, events []app.Event) (string, error) {
	h.notifier.Publish(ctx, logger, t.Seats, events)
	return encodeResponse(app.NewTableView(t, userID))
}

func callerID(ctx context.Context) (string, bool) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	return userID, userID != ""
}
