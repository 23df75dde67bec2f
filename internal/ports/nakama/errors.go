package nakama

import (
	"errors"

	"github.com/heroiclabs/nakama-common/runtime"

	"landlord/internal/app"
	"landlord/internal/domain"
	"landlord/internal/ports"
)

// gRPC status codes used by Nakama runtime errors.
const (
	codeInvalidArgument    = 3
	codeNotFound           = 5
	codeAlreadyExists      = 6
	codePermissionDenied   = 7
	codeFailedPrecondition = 9
	codeAborted            = 10
	codeInternal           = 13
	codeUnauthenticated    = 16
)

var (
	errUnauthenticated = runtime.NewError("unauthenticated", codeUnauthenticated)
	errInvalidPayload  = runtime.NewError("invalid payload", codeInvalidArgument)
	errInternal        = runtime.NewError("internal error", codeInternal)
)

// errorCodes maps sentinels to transport codes. The sentinel's text is the stable reason.
var errorCodes = []struct {
	err  error
	code int
}{
	{domain.ErrTableNotFound, codeNotFound},
	{domain.ErrNotInitialized, codeNotFound},
	{domain.ErrAlreadyInitialized, codeAlreadyExists},
	{domain.ErrAlreadyJoined, codeAlreadyExists},
	{domain.ErrNotSeated, codePermissionDenied},
	{app.ErrInvalidSeatToken, codePermissionDenied},
	{app.ErrUnknownBeneficiary, codeInvalidArgument},
	{domain.ErrIDAlreadyUsed, codeFailedPrecondition},
	{domain.ErrTableFull, codeFailedPrecondition},
	{domain.ErrTableNotJoinable, codeFailedPrecondition},
	{domain.ErrInsufficientFunds, codeFailedPrecondition},
	{domain.ErrWrongPhase, codeFailedPrecondition},
	{domain.ErrNotYourTurn, codeFailedPrecondition},
	{domain.ErrCardsNotOwned, codeFailedPrecondition},
	{domain.ErrInvalidBid, codeInvalidArgument},
	{domain.ErrInvalidCombination, codeInvalidArgument},
	{domain.ErrCombinationTooLow, codeInvalidArgument},
	{domain.ErrCannotPassAsLeader, codeInvalidArgument},
	{domain.ErrInvalidCard, codeInvalidArgument},
	{domain.ErrInvalidIdentity, codeInvalidArgument},
	{domain.ErrInvalidStake, codeInvalidArgument},
	{domain.ErrInvalidSeat, codeInvalidArgument},
	{ports.ErrConflict, codeAborted},
}

// toRuntimeError converts a service error for the client. Unknown errors,
// invariant violations included, surface as internal and are logged in full.
func toRuntimeError(logger runtime.Logger, op string, err error) error {
	for _, m := range errorCodes {
		if errors.Is(err, m.err) {
			logger.Debug("%s rejected: %v", op, err)
			return runtime.NewError(m.err.Error(), m.code)
		}
	}
	logger.Error("%s failed: %v", op, err)
	return errInternal
}
