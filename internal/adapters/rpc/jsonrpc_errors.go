package rpc

import (
	"errors"

	"cardsmith/go-backend/internal/domains/contracts"
	"cardsmith/go-backend/pkg/models"
)

const (
	rpcCodeServiceFailure      = -32050
	rpcCodeRateLimited         = -32029
	rpcCodeIdempotencyConflict = -32009
)

// Outcome statuses a chat client acts on. They are results, not rpc errors:
// the bot already replied (or stayed silent) in the chat.
const (
	statusOK               = "ok"
	statusDenied           = "denied"
	statusEmptyBatch       = "empty_batch"
	statusInvalidParameter = "invalid_parameter"
	statusSessionExpired   = "session_expired"
)

type handlerOutcome struct {
	Status  string            `json:"status"`
	Message models.MessageRef `json:"message"`
}

func rpcInvalidParams() *rpcError {
	return &rpcError{Code: -32602, Message: "invalid params"}
}

func handlerResult(ref models.MessageRef, err error) (any, *rpcError) {
	status, ok := outcomeStatus(err)
	if !ok {
		return nil, &rpcError{
			Code:    rpcCodeServiceFailure,
			Message: err.Error(),
			Data:    map[string]string{"category": contracts.ErrorCategory(err)},
		}
	}
	return handlerOutcome{Status: status, Message: ref}, nil
}

func outcomeStatus(err error) (string, bool) {
	switch {
	case err == nil:
		return statusOK, true
	case errors.Is(err, contracts.ErrAuthorizationDenied):
		return statusDenied, true
	case errors.Is(err, contracts.ErrEmptyBatch):
		return statusEmptyBatch, true
	case errors.Is(err, contracts.ErrInvalidParameter):
		return statusInvalidParameter, true
	case errors.Is(err, contracts.ErrSessionExpired):
		return statusSessionExpired, true
	default:
		return "", false
	}
}
