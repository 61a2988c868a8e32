package ledger

import "errors"

// Falhas de precondição das operações. Toda operação captura a própria falha
// e devolve Success=false com payload zerado; o estado nunca muda parcialmente.
var (
	ErrContractInactive    = errors.New("contract inactive")
	ErrAlreadyInitialized  = errors.New("already initialized")
	ErrCapacityExceeded    = errors.New("capacity exceeded")
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrEventClosed         = errors.New("event closed")
	ErrAlreadyResolved     = errors.New("already resolved")
)

// Code traduz a falha para um código estável usado pela borda HTTP.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrContractInactive):
		return "CONTRACT_INACTIVE"
	case errors.Is(err, ErrAlreadyInitialized):
		return "ALREADY_INITIALIZED"
	case errors.Is(err, ErrCapacityExceeded):
		return "CAPACITY_EXCEEDED"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.Is(err, ErrInsufficientBalance):
		return "INSUFFICIENT_BALANCE"
	case errors.Is(err, ErrEventClosed):
		return "EVENT_CLOSED"
	case errors.Is(err, ErrAlreadyResolved):
		return "ALREADY_RESOLVED"
	default:
		return "INTERNAL"
	}
}
