package services

import "errors"

// Quote error kinds. Callers match them with errors.Is; the underlying cause
// stays in the chain.
var (
	ErrRouteNotFound         = errors.New("route not found")
	ErrRuleNotFound          = errors.New("price rule not found")
	ErrInvalidVehicleType    = errors.New("invalid vehicle type")
	ErrRepositoryUnavailable = errors.New("pricing repository unavailable")

	// ErrUsageAccountingFailure is only ever logged, never returned by Quote.
	ErrUsageAccountingFailure = errors.New("usage accounting failed")
)
