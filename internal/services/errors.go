package services

import "errors"

// Sentinel errors for the core components. Handlers map these onto HTTP
// statuses with errors.Is; services wrap them with context via %w.
var (
	// Code lifecycle
	ErrCodeNotFound        = errors.New("code not found")
	ErrCodeAlreadyConsumed = errors.New("code already consumed")
	ErrCodeInactive        = errors.New("code inactive")
	ErrDuplicateSerial     = errors.New("duplicate serial")

	// Ledger
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrConcurrentUpdate    = errors.New("concurrent balance update")
	ErrInvalidAmount       = errors.New("invalid amount")

	// Redemption
	ErrUnknownAccount     = errors.New("unknown account")
	ErrUnknownCatalogItem = errors.New("unknown catalog item")
	ErrOutOfStock         = errors.New("out of stock")
	ErrOrderNotFound      = errors.New("order not found")
	ErrInvalidTransition  = errors.New("invalid transition")
	ErrCourierRequired    = errors.New("courier details required")

	// Request handling
	ErrRateLimited = errors.New("rate limit exceeded")
)
