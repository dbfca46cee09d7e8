package domain

import "errors"

// Recoverable failure classes. Services wrap these with %w and context; the
// bot and HTTP layers match with errors.Is to pick the user-facing reply.
var (
	ErrPlayerNotFound    = errors.New("player not found")
	ErrBetNotFound       = errors.New("bet not found")
	ErrSessionNotFound   = errors.New("merge session not found")
	ErrListingNotFound   = errors.New("listing not found")
	ErrPromoNotFound     = errors.New("promo code not found")
	ErrInvalidState      = errors.New("invalid state")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrPolicyViolation   = errors.New("policy violation")
	ErrStaleReference    = errors.New("stale reference")
)
