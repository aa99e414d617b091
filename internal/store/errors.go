package store

import "errors"

// Sentinel errors shared across all backend implementations. Callers
// classify with errors.Is; the HTTP layer maps each kind onto a status code.
var (
	// Precondition failures. These abort a settlement before any mutation.
	ErrInvalidAmount       = errors.New("transfer amount must be positive")
	ErrUnsupportedAsset    = errors.New("unsupported asset")
	ErrRecipientNotFound   = errors.New("no receiving wallet found for address")
	ErrRecipientInactive   = errors.New("recipient account is not active")
	ErrSelfTransfer        = errors.New("sender and recipient are the same account")
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrConcurrentModification means another writer advanced a holding's
	// version between read and conditional write. Retryable against fresh
	// state.
	ErrConcurrentModification = errors.New("concurrent modification detected")

	ErrUserNotFound  = errors.New("user not found")
	ErrStatsNotFound = errors.New("no cached stats for user")
)
