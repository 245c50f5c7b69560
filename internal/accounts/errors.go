package accounts

import "errors"

// Account store errors surfaced to callers. Capacity and credential errors
// are the only ones the UI is expected to show; layer-level trouble stays
// inside the replication orchestrator.
var (
	// ErrCapacityExceeded indicates that all slots are occupied; the caller
	// must offer an explicit replace-or-cancel, never silently overwrite
	ErrCapacityExceeded = errors.New("all account slots are occupied")

	// ErrAccountNotFound indicates that the slot holds no account
	ErrAccountNotFound = errors.New("account not found")

	// ErrInvalidPassword indicates a credential mismatch, distinct from
	// "account not found"
	ErrInvalidPassword = errors.New("invalid password")

	// ErrInvalidSlot indicates a slot id outside 1..3
	ErrInvalidSlot = errors.New("invalid slot id")
)
