package ledger

import "errors"

var (
	// ErrUnauthorized is a role or shop mismatch: the acting principal may
	// not perform the requested mutation.
	ErrUnauthorized = errors.New("not authorized for this operation")

	// ErrBadIntent is a malformed or unrecognized scan payload.
	ErrBadIntent = errors.New("cannot process this code")

	// ErrNegativeBalance means the requested redemption exceeds the current
	// balance. The balance is left unchanged, never clamped.
	ErrNegativeBalance = errors.New("not enough points")

	// ErrStoreUnavailable wraps transport or storage failures. The caller
	// retries manually; the engine never does.
	ErrStoreUnavailable = errors.New("balance store unavailable")
)
