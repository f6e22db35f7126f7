package shared

import "errors"

// ErrIdempotencyConflict indicates the Idempotency-Key was already used.
var ErrIdempotencyConflict = errors.New("idempotent request already processed")
