package model

import "errors"

// Error taxonomy shared by the store and engine. Callers match these with
// errors.Is. An id owned by someone else reports ErrNotFound, never a
// distinct "forbidden", so existence cannot be probed across owners.
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("already exists")
	ErrInvalidInput      = errors.New("invalid input")
	ErrDependencyTimeout = errors.New("embedding timed out")
	ErrStoreUnavailable  = errors.New("store unavailable")
)
