package models

import "errors"

// Sentinel errors shared across stores and usecases. Batch jobs collect
// per-asset failures instead of propagating them; these sentinels let the
// HTTP boundary map what does propagate to a status code.
var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidEnum = errors.New("invalid enum token")
)
