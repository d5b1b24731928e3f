package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// occurrence or subject does not exist.
// Handlers should map this to HTTP 404. It is distinct from a subject that
// exists but has no consensus yet.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. empty scientific name, unknown confidence tier).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrInvalidCursor is returned when a pagination cursor cannot be decoded or
// was minted by a different feed. It is never treated as "no cursor".
// Handlers should map this to HTTP 400.
var ErrInvalidCursor = errors.New("invalid cursor")

// ErrSourceUnavailable is returned by a fail-closed feed when any of its
// sources fails. No partial page accompanies it.
// Handlers should map this to HTTP 503.
var ErrSourceUnavailable = errors.New("source unavailable")
