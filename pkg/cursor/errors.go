package cursor

import "errors"

var (
	// ErrInvalidCursor covers every way a presented token can fail
	// verification: malformed encoding, bad separator, signature mismatch,
	// unreadable schema version, direction mismatch, or a structurally
	// invalid payload. Callers must not distinguish these cases to clients.
	ErrInvalidCursor = errors.New("invalid cursor")

	// ErrCursorExpired marks a token that is well-formed and correctly
	// signed but past its expiry.
	ErrCursorExpired = errors.New("cursor expired")

	// ErrInvalidInput marks a construction-time caller error (bad anchor id,
	// bad direction, out-of-range ttl). These are programming errors on the
	// minting side, never a client-facing condition.
	ErrInvalidInput = errors.New("invalid cursor input")
)
