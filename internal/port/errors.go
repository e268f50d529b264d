package port

import "errors"

// Sentinel errors used across ports. Handlers classify service errors
// with errors.Is against these to pick a status code; the raw error text
// stays in the server logs.
var (
	ErrEmptyMessage      = errors.New("message is empty")
	ErrMessageTooLong    = errors.New("message exceeds maximum length")
	ErrFlagged           = errors.New("message flagged by moderation")
	ErrMissingAPIKey     = errors.New("api key not configured")
	ErrUpstream          = errors.New("upstream completion error")
	ErrMalformedResponse = errors.New("malformed upstream response")
)
