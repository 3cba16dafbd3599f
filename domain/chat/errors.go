package chat

import "errors"

var (
	// ErrUnknownRoom indicates a room name outside the configured set.
	ErrUnknownRoom = errors.New("unknown room")
	// ErrInvalidFrame indicates a frame that could not be decoded.
	ErrInvalidFrame = errors.New("invalid frame")
)

// Error codes carried by "error" frames.
const (
	ErrCodeUnknownRoom = "unknown_room"
	ErrCodeBadRequest  = "bad_request"
	ErrCodeUnknownType = "unknown_type"
	ErrCodeRateLimited = "rate_limited"
)
