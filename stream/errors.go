package stream

import "errors"

// Structural errors returned when binary input is malformed. Each error
// returned by this package and by the decoders layered on top of it wraps
// exactly one of these, so callers can match with errors.Is.
var (
	// ErrEndOfStream is returned when input ends before a value is complete.
	ErrEndOfStream = errors.New("unexpected end of stream")
	// ErrOutOfBounds is returned when a seek or skip leaves the buffer.
	ErrOutOfBounds = errors.New("offset out of bounds")
	// ErrInvalidFormat is returned for structurally invalid input, such as an
	// unknown tag type or a negative length.
	ErrInvalidFormat = errors.New("invalid format")
	// ErrInvalidData is returned when input is well formed but its content
	// is not acceptable, such as an unknown compression kind.
	ErrInvalidData = errors.New("invalid data")
	// ErrValueTooLarge is returned by writers when a value cannot be
	// represented in its length prefix.
	ErrValueTooLarge = errors.New("value too large")
)
