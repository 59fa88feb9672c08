package compact

import "errors"

var (
	// ErrTruncated is returned when the input ends before the compact value does.
	ErrTruncated = errors.New("compact: truncated input")

	// ErrValueTooLarge is returned when a value exceeds the encodable range or a caller-imposed bit limit.
	ErrValueTooLarge = errors.New("compact: value too large")

	// ErrLengthLimit is returned when a length prefix exceeds the max value of uint32.
	ErrLengthLimit = errors.New("compact: length prefix exceeds max value of uint32")
)
