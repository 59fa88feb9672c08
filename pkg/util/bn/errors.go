package bn

import "errors"

var (
	// ErrUnsupportedMode is returned when a two's-complement conversion is requested.
	ErrUnsupportedMode = errors.New("bn: negative (two's complement) conversion is not supported")

	// ErrLengthMismatch is returned when a value does not fit the requested bit length.
	ErrLengthMismatch = errors.New("bn: length mismatch")

	// ErrNegativeValue is returned when a negative integer is passed where an unsigned one is expected.
	ErrNegativeValue = errors.New("bn: negative value")

	// ErrUnsupportedType is returned by ToBig for values that are neither integers nor hex text.
	ErrUnsupportedType = errors.New("bn: unsupported type")
)
