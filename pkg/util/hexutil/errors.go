package hexutil

import "errors"

// ErrInvalidHex is returned when an input claims to be hex text but fails the
// format or length check.
var ErrInvalidHex = errors.New("hexutil: invalid hex")
