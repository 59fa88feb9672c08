// Package hexutil converts between 0x-prefixed hex text and byte slices.
//
// Hex text is the interchange format used at RPC boundaries: a lowercase `0x`
// prefix followed by an even number of hex digits. The bare prefix "0x" is
// valid and denotes an empty byte slice. Input digits may be upper or lower
// case, output is always lowercase.
package hexutil

import (
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// Prefix is the marker every prefixed hex string starts with.
	Prefix = "0x"

	// Ellipsis separates the head and the tail of a truncated hex string.
	Ellipsis = "…"

	alphabet = "0123456789abcdef"
)

// IsHex reports whether value is a 0x-prefixed hex string with an even number
// of digits (whole bytes).
func IsHex(value string) bool {
	return isHex(value, -1, false)
}

// IsHexBits reports whether value is a 0x-prefixed hex string holding exactly
// enough digits for bitLength bits. A negative bitLength disables the length
// check and falls back to IsHex.
//
//	IsHexBits("0x1234", 16) // true
//	IsHexBits("0x1234", 8)  // false
func IsHexBits(value string, bitLength int) bool {
	return isHex(value, bitLength, false)
}

// IsHexAnyLength reports whether value is a 0x-prefixed hex string, allowing
// an odd number of digits.
func IsHexAnyLength(value string) bool {
	return isHex(value, -1, true)
}

func isHex(value string, bitLength int, ignoreLength bool) bool {
	valid := value == Prefix ||
		(strings.HasPrefix(value, Prefix) && len(value) > len(Prefix) && isHexDigits(value[len(Prefix):]))
	if !valid {
		return false
	}
	if bitLength >= 0 {
		return len(value) == len(Prefix)+ceilDiv(bitLength, 4)
	}
	return ignoreLength || len(value)%2 == 0
}

// HasPrefix reports whether value is hex text (of any digit count) starting
// with the 0x prefix.
func HasPrefix(value string) bool {
	return value != "" && IsHexAnyLength(value) && value[:len(Prefix)] == Prefix
}

// StripPrefix removes the 0x prefix from a hex string. Un-prefixed hex digits
// are returned as-is and the empty string maps to itself; anything else fails
// with ErrInvalidHex.
func StripPrefix(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if HasPrefix(value) {
		return value[len(Prefix):], nil
	}
	if isHexDigits(value) {
		return value, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidHex, value)
}

// Decode converts 0x-prefixed hex text into bytes. The empty string decodes
// to an empty slice.
func Decode(value string) ([]byte, error) {
	return DecodeBits(value, -1)
}

// DecodeBits converts hex text into a slice of ceil(bitLength/8) bytes. The
// decoded bytes are right-aligned: when the requested length exceeds the
// digit-pair count the leading bytes are zero, when it is shorter only the
// leading bytes of the input are kept. A negative bitLength yields exactly
// one byte per digit pair.
//
//	DecodeBits("0x80001f", 32) // [0x00 0x80 0x00 0x1f]
func DecodeBits(value string, bitLength int) ([]byte, error) {
	if value == "" {
		return []byte{}, nil
	}
	if !IsHex(value) {
		return nil, fmt.Errorf("%w: expected hex value to convert, found %q", ErrInvalidHex, value)
	}

	digits := value[len(Prefix):]
	decoded, err := hex.DecodeString(digits)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidHex, err)
	}

	if bitLength < 0 {
		return decoded, nil
	}

	out := make([]byte, ceilDiv(bitLength, 8))
	if len(out) >= len(decoded) {
		copy(out[len(out)-len(decoded):], decoded)
	} else {
		copy(out, decoded[:len(out)])
	}
	return out, nil
}

// MustDecode is like Decode but panics on invalid input. It is meant for
// constants and tests.
func MustDecode(value string) []byte {
	b, err := Decode(value)
	if err != nil {
		panic(err)
	}
	return b
}

// Encode returns the 0x-prefixed lowercase hex text of value. Empty input
// yields "0x".
//
//	Encode([]byte{0x68, 0x65, 0x6c, 0x6c, 0x0f}) // "0x68656c6c0f"
func Encode(value []byte) string {
	return EncodeWith(value, -1, true)
}

// EncodeWith returns the hex text of value, optionally without the prefix.
// When bitLength is positive and value is longer than ceil(bitLength/8)
// bytes, the output is shortened for display to the first and last
// ceil(ceil(bitLength/8)/2) bytes joined by an ellipsis.
func EncodeWith(value []byte, bitLength int, isPrefixed bool) string {
	prefix := ""
	if isPrefixed {
		prefix = Prefix
	}
	if len(value) == 0 {
		return prefix
	}

	if byteLength := ceilDiv(bitLength, 8); bitLength > 0 && len(value) > byteLength {
		half := ceilDiv(byteLength, 2)
		head := EncodeWith(value[:half], -1, isPrefixed)
		tail := EncodeWith(value[len(value)-half:], -1, false)
		return head + Ellipsis + tail
	}

	var sb strings.Builder
	sb.Grow(len(prefix) + 2*len(value))
	sb.WriteString(prefix)
	for _, b := range value {
		sb.WriteByte(alphabet[b>>4])
		sb.WriteByte(alphabet[b&0x0f])
	}
	return sb.String()
}

func isHexDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

func ceilDiv(n, d int) int {
	if n <= 0 {
		return 0
	}
	return (n + d - 1) / d
}
