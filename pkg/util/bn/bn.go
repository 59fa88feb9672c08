// Package bn converts between byte slices, hex text and arbitrary-precision
// unsigned integers.
package bn

import (
	"fmt"
	"math/big"
	"slices"

	"github.com/holiman/uint256"

	"github.com/eigerco/polkadot-util/pkg/util/hexutil"
)

// ZeroHex is the hex text of an absent integer.
const ZeroHex = "0x00"

// Options control how an integer is laid out in bytes.
type Options struct {
	// LittleEndian selects least-significant-byte-first order.
	LittleEndian bool
	// Negative requests two's-complement interpretation. It is not supported
	// and always fails with ErrUnsupportedMode.
	Negative bool
	// BitLength fixes the output to ceil(BitLength/8) bytes. Zero or a
	// negative value means the minimal length.
	BitLength int
}

// LE is the little-endian layout used by SCALE.
var LE = Options{LittleEndian: true}

func (o Options) byteLength() int {
	if o.BitLength <= 0 {
		return -1
	}
	return (o.BitLength + 7) / 8
}

// HexToUint parses hex text (prefixed or not) into an unsigned integer. The
// empty string and the bare prefix both yield zero.
//
//	HexToUint("0x123480001f", Options{}) // 0x123480001f
//	HexToUint("0x3412", LE)              // 0x1234
func HexToUint(value string, opts Options) (*big.Int, error) {
	if opts.Negative {
		return nil, fmt.Errorf("%w: two's complement", ErrUnsupportedMode)
	}
	if value == "" {
		return new(big.Int), nil
	}

	digits, err := hexutil.StripPrefix(value)
	if err != nil {
		return nil, err
	}
	if digits == "" {
		return new(big.Int), nil
	}
	if opts.LittleEndian {
		digits = swapBytes(digits)
	}

	n, ok := new(big.Int).SetString(digits, 16)
	if !ok {
		return nil, fmt.Errorf("%w: %q", hexutil.ErrInvalidHex, value)
	}
	return n, nil
}

// swapBytes reverses the order of the digit pairs in digits while keeping the
// two digits of every byte together.
func swapBytes(digits string) string {
	if len(digits)%2 == 1 {
		digits = "0" + digits
	}
	out := make([]byte, len(digits))
	for i := 0; i < len(digits); i += 2 {
		j := len(digits) - i - 2
		out[j], out[j+1] = digits[i], digits[i+1]
	}
	return string(out)
}

// BytesToUint interprets value as an unsigned integer.
func BytesToUint(value []byte, opts Options) (*big.Int, error) {
	return HexToUint(hexutil.Encode(value), opts)
}

// UintToBytes returns the unsigned byte representation of value. A nil value
// yields an empty slice, or ceil(BitLength/8) zero bytes when a length is
// set. Without a length the minimal big-endian form is used (zero is a single
// 0x00 byte); with a length the value is zero-padded on its most significant
// side, and values that do not fit fail with ErrLengthMismatch.
func UintToBytes(value *big.Int, opts Options) ([]byte, error) {
	if opts.Negative {
		return nil, fmt.Errorf("%w: two's complement", ErrUnsupportedMode)
	}

	byteLength := opts.byteLength()
	if value == nil {
		if byteLength < 0 {
			return []byte{}, nil
		}
		return make([]byte, byteLength), nil
	}
	if value.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNegativeValue, value)
	}

	minimal := (value.BitLen() + 7) / 8
	if minimal == 0 {
		minimal = 1
	}
	if byteLength < 0 {
		byteLength = minimal
	}
	if minimal > byteLength {
		return nil, fmt.Errorf("%w: value needs %d bytes, %d requested", ErrLengthMismatch, minimal, byteLength)
	}

	out := value.FillBytes(make([]byte, byteLength))
	if opts.LittleEndian {
		slices.Reverse(out)
	}
	return out, nil
}

// UintToHex returns the hex text of UintToBytes. A nil value yields ZeroHex.
func UintToHex(value *big.Int, opts Options) (string, error) {
	if value == nil {
		return ZeroHex, nil
	}
	b, err := UintToBytes(value, opts)
	if err != nil {
		return "", err
	}
	return hexutil.Encode(b), nil
}

// ToBig normalises the supported integer representations into a big.Int.
// nil yields zero, strings are parsed as big-endian hex.
//
//	ToBig(0x1234)              // 4660
//	ToBig(uint256.NewInt(7))   // 7
//	ToBig("0x1234")            // 4660
func ToBig(value any) (*big.Int, error) {
	switch v := value.(type) {
	case nil:
		return new(big.Int), nil
	case *big.Int:
		if v == nil {
			return new(big.Int), nil
		}
		if v.Sign() < 0 {
			return nil, fmt.Errorf("%w: %s", ErrNegativeValue, v)
		}
		return v, nil
	case big.Int:
		return ToBig(&v)
	case *uint256.Int:
		if v == nil {
			return new(big.Int), nil
		}
		return v.ToBig(), nil
	case uint:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case int:
		return fromInt64(int64(v))
	case int8:
		return fromInt64(int64(v))
	case int16:
		return fromInt64(int64(v))
	case int32:
		return fromInt64(int64(v))
	case int64:
		return fromInt64(v)
	case string:
		return HexToUint(v, Options{})
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, value)
	}
}

func fromInt64(v int64) (*big.Int, error) {
	if v < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeValue, v)
	}
	return big.NewInt(v), nil
}

// ToUint256 narrows value to a 256-bit integer.
func ToUint256(value *big.Int) (*uint256.Int, error) {
	if value == nil {
		return new(uint256.Int), nil
	}
	if value.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNegativeValue, value)
	}
	n, overflow := uint256.FromBig(value)
	if overflow {
		return nil, fmt.Errorf("%w: value needs %d bits, 256 available", ErrLengthMismatch, value.BitLen())
	}
	return n, nil
}
