// Package compact implements the SCALE compact encoding of unsigned integers.
//
// The two low bits of the first byte select one of four modes:
//
//	0b00  single byte:  value in [0, 2^6)
//	0b01  two bytes:    value in [2^6, 2^14), little-endian
//	0b10  four bytes:   value in [2^14, 2^30), little-endian
//	0b11  big integer:  the upper six bits hold (n-4), followed by n
//	                    little-endian bytes of the value, 4 <= n <= 67
//
// In the first three modes the value is stored shifted left by two bits.
package compact

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
	"math/bits"

	"github.com/eigerco/polkadot-util/pkg/util/bn"
	"github.com/eigerco/polkadot-util/pkg/util/u8a"
)

const (
	modeSingleByte = 0b00
	modeTwoByte    = 0b01
	modeFourByte   = 0b10
	modeBigInt     = 0b11

	// MaxU8 is the largest value encoded in the single-byte mode.
	MaxU8 = 1<<(8-2) - 1
	// MaxU16 is the largest value encoded in the two-byte mode.
	MaxU16 = 1<<(16-2) - 1
	// MaxU32 is the largest value encoded in the four-byte mode.
	MaxU32 = 1<<(32-2) - 1

	minBigIntBytes = 4
	// MaxBigIntBytes is the widest value the six-bit length field can describe.
	MaxBigIntBytes = 1<<6 - 1 + minBigIntBytes
)

// Encode returns the canonical compact encoding of value. A nil value encodes
// as zero.
//
//	Encode(big.NewInt(511)) // [0b11111101 0b00000111]
func Encode(value *big.Int) ([]byte, error) {
	if value == nil {
		return EncodeUint64(0), nil
	}
	if value.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s", bn.ErrNegativeValue, value)
	}
	if value.IsUint64() && value.Uint64() <= MaxU32 {
		return EncodeUint64(value.Uint64()), nil
	}

	le, err := bn.UintToBytes(value, bn.LE)
	if err != nil {
		return nil, err
	}
	if len(le) > MaxBigIntBytes {
		return nil, fmt.Errorf("%w: %d bytes, at most %d allowed", ErrValueTooLarge, len(le), MaxBigIntBytes)
	}
	// Values below 2^30 never get here, so len(le) >= 4.
	return u8a.ConcatBytes([]byte{bigIntPrefix(len(le))}, le), nil
}

// EncodeUint64 returns the canonical compact encoding of v.
func EncodeUint64(v uint64) []byte {
	switch {
	case v <= MaxU8:
		return []byte{byte(v<<2) | modeSingleByte}
	case v <= MaxU16:
		return binary.LittleEndian.AppendUint16(nil, uint16(v<<2)|modeTwoByte)
	case v <= MaxU32:
		return binary.LittleEndian.AppendUint32(nil, uint32(v<<2)|modeFourByte)
	}

	n := (bits.Len64(v) + 7) / 8
	out := make([]byte, 1, 1+n)
	out[0] = bigIntPrefix(n)
	for i := 0; i < n; i++ {
		out = append(out, byte(v>>(8*i)))
	}
	return out
}

func bigIntPrefix(n int) byte {
	return byte((n-minBigIntBytes)<<2) | modeBigInt
}

// EncodedLen returns the total size of the compact value whose first byte is
// first.
func EncodedLen(first byte) int {
	switch first & 0b11 {
	case modeSingleByte:
		return 1
	case modeTwoByte:
		return 2
	case modeFourByte:
		return 4
	default:
		return 1 + int(first>>2) + minBigIntBytes
	}
}

// Decode reads one compact value from the front of input and returns the
// number of bytes it occupies together with the value. Trailing bytes are
// ignored, so callers can advance a cursor over a larger buffer.
//
//	Decode([]byte{254, 255, 3, 0}) // 4, 0xffff
func Decode(input []byte) (int, *big.Int, error) {
	if len(input) == 0 {
		return 0, nil, fmt.Errorf("%w: empty input", ErrTruncated)
	}

	size := EncodedLen(input[0])
	if len(input) < size {
		return 0, nil, fmt.Errorf("%w: need %d bytes, have %d", ErrTruncated, size, len(input))
	}

	switch input[0] & 0b11 {
	case modeSingleByte:
		return 1, big.NewInt(int64(input[0] >> 2)), nil
	case modeTwoByte, modeFourByte:
		v, err := bn.BytesToUint(input[:size], bn.LE)
		if err != nil {
			return 0, nil, err
		}
		return size, v.Rsh(v, 2), nil
	default:
		v, err := bn.BytesToUint(input[1:size], bn.LE)
		if err != nil {
			return 0, nil, err
		}
		return size, v, nil
	}
}

// DecodeBits is Decode with an upper bound: values wider than maxBitLength
// bits fail with ErrValueTooLarge. A non-positive maxBitLength disables the
// check.
func DecodeBits(input []byte, maxBitLength int) (int, *big.Int, error) {
	n, v, err := Decode(input)
	if err != nil {
		return 0, nil, err
	}
	if maxBitLength > 0 && v.BitLen() > maxBitLength {
		return 0, nil, fmt.Errorf("%w: %d bits, at most %d allowed", ErrValueTooLarge, v.BitLen(), maxBitLength)
	}
	return n, v, nil
}

// DecodeUint64 is Decode for values known to fit in 64 bits.
func DecodeUint64(input []byte) (int, uint64, error) {
	n, v, err := DecodeBits(input, 64)
	if err != nil {
		return 0, 0, err
	}
	return n, v.Uint64(), nil
}

// AddLength prefixes input with its compact-encoded length.
//
//	AddLength([]byte{0xde, 0xad, 0xbe, 0xef}) // [4<<2 0xde 0xad 0xbe 0xef]
func AddLength(input []byte) []byte {
	return u8a.ConcatBytes(EncodeUint64(uint64(len(input))), input)
}

// StripLength reads a length-prefixed payload from the front of input. It
// returns the total number of bytes consumed (prefix and payload) and the
// payload itself, which aliases input.
func StripLength(input []byte) (int, []byte, error) {
	offset, length, err := DecodeUint64(input)
	if err != nil {
		return 0, nil, err
	}
	if length > math.MaxUint32 {
		return 0, nil, fmt.Errorf("%w: %d", ErrLengthLimit, length)
	}
	if uint64(len(input)-offset) < length {
		return 0, nil, fmt.Errorf("%w: payload needs %d bytes, have %d", ErrTruncated, length, len(input)-offset)
	}
	end := offset + int(length)
	return end, input[offset:end], nil
}
