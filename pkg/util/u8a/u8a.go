// Package u8a normalises heterogeneous byte sources into byte slices.
package u8a

import (
	"github.com/eigerco/polkadot-util/pkg/util/hexutil"
)

// Source is one of Hex, Text, Bytes or Numeric. The set is closed.
type Source interface {
	toBytes() ([]byte, error)
}

// Hex is 0x-prefixed hex text.
type Hex string

// Text is UTF-8 text taken verbatim.
type Text string

// Bytes is a raw byte slice, used as-is.
type Bytes []byte

// Numeric is an ordered collection of integers, each narrowed to its low 8 bits.
type Numeric []int

func (h Hex) toBytes() ([]byte, error) { return hexutil.Decode(string(h)) }

func (s Text) toBytes() ([]byte, error) { return TextToBytes(string(s)), nil }

func (b Bytes) toBytes() ([]byte, error) {
	if b == nil {
		return []byte{}, nil
	}
	return b, nil
}

func (n Numeric) toBytes() ([]byte, error) {
	out := make([]byte, len(n))
	for i, v := range n {
		out[i] = byte(v)
	}
	return out, nil
}

// FromString classifies a raw string: valid hex text becomes Hex, anything
// else Text.
func FromString(s string) Source {
	if hexutil.IsHex(s) {
		return Hex(s)
	}
	return Text(s)
}

// ToBytes returns the byte slice a source denotes. A nil source yields an
// empty slice.
func ToBytes(src Source) ([]byte, error) {
	if src == nil {
		return []byte{}, nil
	}
	return src.toBytes()
}

// Concat normalises every source and joins the results in order.
//
//	Concat(Numeric{1, 2, 3}, Bytes{4, 5, 6}) // [1 2 3 4 5 6]
func Concat(srcs ...Source) ([]byte, error) {
	parts := make([][]byte, 0, len(srcs))
	for _, src := range srcs {
		b, err := ToBytes(src)
		if err != nil {
			return nil, err
		}
		parts = append(parts, b)
	}
	return ConcatBytes(parts...), nil
}

// ConcatBytes joins byte slices in order into a newly allocated slice.
func ConcatBytes(parts ...[]byte) []byte {
	total := 0
	for _, p := range parts {
		total += len(p)
	}
	out := make([]byte, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// TextToBytes returns the UTF-8 encoding of value.
func TextToBytes(value string) []byte {
	if value == "" {
		return []byte{}
	}
	return []byte(value)
}

// BytesToText decodes value as UTF-8. Well-formed input is assumed.
func BytesToText(value []byte) string {
	if len(value) == 0 {
		return ""
	}
	return string(value)
}
