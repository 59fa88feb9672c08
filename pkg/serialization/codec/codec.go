package codec

import "math/big"

// Codec encodes values for one wire representation. Compact integers get
// their own methods because every representation spells them differently.
type Codec interface {
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(data []byte, v interface{}) error
	// MarshalCompact encodes an unsigned integer.
	MarshalCompact(x *big.Int) ([]byte, error)
	// UnmarshalCompact decodes an unsigned integer from the front of data into
	// x and returns the number of bytes consumed.
	UnmarshalCompact(data []byte, x *big.Int) (int, error)
}
