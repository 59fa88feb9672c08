package serialization

import (
	"math/big"

	"github.com/eigerco/polkadot-util/pkg/serialization/codec"
	"github.com/eigerco/polkadot-util/pkg/serialization/codec/compact"
	"github.com/eigerco/polkadot-util/pkg/util/bn"
)

// Serializer provides methods to encode and decode using a specified codec.
type Serializer struct {
	codec codec.Codec
}

// NewSerializer initializes a new Serializer with the given codec.
func NewSerializer(c codec.Codec) *Serializer {
	return &Serializer{codec: c}
}

// Encode serializes the given value using the codec.
func (s *Serializer) Encode(v interface{}) ([]byte, error) {
	return s.codec.Marshal(v)
}

// EncodeWithLength serializes v and prefixes the result with its compact length.
func (s *Serializer) EncodeWithLength(v interface{}) ([]byte, error) {
	b, err := s.codec.Marshal(v)
	if err != nil {
		return nil, err
	}
	return compact.AddLength(b), nil
}

// EncodeCompact encodes any integer representation accepted by bn.ToBig.
func (s *Serializer) EncodeCompact(v any) ([]byte, error) {
	x, err := bn.ToBig(v)
	if err != nil {
		return nil, err
	}
	return s.codec.MarshalCompact(x)
}

// Decode deserializes the given data into the specified value using the codec.
func (s *Serializer) Decode(data []byte, v interface{}) error {
	return s.codec.Unmarshal(data, v)
}

// DecodeWithLength strips a compact length prefix and decodes the payload into v.
// It returns the number of bytes consumed.
func (s *Serializer) DecodeWithLength(data []byte, v interface{}) (int, error) {
	n, payload, err := compact.StripLength(data)
	if err != nil {
		return 0, err
	}
	return n, s.codec.Unmarshal(payload, v)
}

// DecodeCompact decodes an unsigned integer and returns it with the number of
// bytes consumed.
func (s *Serializer) DecodeCompact(data []byte) (*big.Int, int, error) {
	x := new(big.Int)
	n, err := s.codec.UnmarshalCompact(data, x)
	if err != nil {
		return nil, 0, err
	}
	return x, n, nil
}
