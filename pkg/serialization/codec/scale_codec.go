package codec

import (
	"math/big"

	"github.com/ChainSafe/gossamer/pkg/scale"

	"github.com/eigerco/polkadot-util/pkg/serialization/codec/compact"
)

// SCALECodec implements the Codec interface for SCALE encoding and decoding.
type SCALECodec struct{}

func (s *SCALECodec) Marshal(v interface{}) ([]byte, error) {
	return scale.Marshal(v)
}

func (s *SCALECodec) Unmarshal(data []byte, v interface{}) error {
	return scale.Unmarshal(data, v)
}

func (s *SCALECodec) MarshalCompact(x *big.Int) ([]byte, error) {
	return compact.Encode(x)
}

func (s *SCALECodec) UnmarshalCompact(data []byte, x *big.Int) (int, error) {
	n, v, err := compact.Decode(data)
	if err != nil {
		return 0, err
	}
	x.Set(v)
	return n, nil
}
