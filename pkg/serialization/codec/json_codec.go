package codec

import (
	"encoding/json"
	"math/big"

	"github.com/eigerco/polkadot-util/pkg/util/bn"
)

// JSONCodec implements the Codec interface for JSON encoding and decoding.
// Unsigned integers travel as hex strings, the way JSON-RPC nodes report
// block numbers and balances.
type JSONCodec struct{}

func (j *JSONCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (j *JSONCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (j *JSONCodec) MarshalCompact(x *big.Int) ([]byte, error) {
	s, err := bn.UintToHex(x, bn.Options{})
	if err != nil {
		return nil, err
	}
	return json.Marshal(s)
}

func (j *JSONCodec) UnmarshalCompact(data []byte, x *big.Int) (int, error) {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return 0, err
	}
	v, err := bn.HexToUint(s, bn.Options{})
	if err != nil {
		return 0, err
	}
	x.Set(v)
	return len(data), nil
}
