package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/eigerco/polkadot-util/pkg/util/bn"
	"github.com/eigerco/polkadot-util/pkg/util/hexutil"
)

const (
	MethodSubscribeNewHeads   = "chain_subscribeNewHeads"
	MethodUnsubscribeNewHeads = "chain_unsubscribeNewHeads"
	MethodGetHeader           = "chain_getHeader"
)

// Header is a block header as rendered by the node's JSON-RPC interface.
// Hashes and numbers stay in their hex text form.
type Header struct {
	ParentHash     string `json:"parentHash"`
	Number         string `json:"number"`
	StateRoot      string `json:"stateRoot"`
	ExtrinsicsRoot string `json:"extrinsicsRoot"`
	Digest         Digest `json:"digest"`
}

type Digest struct {
	Logs []string `json:"logs"`
}

// BlockNumber decodes the big-endian hex block number.
func (h Header) BlockNumber() (*big.Int, error) {
	return bn.HexToUint(h.Number, bn.Options{})
}

// ParentHashBytes decodes the parent hash, which must be 256 bits wide.
func (h Header) ParentHashBytes() ([]byte, error) {
	if !hexutil.IsHexBits(h.ParentHash, 256) {
		return nil, fmt.Errorf("%w: parent hash %q", hexutil.ErrInvalidHex, h.ParentHash)
	}
	return hexutil.Decode(h.ParentHash)
}

// DecodeHeader parses a new-head notification payload.
func DecodeHeader(raw json.RawMessage) (Header, error) {
	var h Header
	if err := json.Unmarshal(raw, &h); err != nil {
		return Header{}, fmt.Errorf("decoding header: %w", err)
	}
	if !hexutil.IsHexAnyLength(h.Number) {
		return Header{}, fmt.Errorf("%w: block number %q", hexutil.ErrInvalidHex, h.Number)
	}
	return h, nil
}

// SubscribeNewHeads subscribes to newly imported block headers.
func (c *Client) SubscribeNewHeads(ctx context.Context) (*Subscription, error) {
	return c.Subscribe(ctx, MethodSubscribeNewHeads, MethodUnsubscribeNewHeads)
}

// GetHeader fetches the header of the best block.
func (c *Client) GetHeader(ctx context.Context) (Header, error) {
	var h Header
	if err := c.Call(ctx, MethodGetHeader, &h); err != nil {
		return Header{}, err
	}
	return h, nil
}
