// Package headstore records block headers seen on a head subscription.
//
// Headers are keyed by "head/" followed by the block number as a 64-bit
// big-endian integer, so iteration follows block order. Values are the SCALE
// encoding of the header with every hex field decoded to bytes.
package headstore

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/eigerco/polkadot-util/pkg/db"
	"github.com/eigerco/polkadot-util/pkg/rpc"
	"github.com/eigerco/polkadot-util/pkg/serialization"
	"github.com/eigerco/polkadot-util/pkg/serialization/codec"
	"github.com/eigerco/polkadot-util/pkg/util/bn"
	"github.com/eigerco/polkadot-util/pkg/util/hexutil"
	"github.com/eigerco/polkadot-util/pkg/util/u8a"
)

const numberBits = 64

var (
	keyPrefix = []byte("head/")
	// First key past every "head/" key.
	keyLimit = []byte("head0")
	// Number of the most recently recorded header.
	bestKey = []byte("best")
)

var (
	ErrNumberTooLarge = errors.New("headstore: block number does not fit in 64 bits")

	ErrNoHeads = errors.New("headstore: no header recorded")
)

// record is the stored form of rpc.Header.
type record struct {
	ParentHash     []byte
	StateRoot      []byte
	ExtrinsicsRoot []byte
	Logs           [][]byte
}

// Store persists headers into a db.KVStore.
type Store struct {
	kv         db.KVStore
	serializer *serialization.Serializer
}

func New(kv db.KVStore) *Store {
	return &Store{
		kv:         kv,
		serializer: serialization.NewSerializer(&codec.SCALECodec{}),
	}
}

func numberBytes(number *big.Int) ([]byte, error) {
	b, err := bn.UintToBytes(number, bn.Options{BitLength: numberBits})
	if errors.Is(err, bn.ErrLengthMismatch) {
		return nil, fmt.Errorf("%w: %s", ErrNumberTooLarge, number)
	}
	return b, err
}

func key(number *big.Int) ([]byte, error) {
	b, err := numberBytes(number)
	if err != nil {
		return nil, err
	}
	return u8a.ConcatBytes(keyPrefix, b), nil
}

// Put stores h under its block number, replacing an earlier header with the
// same number (a re-org), and marks it as the best head. Both writes land in
// one batch.
func (s *Store) Put(h rpc.Header) error {
	number, err := h.BlockNumber()
	if err != nil {
		return err
	}
	nb, err := numberBytes(number)
	if err != nil {
		return err
	}
	k := u8a.ConcatBytes(keyPrefix, nb)

	rec := record{Logs: make([][]byte, 0, len(h.Digest.Logs))}
	if rec.ParentHash, err = hexutil.Decode(h.ParentHash); err != nil {
		return fmt.Errorf("parent hash: %w", err)
	}
	if rec.StateRoot, err = hexutil.Decode(h.StateRoot); err != nil {
		return fmt.Errorf("state root: %w", err)
	}
	if rec.ExtrinsicsRoot, err = hexutil.Decode(h.ExtrinsicsRoot); err != nil {
		return fmt.Errorf("extrinsics root: %w", err)
	}
	for _, l := range h.Digest.Logs {
		b, err := hexutil.Decode(l)
		if err != nil {
			return fmt.Errorf("digest log: %w", err)
		}
		rec.Logs = append(rec.Logs, b)
	}

	value, err := s.serializer.Encode(rec)
	if err != nil {
		return fmt.Errorf("encoding header %s: %w", number, err)
	}

	batch := s.kv.NewBatch()
	defer batch.Close()
	if err := batch.Put(k, value); err != nil {
		return err
	}
	if err := batch.Put(bestKey, nb); err != nil {
		return err
	}
	return batch.Commit()
}

// Best returns the most recently recorded header. After a re-org it can be
// lower than headers recorded before it.
func (s *Store) Best() (rpc.Header, error) {
	ok, err := s.kv.Has(bestKey)
	if err != nil {
		return rpc.Header{}, err
	}
	if !ok {
		return rpc.Header{}, ErrNoHeads
	}
	nb, err := s.kv.Get(bestKey)
	if err != nil {
		return rpc.Header{}, err
	}
	return s.decodeAt(u8a.ConcatBytes(keyPrefix, nb))
}

// Get returns the header stored for number.
func (s *Store) Get(number *big.Int) (rpc.Header, error) {
	k, err := key(number)
	if err != nil {
		return rpc.Header{}, err
	}
	return s.decodeAt(k)
}

func (s *Store) decodeAt(k []byte) (rpc.Header, error) {
	value, err := s.kv.Get(k)
	if err != nil {
		return rpc.Header{}, err
	}
	return s.decode(k, value)
}

// Range calls fn for every stored header with from <= number < to, in block
// order. A nil bound is open. Returning an error from fn stops the walk.
func (s *Store) Range(from, to *big.Int, fn func(rpc.Header) error) error {
	start, end := keyPrefix, keyLimit
	var err error
	if from != nil {
		if start, err = key(from); err != nil {
			return err
		}
	}
	if to != nil {
		if end, err = key(to); err != nil {
			return err
		}
	}

	iter, err := s.kv.NewIterator(start, end)
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.Next() {
		value, err := iter.Value()
		if err != nil {
			return err
		}
		h, err := s.decode(iter.Key(), value)
		if err != nil {
			return err
		}
		if err := fn(h); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) decode(k, value []byte) (rpc.Header, error) {
	number, err := bn.BytesToUint(k[len(keyPrefix):], bn.Options{})
	if err != nil {
		return rpc.Header{}, err
	}
	numberHex, err := bn.UintToHex(number, bn.Options{})
	if err != nil {
		return rpc.Header{}, err
	}

	var rec record
	if err := s.serializer.Decode(value, &rec); err != nil {
		return rpc.Header{}, fmt.Errorf("decoding header %s: %w", number, err)
	}

	h := rpc.Header{
		ParentHash:     hexutil.Encode(rec.ParentHash),
		Number:         numberHex,
		StateRoot:      hexutil.Encode(rec.StateRoot),
		ExtrinsicsRoot: hexutil.Encode(rec.ExtrinsicsRoot),
		Digest:         rpc.Digest{Logs: make([]string, 0, len(rec.Logs))},
	}
	for _, l := range rec.Logs {
		h.Digest.Logs = append(h.Digest.Logs, hexutil.Encode(l))
	}
	return h, nil
}
