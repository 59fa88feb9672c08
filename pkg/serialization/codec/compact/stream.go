package compact

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
)

// Encoder writes compact values to an underlying writer.
type Encoder struct {
	w io.Writer
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes the compact form of value. Negative values are rejected
// before anything is written.
func (e *Encoder) Encode(value *big.Int) error {
	b, err := Encode(value)
	if err != nil {
		return err
	}
	_, err = e.w.Write(b)
	return err
}

// EncodeUint64 writes the compact form of v.
func (e *Encoder) EncodeUint64(v uint64) error {
	_, err := e.w.Write(EncodeUint64(v))
	return err
}

// EncodeBytes writes b prefixed with its compact length.
func (e *Encoder) EncodeBytes(b []byte) error {
	if err := e.EncodeUint64(uint64(len(b))); err != nil {
		return err
	}
	_, err := e.w.Write(b)
	return err
}

// Decoder reads compact values from an underlying reader, consuming exactly
// the bytes of each value.
type Decoder struct {
	r io.Reader
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

func (d *Decoder) readRaw() ([]byte, error) {
	var first [1]byte
	if _, err := io.ReadFull(d.r, first[:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTruncated, err)
	}

	buf := make([]byte, EncodedLen(first[0]))
	buf[0] = first[0]
	if _, err := io.ReadFull(d.r, buf[1:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTruncated, err)
	}
	return buf, nil
}

// Decode reads the next compact value.
func (d *Decoder) Decode() (*big.Int, error) {
	raw, err := d.readRaw()
	if err != nil {
		return nil, err
	}
	_, v, err := Decode(raw)
	return v, err
}

// DecodeUint64 reads the next compact value, which must fit in 64 bits.
func (d *Decoder) DecodeUint64() (uint64, error) {
	raw, err := d.readRaw()
	if err != nil {
		return 0, err
	}
	_, v, err := DecodeUint64(raw)
	return v, err
}

// DecodeBytes reads a length-prefixed byte slice. The declared length is not
// trusted: the buffer grows with the bytes actually read.
func (d *Decoder) DecodeBytes() ([]byte, error) {
	length, err := d.DecodeUint64()
	if err != nil {
		return nil, err
	}
	if length > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d", ErrLengthLimit, length)
	}

	var buf bytes.Buffer
	n, err := io.CopyN(&buf, d.r, int64(length))
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: payload needs %d bytes, have %d", ErrTruncated, length, n)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
