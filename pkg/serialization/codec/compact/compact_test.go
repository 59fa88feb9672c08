package compact

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/polkadot-util/pkg/util/bn"
)

func pow2(n uint) *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), n)
}

func TestEncodeDecode(t *testing.T) {
	maxBig := new(big.Int).Sub(pow2(8*MaxBigIntBytes), big.NewInt(1))
	maxBigEncoded := append([]byte{0xff}, make([]byte, MaxBigIntBytes)...)
	for i := 1; i < len(maxBigEncoded); i++ {
		maxBigEncoded[i] = 0xff
	}

	testCases := []struct {
		input    *big.Int
		expected []byte
	}{
		// single byte
		{big.NewInt(0), []byte{0x00}},
		{big.NewInt(1), []byte{0x04}},
		{big.NewInt(42), []byte{0xa8}},
		{big.NewInt(MaxU8), []byte{0xfc}}, // 63
		// two bytes
		{big.NewInt(MaxU8 + 1), []byte{0x01, 0x01}}, // 64
		{big.NewInt(69), []byte{0x15, 0x01}},
		{big.NewInt(511), []byte{0xfd, 0x07}},
		{big.NewInt(MaxU16), []byte{0xfd, 0xff}}, // 16383
		// four bytes
		{big.NewInt(MaxU16 + 1), []byte{0x02, 0x00, 0x01, 0x00}}, // 16384
		{big.NewInt(0xffff), []byte{0xfe, 0xff, 0x03, 0x00}},
		{big.NewInt(MaxU32), []byte{0xfe, 0xff, 0xff, 0xff}}, // 2^30-1
		// big integer
		{big.NewInt(MaxU32 + 1), []byte{0x03, 0x00, 0x00, 0x00, 0x40}}, // 2^30
		{big.NewInt(math.MaxUint32), []byte{0x03, 0xff, 0xff, 0xff, 0xff}},
		{pow2(32), []byte{0x07, 0x00, 0x00, 0x00, 0x00, 0x01}},
		{new(big.Int).SetUint64(math.MaxUint64), []byte{0x13, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}},
		{pow2(64), []byte{0x17, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01}},
		{maxBig, maxBigEncoded},
	}

	for _, tc := range testCases {
		t.Run(tc.input.String(), func(t *testing.T) {
			encoded, err := Encode(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, encoded)

			if tc.input.IsUint64() {
				assert.Equal(t, tc.expected, EncodeUint64(tc.input.Uint64()))
			}

			// Trailing bytes must not be consumed.
			n, decoded, err := Decode(append(encoded, 0xaa, 0xbb))
			require.NoError(t, err)
			assert.Equal(t, len(tc.expected), n)
			assert.Equal(t, 0, tc.input.Cmp(decoded), "decoded %s", decoded)
		})
	}
}

func TestEncodeBoundaries(t *testing.T) {
	testCases := []struct {
		value  uint64
		length int
	}{
		{63, 1},
		{64, 2},
		{16383, 2},
		{16384, 4},
		{1<<30 - 1, 4},
		{1 << 30, 5},
		{1<<40 - 1, 6},
	}
	for _, tc := range testCases {
		assert.Len(t, EncodeUint64(tc.value), tc.length, "value %d", tc.value)
	}
}

func TestEncodeNil(t *testing.T) {
	encoded, err := Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00}, encoded)
}

func TestEncodeErrors(t *testing.T) {
	_, err := Encode(big.NewInt(-1))
	require.ErrorIs(t, err, bn.ErrNegativeValue)

	_, err = Encode(pow2(8 * MaxBigIntBytes))
	require.ErrorIs(t, err, ErrValueTooLarge)
}

func TestRoundTrip(t *testing.T) {
	check := func(v uint64) {
		encoded := EncodeUint64(v)
		n, decoded, err := Decode(encoded)
		require.NoError(t, err)
		require.Equal(t, len(encoded), n, "value %d", v)
		require.True(t, decoded.IsUint64())
		require.Equal(t, v, decoded.Uint64())

		n64, decoded64, err := DecodeUint64(encoded)
		require.NoError(t, err)
		require.Equal(t, n, n64)
		require.Equal(t, v, decoded64)
	}

	for v := uint64(0); v < 1<<17; v++ {
		check(v)
	}
	for v := uint64(1 << 17); v < 1<<40; v = v*3/2 + 1 {
		check(v)
	}
	for shift := uint(0); shift < 64; shift++ {
		check(1<<shift - 1)
		check(1 << shift)
	}
	check(math.MaxUint64)
}

func TestDecodeErrors(t *testing.T) {
	testCases := []struct {
		name  string
		input []byte
	}{
		{"empty", nil},
		{"two byte mode", []byte{0x01}},
		{"four byte mode", []byte{0x02, 0x00, 0x00}},
		{"big integer mode", []byte{0x03, 0x00, 0x00, 0x00}},
		{"big integer length", []byte{0x07, 0x00, 0x00, 0x00, 0x00}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Decode(tc.input)
			require.ErrorIs(t, err, ErrTruncated)
		})
	}
}

func TestDecodeBits(t *testing.T) {
	n, v, err := DecodeBits([]byte{0xfe, 0xff, 0xff, 0xff}, 32)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, int64(MaxU32), v.Int64())

	_, _, err = DecodeBits(EncodeUint64(1<<32), 32)
	require.ErrorIs(t, err, ErrValueTooLarge)

	_, v, err = DecodeBits(EncodeUint64(1<<32), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1<<32), v.Int64())

	encoded, err := Encode(pow2(64))
	require.NoError(t, err)
	_, _, err = DecodeUint64(encoded)
	require.ErrorIs(t, err, ErrValueTooLarge)
}

func TestEncodedLen(t *testing.T) {
	assert.Equal(t, 1, EncodedLen(0xfc))
	assert.Equal(t, 2, EncodedLen(0x01))
	assert.Equal(t, 4, EncodedLen(0x02))
	assert.Equal(t, 5, EncodedLen(0x03))
	assert.Equal(t, 1+MaxBigIntBytes, EncodedLen(0xff))
}

func TestAddLength(t *testing.T) {
	assert.Equal(t, []byte{16, 0xde, 0xad, 0xbe, 0xef}, AddLength([]byte{0xde, 0xad, 0xbe, 0xef}))
	assert.Equal(t, []byte{0x00}, AddLength(nil))

	payload := make([]byte, 100)
	framed := AddLength(payload)
	require.Len(t, framed, 102)
	assert.Equal(t, []byte{0x91, 0x01}, framed[:2])
}

func TestStripLength(t *testing.T) {
	for _, size := range []int{0, 1, 63, 64, 300, 16384} {
		payload := make([]byte, size)
		for i := range payload {
			payload[i] = byte(i)
		}
		framed := append(AddLength(payload), 0x99)

		n, stripped, err := StripLength(framed)
		require.NoError(t, err)
		assert.Equal(t, len(framed)-1, n)
		assert.Equal(t, payload, stripped)
	}

	_, _, err := StripLength([]byte{16, 0xde, 0xad})
	require.ErrorIs(t, err, ErrTruncated)

	_, _, err = StripLength(EncodeUint64(1 << 33))
	require.ErrorIs(t, err, ErrLengthLimit)

	// Largest allowed length with a short payload.
	_, _, err = StripLength(append(EncodeUint64(math.MaxUint32), 0x01, 0x02))
	require.ErrorIs(t, err, ErrTruncated)
}
