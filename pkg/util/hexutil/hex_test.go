package hexutil

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsHex(t *testing.T) {
	testCases := []struct {
		value        string
		bitLength    int
		ignoreLength bool
		expected     bool
	}{
		{"0x", -1, false, true},
		{"0x1234", -1, false, true},
		{"0xabcDEF", -1, false, true},
		{"0x1234", 16, false, true},
		{"0x1234", 8, false, false},
		{"0x12345", 20, false, true},
		{"0x123", -1, false, false},
		{"0x123", -1, true, true},
		{"1234", -1, false, false},
		{"0X1234", -1, false, false},
		{"0x12zz", -1, false, false},
		{"", -1, false, false},
		{"hello", -1, true, false},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%q/%d/%t", tc.value, tc.bitLength, tc.ignoreLength), func(t *testing.T) {
			assert.Equal(t, tc.expected, isHex(tc.value, tc.bitLength, tc.ignoreLength))
		})
	}

	assert.True(t, IsHex("0x1234"))
	assert.False(t, IsHexBits("0x1234", 8))
	assert.False(t, IsHex("1234"))
	assert.True(t, IsHexAnyLength("0xabc"))
}

func TestHasPrefix(t *testing.T) {
	assert.True(t, HasPrefix("0x1234"))
	assert.True(t, HasPrefix("0x123"))
	assert.True(t, HasPrefix("0x"))
	assert.False(t, HasPrefix("1234"))
	assert.False(t, HasPrefix(""))
	assert.False(t, HasPrefix("0xzz"))
}

func TestStripPrefix(t *testing.T) {
	testCases := []struct {
		value    string
		expected string
	}{
		{"0x1234", "1234"},
		{"0x", ""},
		{"abCD", "abCD"},
		{"0x123", "123"},
		{"", ""},
	}
	for _, tc := range testCases {
		t.Run(tc.value, func(t *testing.T) {
			stripped, err := StripPrefix(tc.value)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, stripped)
		})
	}

	for _, bad := range []string{"zz", "0xzz", "0x12 34", "x12"} {
		t.Run(bad, func(t *testing.T) {
			_, err := StripPrefix(bad)
			require.ErrorIs(t, err, ErrInvalidHex)
		})
	}
}

func TestDecode(t *testing.T) {
	testCases := []struct {
		value     string
		bitLength int
		expected  []byte
	}{
		{"", -1, []byte{}},
		{"0x", -1, []byte{}},
		{"0x80001f", -1, []byte{0x80, 0x00, 0x1f}},
		{"0x80001F", -1, []byte{0x80, 0x00, 0x1f}},
		{"0x80001f", 32, []byte{0x00, 0x80, 0x00, 0x1f}},
		{"0x80001f", 24, []byte{0x80, 0x00, 0x1f}},
		{"0x80001f", 20, []byte{0x80, 0x00, 0x1f}},
		{"0x80001f", 16, []byte{0x80, 0x00}},
		{"0x", 16, []byte{0x00, 0x00}},
	}
	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%s/%d", tc.value, tc.bitLength), func(t *testing.T) {
			decoded, err := DecodeBits(tc.value, tc.bitLength)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, decoded)
		})
	}

	for _, bad := range []string{"1234", "0x123", "0xgg", "hello"} {
		t.Run(bad, func(t *testing.T) {
			_, err := Decode(bad)
			require.ErrorIs(t, err, ErrInvalidHex)
		})
	}

	assert.Panics(t, func() { MustDecode("0x1") })
}

func TestEncode(t *testing.T) {
	assert.Equal(t, "0x68656c6c0f", Encode([]byte{0x68, 0x65, 0x6c, 0x6c, 0x0f}))
	assert.Equal(t, "0x", Encode(nil))
	assert.Equal(t, "0x", Encode([]byte{}))
	assert.Equal(t, "", EncodeWith(nil, -1, false))
	assert.Equal(t, "00ff10", EncodeWith([]byte{0x00, 0xff, 0x10}, -1, false))
}

func TestEncodeTruncated(t *testing.T) {
	value := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a}

	testCases := []struct {
		bitLength  int
		isPrefixed bool
		expected   string
	}{
		// byteLength 4, half 2
		{32, true, "0x0102…090a"},
		{32, false, "0102…090a"},
		// byteLength 3, half 2
		{24, true, "0x0102…090a"},
		// byteLength 1, half 1
		{8, true, "0x01…0a"},
		// byteLength 2, half 1
		{9, true, "0x01…0a"},
		// long enough, no truncation
		{80, true, "0x0102030405060708090a"},
		{-1, true, "0x0102030405060708090a"},
		{0, true, "0x0102030405060708090a"},
	}
	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%d/%t", tc.bitLength, tc.isPrefixed), func(t *testing.T) {
			assert.Equal(t, tc.expected, EncodeWith(value, tc.bitLength, tc.isPrefixed))
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	all := make([]byte, 256)
	for i := range all {
		all[i] = byte(i)
	}
	for n := 0; n <= len(all); n += 17 {
		decoded, err := Decode(Encode(all[:n]))
		require.NoError(t, err)
		assert.Equal(t, all[:n], decoded)
	}
}
