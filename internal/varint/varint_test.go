package varint_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coleifer/go-kt/internal/varint"
)

func TestRoundTrip(t *testing.T) {
	cases := []uint64{
		0, 1, 127, 128, 129, 16383, 16384,
		1 << 20, 1<<28 - 1, 1 << 28, 1 << 35, 1 << 48, 1<<56 - 1,
	}

	for _, n := range cases {
		buf, err := varint.Write(n)
		require.NoError(t, err)

		value, consumed, err := varint.Read(buf)
		require.NoError(t, err)
		require.Equal(t, n, value)
		require.Equal(t, len(buf), consumed)
	}
}

func TestWriteRejectsOverflow(t *testing.T) {
	_, err := varint.Write(uint64(1) << 56)
	require.Error(t, err)
}

func TestReadTruncated(t *testing.T) {
	_, _, err := varint.Read([]byte{0x80, 0x80})
	require.Error(t, err)
}

func TestByteCounts(t *testing.T) {
	cases := []struct {
		n      uint64
		nbytes int
	}{
		{0, 1},
		{1<<7 - 1, 1},
		{1 << 7, 2},
		{1<<14 - 1, 2},
		{1 << 14, 3},
		{1<<49 - 1, 7},
		{1 << 49, 8},
		{1<<56 - 1, 8},
	}
	for _, c := range cases {
		buf, err := varint.Write(c.n)
		require.NoError(t, err)
		require.Lenf(t, buf, c.nbytes, "n=%d", c.n)
	}
}
