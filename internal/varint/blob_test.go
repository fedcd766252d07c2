package varint_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coleifer/go-kt/internal/varint"
)

func TestMapRoundTrip(t *testing.T) {
	m := map[string][]byte{
		"a": []byte("1"),
		"bb": []byte("22"),
		"":  []byte("empty key"),
		"x": {},
	}
	keys := make([][]byte, 0, len(m))
	for k := range m {
		keys = append(keys, []byte(k))
	}

	buf, err := varint.EncodeMap(keys, m)
	require.NoError(t, err)

	decoded, err := varint.DecodeMap(buf)
	require.NoError(t, err)
	require.Equal(t, m, decoded)
}

func TestListRoundTrip(t *testing.T) {
	items := [][]byte{[]byte("one"), []byte(""), []byte("three"), {0, 1, 2, 3}}

	buf, err := varint.EncodeList(items)
	require.NoError(t, err)

	decoded, err := varint.DecodeList(buf)
	require.NoError(t, err)
	require.Equal(t, items, decoded)
}

func TestDecodeMapTruncated(t *testing.T) {
	_, err := varint.DecodeMap([]byte{0x05, 0x01, 'a'})
	require.Error(t, err)
}

func TestDecodeListTruncated(t *testing.T) {
	_, err := varint.DecodeList([]byte{0x05, 'a', 'b'})
	require.Error(t, err)
}
