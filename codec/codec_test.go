package codec_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coleifer/go-kt/codec"
)

func TestIdentityRoundTrip(t *testing.T) {
	c := codec.Identity{}
	in := []byte{1, 2, 3, 0, 255}

	out, err := c.Encode(in)
	require.NoError(t, err)

	v, err := c.Decode(out)
	require.NoError(t, err)
	require.Equal(t, in, v)
}

func TestTextRoundTrip(t *testing.T) {
	c := codec.Text{}

	out, err := c.Encode("hello world")
	require.NoError(t, err)
	require.Equal(t, "hello world", string(out))

	v, err := c.Decode(out)
	require.NoError(t, err)
	require.Equal(t, "hello world", v)
}

func TestJSONRoundTrip(t *testing.T) {
	c := codec.JSON{}
	in := map[string]any{"a": []any{1.0, 2.0, 3.0}}

	out, err := c.Encode(in)
	require.NoError(t, err)

	v, err := c.Decode(out)
	require.NoError(t, err)
	require.Equal(t, in, v)
}

func TestMsgPackRoundTrip(t *testing.T) {
	c := codec.MsgPack{}
	in := map[string]any{"a": "hello", "b": true}

	out, err := c.Encode(in)
	require.NoError(t, err)

	v, err := c.Decode(out)
	require.NoError(t, err)
	require.Equal(t, in, v)
}

func TestOpaqueRoundTrip(t *testing.T) {
	c := codec.Opaque{}

	out, err := c.Encode(map[string]any{"x": int64(42)})
	require.NoError(t, err)

	v, err := c.Decode(out)
	require.NoError(t, err)
	require.Equal(t, map[string]any{"x": int64(42)}, v)
}

func TestRegistryLookup(t *testing.T) {
	r := codec.NewRegistry()

	for _, name := range []string{codec.NameIdentity, codec.NameText, codec.NameJSON, codec.NameMsgPack, codec.NameOpaque} {
		c, err := r.Get(name)
		require.NoError(t, err)
		require.Equal(t, name, c.Name())
	}

	_, err := r.Get("does-not-exist")
	require.Error(t, err)
}
