package wire_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coleifer/go-kt/internal/wire"
)

func TestWriterPrimitives(t *testing.T) {
	w := wire.NewWriter()
	w.Byte(0xB8).U32(1).U16(7)
	require.Equal(t, []byte{0xB8, 0, 0, 0, 1, 0, 7}, w.Bytes())
}

func TestWriterKey(t *testing.T) {
	w := wire.NewWriter()
	w.Key([]byte("abc"))
	require.Equal(t, []byte{0, 0, 0, 3, 'a', 'b', 'c'}, w.Bytes())
}

func TestWriterKeyList(t *testing.T) {
	w := wire.NewWriter()
	w.KeyList([][]byte{[]byte("a"), []byte("bb")})
	require.Equal(t, []byte{
		0, 0, 0, 2, // count
		0, 0, 0, 1, 'a',
		0, 0, 0, 2, 'b', 'b',
	}, w.Bytes())
}

func TestWriterKeyListWithDB(t *testing.T) {
	w := wire.NewWriter()
	w.KeyListWithDB([][]byte{[]byte("a")}, 3)
	require.Equal(t, []byte{
		0, 0, 0, 1, // count
		0, 3, // db
		0, 0, 0, 1, 'a',
	}, w.Bytes())
}

func TestWriterKV(t *testing.T) {
	w := wire.NewWriter()
	w.KV([]byte("k"), []byte("vv"))
	require.Equal(t, []byte{
		0, 0, 0, 1,
		0, 0, 0, 2,
		'k', 'v', 'v',
	}, w.Bytes())
}

func TestWriterRecordsWithDBExpire(t *testing.T) {
	w := wire.NewWriter()
	w.RecordsWithDBExpire([]wire.Record{{Key: []byte("k"), Val: []byte("v")}}, 1, -1)
	require.Equal(t, []byte{
		0, 0, 0, 1, // count
		0, 1, // db
		0, 0, 0, 1, // klen
		0, 0, 0, 1, // vlen
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, // xt = -1
		'k', 'v',
	}, w.Bytes())
}

func TestWriterFloat64RejectsNegative(t *testing.T) {
	w := wire.NewWriter()
	err := w.Float64(-0.5)
	require.Error(t, err)
}

func TestWriterFloat64EncodesIntegerAndFraction(t *testing.T) {
	w := wire.NewWriter()
	err := w.Float64(3.5)
	require.NoError(t, err)
	require.Len(t, w.Bytes(), 16)

	r := wire.NewReader(fakeReceiver(w.Bytes()))
	v, err := r.Float64()
	require.NoError(t, err)
	require.InDelta(t, 3.5, v, 1e-9)
}

type fakeReceiver []byte

func (f fakeReceiver) RecvExact(n int) ([]byte, error) {
	return f[:n], nil
}
