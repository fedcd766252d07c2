package wire_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coleifer/go-kt/internal/wire"
)

// streamReceiver serves RecvExact calls from a single in-memory buffer,
// consuming bytes as they're read, the way a real socket would.
type streamReceiver struct {
	buf []byte
}

func (s *streamReceiver) RecvExact(n int) ([]byte, error) {
	out := s.buf[:n]
	s.buf = s.buf[n:]
	return out, nil
}

func TestReaderPrimitives(t *testing.T) {
	s := &streamReceiver{buf: []byte{0xB8, 0, 0, 0, 1, 0, 7}}
	r := wire.NewReader(s)

	b, err := r.Byte()
	require.NoError(t, err)
	require.Equal(t, byte(0xB8), b)

	u32, err := r.U32()
	require.NoError(t, err)
	require.Equal(t, uint32(1), u32)

	u16, err := r.U16()
	require.NoError(t, err)
	require.Equal(t, uint16(7), u16)
}

func TestReaderKeyRoundTripsWriterKey(t *testing.T) {
	w := wire.NewWriter()
	w.Key([]byte("hello"))

	r := wire.NewReader(&streamReceiver{buf: w.Bytes()})
	key, err := r.Key()
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), key)
}

func TestReaderLengthPrefixedRoundTrip(t *testing.T) {
	w := wire.NewWriter()
	w.U32(3).Raw([]byte("abc"))

	r := wire.NewReader(&streamReceiver{buf: w.Bytes()})
	b, err := r.LengthPrefixed()
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), b)
}

func TestReaderI64RoundTripsNegative(t *testing.T) {
	w := wire.NewWriter()
	w.I64(-42)

	r := wire.NewReader(&streamReceiver{buf: w.Bytes()})
	v, err := r.I64()
	require.NoError(t, err)
	require.Equal(t, int64(-42), v)
}

func TestReaderLengthPrefixedRejectsOversizedFrame(t *testing.T) {
	w := wire.NewWriter()
	w.U32(1 << 30)

	r := wire.NewReader(&streamReceiver{buf: w.Bytes()})
	_, err := r.LengthPrefixed()
	require.Error(t, err)
}
