package tt

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coleifer/go-kt/codec"
	"github.com/coleifer/go-kt/internal/pool"
	"github.com/coleifer/go-kt/internal/socket"
	"github.com/coleifer/go-kt/internal/wire"
	"github.com/coleifer/go-kt/internal/wireerr"
	"github.com/coleifer/go-kt/logging"
)

func pipeEngine(t *testing.T) (*Engine, net.Conn) {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() { server.Close() })

	dial := func(ctx context.Context) (*socket.Socket, error) {
		return socket.New(client), nil
	}
	e := &Engine{
		source:     pool.NewSingle(dial),
		codec:      codec.Text{},
		decodeKeys: true,
		log:        logging.Discard,
	}
	return e, server
}

func TestPutReturnsStatus(t *testing.T) {
	e, server := pipeEngine(t)

	go func() {
		buf := make([]byte, 1024)
		server.Read(buf)
		server.Write([]byte{statusOK})
	}()

	ok, err := e.Put(context.Background(), "c", "k", "v")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestPutKeepReportsMissAsNotApplied(t *testing.T) {
	e, server := pipeEngine(t)

	go func() {
		buf := make([]byte, 1024)
		server.Read(buf)
		server.Write([]byte{statusMiss})
	}()

	ok, err := e.PutKeep(context.Background(), "c", "k", "v")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGetReturnsValueOnHit(t *testing.T) {
	e, server := pipeEngine(t)

	go func() {
		buf := make([]byte, 1024)
		server.Read(buf)
		w := wire.NewWriter()
		w.Byte(statusOK).U32(1).Raw([]byte("v"))
		server.Write(w.Bytes())
	}()

	v, found, err := e.Get(context.Background(), "c", "k")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "v", v)
}

func TestGetReportsAbsentOnMiss(t *testing.T) {
	e, server := pipeEngine(t)

	go func() {
		buf := make([]byte, 1024)
		server.Read(buf)
		server.Write([]byte{statusMiss})
	}()

	_, found, err := e.Get(context.Background(), "c", "k")
	require.NoError(t, err)
	require.False(t, found)
}

func TestMGetReturnsOnlyHits(t *testing.T) {
	e, server := pipeEngine(t)

	go func() {
		buf := make([]byte, 1024)
		server.Read(buf)
		w := wire.NewWriter()
		w.Byte(statusOK).U32(1)
		w.KV([]byte("k"), []byte("v"))
		server.Write(w.Bytes())
	}()

	m, err := e.MGet(context.Background(), "c", []any{"k", "missing"})
	require.NoError(t, err)
	require.Equal(t, map[any]any{"k": "v"}, m)
}

func TestVsizReturnsSize(t *testing.T) {
	e, server := pipeEngine(t)

	go func() {
		buf := make([]byte, 1024)
		server.Read(buf)
		w := wire.NewWriter()
		w.Byte(statusOK).U32(1)
		server.Write(w.Bytes())
	}()

	sz, found, err := e.Vsiz(context.Background(), "c", "k")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 1, sz)
}

func TestExtRejectsBothLockFlags(t *testing.T) {
	e, _ := pipeEngine(t)

	_, _, err := e.Ext(context.Background(), "c", "script", "k", "v", ExtLockRecord|ExtLockGlobal, false)
	require.Error(t, err)
}

func TestExtFailureBecomesScriptError(t *testing.T) {
	e, server := pipeEngine(t)

	go func() {
		buf := make([]byte, 1024)
		server.Read(buf)
		server.Write([]byte{0x02})
	}()

	_, ran, err := e.Ext(context.Background(), "c", "script", "k", "v", ExtLockNone, false)
	require.Error(t, err)
	require.True(t, wireerr.Is(err, wireerr.Script))
	require.False(t, ran)
}

func TestRnumReadsInt64(t *testing.T) {
	e, server := pipeEngine(t)

	go func() {
		buf := make([]byte, 1024)
		server.Read(buf)
		w := wire.NewWriter()
		w.Byte(statusOK).I64(42)
		server.Write(w.Bytes())
	}()

	n, err := e.Rnum(context.Background(), "c")
	require.NoError(t, err)
	require.Equal(t, int64(42), n)
}

func TestIterateYieldsKeysThenEnds(t *testing.T) {
	e, server := pipeEngine(t)

	go func() {
		buf := make([]byte, 1024)

		server.Read(buf) // iterinit
		server.Write([]byte{statusOK})

		server.Read(buf) // iternext #1
		w := wire.NewWriter()
		w.Byte(statusOK).Key([]byte("a"))
		server.Write(w.Bytes())

		server.Read(buf) // iternext #2 -> end
		server.Write([]byte{statusMiss})
	}()

	it, err := e.Iterate(context.Background(), "c")
	require.NoError(t, err)

	key, ok, err := it.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "a", key)

	_, ok, err = it.Next()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSplitSearchGetItem(t *testing.T) {
	item := append([]byte{0xff}, append([]byte("key"), append([]byte{0}, []byte("rest")...)...)...)
	key, rest := SplitSearchGetItem(item)
	require.Equal(t, []byte("key"), key)
	require.Equal(t, []byte("rest"), rest)
}
