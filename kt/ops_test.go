package kt

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

// pipeEngine builds an Engine whose single persistent socket is a
// net.Pipe client half; the returned server half lets a test simulate
// the KT wire protocol without a real TCP listener.
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

func TestGetBulkFoldsIntoMap(t *testing.T) {
	e, server := pipeEngine(t)

	go func() {
		buf := make([]byte, 1024)
		n, _ := server.Read(buf)
		require.Greater(t, n, 0)

		w := wire.NewWriter()
		w.Byte(magicGetBulk)
		w.U32(1) // count
		w.U16(0).U32(2).U32(2).I64(ExpireNever).Raw([]byte("k1")).Raw([]byte("v1"))
		server.Write(w.Bytes())
	}()

	result, err := e.GetBulk(context.Background(), "caller-a", []any{"k1"})
	require.NoError(t, err)
	require.Equal(t, map[any]any{"k1": "v1"}, result)
}

func TestGetBulkDetailsPreservesExpiration(t *testing.T) {
	e, server := pipeEngine(t)

	go func() {
		buf := make([]byte, 1024)
		server.Read(buf)

		w := wire.NewWriter()
		w.Byte(magicGetBulk)
		w.U32(1)
		w.U16(4).U32(1).U32(1).I64(99).Raw([]byte("k")).Raw([]byte("v"))
		server.Write(w.Bytes())
	}()

	details, err := e.GetBulkDetails(context.Background(), "caller-a", []any{"k"})
	require.NoError(t, err)
	require.Len(t, details, 1)
	require.Equal(t, uint16(4), details[0].DB)
	require.Equal(t, int64(99), details[0].Expire)
	require.Equal(t, "v", details[0].Value)
}

func TestSetBulkReturnsStoredCount(t *testing.T) {
	e, server := pipeEngine(t)

	go func() {
		buf := make([]byte, 1024)
		server.Read(buf)

		w := wire.NewWriter()
		w.Byte(magicSetBulk).U32(1)
		server.Write(w.Bytes())
	}()

	n, err := e.Set(context.Background(), "caller-a", "k1", "v1")
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestSetBulkNoReplySkipsResponseRead(t *testing.T) {
	e, server := pipeEngine(t)

	go func() {
		buf := make([]byte, 1024)
		server.Read(buf)
	}()

	n, err := e.Set(context.Background(), "caller-a", "k1", "v1", WithNoReply())
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestRemoveReturnsRemovedCount(t *testing.T) {
	e, server := pipeEngine(t)

	go func() {
		buf := make([]byte, 1024)
		server.Read(buf)

		w := wire.NewWriter()
		w.Byte(magicRemoveBulk).U32(1)
		server.Write(w.Bytes())
	}()

	n, err := e.Remove(context.Background(), "caller-a", "k1")
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestServerErrorMagicBecomesServerInternalError(t *testing.T) {
	e, server := pipeEngine(t)

	go func() {
		buf := make([]byte, 1024)
		server.Read(buf)
		server.Write([]byte{magicError})
	}()

	_, _, err := e.Get(context.Background(), "caller-a", "k1")
	require.Error(t, err)
	require.True(t, wireerr.Is(err, wireerr.ServerInternal))
}

func TestUnexpectedMagicBecomesProtocolError(t *testing.T) {
	e, server := pipeEngine(t)

	go func() {
		buf := make([]byte, 1024)
		server.Read(buf)
		server.Write([]byte{0x42})
	}()

	_, _, err := e.Get(context.Background(), "caller-a", "k1")
	require.Error(t, err)
	require.True(t, wireerr.Is(err, wireerr.Protocol))
}

func TestVoidCallSucceedsOnEmptyScriptResponse(t *testing.T) {
	e, server := pipeEngine(t)

	go func() {
		buf := make([]byte, 1024)
		server.Read(buf)

		w := wire.NewWriter()
		w.Byte(magicPlayScript).U32(0)
		server.Write(w.Bytes())
	}()

	err := e.VoidCall(context.Background(), "caller-a")
	require.NoError(t, err)
}

func TestEncodeValuesFalseRequiresRawBytes(t *testing.T) {
	e, _ := pipeEngine(t)

	_, err := e.Set(context.Background(), "caller-a", "k1", "not-bytes", WithEncodeValues(false))
	require.Error(t, err)
}
