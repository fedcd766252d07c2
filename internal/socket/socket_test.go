package socket_test

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coleifer/go-kt/internal/socket"
	"github.com/coleifer/go-kt/internal/wireerr"
)

func TestRecvExactServesFromBufferAndSocket(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	s := socket.New(client)

	go func() {
		server.Write([]byte("hello"))
		server.Write([]byte(" world"))
	}()

	b, err := s.RecvExact(5)
	require.NoError(t, err)
	require.Equal(t, "hello", string(b))

	b, err = s.RecvExact(6)
	require.NoError(t, err)
	require.Equal(t, " world", string(b))
}

func TestRecvExactOnClosedPeerFailsConnectionClosed(t *testing.T) {
	client, server := net.Pipe()
	s := socket.New(client)
	server.Close()

	_, err := s.RecvExact(1)
	require.Error(t, err)
	require.True(t, wireerr.Is(err, wireerr.ConnectionClosed))
	require.True(t, s.Closed())
}

func TestSendAllFailsAfterClose(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	s := socket.New(client)
	closed, err := s.Close()
	require.NoError(t, err)
	require.True(t, closed)

	err = s.SendAll([]byte("x"))
	require.Error(t, err)
}

func TestCloseIsIdempotent(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	s := socket.New(client)
	closed, err := s.Close()
	require.NoError(t, err)
	require.True(t, closed)

	closed, err = s.Close()
	require.NoError(t, err)
	require.False(t, closed)
}

func TestRecvExactHonorsConfiguredTimeout(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	s, err := socket.Dial(ln.Addr().String(), true, 50*time.Millisecond)
	require.NoError(t, err)
	defer s.Close()

	conn := <-accepted
	defer conn.Close()

	_, err = s.RecvExact(1)
	require.Error(t, err)
	require.True(t, s.Closed())
}

func TestSendAllRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	s := socket.New(client)

	done := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 3)
		server.SetReadDeadline(time.Now().Add(time.Second))
		n, _ := server.Read(buf)
		done <- buf[:n]
	}()

	err := s.SendAll([]byte("abc"))
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), <-done)
}
