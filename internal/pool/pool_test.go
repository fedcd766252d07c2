package pool_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coleifer/go-kt/internal/pool"
	"github.com/coleifer/go-kt/internal/socket"
)

func newPipeDialer(t *testing.T) (pool.DialFunc, *int) {
	t.Helper()
	dials := 0
	dial := func(ctx context.Context) (*socket.Socket, error) {
		dials++
		client, server := net.Pipe()
		t.Cleanup(func() { server.Close() })
		return socket.New(client), nil
	}
	return dial, &dials
}

func TestCheckoutReusesSameCallerSocket(t *testing.T) {
	dial, dials := newPipeDialer(t)
	p := pool.New(dial)

	s1, err := p.Checkout(context.Background(), "caller-a")
	require.NoError(t, err)

	s2, err := p.Checkout(context.Background(), "caller-a")
	require.NoError(t, err)

	require.Same(t, s1, s2)
	require.Equal(t, 1, *dials)
}

func TestCheckinReturnsSocketToFreeListForReuse(t *testing.T) {
	dial, dials := newPipeDialer(t)
	p := pool.New(dial)

	s1, err := p.Checkout(context.Background(), "caller-a")
	require.NoError(t, err)
	p.Checkin("caller-a")

	s2, err := p.Checkout(context.Background(), "caller-b")
	require.NoError(t, err)

	require.Same(t, s1, s2)
	require.Equal(t, 1, *dials)
}

func TestCheckinOfClosedSocketIsDropped(t *testing.T) {
	dial, _ := newPipeDialer(t)
	p := pool.New(dial)

	s1, err := p.Checkout(context.Background(), "caller-a")
	require.NoError(t, err)
	s1.Close()
	p.Checkin("caller-a")

	require.Equal(t, pool.Stats{InUse: 0, Free: 0}, p.Stats())
}

func TestStatsReflectsOccupancy(t *testing.T) {
	dial, _ := newPipeDialer(t)
	p := pool.New(dial)

	_, err := p.Checkout(context.Background(), "a")
	require.NoError(t, err)
	_, err = p.Checkout(context.Background(), "b")
	require.NoError(t, err)
	require.Equal(t, pool.Stats{InUse: 2, Free: 0}, p.Stats())

	p.Checkin("a")
	require.Equal(t, pool.Stats{InUse: 1, Free: 1}, p.Stats())
}

func TestCloseDiscardsWithoutReturningToFreeList(t *testing.T) {
	dial, _ := newPipeDialer(t)
	p := pool.New(dial)

	_, err := p.Checkout(context.Background(), "a")
	require.NoError(t, err)

	require.NoError(t, p.Close("a"))
	require.Equal(t, pool.Stats{InUse: 0, Free: 0}, p.Stats())
}

func TestCloseAllClearsEverything(t *testing.T) {
	dial, _ := newPipeDialer(t)
	p := pool.New(dial)

	_, err := p.Checkout(context.Background(), "a")
	require.NoError(t, err)
	_, err = p.Checkout(context.Background(), "b")
	require.NoError(t, err)
	p.Checkin("b")

	require.NoError(t, p.CloseAll())
	require.Equal(t, pool.Stats{InUse: 0, Free: 0}, p.Stats())
}

func TestCloseIdleClosesOnlyStaleEntries(t *testing.T) {
	dial, _ := newPipeDialer(t)
	p := pool.New(dial)

	_, err := p.Checkout(context.Background(), "a")
	require.NoError(t, err)
	_, err = p.Checkout(context.Background(), "b")
	require.NoError(t, err)
	p.Checkin("a")

	time.Sleep(5 * time.Millisecond)

	p.Checkin("b")

	n, err := p.CloseIdle(2 * time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, pool.Stats{InUse: 0, Free: 1}, p.Stats())
}

func TestCheckoutReturnsDialError(t *testing.T) {
	wantErr := net.UnknownNetworkError("boom")
	dial := func(ctx context.Context) (*socket.Socket, error) {
		return nil, wantErr
	}
	p := pool.New(dial)

	_, err := p.Checkout(context.Background(), "a")
	require.Error(t, err)
}
