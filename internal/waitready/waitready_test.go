package waitready

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitSucceedsOnceListening(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	opts := DefaultOptions()
	opts.RetryLimit = 5

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, Wait(ctx, ln.Addr().String(), opts))
}

func TestWaitFailsWhenNeverReachable(t *testing.T) {
	opts := DefaultOptions()
	opts.BackoffFactor = time.Millisecond
	opts.BackoffCap = 5 * time.Millisecond
	opts.RetryLimit = 3

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := Wait(ctx, "127.0.0.1:1", opts)
	assert.Error(t, err)
}
