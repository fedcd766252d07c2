// Package waitready implements a bounded-retry TCP reachability probe
// used by the ktcli front-end and by tests that start a server out of
// process and need to wait for its listening socket. It is never used
// inside the kt/tt engine or pool core, which retries nothing of its
// own accord.
package waitready

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/Rican7/retry"
	"github.com/Rican7/retry/backoff"
	"github.com/Rican7/retry/strategy"

	"github.com/coleifer/go-kt/logging"
)

// Options tune the retry loop. The zero value is not directly usable;
// construct with DefaultOptions and override fields as needed.
type Options struct {
	// DialTimeout bounds a single connection attempt.
	DialTimeout time.Duration
	// BackoffFactor and BackoffCap shape the exponential backoff
	// between attempts.
	BackoffFactor time.Duration
	BackoffCap    time.Duration
	// RetryLimit bounds the number of retries after the first attempt,
	// so at most RetryLimit+1 attempts are made. Zero means unlimited
	// (bounded only by ctx).
	RetryLimit uint
	Log        logging.Func
}

// DefaultOptions returns sane defaults: a one-second dial timeout, a
// 50ms backoff factor (the first retry waits 100ms, doubling each time)
// capped at one second, unlimited retries.
func DefaultOptions() Options {
	return Options{
		DialTimeout:   time.Second,
		BackoffFactor: 50 * time.Millisecond,
		BackoffCap:    time.Second,
		Log:           logging.Discard,
	}
}

// Wait blocks until address accepts a TCP connection, ctx is done, or
// the retry limit is exhausted, whichever comes first.
func Wait(ctx context.Context, address string, opts Options) error {
	if opts.Log == nil {
		opts.Log = logging.Discard
	}

	strategies := opts.retryStrategies(address)

	err := retry.Retry(func(attempt uint) error {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		log := func(l logging.Level, format string, a ...any) {
			opts.Log(l, fmt.Sprintf("waitready: attempt %d: ", attempt)+format, a...)
		}

		d := net.Dialer{Timeout: opts.DialTimeout}
		conn, err := d.DialContext(ctx, "tcp", address)
		if err != nil {
			log(logging.Debug, "%s not yet reachable: %v", address, err)
			return err
		}
		conn.Close()
		log(logging.Info, "%s reachable", address)
		return nil
	}, strategies...)

	if err != nil {
		return fmt.Errorf("waitready: %s never became reachable: %w", address, err)
	}
	if ctx.Err() != nil {
		return fmt.Errorf("waitready: %s: %w", address, ctx.Err())
	}
	return nil
}

// retryStrategies builds the exponential-backoff retry strategy used by
// Wait, logging the sleep before each attempt after the first through
// opts.Log — the same "wrap the log func with an attempt prefix" idiom
// the teacher's own Connector.Connect applies around its retry loop,
// applied here to the backoff delay itself rather than just the dial
// outcome.
func (opts Options) retryStrategies(address string) []strategy.Strategy {
	limit := opts.RetryLimit + 1
	bo := backoff.BinaryExponential(opts.BackoffFactor)

	var strategies []strategy.Strategy
	if limit > 1 {
		strategies = append(strategies, strategy.Limit(limit))
	}

	strategies = append(strategies, func(attempt uint) bool {
		if attempt > 0 {
			d := bo(attempt)
			if d > opts.BackoffCap || d <= 0 {
				d = opts.BackoffCap
			}
			opts.Log(logging.Debug, "waitready: attempt %d: backing off %s before retrying %s", attempt, d, address)
			time.Sleep(d)
		}
		return true
	})

	return strategies
}
