// Package kt implements the client engine for the KT dialect: a
// multi-database, TTL-capable key/value store reached over the magic-
// byte-framed protocol it speaks.
package kt

import (
	"context"
	"fmt"
	"time"

	"github.com/spiral/errors"

	"github.com/coleifer/go-kt/codec"
	"github.com/coleifer/go-kt/internal/pool"
	"github.com/coleifer/go-kt/internal/socket"
	"github.com/coleifer/go-kt/internal/wireerr"
	"github.com/coleifer/go-kt/logging"
)

// Engine is a client for one KT server endpoint. An Engine is safe for
// concurrent use by multiple callers, provided each supplies a distinct
// caller identity to every method.
type Engine struct {
	source     pool.Source
	codec      codec.ValueCodec
	decodeKeys bool
	defaultDB  uint16
	log        logging.Func
}

// Option configures an Engine at construction.
type Option func(*options)

type options struct {
	DecodeKeys     bool
	Codec          codec.ValueCodec
	Timeout        time.Duration
	NoDelay        bool
	ConnectionPool bool
	DefaultDB      uint16
	Log            logging.Func
}

func defaultOptions() *options {
	return &options{
		DecodeKeys:     true,
		Codec:          codec.Text{},
		NoDelay:        true,
		ConnectionPool: true,
		Log:            logging.Discard,
	}
}

// WithDecodeKeys controls whether returned keys are decoded to text
// (true, the default) or returned as raw bytes (false).
func WithDecodeKeys(decode bool) Option {
	return func(o *options) { o.DecodeKeys = decode }
}

// WithCodec sets the value codec used when a call does not itself
// bypass encoding/decoding. The default is codec.Text{}.
func WithCodec(c codec.ValueCodec) Option {
	return func(o *options) { o.Codec = c }
}

// WithTimeout sets the per-socket receive timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.Timeout = d }
}

// WithNoDelay controls TCP_NODELAY on dialed sockets. Default true.
func WithNoDelay(nodelay bool) Option {
	return func(o *options) { o.NoDelay = nodelay }
}

// WithConnectionPool controls whether checked-in sockets are shared
// across callers via the C4 free list (true, the default) or kept as one
// persistent socket per caller (false).
func WithConnectionPool(enabled bool) Option {
	return func(o *options) { o.ConnectionPool = enabled }
}

// WithDefaultDB sets the database index used when a call omits one.
func WithDefaultDB(db uint16) Option {
	return func(o *options) { o.DefaultDB = db }
}

// WithLogFunc sets the engine's logging callback.
func WithLogFunc(log logging.Func) Option {
	return func(o *options) { o.Log = log }
}

// New constructs an Engine dialing host:port.
func New(host string, port int, opts ...Option) *Engine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	address := fmt.Sprintf("%s:%d", host, port)
	dial := func(ctx context.Context) (*socket.Socket, error) {
		return socket.Dial(address, o.NoDelay, o.Timeout)
	}

	var source pool.Source
	if o.ConnectionPool {
		source = pool.New(dial, pool.WithLogFunc(o.Log))
	} else {
		source = pool.NewSingle(dial)
	}

	return &Engine{
		source:     source,
		codec:      o.Codec,
		decodeKeys: o.DecodeKeys,
		defaultDB:  o.DefaultDB,
		log:        o.Log,
	}
}

// CloseCaller releases and closes the socket leased to caller without
// returning it to a shared free list.
func (e *Engine) CloseCaller(caller any) error {
	return e.source.Close(caller)
}

// CloseAll closes every socket the engine's pool holds, in use or idle.
// It is a no-op (returns nil) when the engine was constructed with
// WithConnectionPool(false), since a Single lease has no bulk-close
// operation — callers must CloseCaller each identity individually.
func (e *Engine) CloseAll() error {
	if p, ok := e.source.(*pool.Pool); ok {
		return p.CloseAll()
	}
	return nil
}

// decodeKey converts a raw wire key to its caller-visible representation.
func (e *Engine) decodeKey(b []byte) any {
	if e.decodeKeys {
		return string(b)
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// encodeKey converts a caller-supplied key (string or []byte) to wire
// bytes.
func encodeKey(key any) ([]byte, error) {
	const op = errors.Op("kt.encodeKey")
	switch k := key.(type) {
	case string:
		return []byte(k), nil
	case []byte:
		return k, nil
	default:
		return nil, wireerr.BadArgumentf(op, errors.Str("key must be string or []byte"))
	}
}

// checkoutAndSend performs the full send phase of a call and returns the
// socket, from which the caller reads the response and which it checks
// back in (or evicts) once parsing is complete. A failed send evicts the
// socket before returning the error.
func (e *Engine) checkoutAndSend(ctx context.Context, caller any, body []byte) (*socket.Socket, error) {
	s, err := e.source.Checkout(ctx, caller)
	if err != nil {
		return nil, err
	}
	if err := s.SendAll(body); err != nil {
		e.source.Close(caller)
		return nil, err
	}
	return s, nil
}

// finish returns the socket to the pool on success, or evicts it when
// the call failed with a transport/protocol-class error.
func (e *Engine) finish(caller any, callErr error) {
	if callErr != nil {
		e.source.Close(caller)
		return
	}
	e.source.Checkin(caller)
}
