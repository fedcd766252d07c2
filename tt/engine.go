// Package tt implements the client engine for the TT dialect: a
// single-database store with a rich miscellaneous-command surface,
// reached over its status-byte-framed protocol.
package tt

import (
	"context"
	"fmt"
	"time"

	"github.com/spiral/errors"

	"github.com/coleifer/go-kt/codec"
	"github.com/coleifer/go-kt/internal/pool"
	"github.com/coleifer/go-kt/internal/socket"
	"github.com/coleifer/go-kt/internal/wire"
	"github.com/coleifer/go-kt/internal/wireerr"
	"github.com/coleifer/go-kt/logging"
)

// Engine is a client for one TT server endpoint. An Engine is safe for
// concurrent use, provided each caller supplies a distinct identity to
// every method.
type Engine struct {
	source     pool.Source
	codec      codec.ValueCodec
	decodeKeys bool
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

// WithCodec sets the value codec. The default is codec.Text{}.
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
// across callers (true, the default) or kept one-per-caller (false).
func WithConnectionPool(enabled bool) Option {
	return func(o *options) { o.ConnectionPool = enabled }
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
		log:        o.Log,
	}
}

// CloseCaller releases and closes the socket leased to caller.
func (e *Engine) CloseCaller(caller any) error {
	return e.source.Close(caller)
}

// CloseAll closes every socket the engine's pool holds. A no-op when
// constructed with WithConnectionPool(false).
func (e *Engine) CloseAll() error {
	if p, ok := e.source.(*pool.Pool); ok {
		return p.CloseAll()
	}
	return nil
}

func (e *Engine) decodeKey(b []byte) any {
	if e.decodeKeys {
		return string(b)
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func encodeKey(key any) ([]byte, error) {
	const op = errors.Op("tt.encodeKey")
	switch k := key.(type) {
	case string:
		return []byte(k), nil
	case []byte:
		return k, nil
	default:
		return nil, wireerr.BadArgumentf(op, errors.Str("key must be string or []byte"))
	}
}

func (e *Engine) encodeValue(v any) ([]byte, error) {
	return e.codec.Encode(v)
}

func (e *Engine) decodeValue(b []byte) (any, error) {
	return e.codec.Decode(b)
}

// newRequest starts a request buffer with the magic prefix and op byte
// every TT command begins with.
func newRequest(op byte) *wire.Writer {
	return wire.NewWriter().Byte(magicPrefix).Byte(op)
}

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

func (e *Engine) finish(caller any, callErr error) {
	if callErr != nil {
		e.source.Close(caller)
		return
	}
	e.source.Checkin(caller)
}

// readStatus reads the response status byte, translating anything other
// than ok/miss into a Protocol error.
func readStatus(r *wire.Reader, op errors.Op) (ok bool, err error) {
	b, err := r.Byte()
	if err != nil {
		return false, err
	}
	switch b {
	case statusOK:
		return true, nil
	case statusMiss:
		return false, nil
	default:
		return false, wireerr.WithByte(wireerr.Protocolf(op, errors.Str("unexpected status byte")), b)
	}
}
