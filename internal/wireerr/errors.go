// Package wireerr defines the typed error kinds shared by the KT and TT
// engines: transport failures, timeouts, orderly closes,
// protocol violations, server-side failures, caller-side bad arguments,
// and script execution failures.
package wireerr

import (
	"fmt"

	"github.com/spiral/errors"
)

// Kind classifies an Error.
type Kind uint8

const (
	// Transport is a low-level socket I/O failure unrelated to timeout
	// or orderly close.
	Transport Kind = iota
	// Timeout is a socket receive timeout.
	Timeout
	// ConnectionClosed means the peer closed the connection, or a read
	// returned zero bytes.
	ConnectionClosed
	// Protocol means an unexpected magic byte, unexpected status byte,
	// truncated varint, truncated blob item, or other parse invariant
	// violation.
	Protocol
	// ServerInternal means the server returned its error indicator (KT
	// magic 0xBF). A TT status byte outside {0,1} is reported as
	// Protocol.
	ServerInternal
	// BadArgument is a caller-side precondition failure, detected before
	// any I/O takes place.
	BadArgument
	// Script means the server reported script execution failure (TT
	// ext status != 0).
	Script
)

// String implements the Stringer interface.
func (k Kind) String() string {
	switch k {
	case Transport:
		return "transport error"
	case Timeout:
		return "timeout"
	case ConnectionClosed:
		return "connection closed"
	case Protocol:
		return "protocol error"
	case ServerInternal:
		return "server internal error"
	case BadArgument:
		return "bad argument"
	case Script:
		return "script error"
	default:
		return "unknown error"
	}
}

// Error is the concrete error type returned by every operation in the
// kt/tt engines and the socket/pool layers beneath them.
type Error struct {
	Kind Kind
	Op   errors.Op
	Err  error
	// Byte is the offending byte, when the error kind is meaningfully
	// tied to one (e.g. an unexpected magic or status byte).
	Byte *byte
}

// Error implements the error interface.
func (e *Error) Error() string {
	wrapped := errors.E(e.Op, e.Err)
	if e.Byte != nil {
		return fmt.Sprintf("%s: %s (byte 0x%02x)", e.Kind, wrapped.Error(), *e.Byte)
	}
	return fmt.Sprintf("%s: %s", e.Kind, wrapped.Error())
}

// Unwrap exposes the underlying cause for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an *Error of the given kind for operation op, wrapping err.
func New(op errors.Op, kind Kind, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// WithByte attaches the offending byte to the error and returns it.
func WithByte(e *Error, b byte) *Error {
	e.Byte = &b
	return e
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errorsAs(err, &e) {
		return false
	}
	return e.Kind == kind
}

// errorsAs is a tiny indirection so this file only imports the stdlib
// errors semantics it needs without shadowing the spiral/errors import
// name above.
func errorsAs(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// Transportf builds a Transport error.
func Transportf(op errors.Op, err error) *Error { return New(op, Transport, err) }

// Timeoutf builds a Timeout error.
func Timeoutf(op errors.Op, err error) *Error { return New(op, Timeout, err) }

// ConnectionClosedf builds a ConnectionClosed error.
func ConnectionClosedf(op errors.Op, err error) *Error { return New(op, ConnectionClosed, err) }

// Protocolf builds a Protocol error.
func Protocolf(op errors.Op, err error) *Error { return New(op, Protocol, err) }

// ServerInternalf builds a ServerInternal error.
func ServerInternalf(op errors.Op, err error) *Error { return New(op, ServerInternal, err) }

// BadArgumentf builds a BadArgument error.
func BadArgumentf(op errors.Op, err error) *Error { return New(op, BadArgument, err) }

// Scriptf builds a Script error.
func Scriptf(op errors.Op, err error) *Error { return New(op, Script, err) }
