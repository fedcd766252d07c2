// Package codec implements the pluggable value serializers: a ValueCodec
// is a pair of total functions between a language-neutral value and its
// on-wire byte representation.
package codec

import (
	"github.com/spiral/errors"

	"github.com/coleifer/go-kt/internal/wireerr"
)

// ValueCodec encodes and decodes application-visible values to and from
// the opaque byte strings carried on the wire.
type ValueCodec interface {
	// Name identifies the codec, for registry lookup and diagnostics.
	Name() string
	// Encode converts v to its wire representation.
	Encode(v any) ([]byte, error)
	// Decode converts wire bytes back to a value.
	Decode(b []byte) (any, error)
}

// Built-in codec names.
const (
	NameIdentity = "identity"
	NameText     = "text"
	NameJSON     = "json"
	NameMsgPack  = "msgpack"
	NameOpaque   = "opaque"
)

// Registry looks codecs up by name.
type Registry struct {
	codecs map[string]ValueCodec
}

// NewRegistry returns a Registry pre-populated with the five built-in
// codecs (identity, text, json, msgpack, opaque).
func NewRegistry() *Registry {
	r := &Registry{codecs: make(map[string]ValueCodec)}
	for _, c := range []ValueCodec{Identity{}, Text{}, JSON{}, MsgPack{}, Opaque{}} {
		r.Register(c)
	}
	return r
}

// Register adds or replaces a codec under its own Name().
func (r *Registry) Register(c ValueCodec) {
	r.codecs[c.Name()] = c
}

// Get returns the codec registered under name.
func (r *Registry) Get(name string) (ValueCodec, error) {
	const op = errors.Op("codec.Registry.Get")

	c, ok := r.codecs[name]
	if !ok {
		return nil, wireerr.BadArgumentf(op, errors.Str("unknown codec: "+name))
	}
	return c, nil
}
