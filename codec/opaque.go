package codec

import (
	"bytes"
	"encoding/gob"

	"github.com/spiral/errors"

	"github.com/coleifer/go-kt/internal/wireerr"
)

func init() {
	// Register the concrete types Opaque is expected to round-trip so
	// gob can encode/decode them through the any-typed wrapper below.
	gob.Register(string(""))
	gob.Register(int64(0))
	gob.Register(float64(0))
	gob.Register(false)
	gob.Register([]byte(nil))
	gob.Register(map[string]any{})
	gob.Register([]any{})
}

// Opaque round-trips arbitrary Go values through encoding/gob, for
// callers that want a language-neutral "structured object" serialization
// without committing to JSON or MessagePack's type model.
type Opaque struct{}

// Name implements ValueCodec.
func (Opaque) Name() string { return NameOpaque }

// Encode implements ValueCodec.
func (Opaque) Encode(v any) ([]byte, error) {
	const op = errors.Op("codec.Opaque.Encode")

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&v); err != nil {
		return nil, wireerr.BadArgumentf(op, err)
	}
	return buf.Bytes(), nil
}

// Decode implements ValueCodec.
func (Opaque) Decode(b []byte) (any, error) {
	const op = errors.Op("codec.Opaque.Decode")

	var v any
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&v); err != nil {
		return nil, wireerr.Protocolf(op, err)
	}
	return v, nil
}
