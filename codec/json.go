package codec

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/spiral/errors"

	"github.com/coleifer/go-kt/internal/wireerr"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// JSON encodes values as canonical JSON text, UTF-8 encoded; decoding
// parses JSON back into a language-neutral value (map[string]any,
// []any, string, float64, bool, or nil).
type JSON struct{}

// Name implements ValueCodec.
func (JSON) Name() string { return NameJSON }

// Encode implements ValueCodec.
func (JSON) Encode(v any) ([]byte, error) {
	const op = errors.Op("codec.JSON.Encode")

	b, err := jsonAPI.Marshal(v)
	if err != nil {
		return nil, wireerr.BadArgumentf(op, err)
	}
	return b, nil
}

// Decode implements ValueCodec.
func (JSON) Decode(b []byte) (any, error) {
	const op = errors.Op("codec.JSON.Decode")

	var v any
	if err := jsonAPI.Unmarshal(b, &v); err != nil {
		return nil, wireerr.Protocolf(op, err)
	}
	return v, nil
}
