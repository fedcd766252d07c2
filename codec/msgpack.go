package codec

import (
	"github.com/spiral/errors"
	"github.com/vmihailenco/msgpack"

	"github.com/coleifer/go-kt/internal/wireerr"
)

// MsgPack encodes and decodes values using MessagePack.
type MsgPack struct{}

// Name implements ValueCodec.
func (MsgPack) Name() string { return NameMsgPack }

// Encode implements ValueCodec.
func (MsgPack) Encode(v any) ([]byte, error) {
	const op = errors.Op("codec.MsgPack.Encode")

	b, err := msgpack.Marshal(v)
	if err != nil {
		return nil, wireerr.BadArgumentf(op, err)
	}
	return b, nil
}

// Decode implements ValueCodec.
func (MsgPack) Decode(b []byte) (any, error) {
	const op = errors.Op("codec.MsgPack.Decode")

	var v any
	if err := msgpack.Unmarshal(b, &v); err != nil {
		return nil, wireerr.Protocolf(op, err)
	}
	return v, nil
}
