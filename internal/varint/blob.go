package varint

import (
	"bytes"

	"github.com/spiral/errors"

	"github.com/coleifer/go-kt/internal/wireerr"
)

// EncodeMap serializes m as a concatenation of
// varint(klen) varint(vlen) key value for every entry, in the order
// given by keys (callers that need a stable wire encoding should sort
// keys themselves; this function does not impose an order).
func EncodeMap(keys [][]byte, m map[string][]byte) ([]byte, error) {
	const op = errors.Op("varint.EncodeMap")

	var buf bytes.Buffer
	for _, k := range keys {
		v := m[string(k)]
		kl, err := Write(uint64(len(k)))
		if err != nil {
			return nil, wireerr.BadArgumentf(op, err)
		}
		vl, err := Write(uint64(len(v)))
		if err != nil {
			return nil, wireerr.BadArgumentf(op, err)
		}
		buf.Write(kl)
		buf.Write(vl)
		buf.Write(k)
		buf.Write(v)
	}
	return buf.Bytes(), nil
}

// DecodeMap parses buf as a concatenation of
// varint(klen) varint(vlen) key value until the buffer is exhausted. A
// truncated item fails with wireerr.Protocol.
func DecodeMap(buf []byte) (map[string][]byte, error) {
	const op = errors.Op("varint.DecodeMap")

	m := make(map[string][]byte)
	for len(buf) > 0 {
		klen, n, err := Read(buf)
		if err != nil {
			return nil, err
		}
		buf = buf[n:]

		vlen, n, err := Read(buf)
		if err != nil {
			return nil, err
		}
		buf = buf[n:]

		if uint64(len(buf)) < klen+vlen {
			return nil, wireerr.Protocolf(op, errors.Str("truncated blob item"))
		}

		key := buf[:klen]
		buf = buf[klen:]
		value := buf[:vlen]
		buf = buf[vlen:]

		m[string(key)] = value
	}
	return m, nil
}

// EncodeList serializes items as a concatenation of varint(len) bytes
// for every element.
func EncodeList(items [][]byte) ([]byte, error) {
	const op = errors.Op("varint.EncodeList")

	var buf bytes.Buffer
	for _, item := range items {
		l, err := Write(uint64(len(item)))
		if err != nil {
			return nil, wireerr.BadArgumentf(op, err)
		}
		buf.Write(l)
		buf.Write(item)
	}
	return buf.Bytes(), nil
}

// DecodeList parses buf as a concatenation of varint(len) bytes until the
// buffer is exhausted. A truncated item fails with wireerr.Protocol.
func DecodeList(buf []byte) ([][]byte, error) {
	const op = errors.Op("varint.DecodeList")

	var items [][]byte
	for len(buf) > 0 {
		l, n, err := Read(buf)
		if err != nil {
			return nil, err
		}
		buf = buf[n:]

		if uint64(len(buf)) < l {
			return nil, wireerr.Protocolf(op, errors.Str("truncated blob item"))
		}

		items = append(items, buf[:l])
		buf = buf[l:]
	}
	return items, nil
}
