// Package varint implements the self-delimiting base-128 big-endian
// integer encoding used inside the KT/TT map and list blob format
// exchanged with server-side scripts.
package varint

import (
	"github.com/spiral/errors"

	"github.com/coleifer/go-kt/internal/wireerr"
)

// maxValue is the exclusive upper bound of this encoding (the largest
// representable value is 2^56-1): anything needing a 9th byte (2^56 and
// above) is rejected.
const maxValue = uint64(1) << 56

// Write encodes n as 1-8 big-endian base-128 digits, every byte but the
// last carrying a set high bit. It fails with wireerr.BadArgument if
// n >= 2^56.
func Write(n uint64) ([]byte, error) {
	const op = errors.Op("varint.Write")

	if n >= maxValue {
		return nil, wireerr.BadArgumentf(op, errors.Str("value exceeds 2^56-1"))
	}

	// Determine the number of 7-bit digits needed, most significant
	// first.
	var digits []byte
	v := n
	for {
		digits = append([]byte{byte(v & 0x7f)}, digits...)
		v >>= 7
		if v == 0 {
			break
		}
	}

	out := make([]byte, len(digits))
	for i, d := range digits {
		if i != len(digits)-1 {
			out[i] = d | 0x80
		} else {
			out[i] = d
		}
	}
	return out, nil
}

// Read shift-accumulates 7 bits per byte from buf, terminating on the
// first byte whose high bit is clear. It returns the decoded value and
// the number of bytes consumed. Exhausting buf without a terminator
// fails with wireerr.Protocol.
func Read(buf []byte) (value uint64, n int, err error) {
	const op = errors.Op("varint.Read")

	for i, b := range buf {
		value = (value << 7) | uint64(b&0x7f)
		if b&0x80 == 0 {
			return value, i + 1, nil
		}
	}
	return 0, 0, wireerr.Protocolf(op, errors.Str("truncated varint"))
}
