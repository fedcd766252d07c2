package wire

import (
	"encoding/binary"

	"github.com/spiral/errors"

	"github.com/coleifer/go-kt/internal/socket"
	"github.com/coleifer/go-kt/internal/wireerr"
)

// receiver is the subset of *socket.Socket the reader depends on, so
// tests can supply a fake without opening a real connection.
type receiver interface {
	RecvExact(n int) ([]byte, error)
}

var _ receiver = (*socket.Socket)(nil)

// Reader parses a response frame by issuing exact-length reads against
// the socket, mirroring the length prefixes already present in the
// stream: each read is for exactly as many bytes as the preceding length
// prefix promised.
type Reader struct {
	sock receiver
}

// NewReader binds a Reader to sock.
func NewReader(sock receiver) *Reader {
	return &Reader{sock: sock}
}

// Byte reads a single byte, typically a magic or status byte.
func (r *Reader) Byte() (byte, error) {
	b, err := r.sock.RecvExact(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Raw reads exactly n bytes verbatim.
func (r *Reader) Raw(n int) ([]byte, error) {
	return r.sock.RecvExact(n)
}

// U16 reads a big-endian uint16.
func (r *Reader) U16() (uint16, error) {
	b, err := r.sock.RecvExact(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// U32 reads a big-endian uint32.
func (r *Reader) U32() (uint32, error) {
	b, err := r.sock.RecvExact(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// I64 reads a big-endian int64.
func (r *Reader) I64() (int64, error) {
	b, err := r.sock.RecvExact(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

// Float64 reads the two-u64 encoding Writer.Float64 produces: integer
// part, then fractional part scaled by 10^12.
func (r *Reader) Float64() (float64, error) {
	b, err := r.sock.RecvExact(16)
	if err != nil {
		return 0, err
	}
	intPart := binary.BigEndian.Uint64(b[0:8])
	fracScaled := binary.BigEndian.Uint64(b[8:16])
	return float64(intPart) + float64(fracScaled)/1e12, nil
}

// Key reads write_key's wire shape: u32 klen, then klen bytes.
func (r *Reader) Key() ([]byte, error) {
	const op = errors.Op("wire.Reader.Key")
	n, err := r.U32()
	if err != nil {
		return nil, err
	}
	if n > maxFrameLen {
		return nil, wireerr.Protocolf(op, errors.Str("key length exceeds sane frame bound"))
	}
	return r.Raw(int(n))
}

// KV reads write_kv's wire shape: u32 klen, u32 vlen, klen bytes, vlen
// bytes — note both lengths precede both bodies.
func (r *Reader) KV() (key, val []byte, err error) {
	const op = errors.Op("wire.Reader.KV")

	klen, err := r.U32()
	if err != nil {
		return nil, nil, err
	}
	vlen, err := r.U32()
	if err != nil {
		return nil, nil, err
	}
	if klen > maxFrameLen || vlen > maxFrameLen {
		return nil, nil, wireerr.Protocolf(op, errors.Str("kv length exceeds sane frame bound"))
	}
	if key, err = r.Raw(int(klen)); err != nil {
		return nil, nil, err
	}
	if val, err = r.Raw(int(vlen)); err != nil {
		return nil, nil, err
	}
	return key, val, nil
}

// LengthPrefixed reads a u32 length prefix followed by that many bytes,
// the shape used for script results, stat/ext payloads, and fwmkeys
// entries.
func (r *Reader) LengthPrefixed() ([]byte, error) {
	const op = errors.Op("wire.Reader.LengthPrefixed")
	n, err := r.U32()
	if err != nil {
		return nil, err
	}
	if n > maxFrameLen {
		return nil, wireerr.Protocolf(op, errors.Str("length prefix exceeds sane frame bound"))
	}
	return r.Raw(int(n))
}

// maxFrameLen bounds any single length-prefixed field this client will
// accept, guarding against a corrupt stream driving an enormous
// allocation. 128 MiB comfortably covers legitimate values and script
// results.
const maxFrameLen = 128 * 1024 * 1024
