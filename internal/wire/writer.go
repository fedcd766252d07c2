// Package wire implements the big-endian request primitives shared by
// the KT and TT engines: fixed-width integer writers, the key/value
// framing variants built on top of them, and a matching reader bound to
// a framed socket for exact-length response parsing.
package wire

import (
	"encoding/binary"
	"math"

	"github.com/spiral/errors"

	"github.com/coleifer/go-kt/internal/wireerr"
)

// Record is one key/value pair, optionally addressed to a specific
// logical database.
type Record struct {
	DB  uint16
	Key []byte
	Val []byte
}

// Writer assembles a request body fully in memory before it is handed
// to Socket.SendAll in one call.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the assembled request body.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Byte appends a single byte, typically a magic or op code.
func (w *Writer) Byte(b byte) *Writer {
	w.buf = append(w.buf, b)
	return w
}

// Raw appends b verbatim.
func (w *Writer) Raw(b []byte) *Writer {
	w.buf = append(w.buf, b...)
	return w
}

// U16 appends a big-endian uint16.
func (w *Writer) U16(v uint16) *Writer {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
	return w
}

// U32 appends a big-endian uint32.
func (w *Writer) U32(v uint32) *Writer {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
	return w
}

// I64 appends a big-endian int64.
func (w *Writer) I64(v int64) *Writer {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	w.buf = append(w.buf, b[:]...)
	return w
}

// Float64 appends v as two big-endian uint64s: the integer part, then
// the fractional part scaled by 10^12. Negative values are rejected with
// BadArgument before any bytes are written — TT's addint/adddouble
// counters have no server-side meaning for a negative fractional
// encoding (see SPEC_FULL.md's Open Question decision).
func (w *Writer) Float64(v float64) error {
	const op = errors.Op("wire.Writer.Float64")
	if v < 0 {
		return wireerr.BadArgumentf(op, errors.Str("negative double is not representable"))
	}
	intPart := math.Floor(v)
	frac := v - intPart
	var b [16]byte
	binary.BigEndian.PutUint64(b[0:8], uint64(intPart))
	binary.BigEndian.PutUint64(b[8:16], uint64(math.Round(frac*1e12)))
	w.buf = append(w.buf, b[:]...)
	return nil
}

// Key appends write_key: u32 klen, then klen bytes.
func (w *Writer) Key(key []byte) *Writer {
	w.U32(uint32(len(key)))
	w.Raw(key)
	return w
}

// KeyList appends write_key_list: u32 count, then repeated Key.
func (w *Writer) KeyList(keys [][]byte) *Writer {
	w.U32(uint32(len(keys)))
	for _, k := range keys {
		w.Key(k)
	}
	return w
}

// KeyListWithDB appends write_key_list_with_db: u32 count, then repeated
// (u16 db, u32 klen, klen bytes) with a single shared db for every key.
func (w *Writer) KeyListWithDB(keys [][]byte, db uint16) *Writer {
	w.U32(uint32(len(keys)))
	for _, k := range keys {
		w.U16(db)
		w.Key(k)
	}
	return w
}

// DBKeyList appends write_db_key_list: u32 count, then repeated (u16 db,
// u32 klen, klen bytes) with each key carrying its own db.
func (w *Writer) DBKeyList(pairs []Record) *Writer {
	w.U32(uint32(len(pairs)))
	for _, r := range pairs {
		w.U16(r.DB)
		w.Key(r.Key)
	}
	return w
}

// KV appends write_kv: u32 klen, u32 vlen, klen bytes, vlen bytes.
func (w *Writer) KV(key, val []byte) *Writer {
	w.U32(uint32(len(key)))
	w.U32(uint32(len(val)))
	w.Raw(key)
	w.Raw(val)
	return w
}

// RecordsWithDBExpire appends write_records_with_db_expire: u32 count,
// then repeated (u16 db, u32 klen, u32 vlen, i64 xt, klen bytes, vlen
// bytes), with db and xt shared across every record.
func (w *Writer) RecordsWithDBExpire(records []Record, db uint16, xt int64) *Writer {
	w.U32(uint32(len(records)))
	for _, r := range records {
		w.U16(db)
		w.U32(uint32(len(r.Key)))
		w.U32(uint32(len(r.Val)))
		w.I64(xt)
		w.Raw(r.Key)
		w.Raw(r.Val)
	}
	return w
}
