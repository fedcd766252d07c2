package kt

import (
	"context"

	"github.com/spiral/errors"

	"github.com/coleifer/go-kt/internal/wire"
	"github.com/coleifer/go-kt/internal/wireerr"
)

// KV is one key/value pair for a set_bulk call.
type KV struct {
	Key   any // string or []byte
	Value any // passed through the engine codec unless bypassed
}

// RecordDetail is one tuple of get_bulk's "details" variant: the full
// (db, key, value, expiration) quadruple instead of a folded map entry.
type RecordDetail struct {
	DB     uint16
	Key    any
	Value  any
	Expire int64
}

func (e *Engine) encodeValue(v any, encode bool) ([]byte, error) {
	if !encode {
		b, ok := v.([]byte)
		if !ok {
			const op = errors.Op("kt.encodeValue")
			return nil, wireerr.BadArgumentf(op, errors.Str("value must be []byte when EncodeValues(false)"))
		}
		return b, nil
	}
	return e.codec.Encode(v)
}

func (e *Engine) decodeValue(b []byte, decode bool) (any, error) {
	if !decode {
		out := make([]byte, len(b))
		copy(out, b)
		return out, nil
	}
	return e.codec.Decode(b)
}

// checkMagic reads one byte and validates it against want, translating
// the KT error magic and any other mismatch into typed errors.
func checkMagic(r *wire.Reader, op errors.Op, want byte) error {
	b, err := r.Byte()
	if err != nil {
		return err
	}
	if b == magicError {
		return wireerr.WithByte(wireerr.ServerInternalf(op, errors.Str("server returned error magic")), b)
	}
	if b != want {
		return wireerr.WithByte(wireerr.Protocolf(op, errors.Str("unexpected response magic")), b)
	}
	return nil
}

// GetBulk fetches keys, folding the result into a map keyed by decoded
// key. Missing keys are simply absent from the result.
func (e *Engine) GetBulk(ctx context.Context, caller any, keys []any, opts ...CallOption) (map[any]any, error) {
	const op = errors.Op("kt.GetBulk")

	details, err := e.getBulk(ctx, caller, keys, op, opts...)
	if err != nil {
		return nil, err
	}
	out := make(map[any]any, len(details))
	for _, d := range details {
		out[d.Key] = d.Value
	}
	return out, nil
}

// GetBulkDetails fetches keys, returning the full (db, key, value,
// expiration) tuple per hit.
func (e *Engine) GetBulkDetails(ctx context.Context, caller any, keys []any, opts ...CallOption) ([]RecordDetail, error) {
	const op = errors.Op("kt.GetBulkDetails")
	return e.getBulk(ctx, caller, keys, op, opts...)
}

func (e *Engine) getBulk(ctx context.Context, caller any, keys []any, op errors.Op, opts ...CallOption) (result []RecordDetail, err error) {
	co := newCallOptions(e.defaultDB)
	for _, opt := range opts {
		opt(co)
	}

	rawKeys := make([][]byte, len(keys))
	for i, k := range keys {
		rk, encErr := encodeKey(k)
		if encErr != nil {
			return nil, encErr
		}
		rawKeys[i] = rk
	}

	w := wire.NewWriter()
	w.Byte(magicGetBulk).U32(0)
	w.KeyListWithDB(rawKeys, co.db())

	s, err := e.checkoutAndSend(ctx, caller, w.Bytes())
	if err != nil {
		return nil, err
	}
	defer func() { e.finish(caller, err) }()

	r := wire.NewReader(s)
	if err = checkMagic(r, op, magicGetBulk); err != nil {
		return nil, err
	}
	count, uerr := r.U32()
	if uerr != nil {
		err = uerr
		return nil, err
	}

	result = make([]RecordDetail, 0, count)
	for i := uint32(0); i < count; i++ {
		var d RecordDetail
		var dbEcho uint16
		if dbEcho, err = r.U16(); err != nil {
			return nil, err
		}
		var klen, vlen uint32
		if klen, err = r.U32(); err != nil {
			return nil, err
		}
		if vlen, err = r.U32(); err != nil {
			return nil, err
		}
		var xt int64
		if xt, err = r.I64(); err != nil {
			return nil, err
		}
		var kb, vb []byte
		if kb, err = r.Raw(int(klen)); err != nil {
			return nil, err
		}
		if vb, err = r.Raw(int(vlen)); err != nil {
			return nil, err
		}
		d.DB = dbEcho
		d.Key = e.decodeKey(kb)
		d.Expire = xt
		if d.Value, err = e.decodeValue(vb, co.shouldDecode()); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, nil
}

// Get is a convenience wrapper over GetBulk for a single key. found is
// false when the key is absent.
func (e *Engine) Get(ctx context.Context, caller any, key any, opts ...CallOption) (value any, found bool, err error) {
	m, err := e.GetBulk(ctx, caller, []any{key}, opts...)
	if err != nil {
		return nil, false, err
	}
	for _, v := range m {
		return v, true, nil
	}
	return nil, false, nil
}

// SetBulk stores records, returning how many were stored.
func (e *Engine) SetBulk(ctx context.Context, caller any, records []KV, opts ...CallOption) (count int, err error) {
	const op = errors.Op("kt.SetBulk")

	co := newCallOptions(e.defaultDB)
	for _, opt := range opts {
		opt(co)
	}

	wired := make([]wire.Record, len(records))
	for i, rec := range records {
		k, encErr := encodeKey(rec.Key)
		if encErr != nil {
			return 0, encErr
		}
		v, encErr := e.encodeValue(rec.Value, co.shouldEncode())
		if encErr != nil {
			return 0, encErr
		}
		wired[i] = wire.Record{Key: k, Val: v}
	}

	flags := uint32(0)
	if co.NoReply {
		flags |= flagNoReply
	}

	w := wire.NewWriter()
	w.Byte(magicSetBulk).U32(flags)
	w.RecordsWithDBExpire(wired, co.db(), co.expire())

	s, err := e.checkoutAndSend(ctx, caller, w.Bytes())
	if err != nil {
		return 0, err
	}
	defer func() { e.finish(caller, err) }()

	if co.NoReply {
		return len(records), nil
	}

	r := wire.NewReader(s)
	if err = checkMagic(r, op, magicSetBulk); err != nil {
		return 0, err
	}
	stored, uerr := r.U32()
	if uerr != nil {
		err = uerr
		return 0, err
	}
	return int(stored), nil
}

// Set is a convenience wrapper over SetBulk for a single record.
func (e *Engine) Set(ctx context.Context, caller any, key, value any, opts ...CallOption) (int, error) {
	return e.SetBulk(ctx, caller, []KV{{Key: key, Value: value}}, opts...)
}

// RemoveBulk deletes keys, returning how many existed and were removed.
func (e *Engine) RemoveBulk(ctx context.Context, caller any, keys []any, opts ...CallOption) (count int, err error) {
	const op = errors.Op("kt.RemoveBulk")

	co := newCallOptions(e.defaultDB)
	for _, opt := range opts {
		opt(co)
	}

	rawKeys := make([][]byte, len(keys))
	for i, k := range keys {
		rk, encErr := encodeKey(k)
		if encErr != nil {
			return 0, encErr
		}
		rawKeys[i] = rk
	}

	flags := uint32(0)
	if co.NoReply {
		flags |= flagNoReply
	}

	w := wire.NewWriter()
	w.Byte(magicRemoveBulk).U32(flags)
	w.KeyListWithDB(rawKeys, co.db())

	s, err := e.checkoutAndSend(ctx, caller, w.Bytes())
	if err != nil {
		return 0, err
	}
	defer func() { e.finish(caller, err) }()

	if co.NoReply {
		return len(keys), nil
	}

	r := wire.NewReader(s)
	if err = checkMagic(r, op, magicRemoveBulk); err != nil {
		return 0, err
	}
	removed, uerr := r.U32()
	if uerr != nil {
		err = uerr
		return 0, err
	}
	return int(removed), nil
}

// Remove is a convenience wrapper over RemoveBulk for a single key.
func (e *Engine) Remove(ctx context.Context, caller any, key any, opts ...CallOption) (int, error) {
	return e.RemoveBulk(ctx, caller, []any{key}, opts...)
}

// PlayScript invokes a server-side Lua script by name, passing params and
// returning its result map.
func (e *Engine) PlayScript(ctx context.Context, caller any, name string, params map[any]any, opts ...CallOption) (result map[any]any, err error) {
	const op = errors.Op("kt.PlayScript")

	co := newCallOptions(e.defaultDB)
	for _, opt := range opts {
		opt(co)
	}

	type pair struct{ k, v []byte }
	wired := make([]pair, 0, len(params))
	for k, v := range params {
		kb, encErr := encodeKey(k)
		if encErr != nil {
			return nil, encErr
		}
		vb, encErr := e.encodeValue(v, co.shouldEncode())
		if encErr != nil {
			return nil, encErr
		}
		wired = append(wired, pair{kb, vb})
	}

	flags := uint32(0)
	if co.NoReply {
		flags |= flagNoReply
	}

	w := wire.NewWriter()
	w.Byte(magicPlayScript).U32(flags)
	w.U32(uint32(len(name))).U32(uint32(len(wired)))
	w.Raw([]byte(name))
	for _, p := range wired {
		w.KV(p.k, p.v)
	}

	s, err := e.checkoutAndSend(ctx, caller, w.Bytes())
	if err != nil {
		return nil, err
	}
	defer func() { e.finish(caller, err) }()

	if co.NoReply {
		return nil, nil
	}

	r := wire.NewReader(s)
	if err = checkMagic(r, op, magicPlayScript); err != nil {
		return nil, err
	}
	count, uerr := r.U32()
	if uerr != nil {
		err = uerr
		return nil, err
	}

	result = make(map[any]any, count)
	for i := uint32(0); i < count; i++ {
		var kb, vb []byte
		if kb, vb, err = r.KV(); err != nil {
			return nil, err
		}
		var val any
		if val, err = e.decodeValue(vb, co.shouldDecode()); err != nil {
			return nil, err
		}
		result[e.decodeKey(kb)] = val
	}
	return result, nil
}

// VoidCall is a zero-argument liveness probe: it invokes play_script with
// an empty script name and no parameters, succeeding iff the server
// responds with its normal play_script magic. It is used by the ktcli
// ping subcommand (without --wait) and the kvshell ping command.
func (e *Engine) VoidCall(ctx context.Context, caller any) error {
	_, err := e.PlayScript(ctx, caller, "", nil)
	return err
}
