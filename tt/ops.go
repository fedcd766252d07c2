package tt

import (
	"context"

	"github.com/spiral/errors"

	"github.com/coleifer/go-kt/internal/wire"
	"github.com/coleifer/go-kt/internal/wireerr"
)

func (e *Engine) putLike(ctx context.Context, caller any, op byte, key, value any) (applied bool, err error) {
	errOp := errors.Op("tt.putLike")

	kb, err := encodeKey(key)
	if err != nil {
		return false, err
	}
	vb, err := e.encodeValue(value)
	if err != nil {
		return false, err
	}

	w := newRequest(op)
	w.KV(kb, vb)

	s, err := e.checkoutAndSend(ctx, caller, w.Bytes())
	if err != nil {
		return false, err
	}
	defer func() { e.finish(caller, err) }()

	r := wire.NewReader(s)
	applied, err = readStatus(r, errOp)
	return applied, err
}

// Put unconditionally stores key/value, reporting whether it succeeded.
func (e *Engine) Put(ctx context.Context, caller any, key, value any) (bool, error) {
	return e.putLike(ctx, caller, opPut, key, value)
}

// PutKeep stores key/value only if key does not already exist.
func (e *Engine) PutKeep(ctx context.Context, caller any, key, value any) (bool, error) {
	return e.putLike(ctx, caller, opPutKeep, key, value)
}

// PutCat appends value to any existing value at key (or stores it if
// key is new).
func (e *Engine) PutCat(ctx context.Context, caller any, key, value any) (bool, error) {
	return e.putLike(ctx, caller, opPutCat, key, value)
}

// PutShl concatenates value onto key's existing value, then truncates
// the result to at most width bytes from the left.
func (e *Engine) PutShl(ctx context.Context, caller any, key, value any, width uint32) (applied bool, err error) {
	const op = errors.Op("tt.PutShl")

	kb, err := encodeKey(key)
	if err != nil {
		return false, err
	}
	vb, err := e.encodeValue(value)
	if err != nil {
		return false, err
	}

	w := newRequest(opPutShl)
	w.U32(uint32(len(kb))).U32(uint32(len(vb))).U32(width)
	w.Raw(kb).Raw(vb)

	s, err := e.checkoutAndSend(ctx, caller, w.Bytes())
	if err != nil {
		return false, err
	}
	defer func() { e.finish(caller, err) }()

	r := wire.NewReader(s)
	applied, err = readStatus(r, op)
	return applied, err
}

// PutNr stores key/value without reading a response.
func (e *Engine) PutNr(ctx context.Context, caller any, key, value any) error {
	kb, err := encodeKey(key)
	if err != nil {
		return err
	}
	vb, err := e.encodeValue(value)
	if err != nil {
		return err
	}

	w := newRequest(opPutNr)
	w.KV(kb, vb)

	_, err = e.checkoutAndSend(ctx, caller, w.Bytes())
	if err != nil {
		return err
	}
	e.finish(caller, nil)
	return nil
}

// Out removes key, reporting whether it existed.
func (e *Engine) Out(ctx context.Context, caller any, key any) (applied bool, err error) {
	const op = errors.Op("tt.Out")

	kb, err := encodeKey(key)
	if err != nil {
		return false, err
	}

	w := newRequest(opOut)
	w.Key(kb)

	s, err := e.checkoutAndSend(ctx, caller, w.Bytes())
	if err != nil {
		return false, err
	}
	defer func() { e.finish(caller, err) }()

	r := wire.NewReader(s)
	applied, err = readStatus(r, op)
	return applied, err
}

// Get fetches key's value. found is false when key is absent.
func (e *Engine) Get(ctx context.Context, caller any, key any) (value any, found bool, err error) {
	const op = errors.Op("tt.Get")

	kb, err := encodeKey(key)
	if err != nil {
		return nil, false, err
	}

	w := newRequest(opGet)
	w.Key(kb)

	s, err := e.checkoutAndSend(ctx, caller, w.Bytes())
	if err != nil {
		return nil, false, err
	}
	defer func() { e.finish(caller, err) }()

	r := wire.NewReader(s)
	var ok bool
	if ok, err = readStatus(r, op); err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	var vb []byte
	if vb, err = r.LengthPrefixed(); err != nil {
		return nil, false, err
	}
	if value, err = e.decodeValue(vb); err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// MGet fetches several keys at once, returning only the hits.
func (e *Engine) MGet(ctx context.Context, caller any, keys []any) (result map[any]any, err error) {
	const op = errors.Op("tt.MGet")

	rawKeys := make([][]byte, len(keys))
	for i, k := range keys {
		rk, kerr := encodeKey(k)
		if kerr != nil {
			return nil, kerr
		}
		rawKeys[i] = rk
	}

	w := newRequest(opMGet)
	w.KeyList(rawKeys)

	s, err := e.checkoutAndSend(ctx, caller, w.Bytes())
	if err != nil {
		return nil, err
	}
	defer func() { e.finish(caller, err) }()

	r := wire.NewReader(s)
	var ok bool
	if ok, err = readStatus(r, op); err != nil {
		return nil, err
	}
	if !ok {
		return map[any]any{}, nil
	}

	var count uint32
	if count, err = r.U32(); err != nil {
		return nil, err
	}
	result = make(map[any]any, count)
	for i := uint32(0); i < count; i++ {
		var kb, vb []byte
		if kb, vb, err = r.KV(); err != nil {
			return nil, err
		}
		var v any
		if v, err = e.decodeValue(vb); err != nil {
			return nil, err
		}
		result[e.decodeKey(kb)] = v
	}
	return result, nil
}

// Vsiz reports the size in bytes of key's stored value.
func (e *Engine) Vsiz(ctx context.Context, caller any, key any) (size int, found bool, err error) {
	const op = errors.Op("tt.Vsiz")

	kb, err := encodeKey(key)
	if err != nil {
		return 0, false, err
	}

	w := newRequest(opVsiz)
	w.Key(kb)

	s, err := e.checkoutAndSend(ctx, caller, w.Bytes())
	if err != nil {
		return 0, false, err
	}
	defer func() { e.finish(caller, err) }()

	r := wire.NewReader(s)
	var ok bool
	if ok, err = readStatus(r, op); err != nil {
		return 0, false, err
	}
	if !ok {
		return 0, false, nil
	}
	var v uint32
	if v, err = r.U32(); err != nil {
		return 0, false, err
	}
	return int(v), true, nil
}

// FwmKeys lists up to max keys sharing prefix.
func (e *Engine) FwmKeys(ctx context.Context, caller any, prefix []byte, max uint32) (keys []any, err error) {
	const op = errors.Op("tt.FwmKeys")

	w := newRequest(opFwmKeys)
	w.U32(uint32(len(prefix))).U32(max).Raw(prefix)

	s, err := e.checkoutAndSend(ctx, caller, w.Bytes())
	if err != nil {
		return nil, err
	}
	defer func() { e.finish(caller, err) }()

	r := wire.NewReader(s)
	var ok bool
	if ok, err = readStatus(r, op); err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var count uint32
	if count, err = r.U32(); err != nil {
		return nil, err
	}
	keys = make([]any, 0, count)
	for i := uint32(0); i < count; i++ {
		var kb []byte
		if kb, err = r.Key(); err != nil {
			return nil, err
		}
		keys = append(keys, e.decodeKey(kb))
	}
	return keys, nil
}

// AddInt adds delta to the integer stored at key (creating it if
// absent), returning the new value.
func (e *Engine) AddInt(ctx context.Context, caller any, key any, delta int32) (result int32, found bool, err error) {
	const op = errors.Op("tt.AddInt")

	kb, err := encodeKey(key)
	if err != nil {
		return 0, false, err
	}

	w := newRequest(opAddInt)
	w.Key(kb).U32(uint32(delta))

	s, err := e.checkoutAndSend(ctx, caller, w.Bytes())
	if err != nil {
		return 0, false, err
	}
	defer func() { e.finish(caller, err) }()

	r := wire.NewReader(s)
	var ok bool
	if ok, err = readStatus(r, op); err != nil {
		return 0, false, err
	}
	if !ok {
		return 0, false, nil
	}
	var v uint32
	if v, err = r.U32(); err != nil {
		return 0, false, err
	}
	return int32(v), true, nil
}

// AddDouble adds delta to the floating-point value stored at key,
// returning the new value. delta must be non-negative (see
// internal/wire.Writer.Float64).
func (e *Engine) AddDouble(ctx context.Context, caller any, key any, delta float64) (result float64, found bool, err error) {
	const op = errors.Op("tt.AddDouble")

	kb, err := encodeKey(key)
	if err != nil {
		return 0, false, err
	}

	w := newRequest(opAddDbl)
	w.Key(kb)
	if err = w.Float64(delta); err != nil {
		return 0, false, err
	}

	s, err := e.checkoutAndSend(ctx, caller, w.Bytes())
	if err != nil {
		return 0, false, err
	}
	defer func() { e.finish(caller, err) }()

	r := wire.NewReader(s)
	var ok bool
	if ok, err = readStatus(r, op); err != nil {
		return 0, false, err
	}
	if !ok {
		return 0, false, nil
	}
	if result, err = r.Float64(); err != nil {
		return 0, false, err
	}
	return result, true, nil
}

// Ext invokes a server-side script command. lockMode must be
// ExtLockNone, ExtLockRecord, or ExtLockGlobal; combining the latter two
// fails BadArgument before any I/O.
func (e *Engine) Ext(ctx context.Context, caller any, name string, key, value any, lockMode uint32, noUpdateLog bool) (result []byte, ran bool, err error) {
	const op = errors.Op("tt.Ext")

	if lockMode&ExtLockRecord != 0 && lockMode&ExtLockGlobal != 0 {
		return nil, false, wireerr.BadArgumentf(op, errors.Str("ext lock flags are mutually exclusive"))
	}

	kb, err := encodeKey(key)
	if err != nil {
		return nil, false, err
	}
	vb, err := e.encodeValue(value)
	if err != nil {
		return nil, false, err
	}

	opts := lockMode
	if noUpdateLog {
		opts |= ExtNoUpdateLog
	}

	w := newRequest(opExt)
	w.U32(uint32(len(name))).U32(opts).U32(uint32(len(kb))).U32(uint32(len(vb)))
	w.Raw([]byte(name)).Raw(kb).Raw(vb)

	s, err := e.checkoutAndSend(ctx, caller, w.Bytes())
	if err != nil {
		return nil, false, err
	}
	defer func() { e.finish(caller, err) }()

	r := wire.NewReader(s)
	var status byte
	if status, err = r.Byte(); err != nil {
		return nil, false, err
	}
	// Unlike every other TT command, ext's failure indicator is any
	// nonzero status, not specifically the recoverable-miss byte.
	if status != statusOK {
		err = wireerr.WithByte(wireerr.Scriptf(op, errors.Str("script execution failed")), status)
		return nil, false, err
	}
	if result, err = r.LengthPrefixed(); err != nil {
		return nil, false, err
	}
	return result, true, nil
}

func (e *Engine) statusOnly(ctx context.Context, caller any, op byte, errOp errors.Op, body ...[]byte) (ok bool, err error) {
	w := newRequest(op)
	for _, b := range body {
		w.Raw(b)
	}

	s, err := e.checkoutAndSend(ctx, caller, w.Bytes())
	if err != nil {
		return false, err
	}
	defer func() { e.finish(caller, err) }()

	r := wire.NewReader(s)
	ok, err = readStatus(r, errOp)
	return ok, err
}

// Sync flushes pending updates to storage.
func (e *Engine) Sync(ctx context.Context, caller any) (bool, error) {
	return e.statusOnly(ctx, caller, opSync, errors.Op("tt.Sync"))
}

// Optimize reorganizes the database's internal structures according to
// params (a server-defined tuning string).
func (e *Engine) Optimize(ctx context.Context, caller any, params string) (bool, error) {
	w := wire.NewWriter().U32(uint32(len(params))).Raw([]byte(params))
	return e.statusOnly(ctx, caller, opOptimize, errors.Op("tt.Optimize"), w.Bytes())
}

// Vanish removes every record from the database.
func (e *Engine) Vanish(ctx context.Context, caller any) (bool, error) {
	return e.statusOnly(ctx, caller, opVanish, errors.Op("tt.Vanish"))
}

// Copy duplicates the database file to path.
func (e *Engine) Copy(ctx context.Context, caller any, path string) (bool, error) {
	w := wire.NewWriter().U32(uint32(len(path))).Raw([]byte(path))
	return e.statusOnly(ctx, caller, opCopy, errors.Op("tt.Copy"), w.Bytes())
}

// Restore replays the update log found at path from timestamp ts
// onward.
func (e *Engine) Restore(ctx context.Context, caller any, path string, ts int64, opts uint32) (bool, error) {
	w := wire.NewWriter().U32(uint32(len(path))).Raw([]byte(path)).I64(ts).U32(opts)
	return e.statusOnly(ctx, caller, opRestore, errors.Op("tt.Restore"), w.Bytes())
}

// SetMst designates host:port as this server's replication master.
func (e *Engine) SetMst(ctx context.Context, caller any, host string, port uint32) (bool, error) {
	w := wire.NewWriter().U32(uint32(len(host))).Raw([]byte(host)).U32(port)
	return e.statusOnly(ctx, caller, opSetMst, errors.Op("tt.SetMst"), w.Bytes())
}

func (e *Engine) statusWithInt64(ctx context.Context, caller any, op byte, errOp errors.Op) (v int64, err error) {
	w := newRequest(op)

	s, err := e.checkoutAndSend(ctx, caller, w.Bytes())
	if err != nil {
		return 0, err
	}
	defer func() { e.finish(caller, err) }()

	r := wire.NewReader(s)
	var ok bool
	if ok, err = readStatus(r, errOp); err != nil {
		return 0, err
	}
	if !ok {
		return 0, wireerr.Protocolf(errOp, errors.Str("unexpected miss status"))
	}
	v, err = r.I64()
	return v, err
}

// Rnum reports the number of records currently stored.
func (e *Engine) Rnum(ctx context.Context, caller any) (int64, error) {
	return e.statusWithInt64(ctx, caller, opRnum, errors.Op("tt.Rnum"))
}

// Size reports the database's file size in bytes.
func (e *Engine) Size(ctx context.Context, caller any) (int64, error) {
	return e.statusWithInt64(ctx, caller, opSize, errors.Op("tt.Size"))
}

// Stat returns the server's raw status report.
func (e *Engine) Stat(ctx context.Context, caller any) (stat []byte, err error) {
	const op = errors.Op("tt.Stat")

	w := newRequest(opStat)

	s, err := e.checkoutAndSend(ctx, caller, w.Bytes())
	if err != nil {
		return nil, err
	}
	defer func() { e.finish(caller, err) }()

	r := wire.NewReader(s)
	var ok bool
	if ok, err = readStatus(r, op); err != nil {
		return nil, err
	}
	if !ok {
		return nil, wireerr.Protocolf(op, errors.Str("unexpected miss status"))
	}
	stat, err = r.LengthPrefixed()
	return stat, err
}

// Misc invokes the generic fluent command channel (op 90): every
// higher-level TT feature not otherwise exposed (search, getlist, table
// column operations, and the key/value iterator pair surfaced as
// Iterator.NextPair) rides on this. found is false when the server
// reports a miss status.
func (e *Engine) Misc(ctx context.Context, caller any, name string, args [][]byte, noUpdateLog bool) (result [][]byte, found bool, err error) {
	const op = errors.Op("tt.Misc")

	opts := uint32(0)
	if noUpdateLog {
		opts |= MiscNoUpdateLog
	}

	w := newRequest(opMisc)
	w.U32(uint32(len(name))).U32(opts).U32(uint32(len(args)))
	w.Raw([]byte(name))
	for _, a := range args {
		w.U32(uint32(len(a))).Raw(a)
	}

	s, err := e.checkoutAndSend(ctx, caller, w.Bytes())
	if err != nil {
		return nil, false, err
	}
	defer func() { e.finish(caller, err) }()

	r := wire.NewReader(s)
	var ok bool
	if ok, err = readStatus(r, op); err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	var count uint32
	if count, err = r.U32(); err != nil {
		return nil, false, err
	}
	result = make([][]byte, 0, count)
	for i := uint32(0); i < count; i++ {
		var b []byte
		if b, err = r.LengthPrefixed(); err != nil {
			return nil, false, err
		}
		result = append(result, b)
	}
	return result, true, nil
}
