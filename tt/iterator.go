package tt

import (
	"bytes"
	"context"

	"github.com/spiral/errors"

	"github.com/coleifer/go-kt/internal/wire"
)

// Iterator is a lazy, single-pass, non-restartable walk over every key
// in the database. Mutating the database while an
// Iterator is in progress is unsupported.
type Iterator struct {
	engine *Engine
	caller any
	done   bool
}

// Iterate starts a new key iteration for caller.
func (e *Engine) Iterate(ctx context.Context, caller any) (*Iterator, error) {
	const op = errors.Op("tt.Iterate")

	w := newRequest(opIterInit)
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
		return &Iterator{engine: e, caller: caller, done: true}, nil
	}
	return &Iterator{engine: e, caller: caller}, nil
}

// Next advances the iterator and returns the next key. ok is false once
// the sequence is exhausted; no error is reported for ordinary
// end-of-sequence.
func (it *Iterator) Next() (key any, ok bool, err error) {
	const op = errors.Op("tt.Iterator.Next")

	if it.done {
		return nil, false, nil
	}

	e := it.engine
	w := newRequest(opIterNext)
	s, err := e.checkoutAndSend(context.Background(), it.caller, w.Bytes())
	if err != nil {
		it.done = true
		return nil, false, err
	}
	defer func() { e.finish(it.caller, err) }()

	r := wire.NewReader(s)
	if ok, err = readStatus(r, op); err != nil {
		it.done = true
		return nil, false, err
	}
	if !ok {
		it.done = true
		return nil, false, nil
	}

	var kb []byte
	if kb, err = r.Key(); err != nil {
		it.done = true
		return nil, false, err
	}
	return e.decodeKey(kb), true, nil
}

// NextPair advances the iterator via the misc("iternext") command,
// returning both key and value as a sequence of key-value pairs.
func (it *Iterator) NextPair() (key, value any, ok bool, err error) {
	if it.done {
		return nil, nil, false, nil
	}

	e := it.engine
	items, found, err := e.Misc(context.Background(), it.caller, "iternext", nil, false)
	if err != nil {
		it.done = true
		return nil, nil, false, err
	}
	if !found || len(items) < 2 {
		it.done = true
		return nil, nil, false, nil
	}

	v, err := e.decodeValue(items[1])
	if err != nil {
		return nil, nil, false, err
	}
	return e.decodeKey(items[0]), v, true, nil
}

// SplitSearchGetItem splits one item returned by misc("search", ...,
// cmd="get") into its key and remaining payload: skip one byte, then
// split on the first NUL. rest is never interpreted further.
func SplitSearchGetItem(item []byte) (key, rest []byte) {
	if len(item) < 1 {
		return nil, nil
	}
	item = item[1:]
	idx := bytes.IndexByte(item, 0)
	if idx < 0 {
		return item, nil
	}
	return item[:idx], item[idx+1:]
}
