// Package pool implements a per-caller socket lease: checkout/checkin
// keyed by an opaque caller identity, a stalest-first idle free list,
// and an idle reaper.
package pool

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/spiral/errors"
	"go.uber.org/multierr"
	"golang.org/x/sync/semaphore"

	"github.com/coleifer/go-kt/internal/socket"
	"github.com/coleifer/go-kt/internal/wireerr"
	"github.com/coleifer/go-kt/logging"
)

// DialFunc establishes a new leased connection.
type DialFunc func(ctx context.Context) (*socket.Socket, error)

// CallerID is an opaque identity distinguishing concurrent users of the
// pool — a goroutine id surrogate, a request id, a task-local token.
// Callers are responsible for picking a value that is stable for the
// duration of one logical session and distinct across concurrent
// sessions.
type CallerID any

// entry is one idle socket sitting in the free heap, ordered by the time
// it was released back to the pool.
type entry struct {
	sock      *socket.Socket
	releasedAt time.Time
	index     int
}

// freeHeap is a container/heap min-heap ordered on releasedAt, so the
// stalest idle socket is always popped first.
type freeHeap []*entry

func (h freeHeap) Len() int            { return len(h) }
func (h freeHeap) Less(i, j int) bool  { return h[i].releasedAt.Before(h[j].releasedAt) }
func (h freeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *freeHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *freeHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// Pool hands out framed sockets to callers, one at a time per caller
// identity, reusing idle connections stalest-first and bounding how many
// concurrent dials may be in flight.
type Pool struct {
	mu     sync.Mutex
	inUse  map[CallerID]*socket.Socket
	free   freeHeap
	dial   DialFunc
	dialSem *semaphore.Weighted
	log    logging.Func
}

// Option tweaks Pool construction.
type Option func(*options)

type options struct {
	MaxConcurrentDials int64
	Log                logging.Func
}

// WithMaxConcurrentDials bounds how many new connections may be dialed
// at once, so a burst of callers missing the free list doesn't open an
// unbounded number of sockets simultaneously. The default is 8.
func WithMaxConcurrentDials(n int64) Option {
	return func(o *options) { o.MaxConcurrentDials = n }
}

// WithLogFunc sets the pool's logging callback.
func WithLogFunc(log logging.Func) Option {
	return func(o *options) { o.Log = log }
}

func defaultOptions() *options {
	return &options{MaxConcurrentDials: 8, Log: logging.Discard}
}

// New creates a Pool that dials new sockets via dial.
func New(dial DialFunc, opts ...Option) *Pool {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Pool{
		inUse:   make(map[CallerID]*socket.Socket),
		dial:    dial,
		dialSem: semaphore.NewWeighted(o.MaxConcurrentDials),
		log:     o.Log,
	}
}

// Checkout returns the socket leased to caller, creating one if needed.
// A caller that already holds an open socket gets that same socket back
// (a re-entrant lease): nested operations by the same caller reuse their
// socket.
func (p *Pool) Checkout(ctx context.Context, caller CallerID) (*socket.Socket, error) {
	const op = errors.Op("pool.Checkout")

	p.mu.Lock()
	if s, ok := p.inUse[caller]; ok {
		p.mu.Unlock()
		return s, nil
	}

	if len(p.free) > 0 {
		e := heap.Pop(&p.free).(*entry)
		p.inUse[caller] = e.sock
		p.mu.Unlock()
		return e.sock, nil
	}
	p.mu.Unlock()

	if err := p.dialSem.Acquire(ctx, 1); err != nil {
		return nil, wireerr.Transportf(op, err)
	}
	defer p.dialSem.Release(1)

	s, err := p.dial(ctx)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	// Another goroutine may have raced us and already checked out a
	// socket for this caller while we were dialing; that would violate
	// the pool's own re-entrant-lease invariant, so prefer whichever
	// socket is already recorded and close the redundant one.
	if existing, ok := p.inUse[caller]; ok {
		p.mu.Unlock()
		s.Close()
		return existing, nil
	}
	p.inUse[caller] = s
	p.mu.Unlock()

	p.log(logging.Debug, "dialed new socket for caller %v", caller)
	return s, nil
}

// Checkin returns the caller's leased socket to the free list, with the
// current time as its release timestamp, provided it is still open.
func (p *Pool) Checkin(caller CallerID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.inUse[caller]
	if !ok {
		return
	}
	delete(p.inUse, caller)

	if s.Closed() {
		return
	}
	heap.Push(&p.free, &entry{sock: s, releasedAt: now()})
}

// Close closes and discards the caller's leased socket without
// returning it to the free list.
func (p *Pool) Close(caller CallerID) error {
	p.mu.Lock()
	s, ok := p.inUse[caller]
	delete(p.inUse, caller)
	p.mu.Unlock()

	if !ok {
		return nil
	}
	_, err := s.Close()
	return err
}

// CloseIdle closes every free socket released more than cutoff ago,
// stopping at the first one that is still recent (the free heap is
// ordered stalest-first, so this is a prefix scan). It returns how many
// sockets were closed.
func (p *Pool) CloseIdle(cutoff time.Duration) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	threshold := now().Add(-cutoff)
	var closed []*socket.Socket
	for len(p.free) > 0 && p.free[0].releasedAt.Before(threshold) {
		e := heap.Pop(&p.free).(*entry)
		closed = append(closed, e.sock)
	}

	var errs error
	for _, s := range closed {
		if _, err := s.Close(); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return len(closed), errs
}

// CloseAll closes every socket, in use or free, and clears both
// collections.
func (p *Pool) CloseAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs error
	for _, s := range p.inUse {
		if _, err := s.Close(); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	for _, e := range p.free {
		if _, err := e.sock.Close(); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	p.inUse = make(map[CallerID]*socket.Socket)
	p.free = nil
	return errs
}

// Stats is a point-in-time snapshot of pool occupancy, exposed so
// embedders can assert pool occupancy invariants without reaching into
// internals.
type Stats struct {
	InUse int
	Free  int
}

// Stats returns the current pool occupancy.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{InUse: len(p.inUse), Free: len(p.free)}
}

// now is a seam so tests can control release timestamps deterministically.
var now = time.Now
