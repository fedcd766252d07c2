package pool

import (
	"context"
	"sync"

	"github.com/coleifer/go-kt/internal/socket"
)

// Source is the socket-lease surface an engine depends on; both Pool and
// Single satisfy it, so an engine can be built with or without C4's
// shared free list behind the same interface.
type Source interface {
	Checkout(ctx context.Context, caller CallerID) (*socket.Socket, error)
	Checkin(caller CallerID)
	Close(caller CallerID) error
}

var (
	_ Source = (*Pool)(nil)
	_ Source = (*Single)(nil)
)

// Single is the degenerate lease used when an engine is constructed with
// connection_pool disabled: one persistent socket per
// caller, created on first use and never shared with another caller or
// returned to a free list. Checkin is a no-op — the socket stays
// assigned to its caller until Close evicts it.
type Single struct {
	mu    sync.Mutex
	conns map[CallerID]*socket.Socket
	dial  DialFunc
}

// NewSingle creates a Single lease that dials new sockets via dial.
func NewSingle(dial DialFunc) *Single {
	return &Single{conns: make(map[CallerID]*socket.Socket), dial: dial}
}

// Checkout returns the caller's persistent socket, dialing one on first
// use.
func (s *Single) Checkout(ctx context.Context, caller CallerID) (*socket.Socket, error) {
	s.mu.Lock()
	if c, ok := s.conns[caller]; ok {
		s.mu.Unlock()
		return c, nil
	}
	s.mu.Unlock()

	c, err := s.dial(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.conns[caller]; ok {
		c.Close()
		return existing, nil
	}
	s.conns[caller] = c
	return c, nil
}

// Checkin is a no-op: the socket stays assigned to caller.
func (s *Single) Checkin(caller CallerID) {}

// Close closes and forgets the caller's persistent socket.
func (s *Single) Close(caller CallerID) error {
	s.mu.Lock()
	c, ok := s.conns[caller]
	delete(s.conns, caller)
	s.mu.Unlock()

	if !ok {
		return nil
	}
	_, err := c.Close()
	return err
}
