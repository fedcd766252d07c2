// Package socket implements one framed TCP connection: exact-length
// buffered receive, all-or-nothing send, and error classification into
// the typed kinds every operation above it propagates.
package socket

import (
	"io"
	"net"
	"sync"
	"time"

	"github.com/spiral/errors"

	"github.com/coleifer/go-kt/internal/wireerr"
)

// maxReadChunk bounds a single underlying read,
const maxReadChunk = 64 * 1024

// maxConsecutiveEmptyReads mirrors bufio.Reader's own retry budget for
// reads that return zero bytes without error.
const maxConsecutiveEmptyReads = 100

// Socket owns one TCP connection and its buffered-read state machine.
type Socket struct {
	mu         sync.Mutex
	conn       net.Conn
	timeout    time.Duration
	recvBuffer []byte
	bytesRead  int
	closed     bool
}

// New wraps an already-established connection with no receive timeout.
func New(conn net.Conn) *Socket {
	return &Socket{conn: conn}
}

// Dial opens a TCP connection to address, optionally enabling
// TCP_NODELAY and a receive timeout. The timeout, when non-zero, is
// re-armed at the start of every RecvExact and SendAll so it bounds
// each call rather than the whole connection's lifetime.
func Dial(address string, nodelay bool, timeout time.Duration) (*Socket, error) {
	const op = errors.Op("socket.Dial")

	conn, err := net.Dial("tcp", address)
	if err != nil {
		return nil, wireerr.Transportf(op, err)
	}
	if tcp, ok := conn.(*net.TCPConn); ok && nodelay {
		if err := tcp.SetNoDelay(true); err != nil {
			conn.Close()
			return nil, wireerr.Transportf(op, err)
		}
	}
	return &Socket{conn: conn, timeout: timeout}, nil
}

// arm re-applies the socket's configured deadline, if any, before a
// blocking read or write. A no-op when no timeout was configured.
func (s *Socket) arm() error {
	if s.timeout <= 0 {
		return nil
	}
	return s.conn.SetDeadline(time.Now().Add(s.timeout))
}

// RecvExact returns exactly n bytes, serving from the internal buffer
// first and topping it up from the socket in chunks of up to 64 KiB.
func (s *Socket) RecvExact(n int) ([]byte, error) {
	const op = errors.Op("socket.RecvExact")

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, wireerr.ConnectionClosedf(op, errors.Str("socket already closed"))
	}

	if err := s.arm(); err != nil {
		s.closeLocked()
		return nil, wireerr.Transportf(op, err)
	}

	for len(s.recvBuffer)-s.bytesRead < n {
		chunk := make([]byte, maxReadChunk)
		read, err := s.fill(chunk)
		if err != nil {
			s.closeLocked()
			return nil, s.classify(op, err)
		}
		s.recvBuffer = append(s.recvBuffer[s.bytesRead:], chunk[:read]...)
		s.bytesRead = 0
	}

	out := make([]byte, n)
	copy(out, s.recvBuffer[s.bytesRead:s.bytesRead+n])
	s.bytesRead += n

	if s.bytesRead == len(s.recvBuffer) {
		s.recvBuffer = nil
		s.bytesRead = 0
	}

	return out, nil
}

// fill performs at most one underlying Read, retrying only on the
// zero-bytes-no-error case (the same technique bufio.Reader uses, and
// that the go-cowsql Protocol.recvFill copies from it).
func (s *Socket) fill(buf []byte) (int, error) {
	for i := maxConsecutiveEmptyReads; i > 0; i-- {
		n, err := s.conn.Read(buf)
		if n < 0 {
			panic("socket: negative read count")
		}
		if err != nil {
			return 0, err
		}
		if n > 0 {
			return n, nil
		}
	}
	return 0, io.ErrNoProgress
}

// SendAll writes every byte of b, closing the socket on any failure.
func (s *Socket) SendAll(b []byte) error {
	const op = errors.Op("socket.SendAll")

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return wireerr.ConnectionClosedf(op, errors.Str("socket already closed"))
	}

	if err := s.arm(); err != nil {
		s.closeLocked()
		return wireerr.ConnectionClosedf(op, err)
	}

	written := 0
	for written < len(b) {
		n, err := s.conn.Write(b[written:])
		if err != nil {
			s.closeLocked()
			return wireerr.ConnectionClosedf(op, err)
		}
		written += n
	}
	return nil
}

// classify maps an I/O error to the appropriate wireerr Kind.
func (s *Socket) classify(op errors.Op, err error) error {
	if err == io.EOF {
		return wireerr.ConnectionClosedf(op, err)
	}
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return wireerr.Timeoutf(op, err)
	}
	return wireerr.Transportf(op, err)
}

// Close shuts down the connection and releases resources. It is
// idempotent: calling it more than once after the first is a no-op and
// reports that no work was done.
func (s *Socket) Close() (closed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked(), nil
}

func (s *Socket) closeLocked() bool {
	if s.closed {
		return false
	}
	s.closed = true
	s.conn.Close()
	s.recvBuffer = nil
	s.bytesRead = 0
	return true
}

// Closed reports whether the socket has been closed.
func (s *Socket) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
