package rudpnet

import (
	"context"
	"net"
	"sync"
	"time"
)

// memAddr is a synthetic net.Addr for in-memory sockets.
type memAddr string

func (a memAddr) Network() string { return "mem" }
func (a memAddr) String() string  { return string(a) }

// memSocket is an in-memory, channel-backed Socket used by property
// and scenario tests so they can run deterministically without a real
// UDP stack.
type memSocket struct {
	local, remote memAddr
	in            chan []byte
	out           chan []byte
	mu            sync.Mutex
	closed        bool
}

// NewMemSocketPair returns two Sockets wired to each other in memory.
func NewMemSocketPair(localName, remoteName string) (a, b Socket) {
	ab := make(chan []byte, 256)
	ba := make(chan []byte, 256)
	sa := &memSocket{local: memAddr(localName), remote: memAddr(remoteName), in: ba, out: ab}
	sb := &memSocket{local: memAddr(remoteName), remote: memAddr(localName), in: ab, out: ba}
	return sa, sb
}

func (s *memSocket) Send(ctx context.Context, b []byte) error {
	cp := make([]byte, len(b))
	copy(cp, b)
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return net.ErrClosed
	}
	select {
	case s.out <- cp:
		return nil
	default:
		// Channel full: treat as a substrate drop rather than blocking
		// the single-threaded caller forever.
		return nil
	}
}

func (s *memSocket) Recv(ctx context.Context, timeout time.Duration) ([]byte, error) {
	var timer *time.Timer
	var after <-chan time.Time
	if timeout > 0 {
		timer = time.NewTimer(timeout)
		defer timer.Stop()
		after = timer.C
	}
	select {
	case b, ok := <-s.in:
		if !ok {
			return nil, net.ErrClosed
		}
		return b, nil
	case <-after:
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *memSocket) LocalAddr() net.Addr  { return s.local }
func (s *memSocket) RemoteAddr() net.Addr { return s.remote }

func (s *memSocket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.out)
	}
	return nil
}
