// Package rudpnet provides the datagram substrate: a best-effort
// send/receive primitive between two addresses. It may drop, reorder
// or duplicate datagrams but never corrupts one.
package rudpnet

import (
	"context"
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/mehr1sh/reliable-udp-protocol/pkg/rudp/packet"
)

// ErrTimeout is returned by Recv when no datagram arrived within the
// requested timeout. Callers treat it as a read-quantum expiry.
var ErrTimeout = errors.New("rudpnet: receive timeout")

// Socket is the datagram substrate contract consumed by the transport
// core. Implementations must be safe for use by a single goroutine at
// a time — the core never calls Send/Recv concurrently on the same
// Socket.
type Socket interface {
	Send(ctx context.Context, b []byte) error
	// Recv blocks for at most timeout (zero means block forever) and
	// returns the next datagram's bytes, or ErrTimeout.
	Recv(ctx context.Context, timeout time.Duration) ([]byte, error)
	LocalAddr() net.Addr
	RemoteAddr() net.Addr
	Close() error
}

// udpSocket is the production Socket over a single net.UDPConn. A
// client dials its peer directly; a server listens on a fixed port and
// locks onto the address of the first datagram it receives — there is
// no support for multiplexing several connections over one socket.
type udpSocket struct {
	conn      *net.UDPConn
	connected bool // true once DialUDP locked on a remote address
	peer      *net.UDPAddr
}

// DialClient opens a UDP socket and connects it to the given peer, for
// the active-opener role.
func DialClient(peerHost string, peerPort int) (Socket, error) {
	raddr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(peerHost, strconv.Itoa(peerPort)))
	if err != nil {
		return nil, err
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, err
	}
	return &udpSocket{conn: conn, connected: true, peer: raddr}, nil
}

// ListenServer opens a UDP socket bound to bindPort, for the
// passive-listener role. The peer address is learned from the first
// datagram received.
func ListenServer(bindPort int) (Socket, error) {
	laddr := &net.UDPAddr{Port: bindPort}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, err
	}
	return &udpSocket{conn: conn}, nil
}

func (s *udpSocket) Send(ctx context.Context, b []byte) error {
	if s.connected {
		_, err := s.conn.Write(b)
		return err
	}
	if s.peer == nil {
		return errors.New("rudpnet: peer address not yet known")
	}
	_, err := s.conn.WriteToUDP(b, s.peer)
	return err
}

func (s *udpSocket) Recv(ctx context.Context, timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		if err := s.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return nil, err
		}
	} else {
		if err := s.conn.SetReadDeadline(time.Time{}); err != nil {
			return nil, err
		}
	}

	buf := make([]byte, packet.MaxDatagram)
	for {
		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return nil, ErrTimeout
			}
			return nil, err
		}
		if s.peer == nil {
			s.peer = addr
		} else if !addrEqual(s.peer, addr) {
			// Stray datagram from a third party: this endpoint only
			// ever talks to one peer per run, so ignore it and keep
			// waiting for the real peer.
			continue
		}
		out := make([]byte, n)
		copy(out, buf[:n])
		return out, nil
	}
}

func (s *udpSocket) LocalAddr() net.Addr { return s.conn.LocalAddr() }

func (s *udpSocket) RemoteAddr() net.Addr {
	if s.peer != nil {
		return s.peer
	}
	return s.conn.RemoteAddr()
}

func (s *udpSocket) Close() error { return s.conn.Close() }

func addrEqual(a, b *net.UDPAddr) bool {
	return a.IP.Equal(b.IP) && a.Port == b.Port
}
