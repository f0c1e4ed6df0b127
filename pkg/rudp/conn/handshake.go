package conn

import (
	"context"
	"math/rand"

	"github.com/datawire/dlib/dlog"

	"github.com/mehr1sh/reliable-udp-protocol/pkg/rudp/packet"
	"github.com/mehr1sh/reliable-udp-protocol/pkg/rudp/rerr"
	"github.com/mehr1sh/reliable-udp-protocol/pkg/rudp/rudpnet"
)

// DialActive performs the active-opener side of the three-way
// handshake and returns an ESTABLISHED Conn. rnd seeds the initial
// sequence number draw; production callers seed it from
// nondeterministic entropy, tests from a fixed seed.
func DialActive(ctx context.Context, sock rudpnet.Socket, rnd *rand.Rand) (*Conn, error) {
	c := newConn(sock, rnd)
	c.state = StateSynSent

	c0 := c.randomInitialSeq()
	if err := c.sendFrame(ctx, packet.Header{SeqNum: c0, Flags: packet.FlagSYN}, nil); err != nil {
		return nil, err
	}
	dlog.Debugf(ctx, "CON %s, SND SYN SEQ=%d", c.ID, c0)

	h, _, err := c.recvFrame(ctx, HandshakeTimeout)
	if err != nil {
		return nil, &rerr.HandshakeFailed{Reason: "no response to SYN", Err: err}
	}
	if !h.SYN() || !h.ACK() {
		return nil, &rerr.HandshakeFailed{Reason: "expected SYN-ACK"}
	}
	dlog.Debugf(ctx, "CON %s, RCV SYN-ACK SEQ=%d ACK=%d", c.ID, h.SeqNum, h.AckNum)
	if h.AckNum != c0+1 {
		return nil, &rerr.HandshakeFailed{Reason: "invalid ACK number in SYN-ACK"}
	}
	s0 := h.SeqNum
	c.peerInitialSeq = s0

	if err := c.sendFrame(ctx, packet.Header{SeqNum: c0, AckNum: s0 + 1, Flags: packet.FlagACK}, nil); err != nil {
		return nil, err
	}
	dlog.Debugf(ctx, "CON %s, SND ACK FOR SYN ACK=%d", c.ID, s0+1)

	c.state = StateEstablished
	c.cursor = c0 + 1
	c.expectedSeq = s0 + 1
	return c, nil
}

// AcceptPassive performs the passive-listener side of the three-way
// handshake and returns an ESTABLISHED Conn.
func AcceptPassive(ctx context.Context, sock rudpnet.Socket, rnd *rand.Rand) (*Conn, error) {
	c := newConn(sock, rnd)

	h, _, err := c.recvFrame(ctx, 0)
	if err != nil {
		return nil, &rerr.HandshakeFailed{Reason: "no initial datagram", Err: err}
	}
	if !h.SYN() {
		return nil, &rerr.HandshakeFailed{Reason: "expected SYN"}
	}
	c0 := h.SeqNum
	dlog.Debugf(ctx, "CON %s, RCV SYN SEQ=%d", c.ID, c0)

	s0 := c.randomInitialSeq()
	c.state = StateSynRcvd
	if err := c.sendFrame(ctx, packet.Header{SeqNum: s0, AckNum: c0 + 1, Flags: packet.FlagSYN | packet.FlagACK}, nil); err != nil {
		return nil, err
	}
	dlog.Debugf(ctx, "CON %s, SND SYN-ACK SEQ=%d ACK=%d", c.ID, s0, c0+1)

	h, _, err = c.recvFrame(ctx, HandshakeTimeout)
	if err != nil {
		return nil, &rerr.HandshakeFailed{Reason: "no ACK for SYN-ACK", Err: err}
	}
	if !h.ACK() || h.AckNum != s0+1 {
		return nil, &rerr.HandshakeFailed{Reason: "invalid ACK in handshake"}
	}
	dlog.Debugf(ctx, "CON %s, RCV ACK FOR SYN", c.ID)

	c.state = StateEstablished
	c.peerInitialSeq = c0
	c.cursor = s0 + 1
	c.expectedSeq = c0 + 1
	return c, nil
}
