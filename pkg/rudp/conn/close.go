package conn

import (
	"context"

	"github.com/datawire/dlib/dlog"

	"github.com/mehr1sh/reliable-udp-protocol/pkg/rudp/packet"
	"github.com/mehr1sh/reliable-udp-protocol/pkg/rudp/rerr"
)

// CloseInitiate runs the initiator half of the four-way close: send
// FIN, await its ACK, then await the peer's own FIN and ACK it. It is
// the terminal operation of the connection; regardless of outcome the
// Conn is left in StateClosed on return.
func (c *Conn) CloseInitiate(ctx context.Context) error {
	if c.state != StateEstablished {
		return &rerr.ProtocolViolation{Reason: "CloseInitiate called outside ESTABLISHED"}
	}
	defer func() { c.state = StateClosed }()

	finSeq := c.cursor
	if err := c.sendFrame(ctx, packet.Header{SeqNum: finSeq, Flags: packet.FlagFIN}, nil); err != nil {
		return err
	}
	dlog.Debugf(ctx, "CON %s, SND FIN SEQ=%d", c.ID, finSeq)
	c.state = StateFinWait1
	c.cursor = finSeq + 1

	h, _, err := c.recvFrame(ctx, CloseTimeout)
	if err != nil {
		return &rerr.HandshakeFailed{Reason: "no ACK for FIN", Err: err}
	}
	if !h.ACK() || h.AckNum != finSeq+1 {
		return &rerr.HandshakeFailed{Reason: "invalid ACK for FIN"}
	}
	dlog.Debugf(ctx, "CON %s, RCV ACK FOR FIN", c.ID)
	c.state = StateFinWait2

	for {
		h, _, err := c.recvFrame(ctx, CloseTimeout)
		if err != nil {
			return &rerr.HandshakeFailed{Reason: "no FIN from peer", Err: err}
		}
		if !h.FIN() {
			// Stray data or duplicate ACK while waiting for the peer's
			// close; only the FIN matters here.
			continue
		}
		dlog.Debugf(ctx, "CON %s, RCV FIN SEQ=%d", c.ID, h.SeqNum)
		ackNum := h.SeqNum + 1
		if err := c.sendFrame(ctx, packet.Header{SeqNum: c.cursor, AckNum: ackNum, Flags: packet.FlagACK}, nil); err != nil {
			return err
		}
		dlog.Debugf(ctx, "CON %s, SND ACK FOR PEER FIN ACK=%d", c.ID, ackNum)
		return nil
	}
}

// CloseRespond runs the responder half of the four-way close,
// triggered when the receiver observes the peer's FIN at sequence
// number peerFinSeq: ACK it, then send our own FIN and await its ACK.
func (c *Conn) CloseRespond(ctx context.Context, peerFinSeq uint32) error {
	if c.state != StateEstablished {
		return &rerr.ProtocolViolation{Reason: "CloseRespond called outside ESTABLISHED"}
	}
	defer func() { c.state = StateClosed }()

	c.state = StateCloseWait
	ackNum := peerFinSeq + 1
	if err := c.sendFrame(ctx, packet.Header{SeqNum: c.cursor, AckNum: ackNum, Flags: packet.FlagACK}, nil); err != nil {
		return err
	}
	dlog.Debugf(ctx, "CON %s, SND ACK FOR PEER FIN ACK=%d", c.ID, ackNum)

	finSeq := c.cursor
	if err := c.sendFrame(ctx, packet.Header{SeqNum: finSeq, Flags: packet.FlagFIN}, nil); err != nil {
		return err
	}
	dlog.Debugf(ctx, "CON %s, SND FIN SEQ=%d", c.ID, finSeq)
	c.state = StateLastAck
	c.cursor = finSeq + 1

	h, _, err := c.recvFrame(ctx, CloseTimeout)
	if err != nil {
		return &rerr.HandshakeFailed{Reason: "no ACK for FIN", Err: err}
	}
	if !h.ACK() || h.AckNum != finSeq+1 {
		return &rerr.HandshakeFailed{Reason: "invalid ACK for FIN"}
	}
	dlog.Debugf(ctx, "CON %s, RCV ACK FOR FIN", c.ID)
	return nil
}
