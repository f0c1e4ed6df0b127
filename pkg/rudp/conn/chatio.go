package conn

import (
	"context"

	"github.com/datawire/dlib/dlog"

	"github.com/mehr1sh/reliable-udp-protocol/pkg/rudp/packet"
	"github.com/mehr1sh/reliable-udp-protocol/pkg/rudp/rerr"
)

// SendChatLine transmits one chat line with the current cursor and
// advances it by the line length. Unlike SendFile it is fire-and-forget:
// no window entry is recorded and no retransmission is ever attempted.
func (c *Conn) SendChatLine(ctx context.Context, line []byte) error {
	if c.state != StateEstablished {
		return &rerr.ProtocolViolation{Reason: "SendChatLine called outside ESTABLISHED"}
	}
	if len(line) > packet.MaxPayload {
		line = line[:packet.MaxPayload]
	}
	seq := c.cursor
	if err := c.sendFrame(ctx, packet.Header{SeqNum: seq}, line); err != nil {
		return err
	}
	dlog.Debugf(ctx, "CON %s, SND DATA SEQ=%d LEN=%d", c.ID, seq, len(line))
	c.cursor = seq + uint32(len(line))
	return nil
}

// RecvChatFrame blocks for the next inbound frame, with no timeout:
// chat's readiness wait is infinite between messages.
func (c *Conn) RecvChatFrame(ctx context.Context) (packet.Header, []byte, error) {
	return c.recvFrame(ctx, 0)
}

// AckChatFrame emits an ACK for a received chat frame covering its
// full payload. Chat ACKs never participate in a sliding window or
// cumulative sequencing beyond the single frame received.
func (c *Conn) AckChatFrame(ctx context.Context, h packet.Header, payloadLen int) error {
	ack := h.SeqNum + uint32(payloadLen)
	return c.sendFrame(ctx, packet.Header{SeqNum: c.cursor, AckNum: ack, Flags: packet.FlagACK}, nil)
}
