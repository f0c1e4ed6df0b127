package conn

import (
	"context"
	"io"

	"github.com/datawire/dlib/dlog"

	"github.com/mehr1sh/reliable-udp-protocol/pkg/rudp/packet"
	"github.com/mehr1sh/reliable-udp-protocol/pkg/rudp/rerr"
	"github.com/mehr1sh/reliable-udp-protocol/pkg/rudp/rudpnet"
)

// ReceiveFile drives the in-order receiver until the peer sends FIN,
// at which point it runs the responder half of the four-way close and
// returns. sink receives accepted payload bytes strictly in order.
// loss simulates substrate loss for testing; pass rudpnet.NoLoss in
// production.
func (c *Conn) ReceiveFile(ctx context.Context, sink io.Writer, loss rudpnet.LossInjector) error {
	if c.state != StateEstablished {
		return &rerr.ProtocolViolation{Reason: "ReceiveFile called outside ESTABLISHED"}
	}
	c.expectedSeq = c.peerInitialSeq + 1

	for {
		h, payload, err := c.recvFrame(ctx, 0)
		if err != nil {
			return &rerr.IoError{Op: "recv", Err: err}
		}

		if h.FIN() {
			dlog.Debugf(ctx, "CON %s, RCV FIN SEQ=%d", c.ID, h.SeqNum)
			return c.CloseRespond(ctx, h.SeqNum)
		}

		if loss != nil && loss.ShouldDrop() {
			dlog.Debugf(ctx, "CON %s, DROP DATA SEQ=%d", c.ID, h.SeqNum)
			continue
		}

		dataLen := len(payload)
		dlog.Debugf(ctx, "CON %s, RCV DATA SEQ=%d LEN=%d", c.ID, h.SeqNum, dataLen)

		if h.SeqNum == c.expectedSeq && dataLen > 0 {
			if _, err := sink.Write(payload); err != nil {
				return &rerr.SourceError{Path: "output", Err: err}
			}
			c.expectedSeq += uint32(dataLen)
		}
		// Out-of-order, duplicate, or zero-length frames are not
		// written, but still get a cumulative ACK for the current
		// expected_seq, so a sender blocked on a lost ACK is nudged
		// forward instead of stalling.

		if err := c.sendFrame(ctx, packet.Header{SeqNum: c.cursor, AckNum: c.expectedSeq, Flags: packet.FlagACK}, nil); err != nil {
			dlog.Errorf(ctx, "CON %s, ACK send failed: %v", c.ID, err)
			continue
		}
		dlog.Debugf(ctx, "CON %s, SND ACK=%d WIN=%d", c.ID, c.expectedSeq, ReceiverWindow)
	}
}
