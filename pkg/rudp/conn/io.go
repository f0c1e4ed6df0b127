package conn

import (
	"context"
	"time"

	"github.com/datawire/dlib/dlog"

	"github.com/mehr1sh/reliable-udp-protocol/pkg/rudp/packet"
	"github.com/mehr1sh/reliable-udp-protocol/pkg/rudp/rerr"
)

// sendFrame encodes and transmits a frame. Send failures are logged
// and surfaced as *rerr.IoError; callers in the steady-state data path
// treat that as "will be retried on the next RTO".
func (c *Conn) sendFrame(ctx context.Context, h packet.Header, payload []byte) error {
	h.Window = ReceiverWindow
	buf, err := packet.Encode(h, payload)
	if err != nil {
		return err
	}
	if err := c.sock.Send(ctx, buf); err != nil {
		dlog.Errorf(ctx, "CON %s, send failed: %v", c.ID, err)
		return &rerr.IoError{Op: "send", Err: err}
	}
	return nil
}

// recvFrame blocks up to timeout (0 = forever) for the next valid
// frame, transparently discarding datagrams too short to carry a
// header.
func (c *Conn) recvFrame(ctx context.Context, timeout time.Duration) (packet.Header, []byte, error) {
	for {
		buf, err := c.sock.Recv(ctx, timeout)
		if err != nil {
			return packet.Header{}, nil, err
		}
		h, payload, err := packet.Decode(buf)
		if err != nil {
			dlog.Debugf(ctx, "CON %s, discarded invalid datagram: %v", c.ID, err)
			continue
		}
		return h, payload, nil
	}
}
