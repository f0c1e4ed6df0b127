package conn

import (
	"context"
	"io"
	"time"

	"github.com/datawire/dlib/dlog"

	"github.com/mehr1sh/reliable-udp-protocol/pkg/rudp/packet"
	"github.com/mehr1sh/reliable-udp-protocol/pkg/rudp/rerr"
	"github.com/mehr1sh/reliable-udp-protocol/pkg/rudp/rudpnet"
)

// SendFile drives the sliding-window sender to completion, reading src
// from offset 0, then runs the file-mode FIN exchange (the initiator
// half of the four-way close).
func (c *Conn) SendFile(ctx context.Context, src io.ReaderAt) error {
	if c.state != StateEstablished {
		return &rerr.ProtocolViolation{Reason: "SendFile called outside ESTABLISHED"}
	}

	var filePos int64
	exhausted := false
	buf := make([]byte, packet.MaxPayload)

	for !exhausted || c.windowLen() > 0 {
		// Fill the window.
		for !exhausted && c.windowLen() < WindowSize {
			n, err := src.ReadAt(buf, filePos)
			if n > 0 {
				seq := c.cursor
				if sendErr := c.sendFrame(ctx, packet.Header{SeqNum: seq}, buf[:n]); sendErr != nil {
					// Transient: the entry is still recorded below so
					// the retransmission timer will retry it.
					dlog.Errorf(ctx, "CON %s, send of SEQ=%d failed, will retry on timeout: %v", c.ID, seq, sendErr)
				}
				dlog.Debugf(ctx, "CON %s, SND DATA SEQ=%d LEN=%d", c.ID, seq, n)
				c.window = append(c.window, windowEntry{
					seq: seq, length: n, offset: filePos, sentAt: time.Now(),
				})
				c.cursor += uint32(n)
				filePos += int64(n)
			}
			if err != nil {
				if err != io.EOF {
					return &rerr.SourceError{Path: "input", Err: err}
				}
				exhausted = true
			}
			if n == 0 {
				break
			}
		}

		if !exhausted || c.windowLen() > 0 {
			if err := c.senderWaitAndAdvance(ctx, src, buf); err != nil {
				return err
			}
		}
	}

	return c.CloseInitiate(ctx)
}

// senderWaitAndAdvance waits up to SendQuantum for an ACK and advances
// the window on a match, or — on timeout — retransmits every
// in-flight entry older than RTO.
func (c *Conn) senderWaitAndAdvance(ctx context.Context, src io.ReaderAt, scratch []byte) error {
	h, _, err := c.recvFrame(ctx, SendQuantum)
	switch {
	case err == rudpnet.ErrTimeout:
		return c.retransmitTimedOut(ctx, src, scratch)
	case err != nil:
		// Transient read failure: treat exactly like a quantum expiry
		// and fall through to the timeout check.
		return c.retransmitTimedOut(ctx, src, scratch)
	case h.ACK():
		dlog.Debugf(ctx, "CON %s, RCV ACK=%d", c.ID, h.AckNum)
		c.advanceWindow(h.AckNum)
		return nil
	default:
		// Non-ACK frames during data transfer are ignored.
		return nil
	}
}

// advanceWindow drops every in-flight entry fully covered by ack,
// implementing cumulative-ACK semantics: a later ACK subsumes all
// earlier ones, a duplicate (ack_num <= base) is a no-op.
func (c *Conn) advanceWindow(ack uint32) {
	i := 0
	for i < len(c.window) && c.window[i].end() <= ack {
		i++
	}
	c.window = c.window[i:]
}

// retransmitTimedOut re-reads and resends every in-flight entry whose
// age exceeds RTO, preserving its original sequence number and
// payload content.
func (c *Conn) retransmitTimedOut(ctx context.Context, src io.ReaderAt, scratch []byte) error {
	now := time.Now()
	for i := range c.window {
		e := &c.window[i]
		if now.Sub(e.sentAt) <= RTO {
			continue
		}
		dlog.Debugf(ctx, "CON %s, TIMEOUT SEQ=%d", c.ID, e.seq)
		n, err := src.ReadAt(scratch[:e.length], e.offset)
		if err != nil && err != io.EOF {
			return &rerr.SourceError{Path: "input", Err: err}
		}
		if sendErr := c.sendFrame(ctx, packet.Header{SeqNum: e.seq}, scratch[:n]); sendErr != nil {
			dlog.Errorf(ctx, "CON %s, retransmit of SEQ=%d failed: %v", c.ID, e.seq, sendErr)
		}
		dlog.Debugf(ctx, "CON %s, RETX DATA SEQ=%d LEN=%d", c.ID, e.seq, n)
		e.sentAt = time.Now()
		e.retransmitted = true
	}
	return nil
}
