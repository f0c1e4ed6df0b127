// Package chat implements the chat-mode multiplexer: a single
// connection carrying fire-and-forget text lines in both directions,
// with no sliding window and no retransmission.
package chat

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/datawire/dlib/dlog"

	"github.com/mehr1sh/reliable-udp-protocol/pkg/rudp/conn"
	"github.com/mehr1sh/reliable-udp-protocol/pkg/rudp/packet"
)

// Banner is printed once before the multiplexer starts.
const Banner = "chat mode started. type /quit to exit"

// Quit is the local and remote sentinel line that ends a chat session.
const Quit = "/quit"

type inboundFrame struct {
	h       packet.Header
	payload []byte
	err     error
}

// Run multiplexes local lines read from in against inbound frames on
// c until either side sends /quit. A local /quit runs the initiator
// close handshake; a peer FIN runs the responder close handshake; a
// peer line that is literally /quit ends the session immediately with
// no close handshake — an application-level disconnect distinct from
// the protocol close.
func Run(ctx context.Context, c *conn.Conn, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, Banner)

	lines := make(chan string)
	go readLines(in, lines)

	frames := make(chan inboundFrame)
	go recvLoop(ctx, c, frames)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case line, ok := <-lines:
			if !ok {
				// stdin closed: treat like a local /quit.
				return c.CloseInitiate(ctx)
			}
			if line == Quit {
				return c.CloseInitiate(ctx)
			}
			if err := c.SendChatLine(ctx, []byte(line)); err != nil {
				dlog.Errorf(ctx, "chat: send failed: %v", err)
			}

		case f := <-frames:
			if f.err != nil {
				return f.err
			}
			if f.h.FIN() {
				return c.CloseRespond(ctx, f.h.SeqNum)
			}
			text := string(f.payload)
			if text != Quit {
				fmt.Fprintln(out, text)
			}
			if err := c.AckChatFrame(ctx, f.h, len(f.payload)); err != nil {
				dlog.Errorf(ctx, "chat: ack failed: %v", err)
			}
			if text == Quit {
				return nil
			}
		}
	}
}

func readLines(in io.Reader, out chan<- string) {
	defer close(out)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		out <- scanner.Text()
	}
}

func recvLoop(ctx context.Context, c *conn.Conn, out chan<- inboundFrame) {
	for {
		h, payload, err := c.RecvChatFrame(ctx)
		select {
		case out <- inboundFrame{h: h, payload: payload, err: err}:
		case <-ctx.Done():
			return
		}
		if err != nil {
			return
		}
	}
}
