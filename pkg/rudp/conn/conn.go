// Package conn implements the core of the reliable-UDP transport:
// connection establishment, the sliding-window sender, the in-order
// receiver, and the four-way close. Each *Conn is owned by exactly one
// goroutine for its entire lifetime, so it needs no internal
// synchronization.
package conn

import (
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/mehr1sh/reliable-udp-protocol/pkg/rudp/rudpnet"
)

// WindowSize is the maximum number of in-flight unacknowledged data
// packets.
const WindowSize = 10

// ReceiverWindow is the fixed advertised window size. It is reserved
// for future flow-control use: receivers set it, senders currently do
// not throttle on it.
const ReceiverWindow = 8192

// RTO is the fixed retransmission timeout.
const RTO = 500 * time.Millisecond

// SendQuantum is how long the sender blocks waiting for an inbound ACK
// before checking for timed-out entries.
const SendQuantum = 100 * time.Millisecond

// HandshakeTimeout bounds how long the active opener waits for a
// SYN-ACK.
const HandshakeTimeout = 10 * time.Second

// CloseTimeout bounds each receive during the four-way close.
const CloseTimeout = 1 * time.Second

// windowEntry tracks one in-flight data packet. It stores the file
// offset and length rather than the payload bytes, so retransmission
// re-reads from the source of truth and the window's memory footprint
// stays independent of packet size.
type windowEntry struct {
	seq           uint32
	length        int
	offset        int64
	sentAt        time.Time
	retransmitted bool
}

func (e windowEntry) end() uint32 { return e.seq + uint32(e.length) }

// Conn is one endpoint of a reliable-UDP connection. It owns its
// socket, cursors, window and state; nothing here is package-level
// mutable state.
type Conn struct {
	ID   string
	sock rudpnet.Socket
	rnd  *rand.Rand

	state State

	// cursor is the next sequence number this endpoint will assign to
	// an unsent payload byte.
	cursor uint32

	// expectedSeq is the next byte number this endpoint is willing to
	// accept from its peer.
	expectedSeq uint32

	// peerInitialSeq is the peer's SYN sequence number, captured during
	// the handshake.
	peerInitialSeq uint32

	window []windowEntry
}

// newConn builds a Conn in the CLOSED state, ready to run a handshake.
func newConn(sock rudpnet.Socket, rnd *rand.Rand) *Conn {
	return &Conn{
		ID:    uuid.NewString(),
		sock:  sock,
		rnd:   rnd,
		state: StateClosed,
	}
}

// State returns the connection's current position in the state
// machine.
func (c *Conn) State() State { return c.state }

// Cursor returns the next sequence number this endpoint will send.
func (c *Conn) Cursor() uint32 { return c.cursor }

// randomInitialSeq draws an initial sequence number pseudo-randomly
// from [1000, 1001000).
func (c *Conn) randomInitialSeq() uint32 {
	return uint32(c.rnd.Intn(1000000) + 1000)
}

func (c *Conn) windowLen() int {
	return len(c.window)
}

func (c *Conn) windowBase() uint32 {
	if len(c.window) == 0 {
		return c.cursor
	}
	return c.window[0].seq
}
