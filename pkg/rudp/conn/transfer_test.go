package conn

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mehr1sh/reliable-udp-protocol/pkg/rudp/packet"
	"github.com/mehr1sh/reliable-udp-protocol/pkg/rudp/rudpnet"
)

// oneShotDropLoss drops exactly the first frame it sees, then never
// drops again — a single dropped data frame must be recovered by
// retransmission.
type oneShotDropLoss struct {
	dropped bool
}

func (l *oneShotDropLoss) ShouldDrop() bool {
	if l.dropped {
		return false
	}
	l.dropped = true
	return true
}

func establishPair(t *testing.T) (client, server *Conn) {
	t.Helper()
	ctx := context.Background()
	clientSock, serverSock := rudpnet.NewMemSocketPair("client", "server")

	type result struct {
		c   *Conn
		err error
	}
	clientCh := make(chan result, 1)
	serverCh := make(chan result, 1)
	go func() {
		c, err := DialActive(ctx, clientSock, newSeededRand(100))
		clientCh <- result{c, err}
	}()
	go func() {
		c, err := AcceptPassive(ctx, serverSock, newSeededRand(200))
		serverCh <- result{c, err}
	}()
	cr := <-clientCh
	sr := <-serverCh
	require.NoError(t, cr.err)
	require.NoError(t, sr.err)
	return cr.c, sr.c
}

func TestTransferSurvivesSingleDroppedFrame(t *testing.T) {
	ctx := context.Background()
	client, server := establishPair(t)

	payload := bytes.Repeat([]byte("retransmit-me "), 50)
	src := bytes.NewReader(payload)
	var sink bytes.Buffer

	sendErrCh := make(chan error, 1)
	recvErrCh := make(chan error, 1)
	go func() { sendErrCh <- client.SendFile(ctx, src) }()
	go func() { recvErrCh <- server.ReceiveFile(ctx, &sink, &oneShotDropLoss{}) }()

	require.NoError(t, <-sendErrCh)
	require.NoError(t, <-recvErrCh)
	require.Equal(t, payload, sink.Bytes())
}

func TestAdvanceWindowIsCumulativeAndIdempotent(t *testing.T) {
	c := &Conn{cursor: 100}
	c.window = []windowEntry{
		{seq: 10, length: 10}, // covers [10,20)
		{seq: 20, length: 10}, // covers [20,30)
		{seq: 30, length: 10}, // covers [30,40)
	}

	c.advanceWindow(20) // ack for the first entry only
	require.Len(t, c.window, 2)
	require.Equal(t, uint32(20), c.window[0].seq)

	c.advanceWindow(15) // a stale/duplicate ack must not resurrect anything
	require.Len(t, c.window, 2)

	c.advanceWindow(40) // cumulative ack clears the remainder
	require.Len(t, c.window, 0)
}

func TestReceiveFileRejectsOutOfOrderWithoutWriting(t *testing.T) {
	ctx := context.Background()
	peerSock, serverSock := rudpnet.NewMemSocketPair("client", "server")
	server := &Conn{sock: serverSock, state: StateEstablished, peerInitialSeq: 999, cursor: 1}

	var sink bytes.Buffer
	finCh := make(chan error, 1)
	go func() { finCh <- server.ReceiveFile(ctx, &sink, rudpnet.NoLoss) }()

	// expected_seq starts at peerInitialSeq+1 = 1000. Send an
	// out-of-order frame first: it must be ACKed but not written.
	require.NoError(t, peerSock.Send(ctx, mustEncode(t, packet.Header{SeqNum: 2000}, []byte("future"))))
	h, _, err := mustRecvFrame(t, peerSock)
	require.NoError(t, err)
	require.True(t, h.ACK())
	require.Equal(t, uint32(1000), h.AckNum)

	// The correctly ordered frame is written and ACKed past it.
	require.NoError(t, peerSock.Send(ctx, mustEncode(t, packet.Header{SeqNum: 1000}, []byte("now"))))
	h, _, err = mustRecvFrame(t, peerSock)
	require.NoError(t, err)
	require.Equal(t, uint32(1003), h.AckNum)

	// FIN drives the responder close; ACK its FIN to let it finish.
	require.NoError(t, peerSock.Send(ctx, mustEncode(t, packet.Header{SeqNum: 1003, Flags: packet.FlagFIN}, nil)))
	h, _, err = mustRecvFrame(t, peerSock) // server's ACK for our FIN
	require.NoError(t, err)
	require.True(t, h.ACK())
	h, _, err = mustRecvFrame(t, peerSock) // server's own FIN
	require.NoError(t, err)
	require.True(t, h.FIN())
	require.NoError(t, peerSock.Send(ctx, mustEncode(t, packet.Header{SeqNum: 0, AckNum: h.SeqNum + 1, Flags: packet.FlagACK}, nil)))

	require.NoError(t, <-finCh)
	require.Equal(t, "now", sink.String())
}

func mustEncode(t *testing.T, h packet.Header, payload []byte) []byte {
	t.Helper()
	buf, err := packet.Encode(h, payload)
	require.NoError(t, err)
	return buf
}

func mustRecvFrame(t *testing.T, s rudpnet.Socket) (packet.Header, []byte, error) {
	t.Helper()
	buf, err := s.Recv(context.Background(), 2*time.Second)
	if err != nil {
		return packet.Header{}, nil, err
	}
	return packet.Decode(buf)
}
