package packet

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		name    string
		h       Header
		payload []byte
	}{
		{"syn", Header{SeqNum: 1000, AckNum: 0, Flags: FlagSYN, Window: 8192}, nil},
		{"syn-ack", Header{SeqNum: 2000, AckNum: 1001, Flags: FlagSYN | FlagACK, Window: 8192}, nil},
		{"data", Header{SeqNum: 1001, AckNum: 0, Flags: 0, Window: 8192}, []byte("hello\n")},
		{"max-payload", Header{SeqNum: 1, AckNum: 2, Flags: FlagACK, Window: 8192}, make([]byte, MaxPayload)},
		{"fin", Header{SeqNum: 42, AckNum: 0, Flags: FlagFIN, Window: 8192}, nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			buf, err := Encode(c.h, c.payload)
			require.NoError(t, err)
			require.Len(t, buf, HeaderLen+len(c.payload))

			gotHdr, gotPayload, err := Decode(buf)
			require.NoError(t, err)
			if diff := cmp.Diff(c.h, gotHdr); diff != "" {
				t.Errorf("header mismatch (-want +got):\n%s", diff)
			}
			require.Equal(t, c.payload, gotPayload)
		})
	}
}

func TestEncodeRejectsOversizedPayload(t *testing.T) {
	_, err := Encode(Header{}, make([]byte, MaxPayload+1))
	require.Error(t, err)
}

func TestDecodeRejectsShortDatagram(t *testing.T) {
	_, _, err := Decode(make([]byte, HeaderLen-1))
	require.Error(t, err)
}

func TestDecodeRejectsOversizedDatagram(t *testing.T) {
	_, _, err := Decode(make([]byte, MaxDatagram+1))
	require.Error(t, err)
}

func TestFlagHelpers(t *testing.T) {
	h := Header{Flags: FlagSYN | FlagACK}
	require.True(t, h.SYN())
	require.True(t, h.ACK())
	require.False(t, h.FIN())
	require.Equal(t, "seq=0 ack=0 flags=SYN|ACK win=0", h.String())
}

func TestEmptyPayloadZeroLength(t *testing.T) {
	buf, err := Encode(Header{Flags: FlagSYN}, nil)
	require.NoError(t, err)
	_, payload, err := Decode(buf)
	require.NoError(t, err)
	require.Len(t, payload, 0)
}
