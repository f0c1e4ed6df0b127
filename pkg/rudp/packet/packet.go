// Package packet implements the wire framing for the reliable-UDP
// protocol: a fixed 12-byte header followed by up to MaxPayload bytes
// of payload. Encoding is pure — it never blocks and never retains a
// reference to its input.
package packet

import (
	"encoding/binary"
	"fmt"
)

// Flag bits, per the wire format. Combinations used by this protocol
// are SYN, SYN|ACK, ACK and FIN; other combinations are never produced
// but are not rejected on decode.
const (
	FlagSYN uint16 = 0x1
	FlagACK uint16 = 0x2
	FlagFIN uint16 = 0x4
)

// HeaderLen is the fixed size, in bytes, of every datagram's header.
const HeaderLen = 12

// MaxPayload is the largest payload a single data frame may carry.
const MaxPayload = 1024

// MaxDatagram is the largest valid encoded datagram.
const MaxDatagram = HeaderLen + MaxPayload

// Header is the fixed header carried by every datagram.
type Header struct {
	SeqNum uint32
	AckNum uint32
	Flags  uint16
	Window uint16
}

func (h Header) SYN() bool { return h.Flags&FlagSYN != 0 }
func (h Header) ACK() bool { return h.Flags&FlagACK != 0 }
func (h Header) FIN() bool { return h.Flags&FlagFIN != 0 }

func (h Header) String() string {
	var f string
	for _, p := range []struct {
		bit  uint16
		name string
	}{{FlagSYN, "SYN"}, {FlagACK, "ACK"}, {FlagFIN, "FIN"}} {
		if h.Flags&p.bit != 0 {
			if f != "" {
				f += "|"
			}
			f += p.name
		}
	}
	if f == "" {
		f = "-"
	}
	return fmt.Sprintf("seq=%d ack=%d flags=%s win=%d", h.SeqNum, h.AckNum, f, h.Window)
}

// Encode renders header and payload as header‖payload. len(payload)
// must not exceed MaxPayload.
func Encode(h Header, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayload {
		return nil, fmt.Errorf("packet: payload of %d bytes exceeds max %d", len(payload), MaxPayload)
	}
	buf := make([]byte, HeaderLen+len(payload))
	binary.BigEndian.PutUint32(buf[0:4], h.SeqNum)
	binary.BigEndian.PutUint32(buf[4:8], h.AckNum)
	binary.BigEndian.PutUint16(buf[8:10], h.Flags)
	binary.BigEndian.PutUint16(buf[10:12], h.Window)
	copy(buf[HeaderLen:], payload)
	return buf, nil
}

// Decode splits a raw datagram into its header and payload. The
// returned payload aliases buf — callers that retain it past the
// lifetime of buf must copy it. A header-only datagram decodes to a nil
// payload.
func Decode(buf []byte) (Header, []byte, error) {
	if len(buf) < HeaderLen {
		return Header{}, nil, fmt.Errorf("packet: datagram of %d bytes shorter than header (%d)", len(buf), HeaderLen)
	}
	if len(buf) > MaxDatagram {
		return Header{}, nil, fmt.Errorf("packet: datagram of %d bytes exceeds max %d", len(buf), MaxDatagram)
	}
	h := Header{
		SeqNum: binary.BigEndian.Uint32(buf[0:4]),
		AckNum: binary.BigEndian.Uint32(buf[4:8]),
		Flags:  binary.BigEndian.Uint16(buf[8:10]),
		Window: binary.BigEndian.Uint16(buf[10:12]),
	}
	payload := buf[HeaderLen:]
	if len(payload) == 0 {
		payload = nil
	}
	return h, payload, nil
}
