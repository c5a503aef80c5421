package link

import (
	"fmt"

	"github.com/1ureka/rlink/internal/protocol"
)

// HeaderSize is the addressing header used by links without hardware
// addressing: dst(6) | src(6).
const HeaderSize = 2 * protocol.AddressLen

// PackHeader prepends dst and src to frame.
func PackHeader(dst, src protocol.PeerAddress, frame []byte) []byte {
	buf := make([]byte, HeaderSize+len(frame))
	copy(buf[0:6], dst[:])
	copy(buf[6:12], src[:])
	copy(buf[HeaderSize:], frame)
	return buf
}

// SplitHeader parses a packet produced by PackHeader. The returned frame
// aliases packet.
func SplitHeader(packet []byte) (dst, src protocol.PeerAddress, frame []byte, err error) {
	if len(packet) < HeaderSize {
		return dst, src, nil, fmt.Errorf("packet of %d bytes shorter than link header", len(packet))
	}
	dst = protocol.AddressFrom(packet[0:6])
	src = protocol.AddressFrom(packet[6:12])
	return dst, src, packet[HeaderSize:], nil
}

// Accepts reports whether a packet addressed to dst is meant for local.
func Accepts(local, dst protocol.PeerAddress) bool {
	return dst == local || dst.IsBroadcast()
}
