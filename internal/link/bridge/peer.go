package bridge

import (
	"github.com/pion/webrtc/v4"
)

// DefaultSTUN are used for ICE candidate gathering when none are configured.
// No TURN: the bridge only needs a direct path.
var DefaultSTUN = []string{
	"stun:stun.l.google.com:19302",
	"stun:stun1.l.google.com:19302",
}

func newPeerConnection(stun []string) (*webrtc.PeerConnection, error) {
	config := webrtc.Configuration{}
	if len(stun) > 0 {
		config.ICEServers = []webrtc.ICEServer{{URLs: stun}}
	}
	return webrtc.NewPeerConnection(config)
}

// newDataChannel creates a pre-negotiated DataChannel that behaves like a
// radio: unordered and never retransmitted by SCTP, so loss and reordering
// reach the reliability layer instead of being hidden by it.
func newDataChannel(pc *webrtc.PeerConnection) (*webrtc.DataChannel, error) {
	ordered := false
	negotiated := true
	retransmits := uint16(0)
	id := uint16(0)

	return pc.CreateDataChannel("radio", &webrtc.DataChannelInit{
		Ordered:        &ordered,
		MaxRetransmits: &retransmits,
		Negotiated:     &negotiated,
		ID:             &id,
	})
}
