package signaling

import (
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"

	"github.com/1ureka/rlink/internal/link/bridge"
	"github.com/1ureka/rlink/internal/protocol"
)

// receiver applies incoming signaling messages to the transport.
type receiver struct {
	tr     *bridge.Transport
	conn   *websocket.Conn
	sender *sender
	hello  chan protocol.PeerAddress // capacity 1
}

// watch runs until the WebSocket fails or closes.
func (r *receiver) watch() error {
	for {
		var msg message
		if err := r.conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("read WS message: %w", err)
		}

		switch msg.Type {
		case msgTypeHello:
			addr, err := protocol.ParseAddress(msg.Address)
			if err != nil {
				return fmt.Errorf("remote hello: %w", err)
			}
			select {
			case r.hello <- addr:
			default:
			}

		case msgTypeOffer:
			if err := r.tr.SetRemoteDescription(webrtc.SessionDescription{
				Type: webrtc.SDPTypeOffer, SDP: msg.SDP,
			}); err != nil {
				return err
			}
			if err := r.sender.sendAnswer(); err != nil {
				return err
			}

		case msgTypeAnswer:
			if err := r.tr.SetRemoteDescription(webrtc.SessionDescription{
				Type: webrtc.SDPTypeAnswer, SDP: msg.SDP,
			}); err != nil {
				return err
			}

		case msgTypeCandidate:
			var init webrtc.ICECandidateInit
			if err := json.Unmarshal([]byte(msg.Candidate), &init); err != nil {
				return fmt.Errorf("parse ICE candidate: %w", err)
			}
			if err := r.tr.AddICECandidate(init); err != nil {
				return err
			}
		}
	}
}
