// Package signaling performs the WebSocket SDP/ICE exchange that brings up a
// bridge link. Callers receive a ready Transport and the remote node address.
package signaling

// messageType identifies the kind of signaling message.
type messageType string

const (
	msgTypeHello     messageType = "hello"
	msgTypeOffer     messageType = "offer"
	msgTypeAnswer    messageType = "answer"
	msgTypeCandidate messageType = "candidate"
)

// message is the JSON structure exchanged over the WebSocket.
type message struct {
	Type      messageType `json:"type"`
	Address   string      `json:"address,omitempty"`   // hello: sender's node address
	SDP       string      `json:"sdp,omitempty"`
	Candidate string      `json:"candidate,omitempty"` // JSON-encoded ICECandidateInit
}
