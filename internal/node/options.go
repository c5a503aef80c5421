package node

import (
	"time"

	"github.com/1ureka/rlink/internal/protocol"
)

// Option configures a Node.
type Option func(*Node)

// WithPeer sets the default destination for the *ToPeer sends.
func WithPeer(peer protocol.PeerAddress) Option {
	return func(n *Node) {
		n.peer = peer
		n.hasPeer = true
	}
}

// WithMaxRetries sets the number of retransmissions after the first send.
func WithMaxRetries(r int) Option {
	return func(n *Node) { n.maxRetries = r }
}

// WithTimeout sets how long to wait for an ACK before retransmitting.
func WithTimeout(d time.Duration) Option {
	return func(n *Node) { n.timeout = d }
}

// WithSeenCapacity sets the per-peer duplicate window.
func WithSeenCapacity(c int) Option {
	return func(n *Node) { n.seenCapacity = c }
}

// WithInboxSize bounds the queue between receive callbacks and Tick.
func WithInboxSize(s int) Option {
	return func(n *Node) { n.inboxSize = s }
}

// WithClock replaces time.Now for Send and Run.
func WithClock(now func() time.Time) Option {
	return func(n *Node) { n.clock = now }
}

// WithIDStart fixes the first allocated message id.
func WithIDStart(id protocol.MessageID) Option {
	return func(n *Node) {
		n.idStart = id
		n.fixedIDs = true
	}
}

// WithTickInterval sets the period Run drives Tick at.
func WithTickInterval(d time.Duration) Option {
	return func(n *Node) { n.tickInterval = d }
}
