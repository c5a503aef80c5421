// Package link defines the contract between the reliability layer and the
// radio adapters, plus the bounded queue used to hand received frames from
// interrupt or callback context to the protocol context.
package link

import (
	"errors"

	"github.com/1ureka/rlink/internal/protocol"
)

var (
	ErrBusy            = errors.New("radio busy")
	ErrPayloadTooLarge = errors.New("frame exceeds link ceiling")
	ErrClosed          = errors.New("link closed")
)

// Receiver consumes one received frame. The slice is owned by the callee.
type Receiver func(frame []byte, src protocol.PeerAddress)

// Transport moves opaque frames between hardware addresses. Delivery is best
// effort: frames may be lost, duplicated or reordered.
type Transport interface {
	// Transmit queues frame for dst. It never blocks on the air and fails with
	// ErrBusy when the radio cannot accept a frame right now.
	Transmit(frame []byte, dst protocol.PeerAddress) error

	// MaxPayload is the largest frame Transmit accepts.
	MaxPayload() int

	// Local is this node's own address on the link.
	Local() protocol.PeerAddress

	// SetReceiver installs the callback for adapters that deliver frames as
	// soon as they arrive. It may be invoked from any goroutine.
	SetReceiver(fn Receiver)

	// Poll hands deferred frames to fn in arrival order and returns how many
	// were delivered. Adapters that only use SetReceiver return 0.
	Poll(fn Receiver) int

	Close() error
}
