package engine

import (
	"fmt"

	"github.com/1ureka/rlink/internal/protocol"
)

// State of the per-peer send machine.
type State uint8

const (
	Idle State = iota
	AwaitingAck
)

func (s State) String() string {
	if s == AwaitingAck {
		return "AWAITING_ACK"
	}
	return "IDLE"
}

// Status is the final outcome of a tracked send.
type Status uint8

const (
	Delivered Status = iota + 1
	Failed
)

func (s Status) String() string {
	switch s {
	case Delivered:
		return "delivered"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Reason qualifies a Failed status.
type Reason uint8

const (
	ReasonNone Reason = iota
	ReasonRetriesExhausted
	ReasonCancelled
)

func (r Reason) String() string {
	switch r {
	case ReasonRetriesExhausted:
		return "retries exhausted"
	case ReasonCancelled:
		return "cancelled"
	default:
		return ""
	}
}

// Delivery reports how a tracked send ended. Each send yields exactly one.
type Delivery struct {
	Peer     protocol.PeerAddress
	ID       protocol.MessageID
	Kind     protocol.Kind
	Status   Status
	Reason   Reason
	Attempts int
}

func (d Delivery) String() string {
	if d.Status == Failed {
		return fmt.Sprintf("%s %s to %s failed (%s) after %d attempts", d.Kind, d.ID, d.Peer, d.Reason, d.Attempts)
	}
	return fmt.Sprintf("%s %s to %s delivered after %d attempts", d.Kind, d.ID, d.Peer, d.Attempts)
}
