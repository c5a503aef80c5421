// Package engine implements stop-and-wait delivery: one outstanding frame per
// peer, retransmitted on timeout until acknowledged or out of retries.
package engine

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/1ureka/rlink/internal/protocol"
	"github.com/1ureka/rlink/internal/sequence"
	"github.com/1ureka/rlink/internal/util"
)

var (
	ErrBusy   = errors.New("delivery to peer already in progress")
	ErrNoPeer = errors.New("no peer configured")
)

const (
	DefaultMaxRetries = 5
	DefaultTimeout    = 200 * time.Millisecond
)

// Sender is the part of a link the engine transmits through.
type Sender interface {
	Transmit(frame []byte, dst protocol.PeerAddress) error
	MaxPayload() int
}

// Config bounds the retry loop.
type Config struct {
	MaxRetries int           // retransmissions after the first send
	Timeout    time.Duration // wait for an ACK before retransmitting
}

type pendingSend struct {
	peer     protocol.PeerAddress
	kind     protocol.Kind
	id       protocol.MessageID
	wire     []byte
	attempts int
	deadline time.Time
}

// Engine tracks PendingSends. It is not safe for concurrent use; the owning
// node serializes every call.
type Engine struct {
	tx      Sender
	ids     *sequence.IDGenerator
	cfg     Config
	pending map[protocol.PeerAddress]*pendingSend
}

// New creates an engine. MaxRetries of 0 sends each frame once; a
// non-positive Timeout takes DefaultTimeout.
func New(tx Sender, ids *sequence.IDGenerator, cfg Config) *Engine {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Engine{
		tx:      tx,
		ids:     ids,
		cfg:     cfg,
		pending: make(map[protocol.PeerAddress]*pendingSend),
	}
}

// Config returns the effective retry settings.
func (e *Engine) Config() Config { return e.cfg }

// Send numbers f, transmits it to peer and tracks it until acknowledged.
// f.ID is overwritten. A busy peer or a failed first transmission leaves no
// state behind.
func (e *Engine) Send(now time.Time, peer protocol.PeerAddress, f *protocol.Frame) (protocol.MessageID, error) {
	if f.Kind == protocol.KindAck {
		return f.ID, e.transmitUntracked(peer, f)
	}
	if _, busy := e.pending[peer]; busy {
		return protocol.NoID, fmt.Errorf("%w: %s", ErrBusy, peer)
	}

	f.ID = e.ids.Next()
	wire, err := protocol.EncodeLimit(f, e.tx.MaxPayload())
	if err != nil {
		return protocol.NoID, err
	}
	if err := e.tx.Transmit(wire, peer); err != nil {
		return protocol.NoID, err
	}
	util.Stats.AddSent()

	e.pending[peer] = &pendingSend{
		peer:     peer,
		kind:     f.Kind,
		id:       f.ID,
		wire:     wire,
		attempts: 1,
		deadline: now.Add(e.cfg.Timeout),
	}
	util.LogDebug("[%s] sent %s, awaiting ack", peer, f)
	return f.ID, nil
}

// SendUntracked transmits f once with no retry. Frames without an id get a
// fresh one; ACKs keep the id they acknowledge.
func (e *Engine) SendUntracked(peer protocol.PeerAddress, f *protocol.Frame) (protocol.MessageID, error) {
	if f.Kind != protocol.KindAck {
		f.ID = e.ids.Next()
	}
	return f.ID, e.transmitUntracked(peer, f)
}

func (e *Engine) transmitUntracked(peer protocol.PeerAddress, f *protocol.Frame) error {
	wire, err := protocol.EncodeLimit(f, e.tx.MaxPayload())
	if err != nil {
		return err
	}
	if err := e.tx.Transmit(wire, peer); err != nil {
		return err
	}
	util.Stats.AddSent()
	return nil
}

// Tick retransmits or fails every PendingSend whose deadline has passed and
// returns the failures in peer address order.
func (e *Engine) Tick(now time.Time) []Delivery {
	var due []*pendingSend
	for _, p := range e.pending {
		if !now.Before(p.deadline) {
			due = append(due, p)
		}
	}
	slices.SortFunc(due, func(a, b *pendingSend) int { return bytes.Compare(a.peer[:], b.peer[:]) })

	var out []Delivery
	for _, p := range due {
		if p.attempts > e.cfg.MaxRetries {
			delete(e.pending, p.peer)
			util.Stats.AddFailed()
			util.LogWarning("[%s] %s %s not acknowledged after %d attempts", p.peer, p.kind, p.id, p.attempts)
			out = append(out, p.outcome(Failed, ReasonRetriesExhausted))
			continue
		}

		p.attempts++
		p.deadline = now.Add(e.cfg.Timeout)
		util.Stats.AddRetransmit()
		if err := e.tx.Transmit(p.wire, p.peer); err != nil {
			util.LogDebug("[%s] retransmit %d of %s failed: %v", p.peer, p.attempts, p.id, err)
			continue
		}
		util.LogDebug("[%s] retransmit %d of %s %s", p.peer, p.attempts, p.kind, p.id)
	}
	return out
}

// OnAck resolves the PendingSend for peer if id matches it.
func (e *Engine) OnAck(peer protocol.PeerAddress, id protocol.MessageID) (Delivery, bool) {
	p, ok := e.pending[peer]
	if !ok || p.id != id {
		return Delivery{}, false
	}
	delete(e.pending, peer)
	util.Stats.AddDelivered()
	util.LogDebug("[%s] %s %s acknowledged after %d attempts", peer, p.kind, id, p.attempts)
	return p.outcome(Delivered, ReasonNone), true
}

// Cancel abandons the PendingSend for peer. A late ACK is then stale.
func (e *Engine) Cancel(peer protocol.PeerAddress) (Delivery, bool) {
	p, ok := e.pending[peer]
	if !ok {
		return Delivery{}, false
	}
	delete(e.pending, peer)
	util.Stats.AddFailed()
	return p.outcome(Failed, ReasonCancelled), true
}

// CancelAll abandons every PendingSend, in peer address order.
func (e *Engine) CancelAll() []Delivery {
	peers := make([]protocol.PeerAddress, 0, len(e.pending))
	for peer := range e.pending {
		peers = append(peers, peer)
	}
	slices.SortFunc(peers, func(a, b protocol.PeerAddress) int { return bytes.Compare(a[:], b[:]) })

	out := make([]Delivery, 0, len(peers))
	for _, peer := range peers {
		d, _ := e.Cancel(peer)
		out = append(out, d)
	}
	return out
}

// Pending returns the number of frames awaiting an ACK.
func (e *Engine) Pending() int { return len(e.pending) }

// State reports whether peer is idle or awaiting an ACK.
func (e *Engine) State(peer protocol.PeerAddress) State {
	if _, ok := e.pending[peer]; ok {
		return AwaitingAck
	}
	return Idle
}

// NextDeadline returns the earliest retransmission time, if any send is pending.
func (e *Engine) NextDeadline() (time.Time, bool) {
	var (
		next  time.Time
		found bool
	)
	for _, p := range e.pending {
		if !found || p.deadline.Before(next) {
			next, found = p.deadline, true
		}
	}
	return next, found
}

func (p *pendingSend) outcome(s Status, r Reason) Delivery {
	return Delivery{Peer: p.peer, ID: p.id, Kind: p.kind, Status: s, Reason: r, Attempts: p.attempts}
}
