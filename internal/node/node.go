// Package node composes a link, the duplicate tracker, the reliability
// engine and the dispatcher into one messaging endpoint.
package node

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/1ureka/rlink/internal/dispatch"
	"github.com/1ureka/rlink/internal/engine"
	"github.com/1ureka/rlink/internal/link"
	"github.com/1ureka/rlink/internal/protocol"
	"github.com/1ureka/rlink/internal/sequence"
	"github.com/1ureka/rlink/internal/util"
)

// ErrBroadcastPeer is returned when a tracked send targets the broadcast address.
var ErrBroadcastPeer = errors.New("broadcast address cannot be acknowledged; use Broadcast")

// DefaultTickInterval is how often Run calls Tick.
const DefaultTickInterval = 20 * time.Millisecond

// Node is one endpoint of the protocol. All protocol state is guarded by a
// single mutex; listeners run after it is released, so they may call the
// Send methods, but must not call Tick.
type Node struct {
	tr    link.Transport
	clock func() time.Time

	peer         protocol.PeerAddress
	hasPeer      bool
	maxRetries   int
	timeout      time.Duration
	seenCapacity int
	inboxSize    int
	idStart      protocol.MessageID
	fixedIDs     bool
	tickInterval time.Duration

	mu         sync.Mutex
	eng        *engine.Engine
	seen       *sequence.Tracker
	inbox      *link.RxQueue
	events     []func()
	lastSender protocol.PeerAddress
	heard      bool

	dispatchMu sync.Mutex
	disp       *dispatch.Dispatcher
}

// New builds a node on tr and installs its receive path.
func New(tr link.Transport, opts ...Option) *Node {
	n := &Node{
		tr:           tr,
		clock:        time.Now,
		maxRetries:   engine.DefaultMaxRetries,
		timeout:      engine.DefaultTimeout,
		seenCapacity: sequence.DefaultWindow,
		inboxSize:    link.DefaultQueueSize,
		tickInterval: DefaultTickInterval,
		disp:         dispatch.New(),
	}
	for _, opt := range opts {
		opt(n)
	}

	start := n.idStart
	if !n.fixedIDs {
		start = sequence.RandomStart()
	}
	n.eng = engine.New(tr, sequence.NewIDGenerator(start), engine.Config{
		MaxRetries: n.maxRetries,
		Timeout:    n.timeout,
	})
	n.seen = sequence.NewTracker(n.seenCapacity)
	n.inbox = link.NewRxQueue(n.inboxSize)

	if mt, ok := tr.(interface{ MinTimeout() time.Duration }); ok && n.timeout < mt.MinTimeout() {
		util.LogWarning("ack timeout %s is shorter than the link round trip %s; expect spurious retransmissions",
			n.timeout, mt.MinTimeout().Round(time.Millisecond))
	}

	tr.SetReceiver(n.inbox.Receiver())
	return n
}

// ---------------------------------------------------------------------------
// Outbound
// ---------------------------------------------------------------------------

func (n *Node) SendText(peer protocol.PeerAddress, text string) (protocol.MessageID, error) {
	return n.send(peer, protocol.NewText(text))
}

func (n *Node) SendCommand(peer protocol.PeerAddress, cmd int16) (protocol.MessageID, error) {
	return n.send(peer, protocol.NewCommand(cmd))
}

func (n *Node) SendData(peer protocol.PeerAddress, data []byte) (protocol.MessageID, error) {
	return n.send(peer, protocol.NewData(data))
}

// SendTextToPeer sends to the configured peer.
func (n *Node) SendTextToPeer(text string) (protocol.MessageID, error) {
	return n.sendToPeer(protocol.NewText(text))
}

func (n *Node) SendCommandToPeer(cmd int16) (protocol.MessageID, error) {
	return n.sendToPeer(protocol.NewCommand(cmd))
}

func (n *Node) SendDataToPeer(data []byte) (protocol.MessageID, error) {
	return n.sendToPeer(protocol.NewData(data))
}

func (n *Node) sendToPeer(f *protocol.Frame) (protocol.MessageID, error) {
	if !n.hasPeer {
		return protocol.NoID, engine.ErrNoPeer
	}
	return n.send(n.peer, f)
}

func (n *Node) send(peer protocol.PeerAddress, f *protocol.Frame) (protocol.MessageID, error) {
	if peer.IsBroadcast() {
		return protocol.NoID, ErrBroadcastPeer
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.eng.Send(n.clock(), peer, f)
}

// Broadcast transmits f once to every listening node. No ACK is awaited;
// the ACKs receivers send back are ignored as stale.
func (n *Node) Broadcast(f *protocol.Frame) (protocol.MessageID, error) {
	if f.Kind == protocol.KindAck {
		return protocol.NoID, fmt.Errorf("%w: cannot broadcast an ACK", protocol.ErrEncoding)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.eng.SendUntracked(protocol.Broadcast, f)
}

// Cancel abandons the in-flight send to peer. Delivery listeners observe a
// single cancelled failure on the next Tick; a late ACK is ignored.
func (n *Node) Cancel(peer protocol.PeerAddress) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	d, ok := n.eng.Cancel(peer)
	if ok {
		n.queueDelivery(d)
	}
	return ok
}

// ClearPending cancels every in-flight send and returns how many there were.
func (n *Node) ClearPending() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := n.eng.CancelAll()
	for _, d := range out {
		n.queueDelivery(d)
	}
	return len(out)
}

// PendingCount returns the number of sends awaiting an ACK.
func (n *Node) PendingCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.eng.Pending()
}

// State reports the send state for peer.
func (n *Node) State(peer protocol.PeerAddress) engine.State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.eng.State(peer)
}

// ---------------------------------------------------------------------------
// Inbound
// ---------------------------------------------------------------------------

func (n *Node) OnText(fn dispatch.TextListener)         { n.disp.OnText(fn) }
func (n *Node) OnCommand(fn dispatch.CommandListener)   { n.disp.OnCommand(fn) }
func (n *Node) OnData(fn dispatch.DataListener)         { n.disp.OnData(fn) }
func (n *Node) OnDelivery(fn dispatch.DeliveryListener) { n.disp.OnDelivery(fn) }

// Peer returns the configured peer, if any.
func (n *Node) Peer() (protocol.PeerAddress, bool) { return n.peer, n.hasPeer }

// Local returns this node's link address.
func (n *Node) Local() protocol.PeerAddress { return n.tr.Local() }

// LastSender returns the most recent peer a valid frame came from.
func (n *Node) LastSender() (protocol.PeerAddress, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.lastSender, n.heard
}

// InboxDropped counts frames lost to a full inbox between ticks.
func (n *Node) InboxDropped() uint64 { return n.inbox.Dropped() }

// Tick processes received frames, runs ack timeouts, and then notifies
// listeners in the order the events occurred.
func (n *Node) Tick(now time.Time) {
	n.mu.Lock()
	n.tr.Poll(n.handle)
	n.inbox.Drain(n.handle)
	for _, d := range n.eng.Tick(now) {
		n.queueDelivery(d)
	}
	events := n.takeEvents()
	n.mu.Unlock()

	n.dispatch(events)
}

// Run calls Tick every tick interval until ctx is done.
func (n *Node) Run(ctx context.Context) error {
	ticker := time.NewTicker(n.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n.Tick(n.clock())
		case <-ctx.Done():
			return nil
		}
	}
}

// handle runs with n.mu held.
func (n *Node) handle(data []byte, src protocol.PeerAddress) {
	f, err := protocol.Decode(data)
	if err != nil {
		util.Stats.AddDecodeError()
		util.LogDebug("[%s] dropped malformed frame: %v", src, err)
		return
	}
	util.Stats.AddRecv()
	n.lastSender, n.heard = src, true

	if f.Kind == protocol.KindAck {
		if d, ok := n.eng.OnAck(src, f.ID); ok {
			n.queueDelivery(d)
		} else {
			util.LogDebug("[%s] ignored stale ack %s", src, f.ID)
		}
		return
	}

	// always acknowledge, the sender may have missed our previous ACK
	if _, err := n.eng.Send(n.clock(), src, protocol.NewAck(f.ID)); err != nil {
		util.LogDebug("[%s] ack for %s not sent: %v", src, f.ID, err)
	}

	if !n.seen.Remember(src, f.ID) {
		util.Stats.AddDuplicate()
		util.LogDebug("[%s] duplicate %s suppressed", src, f)
		return
	}
	n.events = append(n.events, func() { n.disp.Dispatch(src, f) })
}

func (n *Node) queueDelivery(d engine.Delivery) {
	n.events = append(n.events, func() { n.disp.Deliver(d) })
}

func (n *Node) takeEvents() []func() {
	events := n.events
	n.events = nil
	return events
}

func (n *Node) dispatch(events []func()) {
	if len(events) == 0 {
		return
	}
	n.dispatchMu.Lock()
	defer n.dispatchMu.Unlock()
	for _, ev := range events {
		ev()
	}
}
