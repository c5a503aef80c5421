// Package espnow adapts a 2.4 GHz ESP-NOW style radio stack to link.Transport.
package espnow

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/1ureka/rlink/internal/link"
	"github.com/1ureka/rlink/internal/protocol"
	"github.com/1ureka/rlink/internal/util"
)

// MaxPayload is the ESP-NOW frame ceiling.
const MaxPayload = 250

// Driver is the host radio stack. Send returns an error wrapping link.ErrBusy
// when the stack cannot queue another frame.
type Driver interface {
	Address() protocol.PeerAddress
	Send(dst protocol.PeerAddress, data []byte) error
	OnReceive(fn func(src protocol.PeerAddress, data []byte))
	AddPeer(addr protocol.PeerAddress) error
	HasPeer(addr protocol.PeerAddress) bool
}

// Transport implements link.Transport over a Driver. Frames are delivered to
// the installed receiver from the driver's callback goroutine.
type Transport struct {
	drv    Driver
	closed atomic.Bool

	peerMu sync.Mutex // serializes HasPeer/AddPeer

	mu   sync.RWMutex
	recv link.Receiver
}

var _ link.Transport = (*Transport)(nil)

// New wraps drv and registers for its receive callback.
func New(drv Driver) *Transport {
	t := &Transport{drv: drv}
	drv.OnReceive(t.handle)
	util.LogDebug("espnow link up as %s", drv.Address())
	return t
}

// Transmit registers dst with the radio stack on first use and sends frame.
func (t *Transport) Transmit(frame []byte, dst protocol.PeerAddress) error {
	if t.closed.Load() {
		return link.ErrClosed
	}
	if len(frame) > MaxPayload {
		return fmt.Errorf("%w: %d > %d bytes", link.ErrPayloadTooLarge, len(frame), MaxPayload)
	}
	if err := t.ensurePeer(dst); err != nil {
		return err
	}
	if err := t.drv.Send(dst, frame); err != nil {
		return fmt.Errorf("espnow send to %s: %w", dst, err)
	}
	util.Stats.AddTxBytes(len(frame))
	return nil
}

func (t *Transport) ensurePeer(dst protocol.PeerAddress) error {
	t.peerMu.Lock()
	defer t.peerMu.Unlock()

	if t.drv.HasPeer(dst) {
		return nil
	}
	if err := t.drv.AddPeer(dst); err != nil {
		return fmt.Errorf("espnow add peer %s: %w", dst, err)
	}
	util.LogDebug("espnow registered peer %s", dst)
	return nil
}

func (t *Transport) handle(src protocol.PeerAddress, data []byte) {
	if t.closed.Load() {
		return
	}
	t.mu.RLock()
	fn := t.recv
	t.mu.RUnlock()
	if fn == nil {
		return
	}
	util.Stats.AddRxBytes(len(data))
	fn(append([]byte(nil), data...), src)
}

func (t *Transport) MaxPayload() int             { return MaxPayload }
func (t *Transport) Local() protocol.PeerAddress { return t.drv.Address() }

func (t *Transport) SetReceiver(fn link.Receiver) {
	t.mu.Lock()
	t.recv = fn
	t.mu.Unlock()
}

// Poll returns 0: frames are pushed through the receiver as they arrive.
func (t *Transport) Poll(link.Receiver) int { return 0 }

func (t *Transport) Close() error {
	t.closed.Store(true)
	return nil
}
