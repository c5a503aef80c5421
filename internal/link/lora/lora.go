package lora

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/1ureka/rlink/internal/link"
	"github.com/1ureka/rlink/internal/protocol"
	"github.com/1ureka/rlink/internal/util"
)

// Signal is the link quality reported for the last received packet.
type Signal struct {
	RSSI int     // dBm
	SNR  float64 // dB
}

// Driver is the modem. Transmit returns an error wrapping link.ErrBusy while
// a previous packet is still on the air. The DIO0 callback fires once per
// received packet, possibly from interrupt context.
type Driver interface {
	Configure(p Params) error
	Transmit(packet []byte) error
	ReadPacket() ([]byte, Signal, error)
	OnDIO0(fn func())
}

// Transport implements link.Transport over a LoRa modem. LoRa has no
// hardware addressing, so every packet carries a dst|src link header and the
// DIO0 handler filters on it before queueing the frame for Poll.
type Transport struct {
	drv      Driver
	local    protocol.PeerAddress
	params   Params
	maxFrame int

	rx        *link.RxQueue
	foreign   atomic.Uint64
	malformed atomic.Uint64
	closed    atomic.Bool

	sigMu sync.Mutex
	last  Signal
}

var _ link.Transport = (*Transport)(nil)

// New validates p, configures the modem and arms the DIO0 handler.
func New(drv Driver, local protocol.PeerAddress, p Params, queueSize int) (*Transport, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("lora params: %w", err)
	}
	if local.IsZero() || local.IsBroadcast() {
		return nil, fmt.Errorf("lora: invalid local address %s", local)
	}
	maxFrame := MaxFrame(p)
	if maxFrame <= link.HeaderSize+protocol.HeaderSize {
		return nil, fmt.Errorf("lora: max airtime %s leaves no room for a frame", p.MaxAirtime)
	}
	if err := drv.Configure(p); err != nil {
		return nil, fmt.Errorf("lora configure: %w", err)
	}

	t := &Transport{
		drv:      drv,
		local:    local,
		params:   p,
		maxFrame: maxFrame,
		rx:       link.NewRxQueue(queueSize),
	}
	drv.OnDIO0(t.onDIO0)

	util.LogInfo("lora link up as %s: %s, max frame %d bytes (%s on air)",
		local, p.Summary(), maxFrame, TimeOnAir(p, maxFrame).Round(time.Millisecond))
	return t, nil
}

// Transmit prepends the link header and hands the packet to the modem.
func (t *Transport) Transmit(frame []byte, dst protocol.PeerAddress) error {
	if t.closed.Load() {
		return link.ErrClosed
	}
	if len(frame) > t.MaxPayload() {
		return fmt.Errorf("%w: %d > %d bytes", link.ErrPayloadTooLarge, len(frame), t.MaxPayload())
	}
	pkt := link.PackHeader(dst, t.local, frame)
	if err := t.drv.Transmit(pkt); err != nil {
		return fmt.Errorf("lora transmit to %s: %w", dst, err)
	}
	util.Stats.AddTxBytes(len(pkt))
	return nil
}

// onDIO0 runs in interrupt context: read, filter, enqueue, return.
func (t *Transport) onDIO0() {
	pkt, sig, err := t.drv.ReadPacket()
	if err != nil || t.closed.Load() {
		t.malformed.Add(1)
		return
	}
	dst, src, frame, err := link.SplitHeader(pkt)
	if err != nil {
		t.malformed.Add(1)
		return
	}
	if !link.Accepts(t.local, dst) || src == t.local {
		t.foreign.Add(1)
		return
	}

	t.sigMu.Lock()
	t.last = sig
	t.sigMu.Unlock()

	util.Stats.AddRxBytes(len(pkt))
	t.rx.Push(frame, src)
}

// Poll delivers queued frames to fn.
func (t *Transport) Poll(fn link.Receiver) int {
	return t.rx.Drain(fn)
}

// SetReceiver is a no-op: frames are only delivered through Poll.
func (t *Transport) SetReceiver(link.Receiver) {}

func (t *Transport) MaxPayload() int             { return t.maxFrame - link.HeaderSize }
func (t *Transport) Local() protocol.PeerAddress { return t.local }
func (t *Transport) Params() Params              { return t.params }

// LastSignal returns RSSI and SNR of the last accepted packet.
func (t *Transport) LastSignal() Signal {
	t.sigMu.Lock()
	defer t.sigMu.Unlock()
	return t.last
}

// Foreign counts packets addressed to other nodes.
func (t *Transport) Foreign() uint64 { return t.foreign.Load() }

// Malformed counts packets that could not be read or were shorter than the link header.
func (t *Transport) Malformed() uint64 { return t.malformed.Load() }

// Dropped counts frames evicted from the receive queue.
func (t *Transport) Dropped() uint64 { return t.rx.Dropped() }

// MinTimeout is the round trip airtime of a maximal frame and its ACK. An ack
// timeout shorter than this retransmits before the ACK can possibly arrive.
func (t *Transport) MinTimeout() time.Duration { return RoundTrip(t.params) }

func (t *Transport) Close() error {
	t.closed.Store(true)
	return nil
}
