// Package bridge is a virtual radio between two hosts: a WebRTC DataChannel
// configured to be lossy, carrying the same dst|src|frame packets as LoRa.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/pion/webrtc/v4"

	"github.com/1ureka/rlink/internal/link"
	"github.com/1ureka/rlink/internal/protocol"
	"github.com/1ureka/rlink/internal/util"
)

const (
	// MaxPayload mirrors the ESP-NOW ceiling so frames sized for radio fit.
	MaxPayload = 250

	// highWaterMark makes Transmit report busy instead of queueing without bound.
	highWaterMark = 64 * 1024
)

// Transport wraps one PeerConnection + DataChannel pair. Its lifecycle is
// governed by the DataChannel state and the context given at construction.
type Transport struct {
	pc *webrtc.PeerConnection
	dc *webrtc.DataChannel

	local      protocol.PeerAddress
	openSignal chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	pcState webrtc.PeerConnectionState
	recv    link.Receiver

	foreign atomic.Uint64
}

var _ link.Transport = (*Transport)(nil)

// NewTransport creates a Transport for the node at local. The caller performs
// signaling through the exposed SDP/ICE methods and waits on Ready.
func NewTransport(ctx context.Context, local protocol.PeerAddress, stun []string) (*Transport, error) {
	pc, err := newPeerConnection(stun)
	if err != nil {
		return nil, err
	}

	dc, err := newDataChannel(pc)
	if err != nil {
		pc.Close()
		return nil, err
	}

	tCtx, tCancel := context.WithCancel(ctx)

	t := &Transport{
		pc:         pc,
		dc:         dc,
		local:      local,
		openSignal: make(chan struct{}),
		ctx:        tCtx,
		cancel:     tCancel,
		pcState:    webrtc.PeerConnectionStateNew,
	}

	var openOnce sync.Once
	dc.OnOpen(func() {
		openOnce.Do(func() { close(t.openSignal) })
	})

	dc.OnClose(func() {
		util.LogDebug("bridge DataChannel closed")
		tCancel()
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		util.LogDebug("bridge PeerConnection state: %s", state.String())
		t.mu.Lock()
		t.pcState = state
		t.mu.Unlock()
	})

	dc.OnMessage(t.handle)

	return t, nil
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

// Ready is closed once the DataChannel is open.
func (t *Transport) Ready() <-chan struct{} {
	return t.openSignal
}

// Done is closed when the DataChannel closes or the parent context ends.
func (t *Transport) Done() <-chan struct{} {
	return t.ctx.Done()
}

// Close shuts down the DataChannel and PeerConnection.
func (t *Transport) Close() error {
	t.cancel()
	return errors.Join(t.dc.Close(), t.pc.Close())
}

// ConnectionState returns the last observed PeerConnection state.
func (t *Transport) ConnectionState() webrtc.PeerConnectionState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.pcState
}

// ---------------------------------------------------------------------------
// Signaling
// ---------------------------------------------------------------------------

func (t *Transport) CreateOffer() (webrtc.SessionDescription, error) {
	return t.pc.CreateOffer(nil)
}

func (t *Transport) CreateAnswer() (webrtc.SessionDescription, error) {
	return t.pc.CreateAnswer(nil)
}

func (t *Transport) SetLocalDescription(sdp webrtc.SessionDescription) error {
	return t.pc.SetLocalDescription(sdp)
}

func (t *Transport) SetRemoteDescription(sdp webrtc.SessionDescription) error {
	return t.pc.SetRemoteDescription(sdp)
}

// OnICECandidate registers a callback for gathered local candidates. A nil
// candidate signals the end of gathering.
func (t *Transport) OnICECandidate(fn func(*webrtc.ICECandidate)) {
	t.pc.OnICECandidate(fn)
}

func (t *Transport) AddICECandidate(candidate webrtc.ICECandidateInit) error {
	return t.pc.AddICECandidate(candidate)
}

// ---------------------------------------------------------------------------
// link.Transport
// ---------------------------------------------------------------------------

// Transmit sends one packet. Before the channel opens, or while the SCTP send
// buffer is above the high water mark, it reports link.ErrBusy like a radio
// with a transmission in flight.
func (t *Transport) Transmit(frame []byte, dst protocol.PeerAddress) error {
	select {
	case <-t.ctx.Done():
		return link.ErrClosed
	default:
	}
	if len(frame) > MaxPayload {
		return fmt.Errorf("%w: %d > %d bytes", link.ErrPayloadTooLarge, len(frame), MaxPayload)
	}
	select {
	case <-t.openSignal:
	default:
		return fmt.Errorf("%w: channel not open", link.ErrBusy)
	}
	if t.dc.BufferedAmount() > highWaterMark {
		return fmt.Errorf("%w: %d bytes buffered", link.ErrBusy, t.dc.BufferedAmount())
	}

	pkt := link.PackHeader(dst, t.local, frame)
	if err := t.dc.Send(pkt); err != nil {
		return fmt.Errorf("bridge send to %s: %w", dst, err)
	}
	util.Stats.AddTxBytes(len(pkt))
	return nil
}

func (t *Transport) handle(msg webrtc.DataChannelMessage) {
	dst, src, frame, err := link.SplitHeader(msg.Data)
	if err != nil {
		util.LogDebug("bridge dropped packet: %v", err)
		return
	}
	if !link.Accepts(t.local, dst) {
		t.foreign.Add(1)
		return
	}

	t.mu.RLock()
	fn := t.recv
	t.mu.RUnlock()
	if fn == nil {
		return
	}
	util.Stats.AddRxBytes(len(msg.Data))
	fn(append([]byte(nil), frame...), src)
}

func (t *Transport) SetReceiver(fn link.Receiver) {
	t.mu.Lock()
	t.recv = fn
	t.mu.Unlock()
}

// Poll returns 0: DataChannel messages are pushed through the receiver.
func (t *Transport) Poll(link.Receiver) int { return 0 }

func (t *Transport) MaxPayload() int             { return MaxPayload }
func (t *Transport) Local() protocol.PeerAddress { return t.local }

// Foreign counts packets addressed to another node.
func (t *Transport) Foreign() uint64 { return t.foreign.Load() }
