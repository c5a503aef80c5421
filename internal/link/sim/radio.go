package sim

import (
	"errors"
	"fmt"
	"sync"

	"github.com/1ureka/rlink/internal/link"
	"github.com/1ureka/rlink/internal/link/espnow"
	"github.com/1ureka/rlink/internal/link/lora"
	"github.com/1ureka/rlink/internal/protocol"
)

var (
	ErrUnknownPeer = errors.New("peer not registered")
	ErrNoPacket    = errors.New("no packet in fifo")
)

var (
	_ espnow.Driver = (*Radio)(nil)
	_ lora.Driver   = (*Radio)(nil)
)

// Transmission is one frame as it left a radio.
type Transmission struct {
	Dst  protocol.PeerAddress
	Data []byte
}

// Radio is one node's antenna on an Air.
type Radio struct {
	air  *Air
	addr protocol.PeerAddress

	mu       sync.Mutex
	onRecv   func(src protocol.PeerAddress, data []byte)
	dio0     func()
	fifo     [][]byte
	peers    map[protocol.PeerAddress]bool
	params   *lora.Params
	busy     bool
	failNext int
	sent     []Transmission
	signal   lora.Signal
}

// Address implements espnow.Driver.
func (r *Radio) Address() protocol.PeerAddress { return r.addr }

// SetBusy makes every transmission fail with link.ErrBusy until cleared.
func (r *Radio) SetBusy(busy bool) {
	r.mu.Lock()
	r.busy = busy
	r.mu.Unlock()
}

// FailNext makes the next n transmissions fail with link.ErrBusy.
func (r *Radio) FailNext(n int) {
	r.mu.Lock()
	r.failNext = n
	r.mu.Unlock()
}

// SetSignal sets the RSSI/SNR reported for received packets.
func (r *Radio) SetSignal(s lora.Signal) {
	r.mu.Lock()
	r.signal = s
	r.mu.Unlock()
}

// Sent returns a copy of every successful transmission.
func (r *Radio) Sent() []Transmission {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Transmission(nil), r.sent...)
}

// ResetSent clears the transmission log.
func (r *Radio) ResetSent() {
	r.mu.Lock()
	r.sent = nil
	r.mu.Unlock()
}

func (r *Radio) transmit(dst protocol.PeerAddress, data []byte) (*lora.Params, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.busy {
		return nil, link.ErrBusy
	}
	if r.failNext > 0 {
		r.failNext--
		return nil, link.ErrBusy
	}
	r.sent = append(r.sent, Transmission{Dst: dst, Data: append([]byte(nil), data...)})
	return r.params, nil
}

// ── espnow.Driver ────────────────────────────────────────────────────────────

func (r *Radio) Send(dst protocol.PeerAddress, data []byte) error {
	r.mu.Lock()
	known := r.peers[dst]
	r.mu.Unlock()
	if !known {
		return fmt.Errorf("%w: %s", ErrUnknownPeer, dst)
	}
	if _, err := r.transmit(dst, data); err != nil {
		return err
	}
	r.air.emit(r, dst, data, nil)
	return nil
}

func (r *Radio) OnReceive(fn func(src protocol.PeerAddress, data []byte)) {
	r.mu.Lock()
	r.onRecv = fn
	r.mu.Unlock()
}

func (r *Radio) AddPeer(addr protocol.PeerAddress) error {
	r.mu.Lock()
	r.peers[addr] = true
	r.mu.Unlock()
	return nil
}

func (r *Radio) HasPeer(addr protocol.PeerAddress) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.peers[addr]
}

// ── lora.Driver ──────────────────────────────────────────────────────────────

func (r *Radio) Configure(p lora.Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	r.params = &p
	r.mu.Unlock()
	return nil
}

// Transmit sends a raw packet to every radio tuned to the same channel.
func (r *Radio) Transmit(packet []byte) error {
	r.mu.Lock()
	configured := r.params != nil
	r.mu.Unlock()
	if !configured {
		return errors.New("modem not configured")
	}
	params, err := r.transmit(protocol.Broadcast, packet)
	if err != nil {
		return err
	}
	r.air.emit(r, protocol.Broadcast, packet, params)
	return nil
}

func (r *Radio) ReadPacket() ([]byte, lora.Signal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.fifo) == 0 {
		return nil, lora.Signal{}, ErrNoPacket
	}
	pkt := r.fifo[0]
	r.fifo = r.fifo[1:]
	return pkt, r.signal, nil
}

func (r *Radio) OnDIO0(fn func()) {
	r.mu.Lock()
	r.dio0 = fn
	r.mu.Unlock()
}

// ── receive side ─────────────────────────────────────────────────────────────

// hears reports whether r would pick up a transmission. LoRa radios must
// share the channel settings; ESP-NOW radios filter on address.
func (r *Radio) hears(dst protocol.PeerAddress, params *lora.Params) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if params != nil {
		return r.dio0 != nil && r.params != nil && sameChannel(*r.params, *params)
	}
	return r.onRecv != nil && (dst == r.addr || dst.IsBroadcast())
}

func (r *Radio) deliver(d delivery) {
	r.mu.Lock()
	if d.params != nil {
		r.fifo = append(r.fifo, d.data)
		fn := r.dio0
		r.mu.Unlock()
		if fn != nil {
			fn()
		}
		return
	}
	fn := r.onRecv
	r.mu.Unlock()
	if fn != nil {
		fn(d.src, d.data)
	}
}

func sameChannel(a, b lora.Params) bool {
	return a.Frequency == b.Frequency &&
		a.SpreadingFactor == b.SpreadingFactor &&
		a.Bandwidth == b.Bandwidth &&
		a.SyncWord == b.SyncWord &&
		a.ImplicitHeader == b.ImplicitHeader
}
