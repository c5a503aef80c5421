// Package sim is an in-memory radio medium. A Radio satisfies both the
// espnow and lora driver interfaces, so the real adapters run unmodified
// against it in tests and in the sim command.
package sim

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/1ureka/rlink/internal/link/lora"
	"github.com/1ureka/rlink/internal/protocol"
)

// Config controls the channel impairments.
type Config struct {
	Loss  float64       // probability a delivery is dropped
	Dup   float64       // probability a delivery is repeated
	Delay time.Duration // upper bound of a random per-delivery delay; 0 delivers synchronously
	Seed  uint64
}

// Air connects every attached radio. Deliveries happen on the transmitting
// goroutine unless Delay is set or the air is held.
type Air struct {
	mu     sync.Mutex
	cfg    Config
	rng    *rand.Rand
	radios []*Radio
	hold   bool
	held   []delivery
}

type delivery struct {
	to     *Radio
	src    protocol.PeerAddress
	dst    protocol.PeerAddress
	data   []byte
	params *lora.Params
}

// NewAir creates a medium with the given impairments.
func NewAir(cfg Config) *Air {
	return &Air{
		cfg: cfg,
		rng: rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
	}
}

// Attach adds a radio with the given address.
func (a *Air) Attach(addr protocol.PeerAddress) *Radio {
	r := &Radio{air: a, addr: addr, peers: make(map[protocol.PeerAddress]bool)}
	a.mu.Lock()
	a.radios = append(a.radios, r)
	a.mu.Unlock()
	return r
}

// SetLoss changes the drop probability.
func (a *Air) SetLoss(p float64) {
	a.mu.Lock()
	a.cfg.Loss = p
	a.mu.Unlock()
}

// SetDup changes the duplication probability.
func (a *Air) SetDup(p float64) {
	a.mu.Lock()
	a.cfg.Dup = p
	a.mu.Unlock()
}

// Hold queues deliveries instead of performing them until Flush or Discard.
func (a *Air) Hold(on bool) {
	a.mu.Lock()
	a.hold = on
	a.mu.Unlock()
}

// Held returns the number of queued deliveries.
func (a *Air) Held() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.held)
}

// Flush performs every held delivery in transmission order.
func (a *Air) Flush() int {
	a.mu.Lock()
	held := a.held
	a.held = nil
	a.mu.Unlock()

	for _, d := range held {
		d.to.deliver(d)
	}
	return len(held)
}

// Discard drops every held delivery, as if lost in the air.
func (a *Air) Discard() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := len(a.held)
	a.held = nil
	return n
}

func (a *Air) emit(from *Radio, dst protocol.PeerAddress, data []byte, params *lora.Params) {
	var now []delivery

	a.mu.Lock()
	for _, r := range a.radios {
		if r == from || !r.hears(dst, params) {
			continue
		}
		if a.cfg.Loss > 0 && a.rng.Float64() < a.cfg.Loss {
			continue
		}
		copies := 1
		if a.cfg.Dup > 0 && a.rng.Float64() < a.cfg.Dup {
			copies = 2
		}
		for i := 0; i < copies; i++ {
			d := delivery{to: r, src: from.addr, dst: dst, data: append([]byte(nil), data...), params: params}
			switch {
			case a.hold:
				a.held = append(a.held, d)
			case a.cfg.Delay > 0:
				delay := time.Duration(a.rng.Int64N(int64(a.cfg.Delay)))
				time.AfterFunc(delay, func() { d.to.deliver(d) })
			default:
				now = append(now, d)
			}
		}
	}
	a.mu.Unlock()

	for _, d := range now {
		d.to.deliver(d)
	}
}
