// Package dispatch routes decoded frames and delivery outcomes to the
// listeners registered for them.
package dispatch

import (
	"sync"

	"github.com/1ureka/rlink/internal/engine"
	"github.com/1ureka/rlink/internal/protocol"
	"github.com/1ureka/rlink/internal/util"
)

type (
	TextListener     func(peer protocol.PeerAddress, text string)
	CommandListener  func(peer protocol.PeerAddress, cmd int16)
	DataListener     func(peer protocol.PeerAddress, data []byte)
	DeliveryListener func(d engine.Delivery)
)

// Dispatcher holds listener lists per event. Listeners run synchronously in
// registration order; a panicking listener is logged and skipped. The caller
// guarantees that Dispatch and Deliver are never invoked concurrently.
type Dispatcher struct {
	mu       sync.RWMutex
	text     []TextListener
	command  []CommandListener
	data     []DataListener
	delivery []DeliveryListener
}

// New creates a dispatcher with no listeners.
func New() *Dispatcher {
	return &Dispatcher{}
}

func (d *Dispatcher) OnText(fn TextListener) {
	d.mu.Lock()
	d.text = append(d.text, fn)
	d.mu.Unlock()
}

func (d *Dispatcher) OnCommand(fn CommandListener) {
	d.mu.Lock()
	d.command = append(d.command, fn)
	d.mu.Unlock()
}

func (d *Dispatcher) OnData(fn DataListener) {
	d.mu.Lock()
	d.data = append(d.data, fn)
	d.mu.Unlock()
}

func (d *Dispatcher) OnDelivery(fn DeliveryListener) {
	d.mu.Lock()
	d.delivery = append(d.delivery, fn)
	d.mu.Unlock()
}

// Dispatch hands f to the listeners for its kind. It reports false for
// frames that have no listeners by definition (ACK, unknown kinds).
func (d *Dispatcher) Dispatch(peer protocol.PeerAddress, f *protocol.Frame) bool {
	d.mu.RLock()
	text, command, data := d.text, d.command, d.data
	d.mu.RUnlock()

	switch f.Kind {
	case protocol.KindText:
		for _, fn := range text {
			guard("text", func() { fn(peer, f.Text) })
		}
	case protocol.KindCommand:
		for _, fn := range command {
			guard("command", func() { fn(peer, f.Command) })
		}
	case protocol.KindData:
		for _, fn := range data {
			// each listener gets its own copy
			payload := append([]byte(nil), f.Data...)
			guard("data", func() { fn(peer, payload) })
		}
	default:
		return false
	}
	return true
}

// Deliver reports a delivery outcome to the delivery listeners.
func (d *Dispatcher) Deliver(dl engine.Delivery) {
	d.mu.RLock()
	listeners := d.delivery
	d.mu.RUnlock()

	for _, fn := range listeners {
		guard("delivery", func() { fn(dl) })
	}
}

func guard(event string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			util.LogError("%s listener panicked: %v", event, r)
		}
	}()
	fn()
}
