package dispatch

import (
	"testing"

	"github.com/1ureka/rlink/internal/engine"
	"github.com/1ureka/rlink/internal/protocol"
)

var peer = protocol.PeerAddress{1, 2, 3, 4, 5, 6}

func TestRegistrationOrder(t *testing.T) {
	d := New()
	var order []int
	for i := 1; i <= 3; i++ {
		d.OnText(func(p protocol.PeerAddress, text string) {
			if p != peer || text != "hi" {
				t.Errorf("listener %d got %v %q", i, p, text)
			}
			order = append(order, i)
		})
	}

	if !d.Dispatch(peer, &protocol.Frame{Kind: protocol.KindText, ID: 1, Text: "hi"}) {
		t.Fatal("TEXT not dispatched")
	}
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("order = %v", order)
	}
}

func TestRoutingByKind(t *testing.T) {
	d := New()
	var texts, cmds, datas int
	d.OnText(func(protocol.PeerAddress, string) { texts++ })
	d.OnCommand(func(_ protocol.PeerAddress, c int16) {
		if c != -5 {
			t.Errorf("command = %d", c)
		}
		cmds++
	})
	d.OnData(func(_ protocol.PeerAddress, b []byte) {
		if string(b) != "\x01\x02" {
			t.Errorf("data = % x", b)
		}
		datas++
	})

	d.Dispatch(peer, &protocol.Frame{Kind: protocol.KindCommand, Command: -5})
	d.Dispatch(peer, &protocol.Frame{Kind: protocol.KindData, Data: []byte{1, 2}})
	if d.Dispatch(peer, protocol.NewAck(9)) {
		t.Error("ACK reported as dispatched")
	}

	if texts != 0 || cmds != 1 || datas != 1 {
		t.Errorf("texts=%d cmds=%d datas=%d", texts, cmds, datas)
	}
}

func TestDataListenersGetCopies(t *testing.T) {
	d := New()
	d.OnData(func(_ protocol.PeerAddress, b []byte) { b[0] = 0xff })
	d.OnData(func(_ protocol.PeerAddress, b []byte) {
		if b[0] != 1 {
			t.Errorf("second listener saw mutation: % x", b)
		}
	})
	d.Dispatch(peer, protocol.NewData([]byte{1}))
}

func TestPanickingListenerIsolated(t *testing.T) {
	d := New()
	reached := false
	d.OnDelivery(func(engine.Delivery) { panic("boom") })
	d.OnDelivery(func(dl engine.Delivery) {
		reached = dl.Status == engine.Delivered
	})

	d.Deliver(engine.Delivery{Peer: peer, ID: 3, Status: engine.Delivered})
	if !reached {
		t.Error("listener after a panicking one did not run")
	}
}
