package sim

import (
	"testing"

	"github.com/1ureka/rlink/internal/protocol"
)

var (
	addrA = protocol.PeerAddress{1, 0, 0, 0, 0, 1}
	addrB = protocol.PeerAddress{1, 0, 0, 0, 0, 2}
)

func counting(r *Radio) *int {
	n := new(int)
	r.OnReceive(func(protocol.PeerAddress, []byte) { *n++ })
	return n
}

func TestLossAndDup(t *testing.T) {
	testCases := []struct {
		name      string
		cfg       Config
		sends     int
		wantEqual int
	}{
		{"clean", Config{}, 10, 10},
		{"total loss", Config{Loss: 1}, 10, 0},
		{"always duplicate", Config{Dup: 1}, 10, 20},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			air := NewAir(tc.cfg)
			a := air.Attach(addrA)
			b := air.Attach(addrB)
			got := counting(b)
			a.AddPeer(addrB)

			for i := 0; i < tc.sends; i++ {
				if err := a.Send(addrB, []byte{byte(i)}); err != nil {
					t.Fatalf("Send failed: %v", err)
				}
			}
			if *got != tc.wantEqual {
				t.Errorf("received %d, want %d", *got, tc.wantEqual)
			}
			if len(a.Sent()) != tc.sends {
				t.Errorf("Sent() recorded %d, want %d", len(a.Sent()), tc.sends)
			}
		})
	}
}

func TestPartialLossSeeded(t *testing.T) {
	run := func() int {
		air := NewAir(Config{Loss: 0.5, Seed: 7})
		a := air.Attach(addrA)
		got := counting(air.Attach(addrB))
		a.AddPeer(addrB)
		for i := 0; i < 200; i++ {
			a.Send(addrB, []byte{1})
		}
		return *got
	}
	first := run()
	if first == 0 || first == 200 {
		t.Fatalf("loss 0.5 delivered %d of 200", first)
	}
	if again := run(); again != first {
		t.Errorf("same seed delivered %d then %d", first, again)
	}
}

func TestHoldFlushDiscard(t *testing.T) {
	air := NewAir(Config{})
	a := air.Attach(addrA)
	got := counting(air.Attach(addrB))
	a.AddPeer(addrB)

	air.Hold(true)
	a.Send(addrB, []byte{1})
	a.Send(addrB, []byte{2})
	if *got != 0 || air.Held() != 2 {
		t.Fatalf("held air delivered %d, holds %d", *got, air.Held())
	}
	if n := air.Discard(); n != 2 || *got != 0 {
		t.Fatalf("Discard() = %d, delivered %d", n, *got)
	}
	a.Send(addrB, []byte{3})
	if n := air.Flush(); n != 1 || *got != 1 {
		t.Fatalf("Flush() = %d, delivered %d", n, *got)
	}
}

func TestSendRequiresPeer(t *testing.T) {
	air := NewAir(Config{})
	a := air.Attach(addrA)
	air.Attach(addrB)
	if err := a.Send(addrB, []byte{1}); err == nil {
		t.Fatal("send to unregistered peer succeeded")
	}
}

func TestFailNext(t *testing.T) {
	air := NewAir(Config{})
	a := air.Attach(addrA)
	a.AddPeer(addrB)
	a.FailNext(2)

	for i, wantErr := range []bool{true, true, false} {
		err := a.Send(addrB, []byte{1})
		if (err != nil) != wantErr {
			t.Errorf("send %d: err = %v, want error %v", i, err, wantErr)
		}
	}
}
