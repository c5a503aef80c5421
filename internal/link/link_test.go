package link

import (
	"bytes"
	"testing"

	"github.com/1ureka/rlink/internal/protocol"
)

var (
	addrA = protocol.PeerAddress{0xa, 0xa, 0xa, 0xa, 0xa, 0xa}
	addrB = protocol.PeerAddress{0xb, 0xb, 0xb, 0xb, 0xb, 0xb}
)

func TestRxQueueOrder(t *testing.T) {
	q := NewRxQueue(4)
	for i := byte(1); i <= 3; i++ {
		if !q.Push([]byte{i}, addrA) {
			t.Fatalf("push %d reported a drop", i)
		}
	}

	var got []byte
	n := q.Drain(func(frame []byte, src protocol.PeerAddress) {
		if src != addrA {
			t.Errorf("src = %v, want %v", src, addrA)
		}
		got = append(got, frame[0])
	})
	if n != 3 || !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Fatalf("drained %d frames %v, want 3 frames [1 2 3]", n, got)
	}
	if q.Len() != 0 {
		t.Errorf("Len() = %d after drain", q.Len())
	}
}

// TestRxQueueDropOldest verifies the overflow policy: the newest frames
// survive and every eviction is counted.
func TestRxQueueDropOldest(t *testing.T) {
	q := NewRxQueue(3)
	for i := byte(1); i <= 5; i++ {
		q.Push([]byte{i}, addrB)
	}

	if q.Dropped() != 2 {
		t.Fatalf("Dropped() = %d, want 2", q.Dropped())
	}
	var got []byte
	q.Drain(func(frame []byte, _ protocol.PeerAddress) { got = append(got, frame[0]) })
	if !bytes.Equal(got, []byte{3, 4, 5}) {
		t.Errorf("survivors = %v, want [3 4 5]", got)
	}
}

func TestRxQueueCopiesInput(t *testing.T) {
	q := NewRxQueue(2)
	buf := []byte{1, 2}
	q.Push(buf, addrA)
	buf[0] = 9

	q.Drain(func(frame []byte, _ protocol.PeerAddress) {
		if frame[0] != 1 {
			t.Errorf("queued frame aliases caller buffer: % x", frame)
		}
	})
}

func TestRxQueueDrainBounded(t *testing.T) {
	q := NewRxQueue(4)
	q.Push([]byte{1}, addrA)

	calls := 0
	q.Drain(func(frame []byte, src protocol.PeerAddress) {
		calls++
		q.Push([]byte{2}, src) // arrives during delivery
	})
	if calls != 1 {
		t.Fatalf("Drain delivered %d frames, want 1", calls)
	}
	if q.Len() != 1 {
		t.Errorf("frame pushed during drain lost, Len() = %d", q.Len())
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	pkt := PackHeader(protocol.Broadcast, addrA, []byte("frame"))
	dst, src, frame, err := SplitHeader(pkt)
	if err != nil {
		t.Fatalf("SplitHeader failed: %v", err)
	}
	if dst != protocol.Broadcast || src != addrA || string(frame) != "frame" {
		t.Errorf("got dst=%v src=%v frame=%q", dst, src, frame)
	}
	if _, _, _, err := SplitHeader(pkt[:HeaderSize-1]); err == nil {
		t.Error("short packet accepted")
	}

	if !Accepts(addrA, addrA) || !Accepts(addrA, protocol.Broadcast) || Accepts(addrA, addrB) {
		t.Error("Accepts mismatch")
	}
}
