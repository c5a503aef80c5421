package util

import (
	"strings"
	"testing"
)

func TestFormatBytesWidth(t *testing.T) {
	for _, b := range []float64{0, 1, 99, 100, 1500, 1 << 20, 5 << 30} {
		if got := formatBytes(b); len(got) != 8 {
			t.Errorf("formatBytes(%v) = %q, want 8 chars", b, got)
		}
	}
}

func TestSnapshotSub(t *testing.T) {
	prev := Snapshot{FramesSent: 3, Delivered: 1}
	cur := Snapshot{FramesSent: 5, Delivered: 1, Failed: 2}
	d := cur.Sub(prev)
	if d.FramesSent != 2 || d.Delivered != 0 || d.Failed != 2 {
		t.Errorf("unexpected delta %+v", d)
	}
	if !prev.Sub(prev).IsZero() {
		t.Error("self difference should be zero")
	}
	if line := FormatStats(d, 10); !strings.Contains(line, "2 fail") {
		t.Errorf("FormatStats missing failure count: %q", line)
	}
}

func TestAddressFromName(t *testing.T) {
	a := AddressFromName("node-a")
	if a != AddressFromName("node-a") {
		t.Fatal("address not stable")
	}
	if a == AddressFromName("node-b") {
		t.Fatal("different names collided")
	}
	if a[0]&0x01 != 0 || a[0]&0x02 == 0 {
		t.Errorf("first octet %02x is not locally administered unicast", a[0])
	}
	if a.IsBroadcast() {
		t.Error("derived broadcast address")
	}
}

func TestSetLogLevel(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "warn", "error", ""} {
		if err := SetLogLevel(lvl); err != nil {
			t.Errorf("SetLogLevel(%q): %v", lvl, err)
		}
	}
	if err := SetLogLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}
