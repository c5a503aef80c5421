package protocol

import "testing"

func TestParseAddress(t *testing.T) {
	want := PeerAddress{0xaa, 0xbb, 0xcc, 0x01, 0x02, 0x03}
	testCases := []struct {
		in      string
		wantErr bool
	}{
		{"AA:BB:CC:01:02:03", false},
		{"aa-bb-cc-01-02-03", false},
		{"aabbcc010203", false},
		{" aa:bb:cc:01:02:03 ", false},
		{"aa:bb:cc:01:02", true},
		{"aa:bb:cc:01:02:zz", true},
		{"", true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseAddress(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAddress failed: %v", err)
			}
			if got != want {
				t.Errorf("got %v, want %v", got, want)
			}
		})
	}
}

func TestAddressString(t *testing.T) {
	a := PeerAddress{0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f}
	if got := a.String(); got != "0a:0b:0c:0d:0e:0f" {
		t.Errorf("got %q", got)
	}
	if !Broadcast.IsBroadcast() || a.IsBroadcast() {
		t.Error("IsBroadcast mismatch")
	}
	var back PeerAddress
	if err := back.UnmarshalText([]byte(a.String())); err != nil || back != a {
		t.Errorf("text round trip: got %v, err %v", back, err)
	}
}
