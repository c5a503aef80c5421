package protocol

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// AddressLen is the length of a hardware address.
const AddressLen = 6

// PeerAddress is a 6-byte hardware address. It is comparable and used as a map key.
type PeerAddress [AddressLen]byte

// Broadcast reaches every listening radio.
var Broadcast = PeerAddress{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// ParseAddress accepts "aa:bb:cc:dd:ee:ff", "aa-bb-cc-dd-ee-ff" or "aabbccddeeff".
func ParseAddress(s string) (PeerAddress, error) {
	var a PeerAddress
	raw := strings.NewReplacer(":", "", "-", "").Replace(strings.TrimSpace(s))
	if len(raw) != 2*AddressLen {
		return a, fmt.Errorf("invalid address %q: want 6 hex octets", s)
	}
	if _, err := hex.Decode(a[:], []byte(raw)); err != nil {
		return a, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return a, nil
}

// AddressFrom copies the first six bytes of b.
func AddressFrom(b []byte) PeerAddress {
	var a PeerAddress
	copy(a[:], b)
	return a
}

func (a PeerAddress) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", a[0], a[1], a[2], a[3], a[4], a[5])
}

// IsBroadcast reports whether a is FF:FF:FF:FF:FF:FF.
func (a PeerAddress) IsBroadcast() bool { return a == Broadcast }

// IsZero reports whether a is all zero bytes.
func (a PeerAddress) IsZero() bool { return a == PeerAddress{} }

// MarshalText implements encoding.TextMarshaler.
func (a PeerAddress) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *PeerAddress) UnmarshalText(text []byte) error {
	p, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = p
	return nil
}
