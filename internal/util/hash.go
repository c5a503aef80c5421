// Package util provides logging, statistics and small shared helpers.
package util

import (
	"hash/fnv"

	"github.com/1ureka/rlink/internal/protocol"
)

// AddressFromName derives a stable, locally administered unicast address from
// a name (typically the hostname). Used by links that have no burned-in MAC.
func AddressFromName(name string) protocol.PeerAddress {
	h := fnv.New64a()
	h.Write([]byte(name))
	sum := h.Sum64()

	var a protocol.PeerAddress
	for i := range a {
		a[i] = byte(sum >> (8 * i))
	}
	a[0] = a[0]&^0x01 | 0x02
	return a
}
