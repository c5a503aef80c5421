// Package sequence allocates outgoing message ids and remembers the ids
// recently received from each peer.
package sequence

import (
	"crypto/rand"
	"encoding/binary"
	"sync/atomic"

	"github.com/1ureka/rlink/internal/protocol"
)

// IDGenerator is a per-node atomic id allocator. Ids run 1..MaxID and wrap,
// never yielding protocol.NoID.
type IDGenerator struct {
	val atomic.Uint32
}

// NewIDGenerator creates a generator whose first Next() returns start.
// A start of NoID or above MaxID begins at 1.
func NewIDGenerator(start protocol.MessageID) *IDGenerator {
	g := &IDGenerator{}
	g.val.Store(uint32(normalize(start)))
	return g
}

// RandomStart picks a random first id so a restarted node does not reuse the
// ids its peers still hold in their duplicate windows.
func RandomStart() protocol.MessageID {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 1
	}
	return normalize(protocol.MessageID(binary.BigEndian.Uint32(b[:]) & uint32(protocol.MaxID)))
}

// Next returns the current id and advances the counter.
func (g *IDGenerator) Next() protocol.MessageID {
	for {
		cur := g.val.Load()
		id := normalize(protocol.MessageID(cur))
		next := id + 1
		if next > protocol.MaxID {
			next = 1
		}
		if g.val.CompareAndSwap(cur, uint32(next)) {
			return id
		}
	}
}

// Peek returns the id the next call to Next will yield.
func (g *IDGenerator) Peek() protocol.MessageID {
	return normalize(protocol.MessageID(g.val.Load()))
}

func normalize(id protocol.MessageID) protocol.MessageID {
	if id == protocol.NoID || id > protocol.MaxID {
		return 1
	}
	return id
}
