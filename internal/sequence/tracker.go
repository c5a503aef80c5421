package sequence

import "github.com/1ureka/rlink/internal/protocol"

const (
	// DefaultWindow is the number of recent ids remembered per peer.
	DefaultWindow = 32

	// DefaultMaxPeers bounds how many senders are tracked at once.
	DefaultMaxPeers = 64
)

// SeenSet is a bounded FIFO of recently received ids from one peer.
type SeenSet struct {
	ring  []protocol.MessageID
	head  int // index of the oldest entry
	count int
	index map[protocol.MessageID]struct{}

	lastUsed uint64
}

// NewSeenSet creates an empty set holding at most capacity ids.
func NewSeenSet(capacity int) *SeenSet {
	if capacity < 1 {
		capacity = 1
	}
	return &SeenSet{
		ring:  make([]protocol.MessageID, capacity),
		index: make(map[protocol.MessageID]struct{}, capacity),
	}
}

// Contains reports whether id is in the window.
func (s *SeenSet) Contains(id protocol.MessageID) bool {
	_, ok := s.index[id]
	return ok
}

// Add inserts id, evicting the oldest entry when full. Adding an id that is
// already present is a no-op.
func (s *SeenSet) Add(id protocol.MessageID) {
	if s.Contains(id) {
		return
	}
	if s.count == len(s.ring) {
		delete(s.index, s.ring[s.head])
		s.ring[s.head] = id
		s.head = (s.head + 1) % len(s.ring)
	} else {
		s.ring[(s.head+s.count)%len(s.ring)] = id
		s.count++
	}
	s.index[id] = struct{}{}
}

// Len returns the number of ids held.
func (s *SeenSet) Len() int { return s.count }

// Tracker holds one SeenSet per sender. It is not safe for concurrent use;
// the owning node serializes access.
type Tracker struct {
	window   int
	maxPeers int
	clock    uint64
	peers    map[protocol.PeerAddress]*SeenSet
}

// NewTracker creates a tracker remembering window ids per peer.
func NewTracker(window int) *Tracker {
	if window < 1 {
		window = DefaultWindow
	}
	return &Tracker{
		window:   window,
		maxPeers: DefaultMaxPeers,
		peers:    make(map[protocol.PeerAddress]*SeenSet),
	}
}

// Remember records id for peer. It returns true if id was new and false if it
// is a duplicate of one still inside the peer's window.
func (t *Tracker) Remember(peer protocol.PeerAddress, id protocol.MessageID) bool {
	t.clock++
	set, ok := t.peers[peer]
	if !ok {
		if len(t.peers) >= t.maxPeers {
			t.evictIdlest()
		}
		set = NewSeenSet(t.window)
		t.peers[peer] = set
	}
	set.lastUsed = t.clock

	if set.Contains(id) {
		return false
	}
	set.Add(id)
	return true
}

// Forget drops all state for peer.
func (t *Tracker) Forget(peer protocol.PeerAddress) {
	delete(t.peers, peer)
}

// Peers returns the number of senders currently tracked.
func (t *Tracker) Peers() int { return len(t.peers) }

func (t *Tracker) evictIdlest() {
	var (
		victim protocol.PeerAddress
		oldest uint64
		found  bool
	)
	for addr, set := range t.peers {
		if !found || set.lastUsed < oldest {
			victim, oldest, found = addr, set.lastUsed, true
		}
	}
	if found {
		delete(t.peers, victim)
	}
}
