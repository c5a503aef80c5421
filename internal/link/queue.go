package link

import (
	"sync"
	"sync/atomic"

	"github.com/1ureka/rlink/internal/protocol"
	"github.com/1ureka/rlink/internal/util"
)

// DefaultQueueSize is the receive handoff capacity when none is configured.
const DefaultQueueSize = 8

type datagram struct {
	src  protocol.PeerAddress
	data []byte
}

// RxQueue is a bounded ring of received frames. Push never blocks: when the
// ring is full the oldest frame is dropped and counted.
type RxQueue struct {
	mu    sync.Mutex
	buf   []datagram
	head  int
	count int

	dropped atomic.Uint64
}

// NewRxQueue creates a queue holding at most capacity frames.
func NewRxQueue(capacity int) *RxQueue {
	if capacity < 1 {
		capacity = DefaultQueueSize
	}
	return &RxQueue{buf: make([]datagram, capacity)}
}

// Push copies data into the queue. It reports false if an older frame had
// to be dropped to make room.
func (q *RxQueue) Push(data []byte, src protocol.PeerAddress) bool {
	d := datagram{src: src, data: append([]byte(nil), data...)}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == len(q.buf) {
		q.buf[q.head] = d
		q.head = (q.head + 1) % len(q.buf)
		q.dropped.Add(1)
		util.Stats.AddRxDropped()
		return false
	}
	q.buf[(q.head+q.count)%len(q.buf)] = d
	q.count++
	return true
}

// Receiver adapts Push to the Receiver signature.
func (q *RxQueue) Receiver() Receiver {
	return func(frame []byte, src protocol.PeerAddress) { q.Push(frame, src) }
}

// Drain hands queued frames to fn in arrival order, outside the queue lock.
// Frames pushed while draining wait for the next call.
func (q *RxQueue) Drain(fn Receiver) int {
	q.mu.Lock()
	n := q.count
	q.mu.Unlock()

	delivered := 0
	for ; delivered < n; delivered++ {
		d, ok := q.pop()
		if !ok {
			break
		}
		fn(d.data, d.src)
	}
	return delivered
}

func (q *RxQueue) pop() (datagram, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == 0 {
		return datagram{}, false
	}
	d := q.buf[q.head]
	q.buf[q.head] = datagram{}
	q.head = (q.head + 1) % len(q.buf)
	q.count--
	return d, true
}

// Len returns the number of queued frames.
func (q *RxQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Dropped returns how many frames were evicted since creation.
func (q *RxQueue) Dropped() uint64 { return q.dropped.Load() }
