package util

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pterm/pterm"
)

// ──────────────────────────────────────────────────────────────────────────────
// Global stats singleton
// ──────────────────────────────────────────────────────────────────────────────

// Stats is the process-wide link and delivery counter.
var Stats = &stats{}

type stats struct {
	FramesSent   atomic.Int64 // first transmissions, acks and broadcasts
	Retransmits  atomic.Int64 // repeated transmissions of a pending frame
	FramesRecv   atomic.Int64 // frames handed to the protocol context
	Duplicates   atomic.Int64 // received frames suppressed by the seen window
	DecodeErrors atomic.Int64 // received frames that failed to decode
	RxDropped    atomic.Int64 // frames evicted from a full receive queue
	Delivered    atomic.Int64 // sends acknowledged by the peer
	Failed       atomic.Int64 // sends that exhausted retries or were cancelled
	BytesSent    atomic.Int64 // bytes handed to a radio
	BytesRecv    atomic.Int64 // bytes read from a radio
}

func (s *stats) AddSent()         { s.FramesSent.Add(1) }
func (s *stats) AddRetransmit()   { s.Retransmits.Add(1) }
func (s *stats) AddRecv()         { s.FramesRecv.Add(1) }
func (s *stats) AddTxBytes(n int) { s.BytesSent.Add(int64(n)) }
func (s *stats) AddRxBytes(n int) { s.BytesRecv.Add(int64(n)) }
func (s *stats) AddDuplicate()    { s.Duplicates.Add(1) }
func (s *stats) AddDecodeError()  { s.DecodeErrors.Add(1) }
func (s *stats) AddRxDropped()    { s.RxDropped.Add(1) }
func (s *stats) AddDelivered()    { s.Delivered.Add(1) }
func (s *stats) AddFailed()       { s.Failed.Add(1) }

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	FramesSent, Retransmits, FramesRecv, Duplicates, DecodeErrors int64
	RxDropped, Delivered, Failed, BytesSent, BytesRecv            int64
}

// Snapshot reads every counter once.
func (s *stats) Snapshot() Snapshot {
	return Snapshot{
		FramesSent:   s.FramesSent.Load(),
		Retransmits:  s.Retransmits.Load(),
		FramesRecv:   s.FramesRecv.Load(),
		Duplicates:   s.Duplicates.Load(),
		DecodeErrors: s.DecodeErrors.Load(),
		RxDropped:    s.RxDropped.Load(),
		Delivered:    s.Delivered.Load(),
		Failed:       s.Failed.Load(),
		BytesSent:    s.BytesSent.Load(),
		BytesRecv:    s.BytesRecv.Load(),
	}
}

// Sub returns the per-counter difference s - prev.
func (s Snapshot) Sub(prev Snapshot) Snapshot {
	return Snapshot{
		FramesSent:   s.FramesSent - prev.FramesSent,
		Retransmits:  s.Retransmits - prev.Retransmits,
		FramesRecv:   s.FramesRecv - prev.FramesRecv,
		Duplicates:   s.Duplicates - prev.Duplicates,
		DecodeErrors: s.DecodeErrors - prev.DecodeErrors,
		RxDropped:    s.RxDropped - prev.RxDropped,
		Delivered:    s.Delivered - prev.Delivered,
		Failed:       s.Failed - prev.Failed,
		BytesSent:    s.BytesSent - prev.BytesSent,
		BytesRecv:    s.BytesRecv - prev.BytesRecv,
	}
}

// IsZero reports whether nothing was counted.
func (s Snapshot) IsZero() bool { return s == Snapshot{} }

// ──────────────────────────────────────────────────────────────────────────────
// Periodic reporter
// ──────────────────────────────────────────────────────────────────────────────

// StartStatsReporter launches a goroutine that logs link statistics every
// 10 seconds when something changed. It stops when ctx is cancelled.
func StartStatsReporter(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()

		prev := Stats.Snapshot()
		for {
			select {
			case <-ticker.C:
				cur := Stats.Snapshot()
				if delta := cur.Sub(prev); !delta.IsZero() {
					pterm.DefaultLogger.Info(FormatStats(delta, 10))
				}
				prev = cur

			case <-ctx.Done():
				return
			}
		}
	}()
}

// byteUnits defines the units for formatting byte counts in a human-readable way.
var byteUnits = []string{"B", "KiB", "MiB", "GiB", "TiB", "PiB"}

// formatBytes formats a byte count into a human-readable string with fixed width (exactly 8 chars)
// for example: "99.0   B", " 1.5 KiB", " 0.1 MiB", "98.9 GiB", etc.
func formatBytes(b float64) string {
	unitIdx := 0

	// to prevent "100.0 KiB", which is 9 chars
	for b > 99 && unitIdx < 5 {
		b /= 1024
		unitIdx++
	}

	return fmt.Sprintf("%4.1f %3s", b, byteUnits[unitIdx])
}

// FormatStats renders a delta over a window of seconds for the logger.
func FormatStats(d Snapshot, seconds float64) string {
	return fmt.Sprintf("Tx: %s/s %3d frm %3d rtx | Rx: %s/s %3d frm %3d dup %3d bad %3d drop | Ack: %3d ok %3d fail",
		formatBytes(float64(d.BytesSent)/seconds), d.FramesSent, d.Retransmits,
		formatBytes(float64(d.BytesRecv)/seconds), d.FramesRecv, d.Duplicates, d.DecodeErrors, d.RxDropped,
		d.Delivered, d.Failed,
	)
}
