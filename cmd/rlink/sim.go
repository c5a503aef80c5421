package main

import (
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/1ureka/rlink/internal/config"
	"github.com/1ureka/rlink/internal/engine"
	"github.com/1ureka/rlink/internal/link"
	"github.com/1ureka/rlink/internal/link/espnow"
	"github.com/1ureka/rlink/internal/link/lora"
	"github.com/1ureka/rlink/internal/link/sim"
	"github.com/1ureka/rlink/internal/node"
	"github.com/1ureka/rlink/internal/protocol"
	"github.com/1ureka/rlink/internal/util"
)

var simFlags struct {
	transport string
	loss      float64
	dup       float64
	count     int
	seed      uint64
}

var simCmd = &cobra.Command{
	Use:   "sim",
	Short: "Run two nodes over a simulated lossy channel and report delivery",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		banner()
		res, err := runSim(cfg, simFlags.transport, sim.Config{
			Loss: simFlags.loss,
			Dup:  simFlags.dup,
			Seed: simFlags.seed,
		}, simFlags.count)
		if err != nil {
			return err
		}
		res.render()
		return nil
	},
}

func init() {
	simCmd.Flags().StringVar(&simFlags.transport, "transport", "espnow", "simulated radio: espnow or lora")
	simCmd.Flags().Float64Var(&simFlags.loss, "loss", 0.2, "probability a frame is lost")
	simCmd.Flags().Float64Var(&simFlags.dup, "dup", 0.05, "probability a frame is duplicated")
	simCmd.Flags().IntVar(&simFlags.count, "count", 20, "messages to send")
	simCmd.Flags().Uint64Var(&simFlags.seed, "seed", 1, "channel random seed")
}

var (
	simAddrA = protocol.PeerAddress{0x02, 0x00, 0x00, 0x00, 0x00, 0x0a}
	simAddrB = protocol.PeerAddress{0x02, 0x00, 0x00, 0x00, 0x00, 0x0b}
)

type simResult struct {
	sent, delivered, failed, received int
	attempts                          int
	elapsed                           time.Duration
	stats                             util.Snapshot
}

// runSim drives both nodes on a virtual clock so the run is independent of
// wall time and reproducible for a given seed.
func runSim(c *config.Config, kind string, channel sim.Config, count int) (*simResult, error) {
	air := sim.NewAir(channel)

	newLink := func(addr protocol.PeerAddress) (link.Transport, error) {
		switch config.TransportKind(kind) {
		case config.TransportESPNow:
			return espnow.New(air.Attach(addr)), nil
		case config.TransportLoRa:
			return lora.New(air.Attach(addr), addr, c.LoRa, c.RxQueue)
		default:
			return nil, fmt.Errorf("sim supports espnow or lora, not %q", kind)
		}
	}
	ta, err := newLink(simAddrA)
	if err != nil {
		return nil, err
	}
	tb, err := newLink(simAddrB)
	if err != nil {
		return nil, err
	}

	opts, err := nodeOptions(c)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	now := start
	clock := func() time.Time { return now }
	opts = append(opts, node.WithClock(clock))

	a := node.New(ta, append(opts, node.WithPeer(simAddrB))...)
	b := node.New(tb, opts...)

	res := &simResult{}
	before := util.Stats.Snapshot()

	b.OnText(func(src protocol.PeerAddress, text string) {
		res.received++
		util.LogDebug("[%s] text %q", src, text)
	})
	b.OnCommand(func(src protocol.PeerAddress, cmd int16) {
		res.received++
		util.LogDebug("[%s] command %d", src, cmd)
	})
	b.OnData(func(src protocol.PeerAddress, data []byte) {
		res.received++
		util.LogDebug("[%s] data % x", src, data)
	})
	a.OnDelivery(func(d engine.Delivery) {
		res.attempts += d.Attempts
		if d.Status == engine.Delivered {
			res.delivered++
			util.LogDebug("%s", d)
		} else {
			res.failed++
			util.LogWarning("%s", d)
		}
	})

	step := c.TickInterval
	limit := time.Duration(count*(c.MaxRetries+2)) * c.Timeout()
	for now.Sub(start) < limit && res.delivered+res.failed < count {
		if res.sent < count && a.State(simAddrB) == engine.Idle {
			if err := sendNext(a, res.sent); err != nil {
				util.LogWarning("send %d: %v", res.sent, err)
				res.failed++
			}
			res.sent++
		}
		now = now.Add(step)
		b.Tick(now)
		a.Tick(now)
	}

	res.elapsed = now.Sub(start)
	res.stats = util.Stats.Snapshot().Sub(before)
	return res, nil
}

// sendNext sends the i-th message of a text / command / data rotation.
func sendNext(a *node.Node, i int) error {
	var err error
	switch i % 3 {
	case 0:
		_, err = a.SendTextToPeer(fmt.Sprintf("hello #%d", i))
	case 1:
		_, err = a.SendCommandToPeer(int16(i))
	default:
		_, err = a.SendDataToPeer([]byte{byte(i), byte(i >> 8), 0xAA})
	}
	return err
}

func (r *simResult) render() {
	avg := 0.0
	if n := r.delivered + r.failed; n > 0 {
		avg = float64(r.attempts) / float64(n)
	}
	pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData{
		{"Sent", "Delivered", "Failed", "Received", "Avg attempts", "Retransmits", "Dup suppressed", "Virtual time"},
		{
			fmt.Sprint(r.sent), fmt.Sprint(r.delivered), fmt.Sprint(r.failed), fmt.Sprint(r.received),
			fmt.Sprintf("%.2f", avg), fmt.Sprint(r.stats.Retransmits), fmt.Sprint(r.stats.Duplicates),
			r.elapsed.Round(time.Millisecond).String(),
		},
	}).Render()
}
