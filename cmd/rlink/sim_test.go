package main

import (
	"io"
	"os"
	"testing"

	"github.com/1ureka/rlink/internal/config"
	"github.com/1ureka/rlink/internal/link/sim"
	"github.com/1ureka/rlink/internal/util"
)

func TestMain(m *testing.M) {
	util.SetLogOutput(io.Discard)
	os.Exit(m.Run())
}

func TestRunSimCleanChannel(t *testing.T) {
	for _, kind := range []string{"espnow", "lora"} {
		t.Run(kind, func(t *testing.T) {
			res, err := runSim(config.Default(), kind, sim.Config{Seed: 1}, 9)
			if err != nil {
				t.Fatalf("runSim: %v", err)
			}
			if res.sent != 9 || res.delivered != 9 || res.failed != 0 || res.received != 9 {
				t.Errorf("sent=%d delivered=%d failed=%d received=%d, want 9/9/0/9",
					res.sent, res.delivered, res.failed, res.received)
			}
			if res.attempts != 9 {
				t.Errorf("attempts = %d, want one per message", res.attempts)
			}
		})
	}
}

func TestRunSimLossyChannelAccountsForEveryMessage(t *testing.T) {
	res, err := runSim(config.Default(), "espnow", sim.Config{Loss: 0.3, Dup: 0.2, Seed: 7}, 30)
	if err != nil {
		t.Fatalf("runSim: %v", err)
	}
	if res.delivered+res.failed != res.sent {
		t.Errorf("delivered %d + failed %d != sent %d", res.delivered, res.failed, res.sent)
	}
	if res.received > res.sent {
		t.Errorf("received %d messages, more than the %d sent", res.received, res.sent)
	}
}

func TestRunSimRejectsBridge(t *testing.T) {
	if _, err := runSim(config.Default(), "bridge", sim.Config{}, 1); err == nil {
		t.Error("runSim over bridge succeeded")
	}
}
