package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/1ureka/rlink/internal/protocol"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rlink.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if cfg.Timeout() != 200*time.Millisecond || cfg.MaxRetries != 5 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Transport != TransportESPNow {
		t.Errorf("missing file did not yield defaults: %+v", cfg)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
transport: lora
address: "02:00:00:00:00:0a"
peer_mac: "AA:BB:CC:DD:EE:FF"
max_retries: 3
timeout_us: 1500000
tick_interval: 50ms
lora:
  frequency: 868100000
  spreading_factor: 7
  sync_word: 0x34
  max_airtime: 400ms
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if cfg.Transport != TransportLoRa || cfg.MaxRetries != 3 || cfg.Timeout() != 1500*time.Millisecond {
		t.Errorf("top-level fields not applied: %+v", cfg)
	}
	if cfg.TickInterval != 50*time.Millisecond {
		t.Errorf("tick_interval = %s", cfg.TickInterval)
	}
	if cfg.LoRa.Frequency != 868_100_000 || cfg.LoRa.SpreadingFactor != 7 || cfg.LoRa.SyncWord != 0x34 {
		t.Errorf("lora fields not applied: %+v", cfg.LoRa)
	}
	if cfg.LoRa.Bandwidth != 125_000 || cfg.LoRa.CodingRate != 7 {
		t.Errorf("unset lora fields lost their defaults: %+v", cfg.LoRa)
	}
	if cfg.LoRa.MaxAirtime != 400*time.Millisecond {
		t.Errorf("max_airtime = %s", cfg.LoRa.MaxAirtime)
	}

	peer, ok, err := cfg.Peer()
	if err != nil || !ok || peer != (protocol.PeerAddress{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}) {
		t.Errorf("Peer() = %v, %v, %v", peer, ok, err)
	}
	local, err := cfg.LocalAddress(protocol.PeerAddress{})
	if err != nil || local != (protocol.PeerAddress{2, 0, 0, 0, 0, 0x0a}) {
		t.Errorf("LocalAddress() = %v, %v", local, err)
	}
}

func TestLoadMalformed(t *testing.T) {
	path := writeFile(t, "transport: [espnow\n")
	if _, err := Load(path); err == nil {
		t.Fatal("malformed YAML accepted")
	}
}

func TestValidateErrors(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"transport", func(c *Config) { c.Transport = "zigbee" }, "unknown transport"},
		{"retries", func(c *Config) { c.MaxRetries = 0 }, "max_retries"},
		{"timeout", func(c *Config) { c.TimeoutUS = 0 }, "timeout_us"},
		{"peer", func(c *Config) { c.PeerMAC = "nope" }, "peer_mac"},
		{"address", func(c *Config) { c.Address = "ff:ff:ff:ff:ff:ff" }, "address"},
		{"seen", func(c *Config) { c.SeenCapacity = -1 }, "seen_capacity"},
		{"queue", func(c *Config) { c.RxQueue = 0 }, "rx_queue"},
		{"tick", func(c *Config) { c.TickInterval = 0 }, "tick_interval"},
		{"lora", func(c *Config) { c.Transport = TransportLoRa; c.LoRa.CodingRate = 9 }, "coding rate"},
		{"bridge client", func(c *Config) { c.Transport = TransportBridge; c.Bridge.Role = RoleClient }, "ws_url"},
		{"bridge role", func(c *Config) { c.Transport = TransportBridge; c.Bridge.Role = "both" }, "bridge.role"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestValidateCollectsAll(t *testing.T) {
	cfg := Default()
	cfg.MaxRetries = 0
	cfg.TimeoutUS = -1
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "max_retries") || !strings.Contains(err.Error(), "timeout_us") {
		t.Errorf("Validate() = %v, want both violations", err)
	}
}

func TestBroadcastPeerMeansNone(t *testing.T) {
	cfg := Default()
	cfg.PeerMAC = "FF:FF:FF:FF:FF:FF"
	if _, ok, err := cfg.Peer(); ok || err != nil {
		t.Errorf("broadcast peer_mac: ok=%v err=%v", ok, err)
	}
}
