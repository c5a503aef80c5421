// Package config loads and validates the node configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/1ureka/rlink/internal/link"
	"github.com/1ureka/rlink/internal/link/lora"
	"github.com/1ureka/rlink/internal/protocol"
	"github.com/1ureka/rlink/internal/sequence"
)

// TransportKind selects the link a node runs on.
type TransportKind string

const (
	TransportESPNow TransportKind = "espnow"
	TransportLoRa   TransportKind = "lora"
	TransportBridge TransportKind = "bridge"
)

// Role represents which side of a bridge this node plays.
type Role string

const (
	RoleHost   Role = "host"
	RoleClient Role = "client"
)

// Config is the on-disk node configuration.
type Config struct {
	Transport    TransportKind `yaml:"transport"`
	Address      string        `yaml:"address"`  // own address on links without a burned-in MAC
	PeerMAC      string        `yaml:"peer_mac"` // optional default destination
	MaxRetries   int           `yaml:"max_retries"`
	TimeoutUS    int64         `yaml:"timeout_us"`
	SeenCapacity int           `yaml:"seen_capacity"`
	RxQueue      int           `yaml:"rx_queue"`
	TickInterval time.Duration `yaml:"tick_interval"`
	LogLevel     string        `yaml:"log_level"`

	LoRa   lora.Params  `yaml:"lora"`
	Bridge BridgeConfig `yaml:"bridge"`
}

// BridgeConfig holds the signaling settings for the WebRTC bridge link.
type BridgeConfig struct {
	Role     Role     `yaml:"role"`
	WSListen string   `yaml:"ws_listen"` // host: listen address, ":0" picks a port
	WSURL    string   `yaml:"ws_url"`    // client: host's signaling URL
	PIN      string   `yaml:"pin"`
	STUN     []string `yaml:"stun"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Transport:    TransportESPNow,
		MaxRetries:   5,
		TimeoutUS:    200_000,
		SeenCapacity: sequence.DefaultWindow,
		RxQueue:      link.DefaultQueueSize,
		TickInterval: 20 * time.Millisecond,
		LogLevel:     "info",
		LoRa:         lora.DefaultParams(),
		Bridge: BridgeConfig{
			Role:     RoleHost,
			WSListen: ":0",
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error

	switch c.Transport {
	case TransportESPNow, TransportBridge:
	case TransportLoRa:
		if err := c.LoRa.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("lora: %w", err))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown transport %q", c.Transport))
	}

	if c.Address != "" {
		if addr, err := protocol.ParseAddress(c.Address); err != nil {
			errs = append(errs, fmt.Errorf("address: %w", err))
		} else if addr.IsBroadcast() || addr.IsZero() {
			errs = append(errs, fmt.Errorf("address %s cannot be used as a node address", addr))
		}
	}
	if _, _, err := c.Peer(); err != nil {
		errs = append(errs, fmt.Errorf("peer_mac: %w", err))
	}
	if c.MaxRetries <= 0 {
		errs = append(errs, fmt.Errorf("max_retries must be positive, got %d", c.MaxRetries))
	}
	if c.TimeoutUS <= 0 {
		errs = append(errs, fmt.Errorf("timeout_us must be positive, got %d", c.TimeoutUS))
	}
	if c.SeenCapacity <= 0 {
		errs = append(errs, fmt.Errorf("seen_capacity must be positive, got %d", c.SeenCapacity))
	}
	if c.RxQueue <= 0 {
		errs = append(errs, fmt.Errorf("rx_queue must be positive, got %d", c.RxQueue))
	}
	if c.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("tick_interval must be positive, got %s", c.TickInterval))
	}
	if c.Transport == TransportBridge {
		switch c.Bridge.Role {
		case RoleHost:
		case RoleClient:
			if c.Bridge.WSURL == "" {
				errs = append(errs, errors.New("bridge.ws_url is required for the client role"))
			}
		default:
			errs = append(errs, fmt.Errorf("bridge.role must be host or client, got %q", c.Bridge.Role))
		}
	}
	return errors.Join(errs...)
}

// Timeout returns the ack timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutUS) * time.Microsecond
}

// Peer parses PeerMAC. An empty value means no peer is configured, and so
// does the broadcast address.
func (c *Config) Peer() (protocol.PeerAddress, bool, error) {
	if c.PeerMAC == "" {
		return protocol.PeerAddress{}, false, nil
	}
	addr, err := protocol.ParseAddress(c.PeerMAC)
	if err != nil {
		return addr, false, err
	}
	if addr.IsBroadcast() {
		return addr, false, nil
	}
	return addr, true, nil
}

// LocalAddress parses Address, falling back to fallback when unset.
func (c *Config) LocalAddress(fallback protocol.PeerAddress) (protocol.PeerAddress, error) {
	if c.Address == "" {
		return fallback, nil
	}
	return protocol.ParseAddress(c.Address)
}
