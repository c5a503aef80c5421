package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/1ureka/rlink/internal/config"
	"github.com/1ureka/rlink/internal/node"
	"github.com/1ureka/rlink/internal/util"
)

var (
	cfgPath     string
	debugMode   bool
	peerFlag    string
	retriesFlag int
	timeoutFlag time.Duration

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "rlink",
	Short:         "Reliable messaging over lossy radio links",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		cfg = loaded

		if cmd.Flags().Changed("peer") {
			cfg.PeerMAC = peerFlag
		}
		if cmd.Flags().Changed("retries") {
			cfg.MaxRetries = retriesFlag
		}
		if cmd.Flags().Changed("timeout") {
			cfg.TimeoutUS = timeoutFlag.Microseconds()
		}

		if debugMode {
			util.EnableDebug()
		} else if err := util.SetLogLevel(cfg.LogLevel); err != nil {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "rlink.yaml", "configuration file (missing file uses defaults)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&peerFlag, "peer", "", "default peer address, e.g. AA:BB:CC:DD:EE:FF")
	rootCmd.PersistentFlags().IntVar(&retriesFlag, "retries", 5, "retransmissions after the first send")
	rootCmd.PersistentFlags().DurationVar(&timeoutFlag, "timeout", 200*time.Millisecond, "ack timeout")

	rootCmd.AddCommand(simCmd, bridgeCmd, configCmd)
}

// nodeOptions translates the configuration into node options.
func nodeOptions(c *config.Config) ([]node.Option, error) {
	opts := []node.Option{
		node.WithMaxRetries(c.MaxRetries),
		node.WithTimeout(c.Timeout()),
		node.WithSeenCapacity(c.SeenCapacity),
		node.WithInboxSize(c.RxQueue),
		node.WithTickInterval(c.TickInterval),
	}
	peer, ok, err := c.Peer()
	if err != nil {
		return nil, fmt.Errorf("peer_mac: %w", err)
	}
	if ok {
		opts = append(opts, node.WithPeer(peer))
	}
	return opts, nil
}

func banner() {
	pterm.Info.Println(fmt.Sprintf("rlink v%s", version))
	pterm.Println()
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return "rlink"
	}
	return name
}
