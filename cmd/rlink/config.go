package main

import (
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/1ureka/rlink/internal/config"
	"github.com/1ureka/rlink/internal/link/lora"
	"github.com/1ureka/rlink/internal/util"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the configuration",
}

var configCheckCmd = &cobra.Command{
	Use:   "check [FILE]",
	Short: "Validate the configuration file and print the effective values",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			loaded, err := config.Load(args[0])
			if err != nil {
				return err
			}
			cfgPath, cfg = args[0], loaded
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		peer := "(none)"
		if addr, ok, _ := cfg.Peer(); ok {
			peer = addr.String()
		}
		address := cfg.Address
		if address == "" {
			address = "(from hardware or hostname)"
		}

		data := pterm.TableData{
			{"Setting", "Value"},
			{"config file", cfgPath},
			{"transport", string(cfg.Transport)},
			{"address", address},
			{"peer", peer},
			{"max retries", fmt.Sprint(cfg.MaxRetries)},
			{"ack timeout", cfg.Timeout().String()},
			{"seen capacity", fmt.Sprint(cfg.SeenCapacity)},
			{"rx queue", fmt.Sprint(cfg.RxQueue)},
			{"tick interval", cfg.TickInterval.String()},
			{"log level", cfg.LogLevel},
		}

		switch cfg.Transport {
		case config.TransportLoRa:
			p := cfg.LoRa
			longest := lora.MaxFrame(p)
			toa := lora.TimeOnAir(p, longest)
			data = append(data,
				[]string{"lora", p.Summary()},
				[]string{"max frame", fmt.Sprintf("%d bytes", longest)},
				[]string{"time on air (max frame)", toa.Round(time.Microsecond).String()},
				[]string{"shortest safe timeout", lora.RoundTrip(p).Round(time.Millisecond).String()},
			)
		case config.TransportBridge:
			data = append(data,
				[]string{"bridge role", string(cfg.Bridge.Role)},
				[]string{"ws listen", cfg.Bridge.WSListen},
				[]string{"ws url", cfg.Bridge.WSURL},
			)
		}

		if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
			return err
		}
		util.LogSuccess("configuration is valid")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configCheckCmd)
}
