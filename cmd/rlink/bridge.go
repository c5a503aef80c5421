package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/1ureka/rlink/internal/config"
	"github.com/1ureka/rlink/internal/engine"
	"github.com/1ureka/rlink/internal/node"
	"github.com/1ureka/rlink/internal/protocol"
	"github.com/1ureka/rlink/internal/signaling"
	"github.com/1ureka/rlink/internal/util"
)

var bridgeFlags struct {
	wsListen string
	wsURL    string
	pin      string
}

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Link two nodes over a WebRTC DataChannel standing in for the radio",
}

var bridgeHostCmd = &cobra.Command{
	Use:   "host",
	Short: "Start the signaling server and wait for a client",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("ws-listen") {
			cfg.Bridge.WSListen = bridgeFlags.wsListen
		}
		if cmd.Flags().Changed("pin") {
			cfg.Bridge.PIN = bridgeFlags.pin
		}
		cfg.Bridge.Role = config.RoleHost
		return runBridge(cmd.Context(), cfg)
	},
}

var bridgeClientCmd = &cobra.Command{
	Use:   "client [URL]",
	Short: "Connect to a host's signaling server",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw := cfg.Bridge.WSURL
		if len(args) == 1 {
			raw = args[0]
		}
		if cmd.Flags().Changed("pin") {
			cfg.Bridge.PIN = bridgeFlags.pin
		}

		if raw == "" {
			cfg.Bridge.WSURL = askURL()
		} else {
			wsURL, err := normalizeWSURL(raw)
			if err != nil {
				return err
			}
			cfg.Bridge.WSURL = wsURL
		}
		cfg.Bridge.Role = config.RoleClient
		return runBridge(cmd.Context(), cfg)
	},
}

func init() {
	bridgeHostCmd.Flags().StringVar(&bridgeFlags.wsListen, "ws-listen", ":0", "signaling listen address")
	bridgeHostCmd.Flags().StringVar(&bridgeFlags.pin, "pin", "", "fixed PIN instead of a random one")
	bridgeClientCmd.Flags().StringVar(&bridgeFlags.pin, "pin", "", "PIN shown by the host")

	bridgeCmd.AddCommand(bridgeHostCmd, bridgeClientCmd)
}

// runBridge establishes the link, starts a node on it and hands the
// terminal to the chat loop until ctx ends or the user quits.
func runBridge(ctx context.Context, c *config.Config) error {
	c.Transport = config.TransportBridge
	if err := c.Validate(); err != nil {
		return err
	}
	banner()

	local, err := c.LocalAddress(util.AddressFromName(hostname()))
	if err != nil {
		return fmt.Errorf("address: %w", err)
	}
	opts := signaling.Options{Local: local, STUN: c.Bridge.STUN, PIN: c.Bridge.PIN}

	var session *signaling.Session
	if c.Bridge.Role == config.RoleHost {
		session, err = signaling.EstablishAsHost(ctx, c.Bridge.WSListen, opts)
	} else {
		session, err = signaling.EstablishAsClient(ctx, c.Bridge.WSURL, opts)
	}
	if err != nil {
		return fmt.Errorf("failed to establish bridge: %w", err)
	}
	defer session.Transport.Close()

	nodeOpts, err := nodeOptions(c)
	if err != nil {
		return err
	}
	if _, ok, _ := c.Peer(); !ok {
		nodeOpts = append(nodeOpts, node.WithPeer(session.Remote))
	}
	n := node.New(session.Transport, nodeOpts...)
	attachPrinters(n)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-session.Transport.Done():
			util.LogWarning("bridge closed by remote")
			cancel()
		case <-ctx.Done():
		}
	}()

	util.StartStatsReporter(ctx)
	go n.Run(ctx)

	peer, _ := n.Peer()
	util.LogSuccess("bridge established: %s <-> %s", local, peer)
	pterm.Println(pterm.Gray(errUsage.Error()))

	chat(ctx, n)
	util.LogInfo("bridge closed")
	return nil
}

func attachPrinters(n *node.Node) {
	n.OnText(func(src protocol.PeerAddress, text string) {
		pterm.Printfln("%s %s", pterm.FgCyan.Sprintf("[%s]", src), text)
	})
	n.OnCommand(func(src protocol.PeerAddress, cmd int16) {
		pterm.Printfln("%s command %d", pterm.FgCyan.Sprintf("[%s]", src), cmd)
	})
	n.OnData(func(src protocol.PeerAddress, data []byte) {
		pterm.Printfln("%s data % x", pterm.FgCyan.Sprintf("[%s]", src), data)
	})
	n.OnDelivery(func(d engine.Delivery) {
		if d.Status == engine.Delivered {
			util.LogDebug("%s", d)
			return
		}
		util.LogWarning("%s", d)
	})
}

// chat reads lines from stdin and sends them to the node's peer.
func chat(ctx context.Context, n *node.Node) {
	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		close(lines)
	}()

	for {
		var line string
		select {
		case <-ctx.Done():
			return
		case l, ok := <-lines:
			if !ok {
				return
			}
			line = l
		}

		act, f, err := parseInput(line)
		if err != nil {
			util.LogWarning("%v", err)
			continue
		}
		switch act {
		case actionQuit:
			return
		case actionCancel:
			peer, _ := n.Peer()
			if !n.Cancel(peer) {
				util.LogInfo("nothing in flight")
			}
		case actionSend:
			if err := sendFrame(n, f); err != nil {
				util.LogWarning("not sent: %v", err)
			}
		}
	}
}

func sendFrame(n *node.Node, f *protocol.Frame) error {
	var err error
	switch f.Kind {
	case protocol.KindText:
		_, err = n.SendTextToPeer(f.Text)
	case protocol.KindCommand:
		_, err = n.SendCommandToPeer(f.Command)
	case protocol.KindData:
		_, err = n.SendDataToPeer(f.Data)
	default:
		err = fmt.Errorf("cannot send %s", f.Kind)
	}
	return err
}

