// rlink: reliable point-to-point messaging over lossy radio links.
//
// Subcommands run a simulated pair of nodes, bridge two hosts over a WebRTC
// DataChannel acting as a lossy radio, or check a configuration file.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/1ureka/rlink/internal/util"
)

var version = "dev"

func main() {
	// Root context, cancelled on Ctrl+C.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		util.LogError("%v", err)
		os.Exit(1)
	}
}
