// Command poliscope watches the webcam and shows whether the user is focused on the
// screen, distracted, or away, with an animated companion and audio cues.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/poliscope/internal/config"
	"github.com/teslashibe/poliscope/internal/log"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	root := newRootCmd(&cfg)
	err = root.ExecuteContext(ctx)
	log.Close()
	if err != nil {
		os.Exit(1)
	}
}
