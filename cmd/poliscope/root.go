package main

import (
	"github.com/spf13/cobra"
	"github.com/teslashibe/poliscope/internal/config"
	"github.com/teslashibe/poliscope/internal/log"
	"github.com/teslashibe/poliscope/pkg/debug"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "poliscope",
		Short: "Webcam focus monitor with an animated companion",
		Long: `Poliscope estimates head pose from the webcam and classifies each frame as
ENGAGED, DISTRACTED or INACTIVE against a calibrated baseline.

Press 'c' while looking at the screen to calibrate, 'd' to toggle the landmark
overlay and 'q' or ESC to quit and see the session summary.`,
		Version:      Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				cfg.LogLevel = "debug"
				debug.Enabled = true
			}
			debug.Frames = cfg.DebugFrames
			log.InitWithOptions(log.Options{Level: cfg.LogLevel, File: cfg.LogFile})
			return nil
		},
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	pf := root.PersistentFlags()
	pf.BoolVar(&verbose, "debug", false, "verbose logging")
	cfg.BindLogFlags(pf)

	root.AddCommand(
		newRunCmd(cfg),
		newCheckCmd(cfg),
		newExportCmd(),
	)
	return root
}
