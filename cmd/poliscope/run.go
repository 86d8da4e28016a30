package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/teslashibe/poliscope/internal/config"
	"github.com/teslashibe/poliscope/internal/log"
)

func newRunCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start a focus monitoring session",
		Example: `  poliscope run
  poliscope run --camera 1 --preset 720p --dashboard :8080
  poliscope run --mock --headless`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger := log.Component("poliscope")

			a, err := newApp(cmd.Context(), *cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					logger.Warn("shutdown", "error", err)
				}
			}()

			report, err := a.Run(cmd.Context())
			if err != nil {
				return err
			}
			if cfg.Headless {
				fmt.Fprintln(cmd.OutOrStdout(), "Session summary")
				for _, line := range report.Summary.Lines() {
					fmt.Fprintln(cmd.OutOrStdout(), "  "+line)
				}
			}
			return nil
		},
	}
	cfg.BindFlags(cmd.Flags())
	return cmd
}
