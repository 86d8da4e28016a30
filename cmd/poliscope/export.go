package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/teslashibe/poliscope/internal/log"
	"github.com/teslashibe/poliscope/pkg/animation"
)

func newExportCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "export-avatars",
		Short: "Write the built-in avatar animations as GIF files",
		Long: `Writes engaged.gif, distracted.gif and inactive.gif. Edit them and point
--animations at the directory to customize the companion.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := animation.BuiltinSet().Export(dir)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			log.Info("avatars exported", "dir", dir, "files", len(paths))
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "animations", "output directory")
	return cmd
}
