package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/teslashibe/poliscope/internal/config"
	"github.com/teslashibe/poliscope/internal/log"
	"github.com/teslashibe/poliscope/pkg/animation"
	"github.com/teslashibe/poliscope/pkg/audio"
	"github.com/teslashibe/poliscope/pkg/camera"
	"github.com/teslashibe/poliscope/pkg/focus"
	"github.com/teslashibe/poliscope/pkg/landmark"
)

// errCheckFailed marks a check run with at least one failure.
var errCheckFailed = errors.New("check failed")

func newCheckCmd(cfg *config.Config) *cobra.Command {
	var skipCamera bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate configuration, assets, the landmark model and the camera",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			c := checker{out: out}

			c.run("config", func() (string, error) {
				return "ok", cfg.Validate()
			})
			c.run("animations", func() (string, error) {
				return checkAnimations(cfg.AnimationDir)
			})
			c.run("audio cues", func() (string, error) {
				if _, err := audio.CuePaths(cfg.AudioDir); err != nil {
					return "", err
				}
				if cfg.AudioCmd != "" {
					return "player " + cfg.AudioCmd, nil
				}
				argv, err := audio.DefaultCommand()
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("player %v", argv), nil
			})
			c.run("landmarks", func() (string, error) {
				lm := cfg.Landmark()
				if lm.Backend == landmark.BackendMesh {
					return "mesh worker " + cfg.WorkerCmd, nil
				}
				if _, err := os.Stat(lm.ModelPath); err != nil {
					return "", err
				}
				p, err := newProvider(lm, log.L())
				if err != nil {
					return "", err
				}
				p.Close()
				return "yunet " + lm.ModelPath, nil
			})
			if !skipCamera {
				c.run("camera", func() (string, error) {
					dev, err := camera.Open(cfg.Camera(), log.L())
					if err != nil {
						return "", err
					}
					defer dev.Close()
					frame, err := dev.Read()
					if err != nil {
						return "", err
					}
					defer frame.Close()
					return fmt.Sprintf("device %d, %dx%d", cfg.CameraDevice, frame.Width(), frame.Height()), nil
				})
			}

			if c.failed > 0 {
				return fmt.Errorf("%w: %d of %d", errCheckFailed, c.failed, c.total)
			}
			fmt.Fprintln(out, "all checks passed")
			return nil
		},
	}
	cfg.BindFlags(cmd.Flags())
	cmd.Flags().BoolVar(&skipCamera, "no-camera", false, "skip opening the camera")
	return cmd
}

// checkAnimations reports which states use custom GIFs. A missing GIF is not
// an error; the built-in avatar is used instead.
func checkAnimations(dir string) (string, error) {
	states := focus.States()
	custom := 0
	for _, state := range states {
		path := filepath.Join(dir, animation.FileName(state))
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if _, err := animation.LoadGIF(path); err != nil {
			return "", err
		}
		custom++
	}
	return fmt.Sprintf("%d custom, %d built-in", custom, len(states)-custom), nil
}

type checker struct {
	out    io.Writer
	total  int
	failed int
}

func (c *checker) run(name string, fn func() (string, error)) {
	c.total++
	detail, err := fn()
	if err != nil {
		c.failed++
		fmt.Fprintf(c.out, "FAIL  %-12s %v\n", name, err)
		return
	}
	fmt.Fprintf(c.out, "ok    %-12s %s\n", name, detail)
}
