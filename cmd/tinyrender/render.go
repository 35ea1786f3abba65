package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/taigrr/tinyrender/pkg/models"
	"github.com/taigrr/tinyrender/pkg/render"
	"github.com/taigrr/tinyrender/pkg/transform"
)

func newRenderCmd(gf *globalFlags) *cobra.Command {
	var sf sceneFlags

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render one frame to a PNG file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(cmd, gf, &sf)
			if err != nil {
				return err
			}
			defer log.Sync()

			mesh, tex, err := loadScene(cfg, log)
			if err != nil {
				return err
			}
			opts, err := cfg.RenderOptions()
			if err != nil {
				return err
			}
			bg, err := cfg.BackgroundColor()
			if err != nil {
				return err
			}

			start := time.Now()
			frame, err := render.NewRenderer(opts, log).Render(mesh, tex, cfg.Transforms, cfg.Canvas.Width, cfg.Canvas.Height)
			if err != nil {
				return err
			}
			if err := frame.SavePNG(cfg.Output, bg); err != nil {
				return err
			}

			log.Info("frame written",
				zap.String("path", cfg.Output),
				zap.Int("size", frame.Size),
				zap.Int("drawn", frame.Stats.Drawn),
				zap.Int("culled", frame.Stats.Culled),
				zap.Duration("elapsed", time.Since(start)),
			)
			return nil
		},
	}
	addSceneFlags(cmd, &sf)
	cmd.Flags().StringVarP(&sf.out, "out", "o", "", "Output PNG path")
	cmd.Flags().IntVar(&sf.width, "width", 0, "Canvas width")
	cmd.Flags().IntVar(&sf.height, "height", 0, "Canvas height")
	return cmd
}

func newTurntableCmd(gf *globalFlags) *cobra.Command {
	var (
		sf     sceneFlags
		frames int
		outDir string
	)

	cmd := &cobra.Command{
		Use:   "turntable",
		Short: "Render a full turn about Y as a numbered PNG sequence",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(cmd, gf, &sf)
			if err != nil {
				return err
			}
			defer log.Sync()
			if cmd.Flags().Changed("frames") {
				cfg.Turntable.Frames = frames
			}
			if cmd.Flags().Changed("out-dir") {
				cfg.Turntable.OutDir = outDir
			}
			if cfg.Turntable.Frames <= 0 {
				return fmt.Errorf("frames must be positive, got %d", cfg.Turntable.Frames)
			}

			mesh, tex, err := loadScene(cfg, log)
			if err != nil {
				return err
			}
			opts, err := cfg.RenderOptions()
			if err != nil {
				return err
			}
			bg, err := cfg.BackgroundColor()
			if err != nil {
				return err
			}

			seq := turntableOps(cfg.Transforms, cfg.Turntable.Frames)
			start := time.Now()
			out, err := render.NewRenderer(opts, log).RenderSequence(cmd.Context(), mesh, tex, seq, cfg.Canvas.Width, cfg.Canvas.Height)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(cfg.Turntable.OutDir, 0o755); err != nil {
				return err
			}
			for i, frame := range out {
				path := filepath.Join(cfg.Turntable.OutDir, fmt.Sprintf("frame_%03d.png", i))
				if err := frame.SavePNG(path, bg); err != nil {
					return err
				}
			}

			log.Info("turntable written",
				zap.String("dir", cfg.Turntable.OutDir),
				zap.Int("frames", len(out)),
				zap.Duration("elapsed", time.Since(start)),
			)
			return nil
		},
	}
	addSceneFlags(cmd, &sf)
	cmd.Flags().IntVarP(&frames, "frames", "n", 0, "Number of frames in one turn")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Directory for the PNG sequence")
	cmd.Flags().IntVar(&sf.width, "width", 0, "Canvas width")
	cmd.Flags().IntVar(&sf.height, "height", 0, "Canvas height")
	return cmd
}

// turntableOps returns one op list per frame, each the scene ops followed
// by an evenly spaced rotation about Y.
func turntableOps(ops []transform.Op, frames int) [][]transform.Op {
	seq := make([][]transform.Op, frames)
	for i := range seq {
		seq[i] = transform.Turntable(ops, 2*math.Pi*float64(i)/float64(frames))
	}
	return seq
}

func newInfoCmd(gf *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "info <mesh>",
		Short: "Print mesh statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(cmd, gf, nil)
			if err != nil {
				return err
			}
			defer log.Sync()
			cfg.Mesh = args[0]
			cfg.Texture = ""

			mesh, tex, err := loadScene(cfg, log)
			if err != nil {
				return err
			}
			printInfo(cmd, mesh, tex)
			return nil
		},
	}
}

func printInfo(cmd *cobra.Command, mesh *models.Mesh, tex *render.Texture) {
	lo, hi := mesh.Bounds()
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Mesh:      %s\n", mesh.Name)
	fmt.Fprintf(w, "Positions: %d\n", len(mesh.Positions))
	fmt.Fprintf(w, "TexCoords: %d\n", len(mesh.TexCoords))
	fmt.Fprintf(w, "Normals:   %d\n", len(mesh.Normals))
	fmt.Fprintf(w, "Faces:     %d\n", mesh.TriangleCount())
	fmt.Fprintf(w, "Bounds:    (%.3f, %.3f, %.3f) to (%.3f, %.3f, %.3f)\n", lo.X, lo.Y, lo.Z, hi.X, hi.Y, hi.Z)
	if tex != nil {
		fmt.Fprintf(w, "Texture:   %dx%d embedded\n", tex.Width, tex.Height)
	}
}
