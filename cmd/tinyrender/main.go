// tinyrender - software textured triangle rasterizer
// Renders OBJ and GLB meshes to PNG files, PNG turntable sequences or the
// terminal.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/taigrr/tinyrender/internal/config"
	"github.com/taigrr/tinyrender/internal/logger"
	"github.com/taigrr/tinyrender/pkg/models"
	"github.com/taigrr/tinyrender/pkg/render"
)

type globalFlags struct {
	config   string
	baseDir  string
	logLevel string
	logFile  string
}

// sceneFlags override the scene file. Only flags set on the command line
// are applied.
type sceneFlags struct {
	mesh      string
	texture   string
	out       string
	width     int
	height    int
	bg        string
	lighting  bool
	wireframe bool
	divide    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var gf globalFlags

	root := &cobra.Command{
		Use:           "tinyrender",
		Short:         "Software textured triangle rasterizer",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&gf.config, "config", "c", "", "Path to scene file (default ./"+config.FileName+")")
	pf.StringVar(&gf.baseDir, "base-dir", "", "Directory mesh and texture paths are relative to")
	pf.StringVar(&gf.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&gf.logFile, "log-file", "", "Also write logs to this file")

	root.AddCommand(
		newRenderCmd(&gf),
		newTurntableCmd(&gf),
		newViewCmd(&gf),
		newInfoCmd(&gf),
	)
	return root
}

func addSceneFlags(cmd *cobra.Command, sf *sceneFlags) {
	f := cmd.Flags()
	f.StringVarP(&sf.mesh, "mesh", "m", "", "Mesh file (.obj or .glb)")
	f.StringVarP(&sf.texture, "texture", "t", "", "Texture image (TGA, PNG, JPEG, BMP, TIFF, WebP)")
	f.StringVar(&sf.bg, "bg", "", `Background hex color, "" keeps transparency`)
	f.BoolVar(&sf.lighting, "lighting", false, "Enable flat directional lighting")
	f.BoolVar(&sf.wireframe, "wireframe", false, "Draw triangle edges over the frame")
	f.BoolVar(&sf.divide, "divide", false, "Divide transformed vertices by w")
}

// loadConfig applies defaults < file < flags and initializes logging.
func loadConfig(cmd *cobra.Command, gf *globalFlags, sf *sceneFlags) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(gf.config)
	if err != nil {
		return nil, nil, err
	}

	flags := cmd.Flags()
	if gf.baseDir != "" {
		cfg.BaseDir = gf.baseDir
	}
	if gf.logLevel != "" {
		cfg.Logging.Level = gf.logLevel
	}
	if gf.logFile != "" {
		cfg.Logging.File = gf.logFile
	}
	if sf != nil {
		if flags.Changed("mesh") {
			cfg.Mesh = sf.mesh
		}
		if flags.Changed("texture") {
			cfg.Texture = sf.texture
		}
		if flags.Changed("out") {
			cfg.Output = sf.out
		}
		if flags.Changed("width") {
			cfg.Canvas.Width = sf.width
		}
		if flags.Changed("height") {
			cfg.Canvas.Height = sf.height
		}
		if flags.Changed("bg") {
			cfg.Background = sf.bg
		}
		if flags.Changed("lighting") {
			cfg.Render.Lighting.Enabled = sf.lighting
		}
		if flags.Changed("wireframe") {
			cfg.Render.Wireframe = sf.wireframe
		}
		if flags.Changed("divide") {
			cfg.Render.PerspectiveDivide = sf.divide
		}
	}

	log := logger.Init(cfg.Logging.Level, cfg.Logging.File)
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

// loadScene loads the configured mesh and texture. A GLB's embedded image
// is used when no texture is configured; with neither the mesh renders
// white.
func loadScene(cfg *config.Config, log *zap.Logger) (*models.Mesh, *render.Texture, error) {
	if cfg.Mesh == "" {
		return nil, nil, fmt.Errorf("no mesh given (use --mesh or set mesh in the scene file)")
	}
	loader := models.NewLoader(cfg.BaseDir, log)

	var (
		mesh     *models.Mesh
		embedded *render.Texture
		err      error
	)
	switch ext := strings.ToLower(filepath.Ext(cfg.Mesh)); ext {
	case ".glb", ".gltf":
		m, img, gerr := loader.LoadGLB(cfg.Mesh)
		if gerr != nil {
			return nil, nil, fmt.Errorf("load model: %w", gerr)
		}
		mesh = m
		if img != nil {
			if embedded, err = render.TextureFromImage(img); err != nil {
				return nil, nil, fmt.Errorf("embedded texture: %w", err)
			}
		}
	case ".obj", "":
		mesh, err = loader.Load(cfg.Mesh)
		if err != nil {
			return nil, nil, fmt.Errorf("load model: %w", err)
		}
	default:
		return nil, nil, fmt.Errorf("unsupported format: %s (use .obj or .glb)", ext)
	}

	if cfg.Texture == "" {
		if embedded != nil {
			log.Info("using embedded texture",
				zap.Int("width", embedded.Width), zap.Int("height", embedded.Height))
		}
		return mesh, embedded, nil
	}

	tex, err := render.LoadTexture(loader.Resolve(cfg.Texture))
	if err != nil {
		return nil, nil, err
	}
	return mesh, tex, nil
}
