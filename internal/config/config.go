// Package config handles scene configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/taigrr/tinyrender/pkg/math3d"
	"github.com/taigrr/tinyrender/pkg/render"
	"github.com/taigrr/tinyrender/pkg/transform"
)

// Config holds everything needed to render a scene.
type Config struct {
	Canvas     CanvasConfig    `yaml:"canvas"`
	Mesh       string          `yaml:"mesh"`
	Texture    string          `yaml:"texture"`
	BaseDir    string          `yaml:"base_dir"`
	Output     string          `yaml:"output"`
	Background string          `yaml:"background"` // Hex color; empty keeps transparency
	Transforms []transform.Op  `yaml:"transforms"`
	Render     RenderConfig    `yaml:"render"`
	Turntable  TurntableConfig `yaml:"turntable"`
	Logging    LoggingConfig   `yaml:"logging"`
}

// CanvasConfig holds the requested canvas size. Frames are square with a
// side of min(Width, Height).
type CanvasConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// RenderConfig holds optional render passes.
type RenderConfig struct {
	PerspectiveDivide bool           `yaml:"perspective_divide"`
	Lighting          LightingConfig `yaml:"lighting"`
	Wireframe         bool           `yaml:"wireframe"`
	WireColor         string         `yaml:"wire_color"`
}

// LightingConfig holds flat directional lighting settings.
type LightingConfig struct {
	Enabled   bool       `yaml:"enabled"`
	Direction [3]float64 `yaml:"direction"`
}

// TurntableConfig holds settings for rendering a rotating sequence.
type TurntableConfig struct {
	Frames int    `yaml:"frames"`
	OutDir string `yaml:"out_dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Canvas:     CanvasConfig{Width: 800, Height: 800},
		Output:     "out.png",
		Background: "#1e1e28",
		Render: RenderConfig{
			Lighting:  LightingConfig{Direction: [3]float64{0, 0, 1}},
			WireColor: "#ffffff",
		},
		Turntable: TurntableConfig{Frames: 36, OutDir: "frames"},
		Logging:   LoggingConfig{Level: "info"},
	}
}

// Validate reports the first setting that cannot produce a frame.
func (c *Config) Validate() error {
	if min(c.Canvas.Width, c.Canvas.Height) <= 0 {
		return fmt.Errorf("canvas %dx%d: %w", c.Canvas.Width, c.Canvas.Height, render.ErrEmptyCanvas)
	}
	if c.Turntable.Frames <= 0 {
		return errors.New("turntable frames must be positive")
	}
	if _, err := transform.Compose(c.Transforms); err != nil {
		return fmt.Errorf("transforms: %w", err)
	}
	if _, err := c.BackgroundColor(); err != nil {
		return err
	}
	if _, err := c.WireColor(); err != nil {
		return err
	}
	return nil
}

// RenderOptions converts the render settings for the renderer.
func (c *Config) RenderOptions() (render.Options, error) {
	opts := render.DefaultOptions()
	opts.PerspectiveDivide = c.Render.PerspectiveDivide
	opts.Wireframe = c.Render.Wireframe
	opts.Lighting.Enabled = c.Render.Lighting.Enabled
	d := c.Render.Lighting.Direction
	if d != [3]float64{} {
		opts.Lighting.Direction = math3d.V3(d[0], d[1], d[2])
	}

	wire, err := c.WireColor()
	if err != nil {
		return render.Options{}, err
	}
	opts.WireColor = wire
	return opts, nil
}

// BackgroundColor parses Background. An empty value returns nil.
func (c *Config) BackgroundColor() (*color.RGBA, error) {
	if c.Background == "" {
		return nil, nil
	}
	bg, err := parseColor(c.Background)
	if err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}
	return &bg, nil
}

// WireColor parses the wireframe color, defaulting to white.
func (c *Config) WireColor() (color.RGBA, error) {
	if c.Render.WireColor == "" {
		return color.RGBA{255, 255, 255, 255}, nil
	}
	wc, err := parseColor(c.Render.WireColor)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("wire color: %w", err)
	}
	return wc, nil
}

func parseColor(s string) (color.RGBA, error) {
	col, err := colorful.Hex(s)
	if err != nil {
		return color.RGBA{}, err
	}
	r, g, b := col.RGB255()
	return color.RGBA{r, g, b, 255}, nil
}
