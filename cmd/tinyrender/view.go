package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/harmonica"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/taigrr/tinyrender/pkg/render"
	"github.com/taigrr/tinyrender/pkg/transform"
)

// Controls:
//
//	W/S or Up/Down     - Pitch
//	A/D or Left/Right  - Yaw
//	R                  - Reset rotation
//	L                  - Toggle lighting
//	X                  - Toggle wireframe
//	Esc, Ctrl+C        - Quit
func newViewCmd(gf *globalFlags) *cobra.Command {
	var (
		sf  sceneFlags
		fps int
	)

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Spin the scene interactively in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(cmd, gf, &sf)
			if err != nil {
				return err
			}
			defer log.Sync()
			if fps <= 0 {
				return fmt.Errorf("fps must be positive, got %d", fps)
			}

			mesh, tex, err := loadScene(cfg, log)
			if err != nil {
				return err
			}
			opts, err := cfg.RenderOptions()
			if err != nil {
				return err
			}

			v := &viewer{
				ops:  cfg.Transforms,
				spin: newSpinState(fps),
				opts: opts,
				fps:  fps,
				log:  log,
				frame: func(r *render.Renderer, ops []transform.Op, w, h int) (*render.Frame, error) {
					return r.Render(mesh, tex, ops, w, h)
				},
			}
			return v.run(cmd.Context())
		},
	}
	addSceneFlags(cmd, &sf)
	cmd.Flags().IntVar(&fps, "fps", 30, "Target frames per second")
	return cmd
}

// spinAxis tracks an angle and an angular velocity that a critically
// damped spring pulls back to zero.
type spinAxis struct {
	Angle    float64
	Velocity float64
	spring   harmonica.Spring
	accel    float64
}

func newSpinAxis(fps int) spinAxis {
	return spinAxis{spring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0)}
}

func (a *spinAxis) update() {
	a.Angle += a.Velocity
	a.Velocity, a.accel = a.spring.Update(a.Velocity, a.accel, 0)
}

type spinState struct {
	Pitch, Yaw spinAxis
	fps        int
}

func newSpinState(fps int) *spinState {
	return &spinState{Pitch: newSpinAxis(fps), Yaw: newSpinAxis(fps), fps: fps}
}

func (s *spinState) update() {
	s.Pitch.update()
	s.Yaw.update()
}

func (s *spinState) impulse(pitch, yaw float64) {
	s.Pitch.Velocity += pitch
	s.Yaw.Velocity += yaw
}

func (s *spinState) reset() {
	s.Pitch = newSpinAxis(s.fps)
	s.Yaw = newSpinAxis(s.fps)
}

// ops appends the current spin to the scene ops. Zero angles are skipped
// since a zero rotation does not compose.
func (s *spinState) ops(scene []transform.Op) []transform.Op {
	out := make([]transform.Op, 0, len(scene)+2)
	out = append(out, scene...)
	if s.Pitch.Angle != 0 {
		out = append(out, transform.NewOp(transform.Rotate, s.Pitch.Angle, 0, 0))
	}
	if s.Yaw.Angle != 0 {
		out = append(out, transform.NewOp(transform.Rotate, 0, s.Yaw.Angle, 0))
	}
	return out
}

type viewer struct {
	ops   []transform.Op
	spin  *spinState
	opts  render.Options
	fps   int
	log   *zap.Logger
	frame func(r *render.Renderer, ops []transform.Op, w, h int) (*render.Frame, error)

	mu sync.Mutex // guards spin, opts and the terminal size
}

const spinImpulse = 0.05

// handleKey applies one key press. It reports false when the viewer
// should quit.
func (v *viewer) handleKey(ev uv.KeyPressEvent) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch {
	case ev.MatchString("escape", "ctrl+c"):
		return false
	case ev.MatchString("w", "up"):
		v.spin.impulse(-spinImpulse, 0)
	case ev.MatchString("s", "down"):
		v.spin.impulse(spinImpulse, 0)
	case ev.MatchString("a", "left"):
		v.spin.impulse(0, -spinImpulse)
	case ev.MatchString("d", "right"):
		v.spin.impulse(0, spinImpulse)
	case ev.MatchString("r"):
		v.spin.reset()
	case ev.MatchString("l"):
		v.opts.Lighting.Enabled = !v.opts.Lighting.Enabled
	case ev.MatchString("x"):
		v.opts.Wireframe = !v.opts.Wireframe
	}
	return true
}

// step advances the spin one tick and returns the renderer and ops for
// the next frame.
func (v *viewer) step() (*render.Renderer, []transform.Op) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.spin.update()
	return render.NewRenderer(v.opts, v.log), v.spin.ops(v.ops)
}

// screen is the part of the terminal the viewer takes over.
type screen interface {
	Start() error
	EnterAltScreen()
	HideCursor()
	Resize(width, height int) error
	ExitAltScreen()
	ShowCursor()
	Shutdown(ctx context.Context) error
}

// openScreen starts term in the alternate screen with a hidden cursor. The
// returned restore undoes that. If setup fails after the terminal has
// started, the terminal is restored before the error is returned.
func openScreen(term screen, width, height int) (restore func(), err error) {
	if err := term.Start(); err != nil {
		return nil, fmt.Errorf("start terminal: %w", err)
	}
	restore = func() {
		term.ExitAltScreen()
		term.ShowCursor()
		_ = term.Shutdown(context.Background())
	}

	term.EnterAltScreen()
	term.HideCursor()
	if err := term.Resize(width, height); err != nil {
		restore()
		return nil, fmt.Errorf("resize terminal: %w", err)
	}
	return restore, nil
}

func (v *viewer) run(ctx context.Context) error {
	term := uv.DefaultTerminal()

	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}
	restore, err := openScreen(term, width, height)
	if err != nil {
		return err
	}
	defer restore()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	go func() {
		for ev := range term.Events() {
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				v.mu.Lock()
				width, height = ev.Width, ev.Height
				term.Erase()
				_ = term.Resize(width, height)
				v.mu.Unlock()
			case uv.KeyPressEvent:
				if !v.handleKey(ev) {
					cancel()
					return
				}
			}
		}
	}()

	targetDuration := time.Second / time.Duration(v.fps)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		now := time.Now()
		r, ops := v.step()

		v.mu.Lock()
		w, h := width, height
		v.mu.Unlock()

		// Two framebuffer rows per terminal cell.
		frame, err := v.frame(r, ops, w, h*2)
		if err != nil {
			return err
		}

		cols, rows := render.CellSize(frame.Size)
		x0, y0 := (w-cols)/2, (h-rows)/2
		term.Clear()
		frame.Draw(term, uv.Rect(x0, y0, cols, rows))
		if err := term.Display(); err != nil {
			return fmt.Errorf("display: %w", err)
		}

		if elapsed := time.Since(now); elapsed < targetDuration {
			time.Sleep(targetDuration - elapsed)
		}
	}
}
