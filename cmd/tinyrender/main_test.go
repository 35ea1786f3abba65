package main

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/tinyrender/pkg/render"
	"github.com/taigrr/tinyrender/pkg/transform"
)

const triangleOBJ = `# test triangle
v -0.5 -0.5 0
v -0.5 0.5 0
v 0.5 -0.5 0
vt 0 0 0
vt 0 1 0
vt 1 0 0
f 1/1 2/2 3/3
`

// writeScene writes a triangle mesh and a scene file into a temp dir and
// returns the dir and the scene path.
func writeScene(t *testing.T, scene string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tri.obj"), []byte(triangleOBJ), 0o644))
	path := filepath.Join(dir, "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte(scene), 0o644))
	return dir, path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRenderCommand(t *testing.T) {
	dir, scene := writeScene(t, "mesh: tri.obj\nbackground: \"#000000\"\nlogging: {level: error}\n")
	out := filepath.Join(dir, "frame.png")

	_, err := execute(t, "render", "--config", scene, "--base-dir", dir, "--out", out, "--width", "40", "--height", "24")
	require.NoError(t, err)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 24, img.Bounds().Dx())
	assert.Equal(t, 24, img.Bounds().Dy())

	// Untextured faces render white over the black background.
	r, g, b, _ := img.At(16, 16).RGBA()
	assert.Equal(t, [3]uint32{0xffff, 0xffff, 0xffff}, [3]uint32{r, g, b})
	r, g, b, _ = img.At(1, 1).RGBA()
	assert.Equal(t, [3]uint32{0, 0, 0}, [3]uint32{r, g, b})
}

func TestRenderCommandErrors(t *testing.T) {
	dir, scene := writeScene(t, "logging: {level: error}\n")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no mesh", []string{"render", "--config", scene}, "no mesh"},
		{"missing mesh", []string{"render", "--config", scene, "--mesh", filepath.Join(dir, "nope.obj")}, "open mesh"},
		{"unsupported format", []string{"render", "--config", scene, "--mesh", "tri.stl"}, "unsupported format"},
		{"empty canvas", []string{"render", "--config", scene, "--mesh", "tri.obj", "--width", "0"}, "canvas"},
		{"bad background", []string{"render", "--config", scene, "--mesh", "tri.obj", "--bg", "nope"}, "background"},
		{"missing config", []string{"render", "--config", filepath.Join(dir, "none.yaml")}, "loading config"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := execute(t, tc.args...)
			assert.ErrorContains(t, err, tc.want)
		})
	}
}

func TestTurntableCommand(t *testing.T) {
	dir, scene := writeScene(t, "mesh: tri.obj\nlogging: {level: error}\n")
	outDir := filepath.Join(dir, "seq")

	_, err := execute(t, "turntable", "--config", scene, "--base-dir", dir, "--frames", "4", "--out-dir", outDir, "--width", "16", "--height", "16")
	require.NoError(t, err)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"frame_000.png", "frame_001.png", "frame_002.png", "frame_003.png"}, names)
}

func TestInfoCommand(t *testing.T) {
	dir, scene := writeScene(t, "logging: {level: error}\n")

	out, err := execute(t, "info", "--config", scene, filepath.Join(dir, "tri.obj"))
	require.NoError(t, err)
	assert.Contains(t, out, "Mesh:      tri.obj")
	assert.Contains(t, out, "Positions: 3")
	assert.Contains(t, out, "TexCoords: 3")
	assert.Contains(t, out, "Faces:     1")
	assert.Contains(t, out, "(-0.500, -0.500, 0.000) to (0.500, 0.500, 0.000)")

	_, err = execute(t, "info", "--config", scene)
	assert.Error(t, err)
}

func TestTurntableOps(t *testing.T) {
	scene := []transform.Op{transform.NewOp(transform.Scale, 2, 2, 2)}
	seq := turntableOps(scene, 4)
	require.Len(t, seq, 4)

	assert.Equal(t, scene, seq[0])
	for i := 1; i < 4; i++ {
		require.Len(t, seq[i], 2)
		assert.Equal(t, scene[0], seq[i][0])
		assert.InDelta(t, math.Pi/2*float64(i), seq[i][1].V[1], 1e-12)
	}
}

func TestSpinOps(t *testing.T) {
	scene := []transform.Op{transform.NewOp(transform.Translate, 0, 0, 1)}
	s := newSpinState(30)
	assert.Equal(t, scene, s.ops(scene))

	s.impulse(0, 0.1)
	s.update()
	ops := s.ops(scene)
	require.Len(t, ops, 2)
	assert.Equal(t, transform.Rotate, ops[1].Kind)
	assert.InDelta(t, 0.1, ops[1].V[1], 1e-12)

	// The spring bleeds velocity off.
	v := s.Yaw.Velocity
	for range 30 {
		s.update()
	}
	assert.Less(t, math.Abs(s.Yaw.Velocity), math.Abs(v))
	_, err := transform.Compose(s.ops(scene))
	assert.NoError(t, err)

	s.reset()
	assert.Equal(t, scene, s.ops(scene))
}

func TestViewerHandleKey(t *testing.T) {
	v := &viewer{spin: newSpinState(30), opts: render.DefaultOptions()}

	tests := []struct {
		name  string
		key   uv.KeyPressEvent
		quit  bool
		check func(t *testing.T)
	}{
		{"yaw right", uv.KeyPressEvent{Code: 'd', Text: "d"}, false, func(t *testing.T) {
			assert.Positive(t, v.spin.Yaw.Velocity)
		}},
		{"pitch up arrow", uv.KeyPressEvent{Code: uv.KeyUp}, false, func(t *testing.T) {
			assert.Negative(t, v.spin.Pitch.Velocity)
		}},
		{"lighting toggle", uv.KeyPressEvent{Code: 'l', Text: "l"}, false, func(t *testing.T) {
			assert.True(t, v.opts.Lighting.Enabled)
		}},
		{"wireframe toggle", uv.KeyPressEvent{Code: 'x', Text: "x"}, false, func(t *testing.T) {
			assert.True(t, v.opts.Wireframe)
		}},
		{"reset", uv.KeyPressEvent{Code: 'r', Text: "r"}, false, func(t *testing.T) {
			assert.Zero(t, v.spin.Yaw.Velocity)
			assert.Zero(t, v.spin.Pitch.Velocity)
		}},
		{"escape quits", uv.KeyPressEvent{Code: uv.KeyEscape}, true, nil},
		{"ctrl+c quits", uv.KeyPressEvent{Code: 'c', Mod: uv.ModCtrl}, true, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, !tc.quit, v.handleKey(tc.key))
			if tc.check != nil {
				tc.check(t)
			}
		})
	}
}

func TestViewerStep(t *testing.T) {
	v := &viewer{spin: newSpinState(30), opts: render.DefaultOptions()}
	v.spin.impulse(0.2, 0)

	r, ops := v.step()
	require.NotNil(t, r)
	require.Len(t, ops, 1)
	assert.InDelta(t, 0.2, ops[0].V[0], 1e-12)
}

// fakeScreen records the terminal calls made by openScreen.
type fakeScreen struct {
	startErr, resizeErr error
	calls               []string
}

func (f *fakeScreen) Start() error {
	f.calls = append(f.calls, "start")
	return f.startErr
}
func (f *fakeScreen) EnterAltScreen() { f.calls = append(f.calls, "alt") }
func (f *fakeScreen) HideCursor()     { f.calls = append(f.calls, "hide") }
func (f *fakeScreen) ExitAltScreen()  { f.calls = append(f.calls, "exit-alt") }
func (f *fakeScreen) ShowCursor()     { f.calls = append(f.calls, "show") }
func (f *fakeScreen) Resize(_, _ int) error {
	f.calls = append(f.calls, "resize")
	return f.resizeErr
}
func (f *fakeScreen) Shutdown(context.Context) error {
	f.calls = append(f.calls, "shutdown")
	return nil
}

func TestOpenScreen(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name      string
		screen    *fakeScreen
		wantErr   error
		wantCalls []string
	}{
		{
			name:      "start fails",
			screen:    &fakeScreen{startErr: boom},
			wantErr:   boom,
			wantCalls: []string{"start"},
		},
		{
			name:      "resize failure restores terminal",
			screen:    &fakeScreen{resizeErr: boom},
			wantErr:   boom,
			wantCalls: []string{"start", "alt", "hide", "resize", "exit-alt", "show", "shutdown"},
		},
		{
			name:      "ok",
			screen:    &fakeScreen{},
			wantCalls: []string{"start", "alt", "hide", "resize"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			restore, err := openScreen(tc.screen, 80, 24)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, restore)
			} else {
				require.NoError(t, err)
				require.NotNil(t, restore)
			}
			assert.Equal(t, tc.wantCalls, tc.screen.calls)
		})
	}

	s := &fakeScreen{}
	restore, err := openScreen(s, 80, 24)
	require.NoError(t, err)
	restore()
	assert.Equal(t, []string{"start", "alt", "hide", "resize", "exit-alt", "show", "shutdown"}, s.calls)
}
