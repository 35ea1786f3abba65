package render

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/taigrr/tinyrender/pkg/math3d"
	"github.com/taigrr/tinyrender/pkg/models"
	"github.com/taigrr/tinyrender/pkg/transform"
)

// ErrEmptyCanvas is returned when the requested canvas has no pixels.
var ErrEmptyCanvas = errors.New("canvas has zero size")

// OutOfRangeIndexError reports a face corner that references an attribute
// past the end of its array. The whole frame is rejected.
type OutOfRangeIndexError struct {
	Face      int
	Corner    int
	Attribute string // "position" or "texcoord"
	Index     int    // 0-based; printed 1-based as in the source
	Len       int
}

func (e *OutOfRangeIndexError) Error() string {
	return fmt.Sprintf("face %d corner %d: %s index %d out of range (have %d)",
		e.Face, e.Corner, e.Attribute, e.Index+1, e.Len)
}

// Lighting enables flat directional shading. Each triangle's texels are
// scaled by the dot product of Direction and its outward normal, clamped
// to [0, 1].
type Lighting struct {
	Enabled   bool
	Direction math3d.Vec3
}

// Options controls optional render passes. The zero value renders the
// plain textured mesh.
type Options struct {
	PerspectiveDivide bool
	Lighting          Lighting
	Wireframe         bool
	WireColor         color.RGBA
}

// DefaultOptions returns options with lighting toward the viewer and a
// white wireframe, both disabled.
func DefaultOptions() Options {
	return Options{
		Lighting:  Lighting{Direction: math3d.Facing()},
		WireColor: color.RGBA{255, 255, 255, 255},
	}
}

// Stats counts what happened to a frame's faces.
type Stats struct {
	Faces  int // Faces considered
	Culled int // Back-facing or edge-on faces skipped
	Drawn  int // Faces rasterized
	Pixels int // Pixels that passed the depth test
}

// Frame is one rendered image with its depth buffer.
type Frame struct {
	*Framebuffer
	Stats Stats
}

// Renderer draws meshes. It holds no per-frame state, so one Renderer may
// render many frames concurrently.
type Renderer struct {
	opts   Options
	logger *zap.Logger
}

// NewRenderer creates a renderer. A nil logger discards output.
func NewRenderer(opts Options, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{opts: opts, logger: logger}
}

// Options returns the renderer's options.
func (r *Renderer) Options() Options {
	return r.opts
}

// whiteTexel stands in when no texture is supplied.
var whiteTexel = NewSolidTexture(1, 1, color.RGBA{255, 255, 255, 255})

// Render composes ops, transforms every mesh position and rasterizes each
// visible face in order onto a fresh min(width, height) square frame.
// The mesh and texture are only read. A nil texture renders white.
func (r *Renderer) Render(mesh *models.Mesh, tex *Texture, ops []transform.Op, width, height int) (*Frame, error) {
	if mesh == nil {
		return nil, errors.New("render: nil mesh")
	}
	fb := NewFramebuffer(width, height)
	if fb.Size == 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrEmptyCanvas, width, height)
	}
	if tex == nil {
		tex = whiteTexel
	} else if err := tex.validate(); err != nil {
		return nil, err
	}

	verts, err := r.Transform(mesh, ops)
	if err != nil {
		return nil, err
	}

	var light math3d.Vec3
	if r.opts.Lighting.Enabled {
		light = r.opts.Lighting.Direction.Normalize()
	}

	frame := &Frame{Framebuffer: fb}
	var wire *Wireframe
	if r.opts.Wireframe {
		wire = NewWireframe()
	}
	for fi, face := range mesh.Faces {
		frame.Stats.Faces++

		var pos, uv [3]math3d.Vec4
		for c, corner := range face.Corners {
			if corner.Position < 0 || corner.Position >= len(verts) {
				return nil, &OutOfRangeIndexError{
					Face: fi, Corner: c, Attribute: "position",
					Index: corner.Position, Len: len(verts),
				}
			}
			pos[c] = verts[corner.Position]

			switch {
			case corner.TexCoord == models.Absent:
			case corner.TexCoord < 0 || corner.TexCoord >= len(mesh.TexCoords):
				return nil, &OutOfRangeIndexError{
					Face: fi, Corner: c, Attribute: "texcoord",
					Index: corner.TexCoord, Len: len(mesh.TexCoords),
				}
			default:
				uv[c] = mesh.TexCoords[corner.TexCoord]
			}
		}

		if _, visible := Cull(pos[0], pos[1], pos[2]); !visible {
			frame.Stats.Culled++
			continue
		}

		shade := 1.0
		if r.opts.Lighting.Enabled {
			shade = min(max(light.Dot(FaceNormal(pos[0], pos[1], pos[2])), 0), 1)
		}

		var sv, tv [3]ScreenVertex
		for c := range 3 {
			sv[c] = ToScreen(pos[c], fb.Size)
			tv[c] = ToTexel(uv[c], tex)
		}
		frame.Stats.Pixels += DrawTriangle(fb, sv, tv, tex, shade)
		frame.Stats.Drawn++

		if wire != nil {
			wire.AddTriangle(sv)
		}
	}

	if wire != nil {
		wire.Draw(fb, r.opts.WireColor)
	}

	r.logger.Debug("frame rendered",
		zap.String("mesh", mesh.Name),
		zap.Int("size", fb.Size),
		zap.Int("faces", frame.Stats.Faces),
		zap.Int("culled", frame.Stats.Culled),
		zap.Int("drawn", frame.Stats.Drawn),
		zap.Int("pixels", frame.Stats.Pixels),
	)
	return frame, nil
}

// Transform composes ops and returns a new slice holding every mesh
// position multiplied by the result, divided by W when PerspectiveDivide
// is set.
func (r *Renderer) Transform(mesh *models.Mesh, ops []transform.Op) ([]math3d.Vec4, error) {
	net, err := transform.Compose(ops)
	if err != nil {
		return nil, fmt.Errorf("compose transforms: %w", err)
	}

	verts := make([]math3d.Vec4, len(mesh.Positions))
	for i, p := range mesh.Positions {
		verts[i] = transform.Apply(net, p)
		if r.opts.PerspectiveDivide {
			verts[i] = verts[i].PerspectiveDivide()
		}
	}
	return verts, nil
}

// RenderSource parses raw mesh text and renders it.
func (r *Renderer) RenderSource(src string, tex *Texture, ops []transform.Op, width, height int) (*Frame, error) {
	mesh, err := models.Parse(src)
	if err != nil {
		return nil, err
	}
	return r.Render(mesh, tex, ops, width, height)
}

// RenderSequence renders one frame per op list concurrently. Frames share
// the mesh and texture read-only and own their buffers. The first error
// cancels the remaining frames.
func (r *Renderer) RenderSequence(ctx context.Context, mesh *models.Mesh, tex *Texture, frames [][]transform.Op, width, height int) ([]*Frame, error) {
	out := make([]*Frame, len(frames))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, ops := range frames {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := r.Render(mesh, tex, ops, width, height)
			if err != nil {
				return fmt.Errorf("frame %d: %w", i, err)
			}
			out[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
