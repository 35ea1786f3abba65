package render

import (
	"math"

	"github.com/taigrr/tinyrender/pkg/math3d"
)

// DepthLevels is the number of distinct depth values.
const DepthLevels = 256

// maxScreenCoord bounds screen coordinates so far off-canvas geometry
// cannot overflow the integer edge walk.
const maxScreenCoord = 1 << 20

// ScreenVertex is an integer pixel position plus a depth level, or an
// integer texel position (Z unused).
type ScreenVertex struct {
	X, Y, Z int
}

// ToScreen maps a transformed vertex from [-1, 1] to pixel coordinates in
// [0, size-1] and depth in [0, DepthLevels-1], truncating toward zero.
func ToScreen(v math3d.Vec4, size int) ScreenVertex {
	half := float64(size-1) / 2
	return ScreenVertex{
		X: toInt((v.X + 1) * half),
		Y: toInt((v.Y + 1) * half),
		Z: toInt((v.Z + 1) * (DepthLevels - 1) / 2),
	}
}

// ToTexel scales a texcoord in [0, 1] to texel units of tex.
func ToTexel(vt math3d.Vec4, tex *Texture) ScreenVertex {
	return ScreenVertex{
		X: toInt(vt.X * float64(tex.Width)),
		Y: toInt(vt.Y * float64(tex.Height)),
	}
}

func toInt(f float64) int {
	switch {
	case math.IsNaN(f):
		return 0
	case f > maxScreenCoord:
		return maxScreenCoord
	case f < -maxScreenCoord:
		return -maxScreenCoord
	}
	return int(f)
}

// FaceNormal returns the outward unit normal of a transformed triangle:
// the normalized cross product of (a-c) and (b-c), negated. Degenerate
// triangles give the zero vector.
func FaceNormal(a, b, c math3d.Vec4) math3d.Vec3 {
	return a.Sub(c).Vec3().Cross(b.Sub(c).Vec3()).Normalize().Negate()
}

// Cull reports how much a triangle faces the viewer and whether it should
// be drawn. Only a strictly positive facing is visible, so edge-on and
// degenerate triangles are culled.
func Cull(a, b, c math3d.Vec4) (front float64, visible bool) {
	front = math3d.Facing().Dot(FaceNormal(a, b, c))
	return front, front > 0
}

// edgeWalk returns, for column i of a triangle sorted by descending x,
// the long-edge x, the short-edge y boundary, the fill direction along y
// and the number of rows to fill. Spans are always the position spans so
// texcoords walk in lock-step with pixels.
func edgeWalk(v [3]ScreenVertex, i, x02l, x01l, x12l int) (x02, y11, yneg, rows int) {
	v0, v1, v2 := v[0], v[1], v[2]
	x02 = (v2.X-v0.X)*i/x02l + v0.X
	if i < x01l {
		y11 = v0.Y + (v1.Y-v0.Y)*i/x01l
	} else {
		y11 = v1.Y + (v2.Y-v1.Y)*(i-x01l)/x12l
	}
	yl := (v2.Y-v0.Y)*i/x02l + v0.Y - y11
	switch {
	case yl > 0:
		yneg = 1
	case yl < 0:
		yneg = -1
	}
	return x02, y11, yneg, yl*yneg + 1
}

// rowRange clips [0, rows) to the rows whose pixel y = y11 + y*yneg lies
// inside [0, size).
func rowRange(y11, yneg, rows, size int) (lo, hi int) {
	switch yneg {
	case 1:
		lo, hi = -y11, size-y11
	case -1:
		lo, hi = y11-size+1, y11+1
	default:
		if y11 < 0 || y11 >= size {
			return 0, 0
		}
		return 0, rows
	}
	return max(lo, 0), min(hi, rows)
}

// DrawTriangle scan converts one triangle column by column with a flat
// depth and writes texture samples where the stored depth is strictly
// less. v holds pixel positions with depth, t the matching texel
// positions. shade scales the sampled color; 1 leaves it unchanged.
// It returns the number of pixels written.
func DrawTriangle(fb *Framebuffer, v, t [3]ScreenVertex, tex *Texture, shade float64) int {
	if v[1].X > v[0].X {
		v[0], v[1] = v[1], v[0]
		t[0], t[1] = t[1], t[0]
	}
	if v[2].X > v[0].X {
		v[2], v[0] = v[0], v[2]
		t[2], t[0] = t[0], t[2]
	}
	if v[2].X > v[1].X {
		v[2], v[1] = v[1], v[2]
		t[2], t[1] = t[1], t[2]
	}
	x02l, x01l, x12l := v[0].X-v[2].X, v[0].X-v[1].X, v[1].X-v[2].X

	z := uint8(min(max((v[0].Z+v[1].Z+v[2].Z)/3, 0), DepthLevels-1))

	written := 0
	for i := range x02l {
		vx, vy11, vyneg, vrows := edgeWalk(v, i, x02l, x01l, x12l)
		if vx < 0 || vx >= fb.Size {
			continue
		}
		tx, ty11, tyneg, trows := edgeWalk(t, i, x02l, x01l, x12l)

		lo, hi := rowRange(vy11, vyneg, vrows, fb.Size)
		for y := lo; y < hi; y++ {
			vy := vy11 + y*vyneg
			ty := ty11 + y*trows*tyneg/vrows

			c := tex.Texel(tx, tex.Height-1-ty)
			if shade != 1 {
				c = MultiplyColor(c, shade)
			}
			if fb.plot(vx, vy, z, c) {
				written++
			}
		}
	}
	return written
}
