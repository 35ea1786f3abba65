package transform

import (
	"math"

	"github.com/taigrr/tinyrender/pkg/math3d"
)

// Base is the fixed starting matrix of every composition: a half turn
// about Z. It negates x and y so authored +x/+y land on the screen
// orientation, and keeps z so larger z still wins the depth test.
func Base() math3d.Mat4 {
	return math3d.RotateZ(math.Pi)
}

// Matrix returns the 4x4 matrix for a single op.
func Matrix(op Op) (math3d.Mat4, error) {
	v := op.V
	switch op.Kind {
	case Rotate:
		switch {
		case v[0] != 0:
			return math3d.RotateX(v[0]), nil
		case v[1] != 0:
			return math3d.RotateY(v[1]), nil
		case v[2] != 0:
			return math3d.RotateZ(v[2]), nil
		}
		return math3d.Mat4{}, &DegenerateTransformError{Op: op}
	case Translate:
		return math3d.Translate(math3d.V3(v[0], v[1], v[2])), nil
	case Scale:
		return math3d.Scale(math3d.V3(v[0], v[1], v[2])), nil
	case Project:
		if v[2] == 0 {
			return math3d.Mat4{}, &DegenerateTransformError{Op: op}
		}
		return math3d.Project(v[2]), nil
	}
	return math3d.Mat4{}, &UnknownKindError{Kind: op.Kind}
}

// Compose folds ops into one matrix starting from Base. The ops act on a
// vertex in list order: the first op is applied first after the base
// flip, the last op last. Any failing op aborts the composition.
func Compose(ops []Op) (math3d.Mat4, error) {
	net := Base()
	for _, op := range ops {
		m, err := Matrix(op)
		if err != nil {
			return math3d.Mat4{}, err
		}
		net = m.Mul(net)
	}
	return net, nil
}

// Apply transforms a homogeneous vertex. There is no perspective divide.
func Apply(m math3d.Mat4, v math3d.Vec4) math3d.Vec4 {
	return m.MulVec4(v)
}

// Turntable returns a copy of ops followed by a rotation about Y by angle.
// A zero angle adds nothing, since a zero rotation is degenerate.
func Turntable(ops []Op, angle float64) []Op {
	out := make([]Op, len(ops), len(ops)+1)
	copy(out, ops)
	if angle != 0 {
		out = append(out, NewOp(Rotate, 0, angle, 0))
	}
	return out
}
