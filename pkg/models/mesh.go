// Package models provides mesh loading and representation for tinyrender.
package models

import (
	"github.com/taigrr/tinyrender/pkg/math3d"
)

// Absent marks a face attribute that the source did not reference.
const Absent = -1

// Mesh holds the attribute arrays and triangle faces of a model.
// A Mesh is read-only once a loader returns it.
type Mesh struct {
	Name      string
	Positions []math3d.Vec4 // Object-space positions, W=1
	TexCoords []math3d.Vec4 // U, V in [0,1]; Z unused, W=1
	Normals   []math3d.Vec4 // Loaded for completeness, unused by the rasterizer
	Faces     []Face
}

// Corner selects one triangle corner's attributes. Indices are 0-based;
// Absent (-1) means the attribute was not given.
type Corner struct {
	Position int
	TexCoord int
	Normal   int
}

// Face is a triangle referencing shared attribute arrays.
type Face struct {
	Corners [3]Corner
}

// NewMesh creates an empty mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{
		Name:      name,
		Positions: make([]math3d.Vec4, 0),
		TexCoords: make([]math3d.Vec4, 0),
		Normals:   make([]math3d.Vec4, 0),
		Faces:     make([]Face, 0),
	}
}

// Indices returns the face as the flat 1-based index list of the text
// format: corner-major, then position/texcoord/normal. Absent attributes
// are skipped, so a fully specified triangle yields 9 indices.
func (f Face) Indices() []int {
	out := make([]int, 0, 9)
	for _, c := range f.Corners {
		for _, idx := range [3]int{c.Position, c.TexCoord, c.Normal} {
			if idx != Absent {
				out = append(out, idx+1)
			}
		}
	}
	return out
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Faces)
}

// VertexCount returns the number of positions.
func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

// Bounds returns the axis-aligned bounding box of the positions.
// An empty mesh returns two zero vectors.
func (m *Mesh) Bounds() (min, max math3d.Vec3) {
	if len(m.Positions) == 0 {
		return math3d.Vec3{}, math3d.Vec3{}
	}

	min = m.Positions[0].Vec3()
	max = min
	for _, p := range m.Positions[1:] {
		min = min.Min(p.Vec3())
		max = max.Max(p.Vec3())
	}
	return min, max
}
