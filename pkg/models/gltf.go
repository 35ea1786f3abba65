package models

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/taigrr/tinyrender/pkg/math3d"
)

// LoadGLB imports a binary glTF file. See (*Loader).LoadGLB.
func LoadGLB(path string) (*Mesh, image.Image, error) {
	return NewLoader("", nil).LoadGLB(path)
}

// LoadGLB imports every triangle primitive of a glTF/GLB document into one
// Mesh, plus the first decodable image it carries (nil when none).
//
// Each glTF vertex becomes one position, texcoord and normal entry, so a
// face corner uses the same index for all three attributes. V is flipped
// to the bottom-left origin the rasterizer expects. Winding is kept: glTF
// front faces are counter-clockwise, like OBJ.
func (l *Loader) LoadGLB(name string) (*Mesh, image.Image, error) {
	path := l.Resolve(name)
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open gltf: %w", err)
	}

	mesh := NewMesh(filepath.Base(path))
	for _, m := range doc.Meshes {
		if err := appendGLTFMesh(doc, m, mesh); err != nil {
			return nil, nil, fmt.Errorf("process mesh %q: %w", m.Name, err)
		}
	}

	img := l.firstImage(doc, filepath.Dir(path))

	l.Logger.Info("gltf loaded",
		zap.String("path", path),
		zap.Int("positions", mesh.VertexCount()),
		zap.Int("faces", mesh.TriangleCount()),
		zap.Bool("texture", img != nil),
	)
	return mesh, img, nil
}

func appendGLTFMesh(doc *gltf.Document, m *gltf.Mesh, mesh *Mesh) error {
	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
			continue
		}

		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
		if err != nil {
			return fmt.Errorf("read positions: %w", err)
		}

		var normals [][3]float32
		if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
			if normals, err = modeler.ReadNormal(doc, doc.Accessors[idx], nil); err != nil {
				return fmt.Errorf("read normals: %w", err)
			}
		}

		var uvs [][2]float32
		if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
			if uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil); err != nil {
				return fmt.Errorf("read uvs: %w", err)
			}
		}

		base := len(mesh.Positions)
		for i, p := range positions {
			mesh.Positions = append(mesh.Positions, math3d.Point(float64(p[0]), float64(p[1]), float64(p[2])))

			uv := math3d.Point(0, 0, 0)
			if i < len(uvs) {
				uv = math3d.Point(float64(uvs[i][0]), 1-float64(uvs[i][1]), 0)
			}
			mesh.TexCoords = append(mesh.TexCoords, uv)

			n := math3d.Point(0, 0, 0)
			if i < len(normals) {
				n = math3d.Point(float64(normals[i][0]), float64(normals[i][1]), float64(normals[i][2]))
			}
			mesh.Normals = append(mesh.Normals, n)
		}

		var indices []uint32
		if prim.Indices != nil {
			if indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil); err != nil {
				return fmt.Errorf("read indices: %w", err)
			}
		} else {
			indices = make([]uint32, len(positions))
			for i := range indices {
				indices[i] = uint32(i)
			}
		}

		for i := 0; i+2 < len(indices); i += 3 {
			var f Face
			for c := range 3 {
				idx := base + int(indices[i+c])
				f.Corners[c] = Corner{Position: idx, TexCoord: idx, Normal: idx}
			}
			mesh.Faces = append(mesh.Faces, f)
		}
	}
	return nil
}

// firstImage decodes the first embedded or sibling image in the document.
func (l *Loader) firstImage(doc *gltf.Document, dir string) image.Image {
	for i, gi := range doc.Images {
		var data []byte
		var err error
		switch {
		case gi.BufferView != nil:
			data, err = modeler.ReadBufferView(doc, doc.BufferViews[*gi.BufferView])
		case gi.URI != "":
			data, err = os.ReadFile(filepath.Join(dir, gi.URI))
		default:
			continue
		}
		if err != nil {
			l.Logger.Warn("gltf image unreadable", zap.Int("image", i), zap.Error(err))
			continue
		}

		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			l.Logger.Warn("gltf image undecodable", zap.Int("image", i), zap.Error(err))
			continue
		}
		return img
	}
	return nil
}
