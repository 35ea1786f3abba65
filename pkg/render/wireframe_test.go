package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWireframeSharedEdges(t *testing.T) {
	w := NewWireframe()
	// Two triangles sharing the edge (2,2)-(6,6), once in each direction
	// and at different depths.
	w.AddTriangle([3]ScreenVertex{{2, 2, 10}, {6, 2, 10}, {6, 6, 10}})
	w.AddTriangle([3]ScreenVertex{{6, 6, 90}, {2, 6, 90}, {2, 2, 90}})
	assert.Equal(t, 5, w.Len())

	fb := NewFramebuffer(8, 8)
	w.Draw(fb, red)
	for _, p := range [][2]int{{2, 2}, {4, 2}, {6, 4}, {4, 4}, {2, 4}, {4, 6}} {
		assert.Equal(t, red, fb.PixelAt(p[0], p[1]), "pixel %v", p)
	}
	assert.Equal(t, make([]uint8, 64), fb.Depth)
}
