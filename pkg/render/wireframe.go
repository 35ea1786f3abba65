package render

import "image/color"

type edge struct {
	a, b ScreenVertex
}

// Wireframe collects the screen-space edges of drawn triangles and draws
// them over a finished frame. Edges shared by two triangles are drawn once.
type Wireframe struct {
	edges []edge
	seen  map[edge]struct{}
}

// NewWireframe creates an empty wireframe overlay.
func NewWireframe() *Wireframe {
	return &Wireframe{seen: make(map[edge]struct{})}
}

// AddTriangle records the three edges of a triangle.
func (w *Wireframe) AddTriangle(v [3]ScreenVertex) {
	for i := range 3 {
		w.addEdge(v[i], v[(i+1)%3])
	}
}

func (w *Wireframe) addEdge(a, b ScreenVertex) {
	a.Z, b.Z = 0, 0
	if b.X < a.X || (b.X == a.X && b.Y < a.Y) {
		a, b = b, a
	}
	e := edge{a, b}
	if _, ok := w.seen[e]; ok {
		return
	}
	w.seen[e] = struct{}{}
	w.edges = append(w.edges, e)
}

// Len returns the number of distinct edges.
func (w *Wireframe) Len() int {
	return len(w.edges)
}

// Draw draws every edge onto fb. Depth is ignored.
func (w *Wireframe) Draw(fb *Framebuffer, c color.RGBA) {
	for _, e := range w.edges {
		fb.DrawLine(e.a.X, e.a.Y, e.b.X, e.b.Y, c)
	}
}
