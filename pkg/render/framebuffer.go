// Package render rasterizes textured triangle meshes into square RGBA
// color and 8-bit depth buffers.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
)

// Framebuffer owns the color and depth buffers of one frame. Both are
// Size x Size and row-major (y outer, x inner). A zero depth means
// nothing has been drawn there.
type Framebuffer struct {
	Size  int
	Pix   []uint8 // RGBA, Size*Size*4 bytes
	Depth []uint8 // Size*Size
}

// NewFramebuffer creates a square framebuffer whose side is the lesser of
// width and height. Negative sizes produce an empty buffer.
func NewFramebuffer(width, height int) *Framebuffer {
	size := max(min(width, height), 0)
	return &Framebuffer{
		Size:  size,
		Pix:   make([]uint8, size*size*4),
		Depth: make([]uint8, size*size),
	}
}

// Reset zeroes both buffers.
func (fb *Framebuffer) Reset() {
	clear(fb.Pix)
	clear(fb.Depth)
}

// Bytes returns the color buffer as row-major RGBA bytes. The slice is
// owned by the framebuffer.
func (fb *Framebuffer) Bytes() []uint8 {
	return fb.Pix
}

func (fb *Framebuffer) inBounds(x, y int) bool {
	return x >= 0 && x < fb.Size && y >= 0 && y < fb.Size
}

// SetPixel writes a color without touching depth. Out of bounds is a no-op.
func (fb *Framebuffer) SetPixel(x, y int, c color.RGBA) {
	if !fb.inBounds(x, y) {
		return
	}
	i := (y*fb.Size + x) * 4
	fb.Pix[i] = c.R
	fb.Pix[i+1] = c.G
	fb.Pix[i+2] = c.B
	fb.Pix[i+3] = c.A
}

// PixelAt returns the color at (x, y), or transparent black out of bounds.
func (fb *Framebuffer) PixelAt(x, y int) color.RGBA {
	if !fb.inBounds(x, y) {
		return color.RGBA{}
	}
	i := (y*fb.Size + x) * 4
	return color.RGBA{fb.Pix[i], fb.Pix[i+1], fb.Pix[i+2], fb.Pix[i+3]}
}

// DepthAt returns the depth at (x, y), or 0 out of bounds.
func (fb *Framebuffer) DepthAt(x, y int) uint8 {
	if !fb.inBounds(x, y) {
		return 0
	}
	return fb.Depth[y*fb.Size+x]
}

// plot writes color and depth when z is strictly nearer than the stored
// depth. It reports whether the pixel was written.
func (fb *Framebuffer) plot(x, y int, z uint8, c color.RGBA) bool {
	if !fb.inBounds(x, y) {
		return false
	}
	i := y*fb.Size + x
	if fb.Depth[i] >= z {
		return false
	}
	fb.Depth[i] = z
	p := i * 4
	fb.Pix[p] = c.R
	fb.Pix[p+1] = c.G
	fb.Pix[p+2] = c.B
	fb.Pix[p+3] = c.A
	return true
}

// DrawLine draws a line from (x0, y0) to (x1, y1) using Bresenham's
// algorithm. Depth is left alone.
func (fb *Framebuffer) DrawLine(x0, y0, x1, y1 int, c color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		fb.SetPixel(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// ToImage copies the color buffer into an image.RGBA.
func (fb *Framebuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.Size, fb.Size))
	copy(img.Pix, fb.Pix)
	return img
}

// Flatten composites the color buffer over an opaque background, so
// untouched (transparent) pixels show bg.
func (fb *Framebuffer) Flatten(bg color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.Size, fb.Size))
	for i := 0; i < len(fb.Pix); i += 4 {
		a := uint32(fb.Pix[i+3])
		img.Pix[i] = blend(fb.Pix[i], bg.R, a)
		img.Pix[i+1] = blend(fb.Pix[i+1], bg.G, a)
		img.Pix[i+2] = blend(fb.Pix[i+2], bg.B, a)
		img.Pix[i+3] = 255
	}
	return img
}

func blend(fg, bg uint8, a uint32) uint8 {
	return uint8((uint32(fg)*a + uint32(bg)*(255-a)) / 255)
}

// SavePNG writes the color buffer to a PNG file. With a non-nil bg the
// frame is flattened over it first.
func (fb *Framebuffer) SavePNG(path string, bg *color.RGBA) error {
	img := fb.ToImage()
	if bg != nil {
		img = fb.Flatten(*bg)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	return f.Close()
}
