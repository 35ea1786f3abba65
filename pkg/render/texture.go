package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"math"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp" // Register BMP decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // Register TIFF decoder
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// ErrTextureSize is returned for a texture with no pixels or with a pixel
// slice that does not match its dimensions.
var ErrTextureSize = errors.New("invalid texture size")

// Texture is a row-major RGBA raster with its origin at the top-left.
type Texture struct {
	Width  int
	Height int
	Pix    []uint8 // Width*Height*4 bytes
}

// NewTexture wraps pix as a texture. pix must hold exactly width*height
// RGBA pixels.
func NewTexture(width, height int, pix []uint8) (*Texture, error) {
	if width <= 0 || height <= 0 || len(pix) != width*height*4 {
		return nil, fmt.Errorf("%w: %dx%d with %d bytes", ErrTextureSize, width, height, len(pix))
	}
	return &Texture{Width: width, Height: height, Pix: pix}, nil
}

// TextureFromImage copies any image into a texture. An image with no
// pixels is rejected with ErrTextureSize.
func TextureFromImage(img image.Image) (*Texture, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: empty %dx%d image", ErrTextureSize, b.Dx(), b.Dy())
	}
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != b.Dx()*4 {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	pix := make([]uint8, b.Dx()*b.Dy()*4)
	copy(pix, rgba.Pix)
	return &Texture{Width: b.Dx(), Height: b.Dy(), Pix: pix}, nil
}

// validate reports whether t has pixels and a Pix slice large enough for
// its dimensions.
func (t *Texture) validate() error {
	if t.Width <= 0 || t.Height <= 0 || len(t.Pix) < t.Width*t.Height*4 {
		return fmt.Errorf("%w: %dx%d with %d bytes", ErrTextureSize, t.Width, t.Height, len(t.Pix))
	}
	return nil
}

// LoadTexture reads a texture file. TGA is recognized by extension; every
// other format is sniffed by the registered image decoders.
func LoadTexture(path string) (*Texture, error) {
	if strings.EqualFold(filepath.Ext(path), ".tga") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open texture: %w", err)
		}
		img, err := DecodeTGA(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode tga: %w", err)
		}
		return TextureFromImage(img)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open texture: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return TextureFromImage(img)
}

// NewSolidTexture creates a texture of a single color. Non-positive
// dimensions are raised to 1.
func NewSolidTexture(width, height int, c color.RGBA) *Texture {
	width, height = max(width, 1), max(height, 1)
	tex := &Texture{Width: width, Height: height, Pix: make([]uint8, width*height*4)}
	for i := 0; i < len(tex.Pix); i += 4 {
		tex.Pix[i], tex.Pix[i+1], tex.Pix[i+2], tex.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return tex
}

// NewCheckerTexture creates a procedural checkerboard texture.
func NewCheckerTexture(width, height, checkSize int, c1, c2 color.RGBA) *Texture {
	tex := NewSolidTexture(width, height, c1)
	checkSize = max(checkSize, 1)
	for y := range tex.Height {
		for x := range tex.Width {
			if (x/checkSize+y/checkSize)%2 == 1 {
				tex.set(x, y, c2)
			}
		}
	}
	return tex
}

func (t *Texture) set(x, y int, c color.RGBA) {
	i := (y*t.Width + x) * 4
	t.Pix[i], t.Pix[i+1], t.Pix[i+2], t.Pix[i+3] = c.R, c.G, c.B, c.A
}

// Texel returns the pixel at (x, y), clamping both coordinates to the
// image.
func (t *Texture) Texel(x, y int) color.RGBA {
	x = min(max(x, 0), t.Width-1)
	y = min(max(y, 0), t.Height-1)
	i := (y*t.Width + x) * 4
	return color.RGBA{t.Pix[i], t.Pix[i+1], t.Pix[i+2], t.Pix[i+3]}
}

// MultiplyColor scales RGB by intensity (for lighting). Alpha is kept.
func MultiplyColor(c color.RGBA, intensity float64) color.RGBA {
	return color.RGBA{
		R: uint8(math.Min(255, float64(c.R)*intensity)),
		G: uint8(math.Min(255, float64(c.G)*intensity)),
		B: uint8(math.Min(255, float64(c.B)*intensity)),
		A: c.A,
	}
}
