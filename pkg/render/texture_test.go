package render

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTexture(t *testing.T) {
	tests := []struct {
		name    string
		w, h    int
		pix     int
		wantErr bool
	}{
		{"exact", 2, 3, 24, false},
		{"short", 2, 3, 23, true},
		{"long", 2, 3, 25, true},
		{"zero width", 0, 3, 0, true},
		{"negative height", 2, -1, 0, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tex, err := NewTexture(tc.w, tc.h, make([]uint8, tc.pix))
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrTextureSize)
				assert.Nil(t, tex)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.w, tex.Width)
			assert.Equal(t, tc.h, tex.Height)
		})
	}
}

func TestTexelClamps(t *testing.T) {
	tex := NewCheckerTexture(4, 4, 2, red, blue)

	tests := []struct {
		name string
		x, y int
		want color.RGBA
	}{
		{"origin", 0, 0, red},
		{"second check", 2, 0, blue},
		{"diagonal check", 2, 2, red},
		{"left of image", -5, 0, red},
		{"right of image", 99, 0, blue},
		{"below image", 3, 99, red},
		{"above image", 3, -1, blue},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tex.Texel(tc.x, tc.y))
		})
	}
}

func TestMultiplyColor(t *testing.T) {
	c := color.RGBA{200, 100, 50, 128}
	assert.Equal(t, color.RGBA{0, 0, 0, 128}, MultiplyColor(c, 0))
	assert.Equal(t, color.RGBA{100, 50, 25, 128}, MultiplyColor(c, 0.5))
	assert.Equal(t, color.RGBA{255, 200, 100, 128}, MultiplyColor(c, 2))
}

func TestTextureFromImage(t *testing.T) {
	// A sub-image has a non-zero origin and a wider stride.
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	src.SetRGBA(2, 1, red)
	sub := src.SubImage(image.Rect(1, 1, 3, 3))

	tex, err := TextureFromImage(sub)
	require.NoError(t, err)
	assert.Equal(t, 2, tex.Width)
	assert.Equal(t, 2, tex.Height)
	assert.Len(t, tex.Pix, 16)
	assert.Equal(t, red, tex.Texel(1, 0))
	assert.Equal(t, color.RGBA{}, tex.Texel(0, 0))

	gray := image.NewGray(image.Rect(0, 0, 1, 1))
	gray.Pix[0] = 90
	tex, err = TextureFromImage(gray)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{90, 90, 90, 255}, tex.Texel(0, 0))
}

func TestTextureFromEmptyImage(t *testing.T) {
	tests := []struct {
		name string
		img  image.Image
	}{
		{"zero rect", image.NewRGBA(image.Rect(0, 0, 0, 0))},
		{"zero width", image.NewGray(image.Rect(0, 0, 0, 5))},
		{"empty sub-image", image.NewRGBA(image.Rect(0, 0, 4, 4)).SubImage(image.Rect(2, 2, 2, 2))},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tex, err := TextureFromImage(tc.img)
			assert.Nil(t, tex)
			assert.ErrorIs(t, err, ErrTextureSize)
		})
	}
}

func TestSolidTextureMinimumSize(t *testing.T) {
	tex := NewSolidTexture(0, -3, red)
	assert.Equal(t, 1, tex.Width)
	assert.Equal(t, 1, tex.Height)
	assert.Equal(t, red, tex.Texel(5, 5))
}

func TestLoadTexturePNG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.SetRGBA(0, 0, red)
	img.SetRGBA(2, 1, blue)

	path := filepath.Join(t.TempDir(), "tex.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	tex, err := LoadTexture(path)
	require.NoError(t, err)
	assert.Equal(t, 3, tex.Width)
	assert.Equal(t, 2, tex.Height)
	assert.Equal(t, red, tex.Texel(0, 0))
	assert.Equal(t, blue, tex.Texel(2, 1))
}

func TestLoadTextureErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadTexture(filepath.Join(dir, "missing.png"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadTexture(filepath.Join(dir, "missing.tga"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	empty := filepath.Join(dir, "empty.tga")
	require.NoError(t, os.WriteFile(empty, tgaHeader(2, 0, 0, 24, 0), 0o644))
	_, err = LoadTexture(empty)
	assert.Error(t, err)

	junk := filepath.Join(dir, "junk.png")
	require.NoError(t, os.WriteFile(junk, []byte("not an image"), 0o644))
	_, err = LoadTexture(junk)
	assert.Error(t, err)
}

func TestLoadTextureTGA(t *testing.T) {
	// 2x1 bottom-up BGR: blue then red.
	data := tgaHeader(2, 2, 1, 24, 0)
	data = append(data, 255, 0, 0, 0, 0, 255)

	path := filepath.Join(t.TempDir(), "tex.TGA")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	tex, err := LoadTexture(path)
	require.NoError(t, err)
	assert.Equal(t, blue, tex.Texel(0, 0))
	assert.Equal(t, red, tex.Texel(1, 0))
}

func tgaHeader(imageType byte, w, h int, bpp, desc byte) []byte {
	hdr := make([]byte, 18)
	hdr[2] = imageType
	hdr[12], hdr[13] = byte(w), byte(w>>8)
	hdr[14], hdr[15] = byte(h), byte(h>>8)
	hdr[16] = bpp
	hdr[17] = desc
	return hdr
}

func TestDecodeTGA(t *testing.T) {
	green := color.RGBA{0, 255, 0, 255}
	half := color.RGBA{0, 0, 255, 128}

	tests := []struct {
		name string
		data []byte
		// want is indexed [y][x] in image orientation.
		want [][]color.RGBA
	}{
		{
			name: "bottom-up true color",
			data: append(tgaHeader(2, 1, 2, 24, 0), 0, 0, 255, 0, 255, 0),
			want: [][]color.RGBA{{green}, {red}},
		},
		{
			name: "top-down true color",
			data: append(tgaHeader(2, 1, 2, 24, 0x20), 0, 0, 255, 0, 255, 0),
			want: [][]color.RGBA{{red}, {green}},
		},
		{
			name: "32 bit keeps alpha",
			data: append(tgaHeader(2, 1, 1, 32, 0x20), 255, 0, 0, 128),
			want: [][]color.RGBA{{half}},
		},
		{
			name: "grayscale",
			data: append(tgaHeader(3, 2, 1, 8, 0x20), 10, 200),
			want: [][]color.RGBA{{{10, 10, 10, 255}, {200, 200, 200, 255}}},
		},
		{
			name: "rle run and raw packet",
			// Run of 2 red, then a raw packet of 1 green.
			data: append(tgaHeader(10, 3, 1, 24, 0x20), 0x81, 0, 0, 255, 0x00, 0, 255, 0),
			want: [][]color.RGBA{{red, red, green}},
		},
		{
			name: "rle grayscale",
			data: append(tgaHeader(11, 2, 2, 8, 0x20), 0x83, 77),
			want: [][]color.RGBA{
				{{77, 77, 77, 255}, {77, 77, 77, 255}},
				{{77, 77, 77, 255}, {77, 77, 77, 255}},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			img, err := DecodeTGA(tc.data)
			require.NoError(t, err)
			rgba, ok := img.(*image.RGBA)
			require.True(t, ok)
			for y, row := range tc.want {
				for x, want := range row {
					assert.Equal(t, want, rgba.RGBAAt(x, y), "pixel (%d,%d)", x, y)
				}
			}
		})
	}
}

func TestDecodeTGAErrors(t *testing.T) {
	colorMapped := tgaHeader(1, 1, 1, 8, 0)
	colorMapped[1] = 1

	tests := []struct {
		name string
		data []byte
		is   error
	}{
		{"short header", make([]byte, 10), errTGATruncated},
		{"color mapped", colorMapped, nil},
		{"unsupported type", tgaHeader(9, 1, 1, 24, 0), nil},
		{"bad true color depth", tgaHeader(2, 1, 1, 16, 0), nil},
		{"bad gray depth", tgaHeader(3, 1, 1, 24, 0), nil},
		{"truncated pixels", append(tgaHeader(2, 2, 1, 24, 0), 1, 2, 3), errTGATruncated},
		{"truncated rle", append(tgaHeader(10, 4, 1, 24, 0), 0x81, 1, 2, 3), errTGATruncated},
		{"truncated id field", func() []byte { h := tgaHeader(2, 1, 1, 24, 0); h[0] = 40; return h }(), errTGATruncated},
		{"zero width", tgaHeader(2, 0, 4, 24, 0), nil},
		// Headers alone claiming huge images are rejected before any
		// pixel buffer is allocated.
		{"huge header", tgaHeader(2, 20000, 20000, 32, 0), errTGATruncated},
		{"huge rle header", tgaHeader(10, 65535, 65535, 32, 0), errTGATruncated},
		{"rle shorter than packet minimum", append(tgaHeader(11, 200, 2, 8, 0), 0xff, 1, 0xff, 2), errTGATruncated},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			img, err := DecodeTGA(tc.data)
			assert.Nil(t, img)
			require.Error(t, err)
			if tc.is != nil {
				assert.ErrorIs(t, err, tc.is)
			}
		})
	}
}
