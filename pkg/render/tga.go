package render

import (
	"errors"
	"fmt"
	"image"
)

// TGA image types understood by DecodeTGA.
const (
	tgaTrueColor    = 2
	tgaGray         = 3
	tgaTrueColorRLE = 10
	tgaGrayRLE      = 11
)

var errTGATruncated = errors.New("tga data truncated")

// DecodeTGA decodes uncompressed or RLE true-color (24/32 bit) and
// grayscale (8 bit) TGA data. Color-mapped images are rejected.
func DecodeTGA(data []byte) (image.Image, error) {
	if len(data) < 18 {
		return nil, errTGATruncated
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := data[2]
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	topToBottom := data[17]&0x20 != 0

	if colorMapType != 0 {
		return nil, fmt.Errorf("color-mapped tga not supported")
	}

	gray := imageType == tgaGray || imageType == tgaGrayRLE
	rle := imageType == tgaTrueColorRLE || imageType == tgaGrayRLE
	switch {
	case imageType != tgaTrueColor && imageType != tgaTrueColorRLE && !gray:
		return nil, fmt.Errorf("unsupported tga type %d", imageType)
	case gray && bpp != 8:
		return nil, fmt.Errorf("unsupported grayscale tga bit depth %d", bpp)
	case !gray && bpp != 24 && bpp != 32:
		return nil, fmt.Errorf("unsupported tga bit depth %d", bpp)
	}

	if 18+idLength > len(data) {
		return nil, errTGATruncated
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("tga has zero size %dx%d", width, height)
	}
	src := data[18+idLength:]
	bytesPerPixel := bpp / 8
	n := width * height

	// Bound the allocation by what the input can actually encode. An RLE
	// packet covers at most 128 pixels with a header byte and one pixel.
	need := n * bytesPerPixel
	if rle {
		need = (n + 127) / 128 * (1 + bytesPerPixel)
	}
	if len(src) < need {
		return nil, errTGATruncated
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))

	// put stores the pixel at src[off:] as the idx-th pixel in file order.
	put := func(idx, off int) {
		x, y := idx%width, idx/width
		if !topToBottom {
			y = height - 1 - y
		}
		p := img.PixOffset(x, y)
		if gray {
			v := src[off]
			img.Pix[p], img.Pix[p+1], img.Pix[p+2], img.Pix[p+3] = v, v, v, 255
			return
		}
		a := uint8(255)
		if bytesPerPixel == 4 {
			a = src[off+3]
		}
		img.Pix[p], img.Pix[p+1], img.Pix[p+2], img.Pix[p+3] = src[off+2], src[off+1], src[off], a
	}

	if !rle {
		for i := range n {
			put(i, i*bytesPerPixel)
		}
		return img, nil
	}

	off := 0
	for idx := 0; idx < n; {
		if off >= len(src) {
			return nil, errTGATruncated
		}
		header := src[off]
		off++
		count := int(header&0x7f) + 1

		if header&0x80 != 0 {
			if off+bytesPerPixel > len(src) {
				return nil, errTGATruncated
			}
			for ; count > 0 && idx < n; count-- {
				put(idx, off)
				idx++
			}
			off += bytesPerPixel
			continue
		}

		for ; count > 0 && idx < n; count-- {
			if off+bytesPerPixel > len(src) {
				return nil, errTGATruncated
			}
			put(idx, off)
			off += bytesPerPixel
			idx++
		}
	}
	return img, nil
}
