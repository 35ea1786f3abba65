package render

import (
	"image/color"

	uv "github.com/charmbracelet/ultraviolet"
)

// Draw blits the color buffer onto a terminal screen. Each cell shows two
// framebuffer rows with an upper half block: the foreground is the top
// pixel and the background the bottom one. The frame's top-left pixel
// lands on area.Min; cells past the frame are left untouched.
func (fb *Framebuffer) Draw(scr uv.Screen, area uv.Rectangle) {
	for row := area.Min.Y; row < area.Max.Y; row++ {
		topY := (row - area.Min.Y) * 2
		if topY >= fb.Size {
			break
		}
		botY := topY + 1

		for col := area.Min.X; col < area.Max.X; col++ {
			x := col - area.Min.X
			if x >= fb.Size {
				break
			}

			scr.SetCell(col, row, &uv.Cell{
				Content: "▀",
				Width:   1,
				Style: uv.Style{
					Fg: rgbaToColor(fb.PixelAt(x, topY)),
					Bg: rgbaToColor(fb.PixelAt(x, botY)),
				},
			})
		}
	}
}

// CellSize returns the terminal cells needed to show a size x size frame.
func CellSize(size int) (cols, rows int) {
	return size, (size + 1) / 2
}

// rgbaToColor returns nil for fully transparent pixels so the terminal's
// default color shows through.
func rgbaToColor(c color.RGBA) color.Color {
	if c.A == 0 {
		return nil
	}
	return c
}
