package hostwindow

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// colorToRGB unpacks a framebuffer pixel into 8-bit channels. Pixels are
// produced by wipic.GraphicsContext calls under either 0xAARRGGBB
// (32bpp ARGB) or a widened RGB565 value; both put the same byte-aligned
// red/green/blue triplet in bits 16-23/8-15/0-7, so one extraction covers
// both without needing the originating bpp here.
func colorToRGB(c uint32) (r, g, b uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}

func hexColor(r, g, b uint8) lipgloss.Color {
	const hexDigits = "0123456789abcdef"
	buf := [7]byte{'#'}
	for i, v := range [3]uint8{r, g, b} {
		buf[1+i*2] = hexDigits[v>>4]
		buf[2+i*2] = hexDigits[v&0xF]
	}
	return lipgloss.Color(buf[:])
}

// renderFramebuffer downsamples a width x height pixel buffer into a
// terminal grid using the half-block technique: each output row packs
// two source rows into one character cell (▀ foreground = top pixel,
// background = bottom pixel), so a 240x320 back-buffer renders as
// roughly 240x160 terminal cells instead of needing double that many
// rows. cols/rows bound the output size (spec §1.7, config.WindowConfig);
// pixels outside that grid are sampled by nearest-neighbor, not averaged.
func renderFramebuffer(pixels []uint32, width, height, cols, rows int) string {
	if width <= 0 || height <= 0 || len(pixels) < width*height {
		return ""
	}
	if cols <= 0 {
		cols = width
	}
	if rows <= 0 {
		rows = height / 2
	}

	var b strings.Builder
	for row := 0; row < rows; row++ {
		topY := row * 2 * height / (rows * 2)
		botY := (row*2 + 1) * height / (rows * 2)
		if botY >= height {
			botY = height - 1
		}
		for col := 0; col < cols; col++ {
			x := col * width / cols
			top := pixels[topY*width+x]
			bot := pixels[botY*width+x]
			tr, tg, tb := colorToRGB(top)
			br, bg, bb := colorToRGB(bot)
			style := lipgloss.NewStyle().Foreground(hexColor(tr, tg, tb)).Background(hexColor(br, bg, bb))
			b.WriteString(style.Render("▀"))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
