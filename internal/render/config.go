package render

import "image/color"

// Board palette.
var (
	Background = color.RGBA{R: 0x00, G: 0x00, B: 0x00, A: 0xFF}
	Foreground = color.RGBA{R: 0xF2, G: 0xF2, B: 0xF2, A: 0xFF}

	Amber  = color.RGBA{R: 0xFF, G: 0xA5, B: 0x00, A: 0xFF}
	Red    = color.RGBA{R: 0xE0, G: 0x2B, B: 0x2B, A: 0xFF}
	Green  = color.RGBA{R: 0x33, G: 0xCC, B: 0x55, A: 0xFF}
	Dim    = color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xFF}
	Accent = color.RGBA{R: 0x00, G: 0x99, B: 0xD8, A: 0xFF}
)

var lineColors = map[string]color.RGBA{
	"yellow": {R: 0xFF, G: 0xE6, B: 0x00, A: 0xFF},
	"orange": {R: 0xF8, G: 0x9C, B: 0x1C, A: 0xFF},
	"green":  {R: 0x4D, G: 0xB8, B: 0x48, A: 0xFF},
	"red":    {R: 0xED, G: 0x1C, B: 0x24, A: 0xFF},
	"blue":   {R: 0x00, G: 0x99, B: 0xD8, A: 0xFF},
	"grey":   {R: 0xB0, G: 0xB0, B: 0xB0, A: 0xFF},
}

// LineColor maps a colour name from transit.LineColor to the palette.
func LineColor(name string) color.RGBA {
	if c, ok := lineColors[name]; ok {
		return c
	}
	return Foreground
}
