package render

import (
	"image"
	"image/color"
	"image/draw"
	"sync"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Canvas is an offscreen logical canvas. Screens draw into the back
// buffer; present copies it to the front buffer, which Frame reads.
// Drawing methods are meant for the render goroutine only.
type Canvas struct {
	back  *image.RGBA
	fonts *Fonts

	mu    sync.Mutex
	front *image.RGBA
}

func NewCanvas(width, height int, fonts *Fonts) *Canvas {
	if fonts == nil {
		fonts = &Fonts{}
	}
	return &Canvas{
		back:  image.NewRGBA(image.Rect(0, 0, width, height)),
		front: image.NewRGBA(image.Rect(0, 0, width, height)),
		fonts: fonts,
	}
}

func (c *Canvas) Size() (int, int) {
	b := c.back.Bounds()
	return b.Dx(), b.Dy()
}

func (c *Canvas) Clear(col color.Color) {
	draw.Draw(c.back, c.back.Bounds(), &image.Uniform{C: col}, image.Point{}, draw.Src)
}

func (c *Canvas) SetPixel(x, y int, col color.Color) {
	c.back.Set(x, y, col)
}

func (c *Canvas) FillRect(rect image.Rectangle, col color.Color) {
	rect = rect.Intersect(c.back.Bounds())
	if rect.Empty() {
		return
	}
	draw.Draw(c.back, rect, &image.Uniform{C: col}, image.Point{}, draw.Over)
}

func (c *Canvas) MeasureText(text string, style TextStyle) TextMetrics {
	face := c.fonts.Face(style.Size)
	m := face.Metrics()
	return TextMetrics{
		Width:      font.MeasureString(face, text).Ceil(),
		Height:     m.Ascent.Ceil() + m.Descent.Ceil(),
		Ascent:     m.Ascent.Ceil(),
		Descent:    m.Descent.Ceil(),
		LineHeight: m.Height.Ceil(),
	}
}

func (c *Canvas) DrawText(text string, x, y int, style TextStyle) TextMetrics {
	metrics := c.MeasureText(text, style)
	if text == "" {
		return metrics
	}
	switch style.Align {
	case TextAlignCenter:
		x -= metrics.Width / 2
	case TextAlignRight:
		x -= metrics.Width
	}
	col := style.Color
	if col == nil {
		col = Foreground
	}
	drawer := &font.Drawer{
		Dst:  c.back,
		Src:  &image.Uniform{C: col},
		Face: c.fonts.Face(style.Size),
		Dot:  fixed.P(x, y+metrics.Ascent),
	}
	drawer.DrawString(text)
	return metrics
}

func (c *Canvas) GlyphWidth(style TextStyle) int {
	adv, ok := c.fonts.Face(style.Size).GlyphAdvance('0')
	if !ok {
		return 1
	}
	if w := adv.Round(); w > 0 {
		return w
	}
	return 1
}

func (c *Canvas) DrawImageInRect(img image.Image, rect image.Rectangle, mode ScaleMode) {
	if img == nil || rect.Empty() {
		return
	}
	src := img.Bounds()
	if src.Empty() {
		return
	}
	dst := rect
	switch mode {
	case ScaleModeFit:
		w, h := rect.Dx(), rect.Dy()
		if src.Dx()*h > src.Dy()*w {
			h = src.Dy() * w / src.Dx()
		} else {
			w = src.Dx() * h / src.Dy()
		}
		x := rect.Min.X + (rect.Dx()-w)/2
		y := rect.Min.Y + (rect.Dy()-h)/2
		dst = image.Rect(x, y, x+w, y+h)
	case ScaleModeFill:
		// Crop the source to the destination aspect ratio.
		w, h := src.Dx(), src.Dy()
		if w*rect.Dy() > h*rect.Dx() {
			w = h * rect.Dx() / rect.Dy()
		} else {
			h = w * rect.Dy() / rect.Dx()
		}
		x := src.Min.X + (src.Dx()-w)/2
		y := src.Min.Y + (src.Dy()-h)/2
		src = image.Rect(x, y, x+w, y+h)
	}
	xdraw.NearestNeighbor.Scale(c.back, dst, img, src, xdraw.Over, nil)
}

// Back exposes the back buffer to devices.
func (c *Canvas) Back() *image.RGBA { return c.back }

func (c *Canvas) present() {
	c.mu.Lock()
	copy(c.front.Pix, c.back.Pix)
	c.mu.Unlock()
}

// Frame returns a copy of the last presented frame. Safe for concurrent use.
func (c *Canvas) Frame() *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := image.NewRGBA(c.front.Bounds())
	copy(out.Pix, c.front.Pix)
	return out
}
