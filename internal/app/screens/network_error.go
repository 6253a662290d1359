package screens

import (
	"image"
	"strings"

	"github.com/craigm26/BARTDepartureBoard/internal/render"
	"github.com/craigm26/BARTDepartureBoard/internal/render/layout"
	"github.com/craigm26/BARTDepartureBoard/internal/state"
)

const defaultFramesPerDot = 15

// NetworkErrorBoard is shown while the last worker tick had a failed poll.
// The dots after "Connecting" advance with the frame count.
type NetworkErrorBoard struct {
	FramesPerDot int

	frame int
}

func (b *NetworkErrorBoard) Draw(d render.Drawer, snap state.State) {
	w, h := d.Size()
	top, bottom := layout.SplitHorizontal(image.Rect(0, 0, w, h), h/2)

	drawCentered(d, "Network Error", top, render.TextStyle{Size: render.FontLarge, Color: render.Red})

	style := render.TextStyle{Size: render.FontMedium, Color: render.Red}
	label := "Connecting"
	m := d.MeasureText(label, style)
	// The label stays put while the dots grow to its right.
	x := bottom.Min.X + (bottom.Dx()-d.MeasureText(label+"...", style).Width)/2
	y := bottom.Min.Y + (bottom.Dy()-m.Height)/2
	d.DrawText(label+b.Dots(), x, y, style)
	b.frame++
}

// Dots returns the animated suffix for the current frame.
func (b *NetworkErrorBoard) Dots() string {
	per := b.FramesPerDot
	if per <= 0 {
		per = defaultFramesPerDot
	}
	return strings.Repeat(".", (b.frame/per)%4)
}
