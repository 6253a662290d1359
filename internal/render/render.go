package render

import (
	"context"
	"errors"
	"image"
	"image/color"

	"github.com/craigm26/BARTDepartureBoard/internal/state"
)

// ErrRenderTargetUnavailable is returned when the output device cannot be
// opened. The board cannot run without it.
var ErrRenderTargetUnavailable = errors.New("render target unavailable")

type Logger interface {
	Infof(component string, format string, args ...interface{})
	Errorf(component string, format string, args ...interface{})
}

// Drawer is what screens paint through. Coordinates are logical canvas
// pixels; anything outside the canvas is clipped.
type Drawer interface {
	// Size returns the logical canvas size (in pixels) that screens draw into.
	Size() (width int, height int)

	Clear(c color.Color)
	SetPixel(x, y int, c color.Color)
	FillRect(rect image.Rectangle, c color.Color)

	MeasureText(text string, style TextStyle) TextMetrics
	DrawText(text string, x, y int, style TextStyle) TextMetrics

	// GlyphWidth is the advance of one glyph in the monospace face used for
	// style. Tickers use it to scroll in whole-glyph steps.
	GlyphWidth(style TextStyle) int

	DrawImageInRect(img image.Image, rect image.Rectangle, mode ScaleMode)
}

// Device is a pixel-addressable display. Its resolution is fixed when it
// is constructed. Drawing goes to a back buffer; Swap presents it.
type Device interface {
	Drawer
	Start(ctx context.Context) error
	Stop() error
	Swap() error
}

// Screen paints one board from a snapshot. Screens may keep per-frame
// animation state (scroll cursors) but never touch shared state directly.
type Screen interface {
	Draw(d Drawer, snap state.State)
}

type ScreenFunc func(d Drawer, snap state.State)

func (f ScreenFunc) Draw(d Drawer, snap state.State) { f(d, snap) }

type TextAlign int

const (
	TextAlignLeft TextAlign = iota
	TextAlignCenter
	TextAlignRight
)

// FontSize selects one of the loaded faces.
type FontSize int

const (
	FontSmall FontSize = iota
	FontMedium
	FontLarge
)

// TextStyle describes how to render text.
// Coordinates for DrawText use a top-left anchor for Y.
// For X, Align controls how x is interpreted.
type TextStyle struct {
	Color color.Color
	Size  FontSize
	Align TextAlign
}

type TextMetrics struct {
	Width      int
	Height     int
	Ascent     int
	Descent    int
	LineHeight int
}

type ScaleMode int

const (
	ScaleModeFit ScaleMode = iota
	ScaleModeFill
	ScaleModeStretch
)
