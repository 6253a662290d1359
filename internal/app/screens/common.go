package screens

import (
	"fmt"
	"image"
	"time"

	"github.com/craigm26/BARTDepartureBoard/internal/config"
	"github.com/craigm26/BARTDepartureBoard/internal/render"
	"github.com/craigm26/BARTDepartureBoard/internal/render/layout"
	"github.com/craigm26/BARTDepartureBoard/internal/render/scroll"
)

type Logger interface {
	Infof(component string, format string, args ...interface{})
	Errorf(component string, format string, args ...interface{})
}

const (
	maxNameRunes  = 12
	keptNameRunes = 10
)

// Ticker is a single scrolling line. It keeps its own cursor, so each
// board that scrolls owns one.
type Ticker struct {
	Style  render.TextStyle
	cursor *scroll.Cursor
}

func NewTicker(speed float64, style render.TextStyle) *Ticker {
	return &Ticker{Style: style, cursor: scroll.NewCursor(speed)}
}

// Draw paints the next frame of text inside rect and advances the cursor.
func (t *Ticker) Draw(d render.Drawer, text string, rect image.Rectangle) scroll.Frame {
	frame := t.cursor.Next(text, rect.Dx(), d.GlyphWidth(t.Style))
	if frame.Empty {
		return frame
	}
	style := t.Style
	style.Align = render.TextAlignLeft
	m := d.MeasureText(frame.Text, style)
	d.DrawText(frame.Text, rect.Min.X+frame.X, rect.Min.Y+(rect.Dy()-m.Height)/2, style)
	return frame
}

func (t *Ticker) Finished() bool { return t.cursor.Finished() }
func (t *Ticker) Reset()         { t.cursor.Reset() }

// lineHeight is the band height needed for one line of style.
func lineHeight(d render.Drawer, style render.TextStyle) int {
	m := d.MeasureText("Ag", style)
	if m.LineHeight > m.Height {
		return m.LineHeight
	}
	return m.Height
}

// drawCentered centres text both ways inside rect.
func drawCentered(d render.Drawer, text string, rect image.Rectangle, style render.TextStyle) {
	style.Align = render.TextAlignCenter
	m := d.MeasureText(text, style)
	d.DrawText(text, rect.Min.X+rect.Dx()/2, rect.Min.Y+(rect.Dy()-m.Height)/2, style)
}

func clockText(now time.Time, format string) string {
	if format == config.TimeFormat24h {
		return now.Format("15:04")
	}
	return now.Format("3:04 PM")
}

// truncateName shortens long destinations to fit the board column.
func truncateName(name string) string {
	runes := []rune(name)
	if len(runes) <= maxNameRunes {
		return name
	}
	return string(runes[:keptNameRunes]) + ".."
}

func minutesText(minutes int) string {
	if minutes == 0 {
		return "Now"
	}
	return fmt.Sprintf("%d", minutes)
}

// splitBottom cuts a band of heightPx off the bottom of rect.
func splitBottom(rect image.Rectangle, heightPx int) (image.Rectangle, image.Rectangle) {
	return layout.SplitHorizontal(rect, rect.Dy()-heightPx)
}
