package screens

import (
	"image"

	"github.com/craigm26/BARTDepartureBoard/internal/render"
	"github.com/craigm26/BARTDepartureBoard/internal/render/layout"
	"github.com/craigm26/BARTDepartureBoard/internal/state"
	"github.com/craigm26/BARTDepartureBoard/internal/transit"
)

// StatusBoard shows the line-wide status and scrolls every alert title.
type StatusBoard struct {
	ticker *Ticker
}

func NewStatusBoard(speed float64) *StatusBoard {
	return &StatusBoard{ticker: NewTicker(speed, render.TextStyle{Size: render.FontSmall, Color: render.Amber})}
}

func (b *StatusBoard) Draw(d render.Drawer, snap state.State) {
	w, h := d.Size()
	title := render.TextStyle{Size: render.FontMedium, Color: render.Accent}
	small := render.TextStyle{Size: render.FontSmall}

	header, body := layout.SplitHorizontal(image.Rect(0, 0, w, h), lineHeight(d, title)+4)
	body, tickerRect := splitBottom(body, lineHeight(d, small)+2)

	drawCentered(d, "BART System", header, title)

	status := snap.Status
	if !status.Populated() {
		drawCentered(d, "Status Unavailable", body, render.TextStyle{Size: render.FontMedium, Color: render.Dim})
		return
	}
	text, col := "NORMAL", render.Green
	if status.Severity == transit.SeverityAlert {
		text, col = "ALERT", render.Red
	}
	drawCentered(d, text, body, render.TextStyle{Size: render.FontLarge, Color: col})
	b.ticker.Draw(d, status.Ticker(""), tickerRect)
}
