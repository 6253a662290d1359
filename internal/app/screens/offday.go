package screens

import (
	"fmt"
	"image"
	"math"
	"time"

	"github.com/craigm26/BARTDepartureBoard/internal/config"
	"github.com/craigm26/BARTDepartureBoard/internal/render"
	"github.com/craigm26/BARTDepartureBoard/internal/render/layout"
	"github.com/craigm26/BARTDepartureBoard/internal/state"
	"github.com/craigm26/BARTDepartureBoard/internal/transit"
)

// Smallest square a QR code is drawn into; below that it is unreadable.
const minQRSizePx = 25

// OffdayBoard is shown when the stop has no trains, and for news.
type OffdayBoard struct {
	TimeFormat   string
	ServiceHours string
	InfoURL      string
	Now          func() time.Time
	Logger       Logger

	ticker   *Ticker
	qr       render.QRCache
	qrLogged bool
}

func NewOffdayBoard(timeFormat, serviceHours, infoURL string, speed float64) *OffdayBoard {
	return &OffdayBoard{
		TimeFormat:   timeFormat,
		ServiceHours: serviceHours,
		InfoURL:      infoURL,
		Now:          time.Now,
		ticker:       NewTicker(speed, render.TextStyle{Size: render.FontSmall, Color: render.Foreground}),
	}
}

func (b *OffdayBoard) Draw(d render.Drawer, snap state.State) {
	w, h := d.Size()
	small := render.TextStyle{Size: render.FontSmall}
	body, tickerRect := splitBottom(image.Rect(0, 0, w, h), lineHeight(d, small)+2)
	body = b.drawQR(d, body)

	rows := layout.Rows(body, 3)
	drawCentered(d, "No Service", rows[0], render.TextStyle{Size: render.FontMedium, Color: render.Amber})
	drawCentered(d, clockText(b.now(), b.TimeFormat), rows[1], render.TextStyle{Size: render.FontLarge, Color: render.Foreground})
	if snap.Weather.Available() {
		drawCentered(d, WeatherText(snap.Weather), rows[2], render.TextStyle{Size: render.FontSmall, Color: render.Accent})
	}

	b.ticker.Draw(d, b.TickerText(snap), tickerRect)
}

// TickerText picks news first, then alert titles, then service hours.
func (b *OffdayBoard) TickerText(snap state.State) string {
	if snap.NewsAvailable() {
		return snap.News
	}
	if alerts := snap.Status.Ticker(""); alerts != "" {
		return alerts
	}
	if b.ServiceHours != "" {
		return b.ServiceHours
	}
	return config.DefaultServiceHours
}

// drawQR puts the info link QR code on the right of body when it fits and
// returns the space left for text.
func (b *OffdayBoard) drawQR(d render.Drawer, body image.Rectangle) image.Rectangle {
	if b.InfoURL == "" {
		return body
	}
	size := body.Dy() - 4
	if third := body.Dx() / 3; third < size {
		size = third
	}
	if size < minQRSizePx {
		return body
	}
	img, err := b.qr.Get(b.InfoURL, size)
	if err != nil {
		if !b.qrLogged && b.Logger != nil {
			b.Logger.Errorf("render", "qr code for %q failed: %v", b.InfoURL, err)
			b.qrLogged = true
		}
		return body
	}
	text, right := layout.SplitVertical(body, body.Dx()-size-4)
	d.DrawImageInRect(img, layout.FitSquare(layout.Inset(right, 2)), render.ScaleModeFit)
	return text
}

func (b *OffdayBoard) now() time.Time {
	if b.Now == nil {
		return time.Now()
	}
	return b.Now()
}

// WeatherText formats a reading as e.g. "62°F Clear".
func WeatherText(w transit.Weather) string {
	unit := w.Unit
	if unit == "" {
		unit = "F"
	}
	text := fmt.Sprintf("%d°%s", int(math.Round(w.Temperature)), unit)
	if w.Conditions != "" {
		text += " " + w.Conditions
	}
	return text
}
