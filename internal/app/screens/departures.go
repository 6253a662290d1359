package screens

import (
	"image"
	"image/color"
	"time"

	"github.com/craigm26/BARTDepartureBoard/internal/render"
	"github.com/craigm26/BARTDepartureBoard/internal/render/layout"
	"github.com/craigm26/BARTDepartureBoard/internal/state"
	"github.com/craigm26/BARTDepartureBoard/internal/transit"
)

const maxDepartureRows = 3

var headerBackground = color.RGBA{R: 0x00, G: 0x2B, B: 0x55, A: 0xFF}

// DeparturesBoard shows the current stop: a header with the station name
// and clock, up to three departures and a ticker of alerts for the stop.
type DeparturesBoard struct {
	TimeFormat string
	Now        func() time.Time

	ticker *Ticker
	code   string
}

func NewDeparturesBoard(timeFormat string, speed float64) *DeparturesBoard {
	return &DeparturesBoard{
		TimeFormat: timeFormat,
		Now:        time.Now,
		ticker:     NewTicker(speed, render.TextStyle{Size: render.FontSmall, Color: render.Amber}),
	}
}

func (b *DeparturesBoard) Draw(d render.Drawer, snap state.State) {
	if snap.Stop == nil {
		return
	}
	stop := snap.Stop
	if stop.Code != b.code {
		b.code = stop.Code
		b.ticker.Reset()
	}

	w, h := d.Size()
	medium := render.TextStyle{Size: render.FontMedium}
	small := render.TextStyle{Size: render.FontSmall, Color: render.Dim}

	header, body := layout.SplitHorizontal(image.Rect(0, 0, w, h), lineHeight(d, medium)+2)
	columns, body := layout.SplitHorizontal(body, lineHeight(d, small))
	body, tickerRect := splitBottom(body, lineHeight(d, small)+2)

	d.FillRect(header, headerBackground)
	nameY := header.Min.Y + 1
	d.DrawText(stop.Name, header.Min.X+2, nameY, render.TextStyle{Size: render.FontMedium, Color: render.Foreground})
	d.DrawText(clockText(b.now(), b.TimeFormat), header.Max.X-2, nameY, render.TextStyle{Size: render.FontMedium, Color: render.Foreground, Align: render.TextAlignRight})

	cols := departureColumns(body)
	d.DrawText("Dest", cols.dest, columns.Min.Y, small)
	small.Align = render.TextAlignRight
	d.DrawText("Min", cols.minutes, columns.Min.Y, small)
	d.DrawText("Plat", cols.platform, columns.Min.Y, small)

	if !stop.HasDepartures() {
		drawCentered(d, "No departures", body, medium)
	} else {
		rows := layout.Rows(body, maxDepartureRows)
		for i, dep := range stop.Departures {
			if i >= maxDepartureRows {
				break
			}
			drawDepartureRow(d, dep, rows[i], cols)
		}
	}

	b.ticker.Draw(d, snap.Status.Ticker(stop.Code), tickerRect)
}

// Finished reports whether the alert ticker for the stop drawn last has
// completed a pass.
func (b *DeparturesBoard) Finished() bool { return b.ticker.Finished() }

func (b *DeparturesBoard) now() time.Time {
	if b.Now == nil {
		return time.Now()
	}
	return b.Now()
}

type columnX struct {
	bar      int
	dest     int
	minutes  int // right edge
	platform int // right edge
}

func departureColumns(rect image.Rectangle) columnX {
	w := rect.Dx()
	return columnX{
		bar:      rect.Min.X + 2,
		dest:     rect.Min.X + 8,
		minutes:  rect.Min.X + w*78/100,
		platform: rect.Max.X - 2,
	}
}

func drawDepartureRow(d render.Drawer, dep transit.Departure, row image.Rectangle, cols columnX) {
	style := render.TextStyle{Size: render.FontMedium, Color: render.Foreground}
	m := d.MeasureText("Ag", style)
	y := row.Min.Y + (row.Dy()-m.Height)/2

	d.FillRect(image.Rect(cols.bar, y, cols.bar+3, y+m.Height), render.LineColor(transit.LineColor(dep.Line)))
	d.DrawText(truncateName(dep.Destination), cols.dest, y, style)

	style.Align = render.TextAlignRight
	style.Color = MinutesColor(dep)
	d.DrawText(minutesText(dep.Minutes), cols.minutes, y, style)

	style.Color = render.Dim
	d.DrawText(dep.Platform, cols.platform, y, style)
}

// MinutesColor picks the colour of the minutes column: boarding, arriving,
// delayed and on time, in that order of priority.
func MinutesColor(dep transit.Departure) color.RGBA {
	switch {
	case dep.Boarding():
		return render.Green
	case dep.Arriving():
		return render.Amber
	case dep.Delayed():
		return render.Red
	default:
		return render.Foreground
	}
}
