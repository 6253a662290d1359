package render

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// TerminalDevice renders the canvas into a truecolor terminal using upper
// half blocks, two canvas rows per cell row.
type TerminalDevice struct {
	*Canvas
	Logger Logger

	// Out defaults to os.Stdout. Cols and Rows override the detected
	// terminal size when non-zero.
	Out  io.Writer
	Cols int
	Rows int

	started bool
}

func NewTerminalDevice(width, height int, fonts *Fonts) *TerminalDevice {
	return &TerminalDevice{Canvas: NewCanvas(width, height, fonts)}
}

func (d *TerminalDevice) Start(ctx context.Context) error {
	if d.Out == nil {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("%w: stdout is not a terminal", ErrRenderTargetUnavailable)
		}
		d.Out = os.Stdout
	}
	if _, err := io.WriteString(d.Out, "\x1b[?1049h\x1b[?25l\x1b[?7l\x1b[H"); err != nil {
		return fmt.Errorf("%w: %v", ErrRenderTargetUnavailable, err)
	}
	d.started = true
	if d.Logger != nil {
		cols, rows := d.cells()
		d.Logger.Infof("term", "terminal output, cells=%dx%d", cols, rows)
	}
	return nil
}

func (d *TerminalDevice) Stop() error {
	if !d.started {
		return nil
	}
	d.started = false
	_, err := io.WriteString(d.Out, "\x1b[0m\x1b[?7h\x1b[?25h\x1b[?1049l")
	return err
}

func (d *TerminalDevice) Swap() error {
	d.present()
	if !d.started {
		return nil
	}
	cols, rows := d.cells()
	_, err := io.WriteString(d.Out, encodeHalfBlocks(d.Back(), cols, rows))
	return err
}

// cells returns the output size in character cells, clamped so the canvas
// is never upscaled.
func (d *TerminalDevice) cells() (int, int) {
	w, h := d.Size()
	cols, rows := d.Cols, d.Rows
	if cols <= 0 || rows <= 0 {
		if c, r, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			cols, rows = c, r
		} else {
			cols, rows = w, (h+1)/2
		}
	}
	if cols > w {
		cols = w
	}
	if rows > (h+1)/2 {
		rows = (h + 1) / 2
	}
	return cols, rows
}

// encodeHalfBlocks samples img onto a cols x (rows*2) grid and emits one
// "▀" per cell: foreground is the upper pixel, background the lower.
func encodeHalfBlocks(img *image.RGBA, cols, rows int) string {
	if cols <= 0 || rows <= 0 {
		return ""
	}
	b := img.Bounds()
	srcW, srcH := b.Dx(), b.Dy()
	gridH := rows * 2
	var sb strings.Builder
	sb.WriteString("\x1b[H")
	for r := 0; r < rows; r++ {
		sb.WriteString(fmt.Sprintf("\x1b[%d;1H", r+1))
		var lastFg, lastBg [3]uint8
		first := true
		for c := 0; c < cols; c++ {
			sx := b.Min.X + c*srcW/cols
			top := img.RGBAAt(sx, b.Min.Y+(2*r)*srcH/gridH)
			bottom := img.RGBAAt(sx, b.Min.Y+(2*r+1)*srcH/gridH)
			fg := [3]uint8{top.R, top.G, top.B}
			bg := [3]uint8{bottom.R, bottom.G, bottom.B}
			if first || fg != lastFg {
				sb.WriteString(fmt.Sprintf("\x1b[38;2;%d;%d;%dm", fg[0], fg[1], fg[2]))
				lastFg = fg
			}
			if first || bg != lastBg {
				sb.WriteString(fmt.Sprintf("\x1b[48;2;%d;%d;%dm", bg[0], bg[1], bg[2]))
				lastBg = bg
			}
			first = false
			sb.WriteRune('▀')
		}
		sb.WriteString("\x1b[0m")
	}
	return sb.String()
}
