// Package scroll positions ticker text inside a fixed-width viewport.
//
// Text that fits is centred and static. Longer text moves leftward one pixel
// per offset step: it enters from the right edge, leaves on the left, and
// after a gap one viewport wide enters again. Offsets wrap modulo
// textWidth+viewportWidth, so the sequence 0,1,2,... is periodic.
package scroll

// Frame is what to draw for one offset. X is relative to the viewport's
// left edge and is the draw position of Text, which holds only the glyphs
// that can be at least partly visible.
type Frame struct {
	Text   string
	X      int
	Static bool
	Empty  bool

	// Period is textWidth+viewportWidth for scrolling text, 0 otherwise.
	Period int
}

// Advance computes the frame for offset. It is a pure function of its inputs.
func Advance(text string, viewportWidth, glyphWidth, offset int) Frame {
	runes := []rune(text)
	if len(runes) == 0 || viewportWidth <= 0 || glyphWidth <= 0 {
		return Frame{Empty: true}
	}

	textWidth := len(runes) * glyphWidth
	if textWidth <= viewportWidth {
		return Frame{Text: text, X: (viewportWidth - textWidth) / 2, Static: true}
	}

	period := textWidth + viewportWidth
	pos := offset % period
	if pos < 0 {
		pos += period
	}
	// Draw position of the untrimmed string.
	x := viewportWidth - pos

	first := 0
	if x < 0 {
		first = -x / glyphWidth
	}
	last := (viewportWidth - x + glyphWidth - 1) / glyphWidth
	if last > len(runes) {
		last = len(runes)
	}
	if first >= last {
		return Frame{Empty: true, X: x, Period: period}
	}
	return Frame{
		Text:   string(runes[first:last]),
		X:      x + first*glyphWidth,
		Period: period,
	}
}

// Cursor owns the scroll offset of one ticker. It is not safe for
// concurrent use; the screen drawing the ticker owns it.
type Cursor struct {
	// Speed is in pixels per frame. Fractions accumulate across frames.
	Speed float64

	key    cursorKey
	offset int
	acc    float64
	passes int
	static bool
}

type cursorKey struct {
	text          string
	viewportWidth int
	glyphWidth    int
}

func NewCursor(speed float64) *Cursor {
	return &Cursor{Speed: speed}
}

// Next returns the frame at the current offset and then advances the
// offset for the following frame. Changing text or geometry restarts the
// ticker from offset 0.
func (c *Cursor) Next(text string, viewportWidth, glyphWidth int) Frame {
	key := cursorKey{text: text, viewportWidth: viewportWidth, glyphWidth: glyphWidth}
	if key != c.key {
		c.Reset()
		c.key = key
	}

	frame := Advance(text, viewportWidth, glyphWidth, c.offset)
	if frame.Period == 0 {
		c.static = true
		return frame
	}
	c.static = false

	speed := c.Speed
	if speed <= 0 {
		speed = 1
	}
	c.acc += speed
	steps := int(c.acc)
	c.acc -= float64(steps)
	c.offset += steps
	if c.offset >= frame.Period {
		c.passes += c.offset / frame.Period
		c.offset %= frame.Period
	}
	return frame
}

// Finished reports whether the ticker completed at least one full pass.
// Static and empty text count as finished.
func (c *Cursor) Finished() bool {
	return c.static || c.passes > 0
}

func (c *Cursor) Offset() int { return c.offset }
func (c *Cursor) Passes() int { return c.passes }

func (c *Cursor) Reset() {
	c.key = cursorKey{}
	c.offset = 0
	c.acc = 0
	c.passes = 0
	c.static = false
}
