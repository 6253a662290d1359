package scroll

import "testing"

func TestAdvanceEmpty(t *testing.T) {
	frame := Advance("", 20, 6, 3)
	if !frame.Empty || frame.Text != "" {
		t.Fatalf("Advance(\"\") = %+v, want empty", frame)
	}
}

func TestAdvanceStatic(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		viewport int
		glyph    int
		wantX    int
	}{
		{name: "short text centred", text: "AB", viewport: 20, glyph: 6, wantX: 4},
		{name: "exact fit is static", text: "ABCDE", viewport: 20, glyph: 4, wantX: 0},
		{name: "single glyph", text: "!", viewport: 9, glyph: 5, wantX: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, offset := range []int{0, 1, 17, -4} {
				frame := Advance(tt.text, tt.viewport, tt.glyph, offset)
				if !frame.Static || frame.Text != tt.text || frame.X != tt.wantX || frame.Period != 0 {
					t.Fatalf("offset %d: got %+v, want static %q at %d", offset, frame, tt.text, tt.wantX)
				}
			}
		})
	}
}

func TestAdvanceEntersFromRight(t *testing.T) {
	// 5 glyphs * 8px = 40px in a 20px viewport.
	frame := Advance("ABCDE", 20, 8, 0)
	if !frame.Empty || frame.Period != 60 {
		t.Fatalf("offset 0 = %+v, want empty with period 60", frame)
	}

	frame = Advance("ABCDE", 20, 8, 1)
	if frame.Text != "A" || frame.X != 19 {
		t.Fatalf("offset 1 = %+v, want A at 19", frame)
	}

	frame = Advance("ABCDE", 20, 8, 20)
	if frame.Text != "ABC" || frame.X != 0 {
		t.Fatalf("offset 20 = %+v, want ABC at 0", frame)
	}

	frame = Advance("ABCDE", 20, 8, 29)
	if frame.Text != "BCD" || frame.X != -1 {
		t.Fatalf("offset 29 = %+v, want BCD at -1", frame)
	}

	// Last pixel column of the final glyph.
	frame = Advance("ABCDE", 20, 8, 59)
	if frame.Text != "E" || frame.X != -7 {
		t.Fatalf("offset 59 = %+v, want E at -7", frame)
	}
}

// columns maps every viewport column to the glyph index covering it, or -1.
func columns(text string, x, viewport, glyph, firstIndex int) []int {
	out := make([]int, viewport)
	for i := range out {
		out[i] = -1
	}
	for i := range []rune(text) {
		for px := 0; px < glyph; px++ {
			col := x + i*glyph + px
			if col >= 0 && col < viewport {
				out[col] = firstIndex + i
			}
		}
	}
	return out
}

func TestAdvanceTrimMatchesClippedDraw(t *testing.T) {
	text := "The quick brown fox"
	runes := []rune(text)
	const viewport, glyph = 23, 4
	period := len(runes)*glyph + viewport

	for offset := 0; offset < period; offset++ {
		frame := Advance(text, viewport, glyph, offset)
		full := columns(text, viewport-offset, viewport, glyph, 0)

		if frame.Empty {
			for col, idx := range full {
				if idx != -1 {
					t.Fatalf("offset %d: empty frame but column %d shows glyph %d", offset, col, idx)
				}
			}
			continue
		}

		// Locate the trimmed slice within the original string.
		first := (frame.X - (viewport - offset)) / glyph
		if string(runes[first:first+len([]rune(frame.Text))]) != frame.Text {
			t.Fatalf("offset %d: frame text %q is not a slice at %d", offset, frame.Text, first)
		}
		trimmed := columns(frame.Text, frame.X, viewport, glyph, first)
		for col := range full {
			if full[col] != trimmed[col] {
				t.Fatalf("offset %d column %d: trimmed shows %d, full shows %d", offset, col, trimmed[col], full[col])
			}
		}
	}
}

func TestAdvanceIdempotent(t *testing.T) {
	for offset := -5; offset < 80; offset++ {
		a := Advance("departures ticker", 30, 5, offset)
		b := Advance("departures ticker", 30, 5, offset)
		if a != b {
			t.Fatalf("offset %d: %+v != %+v", offset, a, b)
		}
	}
}

func TestAdvanceCyclic(t *testing.T) {
	const text, viewport, glyph = "ABCDEFGHIJ", 20, 4 // 40px in 20px
	period := 40 + viewport
	for offset := 0; offset < period; offset++ {
		if Advance(text, viewport, glyph, offset) != Advance(text, viewport, glyph, offset+period) {
			t.Fatalf("offset %d differs from offset %d", offset, offset+period)
		}
	}
	if Advance(text, viewport, glyph, -1) != Advance(text, viewport, glyph, period-1) {
		t.Fatal("negative offset does not wrap")
	}
}

func TestCursorReturnsToStart(t *testing.T) {
	cursor := NewCursor(1)
	const text, viewport, glyph = "ABCDE", 20, 8
	first := cursor.Next(text, viewport, glyph)
	period := first.Period
	if period != 60 {
		t.Fatalf("period = %d, want 60", period)
	}

	for step := 1; step < period; step++ {
		if cursor.Finished() {
			t.Fatalf("finished early at step %d", step)
		}
		cursor.Next(text, viewport, glyph)
	}
	if cursor.Offset() != 0 {
		t.Fatalf("offset after %d steps = %d, want 0", period, cursor.Offset())
	}
	if !cursor.Finished() || cursor.Passes() != 1 {
		t.Fatalf("passes = %d, want 1", cursor.Passes())
	}
	if again := cursor.Next(text, viewport, glyph); again != first {
		t.Fatalf("frame after a full period = %+v, want %+v", again, first)
	}
}

func TestCursorFractionalSpeed(t *testing.T) {
	cursor := NewCursor(0.5)
	for i := 0; i < 4; i++ {
		cursor.Next("ABCDEFGH", 10, 4)
	}
	if cursor.Offset() != 2 {
		t.Fatalf("offset = %d, want 2", cursor.Offset())
	}
}

func TestCursorResetsOnTextChange(t *testing.T) {
	cursor := NewCursor(3)
	for i := 0; i < 5; i++ {
		cursor.Next("ABCDEFGH", 10, 4)
	}
	frame := cursor.Next("HGFEDCBA", 10, 4)
	if frame != Advance("HGFEDCBA", 10, 4, 0) {
		t.Fatalf("new text did not start at offset 0: %+v", frame)
	}
}

func TestCursorStaticIsFinished(t *testing.T) {
	cursor := NewCursor(1)
	cursor.Next("OK", 40, 4)
	if !cursor.Finished() {
		t.Fatal("static text should count as finished")
	}
	cursor.Next("", 40, 4)
	if !cursor.Finished() {
		t.Fatal("empty text should count as finished")
	}
}
