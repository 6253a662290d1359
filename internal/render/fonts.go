package render

import (
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gomono"
)

// Point sizes of the three board faces at 72 DPI, sized for a canvas
// around 192x96 logical pixels.
var fontPoints = map[FontSize]float64{
	FontSmall:  8,
	FontMedium: 11,
	FontLarge:  16,
}

// Fonts holds one monospace face per FontSize. Faces are hinted so glyph
// advances are whole pixels.
type Fonts struct {
	faces map[FontSize]font.Face
}

// LoadFonts parses the embedded Go Mono font. On failure every size falls
// back to basicfont.Face7x13.
func LoadFonts(logger Logger) *Fonts {
	f := &Fonts{faces: map[FontSize]font.Face{}}
	tt, err := truetype.Parse(gomono.TTF)
	if err != nil {
		if logger != nil {
			logger.Errorf("render", "truetype parse failed, using basicfont: %v", err)
		}
		for size := range fontPoints {
			f.faces[size] = basicfont.Face7x13
		}
		return f
	}
	for size, pt := range fontPoints {
		f.faces[size] = truetype.NewFace(tt, &truetype.Options{
			Size:    pt,
			DPI:     72,
			Hinting: font.HintingFull,
		})
	}
	if logger != nil {
		logger.Infof("render", "loaded Go Mono faces")
	}
	return f
}

// Face returns the face for size, falling back to basicfont.
func (f *Fonts) Face(size FontSize) font.Face {
	if f != nil {
		if face, ok := f.faces[size]; ok && face != nil {
			return face
		}
	}
	return basicfont.Face7x13
}
