package typeset

import (
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
)

// Line is a single shaped line of text, with runs stored in visual order
// (left to right on the surface).
type Line struct {
	Runs      []shaping.Output
	Direction Direction
	Size      float64

	// Width is the total advance in pixels.
	Width float64
	// Ascent is the distance from the baseline to the top of the em box (positive).
	Ascent float64
	// Descent is the distance from the baseline to the bottom (positive).
	Descent float64
}

// Empty reports whether the line has nothing to draw.
func (l *Line) Empty() bool {
	return l == nil || len(l.Runs) == 0
}

// Shape converts text into positioned glyphs at size pixels per em.
// Text is split into runs by face, script and bidi level, each run is
// shaped with HarfBuzz, and runs are placed in visual order.
func (fs *FontSet) Shape(text string, size float64, dir Direction) *Line {
	dir = dir.Resolve(text)
	line := &Line{Direction: dir, Size: size}
	if text == "" || size <= 0 {
		return line
	}

	runes := []rune(text)
	lang := language.NewLanguage("en")
	if dir == RTL {
		lang = language.NewLanguage("ar")
	}
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: dir.goText(),
		Face:      fs.fallback,
		Size:      floatToFixed(size),
		Script:    detectScript(runes),
		Language:  lang,
	}

	// HarfbuzzShaper and Segmenter keep internal buffers.
	fs.mu.Lock()
	inputs := fs.splitter.Split(input, fs)
	outs := make([]shaping.Output, 0, len(inputs))
	for _, in := range inputs {
		if in.Face == nil {
			continue
		}
		outs = append(outs, fs.shaper.Shape(in))
	}
	fs.mu.Unlock()

	// Runs come back in logical order. With an RTL base the sequence of runs
	// is reversed on screen; each run's glyphs are already in visual order.
	if dir == RTL {
		for i, j := 0, len(outs)-1; i < j; i, j = i+1, j-1 {
			outs[i], outs[j] = outs[j], outs[i]
		}
	}

	var asc, desc fixed.Int26_6
	var width fixed.Int26_6
	for _, o := range outs {
		width += abs26(o.Advance)
		asc = max(asc, abs26(o.LineBounds.Ascent))
		desc = min(desc, -abs26(o.LineBounds.Descent))
	}
	line.Runs = outs
	line.Width = fixedToFloat(width)
	line.Ascent = fixedToFloat(asc)
	line.Descent = -fixedToFloat(desc)
	return line
}

// detectScript returns the script of the first non-space rune. The
// segmenter refines it per run.
func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}

func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(v * 64)
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

func abs26(v fixed.Int26_6) fixed.Int26_6 {
	if v < 0 {
		return -v
	}
	return v
}
