// Package compositor draws a styled text label over a background image and
// exports the result as a lossless PNG.
//
// A Compositor is a pure function of a Request plus an optional decoded
// image cache: every Render call loads (or looks up) the source, fits it to
// the surface caps, draws it, and overlays the text at a percentage-based
// anchor. It keeps no state between calls beyond that cache.
package compositor

import (
	"github.com/xob0t/namecard/pkg/typeset"
)

// MinFontSize is the smallest font size a request is rendered with.
const MinFontSize = 1

// Position is a text anchor expressed as percentages of the surface size.
type Position struct {
	X float64 `json:"x" toml:"x"` // 0–100, left to right
	Y float64 `json:"y" toml:"y"` // 0–100, top to bottom
}

// Request describes one composition. It is a value: build a new one
// whenever any field changes.
type Request struct {
	Source    string            `json:"source"`    // URL, data URI, local path or "asset:<id>"
	Text      string            `json:"text"`      // drawn verbatim; empty draws no glyphs
	FontSize  int               `json:"fontSize"`  // surface pixels, not scaled with the surface
	Color     string            `json:"color"`     // "#rrggbb" or "#rgb"
	Position  Position          `json:"position"`  // percent of surface
	Direction typeset.Direction `json:"direction"` // "ltr", "rtl" or "auto"
}

// Normalize returns a copy of r with out-of-range values clamped:
// font size to at least MinFontSize and both position axes to [0, 100].
func (r Request) Normalize() Request {
	if r.FontSize < MinFontSize {
		r.FontSize = MinFontSize
	}
	r.Position.X = clampPercent(r.Position.X)
	r.Position.Y = clampPercent(r.Position.Y)
	return r
}

func clampPercent(v float64) float64 {
	switch {
	case v != v: // NaN
		return 0
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
