// Package generator draws the flat images the cards fall back to and
// encodes finished cards as lossless PNG.
package generator

import (
	"image"
	"image/color"
	"image/draw"
)

// Size of a solid card when no dimensions are given.
const (
	DefaultWidth  = 1280
	DefaultHeight = 720
)

// Solid describes a single-color card.
type Solid struct {
	Width  int
	Height int
	Color  string // "#rgb", "#rrggbb" or "random"
}

// Render parses the color and fills a new image with it.
func (s Solid) Render() (*image.RGBA, error) {
	r, g, b, err := ParseColor(s.Color)
	if err != nil {
		return nil, err
	}
	return NewSolidImage(s.Width, s.Height, color.RGBA{R: r, G: g, B: b, A: 255}), nil
}

// NewSolidImage returns a w×h image filled with c. Non-positive
// dimensions take the default card size.
func NewSolidImage(w, h int, c color.RGBA) *image.RGBA {
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{c}, image.Point{}, draw.Src)
	return img
}
