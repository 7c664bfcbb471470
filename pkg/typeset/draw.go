package typeset

import (
	"image"
	"image/draw"
	"math"

	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/font/opentype"
	"golang.org/x/image/vector"
)

// Align places a line horizontally relative to its anchor x.
type Align int

const (
	// AlignLeft puts the left edge of the line on the anchor.
	AlignLeft Align = iota
	// AlignCenter centers the line on the anchor.
	AlignCenter
	// AlignRight puts the right edge of the line on the anchor.
	AlignRight
)

// AlignFor returns the alignment a canvas uses for "start of line": the
// right edge for RTL text and the left edge otherwise.
func AlignFor(dir Direction) Align {
	if dir == RTL {
		return AlignRight
	}
	return AlignLeft
}

// Origin returns the left end of the baseline for a line anchored at (x, y),
// where y is the vertical middle of the em box.
func (l *Line) Origin(x, y float64, align Align) (left, baseline float64) {
	switch align {
	case AlignRight:
		left = x - l.Width
	case AlignCenter:
		left = x - l.Width/2
	default:
		left = x
	}
	baseline = y + (l.Ascent-l.Descent)/2
	return left, baseline
}

// Bounds returns the pixel rectangle covered by the line's em boxes when
// anchored at (x, y).
func (l *Line) Bounds(x, y float64, align Align) image.Rectangle {
	left, baseline := l.Origin(x, y, align)
	return image.Rect(
		int(math.Floor(left)),
		int(math.Floor(baseline-l.Ascent)),
		int(math.Ceil(left+l.Width)),
		int(math.Ceil(baseline+l.Descent)),
	)
}

// Draw rasterizes the line onto dst with antialiasing, filling glyphs with
// src. (x, y) is the anchor: horizontal placement follows align, and y is
// the vertical middle of the em box. Pixels outside dst are clipped.
func Draw(dst draw.Image, l *Line, x, y float64, align Align, src image.Image) {
	if l.Empty() {
		return
	}
	left, baseline := l.Origin(x, y, align)

	// Glyph ink may overshoot the em box (diacritics, swashes).
	pad := l.Size/2 + 2
	area := image.Rect(
		int(math.Floor(left-pad)),
		int(math.Floor(baseline-l.Ascent-pad)),
		int(math.Ceil(left+l.Width+pad)),
		int(math.Ceil(baseline+l.Descent+pad)),
	).Intersect(dst.Bounds())
	if area.Empty() {
		return
	}

	z := vector.NewRasterizer(area.Dx(), area.Dy())
	z.DrawOp = draw.Over
	ox := float32(left) - float32(area.Min.X)
	oy := float32(baseline) - float32(area.Min.Y)

	pen := float32(0)
	for i := range l.Runs {
		run := &l.Runs[i]
		if run.Face == nil {
			continue
		}
		scale := float32(l.Size) / float32(run.Face.Upem())
		for gi := range run.Glyphs {
			g := &run.Glyphs[gi]
			gx := ox + pen + float32(fixedToFloat(g.XOffset))
			gy := oy - float32(fixedToFloat(g.YOffset))
			if outline, ok := run.Face.GlyphData(g.GlyphID).(font.GlyphOutline); ok {
				addOutline(z, outline, scale, gx, gy)
			}
			pen += float32(fixedToFloat(abs26(g.Advance)))
		}
	}

	z.Draw(dst, area, src, image.Point{})
}

// addOutline appends a glyph outline (font units, y up) to the rasterizer
// at pen position (x, y) in rasterizer space (y down).
func addOutline(z *vector.Rasterizer, outline font.GlyphOutline, scale, x, y float32) {
	open := false
	for _, s := range outline.Segments {
		px := func(i int) float32 { return x + s.Args[i].X*scale }
		py := func(i int) float32 { return y - s.Args[i].Y*scale }
		switch s.Op {
		case opentype.SegmentOpMoveTo:
			if open {
				z.ClosePath()
			}
			z.MoveTo(px(0), py(0))
			open = true
		case opentype.SegmentOpLineTo:
			z.LineTo(px(0), py(0))
		case opentype.SegmentOpQuadTo:
			z.QuadTo(px(0), py(0), px(1), py(1))
		case opentype.SegmentOpCubeTo:
			z.CubeTo(px(0), py(0), px(1), py(1), px(2), py(2))
		}
	}
	if open {
		z.ClosePath()
	}
}
