package compositor

import (
	"fmt"
	"math"
)

// Default surface caps.
const (
	DefaultMaxWidth  = 3600
	DefaultMaxHeight = 2400
)

// FitSurface computes the surface size for a source of srcW×srcH pixels.
// The width is the source width capped at maxW, the height follows the
// aspect ratio, and when that height exceeds maxH the height is capped and
// the width recomputed. The result never exceeds either cap and never
// upscales past the source resolution.
func FitSurface(srcW, srcH, maxW, maxH int) (w, h int, err error) {
	if srcW <= 0 || srcH <= 0 {
		return 0, 0, fmt.Errorf("invalid source size %dx%d", srcW, srcH)
	}
	if maxW <= 0 || maxH <= 0 {
		return 0, 0, fmt.Errorf("invalid surface cap %dx%d", maxW, maxH)
	}

	aspect := float64(srcW) / float64(srcH)

	w = min(maxW, srcW)
	h = int(math.Round(float64(w) / aspect))
	if h > maxH {
		h = maxH
		w = int(math.Round(float64(h) * aspect))
	}

	// Extreme aspect ratios can round an axis to zero or past a cap.
	w = min(max(w, 1), maxW)
	h = min(max(h, 1), maxH)
	return w, h, nil
}

// Anchor converts a percentage position into surface pixel coordinates.
// The position is clamped to [0, 100] first, so the anchor always lies
// within the surface bounds inclusive.
func Anchor(pos Position, w, h int) (x, y float64) {
	x = clampPercent(pos.X) / 100 * float64(w)
	y = clampPercent(pos.Y) / 100 * float64(h)
	return x, y
}
