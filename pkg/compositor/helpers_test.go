package compositor

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

var navy = color.RGBA{0x1e, 0x3a, 0x8a, 0xff}

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func dataURI(t *testing.T, img image.Image) string {
	t.Helper()
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t, img))
}

// mapLoader serves in-memory images and counts calls per locator.
type mapLoader struct {
	images map[string]image.Image
	calls  atomic.Int32
}

func (m *mapLoader) Load(_ context.Context, locator string) (image.Image, error) {
	m.calls.Add(1)
	img, ok := m.images[locator]
	if !ok {
		return nil, &LoadError{Locator: locator, Err: ErrNotImage}
	}
	return img, nil
}

func newCompositor(t *testing.T, opts Options) *Compositor {
	t.Helper()
	c, err := New(opts)
	require.NoError(t, err)
	return c
}

// changedColumns returns the x range of pixels that differ between a and b.
func changedColumns(a, b *image.RGBA) (minX, maxX int, found bool) {
	r := a.Bounds()
	minX, maxX = r.Max.X, r.Min.X-1
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if a.RGBAAt(x, y) != b.RGBAAt(x, y) {
				minX = min(minX, x)
				maxX = max(maxX, x)
				found = true
			}
		}
	}
	return minX, maxX, found
}
