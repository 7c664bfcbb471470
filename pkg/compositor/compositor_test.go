package compositor

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xob0t/namecard/pkg/typeset"
)

func sceneRequest() Request {
	return Request{
		Source:    "bg",
		Text:      "محمد",
		FontSize:  40,
		Color:     "#ffffff",
		Position:  Position{X: 50, Y: 49},
		Direction: typeset.RTL,
	}
}

func TestRenderScenarioRTLName(t *testing.T) {
	bg := solid(1000, 600, navy)
	c := newCompositor(t, Options{Loader: &mapLoader{images: map[string]image.Image{"bg": bg}}})

	s, err := c.Render(t.Context(), sceneRequest())
	require.NoError(t, err)
	assert.Equal(t, OriginSource, s.Origin)
	assert.Equal(t, 1000, s.Width())
	assert.Equal(t, 600, s.Height())
	assert.Equal(t, 500.0, s.AnchorX)
	assert.InDelta(t, 294.0, s.AnchorY, 1e-9)

	// Right-aligned: nothing is drawn to the right of the anchor.
	if _, maxX, found := changedColumns(s.Image, bg); found {
		assert.LessOrEqual(t, maxX, 501)
	}
}

func TestRenderRTLRightEdgeAtAnchor(t *testing.T) {
	bg := solid(400, 200, navy)
	c := newCompositor(t, Options{Loader: &mapLoader{images: map[string]image.Image{"bg": bg}}})

	req := sceneRequest()
	req.Text = "HELLO"
	s, err := c.Render(t.Context(), req)
	require.NoError(t, err)

	minX, maxX, found := changedColumns(s.Image, bg)
	require.True(t, found)
	assert.LessOrEqual(t, maxX, 201)
	assert.Less(t, minX, 200)

	req.Direction = typeset.LTR
	s, err = c.Render(t.Context(), req)
	require.NoError(t, err)
	minX, _, found = changedColumns(s.Image, bg)
	require.True(t, found)
	assert.GreaterOrEqual(t, minX, 199)
}

func TestRenderIsIdempotent(t *testing.T) {
	c := newCompositor(t, Options{Loader: NewCachedLoader(&SourceLoader{}, 0)})
	req := sceneRequest()
	req.Source = dataURI(t, solid(320, 240, navy))
	req.Text = "Eid Mubarak"

	a, err := c.Render(t.Context(), req)
	require.NoError(t, err)
	b, err := c.Render(t.Context(), req)
	require.NoError(t, err)
	assert.Equal(t, a.Image.Pix, b.Image.Pix)
}

func TestRenderEmptyTextIsBackgroundOnly(t *testing.T) {
	bg := solid(64, 48, navy)
	c := newCompositor(t, Options{Loader: &mapLoader{images: map[string]image.Image{"bg": bg}}})

	req := sceneRequest()
	req.Text = ""
	s, err := c.Render(t.Context(), req)
	require.NoError(t, err)
	assert.Equal(t, bg.Pix, s.Image.Pix)
}

func TestRenderClampsInputs(t *testing.T) {
	c := newCompositor(t, Options{Loader: &mapLoader{images: map[string]image.Image{"bg": solid(200, 100, navy)}}})

	req := sceneRequest()
	req.FontSize = -5
	req.Position = Position{X: 150, Y: -20}

	var s *Surface
	var err error
	require.NotPanics(t, func() { s, err = c.Render(t.Context(), req) })
	require.NoError(t, err)
	assert.Equal(t, MinFontSize, s.Request.FontSize)
	assert.Equal(t, Position{X: 100, Y: 0}, s.Request.Position)
	assert.Equal(t, 200.0, s.AnchorX)
	assert.Equal(t, 0.0, s.AnchorY)
}

func TestRenderFitsToCaps(t *testing.T) {
	c := newCompositor(t, Options{
		Loader:    &mapLoader{images: map[string]image.Image{"bg": solid(400, 200, navy)}},
		MaxWidth:  100,
		MaxHeight: 100,
	})
	s, err := c.Render(t.Context(), Request{Source: "bg"})
	require.NoError(t, err)
	assert.Equal(t, 100, s.Width())
	assert.Equal(t, 50, s.Height())
	// Scaled to fill exactly: no transparent letterbox.
	assert.Equal(t, uint8(0xff), s.Image.RGBAAt(0, 0).A)
	assert.Equal(t, uint8(0xff), s.Image.RGBAAt(99, 49).A)
}

func TestRenderFallsBackWhenSourceFails(t *testing.T) {
	fallback := solid(300, 200, color.RGBA{0xf9, 0x73, 0x16, 0xff})
	c := newCompositor(t, Options{
		Loader:   &mapLoader{images: map[string]image.Image{"fallback": fallback}},
		Fallback: "fallback",
	})

	req := sceneRequest()
	req.Source = "https://unreachable.invalid/eid.png"
	s, err := c.Render(t.Context(), req)
	require.NoError(t, err)
	assert.Equal(t, OriginFallback, s.Origin)
	assert.Equal(t, "fallback", s.Locator)
	assert.ErrorIs(t, s.SourceErr, ErrImageLoad)
	assert.Equal(t, 300, s.Width())
}

func TestRenderPlaceholderWhenFallbackFails(t *testing.T) {
	c := newCompositor(t, Options{
		Loader:   &mapLoader{images: map[string]image.Image{}},
		Fallback: "also-missing",
	})

	s, err := c.Render(t.Context(), sceneRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrImageLoad)
	require.NotNil(t, s)
	assert.Equal(t, OriginPlaceholder, s.Origin)
	assert.Equal(t, 600, s.Width())
	assert.Equal(t, 400, s.Height())
	assert.Equal(t, color.RGBA{0xf8, 0xf9, 0xfa, 0xff}, s.Image.RGBAAt(0, 0))
}

func TestRenderPlaceholderWithoutFallback(t *testing.T) {
	c := newCompositor(t, Options{
		Loader:      &mapLoader{images: map[string]image.Image{}},
		Placeholder: Placeholder{Width: 120, Height: 80, Message: "loading"},
	})

	s, err := c.Render(t.Context(), sceneRequest())
	assert.ErrorIs(t, err, ErrImageLoad)
	require.NotNil(t, s)
	assert.Equal(t, OriginPlaceholder, s.Origin)
	assert.Equal(t, 120, s.Width())
	assert.Equal(t, 80, s.Height())

	// The status message is drawn around the center.
	_, _, found := changedColumns(s.Image, solid(120, 80, color.RGBA{0xf8, 0xf9, 0xfa, 0xff}))
	assert.True(t, found)
}

func TestRenderTreatsEmptyImagesAsFailures(t *testing.T) {
	c := newCompositor(t, Options{
		Loader: LoaderFunc(func(_ context.Context, locator string) (image.Image, error) {
			if locator == "empty" {
				return image.NewRGBA(image.Rect(0, 0, 0, 10)), nil
			}
			return solid(10, 10, navy), nil
		}),
		Fallback: "ok",
	})

	s, err := c.Render(t.Context(), Request{Source: "empty"})
	require.NoError(t, err)
	assert.Equal(t, OriginFallback, s.Origin)
	assert.ErrorIs(t, s.SourceErr, ErrEmptyImage)
}

func TestExportScenario(t *testing.T) {
	c := newCompositor(t, Options{
		Loader:     &mapLoader{images: map[string]image.Image{"bg": solid(800, 600, navy)}},
		FilePrefix: "عيد مونتاجكو",
	})
	s, err := c.Render(t.Context(), sceneRequest())
	require.NoError(t, err)

	art, err := c.Export(s, "محمد")
	require.NoError(t, err)
	assert.NotEmpty(t, art.Data)
	assert.Equal(t, ContentTypePNG, art.ContentType)
	assert.Equal(t, "عيد مونتاجكو محمد.png", art.FileName)

	decoded, err := png.Decode(bytes.NewReader(art.Data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 800, 600), decoded.Bounds())
	for _, p := range []image.Point{{0, 0}, {400, 300}, {799, 599}} {
		r, g, b, a := decoded.At(p.X, p.Y).RGBA()
		want := s.Image.RGBAAt(p.X, p.Y)
		assert.Equal(t, [4]uint8{want.R, want.G, want.B, want.A}, [4]uint8{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)})
	}
}

func TestExportWithoutSurface(t *testing.T) {
	_, err := Export(nil, "", "x")
	assert.ErrorIs(t, err, ErrExport)
	assert.ErrorIs(t, err, ErrNoSurface)

	_, err = Export(&Surface{Image: image.NewRGBA(image.Rectangle{})}, "", "x")
	assert.ErrorIs(t, err, ErrExport)
}

func TestFileName(t *testing.T) {
	tests := []struct {
		prefix, text, want string
	}{
		{"greeting", "محمد", "greeting محمد.png"},
		{"", "Sara", "greeting Sara.png"},
		{"card", "", "card.png"},
		{"card", `a/b\c:d*e?f"g<h>i|j`, "card abcdefghij.png"},
		{"card", "  two   words\t\n", "card two words.png"},
		{"card", "..hidden.", "card hidden.png"},
		{"card", "tab\x00\x1fname", "card tabname.png"},
		{"card", "لا\u200cإله", "card لا\u200cإله.png"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FileName(tt.prefix, tt.text), "%q", tt.text)
	}

	long := FileName("card", string(bytes.Repeat([]byte("a"), 200)))
	assert.Equal(t, "card "+string(bytes.Repeat([]byte("a"), maxNameRunes))+".png", long)
}

func TestOriginString(t *testing.T) {
	assert.Equal(t, "fallback", OriginFallback.String())
	assert.Equal(t, "Origin(9)", Origin(9).String())
}
