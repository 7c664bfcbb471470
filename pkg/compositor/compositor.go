// compositor.go - Render pipeline: load, fit, draw background, overlay text.
package compositor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"

	"github.com/disintegration/imaging"

	"github.com/xob0t/namecard/internal/logger"
	"github.com/xob0t/namecard/pkg/generator"
	"github.com/xob0t/namecard/pkg/typeset"
)

// Origin tells which image a surface was drawn from.
type Origin int

const (
	// OriginSource means the requested source loaded.
	OriginSource Origin = iota
	// OriginFallback means the source failed and the fallback image was drawn.
	OriginFallback
	// OriginPlaceholder means no image could be drawn; the surface is the
	// placeholder frame.
	OriginPlaceholder
)

func (o Origin) String() string {
	switch o {
	case OriginSource:
		return "source"
	case OriginFallback:
		return "fallback"
	case OriginPlaceholder:
		return "placeholder"
	}
	return fmt.Sprintf("Origin(%d)", int(o))
}

// Placeholder configures the frame drawn when no image can be loaded.
type Placeholder struct {
	Width      int    `json:"width" toml:"width"`
	Height     int    `json:"height" toml:"height"`
	Background string `json:"background" toml:"background"`
	Color      string `json:"color" toml:"color"`
	FontSize   int    `json:"fontSize" toml:"font_size"`
	Message    string `json:"message" toml:"message"`
}

// DefaultPlaceholder is the frame shown while (or instead of) loading.
var DefaultPlaceholder = Placeholder{
	Width:      600,
	Height:     400,
	Background: "#f8f9fa",
	Color:      "#333333",
	FontSize:   16,
	Message:    "جاري تحميل الصورة...",
}

// Options configures a Compositor. Zero values select defaults.
type Options struct {
	// Loader resolves source locators. Defaults to a CachedLoader around a
	// SourceLoader.
	Loader Loader
	// Fonts shapes the text. Defaults to the embedded Go font only.
	Fonts *typeset.FontSet
	// MaxWidth and MaxHeight cap the surface size.
	MaxWidth, MaxHeight int
	// Fallback is loaded when the requested source fails. Empty means the
	// placeholder frame is drawn straight away.
	Fallback string
	// Placeholder overrides DefaultPlaceholder field by field.
	Placeholder Placeholder
	// FilePrefix starts every exported file name. Defaults to DefaultFilePrefix.
	FilePrefix string
}

// Surface is one rendered composition.
type Surface struct {
	Image   *image.RGBA
	Request Request // normalized request the surface was drawn for
	Locator string  // locator actually drawn; empty for the placeholder
	Origin  Origin
	// AnchorX and AnchorY are the text anchor in surface pixels.
	AnchorX, AnchorY float64
	// SourceErr is the load failure that caused a fallback, if any.
	SourceErr error
}

// Width returns the surface width in pixels.
func (s *Surface) Width() int { return s.Image.Bounds().Dx() }

// Height returns the surface height in pixels.
func (s *Surface) Height() int { return s.Image.Bounds().Dy() }

// Compositor renders requests to surfaces. It keeps no state between calls
// apart from what its Loader caches, and is safe for concurrent use.
type Compositor struct {
	loader      Loader
	fonts       *typeset.FontSet
	maxW, maxH  int
	fallback    string
	placeholder Placeholder
	prefix      string
}

// New creates a compositor from opts.
func New(opts Options) (*Compositor, error) {
	c := &Compositor{
		loader:      opts.Loader,
		fonts:       opts.Fonts,
		maxW:        opts.MaxWidth,
		maxH:        opts.MaxHeight,
		fallback:    opts.Fallback,
		placeholder: mergePlaceholder(opts.Placeholder),
		prefix:      opts.FilePrefix,
	}
	if c.loader == nil {
		c.loader = NewCachedLoader(&SourceLoader{}, DefaultCacheSize)
	}
	if c.fonts == nil {
		fs, err := typeset.NewFontSet(typeset.FontOptions{})
		if err != nil {
			return nil, fmt.Errorf("load fonts: %w", err)
		}
		c.fonts = fs
	}
	if c.maxW <= 0 {
		c.maxW = DefaultMaxWidth
	}
	if c.maxH <= 0 {
		c.maxH = DefaultMaxHeight
	}
	if c.prefix == "" {
		c.prefix = DefaultFilePrefix
	}
	return c, nil
}

func mergePlaceholder(p Placeholder) Placeholder {
	d := DefaultPlaceholder
	if p.Width > 0 {
		d.Width = p.Width
	}
	if p.Height > 0 {
		d.Height = p.Height
	}
	if p.Background != "" {
		d.Background = p.Background
	}
	if p.Color != "" {
		d.Color = p.Color
	}
	if p.FontSize > 0 {
		d.FontSize = p.FontSize
	}
	if p.Message != "" {
		d.Message = p.Message
	}
	return d
}

// Fonts returns the font set used for text.
func (c *Compositor) Fonts() *typeset.FontSet { return c.fonts }

// Loader returns the loader used for sources.
func (c *Compositor) Loader() Loader { return c.loader }

// Render loads the request's source, fits it to the surface caps, draws it
// and overlays the text.
//
// Load failures never leave the caller without a surface: the fallback image
// is tried next, and when that is missing or fails too the placeholder frame
// is returned together with a *LoadError.
func (c *Compositor) Render(ctx context.Context, req Request) (*Surface, error) {
	log := logger.For("compositor")
	req = req.Normalize()

	src, locator, origin, srcErr := c.loadWithFallback(ctx, req.Source)
	if origin == OriginPlaceholder {
		log.Warn("rendering placeholder", "source", redact(req.Source), "err", srcErr)
		return c.renderPlaceholder(req), srcErr
	}
	if srcErr != nil {
		log.Warn("source failed, using fallback", "source", redact(req.Source), "fallback", locator, "err", srcErr)
	}

	b := src.Bounds()
	w, h, err := FitSurface(b.Dx(), b.Dy(), c.maxW, c.maxH)
	if err != nil {
		return c.renderPlaceholder(req), &LoadError{Locator: locator, Err: err}
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	} else {
		draw.Draw(dst, dst.Bounds(), imaging.Resize(src, w, h, imaging.Lanczos), image.Point{}, draw.Src)
	}

	s := &Surface{
		Image:     dst,
		Request:   req,
		Locator:   locator,
		Origin:    origin,
		SourceErr: srcErr,
	}
	s.AnchorX, s.AnchorY = Anchor(req.Position, w, h)
	c.drawText(dst, req, s.AnchorX, s.AnchorY)

	log.Debug("rendered", "origin", origin, "width", w, "height", h, "anchor_x", s.AnchorX, "anchor_y", s.AnchorY)
	return s, nil
}

// loadWithFallback returns the first image that loads, the locator it came
// from and the error of the requested source when it did not load.
func (c *Compositor) loadWithFallback(ctx context.Context, source string) (image.Image, string, Origin, error) {
	img, err := c.load(ctx, source)
	if err == nil {
		return img, source, OriginSource, nil
	}
	if c.fallback == "" || c.fallback == source {
		return nil, "", OriginPlaceholder, err
	}

	fb, fbErr := c.load(ctx, c.fallback)
	if fbErr != nil {
		return nil, "", OriginPlaceholder, fbErr
	}
	return fb, c.fallback, OriginFallback, err
}

// load wraps every failure, including zero-sized images from custom
// loaders, in a *LoadError.
func (c *Compositor) load(ctx context.Context, locator string) (image.Image, error) {
	img, err := c.loader.Load(ctx, locator)
	if err != nil {
		if !isLoadError(err) {
			err = &LoadError{Locator: locator, Err: err}
		}
		return nil, err
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, &LoadError{Locator: locator, Err: ErrEmptyImage}
	}
	return img, nil
}

func isLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

func (c *Compositor) drawText(dst draw.Image, req Request, x, y float64) {
	if req.Text == "" {
		return
	}
	line := c.fonts.Shape(req.Text, float64(req.FontSize), req.Direction)
	if line.Empty() {
		return
	}
	fill := image.NewUniform(generator.ParseHexRGBA(req.Color))
	typeset.Draw(dst, line, x, y, typeset.AlignFor(line.Direction), fill)
}

// renderPlaceholder draws the solid frame with a centered status message.
// The request text is not drawn on it.
func (c *Compositor) renderPlaceholder(req Request) *Surface {
	p := c.placeholder
	w, h := min(p.Width, c.maxW), min(p.Height, c.maxH)
	img := generator.NewSolidImage(w, h, generator.ParseHexRGBA(p.Background))

	line := c.fonts.Shape(p.Message, float64(p.FontSize), typeset.Auto)
	fill := image.NewUniform(generator.ParseHexRGBA(p.Color))
	cx, cy := float64(img.Rect.Dx())/2, float64(img.Rect.Dy())/2
	typeset.Draw(img, line, cx, cy, typeset.AlignCenter, fill)

	return &Surface{
		Image:   img,
		Request: req,
		Origin:  OriginPlaceholder,
		AnchorX: cx,
		AnchorY: cy,
	}
}
