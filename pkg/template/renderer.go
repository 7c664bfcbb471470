// renderer.go - Render a preset with data overrides through the compositor.
package template

import (
	"context"
	"fmt"

	"github.com/xob0t/namecard/pkg/compositor"
)

// Renderer renders one preset. It is safe for concurrent use.
type Renderer struct {
	preset     *Preset
	compositor *compositor.Compositor
}

// RendererOptions configures NewRenderer. Zero values select defaults.
type RendererOptions struct {
	// Loader fetches images. Defaults to a cached SourceLoader rooted at BaseDir.
	Loader compositor.Loader
	// BaseDir anchors relative and web-style image paths.
	BaseDir string
	// FontData replaces the preset's font file (an uploaded font asset).
	FontData []byte
}

// NewRenderer creates a renderer for preset. A nil preset renders the
// stock card.
func NewRenderer(preset *Preset, opts RendererOptions) (*Renderer, error) {
	if preset == nil {
		preset = DefaultPreset()
	}
	fonts, err := NewFontSet(preset, opts.FontData)
	if err != nil {
		return nil, err
	}
	loader := opts.Loader
	if loader == nil {
		loader = compositor.NewCachedLoader(&compositor.SourceLoader{BaseDir: opts.BaseDir}, compositor.DefaultCacheSize)
	}

	c, err := compositor.New(compositor.Options{
		Loader:      loader,
		Fonts:       fonts,
		MaxWidth:    preset.Background.MaxWidth,
		MaxHeight:   preset.Background.MaxHeight,
		Fallback:    preset.Background.Fallback,
		Placeholder: preset.Placeholder,
		FilePrefix:  preset.Export.Prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("create compositor: %w", err)
	}
	return &Renderer{preset: preset, compositor: c}, nil
}

// Preset returns the preset being rendered.
func (r *Renderer) Preset() *Preset { return r.preset }

// Compositor returns the underlying compositor.
func (r *Renderer) Compositor() *compositor.Compositor { return r.compositor }

// Request merges data onto the preset defaults.
func (r *Renderer) Request(data *DataSpec) compositor.Request {
	return MergeData(r.preset, data)
}

// Render validates data, merges it onto the defaults and renders. Warnings
// never stop rendering and the surface is never nil; see compositor.Render.
func (r *Renderer) Render(ctx context.Context, data *DataSpec) (*compositor.Surface, []Warning, error) {
	warnings := ValidateData(data, r.preset)
	s, err := r.compositor.Render(ctx, r.Request(data))
	return s, warnings, err
}

// Export renders data and encodes the result as a named PNG. A placeholder
// frame is never exported.
func (r *Renderer) Export(ctx context.Context, data *DataSpec) (*compositor.Artifact, []Warning, error) {
	s, warnings, err := r.Render(ctx, data)
	if err != nil {
		return nil, warnings, fmt.Errorf("%w: %w", compositor.ErrExport, err)
	}
	art, err := r.compositor.Export(s, s.Request.Text)
	if err != nil {
		return nil, warnings, err
	}
	return art, warnings, nil
}
