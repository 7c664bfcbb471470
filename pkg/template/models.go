// Package template describes greeting cards as presets: a background image,
// a font, default text styling and export naming. Presets are JSON or TOML
// files, or .cardpack ZIP bundles that carry their own assets. A data file
// overrides the defaults per render.
package template

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/xob0t/namecard/pkg/compositor"
)

// ── Preset types ──

// Preset is the top-level structure of a preset file.
type Preset struct {
	Meta        Meta                   `json:"meta" toml:"meta"`
	Background  Background             `json:"background" toml:"background"`
	Font        FontConfig             `json:"font" toml:"font"`
	Defaults    Defaults               `json:"defaults" toml:"defaults"`
	Limits      Limits                 `json:"limits" toml:"limits"`
	Export      ExportConfig           `json:"export" toml:"export"`
	Placeholder compositor.Placeholder `json:"placeholder" toml:"placeholder"`
	Schema      Schema                 `json:"schema" toml:"schema"`
}

// Meta holds preset metadata.
type Meta struct {
	Name        string `json:"name" toml:"name"`
	Version     string `json:"version" toml:"version"`
	Author      string `json:"author" toml:"author"`
	Description string `json:"description" toml:"description"`
}

// Background names the card image and the image drawn when it fails.
type Background struct {
	Source   string `json:"source" toml:"source"`     // URL, data URI, path (resolved from assets) or asset:<id>
	Fallback string `json:"fallback" toml:"fallback"` // same forms as Source; empty shows the placeholder
	// MaxWidth and MaxHeight cap the rendered surface. Zero keeps 3600×2400.
	MaxWidth  int `json:"maxWidth,omitempty" toml:"max_width,omitempty"`
	MaxHeight int `json:"maxHeight,omitempty" toml:"max_height,omitempty"`
	// AllowedHosts are extra hosts a server may fetch client-supplied
	// sources from. The hosts of Source and Fallback are always allowed.
	AllowedHosts []string `json:"allowedHosts,omitempty" toml:"allowed_hosts,omitempty"`
}

// RemoteHosts returns the hosts the preset's images may be fetched from.
func (b Background) RemoteHosts() []string {
	hosts := slices.Clone(b.AllowedHosts)
	for _, loc := range []string{b.Source, b.Fallback} {
		if !strings.HasPrefix(loc, "http://") && !strings.HasPrefix(loc, "https://") {
			continue
		}
		if u, err := url.Parse(loc); err == nil && u.Hostname() != "" {
			hosts = append(hosts, u.Hostname())
		}
	}
	slices.Sort(hosts)
	return slices.Compact(hosts)
}

// FontConfig specifies the font source.
type FontConfig struct {
	Path        string `json:"path" toml:"path"`               // custom TTF/OTF (resolved from assets)
	SystemFonts bool   `json:"systemFonts" toml:"system_fonts"` // also search installed fonts for missing glyphs
}

// Defaults are the values a render starts from before data overrides.
// X and Y are percentages; Direction is "rtl", "ltr" or "auto".
type Defaults struct {
	Text      string  `json:"text" toml:"text"`
	FontSize  int     `json:"fontSize" toml:"font_size"`
	Color     string  `json:"color" toml:"color"`
	X         float64 `json:"x" toml:"x"`
	Y         float64 `json:"y" toml:"y"`
	Direction string  `json:"direction" toml:"direction"`
}

// Limits bound what the data file may ask for. The compositor itself only
// clamps font sizes at 1.
type Limits struct {
	MinFontSize int `json:"minFontSize" toml:"min_font_size"`
	MaxFontSize int `json:"maxFontSize" toml:"max_font_size"`
}

// ExportConfig controls exported file names.
type ExportConfig struct {
	Prefix string `json:"prefix" toml:"prefix"`
}

// ── Data types ──

// DataSpec is the top-level structure of data.json. Nil fields keep the
// preset defaults.
type DataSpec struct {
	Source    *string  `json:"source,omitempty" toml:"source,omitempty"`
	Text      *string  `json:"text,omitempty" toml:"text,omitempty"`
	FontSize  *int     `json:"fontSize,omitempty" toml:"font_size,omitempty"`
	Color     *string  `json:"color,omitempty" toml:"color,omitempty"`
	X         *float64 `json:"x,omitempty" toml:"x,omitempty"`
	Y         *float64 `json:"y,omitempty" toml:"y,omitempty"`
	Direction *string  `json:"direction,omitempty" toml:"direction,omitempty"`
}

// ── Schema types (self-documenting presets) ──

// Schema documents the expected data.json format for this preset.
type Schema struct {
	Description string            `json:"description" toml:"description"`
	Fields      map[string]string `json:"fields" toml:"fields"` // field name → description
}

// Warning is a non-fatal problem with user input. Rendering continues.
type Warning struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	if w.Field == "" {
		return w.Message
	}
	return fmt.Sprintf("%s: %s", w.Field, w.Message)
}

// ── Defaults of the stock Eid card ──

const (
	DefaultText      = "اسمك هنا"
	DefaultFontSize  = 40
	DefaultColor     = "#ffffff"
	DefaultX         = 50
	DefaultY         = 49
	DefaultDirection = "rtl"
	DefaultPrefix    = "عيد مونتاجكو"
	DefaultSource    = "/eid-photo/eid.png"
	DefaultFallback  = "https://images.unsplash.com/photo-1579546929518-9e396f3cc809?w=800&q=80"
	MinUIFontSize    = 12
	MaxUIFontSize    = 150
)

// DefaultPreset returns the stock Eid greeting card.
func DefaultPreset() *Preset {
	p := &Preset{
		Meta: Meta{
			Name:        "Eid Greeting",
			Version:     "1.0",
			Description: "Eid greeting card with the recipient's name in Arabic",
		},
		Background: Background{Source: DefaultSource, Fallback: DefaultFallback},
		Schema: Schema{
			Description: "Override the name and its styling via data.json",
			Fields: map[string]string{
				"text":      "string, Arabic name drawn on the card",
				"fontSize":  "integer, 12 to 150 pixels",
				"color":     "string, #rrggbb",
				"x":         "number, 0 to 100 percent from the left",
				"y":         "number, 0 to 100 percent from the top",
				"direction": "rtl, ltr or auto",
				"source":    "string, URL, path or data URI of the background",
			},
		},
	}
	applyPresetDefaults(p)
	return p
}

// applyPresetDefaults fills zero values with the stock card's values.
func applyPresetDefaults(p *Preset) {
	d := &p.Defaults
	if d.Text == "" {
		d.Text = DefaultText
	}
	if d.FontSize <= 0 {
		d.FontSize = DefaultFontSize
	}
	if d.Color == "" {
		d.Color = DefaultColor
	}
	// (0, 0) means the position was left unset.
	if d.X == 0 && d.Y == 0 {
		d.X, d.Y = DefaultX, DefaultY
	}
	if d.Direction == "" {
		d.Direction = DefaultDirection
	}
	if p.Limits.MinFontSize <= 0 {
		p.Limits.MinFontSize = MinUIFontSize
	}
	if p.Limits.MaxFontSize <= 0 {
		p.Limits.MaxFontSize = MaxUIFontSize
	}
	if p.Limits.MaxFontSize < p.Limits.MinFontSize {
		p.Limits.MaxFontSize = p.Limits.MinFontSize
	}
	if p.Export.Prefix == "" {
		p.Export.Prefix = DefaultPrefix
	}
}
