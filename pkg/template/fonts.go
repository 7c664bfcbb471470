// fonts.go - Font set for a preset: the preset's custom TTF first, then the
// embedded Go Regular font. A missing or invalid custom font only logs a
// warning.
package template

import (
	"github.com/xob0t/namecard/pkg/typeset"
)

// NewFontSet builds the font set a preset renders with. fontData, when
// non-nil, replaces the preset's font path (an uploaded font asset).
func NewFontSet(preset *Preset, fontData []byte) (*typeset.FontSet, error) {
	return typeset.NewFontSet(typeset.FontOptions{
		Path:        preset.Font.Path,
		Data:        fontData,
		SystemFonts: preset.Font.SystemFonts,
	})
}
