// merge.go - Merge data overrides onto preset defaults.
package template

import (
	"github.com/xob0t/namecard/pkg/compositor"
	"github.com/xob0t/namecard/pkg/typeset"
)

// MergeData combines preset defaults with user-provided data overrides into
// a compositor request. Nil data fields keep the defaults; the font size is
// clamped to the preset limits. Invalid values fall back to the defaults;
// ValidateData reports them.
func MergeData(preset *Preset, data *DataSpec) compositor.Request {
	d := preset.Defaults
	req := compositor.Request{
		Source:    preset.Background.Source,
		Text:      d.Text,
		FontSize:  d.FontSize,
		Color:     d.Color,
		Position:  compositor.Position{X: d.X, Y: d.Y},
		Direction: parseDirectionOr(d.Direction, typeset.RTL),
	}

	if data != nil {
		if data.Source != nil && *data.Source != "" {
			req.Source = *data.Source
		}
		if data.Text != nil {
			req.Text = *data.Text
		}
		if data.FontSize != nil {
			req.FontSize = *data.FontSize
		}
		if data.Color != nil && ValidColor(*data.Color) {
			req.Color = *data.Color
		}
		if data.X != nil {
			req.Position.X = *data.X
		}
		if data.Y != nil {
			req.Position.Y = *data.Y
		}
		if data.Direction != nil {
			req.Direction = parseDirectionOr(*data.Direction, req.Direction)
		}
	}

	req.FontSize = ClampFontSize(preset, req.FontSize)
	return req.Normalize()
}

// ClampFontSize bounds size to the preset's limits.
func ClampFontSize(preset *Preset, size int) int {
	lo, hi := preset.Limits.MinFontSize, preset.Limits.MaxFontSize
	if lo > 0 && size < lo {
		return lo
	}
	if hi > 0 && size > hi {
		return hi
	}
	return size
}

func parseDirectionOr(s string, def typeset.Direction) typeset.Direction {
	dir, err := typeset.ParseDirection(s)
	if err != nil {
		return def
	}
	return dir
}
