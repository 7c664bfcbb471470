// validator.go - Validate names and data files against a preset.
package template

import (
	"fmt"
	"slices"
	"strings"

	"github.com/xob0t/namecard/pkg/generator"
	"github.com/xob0t/namecard/pkg/typeset"
)

// ArabicNameMessage is shown when a name has no Arabic letters.
const ArabicNameMessage = "الرجاء إدخال اسم باللغة العربية"

// IsArabic reports whether text contains at least one rune from the Arabic
// block (U+0600–U+06FF).
func IsArabic(text string) bool {
	for _, r := range text {
		if r >= 0x0600 && r <= 0x06FF {
			return true
		}
	}
	return false
}

// ValidateName flags non-empty text with no Arabic letters. It never blocks
// rendering; callers decide whether to keep drawing the previous text.
func ValidateName(text string) []Warning {
	if text == "" || IsArabic(text) {
		return nil
	}
	return []Warning{{Field: "text", Message: ArabicNameMessage}}
}

// ValidateData checks data overrides against the preset. Returns warnings
// (never fatal errors) for graceful degradation.
func ValidateData(data *DataSpec, preset *Preset) []Warning {
	if data == nil {
		return nil
	}

	var warnings []Warning
	if data.Text != nil {
		warnings = append(warnings, ValidateName(*data.Text)...)
	}
	if data.FontSize != nil {
		lo, hi := preset.Limits.MinFontSize, preset.Limits.MaxFontSize
		if *data.FontSize < lo || *data.FontSize > hi {
			warnings = append(warnings, Warning{
				Field:   "fontSize",
				Message: fmt.Sprintf("%d is outside %d–%d, clamped to %d", *data.FontSize, lo, hi, ClampFontSize(preset, *data.FontSize)),
			})
		}
	}
	if data.Color != nil && !ValidColor(*data.Color) {
		warnings = append(warnings, Warning{
			Field:   "color",
			Message: fmt.Sprintf("invalid color %q, using %s", *data.Color, preset.Defaults.Color),
		})
	}
	for field, v := range map[string]*float64{"x": data.X, "y": data.Y} {
		if v != nil && (*v < 0 || *v > 100 || *v != *v) {
			warnings = append(warnings, Warning{
				Field:   field,
				Message: fmt.Sprintf("%v is outside 0–100 percent, clamped", *v),
			})
		}
	}
	if data.Direction != nil {
		if _, err := typeset.ParseDirection(*data.Direction); err != nil {
			warnings = append(warnings, Warning{Field: "direction", Message: err.Error()})
		}
	}

	slices.SortStableFunc(warnings, func(a, b Warning) int { return strings.Compare(a.Field, b.Field) })
	return warnings
}

// ValidColor accepts "#rgb" and "#rrggbb". "random" is a CLI convenience
// and is not a valid card color.
func ValidColor(s string) bool {
	if s == "" || strings.EqualFold(strings.TrimSpace(s), "random") {
		return false
	}
	_, _, _, err := generator.ParseColor(s)
	return err == nil
}

// FormatSchema returns a human-readable description of the preset's schema.
func FormatSchema(preset *Preset) string {
	if preset.Schema.Description == "" && len(preset.Schema.Fields) == 0 {
		return "This preset has no schema documentation.\n"
	}

	var s strings.Builder
	fmt.Fprintf(&s, "Preset: %s (v%s)", preset.Meta.Name, preset.Meta.Version)
	if preset.Meta.Author != "" {
		fmt.Fprintf(&s, " by %s", preset.Meta.Author)
	}
	s.WriteString("\n")
	if preset.Meta.Description != "" {
		s.WriteString(preset.Meta.Description + "\n")
	}
	s.WriteString("\n")

	if preset.Schema.Description != "" {
		s.WriteString(preset.Schema.Description + "\n\n")
	}

	d := preset.Defaults
	fmt.Fprintf(&s, "Defaults: text=%q size=%d color=%s position=(%g, %g) direction=%s\n",
		d.Text, d.FontSize, d.Color, d.X, d.Y, d.Direction)
	fmt.Fprintf(&s, "Font size range: %d–%d\n", preset.Limits.MinFontSize, preset.Limits.MaxFontSize)

	if len(preset.Schema.Fields) > 0 {
		s.WriteString("\nFields:\n")
		fields := make([]string, 0, len(preset.Schema.Fields))
		for f := range preset.Schema.Fields {
			fields = append(fields, f)
		}
		slices.Sort(fields)
		for _, f := range fields {
			fmt.Fprintf(&s, "  %-12s %s\n", f+":", preset.Schema.Fields[f])
		}
	}
	return s.String()
}
