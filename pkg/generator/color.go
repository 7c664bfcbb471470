// color.go - Color parsing for card text and backgrounds.
package generator

import (
	"crypto/rand"
	"fmt"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ParseColor parses a color string. Accepts "#rgb", "#rrggbb", "random", or "".
// Empty string is treated as "random".
func ParseColor(s string) (r, g, b uint8, err error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "random" {
		buf := make([]byte, 3)
		if _, err := rand.Read(buf); err != nil {
			return 0, 0, 0, fmt.Errorf("random color: %w", err)
		}
		return buf[0], buf[1], buf[2], nil
	}

	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	if n := len(s) - 1; n != 3 && n != 6 {
		return 0, 0, 0, fmt.Errorf("invalid color %q: expected #rgb or #rrggbb", s)
	}
	c, err := colorful.Hex(strings.ToLower(s))
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid color %q: expected #rgb or #rrggbb", s)
	}

	r, g, b = c.RGB255()
	return r, g, b, nil
}

// ParseHexRGBA converts a "#rrggbb" string to color.RGBA.
// Returns white on any parse error (safe default for rendering).
func ParseHexRGBA(hex string) color.RGBA {
	if strings.TrimSpace(hex) == "" {
		return color.RGBA{255, 255, 255, 255}
	}
	r, g, b, err := ParseColor(hex)
	if err != nil {
		return color.RGBA{255, 255, 255, 255}
	}
	return color.RGBA{r, g, b, 255}
}
