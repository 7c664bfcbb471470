// fonts.go - Font management with custom TTF support and embedded fallback fonts.
// Faces are resolved per rune through a go-text FontMap: the custom font first,
// then the embedded Amiri (Arabic) and Go Regular faces, then system fonts when
// enabled.
package typeset

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"sync"

	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/fontscan"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/xob0t/namecard/internal/logger"
)

const (
	customFamily   = "namecard-custom"
	arabicFamily   = "Amiri"
	fallbackFamily = "Go"
)

// amiriTTF is Amiri Regular, licensed under the SIL Open Font License 1.1
// (fonts/OFL.txt).
//
//go:embed fonts/Amiri-Regular.ttf
var amiriTTF []byte

// scanLogger sends fontscan's diagnostics to the shared logger instead of
// the standard logger.
type scanLogger struct{}

func (scanLogger) Printf(format string, args ...any) {
	logger.For("fonts").Debug(fmt.Sprintf(format, args...))
}

// FontOptions selects the fonts a FontSet resolves glyphs from.
type FontOptions struct {
	// Path is a custom TTF/OTF file tried first. Ignored when Data is set.
	Path string
	// Data is an in-memory custom font (e.g. an uploaded asset).
	Data []byte
	// SystemFonts enables lookup in the fonts installed on the host, which
	// is how Arabic glyphs are found when the custom font lacks them.
	SystemFonts bool
	// CacheDir holds the system font index. Defaults to os.UserCacheDir.
	CacheDir string
}

// FontSet resolves a font face for every rune and shapes text with it.
// It is safe for concurrent use.
type FontSet struct {
	mu       sync.Mutex
	fontMap  *fontscan.FontMap
	fallback *font.Face
	families []string
	custom   bool
	shaper   shaping.HarfbuzzShaper
	splitter shaping.Segmenter
}

// NewFontSet creates a font set with the specified custom font.
// If the custom font is missing or invalid, the embedded Go font is used.
func NewFontSet(opts FontOptions) (*FontSet, error) {
	log := logger.For("fonts")
	fs := &FontSet{fontMap: fontscan.NewFontMap(scanLogger{})}

	if opts.SystemFonts {
		dir := opts.CacheDir
		if dir == "" {
			if d, err := os.UserCacheDir(); err == nil {
				dir = d
			}
		}
		if err := fs.fontMap.UseSystemFonts(dir); err != nil {
			log.Warn("system fonts unavailable", "err", err)
		}
	}

	// Try custom font first
	data := opts.Data
	if data == nil && opts.Path != "" {
		b, err := os.ReadFile(opts.Path)
		if err != nil {
			log.Warn("could not load custom font, using default", "path", opts.Path, "err", err)
		} else {
			data = b
		}
	}
	if data != nil {
		if err := fs.fontMap.AddFont(bytes.NewReader(data), "custom", customFamily); err != nil {
			log.Warn("could not parse custom font, using default", "path", opts.Path, "err", err)
		} else {
			fs.families = append(fs.families, customFamily)
			fs.custom = true
		}
	}

	// Embedded fonts come after the custom one so they never shadow it.
	if err := fs.fontMap.AddFont(bytes.NewReader(amiriTTF), "amiri", arabicFamily); err != nil {
		return nil, fmt.Errorf("failed to register Arabic font: %w", err)
	}
	fs.families = append(fs.families, arabicFamily)

	face, err := font.ParseTTF(bytes.NewReader(goregular.TTF))
	if err != nil {
		return nil, fmt.Errorf("failed to parse fallback font: %w", err)
	}
	if err := fs.fontMap.AddFont(bytes.NewReader(goregular.TTF), "goregular", fallbackFamily); err != nil {
		return nil, fmt.Errorf("failed to register fallback font: %w", err)
	}
	fs.fallback = face
	fs.families = append(fs.families, fallbackFamily)
	fs.fontMap.SetQuery(fontscan.Query{Families: fs.families})

	return fs, nil
}

// HasCustomFont reports whether a custom font was loaded successfully.
func (fs *FontSet) HasCustomFont() bool {
	return fs.custom
}

// ResolveFace implements shaping.Fontmap and never returns nil.
func (fs *FontSet) ResolveFace(r rune) *font.Face {
	if f := fs.fontMap.ResolveFace(r); f != nil {
		return f
	}
	return fs.fallback
}
