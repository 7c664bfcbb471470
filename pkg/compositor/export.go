// export.go - Lossless PNG export and download file naming.
package compositor

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/xob0t/namecard/pkg/generator"
)

// DefaultFilePrefix starts exported file names when no prefix is configured.
const DefaultFilePrefix = "greeting"

// ContentTypePNG is the media type of every artifact.
const ContentTypePNG = "image/png"

// maxNameRunes bounds the text part of a file name.
const maxNameRunes = 64

// Artifact is an encoded surface ready to be saved.
type Artifact struct {
	Data        []byte
	FileName    string
	ContentType string
}

// Export encodes the surface as PNG and names it after text using the
// compositor's file prefix.
func (c *Compositor) Export(s *Surface, text string) (*Artifact, error) {
	return Export(s, c.prefix, text)
}

// Export encodes s as a lossless PNG named "<prefix> <text>.png".
// Every error matches ErrExport.
func Export(s *Surface, prefix, text string) (*Artifact, error) {
	if s == nil || s.Image == nil || s.Image.Bounds().Empty() {
		return nil, fmt.Errorf("%w: %w", ErrExport, ErrNoSurface)
	}

	var buf bytes.Buffer
	if err := generator.EncodePNG(&buf, s.Image); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExport, err)
	}
	return &Artifact{
		Data:        buf.Bytes(),
		FileName:    FileName(prefix, text),
		ContentType: ContentTypePNG,
	}, nil
}

// FileName builds a file name that is safe on common filesystems. Path
// separators, reserved punctuation and control characters are dropped,
// whitespace runs collapse to one space, and the text is NFC-normalized so
// Arabic names keep a single canonical spelling.
func FileName(prefix, text string) string {
	prefix = sanitizeName(prefix)
	if prefix == "" {
		prefix = DefaultFilePrefix
	}
	name := sanitizeName(text)
	if r := []rune(name); len(r) > maxNameRunes {
		name = strings.TrimSpace(string(r[:maxNameRunes]))
	}
	if name == "" {
		return prefix + ".png"
	}
	return prefix + " " + name + ".png"
}

func sanitizeName(s string) string {
	s = norm.NFC.String(s)

	var b strings.Builder
	space := false
	for _, r := range s {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			continue
		case unicode.IsSpace(r):
			space = true
			continue
		case unicode.IsControl(r), unicode.Is(unicode.Cf, r) && !isJoiner(r):
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	// Leading dots hide files on Unix; trailing dots are stripped on Windows.
	return strings.Trim(b.String(), ". ")
}

// isJoiner keeps ZWJ/ZWNJ, which change how Arabic letters connect.
func isJoiner(r rune) bool {
	return r == '\u200c' || r == '\u200d'
}
