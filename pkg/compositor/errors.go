package compositor

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	// ErrImageLoad marks every failure to fetch or decode a source image.
	ErrImageLoad = errors.New("image load failed")
	// ErrNotImage is returned when fetched bytes are not a known raster format.
	ErrNotImage = errors.New("not an image")
	// ErrEmptyImage is returned for sources with zero width or height.
	ErrEmptyImage = errors.New("image has zero width or height")
	// ErrSourceNotAllowed is returned for locators a restricted loader refuses.
	ErrSourceNotAllowed = errors.New("source not allowed")
	// ErrExport marks every failure to produce an export artifact.
	ErrExport = errors.New("export failed")
	// ErrNoSurface is returned when exporting before anything was rendered.
	ErrNoSurface = errors.New("no rendered surface")
)

// LoadError records which locator failed to load and why.
// It matches ErrImageLoad with errors.Is.
type LoadError struct {
	Locator string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", redact(e.Locator), e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is reports true for ErrImageLoad.
func (e *LoadError) Is(target error) bool { return target == ErrImageLoad }

// redact shortens data URIs so error messages stay readable. The cut
// never splits a UTF-8 sequence.
func redact(locator string) string {
	const keep = 48
	if len(locator) <= keep {
		return locator
	}
	cut := keep
	for cut > 0 && !utf8.RuneStart(locator[cut]) {
		cut--
	}
	return locator[:cut] + "..."
}
