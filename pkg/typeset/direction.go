package typeset

import (
	"fmt"
	"strings"

	"github.com/go-text/typesetting/di"
	"golang.org/x/text/unicode/bidi"
)

// Direction is the base writing direction of a line.
type Direction int

const (
	// LTR lays text left to right.
	LTR Direction = iota
	// RTL lays text right to left (Arabic, Hebrew).
	RTL
	// Auto picks LTR or RTL from the first strong character.
	Auto
)

// ParseDirection accepts "ltr", "rtl" and "auto" (case-insensitive).
// The empty string means Auto.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return Auto, nil
	case "ltr":
		return LTR, nil
	case "rtl":
		return RTL, nil
	default:
		return LTR, fmt.Errorf("unknown text direction %q", s)
	}
}

func (d Direction) String() string {
	switch d {
	case RTL:
		return "rtl"
	case Auto:
		return "auto"
	default:
		return "ltr"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Direction) UnmarshalText(b []byte) error {
	v, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Resolve turns Auto into a concrete direction for text. Text without any
// strong character resolves to LTR.
func (d Direction) Resolve(text string) Direction {
	if d != Auto {
		return d
	}
	for _, r := range text {
		props, _ := bidi.LookupRune(r)
		switch props.Class() {
		case bidi.R, bidi.AL:
			return RTL
		case bidi.L:
			return LTR
		}
	}
	return LTR
}

func (d Direction) goText() di.Direction {
	if d == RTL {
		return di.DirectionRTL
	}
	return di.DirectionLTR
}
