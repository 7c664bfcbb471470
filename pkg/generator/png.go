// png.go - PNG encoding and file writer.
package generator

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var encoder = png.Encoder{CompressionLevel: png.DefaultCompression}

// EncodePNG writes img to w as a full-fidelity PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if img == nil {
		return errors.New("encode PNG: nil image")
	}
	if b := img.Bounds(); b.Empty() {
		return fmt.Errorf("encode PNG: empty image %v", b)
	}
	if err := encoder.Encode(w, img); err != nil {
		return fmt.Errorf("encode PNG: %w", err)
	}
	return nil
}

// WritePNGFile encodes img to a PNG file at the given path.
func WritePNGFile(output string, img image.Image) error {
	if ext := strings.ToLower(filepath.Ext(output)); ext != ".png" {
		return fmt.Errorf("unsupported format %q: use .png", ext)
	}
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create %s: %w", output, err)
	}
	defer f.Close()

	if err := EncodePNG(f, img); err != nil {
		return err
	}
	return f.Sync()
}
