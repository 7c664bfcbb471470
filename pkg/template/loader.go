// loader.go - Load presets (.json, .toml, .cardpack ZIP bundles) and data files.
package template

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// BundleExt is the extension of ZIP preset bundles.
const BundleExt = ".cardpack"

// maxEntryBytes caps a single extracted bundle entry.
const maxEntryBytes = 64 << 20

// LoadPreset reads a preset from path. JSON and TOML files are parsed in
// place; a .cardpack ZIP is extracted to a temp directory and its
// preset.json (or preset.toml) parsed. Relative asset paths are resolved
// against the preset's directory. The returned cleanup function removes any
// temp directory.
func LoadPreset(path string) (*Preset, func(), error) {
	noop := func() {}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".toml":
		p, err := ParsePresetFile(path)
		if err != nil {
			return nil, noop, err
		}
		return p, noop, nil
	case BundleExt, ".zip":
	default:
		return nil, noop, fmt.Errorf("unsupported preset %q: use .json, .toml or %s", path, BundleExt)
	}

	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, noop, fmt.Errorf("open %s: %w", path, err)
	}
	defer r.Close()

	// Extract to temp dir.
	tmpDir, err := os.MkdirTemp("", "cardpack-*")
	if err != nil {
		return nil, noop, fmt.Errorf("create temp dir: %w", err)
	}
	cleanup := func() { os.RemoveAll(tmpDir) }

	if err := extractZip(&r.Reader, tmpDir); err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("extract %s: %w", path, err)
	}

	for _, name := range []string{"preset.json", "preset.toml"} {
		presetPath := filepath.Join(tmpDir, name)
		if _, err := os.Stat(presetPath); err != nil {
			continue
		}
		p, err := ParsePresetFile(presetPath)
		if err != nil {
			cleanup()
			return nil, noop, err
		}
		return p, cleanup, nil
	}

	cleanup()
	return nil, noop, fmt.Errorf("read %s: no preset.json or preset.toml in bundle", path)
}

// ParsePresetFile loads a standalone preset file and resolves its asset
// paths against the file's directory.
func ParsePresetFile(path string) (*Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read preset: %w", err)
	}
	p, err := ParsePreset(data, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	resolveAssetPaths(p, filepath.Dir(path))
	return p, nil
}

// ParsePreset decodes a preset in the given format (".json" or ".toml")
// and fills in defaults. Asset paths are left untouched.
func ParsePreset(data []byte, format string) (*Preset, error) {
	var p Preset
	switch strings.TrimPrefix(strings.ToLower(format), ".") {
	case "json", "":
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parse preset JSON: %w", err)
		}
	case "toml":
		if err := toml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parse preset TOML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported preset format %q", format)
	}
	applyPresetDefaults(&p)
	return &p, nil
}

// LoadData reads and parses a data file (.json or .toml). Malformed content
// is reported as a warning and an empty DataSpec is returned so rendering
// falls back to the preset defaults.
func LoadData(path string) (*DataSpec, []Warning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read data: %w", err)
	}
	spec, warnings := ParseData(data, filepath.Ext(path))
	return spec, warnings, nil
}

// ParseData decodes a data file, never failing: problems become warnings.
func ParseData(data []byte, format string) (*DataSpec, []Warning) {
	var spec DataSpec
	var err error
	if strings.TrimPrefix(strings.ToLower(format), ".") == "toml" {
		err = toml.Unmarshal(data, &spec)
	} else {
		err = json.Unmarshal(data, &spec)
	}
	if err != nil {
		return &DataSpec{}, []Warning{{Message: fmt.Sprintf("malformed data: %v, using all defaults", err)}}
	}
	return &spec, nil
}

// isLocal reports whether locator is a filesystem path.
func isLocal(locator string) bool {
	for _, prefix := range []string{"http://", "https://", "data:", "asset:"} {
		if strings.HasPrefix(locator, prefix) {
			return false
		}
	}
	return locator != ""
}

// resolveAssetPaths makes relative asset paths absolute using baseDir.
// Paths starting with "/" are web-style and stay as they are.
func resolveAssetPaths(p *Preset, baseDir string) {
	resolve := func(loc string) string {
		if !isLocal(loc) || filepath.IsAbs(loc) || strings.HasPrefix(loc, "/") {
			return loc
		}
		return filepath.Join(baseDir, filepath.FromSlash(loc))
	}

	p.Font.Path = resolve(p.Font.Path)
	p.Background.Source = resolve(p.Background.Source)
	p.Background.Fallback = resolve(p.Background.Fallback)
}

// extractZip extracts all files from a zip reader into destDir.
func extractZip(r *zip.Reader, destDir string) error {
	for _, f := range r.File {
		target := filepath.Join(destDir, f.Name)

		// Guard against zip slip.
		if !strings.HasPrefix(filepath.Clean(target), filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("illegal path in zip: %s", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}

		// Ensure parent directory exists.
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}

		if err := extractFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

// extractFile writes a single zip entry to disk.
func extractFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return err
	}
	defer out.Close()

	n, err := io.Copy(out, io.LimitReader(rc, maxEntryBytes+1))
	if err != nil {
		return err
	}
	if n > maxEntryBytes {
		return fmt.Errorf("entry %s exceeds %d bytes", f.Name, maxEntryBytes)
	}
	return out.Sync()
}
