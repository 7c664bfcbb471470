package template

import (
	"archive/zip"
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xob0t/namecard/pkg/compositor"
	"github.com/xob0t/namecard/pkg/typeset"
)

func ptr[T any](v T) *T { return &v }

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func writeBundle(t *testing.T, files map[string][]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "card"+BundleExt)
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, data := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestDefaultPreset(t *testing.T) {
	p := DefaultPreset()
	assert.Equal(t, DefaultText, p.Defaults.Text)
	assert.Equal(t, 40, p.Defaults.FontSize)
	assert.Equal(t, "#ffffff", p.Defaults.Color)
	assert.Equal(t, 50.0, p.Defaults.X)
	assert.Equal(t, 49.0, p.Defaults.Y)
	assert.Equal(t, "rtl", p.Defaults.Direction)
	assert.Equal(t, Limits{MinFontSize: 12, MaxFontSize: 150}, p.Limits)
	assert.Equal(t, "عيد مونتاجكو", p.Export.Prefix)
}

func TestParsePresetJSONAndTOMLAgree(t *testing.T) {
	presetJSON, _ := GetExampleJSON()
	fromJSON, err := ParsePreset([]byte(presetJSON), ".json")
	require.NoError(t, err)
	fromTOML, err := ParsePreset([]byte(GetExampleTOML()), "toml")
	require.NoError(t, err)

	assert.Equal(t, fromJSON.Defaults, fromTOML.Defaults)
	assert.Equal(t, fromJSON.Background, fromTOML.Background)
	assert.Equal(t, fromJSON.Font, fromTOML.Font)
	assert.Equal(t, fromJSON.Limits, fromTOML.Limits)
	assert.Equal(t, fromJSON.Export, fromTOML.Export)
	assert.True(t, fromTOML.Font.SystemFonts)
}

func TestParsePresetErrors(t *testing.T) {
	_, err := ParsePreset([]byte("{"), "json")
	assert.Error(t, err)
	_, err = ParsePreset([]byte("meta = ["), "toml")
	assert.Error(t, err)
	_, err = ParsePreset([]byte("{}"), "yaml")
	assert.Error(t, err)
}

func TestParsePresetFileResolvesAssets(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "preset.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "background": {"source": "assets/eid.png", "fallback": "/eid-photo/eid.png"},
  "font": {"path": "fonts/plex.ttf"}
}`), 0o644))

	p, err := ParsePresetFile(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "assets", "eid.png"), p.Background.Source)
	assert.Equal(t, "/eid-photo/eid.png", p.Background.Fallback)
	assert.Equal(t, filepath.Join(dir, "fonts", "plex.ttf"), p.Font.Path)

	require.NoError(t, os.WriteFile(path, []byte(`{"background": {"source": "https://example.com/a.png", "fallback": "asset:bg"}}`), 0o644))
	p, err = ParsePresetFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a.png", p.Background.Source)
	assert.Equal(t, "asset:bg", p.Background.Fallback)
}

func TestLoadPresetBundle(t *testing.T) {
	path := writeBundle(t, map[string][]byte{
		"preset.json":    []byte(`{"meta": {"name": "Bundle"}, "background": {"source": "assets/eid.png"}}`),
		"assets/eid.png": testPNG(t, 40, 30),
	})

	p, cleanup, err := LoadPreset(path)
	require.NoError(t, err)
	assert.Equal(t, "Bundle", p.Meta.Name)
	_, err = os.Stat(p.Background.Source)
	require.NoError(t, err)

	r, err := NewRenderer(p, RendererOptions{})
	require.NoError(t, err)
	s, warnings, err := r.Render(t.Context(), nil)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, compositor.OriginSource, s.Origin)
	assert.Equal(t, 40, s.Width())

	cleanup()
	_, err = os.Stat(p.Background.Source)
	assert.True(t, os.IsNotExist(err))
}

func TestLoadPresetBundleTOML(t *testing.T) {
	path := writeBundle(t, map[string][]byte{"preset.toml": []byte(GetExampleTOML())})
	p, cleanup, err := LoadPreset(path)
	require.NoError(t, err)
	defer cleanup()
	assert.Equal(t, "Eid Greeting", p.Meta.Name)
	assert.True(t, strings.HasSuffix(p.Background.Source, filepath.Join("assets", "eid.png")))
}

func TestLoadPresetRejectsBadBundles(t *testing.T) {
	_, _, err := LoadPreset(writeBundle(t, map[string][]byte{"../evil.json": []byte("{}")}))
	assert.Error(t, err)

	_, _, err = LoadPreset(writeBundle(t, map[string][]byte{"readme.txt": []byte("hi")}))
	assert.ErrorContains(t, err, "no preset.json")

	_, _, err = LoadPreset(filepath.Join(t.TempDir(), "card.yaml"))
	assert.ErrorContains(t, err, "unsupported preset")
}

func TestLoadDataMalformedFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"text": `), 0o644))

	spec, warnings, err := LoadData(path)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "malformed data")
	assert.Equal(t, &DataSpec{}, spec)

	_, _, err = LoadData(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestParseDataTOML(t *testing.T) {
	spec, warnings := ParseData([]byte("text = \"علي\"\nfont_size = 60\n"), ".toml")
	assert.Empty(t, warnings)
	assert.Equal(t, "علي", *spec.Text)
	assert.Equal(t, 60, *spec.FontSize)
}

func TestMergeDataDefaults(t *testing.T) {
	req := MergeData(DefaultPreset(), nil)
	assert.Equal(t, compositor.Request{
		Source:    DefaultSource,
		Text:      DefaultText,
		FontSize:  40,
		Color:     "#ffffff",
		Position:  compositor.Position{X: 50, Y: 49},
		Direction: typeset.RTL,
	}, req)
}

func TestMergeDataOverrides(t *testing.T) {
	_, dataJSON := GetExampleJSON()
	data, warnings := ParseData([]byte(dataJSON), "json")
	require.Empty(t, warnings)

	req := MergeData(DefaultPreset(), data)
	assert.Equal(t, "محمد", req.Text)
	assert.Equal(t, 56, req.FontSize)
	assert.Equal(t, "#ffd700", req.Color)
	assert.Equal(t, compositor.Position{X: 50, Y: 60}, req.Position)
	assert.Equal(t, typeset.RTL, req.Direction)
}

func TestMergeDataClampsAndIgnoresInvalid(t *testing.T) {
	data := &DataSpec{
		FontSize:  ptr(500),
		Color:     ptr("not-a-color"),
		X:         ptr(150.0),
		Y:         ptr(-20.0),
		Direction: ptr("sideways"),
		Source:    ptr(""),
	}
	req := MergeData(DefaultPreset(), data)
	assert.Equal(t, 150, req.FontSize)
	assert.Equal(t, "#ffffff", req.Color)
	assert.Equal(t, compositor.Position{X: 100, Y: 0}, req.Position)
	assert.Equal(t, typeset.RTL, req.Direction)
	assert.Equal(t, DefaultSource, req.Source)

	req = MergeData(DefaultPreset(), &DataSpec{FontSize: ptr(-5), Direction: ptr("ltr")})
	assert.Equal(t, 12, req.FontSize)
	assert.Equal(t, typeset.LTR, req.Direction)
}

func TestValidateName(t *testing.T) {
	assert.Empty(t, ValidateName("محمد"))
	assert.Empty(t, ValidateName("Ali علي"))
	assert.Empty(t, ValidateName(""))

	w := ValidateName("Mohammed")
	require.Len(t, w, 1)
	assert.Equal(t, "text", w[0].Field)
	assert.Equal(t, ArabicNameMessage, w[0].Message)
	assert.Equal(t, "text: "+ArabicNameMessage, w[0].String())
}

func TestValidateData(t *testing.T) {
	p := DefaultPreset()
	assert.Nil(t, ValidateData(nil, p))
	assert.Empty(t, ValidateData(&DataSpec{Text: ptr("محمد"), FontSize: ptr(40)}, p))

	warnings := ValidateData(&DataSpec{
		Text:      ptr("Sara"),
		FontSize:  ptr(5),
		Color:     ptr("#12"),
		X:         ptr(101.0),
		Direction: ptr("up"),
	}, p)
	fields := make([]string, 0, len(warnings))
	for _, w := range warnings {
		fields = append(fields, w.Field)
	}
	assert.Equal(t, []string{"color", "direction", "fontSize", "text", "x"}, fields)
}

func TestFormatSchema(t *testing.T) {
	out := FormatSchema(DefaultPreset())
	assert.Contains(t, out, "Preset: Eid Greeting (v1.0)")
	assert.Contains(t, out, "fontSize:")
	assert.Contains(t, out, "Font size range: 12–150")
	assert.Less(t, strings.Index(out, "color:"), strings.Index(out, "text:"))

	assert.Equal(t, "This preset has no schema documentation.\n", FormatSchema(&Preset{}))
}

func solidLoader(w, h int) compositor.Loader {
	return compositor.LoaderFunc(func(_ context.Context, locator string) (image.Image, error) {
		if locator != DefaultSource {
			return nil, &compositor.LoadError{Locator: locator, Err: compositor.ErrNotImage}
		}
		img := image.NewRGBA(image.Rect(0, 0, w, h))
		for i := 0; i < len(img.Pix); i += 4 {
			img.Pix[i+3] = 0xff
		}
		return img, nil
	})
}

func TestRendererExport(t *testing.T) {
	r, err := NewRenderer(DefaultPreset(), RendererOptions{Loader: solidLoader(800, 600)})
	require.NoError(t, err)

	art, warnings, err := r.Export(t.Context(), &DataSpec{Text: ptr("محمد")})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "عيد مونتاجكو محمد.png", art.FileName)

	img, err := png.Decode(bytes.NewReader(art.Data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 800, 600), img.Bounds())
	assert.Equal(t, color.RGBAModel.Convert(color.Black), color.RGBAModel.Convert(img.At(0, 0)))
}

func TestRendererExportRefusesPlaceholder(t *testing.T) {
	p := DefaultPreset()
	p.Background.Fallback = ""
	r, err := NewRenderer(p, RendererOptions{Loader: solidLoader(10, 10)})
	require.NoError(t, err)

	_, _, err = r.Export(t.Context(), &DataSpec{Source: ptr("https://unreachable.invalid/x.png")})
	assert.ErrorIs(t, err, compositor.ErrExport)
	assert.ErrorIs(t, err, compositor.ErrImageLoad)
}

func TestBackgroundRemoteHosts(t *testing.T) {
	bg := Background{
		Source:       "https://cdn.example.com/eid.png",
		Fallback:     "/eid-photo/eid.png",
		AllowedHosts: []string{"images.example.org", "cdn.example.com"},
	}
	assert.Equal(t, []string{"cdn.example.com", "images.example.org"}, bg.RemoteHosts())

	assert.Empty(t, Background{Source: "asset:bg", Fallback: "data:image/png;base64,AA=="}.RemoteHosts())
}
