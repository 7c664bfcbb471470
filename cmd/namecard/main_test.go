package main

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xob0t/namecard/pkg/template"
)

func pngDataURI(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0x40
	}
	img.Set(0, 0, color.RGBA{0, 0, 0, 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestApplyOverridesOnlySetFlags(t *testing.T) {
	text := "أحمد"
	data := &template.DataSpec{Text: &text}
	o := overrides{size: 72, color: "#ff0000", x: 10}

	applyOverrides(data, o, map[string]bool{"size": true, "x": true})

	require.NotNil(t, data.Text)
	assert.Equal(t, "أحمد", *data.Text)
	require.NotNil(t, data.FontSize)
	assert.Equal(t, 72, *data.FontSize)
	require.NotNil(t, data.X)
	assert.Equal(t, 10.0, *data.X)
	assert.Nil(t, data.Color)
	assert.Nil(t, data.Y)
	assert.Nil(t, data.Source)
}

func TestRunPresetWritesPNG(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "card.png")
	o := overrides{text: "محمد", source: pngDataURI(t, 400, 300)}

	err := runPreset("", "", out, "", "", "", false, o, map[string]bool{"text": true, "source": true})
	require.NoError(t, err)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 400, cfg.Width)
	assert.Equal(t, 300, cfg.Height)
}

func TestRunPresetRejectsUnloadableCard(t *testing.T) {
	dir := t.TempDir()
	o := overrides{source: filepath.Join(dir, "missing.png")}
	// The fallback is also missing, so only a placeholder could be drawn.
	err := runPreset("", "", filepath.Join(dir, "card.png"), "", filepath.Join(dir, "gone.png"), "", false, o, map[string]bool{"source": true})
	assert.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "card.png"))
}

func TestRunInitWritesSamples(t *testing.T) {
	dir := t.TempDir()
	presetOut := filepath.Join(dir, "preset.toml")
	dataOut := filepath.Join(dir, "data.json")

	require.NoError(t, runInit([]string{"--toml", "--preset", presetOut, "--data", dataOut}))

	p, err := template.ParsePresetFile(presetOut)
	require.NoError(t, err)
	assert.NotEmpty(t, p.Meta.Name)

	d, warnings, err := template.LoadData(dataOut)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.NotNil(t, d.Text)
	assert.Equal(t, "محمد", *d.Text)
}

func TestVerboseFlagHandling(t *testing.T) {
	args := []string{"--port", "9000", "-v", "--dev"}
	assert.True(t, hasVerbose(args))
	assert.Equal(t, []string{"--port", "9000", "--dev"}, stripVerbose(args))
	assert.False(t, hasVerbose([]string{"--port", "9000"}))
}
