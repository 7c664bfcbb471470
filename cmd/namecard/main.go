// namecard - Greeting cards with a name drawn on them.
//
// Usage:
//
//	namecard -o <file> [--preset <path>] [--data <path>] [options]
//	namecard schema --preset <path>
//	namecard serve [--port 8080]
//	namecard init
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/xob0t/namecard/clients/server"
	"github.com/xob0t/namecard/pkg/compositor"
	"github.com/xob0t/namecard/pkg/generator"
	"github.com/xob0t/namecard/pkg/template"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "init":
		if err := runInit(os.Args[2:]); err != nil {
			fatal(err)
		}
	case "schema":
		if err := runSchema(os.Args[2:]); err != nil {
			fatal(err)
		}
	case "serve":
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		setupLogging(hasVerbose(os.Args[2:]))
		if err := server.RunServe(ctx, stripVerbose(os.Args[2:])); err != nil && !errors.Is(err, flag.ErrHelp) {
			fatal(err)
		}
	case "help", "--help":
		printUsage()
	default:
		// Default: render mode (all flags on root).
		if err := run(os.Args[1:]); err != nil {
			fatal(err)
		}
	}
}

// overrides collects the per-render flags. Only flags given on the command
// line override the preset.
type overrides struct {
	text, color, dir, source string
	size                     int
	x, y                     float64
}

func run(args []string) error {
	fs := flag.NewFlagSet("namecard", flag.ExitOnError)

	var (
		output     string
		presetPath string
		dataPath   string
		fallback   string
		fontPath   string
		staticDir  string
		bg         string
		width      int
		height     int
		verbose    bool
		sysFonts   bool
		o          overrides
	)

	fs.StringVar(&output, "o", "", "Output PNG path (default: the card's export name)")
	fs.StringVar(&output, "output", "", "Output PNG path")
	fs.StringVar(&presetPath, "preset", "", "Preset file (.json, .toml or .cardpack)")
	fs.StringVar(&dataPath, "data", "", "Data file with overrides (optional)")
	fs.StringVar(&o.text, "text", "", "Name drawn on the card")
	fs.IntVar(&o.size, "size", 0, "Font size in pixels")
	fs.StringVar(&o.color, "color", "", "Text color (#rrggbb)")
	fs.Float64Var(&o.x, "x", 0, "Horizontal anchor, percent from the left")
	fs.Float64Var(&o.y, "y", 0, "Vertical anchor, percent from the top")
	fs.StringVar(&o.dir, "dir", "", "Text direction: rtl, ltr or auto")
	fs.StringVar(&o.source, "source", "", "Background image: path, URL or data URI")
	fs.StringVar(&fallback, "fallback", "", "Image used when the background fails to load")
	fs.StringVar(&fontPath, "font", "", "Custom TTF/OTF font")
	fs.BoolVar(&sysFonts, "system-fonts", false, "Also search installed fonts for missing glyphs")
	fs.StringVar(&staticDir, "static", "", "Directory that web-style paths such as /eid-photo/eid.png resolve against")
	fs.StringVar(&bg, "bg", "random", "Solid mode background color: hex or 'random'")
	fs.IntVar(&width, "w", generator.DefaultWidth, "Solid mode width in pixels")
	fs.IntVar(&width, "width", generator.DefaultWidth, "Solid mode width in pixels")
	fs.IntVar(&height, "h", generator.DefaultHeight, "Solid mode height in pixels")
	fs.IntVar(&height, "height", generator.DefaultHeight, "Solid mode height in pixels")
	fs.BoolVar(&verbose, "v", false, "Verbose (debug) logging")

	fs.Usage = printUsage
	if err := fs.Parse(args); err != nil {
		return err
	}
	setupLogging(verbose)

	if output != "" && output != "-" && !strings.EqualFold(filepath.Ext(output), ".png") {
		return fmt.Errorf("unsupported output %q: use .png", output)
	}

	// Simple solid-color mode.
	if presetPath == "" && o.source == "" {
		if output == "" {
			printUsage()
			return fmt.Errorf("output file is required (-o) in solid mode")
		}
		img, err := generator.Solid{Width: width, Height: height, Color: bg}.Render()
		if err != nil {
			return err
		}
		if output == "-" {
			return generator.EncodePNG(os.Stdout, img)
		}
		fmt.Printf("Generating: %s\n", output)
		if err := generator.WritePNGFile(output, img); err != nil {
			return err
		}
		fmt.Printf("Done: %s\n", output)
		return nil
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	return runPreset(presetPath, dataPath, output, staticDir, fallback, fontPath, sysFonts, o, set)
}

func runPreset(presetPath, dataPath, output, staticDir, fallback, fontPath string, sysFonts bool, o overrides, set map[string]bool) error {
	preset := template.DefaultPreset()
	if presetPath != "" {
		p, cleanup, err := template.LoadPreset(presetPath)
		if err != nil {
			return fmt.Errorf("load preset: %w", err)
		}
		defer cleanup()
		preset = p
	}
	if fallback != "" {
		preset.Background.Fallback = fallback
	}
	if fontPath != "" {
		preset.Font.Path = fontPath
	}
	if sysFonts {
		preset.Font.SystemFonts = true
	}

	// Load data (optional).
	data := &template.DataSpec{}
	if dataPath != "" {
		d, warnings, err := template.LoadData(dataPath)
		if err != nil {
			return fmt.Errorf("load data: %w", err)
		}
		for _, w := range warnings {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
		}
		data = d
	}
	applyOverrides(data, o, set)

	renderer, err := template.NewRenderer(preset, template.RendererOptions{BaseDir: staticDir})
	if err != nil {
		return fmt.Errorf("renderer: %w", err)
	}

	status := os.Stdout
	if output == "-" {
		status = os.Stderr
	}
	fmt.Fprintf(status, "Rendering preset: %s\n", preset.Meta.Name)
	art, warnings, err := renderer.Export(context.Background(), data)
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}
	if err != nil {
		return err
	}

	switch output {
	case "-":
		_, err = os.Stdout.Write(art.Data)
		return err
	case "":
		output = art.FileName
	}
	if err := os.WriteFile(output, art.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	fmt.Fprintf(status, "Done: %s\n", output)
	return nil
}

// applyOverrides copies the flags the user actually set onto data.
func applyOverrides(data *template.DataSpec, o overrides, set map[string]bool) {
	if set["text"] {
		data.Text = &o.text
	}
	if set["size"] {
		data.FontSize = &o.size
	}
	if set["color"] {
		data.Color = &o.color
	}
	if set["x"] {
		data.X = &o.x
	}
	if set["y"] {
		data.Y = &o.y
	}
	if set["dir"] {
		data.Direction = &o.dir
	}
	if set["source"] {
		data.Source = &o.source
	}
}

func runSchema(args []string) error {
	fs := flag.NewFlagSet("schema", flag.ExitOnError)
	var presetPath string
	fs.StringVar(&presetPath, "preset", "", "Preset file (.json, .toml or .cardpack)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	preset := template.DefaultPreset()
	if presetPath != "" {
		p, cleanup, err := template.LoadPreset(presetPath)
		if err != nil {
			return err
		}
		defer cleanup()
		preset = p
	}

	fmt.Print(template.FormatSchema(preset))
	return nil
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	var presetOut, dataOut string
	var asTOML bool
	fs.StringVar(&presetOut, "preset", "", "Output path for sample preset (default: preset.json or preset.toml)")
	fs.StringVar(&dataOut, "data", "data.json", "Output path for sample data")
	fs.BoolVar(&asTOML, "toml", false, "Write the sample preset as TOML")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p, d := template.GetExampleJSON()
	if asTOML {
		p = template.GetExampleTOML()
	}
	if presetOut == "" {
		presetOut = "preset.json"
		if asTOML {
			presetOut = "preset.toml"
		}
	}

	if err := os.WriteFile(presetOut, []byte(p), 0o644); err != nil {
		return fmt.Errorf("write preset: %w", err)
	}
	if err := os.WriteFile(dataOut, []byte(d), 0o644); err != nil {
		return fmt.Errorf("write data: %w", err)
	}

	fmt.Printf("Created: %s, %s\n", presetOut, dataOut)
	fmt.Printf("Run: namecard -o card.png --preset %s --data %s\n", presetOut, dataOut)
	return nil
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	compositor.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func hasVerbose(args []string) bool {
	for _, a := range args {
		if a == "-v" || a == "--v" {
			return true
		}
	}
	return false
}

func stripVerbose(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a != "-v" && a != "--v" {
			out = append(out, a)
		}
	}
	return out
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Print(`namecard - Greeting cards with a name drawn on them (Pure Go)

USAGE:
    namecard -o <file> [--preset <path>] [--data <path>] [options]
    namecard -o <file> --bg <hex> [options]
    namecard schema [--preset <path>]
    namecard serve [--port 8080] [--preset <path>] [--static <dir>] [--dev] [-v]
    namecard init [--toml]

CARD MODE (used when --preset or --source is given):
    --preset <path>        .json, .toml or .cardpack preset (default: stock Eid card)
    --data <path>          Data file with overrides (optional)
    -o, --output <path>    Output PNG, '-' for stdout (default: the card's export name)
    --text <name>          Name drawn on the card (Arabic)
    --size <px>            Font size
    --color <hex>          Text color
    --x, --y <percent>     Text anchor, 0 to 100
    --dir <rtl|ltr|auto>   Text direction
    --source <loc>         Background: path, URL or data URI
    --fallback <loc>       Image used when the background fails
    --font <path>          Custom TTF/OTF font
    --system-fonts         Search installed fonts for glyphs the bundled fonts lack
    --static <dir>         Root for web-style paths (/eid-photo/eid.png)
    -v                     Debug logging

SOLID MODE:
    -o, --output <path>    Output PNG, '-' for stdout
    --bg <hex>             Background color or 'random' (default: random)
    -w, --width <px>       Width in pixels (default: 1280)
    -h, --height <px>      Height in pixels (default: 720)

UI SERVER:
    namecard serve [--port 8080]        Start the HTTP API

SCHEMA:
    namecard schema --preset <path>     Print the preset's data file format

EXAMPLES:
    namecard init
    namecard serve --static ./public
    namecard -o card.png --preset preset.json --data data.json
    namecard --source eid.png --text "محمد" --color "#ffd700"
    namecard schema --preset eid.cardpack
    namecard -o solid.png --bg "#ff0000" -w 1920 -h 1080
`)
}
