//go:build js && wasm

// namecard WASM - Client-side card editor.
// Compiled with: GOOS=js GOARCH=wasm go build -o namecard.wasm ./clients/wasm/
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"syscall/js"

	"github.com/xob0t/namecard/pkg/compositor"
	"github.com/xob0t/namecard/pkg/session"
	"github.com/xob0t/namecard/pkg/template"
)

// In-memory asset store (replaces server-side asset manager).
var (
	assetsMu sync.RWMutex
	assets   = make(map[string]assetEntry)
)

type assetEntry struct {
	Data []byte
	Mime string
}

// editor is the current preset, renderer and session.
var (
	editorMu sync.Mutex
	renderer *template.Renderer
	cache    *compositor.CachedLoader
	sess     *session.Session
)

func main() {
	fmt.Println("namecard WASM loaded")

	if err := loadPreset(template.DefaultPreset()); err != nil {
		fmt.Println("namecard: " + err.Error())
	}

	// Register JS-callable functions.
	js.Global().Set("goLoadPreset", js.FuncOf(loadPresetJS))
	js.Global().Set("goRender", js.FuncOf(render))
	js.Global().Set("goExport", js.FuncOf(export))
	js.Global().Set("goNotices", js.FuncOf(notices))
	js.Global().Set("goRegisterAsset", js.FuncOf(registerAsset))
	js.Global().Set("goRemoveAsset", js.FuncOf(removeAsset))
	js.Global().Set("goReady", js.ValueOf(true))

	// Block forever (WASM must not exit).
	select {}
}

// resolveAsset returns the raw bytes of an asset ID, nil otherwise.
func resolveAsset(id string) []byte {
	assetsMu.RLock()
	defer assetsMu.RUnlock()
	if a, ok := assets[id]; ok {
		return a.Data
	}
	return nil
}

// loadPreset swaps in a new preset. Images load through the browser's
// fetch (net/http on js/wasm) or from registered assets; paths such as
// "/eid-photo/eid.png" resolve against the page URL.
func loadPreset(p *template.Preset) error {
	var fontData []byte
	if id, ok := strings.CutPrefix(p.Font.Path, compositor.AssetPrefix); ok {
		fontData = resolveAsset(id)
	}

	src := &compositor.SourceLoader{
		Assets:  resolveAsset,
		BaseURL: js.Global().Get("location").Get("href").String(),
	}
	c := compositor.NewCachedLoader(src, compositor.DefaultCacheSize)
	r, err := template.NewRenderer(p, template.RendererOptions{Loader: c, FontData: fontData})
	if err != nil {
		return err
	}
	s, err := session.New(session.Config{
		Compositor:  r.Compositor(),
		Initial:     r.Request(nil),
		DefaultText: p.Defaults.Text,
	})
	if err != nil {
		return err
	}

	editorMu.Lock()
	renderer, cache, sess = r, c, s
	editorMu.Unlock()
	return nil
}

func current() (*template.Renderer, *session.Session) {
	editorMu.Lock()
	defer editorMu.Unlock()
	return renderer, sess
}

// promise runs fn off the event loop and settles a JS Promise with its
// result. Image loading blocks, so it must not run on the calling goroutine.
func promise(fn func() (any, error)) js.Value {
	executor := js.FuncOf(func(this js.Value, args []js.Value) any {
		resolve, reject := args[0], args[1]
		go func() {
			v, err := fn()
			if err != nil {
				reject.Invoke(js.Global().Get("Error").New(err.Error()))
				return
			}
			resolve.Invoke(v)
		}()
		return nil
	})
	defer executor.Release()
	return js.Global().Get("Promise").New(executor)
}

// goLoadPreset(presetJSON) - replace the preset. Returns "ok" or "error: ...".
func loadPresetJS(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("error: need presetJSON")
	}
	p, err := template.ParsePreset([]byte(args[0].String()), "json")
	if err != nil {
		return js.ValueOf("error: " + err.Error())
	}
	if err := loadPreset(p); err != nil {
		return js.ValueOf("error: " + err.Error())
	}
	return js.ValueOf("ok")
}

// goRender(dataJSON) - render with overrides. Resolves to
// {png, origin, width, height, warnings, stale}.
func render(this js.Value, args []js.Value) any {
	dataStr := ""
	if len(args) > 0 && args[0].Type() == js.TypeString {
		dataStr = args[0].String()
	}

	return promise(func() (any, error) {
		r, s := current()
		if r == nil {
			return nil, errors.New("no preset loaded")
		}

		var data *template.DataSpec
		var warnings []template.Warning
		if dataStr != "" && dataStr != "null" {
			data, warnings = template.ParseData([]byte(dataStr), "json")
		}
		warnings = append(warnings, template.ValidateData(data, r.Preset())...)

		req := r.Request(data)
		if len(template.ValidateName(req.Text)) > 0 {
			// Keep drawing the last valid name.
			req.Text = s.Request().Text
		} else if req.Text == "" {
			req.Text = r.Preset().Defaults.Text
		}

		surface, ok, err := s.Apply(context.Background(), req)
		if !ok {
			return map[string]any{"stale": true}, nil
		}
		if err != nil && surface == nil {
			return nil, err
		}

		art, err := compositor.Export(surface, "", "")
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"png":      base64.StdEncoding.EncodeToString(art.Data),
			"origin":   surface.Origin.String(),
			"width":    surface.Width(),
			"height":   surface.Height(),
			"warnings": warningsJS(warnings),
			"stale":    false,
		}, nil
	})
}

// goExport() - encode the current surface. Resolves to {png, fileName,
// contentType}; rejects with the user-facing error message.
func export(this js.Value, args []js.Value) any {
	return promise(func() (any, error) {
		_, s := current()
		if s == nil {
			return nil, errors.New(session.ExportFailedMessage)
		}
		art, err := s.Export()
		if err != nil {
			return nil, errors.New(session.ExportFailedMessage)
		}
		return map[string]any{
			"png":         base64.StdEncoding.EncodeToString(art.Data),
			"fileName":    art.FileName,
			"contentType": art.ContentType,
		}, nil
	})
}

// goNotices() - active notices as a JSON string.
func notices(this js.Value, args []js.Value) any {
	_, s := current()
	if s == nil {
		return js.ValueOf("[]")
	}
	b, err := json.Marshal(s.Notices())
	if err != nil {
		return js.ValueOf("[]")
	}
	return js.ValueOf(string(b))
}

func warningsJS(warnings []template.Warning) []any {
	out := make([]any, 0, len(warnings))
	for _, w := range warnings {
		out = append(out, map[string]any{"field": w.Field, "message": w.Message})
	}
	return out
}

// goRegisterAsset(id, base64Data, mime) - store an asset in Go memory.
func registerAsset(this js.Value, args []js.Value) any {
	if len(args) < 3 {
		return js.ValueOf("error: need id, base64Data, mime")
	}
	id := args[0].String()
	b64 := args[1].String()
	mimeType := args[2].String()

	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return js.ValueOf("error: invalid base64: " + err.Error())
	}

	assetsMu.Lock()
	assets[id] = assetEntry{Data: data, Mime: mimeType}
	assetsMu.Unlock()
	invalidate(id)

	return js.ValueOf("ok")
}

// goRemoveAsset(id) - remove an asset from Go memory.
func removeAsset(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("error: need id")
	}
	id := args[0].String()
	assetsMu.Lock()
	delete(assets, id)
	assetsMu.Unlock()
	invalidate(id)
	return js.ValueOf("ok")
}

func invalidate(id string) {
	editorMu.Lock()
	c := cache
	editorMu.Unlock()
	if c != nil {
		c.Invalidate(compositor.AssetPrefix + id)
	}
}
