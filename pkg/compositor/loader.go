// loader.go - Resolve source locators to decoded images.
package compositor

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"

	// Extra decoders; png, jpeg and gif are registered by imaging.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// AssetPrefix marks locators resolved through SourceLoader.Assets.
const AssetPrefix = "asset:"

// MaxSourceBytes caps how much of a single source is read.
const MaxSourceBytes = 32 << 20

// Loader resolves a locator to a decoded image.
type Loader interface {
	Load(ctx context.Context, locator string) (image.Image, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, locator string) (image.Image, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, locator string) (image.Image, error) {
	return f(ctx, locator)
}

// AssetResolver returns the bytes of an in-memory asset, or nil if unknown.
type AssetResolver func(id string) []byte

// SourceLoader loads images from data URIs, http(s) URLs, in-memory assets
// ("asset:<id>") and local files under BaseDir.
type SourceLoader struct {
	// Client fetches remote sources. Defaults to a client with a 15s timeout.
	Client *http.Client
	// BaseDir anchors relative and web-style paths ("/eid-photo/eid.png").
	// Empty means the working directory.
	BaseDir string
	// BaseURL, when set, turns every path into a URL resolved against it
	// and fetched over HTTP. Under js/wasm this is the page location.
	BaseURL string
	// Assets resolves "asset:<id>" locators. Nil disables them.
	Assets AssetResolver
	// Restrict confines local files to BaseDir and remote URLs to
	// RemoteHosts. Loaders fed with client-supplied locators set it.
	Restrict bool
	// RemoteHosts lists the hosts a restricted loader may fetch from.
	RemoteHosts []string
}

var defaultClient = &http.Client{Timeout: 15 * time.Second}

// Load fetches and decodes locator. Every error matches ErrImageLoad.
func (l *SourceLoader) Load(ctx context.Context, locator string) (image.Image, error) {
	data, err := l.fetch(ctx, locator)
	if err != nil {
		return nil, &LoadError{Locator: locator, Err: err}
	}
	img, err := Decode(data)
	if err != nil {
		return nil, &LoadError{Locator: locator, Err: err}
	}
	return img, nil
}

// Allowed reports whether l may load locator without fetching it. Refusals
// match ErrSourceNotAllowed. Unrestricted loaders allow everything.
func (l *SourceLoader) Allowed(locator string) error {
	if !l.Restrict {
		return nil
	}
	locator = strings.TrimSpace(locator)
	switch {
	case locator == "", strings.HasPrefix(locator, "data:"), strings.HasPrefix(locator, AssetPrefix):
		return nil
	case isRemote(locator):
		u, err := url.Parse(locator)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSourceNotAllowed, err)
		}
		for _, h := range l.RemoteHosts {
			if strings.EqualFold(h, u.Hostname()) {
				return nil
			}
		}
		return fmt.Errorf("%w: host %q", ErrSourceNotAllowed, u.Hostname())
	case l.BaseURL != "":
		_, err := l.pageURL(locator)
		return err
	case l.BaseDir == "":
		return fmt.Errorf("%w: local files need a base directory", ErrSourceNotAllowed)
	default:
		_, err := localName(strings.TrimPrefix(locator, "file://"))
		return err
	}
}

func (l *SourceLoader) fetch(ctx context.Context, locator string) ([]byte, error) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return nil, fmt.Errorf("empty source")
	}
	if err := l.Allowed(locator); err != nil {
		return nil, err
	}

	switch {
	case strings.HasPrefix(locator, "data:"):
		return decodeDataURI(locator)
	case strings.HasPrefix(locator, AssetPrefix):
		id := strings.TrimPrefix(locator, AssetPrefix)
		if l.Assets == nil {
			return nil, fmt.Errorf("asset %q: no asset store", id)
		}
		data := l.Assets(id)
		if data == nil {
			return nil, fmt.Errorf("asset %q: not found", id)
		}
		return data, nil
	case isRemote(locator):
		return l.fetchHTTP(ctx, locator)
	case l.BaseURL != "":
		u, err := l.pageURL(locator)
		if err != nil {
			return nil, err
		}
		return l.fetchHTTP(ctx, u)
	default:
		return l.readFile(locator)
	}
}

func isRemote(locator string) bool {
	return strings.HasPrefix(locator, "http://") || strings.HasPrefix(locator, "https://")
}

func (l *SourceLoader) fetchHTTP(ctx context.Context, locator string) ([]byte, error) {
	client := l.Client
	if client == nil {
		client = defaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return readLimited(resp.Body)
}

// pageURL resolves a path against BaseURL. Anything naming its own scheme
// or host is refused.
func (l *SourceLoader) pageURL(path string) (string, error) {
	base, err := url.Parse(l.BaseURL)
	if err != nil {
		return "", fmt.Errorf("base URL: %w", err)
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSourceNotAllowed, err)
	}
	if ref.Scheme != "" || ref.Host != "" {
		return "", fmt.Errorf("%w: %q is not a page path", ErrSourceNotAllowed, path)
	}
	return base.ResolveReference(ref).String(), nil
}

// readFile reads a local path. With a BaseDir, web-style and relative paths
// are opened inside it and cannot escape it. Unrestricted loaders still
// accept ordinary absolute paths that are not found there.
func (l *SourceLoader) readFile(locator string) ([]byte, error) {
	path := strings.TrimPrefix(locator, "file://")
	if l.BaseDir == "" {
		return readPath(path)
	}

	name, err := localName(path)
	switch {
	case err == nil:
		data, err := readUnder(l.BaseDir, name)
		if err == nil || l.Restrict || !filepath.IsAbs(path) {
			return data, err
		}
	case l.Restrict:
		return nil, err
	}
	return readPath(path)
}

// localName turns a web-style or relative path into a name local to a base
// directory.
func localName(path string) (string, error) {
	name := filepath.FromSlash(strings.TrimLeft(path, "/"))
	if !filepath.IsLocal(name) {
		return "", fmt.Errorf("%w: %q escapes the base directory", ErrSourceNotAllowed, path)
	}
	return name, nil
}

func readUnder(dir, name string) ([]byte, error) {
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, err
	}
	defer root.Close()
	f, err := root.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readLimited(f)
}

func readPath(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readLimited(f)
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSourceBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	if len(data) > MaxSourceBytes {
		return nil, fmt.Errorf("source exceeds %d bytes", MaxSourceBytes)
	}
	return data, nil
}

// decodeDataURI extracts the payload of a "data:[<mime>][;base64],<data>" URI.
func decodeDataURI(uri string) ([]byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("malformed data URI")
	}
	if strings.HasSuffix(header, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			// Some encoders drop padding.
			if data, err2 := base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "=")); err2 == nil {
				return data, nil
			}
			return nil, fmt.Errorf("decode data URI: %w", err)
		}
		return data, nil
	}
	data, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("decode data URI: %w", err)
	}
	return []byte(data), nil
}

// Decode sniffs data and decodes it as a raster image, honoring EXIF
// orientation. Images with a zero dimension are rejected with ErrEmptyImage.
func Decode(data []byte) (image.Image, error) {
	if !filetype.IsImage(data) {
		return nil, ErrNotImage
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, ErrEmptyImage
	}
	return img, nil
}
