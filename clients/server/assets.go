// assets.go - In-memory store for uploaded images, addressable as asset:<id>.
package server

import (
	"crypto/rand"
	"encoding/hex"
	"slices"
	"strings"
	"sync"

	"github.com/h2non/filetype"

	"github.com/xob0t/namecard/pkg/compositor"
)

type asset struct {
	Name string
	Data []byte
	Mime string
}

// assetInfo is the JSON view of an asset.
type assetInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Mime    string `json:"mime"`
	Size    int    `json:"size"`
	URL     string `json:"url"`
	Locator string `json:"locator"`
}

type assetManager struct {
	mu     sync.RWMutex
	assets map[string]*asset
}

func newAssetManager() *assetManager {
	return &assetManager{assets: make(map[string]*asset)}
}

func (am *assetManager) add(name string, data []byte, mimeType string) string {
	id := randomID()
	am.mu.Lock()
	am.assets[id] = &asset{Name: name, Data: data, Mime: mimeType}
	am.mu.Unlock()
	return id
}

func (am *assetManager) get(id string) (*asset, bool) {
	am.mu.RLock()
	a, ok := am.assets[id]
	am.mu.RUnlock()
	return a, ok
}

// bytes resolves asset:<id> locators for the compositor.
func (am *assetManager) bytes(id string) []byte {
	if a, ok := am.get(id); ok {
		return a.Data
	}
	return nil
}

func (am *assetManager) listAll() []assetInfo {
	am.mu.RLock()
	defer am.mu.RUnlock()
	result := make([]assetInfo, 0, len(am.assets))
	for id, a := range am.assets {
		result = append(result, info(id, a))
	}
	slices.SortFunc(result, func(a, b assetInfo) int { return strings.Compare(a.Name+a.ID, b.Name+b.ID) })
	return result
}

func (am *assetManager) remove(id string) bool {
	am.mu.Lock()
	defer am.mu.Unlock()
	if _, ok := am.assets[id]; !ok {
		return false
	}
	delete(am.assets, id)
	return true
}

func info(id string, a *asset) assetInfo {
	return assetInfo{
		ID:      id,
		Name:    a.Name,
		Mime:    a.Mime,
		Size:    len(a.Data),
		URL:     "/api/assets/" + id,
		Locator: assetLocator(id),
	}
}

func assetLocator(id string) string {
	return compositor.AssetPrefix + id
}

// sniffImage returns the MIME type of data when it is a raster image.
func sniffImage(data []byte) (string, bool) {
	if !filetype.IsImage(data) {
		return "", false
	}
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return "", false
	}
	return kind.MIME.Value, true
}

func randomID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}
