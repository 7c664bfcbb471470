// cache.go - Decoded-image cache keyed by source locator.
package compositor

import (
	"context"
	"image"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultCacheSize is the number of decoded images CachedLoader keeps.
const DefaultCacheSize = 32

// sharedLoadTimeout bounds a load that outlives the caller that started it.
const sharedLoadTimeout = time.Minute

// CachedLoader remembers successfully decoded images by locator so that
// re-rendering with new text, style or position does not fetch the source
// again. Concurrent loads of the same locator share one fetch. Failures are
// never cached.
//
// Cached images are shared between callers and must not be modified.
type CachedLoader struct {
	next Loader
	size int

	mu    sync.Mutex
	items map[string]image.Image
	order []string // insertion order, oldest first

	group singleflight.Group
}

// NewCachedLoader wraps next with a cache of at most size images.
// A size <= 0 selects DefaultCacheSize.
func NewCachedLoader(next Loader, size int) *CachedLoader {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &CachedLoader{
		next:  next,
		size:  size,
		items: make(map[string]image.Image, size),
	}
}

// Load returns the cached image for locator or loads it through the
// wrapped loader. The shared load is detached from any single caller's
// cancellation; each caller stops waiting when its own ctx is done.
func (c *CachedLoader) Load(ctx context.Context, locator string) (image.Image, error) {
	if img, ok := c.get(locator); ok {
		return img, nil
	}

	ch := c.group.DoChan(locator, func() (any, error) {
		if img, ok := c.get(locator); ok {
			return img, nil
		}
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLoadTimeout)
		defer cancel()
		img, err := c.next.Load(lctx, locator)
		if err != nil {
			return nil, err
		}
		c.put(locator, img)
		return img, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(image.Image), nil
	case <-ctx.Done():
		return nil, &LoadError{Locator: locator, Err: ctx.Err()}
	}
}

// Invalidate drops locator from the cache. With no arguments every entry is
// dropped.
func (c *CachedLoader) Invalidate(locators ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(locators) == 0 {
		clear(c.items)
		c.order = c.order[:0]
		return
	}
	for _, loc := range locators {
		if _, ok := c.items[loc]; !ok {
			continue
		}
		delete(c.items, loc)
		for i, o := range c.order {
			if o == loc {
				c.order = append(c.order[:i], c.order[i+1:]...)
				break
			}
		}
	}
}

// Len returns the number of cached images.
func (c *CachedLoader) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *CachedLoader) get(locator string) (image.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	img, ok := c.items[locator]
	return img, ok
}

func (c *CachedLoader) put(locator string, img image.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[locator]; ok {
		c.items[locator] = img
		return
	}
	for len(c.order) >= c.size {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.items, oldest)
	}
	c.items[locator] = img
	c.order = append(c.order, locator)
}
