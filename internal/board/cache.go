package board

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// DefaultCacheSize is the pixel size boards are cached at.
const DefaultCacheSize = 600

// RenderFunc draws one board.
type RenderFunc func(fen string, size int) (*Artifact, error)

// Cache memoizes rendered boards by placement field.
// FENs that differ only after the placement share one entry.
type Cache struct {
	render RenderFunc
	size   int

	mu      sync.Mutex
	entries map[string]*Artifact
	gen     uint64

	group   singleflight.Group
	renders atomic.Int64
}

// NewCache returns an empty cache rendering at size pixels (DefaultCacheSize when size <= 0).
func NewCache(render RenderFunc, size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &Cache{
		render:  render,
		size:    size,
		entries: make(map[string]*Artifact),
	}
}

// Size returns the canonical render size.
func (c *Cache) Size() int { return c.size }

// GetOrRender returns the cached artifact for fen, rendering it on a miss.
// Concurrent misses for the same placement render once.
func (c *Cache) GetOrRender(fen string) (*Artifact, error) {
	key := Placement(fen)

	c.mu.Lock()
	if a, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return a, nil
	}
	gen := c.gen
	c.mu.Unlock()

	v, err, _ := c.group.Do(key, func() (any, error) {
		c.mu.Lock()
		if a, ok := c.entries[key]; ok {
			c.mu.Unlock()
			return a, nil
		}
		c.mu.Unlock()

		a, err := c.render(key, c.size)
		if err != nil {
			return nil, err
		}
		c.renders.Add(1)

		c.mu.Lock()
		// a Clear during the render drops the result
		if c.gen == gen {
			c.entries[key] = a
		}
		c.mu.Unlock()
		return a, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Artifact), nil
}

// Render draws fen at the canonical size without storing the result.
func (c *Cache) Render(fen string) (*Artifact, error) {
	a, err := c.render(Placement(fen), c.size)
	if err != nil {
		return nil, err
	}
	c.renders.Add(1)
	return a, nil
}

// Get returns the cached artifact for fen, or an uncached render on a miss.
// Viewers use it so that only Warm and GetOrRender grow the cache.
func (c *Cache) Get(fen string) (*Artifact, error) {
	if a, ok := c.Lookup(fen); ok {
		return a, nil
	}
	return c.Render(fen)
}

// Lookup returns a cached artifact without rendering.
func (c *Cache) Lookup(fen string) (*Artifact, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.entries[Placement(fen)]
	return a, ok
}

// Warm renders every fen not yet cached. It stops at the first error.
func (c *Cache) Warm(fens []string) error {
	for _, fen := range fens {
		if _, err := c.GetOrRender(fen); err != nil {
			return err
		}
	}
	return nil
}

// Clear drops all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Artifact)
	c.gen++
}

// Len returns the number of cached boards.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Renders returns how many times the render function has run.
func (c *Cache) Renders() int64 {
	return c.renders.Load()
}
