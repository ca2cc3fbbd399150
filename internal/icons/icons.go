// Package icons generates and memoizes the map marker pins.
//
// Get returns the same *models.IconAsset for a category until Clear is
// called, so renderers can skip work on pointer equality.
package icons

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/cases"

	"github.com/jengzang/dialysis-locator-go/internal/models"
)

// DefaultCategory is used for empty and unknown categories.
const DefaultCategory = "default"

// Native descriptor geometry: a 32x40 pin anchored at its tip.
const (
	NativeWidth   = 32
	NativeHeight  = 40
	NativeAnchorX = 0.5
	NativeAnchorY = 1.0
)

var palette = map[string]string{
	"hemodialysis":  "#d32f2f",
	"peritoneal":    "#1976d2",
	"home":          "#388e3c",
	"pediatric":     "#f57c00",
	"nocturnal":     "#512da8",
	DefaultCategory: "#616161",
}

// Categories returns the known category keys.
func Categories() []string {
	out := make([]string, 0, len(palette))
	for k := range palette {
		out = append(out, k)
	}
	return out
}

// Runtime is the native map runtime. Native descriptors are only built
// while Available reports true.
type Runtime interface {
	Available() bool
}

// StaticRuntime is a Runtime whose availability is fixed at startup.
type StaticRuntime bool

// Available implements Runtime.
func (r StaticRuntime) Available() bool { return bool(r) }

// Cache memoizes icon assets and their native descriptors per category.
type Cache struct {
	mu      sync.Mutex
	assets  map[string]*models.IconAsset
	natives map[string]*models.NativeIcon
	runtime Runtime
	fold    cases.Caser
}

// NewCache creates an empty cache. runtime may be nil.
func NewCache(runtime Runtime) *Cache {
	return &Cache{
		assets:  make(map[string]*models.IconAsset),
		natives: make(map[string]*models.NativeIcon),
		runtime: runtime,
		fold:    cases.Fold(),
	}
}

// Normalize maps a raw category to its cache key.
func (c *Cache) Normalize(category string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.normalize(category)
}

func (c *Cache) normalize(category string) string {
	key := c.fold.String(strings.TrimSpace(category))
	if _, ok := palette[key]; !ok {
		return DefaultCategory
	}
	return key
}

// Get returns the asset for category, generating it on first use.
func (c *Cache) Get(category string) *models.IconAsset {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.get(c.normalize(category))
}

func (c *Cache) get(key string) *models.IconAsset {
	if a, ok := c.assets[key]; ok {
		return a
	}
	a := &models.IconAsset{
		Category: key,
		Color:    palette[key],
		SVG:      renderPin(palette[key]),
	}
	c.assets[key] = a
	return a
}

// Native returns the native descriptor for category, or nil when no
// native runtime is available.
func (c *Cache) Native(category string) *models.NativeIcon {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.native(c.normalize(category))
}

func (c *Cache) native(key string) *models.NativeIcon {
	if c.runtime == nil || !c.runtime.Available() {
		return nil
	}
	if n, ok := c.natives[key]; ok {
		return n
	}
	n := &models.NativeIcon{
		Asset:   c.get(key),
		Key:     key,
		Width:   NativeWidth,
		Height:  NativeHeight,
		AnchorX: NativeAnchorX,
		AnchorY: NativeAnchorY,
	}
	c.natives[key] = n
	return n
}

// PreWarm fills both caches for categories.
func (c *Cache) PreWarm(categories []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cat := range categories {
		key := c.normalize(cat)
		c.get(key)
		c.native(key)
	}
}

// Clear drops every cached asset and descriptor.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.assets = make(map[string]*models.IconAsset)
	c.natives = make(map[string]*models.NativeIcon)
}

// Len reports the number of cached assets.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.assets)
}

func renderPin(color string) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 32 40">`, NativeWidth, NativeHeight)
	fmt.Fprintf(&b, `<path d="M16 0C7.2 0 0 7.2 0 16c0 12 16 24 16 24s16-12 16-24C32 7.2 24.8 0 16 0z" fill="%s"/>`, color)
	b.WriteString(`<circle cx="16" cy="16" r="6" fill="#ffffff"/></svg>`)
	return b.Bytes()
}
