// Package loader feeds compiled-in extensions to the registration
// coordinator.
//
// Extensions register a factory into a Catalog from an init function, the
// way database/sql drivers do. A Loader walks the catalog, optionally
// filtered and ordered by a YAML manifest, and emits one module-loaded
// notification per extension. Closing the channel tells the coordinator
// that loading is over.
package loader

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownPlugin is returned for a GUID the catalog does not hold.
var ErrUnknownPlugin = errors.New("unknown plugin")

// Factory builds a fresh module value.
type Factory func() any

// Catalog maps plugin GUIDs to factories.
type Catalog struct {
	mu        sync.RWMutex
	factories map[string]Factory
	order     []string
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{factories: make(map[string]Factory)}
}

// Add registers a factory under guid.
func (c *Catalog) Add(guid string, f Factory) error {
	if guid == "" {
		return fmt.Errorf("plugin guid is required")
	}
	if f == nil {
		return fmt.Errorf("plugin %s: nil factory", guid)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.factories[guid]; ok {
		return fmt.Errorf("plugin %s already registered", guid)
	}
	c.factories[guid] = f
	c.order = append(c.order, guid)
	return nil
}

// Get returns the factory for guid.
func (c *Catalog) Get(guid string) (Factory, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, ok := c.factories[guid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlugin, guid)
	}
	return f, nil
}

// GUIDs returns the registered GUIDs in registration order.
func (c *Catalog) GUIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.order...)
}

// Sorted returns the registered GUIDs sorted.
func (c *Catalog) Sorted() []string {
	guids := c.GUIDs()
	sort.Strings(guids)
	return guids
}

// Len returns the number of registered plugins.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.factories)
}

var defaultCatalog = NewCatalog()

// Default returns the process-wide catalog that Register writes to.
func Default() *Catalog {
	return defaultCatalog
}

// Register adds a plugin to the default catalog. It panics if guid is empty
// or already registered.
func Register(guid string, f Factory) {
	if err := defaultCatalog.Add(guid, f); err != nil {
		panic("loader: " + err.Error())
	}
}
