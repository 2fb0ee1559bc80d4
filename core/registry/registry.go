// Package registry records the extension modules that completed registration.
// It answers "which modules are loaded" and "what did module X declare"
// for the rest of the runtime.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ErrDuplicateModule is returned by Add when the GUID is already recorded.
var ErrDuplicateModule = errors.New("module already registered")

// ErrModuleNotFound is returned by Lookup.
var ErrModuleNotFound = errors.New("module not found")

// ModuleMetadata describes a registered module.
type ModuleMetadata struct {
	GUID                 string `json:"guid" yaml:"guid"`
	Name                 string `json:"name" yaml:"name"`
	Version              string `json:"version" yaml:"version"`
	RequiredOnAllClients bool   `json:"required_on_all_clients" yaml:"required_on_all_clients"`

	// OptionGroups lists the module's option groups by name, ordered by
	// group priority.
	OptionGroups []string `json:"option_groups,omitempty" yaml:"option_groups,omitempty"`

	// CosmeticsGroups lists the module's cosmetics groups the same way.
	CosmeticsGroups []string `json:"cosmetics_groups,omitempty" yaml:"cosmetics_groups,omitempty"`

	// RegistrationID is unique per registration run.
	RegistrationID string `json:"registration_id,omitempty" yaml:"registration_id,omitempty"`

	// Fingerprint hashes the module's declarations.
	Fingerprint string `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`

	RegisteredAt time.Time `json:"registered_at" yaml:"registered_at"`
}

func (m ModuleMetadata) clone() ModuleMetadata {
	if m.OptionGroups != nil {
		m.OptionGroups = append([]string(nil), m.OptionGroups...)
	}
	if m.CosmeticsGroups != nil {
		m.CosmeticsGroups = append([]string(nil), m.CosmeticsGroups...)
	}
	return m
}

// Registry holds module metadata keyed by GUID.
// Thread-safe for concurrent access.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]ModuleMetadata
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		modules: make(map[string]ModuleMetadata),
	}
}

// Add records a module. Returns ErrDuplicateModule if the GUID is taken.
func (r *Registry) Add(meta ModuleMetadata) error {
	if meta.GUID == "" {
		return errors.New("module guid is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.modules[meta.GUID]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateModule, meta.GUID)
	}
	r.modules[meta.GUID] = meta.clone()
	return nil
}

// Get returns a copy of the module's metadata.
func (r *Registry) Get(guid string) (ModuleMetadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	meta, ok := r.modules[guid]
	if !ok {
		return ModuleMetadata{}, false
	}
	return meta.clone(), true
}

// Lookup is Get with an error for callers that want one.
func (r *Registry) Lookup(guid string) (ModuleMetadata, error) {
	meta, ok := r.Get(guid)
	if !ok {
		return ModuleMetadata{}, fmt.Errorf("%w: %q", ErrModuleNotFound, guid)
	}
	return meta, nil
}

// Has reports whether guid is registered.
func (r *Registry) Has(guid string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.modules[guid]
	return ok
}

// List returns copies of all modules sorted by GUID.
func (r *Registry) List() []ModuleMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	modules := make([]ModuleMetadata, 0, len(r.modules))
	for _, meta := range r.modules {
		modules = append(modules, meta.clone())
	}

	sort.Slice(modules, func(i, j int) bool {
		return modules[i].GUID < modules[j].GUID
	})

	return modules
}

// Count returns the number of registered modules.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.modules)
}
