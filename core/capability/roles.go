package capability

import (
	"github.com/artpar/mira/core/markers"
	"github.com/artpar/mira/core/registry"
	"github.com/rs/zerolog"
)

// RoleEntry is a registered custom role.
type RoleEntry struct {
	// ID is assigned sequentially from 1 in registration order.
	ID            int               `json:"id" yaml:"id"`
	Module        string            `json:"module" yaml:"module"`
	Entity        string            `json:"entity" yaml:"entity"`
	Name          string            `json:"name" yaml:"name"`
	Team          Team              `json:"team" yaml:"team"`
	Configuration RoleConfiguration `json:"configuration" yaml:"configuration"`
	Role          CustomRole        `json:"-" yaml:"-"`
}

// Roles registers custom roles.
type Roles struct {
	entries *store[RoleEntry]
	logger  zerolog.Logger
}

// NewRoles creates a role registry.
func NewRoles(logger zerolog.Logger) *Roles {
	return &Roles{
		entries: newStore[RoleEntry](),
		logger:  logger.With().Str("registry", "roles").Logger(),
	}
}

// Name implements Registrar.
func (r *Roles) Name() string { return "roles" }

// TryRegister implements Registrar.
func (r *Roles) TryRegister(req markers.Request, meta *registry.ModuleMetadata) bool {
	entry, ok := req.Payload.(RoleEntry)
	if req.Kind != markers.RequestRole || !ok {
		return false
	}

	entry = r.entries.add(meta.GUID, func(pos int) RoleEntry {
		entry.ID = pos + 1
		entry.Module = meta.GUID
		return entry
	})

	r.logger.Debug().
		Str("module", meta.GUID).
		Str("role", entry.Name).
		Int("id", entry.ID).
		Msg("role registered")
	return true
}

// List returns every role in id order.
func (r *Roles) List() []RoleEntry { return r.entries.all() }

// ByModule returns the roles a module declared.
func (r *Roles) ByModule(guid string) []RoleEntry { return r.entries.module(guid) }

// Get returns the role with id.
func (r *Roles) Get(id int) (RoleEntry, bool) {
	return r.entries.find(func(e RoleEntry) bool { return e.ID == id })
}

// Count returns the number of registered roles.
func (r *Roles) Count() int { return r.entries.len() }

// ModifierEntry is a registered modifier.
type ModifierEntry struct {
	// ID is assigned sequentially from 1 in registration order.
	ID       int      `json:"id" yaml:"id"`
	Module   string   `json:"module" yaml:"module"`
	Entity   string   `json:"entity" yaml:"entity"`
	Name     string   `json:"name" yaml:"name"`
	HideOnUI bool     `json:"hide_on_ui" yaml:"hide_on_ui"`
	Modifier Modifier `json:"-" yaml:"-"`
}

// Modifiers registers player modifiers.
type Modifiers struct {
	entries *store[ModifierEntry]
	logger  zerolog.Logger
}

// NewModifiers creates a modifier registry.
func NewModifiers(logger zerolog.Logger) *Modifiers {
	return &Modifiers{
		entries: newStore[ModifierEntry](),
		logger:  logger.With().Str("registry", "modifiers").Logger(),
	}
}

// Name implements Registrar.
func (m *Modifiers) Name() string { return "modifiers" }

// TryRegister implements Registrar.
func (m *Modifiers) TryRegister(req markers.Request, meta *registry.ModuleMetadata) bool {
	entry, ok := req.Payload.(ModifierEntry)
	if req.Kind != markers.RequestModifier || !ok {
		return false
	}

	entry = m.entries.add(meta.GUID, func(pos int) ModifierEntry {
		entry.ID = pos + 1
		entry.Module = meta.GUID
		return entry
	})

	m.logger.Debug().
		Str("module", meta.GUID).
		Str("modifier", entry.Name).
		Int("id", entry.ID).
		Msg("modifier registered")
	return true
}

// List returns every modifier in id order.
func (m *Modifiers) List() []ModifierEntry { return m.entries.all() }

// ByModule returns the modifiers a module declared.
func (m *Modifiers) ByModule(guid string) []ModifierEntry { return m.entries.module(guid) }

// Get returns the modifier with id.
func (m *Modifiers) Get(id int) (ModifierEntry, bool) {
	return m.entries.find(func(e ModifierEntry) bool { return e.ID == id })
}

// Count returns the number of registered modifiers.
func (m *Modifiers) Count() int { return m.entries.len() }
