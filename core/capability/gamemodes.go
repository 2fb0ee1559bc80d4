package capability

import (
	"sync"

	"github.com/artpar/mira/core/markers"
	"github.com/artpar/mira/core/registry"
	"github.com/rs/zerolog"
)

// GameModeEntry is a registered game mode.
type GameModeEntry struct {
	Module string   `json:"module" yaml:"module"`
	Entity string   `json:"entity" yaml:"entity"`
	ID     int      `json:"id" yaml:"id"`
	Name   string   `json:"name" yaml:"name"`
	Mode   GameMode `json:"-" yaml:"-"`
}

// GameModes registers game modes. Game mode ids are chosen by the module and
// must be unique across modules; a repeated id is claimed but not stored.
type GameModes struct {
	mu      sync.Mutex
	entries *store[GameModeEntry]
	logger  zerolog.Logger
}

// NewGameModes creates a game mode registry.
func NewGameModes(logger zerolog.Logger) *GameModes {
	return &GameModes{
		entries: newStore[GameModeEntry](),
		logger:  logger.With().Str("registry", "game_modes").Logger(),
	}
}

// Name implements Registrar.
func (g *GameModes) Name() string { return "game_modes" }

// TryRegister implements Registrar.
func (g *GameModes) TryRegister(req markers.Request, meta *registry.ModuleMetadata) bool {
	entry, ok := req.Payload.(GameModeEntry)
	if req.Kind != markers.RequestGameMode || !ok {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if existing, taken := g.Get(entry.ID); taken {
		g.logger.Error().
			Str("module", meta.GUID).
			Str("entity", entry.Entity).
			Int("id", entry.ID).
			Str("owner", existing.Module).
			Msg("game mode id already used")
		return true
	}

	g.entries.add(meta.GUID, func(int) GameModeEntry {
		entry.Module = meta.GUID
		return entry
	})

	g.logger.Debug().
		Str("module", meta.GUID).
		Str("game_mode", entry.Name).
		Int("id", entry.ID).
		Msg("game mode registered")
	return true
}

// Get returns the game mode with id.
func (g *GameModes) Get(id int) (GameModeEntry, bool) {
	return g.entries.find(func(e GameModeEntry) bool { return e.ID == id })
}

// List returns every game mode in registration order.
func (g *GameModes) List() []GameModeEntry { return g.entries.all() }

// ByModule returns the game modes a module declared.
func (g *GameModes) ByModule(guid string) []GameModeEntry { return g.entries.module(guid) }

// Count returns the number of registered game modes.
func (g *GameModes) Count() int { return g.entries.len() }
