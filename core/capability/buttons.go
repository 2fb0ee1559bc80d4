package capability

import (
	"sync"
	"time"

	"github.com/artpar/mira/core/markers"
	"github.com/artpar/mira/core/registry"
	"github.com/rs/zerolog"
)

// ButtonEntry is a registered ability button.
type ButtonEntry struct {
	Module   string        `json:"module" yaml:"module"`
	Entity   string        `json:"entity" yaml:"entity"`
	Name     string        `json:"name" yaml:"name"`
	Cooldown time.Duration `json:"cooldown" yaml:"cooldown"`
	Button   CustomButton  `json:"-" yaml:"-"`
}

// Buttons registers ability buttons. The HUD reads the frozen view published
// by Freeze once loading has finished.
type Buttons struct {
	entries *store[ButtonEntry]
	logger  zerolog.Logger

	mu     sync.RWMutex
	frozen bool
	view   []ButtonEntry
}

// NewButtons creates a button registry.
func NewButtons(logger zerolog.Logger) *Buttons {
	return &Buttons{
		entries: newStore[ButtonEntry](),
		logger:  logger.With().Str("registry", "buttons").Logger(),
	}
}

// Name implements Registrar.
func (b *Buttons) Name() string { return "buttons" }

// TryRegister implements Registrar.
func (b *Buttons) TryRegister(req markers.Request, meta *registry.ModuleMetadata) bool {
	entry, ok := req.Payload.(ButtonEntry)
	if req.Kind != markers.RequestButton || !ok {
		return false
	}

	entry = b.entries.add(meta.GUID, func(int) ButtonEntry {
		entry.Module = meta.GUID
		return entry
	})

	b.mu.Lock()
	if b.frozen {
		b.view = b.entries.all()
		b.logger.Warn().
			Str("module", meta.GUID).
			Str("button", entry.Name).
			Msg("button registered after freeze")
	}
	b.mu.Unlock()

	b.logger.Debug().
		Str("module", meta.GUID).
		Str("button", entry.Name).
		Msg("button registered")
	return true
}

// Freeze publishes the registered buttons. Safe to call more than once.
func (b *Buttons) Freeze() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.view = b.entries.all()
	b.frozen = true

	b.logger.Debug().Int("buttons", len(b.view)).Msg("buttons frozen")
}

// Frozen reports whether Freeze has run.
func (b *Buttons) Frozen() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.frozen
}

// View returns the published buttons. Nil before Freeze.
func (b *Buttons) View() []ButtonEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.view == nil {
		return nil
	}
	return append([]ButtonEntry(nil), b.view...)
}

// List returns every registered button, frozen or not.
func (b *Buttons) List() []ButtonEntry { return b.entries.all() }

// ByModule returns the buttons a module declared.
func (b *Buttons) ByModule(guid string) []ButtonEntry { return b.entries.module(guid) }

// Count returns the number of registered buttons.
func (b *Buttons) Count() int { return b.entries.len() }
