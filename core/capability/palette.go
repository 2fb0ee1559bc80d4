package capability

import (
	"sync"

	"github.com/artpar/mira/core/markers"
	"github.com/artpar/mira/core/registry"
	"github.com/rs/zerolog"
)

// PaletteEntry is one color with the module that contributed it.
type PaletteEntry struct {
	Module string `json:"module" yaml:"module"`
	CustomColor
}

// Palette collects colors from palettes as modules load and publishes them
// all at once on Freeze, after loading has finished.
type Palette struct {
	entries *store[PaletteEntry]
	logger  zerolog.Logger

	mu        sync.RWMutex
	published []CustomColor
	frozen    bool
}

// NewPalette creates a color registry.
func NewPalette(logger zerolog.Logger) *Palette {
	return &Palette{
		entries: newStore[PaletteEntry](),
		logger:  logger.With().Str("registry", "colors").Logger(),
	}
}

// Name implements Registrar.
func (p *Palette) Name() string { return "colors" }

// TryRegister implements Registrar.
func (p *Palette) TryRegister(req markers.Request, meta *registry.ModuleMetadata) bool {
	colors, ok := req.Payload.([]CustomColor)
	if req.Kind != markers.RequestColor || !ok {
		return false
	}

	for _, c := range colors {
		p.entries.add(meta.GUID, func(int) PaletteEntry {
			return PaletteEntry{Module: meta.GUID, CustomColor: c}
		})
	}

	p.logger.Debug().
		Str("module", meta.GUID).
		Str("entity", req.Entity.Name).
		Int("colors", len(colors)).
		Msg("palette collected")
	return true
}

// Freeze publishes every collected color. Safe to call more than once; later
// calls pick up colors collected since.
func (p *Palette) Freeze() {
	entries := p.entries.all()
	colors := make([]CustomColor, len(entries))
	for i, e := range entries {
		colors[i] = e.CustomColor
	}

	p.mu.Lock()
	p.published = colors
	p.frozen = true
	p.mu.Unlock()

	p.logger.Info().Int("colors", len(colors)).Msg("custom colors registered")
}

// Frozen reports whether Freeze has run.
func (p *Palette) Frozen() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.frozen
}

// Colors returns the published colors. Empty before Freeze.
func (p *Palette) Colors() []CustomColor {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]CustomColor(nil), p.published...)
}

// Pending returns the number of collected colors, published or not.
func (p *Palette) Pending() int { return p.entries.len() }

// ByModule returns the colors a module contributed.
func (p *Palette) ByModule(guid string) []PaletteEntry { return p.entries.module(guid) }
