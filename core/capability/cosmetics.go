package capability

import (
	"sort"
	"sync"

	"github.com/artpar/mira/core/markers"
	"github.com/artpar/mira/core/registry"
	"github.com/rs/zerolog"
)

// Cosmetic is a registered wearable.
type Cosmetic struct {
	ID     int          `json:"id" yaml:"id"`
	Module string       `json:"module" yaml:"module"`
	Entity string       `json:"entity" yaml:"entity"`
	Group  string       `json:"group" yaml:"group"`
	Name   string       `json:"name" yaml:"name"`
	Slot   CosmeticSlot `json:"slot" yaml:"slot"`

	Cosmetic CustomCosmetic `json:"-" yaml:"-"`
}

// CosmeticsGroupEntry is a registered cosmetics group with its cosmetics.
type CosmeticsGroupEntry struct {
	Module    string     `json:"module" yaml:"module"`
	Entity    string     `json:"entity" yaml:"entity"`
	Name      string     `json:"name" yaml:"name"`
	Priority  int        `json:"priority" yaml:"priority"`
	Visible   bool       `json:"visible" yaml:"visible"`
	Cosmetics []Cosmetic `json:"cosmetics" yaml:"cosmetics"`
}

func buildCosmeticsGroup(sc markers.Scope, e markers.Entity, _ markers.Marker) (markers.Request, *markers.Diagnostic) {
	group, diag := contract[CosmeticsGroup](sc, e, "cosmetics group")
	if diag != nil {
		return markers.Request{}, diag
	}
	return markers.Request{Payload: CosmeticsGroupEntry{
		Entity:   e.Name,
		Name:     titleOr(group.GroupName(), e.Name),
		Priority: group.GroupPriority(),
		Visible:  group.GroupVisible(),
	}}, nil
}

func buildCosmetic(sc markers.Scope, e markers.Entity, m markers.Marker) (markers.Request, *markers.Diagnostic) {
	c, diag := contract[CustomCosmetic](sc, e, "cosmetic")
	if diag != nil {
		return markers.Request{}, diag
	}
	if !c.Slot().valid() {
		return markers.Request{}, markers.ShapeMismatch(sc.Module.GUID, e.Name, "cosmetic slot %s is unknown", c.Slot())
	}
	return markers.Request{Payload: Cosmetic{
		Entity:   e.Name,
		Group:    m.(markers.Cosmetic).Group,
		Name:     titleOr(c.CosmeticName(), e.Name),
		Slot:     c.Slot(),
		Cosmetic: c,
	}}, nil
}

type pendingCosmetics struct {
	groups    []CosmeticsGroupEntry
	cosmetics []Cosmetic
}

// Cosmetics registers cosmetics groups and the wearables inside them. Like
// Options, a module's declarations are held until CompleteModule and
// cosmetics outside a declared group are dropped with a warning.
type Cosmetics struct {
	mu      sync.Mutex
	pending map[string]*pendingCosmetics
	nextID  int

	groups *store[CosmeticsGroupEntry]
	logger zerolog.Logger
}

// NewCosmetics creates a cosmetics registry.
func NewCosmetics(logger zerolog.Logger) *Cosmetics {
	return &Cosmetics{
		pending: make(map[string]*pendingCosmetics),
		groups:  newStore[CosmeticsGroupEntry](),
		logger:  logger.With().Str("registry", "cosmetics").Logger(),
	}
}

// Name implements Registrar.
func (c *Cosmetics) Name() string { return "cosmetics" }

// TryRegister implements Registrar.
func (c *Cosmetics) TryRegister(req markers.Request, meta *registry.ModuleMetadata) bool {
	if req.Kind != markers.RequestCosmetic {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pending[meta.GUID]
	if p == nil {
		p = &pendingCosmetics{}
		c.pending[meta.GUID] = p
	}

	switch v := req.Payload.(type) {
	case CosmeticsGroupEntry:
		v.Module = meta.GUID
		p.groups = append(p.groups, v)
	case Cosmetic:
		v.Module = meta.GUID
		p.cosmetics = append(p.cosmetics, v)
	default:
		return false
	}
	return true
}

// CompleteModule implements ModuleCompleter.
func (c *Cosmetics) CompleteModule(meta *registry.ModuleMetadata) {
	c.mu.Lock()
	p := c.pending[meta.GUID]
	delete(c.pending, meta.GUID)
	c.mu.Unlock()

	if p == nil {
		return
	}
	logger := c.logger.With().Str("module", meta.GUID).Logger()

	groups := p.groups
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Priority < groups[j].Priority
	})

	byName := make(map[string]int, len(groups))
	for i, g := range groups {
		if _, dup := byName[g.Name]; dup {
			logger.Warn().Str("group", g.Name).Msg("cosmetics group declared twice, keeping the first")
			continue
		}
		byName[g.Name] = i
	}

	c.mu.Lock()
	for _, cos := range p.cosmetics {
		i, ok := byName[cos.Group]
		if !ok {
			logger.Warn().
				Str("entity", cos.Entity).
				Str("group", cos.Group).
				Msg("cosmetic is not in a declared cosmetics group, skipping")
			continue
		}
		c.nextID++
		cos.ID = c.nextID
		groups[i].Cosmetics = append(groups[i].Cosmetics, cos)
	}
	c.mu.Unlock()

	for i, g := range groups {
		if byName[g.Name] != i {
			continue
		}
		c.groups.add(meta.GUID, func(int) CosmeticsGroupEntry { return g })
		meta.CosmeticsGroups = append(meta.CosmeticsGroups, g.Name)
	}

	logger.Debug().Int("groups", len(meta.CosmeticsGroups)).Msg("cosmetics groups registered")
}

// Groups returns every registered cosmetics group.
func (c *Cosmetics) Groups() []CosmeticsGroupEntry { return c.groups.all() }

// GroupsByModule returns a module's cosmetics groups, ordered by priority.
func (c *Cosmetics) GroupsByModule(guid string) []CosmeticsGroupEntry { return c.groups.module(guid) }

// List returns every registered cosmetic.
func (c *Cosmetics) List() []Cosmetic {
	var out []Cosmetic
	for _, g := range c.groups.all() {
		out = append(out, g.Cosmetics...)
	}
	return out
}

// BySlot returns the registered cosmetics worn in slot.
func (c *Cosmetics) BySlot(slot CosmeticSlot) []Cosmetic {
	var out []Cosmetic
	for _, cos := range c.List() {
		if cos.Slot == slot {
			out = append(out, cos)
		}
	}
	return out
}
