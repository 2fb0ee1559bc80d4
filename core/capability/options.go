package capability

import (
	"fmt"
	"sort"
	"sync"

	"github.com/artpar/mira/core/markers"
	"github.com/artpar/mira/core/registry"
	"github.com/rs/zerolog"
)

// OptionKind tells how an option stores its value.
type OptionKind int

const (
	OptionNumber OptionKind = iota
	OptionString
	OptionToggle
	OptionModded
)

// String returns the kind name.
func (k OptionKind) String() string {
	switch k {
	case OptionNumber:
		return "number"
	case OptionString:
		return "string"
	case OptionToggle:
		return "toggle"
	case OptionModded:
		return "modded"
	default:
		return fmt.Sprintf("option(%d)", int(k))
	}
}

// MarshalText encodes the kind by name.
func (k OptionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Option is a registered setting. It is bound to the variable the module
// declared, so Value always reflects the current setting.
type Option struct {
	ID     int        `json:"id" yaml:"id"`
	Module string     `json:"module" yaml:"module"`
	Entity string     `json:"entity" yaml:"entity"`
	Group  string     `json:"group" yaml:"group"`
	Title  string     `json:"title" yaml:"title"`
	Kind   OptionKind `json:"kind" yaml:"kind"`

	// Number bounds.
	Min    float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max    float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Step   float64 `json:"step,omitempty" yaml:"step,omitempty"`
	Suffix string  `json:"suffix,omitempty" yaml:"suffix,omitempty"`

	// Values are the choices of a string option.
	Values []string `json:"values,omitempty" yaml:"values,omitempty"`

	floatPtr *float64
	intPtr   *int
	boolPtr  *bool
	modded   ModdedOption
}

// Value returns the current setting.
func (o Option) Value() any {
	switch {
	case o.floatPtr != nil:
		return *o.floatPtr
	case o.intPtr != nil && o.Kind == OptionString:
		if i := *o.intPtr; i >= 0 && i < len(o.Values) {
			return o.Values[i]
		}
		return nil
	case o.intPtr != nil:
		return *o.intPtr
	case o.boolPtr != nil:
		return *o.boolPtr
	case o.modded != nil:
		return o.modded.Value()
	}
	return nil
}

// OptionGroupEntry is a registered option group with its options.
type OptionGroupEntry struct {
	Module   string   `json:"module" yaml:"module"`
	Entity   string   `json:"entity" yaml:"entity"`
	Name     string   `json:"name" yaml:"name"`
	Priority int      `json:"priority" yaml:"priority"`
	Options  []Option `json:"options" yaml:"options"`
}

func buildOptionGroup(sc markers.Scope, e markers.Entity, _ markers.Marker) (markers.Request, *markers.Diagnostic) {
	group, diag := contract[OptionGroup](sc, e, "option group")
	if diag != nil {
		return markers.Request{}, diag
	}
	name := group.GroupName()
	if name == "" {
		name = e.Name
	}
	return markers.Request{Payload: OptionGroupEntry{
		Entity:   e.Name,
		Name:     name,
		Priority: group.GroupPriority(),
	}}, nil
}

func buildModdedOption(sc markers.Scope, e markers.Entity, m markers.Marker) (markers.Request, *markers.Diagnostic) {
	opt, diag := contract[ModdedOption](sc, e, "option")
	if diag != nil {
		return markers.Request{}, diag
	}
	return markers.Request{Payload: Option{
		Entity: e.Name,
		Group:  m.(markers.Option).Group,
		Title:  titleOr(opt.Title(), e.Name),
		Kind:   OptionModded,
		modded: opt,
	}}, nil
}

func buildNumberOption(sc markers.Scope, e markers.Entity, m markers.Marker) (markers.Request, *markers.Diagnostic) {
	marker := m.(markers.NumberOption)
	guid := sc.Module.GUID

	if marker.Min > marker.Max {
		return markers.Request{}, markers.ShapeMismatch(guid, e.Name, "number option min %v exceeds max %v", marker.Min, marker.Max)
	}
	if marker.Step < 0 {
		return markers.Request{}, markers.ShapeMismatch(guid, e.Name, "number option step %v is negative", marker.Step)
	}

	opt := Option{
		Entity: e.Name,
		Group:  marker.Group,
		Title:  titleOr(marker.Title, e.Name),
		Kind:   OptionNumber,
		Min:    marker.Min,
		Max:    marker.Max,
		Step:   marker.Step,
		Suffix: marker.Suffix,
	}
	if opt.Step == 0 {
		opt.Step = 1
	}

	var current float64
	switch v := e.Value.(type) {
	case *float64:
		if v == nil {
			return markers.Request{}, markers.ShapeMismatch(guid, e.Name, "number option is nil")
		}
		opt.floatPtr = v
		current = *v
	case *int:
		if v == nil {
			return markers.Request{}, markers.ShapeMismatch(guid, e.Name, "number option is nil")
		}
		opt.intPtr = v
		current = float64(*v)
	default:
		return markers.Request{}, markers.ShapeMismatch(guid, e.Name, "number option must be *float64 or *int, got %T", e.Value)
	}
	if current < marker.Min || current > marker.Max {
		return markers.Request{}, markers.ShapeMismatch(guid, e.Name, "number option default %v is outside [%v, %v]", current, marker.Min, marker.Max)
	}

	return markers.Request{Payload: opt}, nil
}

func buildStringOption(sc markers.Scope, e markers.Entity, m markers.Marker) (markers.Request, *markers.Diagnostic) {
	marker := m.(markers.StringOption)
	guid := sc.Module.GUID

	idx, ok := e.Value.(*int)
	if !ok || idx == nil {
		return markers.Request{}, markers.ShapeMismatch(guid, e.Name, "string option must be a non-nil *int, got %T", e.Value)
	}
	if len(marker.Values) == 0 {
		return markers.Request{}, markers.ShapeMismatch(guid, e.Name, "string option has no values")
	}
	if *idx < 0 || *idx >= len(marker.Values) {
		return markers.Request{}, markers.ShapeMismatch(guid, e.Name, "string option index %d is outside %d values", *idx, len(marker.Values))
	}

	return markers.Request{Payload: Option{
		Entity: e.Name,
		Group:  marker.Group,
		Title:  titleOr(marker.Title, e.Name),
		Kind:   OptionString,
		Values: append([]string(nil), marker.Values...),
		intPtr: idx,
	}}, nil
}

func buildToggleOption(sc markers.Scope, e markers.Entity, m markers.Marker) (markers.Request, *markers.Diagnostic) {
	marker := m.(markers.ToggleOption)

	b, ok := e.Value.(*bool)
	if !ok || b == nil {
		return markers.Request{}, markers.ShapeMismatch(sc.Module.GUID, e.Name, "toggle option must be a non-nil *bool, got %T", e.Value)
	}

	return markers.Request{Payload: Option{
		Entity:  e.Name,
		Group:   marker.Group,
		Title:   titleOr(marker.Title, e.Name),
		Kind:    OptionToggle,
		boolPtr: b,
	}}, nil
}

func titleOr(title, fallback string) string {
	if title == "" {
		return fallback
	}
	return title
}

// pendingOptions collects one module's groups and options until the module
// finishes registering.
type pendingOptions struct {
	groups  []OptionGroupEntry
	options []Option
}

// Options registers option groups and the options inside them.
//
// Options are held per module until CompleteModule, because an option may be
// declared before its group. Options naming no group, or a group the module
// never declared, are dropped with a warning.
type Options struct {
	mu      sync.Mutex
	pending map[string]*pendingOptions
	nextID  int

	groups *store[OptionGroupEntry]
	logger zerolog.Logger
}

// NewOptions creates an options registry.
func NewOptions(logger zerolog.Logger) *Options {
	return &Options{
		pending: make(map[string]*pendingOptions),
		groups:  newStore[OptionGroupEntry](),
		logger:  logger.With().Str("registry", "options").Logger(),
	}
}

// Name implements Registrar.
func (o *Options) Name() string { return "options" }

// TryRegister implements Registrar.
func (o *Options) TryRegister(req markers.Request, meta *registry.ModuleMetadata) bool {
	if req.Kind != markers.RequestOption {
		return false
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	p := o.pending[meta.GUID]
	if p == nil {
		p = &pendingOptions{}
		o.pending[meta.GUID] = p
	}

	switch v := req.Payload.(type) {
	case OptionGroupEntry:
		v.Module = meta.GUID
		p.groups = append(p.groups, v)
	case Option:
		v.Module = meta.GUID
		p.options = append(p.options, v)
	default:
		return false
	}
	return true
}

// CompleteModule implements ModuleCompleter. It attaches options to their
// groups, sorts the groups by priority and records them on meta.
func (o *Options) CompleteModule(meta *registry.ModuleMetadata) {
	o.mu.Lock()
	p := o.pending[meta.GUID]
	delete(o.pending, meta.GUID)
	o.mu.Unlock()

	if p == nil {
		return
	}

	logger := o.logger.With().Str("module", meta.GUID).Logger()

	groups := p.groups
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Priority < groups[j].Priority
	})

	byName := make(map[string]int, len(groups))
	for i, g := range groups {
		if _, dup := byName[g.Name]; dup {
			logger.Warn().Str("group", g.Name).Msg("option group declared twice, keeping the first")
			continue
		}
		byName[g.Name] = i
	}

	for _, opt := range p.options {
		i, ok := byName[opt.Group]
		if !ok {
			logger.Warn().
				Str("entity", opt.Entity).
				Str("group", opt.Group).
				Msg("option is not in a declared option group, skipping")
			continue
		}
		o.mu.Lock()
		o.nextID++
		opt.ID = o.nextID
		o.mu.Unlock()
		groups[i].Options = append(groups[i].Options, opt)
	}

	for i, g := range groups {
		if byName[g.Name] != i {
			continue
		}
		o.groups.add(meta.GUID, func(int) OptionGroupEntry { return g })
		meta.OptionGroups = append(meta.OptionGroups, g.Name)
	}

	logger.Debug().
		Int("groups", len(meta.OptionGroups)).
		Msg("option groups registered")
}

// Groups returns every registered group in registration order.
func (o *Options) Groups() []OptionGroupEntry {
	return o.groups.all()
}

// GroupsByModule returns a module's groups, ordered by priority.
func (o *Options) GroupsByModule(guid string) []OptionGroupEntry {
	return o.groups.module(guid)
}

// Options returns every registered option.
func (o *Options) Options() []Option {
	var result []Option
	for _, g := range o.groups.all() {
		result = append(result, g.Options...)
	}
	return result
}

// Option finds a registered option by id.
func (o *Options) Option(id int) (Option, bool) {
	for _, opt := range o.Options() {
		if opt.ID == id {
			return opt, true
		}
	}
	return Option{}, false
}
