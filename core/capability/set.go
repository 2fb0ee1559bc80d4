package capability

import "github.com/rs/zerolog"

// Set bundles the seven registries a runtime needs.
type Set struct {
	Modifiers *Modifiers
	Options   *Options
	Cosmetics *Cosmetics
	Roles     *Roles
	Buttons   *Buttons
	GameModes *GameModes
	Palette   *Palette

	logger zerolog.Logger
}

// NewSet creates empty registries sharing logger.
func NewSet(logger zerolog.Logger) *Set {
	return &Set{
		Modifiers: NewModifiers(logger),
		Options:   NewOptions(logger),
		Cosmetics: NewCosmetics(logger),
		Roles:     NewRoles(logger),
		Buttons:   NewButtons(logger),
		GameModes: NewGameModes(logger),
		Palette:   NewPalette(logger),
		logger:    logger,
	}
}

// Chain returns a chain over the set in the order modifiers, options,
// cosmetics, roles, buttons, game modes, colors.
func (s *Set) Chain() *Chain {
	return NewChain(s.logger,
		s.Modifiers,
		s.Options,
		s.Cosmetics,
		s.Roles,
		s.Buttons,
		s.GameModes,
		s.Palette,
	)
}

// Summary counts what each registry holds.
type Summary struct {
	Modifiers    int `json:"modifiers" yaml:"modifiers"`
	OptionGroups int `json:"option_groups" yaml:"option_groups"`
	Options      int `json:"options" yaml:"options"`
	Cosmetics    int `json:"cosmetics" yaml:"cosmetics"`
	Roles        int `json:"roles" yaml:"roles"`
	Buttons      int `json:"buttons" yaml:"buttons"`
	GameModes    int `json:"game_modes" yaml:"game_modes"`
	Colors       int `json:"colors" yaml:"colors"`
}

// Summary returns registry counts.
func (s *Set) Summary() Summary {
	return Summary{
		Modifiers:    s.Modifiers.Count(),
		OptionGroups: len(s.Options.Groups()),
		Options:      len(s.Options.Options()),
		Cosmetics:    len(s.Cosmetics.List()),
		Roles:        s.Roles.Count(),
		Buttons:      s.Buttons.Count(),
		GameModes:    s.GameModes.Count(),
		Colors:       s.Palette.Pending(),
	}
}
