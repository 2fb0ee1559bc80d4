// Package markers defines how extension modules declare capabilities and how
// those declarations are discovered.
//
// A module lists its entities. Each entity carries a value (a prototype of a
// type, a function, a pointer to a setting) and one marker saying which
// registry should claim it. The Scanner walks the entities, validates each
// value against the structural contract of its marker and produces typed
// Requests. Invalid entities become Diagnostics; they never stop the scan.
package markers

// ModuleInfo identifies an extension module.
type ModuleInfo struct {
	// GUID is the module identity. It is unique per process.
	GUID string `json:"guid" yaml:"guid"`

	// Name is the display name.
	Name string `json:"name" yaml:"name"`

	// Version is the module version string.
	Version string `json:"version" yaml:"version"`

	// RequiredOnAllClients must be true for a module to declare roles.
	RequiredOnAllClients bool `json:"required_on_all_clients" yaml:"required_on_all_clients"`
}

// Entity is one declaration inside a module.
type Entity struct {
	// Name identifies the entity in logs and diagnostics.
	Name string

	// Value is the declared thing. Its required shape depends on the marker.
	Value any

	// Markers attach the entity to registries. One is expected.
	Markers []Marker
}

// Marker is a declarative annotation on an entity.
type Marker interface {
	MarkerName() string
}

// Role marks a custom role type. The module must be required on all clients.
type Role struct{}

// Modifier marks a player modifier type.
type Modifier struct{}

// Button marks a custom ability button type.
type Button struct{}

// GameMode marks a game mode type.
type GameMode struct{}

// Colors marks a state-free palette type whose methods return colors.
type Colors struct{}

// Event marks a handler function. Priority defaults to 0; smaller runs first.
type Event struct {
	Priority int
}

// OptionGroup marks an option group declaration.
type OptionGroup struct{}

// CosmeticsGroup marks a cosmetics group declaration.
type CosmeticsGroup struct{}

// Cosmetic marks a wearable inside a cosmetics group.
type Cosmetic struct {
	Group string
}

// Option marks a value that is itself a modded option.
type Option struct {
	Group string
}

// NumberOption marks a *float64 or *int setting with bounds.
type NumberOption struct {
	Group  string
	Title  string
	Min    float64
	Max    float64
	Step   float64
	Suffix string
}

// StringOption marks an *int setting that indexes Values.
type StringOption struct {
	Group  string
	Title  string
	Values []string
}

// ToggleOption marks a *bool setting.
type ToggleOption struct {
	Group string
	Title string
}

func (Role) MarkerName() string           { return "role" }
func (Modifier) MarkerName() string       { return "modifier" }
func (Button) MarkerName() string         { return "button" }
func (GameMode) MarkerName() string       { return "game_mode" }
func (Colors) MarkerName() string         { return "colors" }
func (Event) MarkerName() string          { return "event" }
func (OptionGroup) MarkerName() string    { return "option_group" }
func (Option) MarkerName() string         { return "option" }
func (NumberOption) MarkerName() string   { return "number_option" }
func (StringOption) MarkerName() string   { return "string_option" }
func (ToggleOption) MarkerName() string   { return "toggle_option" }
func (CosmeticsGroup) MarkerName() string { return "cosmetics_group" }
func (Cosmetic) MarkerName() string       { return "cosmetic" }
