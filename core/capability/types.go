// Package capability holds the registries that claim registration requests
// produced by the marker scanner.
//
// Each registry owns one kind of declaration (roles, modifiers, buttons,
// game modes, options, cosmetics, colors), checks the structural contract of
// the declared value and indexes what it accepted by module GUID. A Chain routes
// each request to the first registry that claims it.
package capability

import (
	"fmt"
	"strings"
	"time"
)

// Team is the side a role plays for.
type Team int

const (
	TeamCrewmate Team = iota
	TeamImpostor
	TeamCustom
)

// String returns the team name.
func (t Team) String() string {
	switch t {
	case TeamCrewmate:
		return "crewmate"
	case TeamImpostor:
		return "impostor"
	case TeamCustom:
		return "custom"
	default:
		return fmt.Sprintf("team(%d)", int(t))
	}
}

// MarshalText encodes the team by name.
func (t Team) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a team name.
func (t *Team) UnmarshalText(b []byte) error {
	parsed, err := ParseTeam(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTeam parses a team name.
func ParseTeam(s string) (Team, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "crewmate":
		return TeamCrewmate, nil
	case "impostor":
		return TeamImpostor, nil
	case "custom", "neutral":
		return TeamCustom, nil
	default:
		return 0, fmt.Errorf("unknown team %q", s)
	}
}

// CosmeticSlot is where a cosmetic is worn.
type CosmeticSlot int

const (
	SlotHat CosmeticSlot = iota
	SlotVisor
	SlotNameplate
	SlotSkin
	SlotPet
)

// String returns the slot name.
func (s CosmeticSlot) String() string {
	switch s {
	case SlotHat:
		return "hat"
	case SlotVisor:
		return "visor"
	case SlotNameplate:
		return "nameplate"
	case SlotSkin:
		return "skin"
	case SlotPet:
		return "pet"
	default:
		return fmt.Sprintf("slot(%d)", int(s))
	}
}

// MarshalText encodes the slot by name.
func (s CosmeticSlot) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s CosmeticSlot) valid() bool { return s >= SlotHat && s <= SlotPet }

// CustomRole is the contract for Role-marked values.
type CustomRole interface {
	RoleName() string
	Team() Team
}

// RoleConfigurer lets a role override DefaultRoleConfiguration.
type RoleConfigurer interface {
	Configuration() RoleConfiguration
}

// Modifier is the contract for Modifier-marked values.
type Modifier interface {
	ModifierName() string
	HideOnUI() bool
}

// CustomButton is the contract for Button-marked values.
type CustomButton interface {
	Name() string
	Cooldown() time.Duration
}

// GameMode is the contract for GameMode-marked values.
type GameMode interface {
	ID() int
	Name() string
}

// OptionGroup is the contract for OptionGroup-marked values.
// Groups with a smaller priority are listed first.
type OptionGroup interface {
	GroupName() string
	GroupPriority() int
}

// CosmeticsGroup is the contract for CosmeticsGroup-marked values. Hidden
// groups are still registered; GroupVisible is for the wardrobe to honor.
type CosmeticsGroup interface {
	GroupName() string
	GroupPriority() int
	GroupVisible() bool
}

// CustomCosmetic is the contract for Cosmetic-marked values.
type CustomCosmetic interface {
	CosmeticName() string
	Slot() CosmeticSlot
}

// ModdedOption is the contract for Option-marked values.
type ModdedOption interface {
	Title() string
	Value() any
}

// CustomColor is a named color contributed by a palette.
type CustomColor struct {
	Name string `json:"name" yaml:"name"`
	R    uint8  `json:"r" yaml:"r"`
	G    uint8  `json:"g" yaml:"g"`
	B    uint8  `json:"b" yaml:"b"`
}

// Hex returns the color as #rrggbb.
func (c CustomColor) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// RoleConfiguration holds the gameplay settings of a role.
type RoleConfiguration struct {
	RoleGroup        string `json:"role_group" yaml:"role_group"`
	MaxRoleCount     int    `json:"max_role_count" yaml:"max_role_count"`
	DefaultRoleCount int    `json:"default_role_count" yaml:"default_role_count"`
	DefaultChance    int    `json:"default_chance" yaml:"default_chance"`
	CanModifyChance  bool   `json:"can_modify_chance" yaml:"can_modify_chance"`

	AffectedByLightOnAirship bool `json:"affected_by_light_on_airship" yaml:"affected_by_light_on_airship"`
	CanGetKilled             bool `json:"can_get_killed" yaml:"can_get_killed"`
	UseVanillaKillButton     bool `json:"use_vanilla_kill_button" yaml:"use_vanilla_kill_button"`
	CanUseVent               bool `json:"can_use_vent" yaml:"can_use_vent"`
	CanUseSabotage           bool `json:"can_use_sabotage" yaml:"can_use_sabotage"`
	TasksCountForProgress    bool `json:"tasks_count_for_progress" yaml:"tasks_count_for_progress"`
	HideSettings             bool `json:"hide_settings" yaml:"hide_settings"`
	ShowInFreeplay           bool `json:"show_in_freeplay" yaml:"show_in_freeplay"`

	IntroTeamTitle       string `json:"intro_team_title,omitempty" yaml:"intro_team_title,omitempty"`
	IntroTeamDescription string `json:"intro_team_description,omitempty" yaml:"intro_team_description,omitempty"`
	GhostRole            string `json:"ghost_role" yaml:"ghost_role"`
}

// DefaultRoleConfiguration returns the settings a role of team gets unless
// it implements RoleConfigurer.
func DefaultRoleConfiguration(team Team) RoleConfiguration {
	cfg := RoleConfiguration{
		MaxRoleCount:             15,
		CanModifyChance:          true,
		AffectedByLightOnAirship: team == TeamCrewmate,
		CanGetKilled:             team != TeamImpostor,
		UseVanillaKillButton:     team == TeamImpostor,
		CanUseVent:               team == TeamImpostor,
		CanUseSabotage:           team == TeamImpostor,
		TasksCountForProgress:    team == TeamCrewmate,
		ShowInFreeplay:           true,
		GhostRole:                "CrewmateGhost",
	}

	switch team {
	case TeamCrewmate:
		cfg.RoleGroup = "Crewmate"
	case TeamImpostor:
		cfg.RoleGroup = "Impostor"
		cfg.GhostRole = "ImpostorGhost"
	case TeamCustom:
		cfg.RoleGroup = "Neutral"
		cfg.IntroTeamTitle = "NEUTRAL"
		cfg.IntroTeamDescription = "You are Neutral. You do not have a team."
	}

	return cfg
}
