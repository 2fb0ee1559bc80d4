package example

import (
	"sync"
	"time"

	"github.com/artpar/mira/core/capability"
)

const (
	mayorName         = "Mayor"
	neutralKillerName = "Neutral Killer"
)

type MayorRole struct{}

func (MayorRole) RoleName() string      { return mayorName }
func (MayorRole) Team() capability.Team { return capability.TeamCrewmate }

type NeutralKillerRole struct{}

func (NeutralKillerRole) RoleName() string      { return neutralKillerName }
func (NeutralKillerRole) Team() capability.Team { return capability.TeamCustom }

// Configuration lets the neutral killer vent and use the kill button.
func (NeutralKillerRole) Configuration() capability.RoleConfiguration {
	cfg := capability.DefaultRoleConfiguration(capability.TeamCustom)
	cfg.MaxRoleCount = 1
	cfg.DefaultChance = 50
	cfg.CanUseVent = true
	cfg.UseVanillaKillButton = true
	cfg.TasksCountForProgress = false
	return cfg
}

type FreezerRole struct{}

func (FreezerRole) RoleName() string      { return "Freezer" }
func (FreezerRole) Team() capability.Team { return capability.TeamImpostor }

type GiantModifier struct{}

func (GiantModifier) ModifierName() string { return "Giant" }
func (GiantModifier) HideOnUI() bool       { return false }

type GhostlyModifier struct{}

func (GhostlyModifier) ModifierName() string { return "Ghostly" }
func (GhostlyModifier) HideOnUI() bool       { return true }

// FreezeButton is the Freezer's ability. Its name and timer change at
// runtime through the button event handlers.
type FreezeButton struct {
	mu           sync.Mutex
	nameOverride string
	timer        time.Duration
}

func (b *FreezeButton) Name() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.nameOverride != "" {
		return b.nameOverride
	}
	return "Freeze"
}

func (b *FreezeButton) Cooldown() time.Duration { return 25 * time.Second }

// SetTimer sets the remaining cooldown.
func (b *FreezeButton) SetTimer(d time.Duration) {
	b.mu.Lock()
	b.timer = d
	b.mu.Unlock()
}

// Timer returns the remaining cooldown.
func (b *FreezeButton) Timer() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.timer
}

// OverrideName replaces the label shown on the button.
func (b *FreezeButton) OverrideName(name string) {
	b.mu.Lock()
	b.nameOverride = name
	b.mu.Unlock()
}

type FreezeTag struct{}

func (FreezeTag) ID() int      { return 7 }
func (FreezeTag) Name() string { return "Freeze Tag" }

// Palette contributes the example colors.
type Palette struct{}

func (Palette) Cerulean() capability.CustomColor {
	return capability.CustomColor{Name: "Cerulean", R: 0, G: 123, B: 167}
}

func (Palette) Rose() capability.CustomColor {
	return capability.CustomColor{Name: "Rose", R: 255, G: 102, B: 204}
}

func (Palette) Moss() capability.CustomColor {
	return capability.CustomColor{Name: "Moss", R: 138, G: 154, B: 91}
}

// ExampleCosmetics holds the wearables the example ships.
type ExampleCosmetics struct{}

func (ExampleCosmetics) GroupName() string  { return "Example" }
func (ExampleCosmetics) GroupPriority() int { return 0 }
func (ExampleCosmetics) GroupVisible() bool { return true }

type Wearable struct {
	name string
	slot capability.CosmeticSlot
}

func (w Wearable) CosmeticName() string          { return w.name }
func (w Wearable) Slot() capability.CosmeticSlot { return w.slot }

type GeneralGroup struct{}

func (GeneralGroup) GroupName() string  { return "General" }
func (GeneralGroup) GroupPriority() int { return 0 }

type MeetingGroup struct{}

func (MeetingGroup) GroupName() string  { return "Meetings" }
func (MeetingGroup) GroupPriority() int { return 1 }

// EmergencyLimit is a fixed option computed by the extension itself.
type EmergencyLimit struct{}

func (EmergencyLimit) Title() string { return "Emergency Meetings" }
func (EmergencyLimit) Value() any    { return 1 }
