// Package example is a sample extension. It declares one of every
// capability the runtime knows about and registers itself in the default
// plugin catalog when imported.
package example

import (
	"github.com/artpar/mira/adapters/loader"
	"github.com/artpar/mira/core/capability"
	"github.com/artpar/mira/core/events"
	"github.com/artpar/mira/core/markers"
	"github.com/rs/zerolog"
)

// GUID identifies the example extension.
const GUID = "dev.mira.example"

// Version is the example extension version.
const Version = "0.3.0"

func init() {
	loader.Register(GUID, func() any { return New(zerolog.Nop()) })
}

// Settings holds the values the example's options are bound to.
type Settings struct {
	KillCooldown float64
	VotingTime   int
	ShowBadges   bool
	MeetingMode  int

	// Not in any option group.
	SussyLevel float64
	YeahIdk    int
}

// DefaultSettings returns the settings a new Plugin starts with.
func DefaultSettings() Settings {
	return Settings{
		KillCooldown: 25,
		VotingTime:   60,
		ShowBadges:   true,
		MeetingMode:  0,
		SussyLevel:   63,
		YeahIdk:      3,
	}
}

// Plugin is the example extension.
type Plugin struct {
	Settings Settings
	Freeze   *FreezeButton

	logger zerolog.Logger
}

// New creates the example plugin with default settings.
func New(logger zerolog.Logger) *Plugin {
	return &Plugin{
		Settings: DefaultSettings(),
		Freeze:   &FreezeButton{},
		logger:   logger.With().Str("plugin", GUID).Logger(),
	}
}

// Info implements coordinator.Extension.
func (p *Plugin) Info() markers.ModuleInfo {
	return markers.ModuleInfo{
		GUID:                 GUID,
		Name:                 "Mira Example",
		Version:              Version,
		RequiredOnAllClients: true,
	}
}

// Entities implements coordinator.Extension.
func (p *Plugin) Entities() []markers.Entity {
	s := &p.Settings
	return []markers.Entity{
		// roles and modifiers
		entity("MayorRole", MayorRole{}, markers.Role{}),
		entity("NeutralKillerRole", NeutralKillerRole{}, markers.Role{}),
		entity("FreezerRole", FreezerRole{}, markers.Role{}),
		entity("GiantModifier", GiantModifier{}, markers.Modifier{}),
		entity("GhostlyModifier", GhostlyModifier{}, markers.Modifier{}),

		// abilities
		entity("FreezeButton", p.Freeze, markers.Button{}),
		entity("FreezeTag", FreezeTag{}, markers.GameMode{}),
		entity("ExampleColors", Palette{}, markers.Colors{}),

		// cosmetics
		entity("ExampleCosmetics", ExampleCosmetics{}, markers.CosmeticsGroup{}),
		entity("mayorHat", Wearable{name: "Mayor's Hat", slot: capability.SlotHat}, markers.Cosmetic{Group: "Example"}),
		entity("frostPlate", Wearable{name: "Frost", slot: capability.SlotNameplate}, markers.Cosmetic{Group: "Example"}),

		// options
		entity("GeneralGroup", GeneralGroup{}, markers.OptionGroup{}),
		entity("MeetingGroup", MeetingGroup{}, markers.OptionGroup{}),
		entity("killCooldown", &s.KillCooldown, markers.NumberOption{
			Group: "General", Title: "Kill Cooldown", Min: 10, Max: 60, Step: 2.5, Suffix: "s",
		}),
		entity("showBadges", &s.ShowBadges, markers.ToggleOption{Group: "General", Title: "Show Role Badges"}),
		entity("votingTime", &s.VotingTime, markers.NumberOption{
			Group: "Meetings", Title: "Voting Time", Min: 15, Max: 120, Step: 15, Suffix: "s",
		}),
		entity("meetingMode", &s.MeetingMode, markers.StringOption{
			Group: "Meetings", Title: "Meeting Mode", Values: []string{"Classic", "Anonymous", "Blind"},
		}),
		entity("emergencyLimit", EmergencyLimit{}, markers.Option{Group: "Meetings"}),
		entity("yeaIdk", &s.YeahIdk, markers.StringOption{
			Title: "Yeah, idk", Values: []string{"Idk 1", "idk 2", "idk 3", "idk 4"},
		}),
		entity("sussyLevel", &s.SussyLevel, markers.NumberOption{Title: "Aw man", Min: 45, Max: 95}),

		// event handlers
		entity("StartMeeting", StartMeeting, markers.Event{}),
		entity("HandleVote", HandleVote, markers.Event{Priority: 15}),
		entity("FreezeButtonClick", p.freezeButtonClick, markers.Event{Priority: 1}),
		entity("FreezeButtonCancelled", p.freezeButtonCancelled, markers.Event{}),
	}
}

// Initialize implements coordinator.Initializer. These handlers are
// subscribed explicitly instead of through markers.
func (p *Plugin) Initialize(bus *events.Bus) {
	events.SubscribeFunc(bus, func(e *BeforeMurderEvent) {
		p.logger.Info().Msgf("%s is about to kill %s", e.Source.Name, e.Target.Name)
	}, events.WithOwner(GUID))

	events.SubscribeFunc(bus, func(e *AfterMurderEvent) {
		p.logger.Info().Msgf("%s has killed %s", e.Source.Name, e.Target.Name)
	}, events.WithOwner(GUID))

	events.SubscribeFunc(bus, func(e *CompleteTaskEvent) {
		p.logger.Info().Msgf("%s completed %s", e.Player.Name, e.Task)
	}, events.WithOwner(GUID))
}

func entity(name string, v any, m markers.Marker) markers.Entity {
	return markers.Entity{Name: name, Value: v, Markers: []markers.Marker{m}}
}
