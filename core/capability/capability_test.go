package capability_test

import (
	"testing"
	"time"

	"github.com/artpar/mira/core/capability"
	"github.com/artpar/mira/core/markers"
	"github.com/artpar/mira/core/registry"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sheriff struct{}

func (sheriff) RoleName() string      { return "Sheriff" }
func (sheriff) Team() capability.Team { return capability.TeamCrewmate }

type jester struct{}

func (jester) RoleName() string      { return "Jester" }
func (jester) Team() capability.Team { return capability.TeamCustom }
func (jester) Configuration() capability.RoleConfiguration {
	cfg := capability.DefaultRoleConfiguration(capability.TeamCustom)
	cfg.MaxRoleCount = 1
	return cfg
}

type caffeinated struct{}

func (caffeinated) ModifierName() string { return "Caffeinated" }
func (caffeinated) HideOnUI() bool       { return false }

type freezeButton struct{}

func (freezeButton) Name() string            { return "Freeze" }
func (freezeButton) Cooldown() time.Duration { return 25 * time.Second }

type brokenButton struct{}

func (brokenButton) Name() string            { return "Broken" }
func (brokenButton) Cooldown() time.Duration { return -time.Second }

type hideAndSeek struct{ id int }

func (h hideAndSeek) ID() int    { return h.id }
func (hideAndSeek) Name() string { return "Hide and Seek" }

type generalGroup struct {
	name     string
	priority int
}

func (g generalGroup) GroupName() string  { return g.name }
func (g generalGroup) GroupPriority() int { return g.priority }

type hatRack struct {
	name     string
	priority int
	hidden   bool
}

func (h hatRack) GroupName() string  { return h.name }
func (h hatRack) GroupPriority() int { return h.priority }
func (h hatRack) GroupVisible() bool { return !h.hidden }

type hat struct {
	name string
	slot capability.CosmeticSlot
}

func (h hat) CosmeticName() string          { return h.name }
func (h hat) Slot() capability.CosmeticSlot { return h.slot }

type slider struct{ v float64 }

func (s *slider) Title() string { return "Slider" }
func (s *slider) Value() any    { return s.v }

type examplePalette struct{}

func (examplePalette) Lavender() capability.CustomColor {
	return capability.CustomColor{Name: "Lavender", R: 230, G: 230, B: 250}
}
func (examplePalette) Mint() *capability.CustomColor {
	return &capability.CustomColor{R: 152, G: 255, B: 152}
}
func (examplePalette) Missing() *capability.CustomColor { return nil }
func (examplePalette) Label() string                    { return "not a color" }

var nonColorCalls int

type noisyPalette struct{}

func (noisyPalette) Teal() capability.CustomColor {
	return capability.CustomColor{Name: "Teal", R: 0, G: 128, B: 128}
}
func (noisyPalette) Describe() string { nonColorCalls++; return "teal only" }
func (noisyPalette) Boom() int        { panic("not a color") }

type explodingPalette struct{}

func (explodingPalette) Crimson() capability.CustomColor { panic("no crimson today") }

type statefulPalette struct{ n int }

func (statefulPalette) Red() capability.CustomColor { return capability.CustomColor{R: 255} }

func scan(t *testing.T, entities ...markers.Entity) ([]markers.Request, []markers.Diagnostic) {
	t.Helper()
	s := markers.NewScanner(zerolog.Nop(), capability.ScannerRules()...)
	return s.Scan(markers.ModuleInfo{GUID: "mod.test", RequiredOnAllClients: true}, entities)
}

func entity(name string, v any, m markers.Marker) markers.Entity {
	return markers.Entity{Name: name, Value: v, Markers: []markers.Marker{m}}
}

func TestRules_Order(t *testing.T) {
	s := markers.NewScanner(zerolog.Nop(), capability.ScannerRules()...)
	assert.Equal(t, []string{
		"modifier", "option_group", "option", "number_option", "string_option",
		"toggle_option", "cosmetics_group", "cosmetic", "role", "button", "game_mode",
		"colors", "event",
	}, s.Rules())
}

func TestRules_Contracts(t *testing.T) {
	reqs, diags := scan(t,
		entity("Sheriff", sheriff{}, markers.Role{}),
		entity("Caffeinated", caffeinated{}, markers.Modifier{}),
		entity("Freeze", freezeButton{}, markers.Button{}),
		entity("HideAndSeek", hideAndSeek{id: 3}, markers.GameMode{}),
	)

	require.Empty(t, diags)
	require.Len(t, reqs, 4)
	assert.Equal(t, markers.RequestRole, reqs[0].Kind)
	assert.Equal(t, markers.RequestModifier, reqs[1].Kind)
	assert.Equal(t, markers.RequestButton, reqs[2].Kind)
	assert.Equal(t, markers.RequestGameMode, reqs[3].Kind)

	role := reqs[0].Payload.(capability.RoleEntry)
	assert.Equal(t, "Sheriff", role.Name)
	assert.Equal(t, capability.DefaultRoleConfiguration(capability.TeamCrewmate), role.Configuration)
}

func TestRules_ShapeMismatch(t *testing.T) {
	var nilSlider *slider
	tests := []struct {
		name   string
		entity markers.Entity
	}{
		{"roleWrongType", entity("x", caffeinated{}, markers.Role{})},
		{"modifierWrongType", entity("x", sheriff{}, markers.Modifier{})},
		{"buttonNil", entity("x", nil, markers.Button{})},
		{"buttonNegativeCooldown", entity("x", brokenButton{}, markers.Button{})},
		{"gameModeWrongType", entity("x", 42, markers.GameMode{})},
		{"groupWrongType", entity("x", "general", markers.OptionGroup{})},
		{"optionTypedNil", entity("x", nilSlider, markers.Option{Group: "g"})},
		{"numberWrongPointer", entity("x", new(string), markers.NumberOption{Max: 1})},
		{"numberNotPointer", entity("x", 1.5, markers.NumberOption{Max: 2})},
		{"numberMinAboveMax", entity("x", new(float64), markers.NumberOption{Min: 5, Max: 1})},
		{"numberOutOfRange", entity("x", ptr(10.0), markers.NumberOption{Min: 0, Max: 5})},
		{"stringNoValues", entity("x", new(int), markers.StringOption{})},
		{"stringIndexOutOfRange", entity("x", ptr(3), markers.StringOption{Values: []string{"a"}})},
		{"stringWrongPointer", entity("x", new(float64), markers.StringOption{Values: []string{"a"}})},
		{"toggleWrongType", entity("x", true, markers.ToggleOption{})},
		{"paletteNil", entity("x", nil, markers.Colors{})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reqs, diags := scan(t, tt.entity)
			assert.Empty(t, reqs)
			require.Len(t, diags, 1)
			assert.Equal(t, markers.CodeShapeMismatch, diags[0].Code)
			assert.Equal(t, "mod.test", diags[0].Module)
		})
	}
}

func TestRules_PaletteMustBeStatic(t *testing.T) {
	for name, v := range map[string]any{
		"stateful": statefulPalette{n: 1},
		"pointer":  &examplePalette{},
	} {
		t.Run(name, func(t *testing.T) {
			reqs, diags := scan(t, entity("Palette", v, markers.Colors{}))
			assert.Empty(t, reqs)
			require.Len(t, diags, 1)
			assert.Equal(t, markers.CodeMustBeStatic, diags[0].Code)
		})
	}
}

func TestRules_PaletteColors(t *testing.T) {
	reqs, diags := scan(t, entity("Palette", examplePalette{}, markers.Colors{}))
	require.Empty(t, diags)
	require.Len(t, reqs, 1)

	colors := reqs[0].Payload.([]capability.CustomColor)
	require.Len(t, colors, 2)
	assert.Equal(t, "Lavender", colors[0].Name)
	assert.Equal(t, "Mint", colors[1].Name)
	assert.Equal(t, "#98ff98", colors[1].Hex())
}

func TestRules_PaletteSkipsNonColorMethods(t *testing.T) {
	nonColorCalls = 0

	reqs, diags := scan(t, entity("Palette", noisyPalette{}, markers.Colors{}))
	require.Empty(t, diags)
	require.Len(t, reqs, 1)

	colors := reqs[0].Payload.([]capability.CustomColor)
	require.Len(t, colors, 1)
	assert.Equal(t, "Teal", colors[0].Name)
	assert.Zero(t, nonColorCalls, "methods not returning a color must not run")
}

func TestRules_PanickingEntityDoesNotStopScan(t *testing.T) {
	reqs, diags := scan(t,
		entity("Palette", explodingPalette{}, markers.Colors{}),
		entity("Sheriff", sheriff{}, markers.Role{}),
	)

	require.Len(t, diags, 1)
	assert.Equal(t, markers.CodeShapeMismatch, diags[0].Code)
	assert.Equal(t, "Palette", diags[0].Entity)
	assert.Contains(t, diags[0].Message, "no crimson today")

	require.Len(t, reqs, 1)
	assert.Equal(t, markers.RequestRole, reqs[0].Kind)
}

func TestDefaultRoleConfiguration(t *testing.T) {
	crew := capability.DefaultRoleConfiguration(capability.TeamCrewmate)
	assert.True(t, crew.TasksCountForProgress)
	assert.True(t, crew.AffectedByLightOnAirship)
	assert.True(t, crew.CanGetKilled)
	assert.False(t, crew.CanUseVent)
	assert.Equal(t, "CrewmateGhost", crew.GhostRole)
	assert.Equal(t, 15, crew.MaxRoleCount)

	imp := capability.DefaultRoleConfiguration(capability.TeamImpostor)
	assert.True(t, imp.UseVanillaKillButton)
	assert.True(t, imp.CanUseSabotage)
	assert.False(t, imp.CanGetKilled)
	assert.Equal(t, "ImpostorGhost", imp.GhostRole)
	assert.Equal(t, "Impostor", imp.RoleGroup)

	neutral := capability.DefaultRoleConfiguration(capability.TeamCustom)
	assert.Equal(t, "NEUTRAL", neutral.IntroTeamTitle)
	assert.Equal(t, "Neutral", neutral.RoleGroup)
	assert.False(t, neutral.TasksCountForProgress)
}

func TestParseTeam(t *testing.T) {
	team, err := capability.ParseTeam(" Neutral ")
	require.NoError(t, err)
	assert.Equal(t, capability.TeamCustom, team)

	_, err = capability.ParseTeam("ghost")
	assert.Error(t, err)

	text, err := capability.TeamImpostor.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "impostor", string(text))
}

func register(t *testing.T, set *capability.Set, guid string, entities ...markers.Entity) *registry.ModuleMetadata {
	t.Helper()
	s := markers.NewScanner(zerolog.Nop(), capability.ScannerRules()...)
	reqs, diags := s.Scan(markers.ModuleInfo{GUID: guid, RequiredOnAllClients: true}, entities)
	require.Empty(t, diags)

	meta := &registry.ModuleMetadata{GUID: guid}
	chain := set.Chain()
	for _, r := range reqs {
		_, ok := chain.Route(r, meta)
		require.True(t, ok, "request %s for %s not claimed", r.Kind, r.Entity.Name)
	}
	chain.CompleteModule(meta)
	return meta
}

func TestChain_Order(t *testing.T) {
	set := capability.NewSet(zerolog.Nop())
	assert.Equal(t, []string{"modifiers", "options", "cosmetics", "roles", "buttons", "game_modes", "colors"}, set.Chain().Names())
}

func TestChain_Unclaimed(t *testing.T) {
	set := capability.NewSet(zerolog.Nop())
	name, ok := set.Chain().Route(markers.Request{Kind: markers.RequestEventHandler}, &registry.ModuleMetadata{GUID: "m"})
	assert.False(t, ok)
	assert.Empty(t, name)
}

func TestChain_RouteReturnsRegistrar(t *testing.T) {
	set := capability.NewSet(zerolog.Nop())
	reqs, _ := scan(t, entity("Sheriff", sheriff{}, markers.Role{}))

	name, ok := set.Chain().Route(reqs[0], &registry.ModuleMetadata{GUID: "mod.test"})
	assert.True(t, ok)
	assert.Equal(t, "roles", name)
}

func TestRoles_SequentialIDs(t *testing.T) {
	set := capability.NewSet(zerolog.Nop())
	register(t, set, "mod.a", entity("Sheriff", sheriff{}, markers.Role{}))
	register(t, set, "mod.b", entity("Jester", jester{}, markers.Role{}), entity("Sheriff", sheriff{}, markers.Role{}))

	roles := set.Roles.List()
	require.Len(t, roles, 3)
	for i, r := range roles {
		assert.Equal(t, i+1, r.ID)
	}
	assert.Equal(t, "mod.a", roles[0].Module)
	assert.Equal(t, 1, roles[1].Configuration.MaxRoleCount)

	byB := set.Roles.ByModule("mod.b")
	require.Len(t, byB, 2)
	assert.Equal(t, "Jester", byB[0].Name)

	got, ok := set.Roles.Get(2)
	require.True(t, ok)
	assert.Equal(t, "Jester", got.Name)
}

func TestModifiers_SequentialIDs(t *testing.T) {
	set := capability.NewSet(zerolog.Nop())
	register(t, set, "mod.a", entity("A", caffeinated{}, markers.Modifier{}), entity("B", caffeinated{}, markers.Modifier{}))

	assert.Equal(t, 2, set.Modifiers.Count())
	got, ok := set.Modifiers.Get(2)
	require.True(t, ok)
	assert.Equal(t, "B", got.Entity)
}

func TestButtons_Freeze(t *testing.T) {
	set := capability.NewSet(zerolog.Nop())
	register(t, set, "mod.a", entity("Freeze", freezeButton{}, markers.Button{}))

	assert.Nil(t, set.Buttons.View())
	assert.False(t, set.Buttons.Frozen())

	set.Buttons.Freeze()
	require.True(t, set.Buttons.Frozen())
	view := set.Buttons.View()
	require.Len(t, view, 1)
	assert.Equal(t, 25*time.Second, view[0].Cooldown)

	register(t, set, "mod.b", entity("Late", freezeButton{}, markers.Button{}))
	assert.Len(t, set.Buttons.View(), 2)
}

func TestGameModes_DuplicateID(t *testing.T) {
	set := capability.NewSet(zerolog.Nop())
	register(t, set, "mod.a", entity("HnS", hideAndSeek{id: 7}, markers.GameMode{}))
	register(t, set, "mod.b", entity("Copy", hideAndSeek{id: 7}, markers.GameMode{}))

	require.Equal(t, 1, set.GameModes.Count())
	got, ok := set.GameModes.Get(7)
	require.True(t, ok)
	assert.Equal(t, "mod.a", got.Module)
}

func TestPalette_PublishedOnFreeze(t *testing.T) {
	set := capability.NewSet(zerolog.Nop())
	register(t, set, "mod.a", entity("Palette", examplePalette{}, markers.Colors{}))

	assert.Equal(t, 2, set.Palette.Pending())
	assert.Empty(t, set.Palette.Colors())

	set.Palette.Freeze()
	assert.True(t, set.Palette.Frozen())
	assert.Len(t, set.Palette.Colors(), 2)
	assert.Len(t, set.Palette.ByModule("mod.a"), 2)
}

func TestOptions_GroupsSortedByPriority(t *testing.T) {
	set := capability.NewSet(zerolog.Nop())
	speed, count, toggle, choice := ptr(1.5), ptr(2), ptr(true), ptr(1)

	meta := register(t, set, "mod.a",
		// declared before its group
		entity("Speed", speed, markers.NumberOption{Group: "Late", Title: "Speed", Min: 0.5, Max: 3, Step: 0.25, Suffix: "x"}),
		entity("Late", generalGroup{name: "Late", priority: 10}, markers.OptionGroup{}),
		entity("Early", generalGroup{name: "Early", priority: -1}, markers.OptionGroup{}),
		entity("Count", count, markers.NumberOption{Group: "Early", Max: 5}),
		entity("Enabled", toggle, markers.ToggleOption{Group: "Early", Title: "Enabled"}),
		entity("Mode", choice, markers.StringOption{Group: "Early", Values: []string{"a", "b"}}),
		entity("Slider", &slider{v: 0.5}, markers.Option{Group: "Late"}),
	)

	assert.Equal(t, []string{"Early", "Late"}, meta.OptionGroups)

	groups := set.Options.GroupsByModule("mod.a")
	require.Len(t, groups, 2)
	assert.Equal(t, "Early", groups[0].Name)
	require.Len(t, groups[0].Options, 3)
	require.Len(t, groups[1].Options, 2)

	assert.Equal(t, "Count", groups[0].Options[0].Title)
	assert.Equal(t, 2, groups[0].Options[0].Value())
	assert.Equal(t, "b", groups[0].Options[2].Value())
	assert.Equal(t, 0.5, groups[1].Options[1].Value())

	speedOpt := groups[1].Options[0]
	assert.Equal(t, capability.OptionNumber, speedOpt.Kind)
	assert.Equal(t, 1.5, speedOpt.Value())

	// options stay bound to the declared variables
	*speed = 2.5
	got, ok := set.Options.Option(speedOpt.ID)
	require.True(t, ok)
	assert.Equal(t, 2.5, got.Value())
}

func TestOptions_UngroupedDropped(t *testing.T) {
	set := capability.NewSet(zerolog.Nop())
	meta := register(t, set, "mod.a",
		entity("General", generalGroup{name: "General"}, markers.OptionGroup{}),
		entity("Loose", ptr(63.0), markers.NumberOption{Title: "Aw man", Min: 45, Max: 95}),
		entity("Lost", ptr(false), markers.ToggleOption{Group: "Nowhere"}),
	)

	assert.Equal(t, []string{"General"}, meta.OptionGroups)
	assert.Empty(t, set.Options.Options())
}

func TestOptions_GroupNameDefaultsToEntity(t *testing.T) {
	set := capability.NewSet(zerolog.Nop())
	meta := register(t, set, "mod.a", entity("Unnamed", generalGroup{}, markers.OptionGroup{}))
	assert.Equal(t, []string{"Unnamed"}, meta.OptionGroups)
}

func TestSet_Summary(t *testing.T) {
	set := capability.NewSet(zerolog.Nop())
	register(t, set, "mod.a",
		entity("Sheriff", sheriff{}, markers.Role{}),
		entity("Caffeinated", caffeinated{}, markers.Modifier{}),
		entity("General", generalGroup{name: "General"}, markers.OptionGroup{}),
		entity("On", ptr(true), markers.ToggleOption{Group: "General"}),
		entity("Palette", examplePalette{}, markers.Colors{}),
	)

	assert.Equal(t, capability.Summary{
		Modifiers:    1,
		OptionGroups: 1,
		Options:      1,
		Roles:        1,
		Colors:       2,
	}, set.Summary())
}

func TestCosmetics_GroupedPerModule(t *testing.T) {
	set := capability.NewSet(zerolog.Nop())
	// cosmetics may be declared before their group
	meta := register(t, set, "mod.a",
		entity("Crown", hat{name: "Crown"}, markers.Cosmetic{Group: "Late"}),
		entity("LateRack", hatRack{name: "Late", priority: 5, hidden: true}, markers.CosmeticsGroup{}),
		entity("EarlyRack", hatRack{name: "Early", priority: 1}, markers.CosmeticsGroup{}),
		entity("Shades", hat{name: "Shades", slot: capability.SlotVisor}, markers.Cosmetic{Group: "Early"}),
		entity("Stray", hat{name: "Stray"}, markers.Cosmetic{Group: "Missing"}),
		entity("Loose", hat{name: "Loose"}, markers.Cosmetic{}),
	)
	register(t, set, "mod.b",
		entity("Rack", hatRack{name: "Early"}, markers.CosmeticsGroup{}),
		entity("Cap", hat{name: "Cap"}, markers.Cosmetic{Group: "Early"}),
	)

	assert.Equal(t, []string{"Early", "Late"}, meta.CosmeticsGroups)

	groups := set.Cosmetics.GroupsByModule("mod.a")
	require.Len(t, groups, 2)
	assert.True(t, groups[0].Visible)
	assert.False(t, groups[1].Visible)
	require.Len(t, groups[0].Cosmetics, 1)
	assert.Equal(t, "Shades", groups[0].Cosmetics[0].Name)
	require.Len(t, groups[1].Cosmetics, 1)
	assert.Equal(t, "Crown", groups[1].Cosmetics[0].Name)

	// same group name in another module stays separate
	other := set.Cosmetics.GroupsByModule("mod.b")
	require.Len(t, other, 1)
	require.Len(t, other[0].Cosmetics, 1)
	assert.Equal(t, "mod.b", other[0].Cosmetics[0].Module)

	all := set.Cosmetics.List()
	require.Len(t, all, 3)
	ids := map[int]bool{}
	for _, c := range all {
		ids[c.ID] = true
	}
	assert.Len(t, ids, 3)
	assert.Len(t, set.Cosmetics.BySlot(capability.SlotVisor), 1)
	assert.Equal(t, 3, set.Summary().Cosmetics)
}

func TestCosmetics_Contracts(t *testing.T) {
	reqs, diags := scan(t,
		entity("NotAHat", sheriff{}, markers.Cosmetic{Group: "G"}),
		entity("BadSlot", hat{name: "Odd", slot: capability.CosmeticSlot(42)}, markers.Cosmetic{Group: "G"}),
		entity("NilRack", nil, markers.CosmeticsGroup{}),
		entity("Unnamed", hat{}, markers.Cosmetic{Group: "G"}),
	)

	require.Len(t, diags, 3)
	for _, d := range diags {
		assert.Equal(t, markers.CodeShapeMismatch, d.Code)
	}
	assert.Contains(t, diags[1].Message, "slot(42)")

	require.Len(t, reqs, 1)
	assert.Equal(t, markers.RequestCosmetic, reqs[0].Kind)
	assert.Equal(t, "Unnamed", reqs[0].Payload.(capability.Cosmetic).Name)
}

func ptr[T any](v T) *T { return &v }
