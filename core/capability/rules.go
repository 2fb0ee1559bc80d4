package capability

import (
	"reflect"

	"github.com/artpar/mira/core/markers"
)

// Rules returns the scanner rules for every capability marker, in the order
// registrations are processed: modifiers, options, cosmetics, roles, buttons,
// game modes, colors.
func Rules() []markers.Rule {
	return []markers.Rule{
		{Name: "modifier", Kind: markers.RequestModifier, Match: is[markers.Modifier], Build: buildModifier},
		{Name: "option_group", Kind: markers.RequestOption, Match: is[markers.OptionGroup], Build: buildOptionGroup},
		{Name: "option", Kind: markers.RequestOption, Match: is[markers.Option], Build: buildModdedOption},
		{Name: "number_option", Kind: markers.RequestOption, Match: is[markers.NumberOption], Build: buildNumberOption},
		{Name: "string_option", Kind: markers.RequestOption, Match: is[markers.StringOption], Build: buildStringOption},
		{Name: "toggle_option", Kind: markers.RequestOption, Match: is[markers.ToggleOption], Build: buildToggleOption},
		{Name: "cosmetics_group", Kind: markers.RequestCosmetic, Match: is[markers.CosmeticsGroup], Build: buildCosmeticsGroup},
		{Name: "cosmetic", Kind: markers.RequestCosmetic, Match: is[markers.Cosmetic], Build: buildCosmetic},
		{Name: "role", Kind: markers.RequestRole, Match: is[markers.Role], Build: buildRole},
		{Name: "button", Kind: markers.RequestButton, Match: is[markers.Button], Build: buildButton},
		{Name: "game_mode", Kind: markers.RequestGameMode, Match: is[markers.GameMode], Build: buildGameMode},
		{Name: "colors", Kind: markers.RequestColor, Match: is[markers.Colors], Build: buildColors},
	}
}

// ScannerRules returns Rules followed by the event handler rule.
func ScannerRules() []markers.Rule {
	return append(Rules(), markers.EventRule())
}

func is[M markers.Marker](m markers.Marker) bool {
	_, ok := m.(M)
	return ok
}

// isNil reports whether v is nil or a typed nil.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// contract asserts that e.Value is a non-nil T.
func contract[T any](sc markers.Scope, e markers.Entity, what string) (T, *markers.Diagnostic) {
	var zero T
	if isNil(e.Value) {
		return zero, markers.ShapeMismatch(sc.Module.GUID, e.Name, "%s is nil", what)
	}
	v, ok := e.Value.(T)
	if !ok {
		return zero, markers.ShapeMismatch(sc.Module.GUID, e.Name, "%T does not implement %s", e.Value, reflect.TypeFor[T]())
	}
	return v, nil
}

func buildModifier(sc markers.Scope, e markers.Entity, _ markers.Marker) (markers.Request, *markers.Diagnostic) {
	mod, diag := contract[Modifier](sc, e, "modifier")
	if diag != nil {
		return markers.Request{}, diag
	}
	return markers.Request{Payload: ModifierEntry{
		Entity:   e.Name,
		Name:     mod.ModifierName(),
		HideOnUI: mod.HideOnUI(),
		Modifier: mod,
	}}, nil
}

func buildRole(sc markers.Scope, e markers.Entity, _ markers.Marker) (markers.Request, *markers.Diagnostic) {
	role, diag := contract[CustomRole](sc, e, "role")
	if diag != nil {
		return markers.Request{}, diag
	}
	if role.RoleName() == "" {
		return markers.Request{}, markers.ShapeMismatch(sc.Module.GUID, e.Name, "role name is empty")
	}

	cfg := DefaultRoleConfiguration(role.Team())
	if c, ok := role.(RoleConfigurer); ok {
		cfg = c.Configuration()
	}

	return markers.Request{Payload: RoleEntry{
		Entity:        e.Name,
		Name:          role.RoleName(),
		Team:          role.Team(),
		Configuration: cfg,
		Role:          role,
	}}, nil
}

func buildButton(sc markers.Scope, e markers.Entity, _ markers.Marker) (markers.Request, *markers.Diagnostic) {
	btn, diag := contract[CustomButton](sc, e, "button")
	if diag != nil {
		return markers.Request{}, diag
	}
	if btn.Cooldown() < 0 {
		return markers.Request{}, markers.ShapeMismatch(sc.Module.GUID, e.Name, "button cooldown %s is negative", btn.Cooldown())
	}
	return markers.Request{Payload: ButtonEntry{
		Entity:   e.Name,
		Name:     btn.Name(),
		Cooldown: btn.Cooldown(),
		Button:   btn,
	}}, nil
}

func buildGameMode(sc markers.Scope, e markers.Entity, _ markers.Marker) (markers.Request, *markers.Diagnostic) {
	mode, diag := contract[GameMode](sc, e, "game mode")
	if diag != nil {
		return markers.Request{}, diag
	}
	return markers.Request{Payload: GameModeEntry{
		Entity: e.Name,
		ID:     mode.ID(),
		Name:   mode.Name(),
		Mode:   mode,
	}}, nil
}

var (
	colorType    = reflect.TypeFor[CustomColor]()
	colorPtrType = reflect.TypeFor[*CustomColor]()
)

// buildColors reads a palette. The value must be a zero-size type; each
// exported method taking no arguments and returning a CustomColor (or a
// *CustomColor) contributes one color.
func buildColors(sc markers.Scope, e markers.Entity, _ markers.Marker) (markers.Request, *markers.Diagnostic) {
	if e.Value == nil {
		return markers.Request{}, markers.ShapeMismatch(sc.Module.GUID, e.Name, "palette is nil")
	}
	rv := reflect.ValueOf(e.Value)
	rt := rv.Type()
	if rt.Kind() == reflect.Pointer || rt.Size() != 0 {
		return markers.Request{}, markers.MustBeStatic(sc.Module.GUID, e.Name, "palette %s must be a zero-size type", rt)
	}

	var colors []CustomColor
	for i := 0; i < rt.NumMethod(); i++ {
		method := rt.Method(i)
		mt := method.Type
		// receiver counts as the first input
		if mt.NumIn() != 1 || mt.NumOut() != 1 {
			continue
		}
		if rtOut := mt.Out(0); rtOut != colorType && rtOut != colorPtrType {
			continue
		}

		out := rv.Method(i).Call(nil)[0]
		switch mt.Out(0) {
		case colorType:
			colors = append(colors, named(out.Interface().(CustomColor), method.Name))
		case colorPtrType:
			if out.IsNil() {
				sc.Logger.Error().
					Str("entity", e.Name).
					Str("method", method.Name).
					Msg("palette color is nil, skipping")
				continue
			}
			colors = append(colors, named(*out.Interface().(*CustomColor), method.Name))
		}
	}

	return markers.Request{Payload: colors}, nil
}

func named(c CustomColor, fallback string) CustomColor {
	if c.Name == "" {
		c.Name = fallback
	}
	return c
}
