package main

import (
	"github.com/artpar/mira/core/capability"
	"github.com/artpar/mira/core/coordinator"
	"github.com/artpar/mira/core/formatter"
	"github.com/artpar/mira/ports"
)

// section renders one view of a finished coordinator.
type section struct {
	listing formatter.Listing
	records func(c *coordinator.Coordinator) []map[string]any
}

var sections = map[string]section{
	"modules": {
		listing: formatter.Listing{Name: "modules", Columns: []string{"guid", "name", "version", "state", "option_groups"}},
		records: moduleRecords,
	},
	"roles": {
		listing: formatter.Listing{Name: "roles", Columns: []string{"id", "name", "team", "module"}},
		records: func(c *coordinator.Coordinator) []map[string]any {
			var out []map[string]any
			for _, r := range c.Capabilities().Roles.List() {
				out = append(out, map[string]any{
					"id": r.ID, "name": r.Name, "team": r.Team, "module": r.Module,
					"role_group": r.Configuration.RoleGroup, "max_count": r.Configuration.MaxRoleCount,
				})
			}
			return out
		},
	},
	"modifiers": {
		listing: formatter.Listing{Name: "modifiers", Columns: []string{"id", "name", "hide_on_ui", "module"}},
		records: func(c *coordinator.Coordinator) []map[string]any {
			var out []map[string]any
			for _, m := range c.Capabilities().Modifiers.List() {
				out = append(out, map[string]any{"id": m.ID, "name": m.Name, "hide_on_ui": m.HideOnUI, "module": m.Module})
			}
			return out
		},
	},
	"buttons": {
		listing: formatter.Listing{Name: "buttons", Columns: []string{"name", "cooldown", "module"}},
		records: func(c *coordinator.Coordinator) []map[string]any {
			var out []map[string]any
			for _, b := range c.Capabilities().Buttons.View() {
				out = append(out, map[string]any{"name": b.Name, "cooldown": b.Cooldown.String(), "module": b.Module})
			}
			return out
		},
	},
	"game_modes": {
		listing: formatter.Listing{Name: "game modes", Columns: []string{"id", "name", "module"}},
		records: func(c *coordinator.Coordinator) []map[string]any {
			var out []map[string]any
			for _, g := range c.Capabilities().GameModes.List() {
				out = append(out, map[string]any{"id": g.ID, "name": g.Name, "module": g.Module})
			}
			return out
		},
	},
	"options": {
		listing: formatter.Listing{Name: "options", Columns: []string{"id", "group", "title", "kind", "value", "module"}},
		records: optionRecords,
	},
	"cosmetics": {
		listing: formatter.Listing{Name: "cosmetics", Columns: []string{"id", "group", "name", "slot", "module"}},
		records: func(c *coordinator.Coordinator) []map[string]any {
			var out []map[string]any
			for _, cos := range c.Capabilities().Cosmetics.List() {
				out = append(out, map[string]any{"id": cos.ID, "group": cos.Group, "name": cos.Name, "slot": cos.Slot.String(), "module": cos.Module})
			}
			return out
		},
	},
	"colors": {
		listing: formatter.Listing{Name: "colors", Columns: []string{"name", "hex", "module"}},
		records: func(c *coordinator.Coordinator) []map[string]any {
			var out []map[string]any
			for _, m := range c.Modules().List() {
				for _, e := range c.Capabilities().Palette.ByModule(m.GUID) {
					out = append(out, map[string]any{"name": e.Name, "hex": e.Hex(), "module": e.Module})
				}
			}
			return out
		},
	},
	"events": {
		listing: formatter.Listing{Name: "event kinds", Columns: []string{"kind", "handlers", "owners"}},
		records: eventRecords,
	},
}

func moduleRecords(c *coordinator.Coordinator) []map[string]any {
	var out []map[string]any
	for _, m := range c.Modules().List() {
		out = append(out, map[string]any{
			"guid":                    m.GUID,
			"name":                    m.Name,
			"version":                 m.Version,
			"state":                   c.State(m.GUID).String(),
			"required_on_all_clients": m.RequiredOnAllClients,
			"option_groups":           m.OptionGroups,
			"cosmetics_groups":        m.CosmeticsGroups,
			"registration_id":         m.RegistrationID,
			"fingerprint":             m.Fingerprint,
		})
	}
	return out
}

func optionRecords(c *coordinator.Coordinator) []map[string]any {
	var out []map[string]any
	for _, o := range c.Capabilities().Options.Options() {
		out = append(out, map[string]any{
			"id":     o.ID,
			"group":  o.Group,
			"title":  o.Title,
			"kind":   o.Kind.String(),
			"value":  o.Value(),
			"module": o.Module,
		})
	}
	return out
}

func eventRecords(c *coordinator.Coordinator) []map[string]any {
	var out []map[string]any
	bus := c.Bus()
	for _, k := range bus.Kinds() {
		entries := bus.Handlers(k)
		owners := make([]string, 0, len(entries))
		seen := make(map[string]bool)
		for _, e := range entries {
			if !seen[e.Owner] {
				seen[e.Owner] = true
				owners = append(owners, e.Owner)
			}
		}
		out = append(out, map[string]any{"kind": k.String(), "handlers": len(entries), "owners": owners})
	}
	return out
}

func summaryRecord(s capability.Summary, c *coordinator.Coordinator) map[string]any {
	return map[string]any{
		"modules":       c.Modules().Count(),
		"event_kinds":   len(c.Bus().Kinds()),
		"handlers":      c.Bus().HandlerCount(),
		"roles":         s.Roles,
		"modifiers":     s.Modifiers,
		"options":       s.Options,
		"option_groups": s.OptionGroups,
		"cosmetics":     s.Cosmetics,
		"buttons":       s.Buttons,
		"game_modes":    s.GameModes,
		"colors":        s.Colors,
		"diagnostics":   len(c.Diagnostics()),
	}
}

func diagnosticRecords(recs []ports.DiagnosticRecord) []map[string]any {
	out := make([]map[string]any, 0, len(recs))
	for _, r := range recs {
		out = append(out, map[string]any{
			"id":         r.ID,
			"module":     r.Module,
			"entity":     r.Entity,
			"code":       r.Code,
			"message":    r.Message,
			"created_at": r.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return out
}
