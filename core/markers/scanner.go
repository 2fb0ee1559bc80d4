package markers

import (
	"github.com/rs/zerolog"
)

// Scope is what a rule sees while building a request.
type Scope struct {
	Module ModuleInfo
	Logger zerolog.Logger
}

// Rule pairs a marker predicate with the builder that validates the entity
// and produces its request.
type Rule struct {
	// Name is used in logs.
	Name string

	// Kind is the request kind the rule produces.
	Kind RequestKind

	// Match reports whether the rule handles m.
	Match func(m Marker) bool

	// Build validates e and returns its request, or a diagnostic when the
	// entity does not satisfy the contract.
	Build func(sc Scope, e Entity, m Marker) (Request, *Diagnostic)
}

// Scanner classifies entities by their markers.
type Scanner struct {
	rules  []Rule
	logger zerolog.Logger
}

// NewScanner creates a scanner. Rules are evaluated in the given order and
// the first match wins.
func NewScanner(logger zerolog.Logger, rules ...Rule) *Scanner {
	return &Scanner{
		rules:  rules,
		logger: logger,
	}
}

// Rules returns the rule names in evaluation order.
func (s *Scanner) Rules() []string {
	names := make([]string, len(s.rules))
	for i, r := range s.rules {
		names[i] = r.Name
	}
	return names
}

// Scan produces the requests for one module's entities.
//
// Entities without a recognized marker are ignored. Entities that fail
// validation are dropped with a diagnostic and scanning continues. When the
// module is not required on all clients every role entity is dropped and a
// single RolesRequireFullSync diagnostic is reported for the module.
func (s *Scanner) Scan(info ModuleInfo, entities []Entity) ([]Request, []Diagnostic) {
	logger := s.logger.With().Str("module", info.GUID).Logger()
	sc := Scope{Module: info, Logger: logger}

	var (
		requests       []Request
		diags          []Diagnostic
		fullSyncLogged bool
	)

	for _, e := range entities {
		rule, marker, ok := s.match(logger, e)
		if !ok {
			continue
		}

		req, diag := build(rule, sc, e, marker)
		if diag != nil {
			if diag.Module == "" {
				diag.Module = info.GUID
			}
			if diag.Entity == "" {
				diag.Entity = e.Name
			}
			logger.Error().
				Str("entity", e.Name).
				Str("code", string(diag.Code)).
				Msg(diag.Message)
			diags = append(diags, *diag)
			continue
		}

		if rule.Kind == RequestRole && !info.RequiredOnAllClients {
			if !fullSyncLogged {
				fullSyncLogged = true
				logger.Error().
					Str("entity", e.Name).
					Str("code", string(CodeRolesRequireFullSync)).
					Msg("custom roles are only supported on modules required on all clients")
				diags = append(diags, Diagnostic{
					Code:    CodeRolesRequireFullSync,
					Module:  info.GUID,
					Entity:  e.Name,
					Message: "custom roles are only supported on modules required on all clients",
				})
			}
			continue
		}

		req.Kind = rule.Kind
		req.Module = info.GUID
		req.Entity = e
		req.Marker = marker
		requests = append(requests, req)
	}

	logger.Debug().
		Int("entities", len(entities)).
		Int("requests", len(requests)).
		Int("diagnostics", len(diags)).
		Msg("module scanned")

	return requests, diags
}

// build runs rule.Build and turns a panic raised by the entity's own code
// into a ShapeMismatch for that entity.
func build(rule Rule, sc Scope, e Entity, m Marker) (req Request, diag *Diagnostic) {
	defer func() {
		if r := recover(); r != nil {
			req, diag = Request{}, ShapeMismatch(sc.Module.GUID, e.Name, "%s rule panicked: %v", rule.Name, r)
		}
	}()
	return rule.Build(sc, e, m)
}

// match finds the first rule, in rule order, that recognizes one of e's markers.
func (s *Scanner) match(logger zerolog.Logger, e Entity) (Rule, Marker, bool) {
	for _, rule := range s.rules {
		for _, m := range e.Markers {
			if m == nil || !rule.Match(m) {
				continue
			}
			if len(e.Markers) > 1 {
				logger.Debug().
					Str("entity", e.Name).
					Str("marker", m.MarkerName()).
					Int("markers", len(e.Markers)).
					Msg("entity has several markers, using the first matching rule")
			}
			return rule, m, true
		}
	}
	return Rule{}, nil, false
}
