// Package http serves read-only introspection of a running registration
// pipeline: loaded modules, what they registered, the event bus and the
// diagnostic journal.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/artpar/mira/core/capability"
	"github.com/artpar/mira/core/coordinator"
	"github.com/artpar/mira/core/registry"
	_ "github.com/artpar/mira/docs/swagger" // swagger docs
	"github.com/artpar/mira/pkg/jsonapi"
	"github.com/artpar/mira/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
)

// VersionResponse is the /version body.
type VersionResponse struct {
	Version string `json:"version"`
	Service string `json:"service"`
}

// HealthResponse is the /health body.
type HealthResponse struct {
	Status   string `json:"status"`
	Finished bool   `json:"finished"`
	Modules  int    `json:"modules"`
}

// RouterConfig configures the introspection router.
type RouterConfig struct {
	Coordinator *coordinator.Coordinator

	// Journal backs /diagnostics. Nil answers 503.
	Journal ports.DiagnosticJournal

	// MetricsHandler is mounted at MetricsPath when set.
	MetricsHandler http.Handler
	MetricsPath    string

	Version string

	// EnableDocs serves the OpenAPI document and Swagger UI under /swagger.
	EnableDocs bool
}

// Handler answers introspection requests.
type Handler struct {
	coord   *coordinator.Coordinator
	journal ports.DiagnosticJournal
	version string
	logger  zerolog.Logger
}

// NewRouter creates the introspection router.
func NewRouter(cfg RouterConfig, logger zerolog.Logger) chi.Router {
	h := &Handler{
		coord:   cfg.Coordinator,
		journal: cfg.Journal,
		version: cfg.Version,
		logger:  logger,
	}
	if h.version == "" {
		h.version = "dev"
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", h.Health)
	r.Get("/version", h.Version)

	r.Get("/modules", h.ListModules)
	r.Get("/modules/{guid}", h.GetModule)
	r.Get("/modules/{guid}/diagnostics", h.ModuleDiagnostics)

	r.Get("/events", h.ListEvents)
	r.Get("/capabilities", h.Capabilities)
	r.Get("/roles", h.ListRoles)
	r.Get("/options", h.ListOptions)
	r.Get("/colors", h.ListColors)
	r.Get("/diagnostics", h.ListDiagnostics)

	if cfg.MetricsHandler != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, cfg.MetricsHandler)
	}

	if cfg.EnableDocs {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	return r
}

// Health reports liveness and whether loading has finished.
//
//	@Summary		Liveness check
//	@Description	Reports liveness and whether module loading has finished
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Router			/health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Finished: h.coord.Finished(),
		Modules:  h.coord.Modules().Count(),
	})
}

// Version returns the service version.
//
//	@Summary		Service version
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	VersionResponse
//	@Router			/version [get]
func (h *Handler) Version(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: h.version, Service: "mira"})
}

// ListModules lists registered modules sorted by GUID.
//
//	@Summary		List modules
//	@Tags			Modules
//	@Produce		json
//	@Success		200	{object}	jsonapi.Document
//	@Router			/modules [get]
func (h *Handler) ListModules(w http.ResponseWriter, r *http.Request) {
	mods := h.coord.Modules().List()
	resources := make([]jsonapi.Resource, 0, len(mods))
	for _, m := range mods {
		resources = append(resources, h.moduleResource(m, false))
	}
	jsonapi.WriteCollection(w, resources, jsonapi.Meta{"total": len(mods)})
}

// GetModule returns one module with everything it registered.
//
//	@Summary		Get module
//	@Description	Returns one module with its capability relationships
//	@Tags			Modules
//	@Produce		json
//	@Param			guid	path	string	true	"Module GUID"
//	@Success		200	{object}	jsonapi.Document
//	@Failure		404	{object}	jsonapi.Document
//	@Router			/modules/{guid} [get]
func (h *Handler) GetModule(w http.ResponseWriter, r *http.Request) {
	guid := chi.URLParam(r, "guid")

	m, err := h.coord.Modules().Lookup(guid)
	if errors.Is(err, registry.ErrModuleNotFound) {
		jsonapi.WriteError(w, jsonapi.ErrNotFoundWithID("module", guid))
		return
	}
	if err != nil {
		jsonapi.WriteError(w, jsonapi.ErrInternal(err.Error()))
		return
	}

	jsonapi.WriteResource(w, h.moduleResource(m, true))
}

// ModuleDiagnostics lists the journaled diagnostics of one module.
//
//	@Summary		Module diagnostics
//	@Tags			Diagnostics
//	@Produce		json
//	@Param			guid	path	string	true	"Module GUID"
//	@Success		200	{object}	jsonapi.Document
//	@Failure		503	{object}	jsonapi.Document
//	@Router			/modules/{guid}/diagnostics [get]
func (h *Handler) ModuleDiagnostics(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		jsonapi.WriteError(w, jsonapi.ErrUnavailable("diagnostic journal is disabled"))
		return
	}

	guid := chi.URLParam(r, "guid")
	recs, err := h.journal.ListByModule(r.Context(), guid)
	if err != nil {
		h.logger.Error().Err(err).Str("module", guid).Msg("list module diagnostics failed")
		jsonapi.WriteError(w, jsonapi.ErrInternal("failed to read diagnostics"))
		return
	}
	jsonapi.WriteCollection(w, diagnosticResources(recs), jsonapi.Meta{"total": len(recs)})
}

// ListEvents lists event kinds with their handlers in dispatch order.
//
//	@Summary		List event kinds
//	@Description	Lists event kinds with their handlers in dispatch order
//	@Tags			Events
//	@Produce		json
//	@Success		200	{object}	jsonapi.Document
//	@Router			/events [get]
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	bus := h.coord.Bus()
	kinds := bus.Kinds()

	resources := make([]jsonapi.Resource, 0, len(kinds))
	for _, kind := range kinds {
		entries := bus.Handlers(kind)
		handlers := make([]map[string]any, 0, len(entries))
		for _, e := range entries {
			handlers = append(handlers, map[string]any{
				"priority": e.Priority,
				"owner":    e.Owner,
				"sequence": e.Sequence,
			})
		}
		resources = append(resources, jsonapi.NewResource("event_kinds", kind.String()).
			Attr("handler_count", len(entries)).
			Attr("handlers", handlers).
			Build())
	}

	jsonapi.WriteCollection(w, resources, jsonapi.Meta{
		"finalized": bus.Finalized(),
		"handlers":  bus.HandlerCount(),
	})
}

// Capabilities returns registry counts.
//
//	@Summary		Capability summary
//	@Tags			Capabilities
//	@Produce		json
//	@Success		200	{object}	jsonapi.Document
//	@Router			/capabilities [get]
func (h *Handler) Capabilities(w http.ResponseWriter, r *http.Request) {
	caps := h.coord.Capabilities()
	if caps == nil {
		jsonapi.WriteError(w, jsonapi.ErrUnavailable("no capability registries configured"))
		return
	}

	s := caps.Summary()
	jsonapi.WriteResource(w, jsonapi.NewResource("capabilities", "summary").
		Attr("modifiers", s.Modifiers).
		Attr("option_groups", s.OptionGroups).
		Attr("options", s.Options).
		Attr("cosmetics", s.Cosmetics).
		Attr("roles", s.Roles).
		Attr("buttons", s.Buttons).
		Attr("game_modes", s.GameModes).
		Attr("colors", s.Colors).
		Meta("buttons_frozen", caps.Buttons.Frozen()).
		Meta("palette_frozen", caps.Palette.Frozen()).
		Build())
}

// ListRoles lists roles in id order.
//
//	@Summary		List roles
//	@Tags			Capabilities
//	@Produce		json
//	@Success		200	{object}	jsonapi.Document
//	@Router			/roles [get]
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	caps := h.coord.Capabilities()
	if caps == nil {
		jsonapi.WriteCollection(w, nil, jsonapi.Meta{"total": 0})
		return
	}

	roles := caps.Roles.List()
	resources := make([]jsonapi.Resource, 0, len(roles))
	for _, role := range roles {
		resources = append(resources, jsonapi.NewResource("roles", strconv.Itoa(role.ID)).
			Attr("name", role.Name).
			Attr("team", role.Team.String()).
			Attr("module", role.Module).
			Attr("configuration", role.Configuration).
			Build())
	}
	jsonapi.WriteCollection(w, resources, jsonapi.Meta{"total": len(roles)})
}

// ListOptions lists options with their current values. ?module= filters.
//
//	@Summary		List options
//	@Tags			Capabilities
//	@Produce		json
//	@Param			module	query	string	false	"Filter by module GUID"
//	@Success		200	{object}	jsonapi.Document
//	@Router			/options [get]
func (h *Handler) ListOptions(w http.ResponseWriter, r *http.Request) {
	caps := h.coord.Capabilities()
	if caps == nil {
		jsonapi.WriteCollection(w, nil, jsonapi.Meta{"total": 0})
		return
	}

	module := r.URL.Query().Get("module")
	var resources []jsonapi.Resource
	for _, o := range caps.Options.Options() {
		if module != "" && o.Module != module {
			continue
		}
		b := jsonapi.NewResource("options", strconv.Itoa(o.ID)).
			Attr("title", o.Title).
			Attr("kind", o.Kind.String()).
			Attr("group", o.Group).
			Attr("module", o.Module).
			Attr("value", o.Value())
		if o.Kind == capability.OptionNumber {
			b.Attr("min", o.Min).Attr("max", o.Max).Attr("step", o.Step)
		}
		if len(o.Values) > 0 {
			b.Attr("values", o.Values)
		}
		resources = append(resources, b.Build())
	}
	jsonapi.WriteCollection(w, resources, jsonapi.Meta{"total": len(resources)})
}

// ListColors lists the published palette. It is empty until loading has
// finished.
//
//	@Summary		List custom colors
//	@Tags			Capabilities
//	@Produce		json
//	@Success		200	{object}	jsonapi.Document
//	@Router			/colors [get]
func (h *Handler) ListColors(w http.ResponseWriter, r *http.Request) {
	caps := h.coord.Capabilities()
	if caps == nil {
		jsonapi.WriteCollection(w, nil, jsonapi.Meta{"total": 0})
		return
	}

	colors := caps.Palette.Colors()
	resources := make([]jsonapi.Resource, 0, len(colors))
	for i, c := range colors {
		resources = append(resources, jsonapi.NewResource("colors", strconv.Itoa(i)).
			Attr("name", c.Name).
			Attr("hex", c.Hex()).
			Build())
	}
	jsonapi.WriteCollection(w, resources, jsonapi.Meta{
		"total":     len(colors),
		"published": caps.Palette.Frozen(),
	})
}

// ListDiagnostics lists journaled diagnostics, newest first. ?limit= caps
// the result.
//
//	@Summary		List diagnostics
//	@Tags			Diagnostics
//	@Produce		json
//	@Param			limit	query	int	false	"Maximum records"
//	@Success		200	{object}	jsonapi.Document
//	@Failure		503	{object}	jsonapi.Document
//	@Router			/diagnostics [get]
func (h *Handler) ListDiagnostics(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		jsonapi.WriteError(w, jsonapi.ErrUnavailable("diagnostic journal is disabled"))
		return
	}

	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	recs, err := h.journal.List(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("list diagnostics failed")
		jsonapi.WriteError(w, jsonapi.ErrInternal("failed to read diagnostics"))
		return
	}
	jsonapi.WriteCollection(w, diagnosticResources(recs), jsonapi.Meta{"total": len(recs)})
}

func (h *Handler) moduleResource(m registry.ModuleMetadata, detail bool) jsonapi.Resource {
	b := jsonapi.NewResource("modules", m.GUID).
		Attr("name", m.Name).
		Attr("version", m.Version).
		Attr("required_on_all_clients", m.RequiredOnAllClients).
		Attr("option_groups", m.OptionGroups).
		Attr("cosmetics_groups", m.CosmeticsGroups).
		Attr("registration_id", m.RegistrationID).
		Attr("fingerprint", m.Fingerprint).
		Attr("registered_at", m.RegisteredAt).
		Meta("state", h.coord.State(m.GUID).String()).
		Link("/modules/" + m.GUID)

	caps := h.coord.Capabilities()
	if !detail || caps == nil {
		return b.Build()
	}

	var roles, modifiers, buttons, modes []string
	for _, e := range caps.Roles.ByModule(m.GUID) {
		roles = append(roles, strconv.Itoa(e.ID))
	}
	for _, e := range caps.Modifiers.ByModule(m.GUID) {
		modifiers = append(modifiers, strconv.Itoa(e.ID))
	}
	for _, e := range caps.Buttons.ByModule(m.GUID) {
		buttons = append(buttons, e.Name)
	}
	for _, e := range caps.GameModes.ByModule(m.GUID) {
		modes = append(modes, strconv.Itoa(e.ID))
	}

	var colors []string
	for _, c := range caps.Palette.ByModule(m.GUID) {
		colors = append(colors, c.Hex())
	}

	return b.
		HasMany("roles", "roles", roles).
		HasMany("modifiers", "modifiers", modifiers).
		HasMany("buttons", "buttons", buttons).
		HasMany("game_modes", "game_modes", modes).
		Attr("colors", colors).
		Build()
}

func diagnosticResources(recs []ports.DiagnosticRecord) []jsonapi.Resource {
	resources := make([]jsonapi.Resource, 0, len(recs))
	for _, rec := range recs {
		resources = append(resources, jsonapi.NewResource("diagnostics", rec.ID).
			Attr("module", rec.Module).
			Attr("entity", rec.Entity).
			Attr("code", rec.Code).
			Attr("message", rec.Message).
			Attr("created_at", rec.CreatedAt).
			Build())
	}
	return resources
}

func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return 100, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		jsonapi.WriteError(w, jsonapi.ErrBadParameter("limit", "limit must be a positive integer"))
		return 0, false
	}
	return n, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// NewLoggingMiddleware logs every request at debug level.
func NewLoggingMiddleware(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			if strings.HasPrefix(r.URL.Path, "/health") || r.URL.Path == "/metrics" {
				return
			}

			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}
