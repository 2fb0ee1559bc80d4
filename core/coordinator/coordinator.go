// Package coordinator drives extension modules through discovery and
// registration.
//
// For every module-loaded notification the coordinator checks that the value
// is an extension, scans its entities, registers event handlers on the bus,
// routes every other request through the capability chain and records the
// module. When the host reports that loading is over, Finish runs the
// finalize hooks exactly once.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/artpar/mira/core/capability"
	"github.com/artpar/mira/core/events"
	"github.com/artpar/mira/core/markers"
	"github.com/artpar/mira/core/registry"
	"github.com/artpar/mira/ports"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/artpar/mira/core/coordinator"

var (
	// ErrMissingGUID is returned for an extension whose info has no GUID.
	ErrMissingGUID = errors.New("extension has no guid")

	// ErrModulePanic wraps a panic raised by module code during registration.
	ErrModulePanic = errors.New("module panicked during registration")

	// ErrFinished is returned by OnFinish once the finalize hooks have run.
	ErrFinished = errors.New("coordinator already finished")
)

// Extension is what a loaded module must implement to take part in
// registration.
type Extension interface {
	Info() markers.ModuleInfo
	Entities() []markers.Entity
}

// Initializer is implemented by extensions that subscribe handlers
// explicitly. Initialize runs once, after the marker-declared handlers were
// registered.
type Initializer interface {
	Initialize(bus *events.Bus)
}

// Loaded is a module-loaded notification.
type Loaded struct {
	// Source says where the module came from, for logs.
	Source string

	// Value is the loaded module. Values that are not an Extension are
	// ignored.
	Value any
}

// Observer receives registration counters.
type Observer interface {
	ObserveRegistration(module, registrar string)
	ObserveDiagnostic(module string, code markers.Code)
	ObserveModuleRegistered(module string)
}

type nopObserver struct{}

func (nopObserver) ObserveRegistration(string, string)     {}
func (nopObserver) ObserveDiagnostic(string, markers.Code) {}
func (nopObserver) ObserveModuleRegistered(string)         {}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// FinishHook runs once when loading is over.
type FinishHook func(ctx context.Context) error

type namedHook struct {
	name string
	fn   FinishHook
}

// Config wires a Coordinator. Every field is optional.
type Config struct {
	// Bus receives event handlers. A new bus is created when nil.
	Bus *events.Bus

	// Capabilities supplies the chain and the button and palette freeze
	// hooks. A new set is created when both it and Chain are nil.
	Capabilities *capability.Set

	// Chain overrides Capabilities.Chain().
	Chain *capability.Chain

	// Modules records registered modules. A new registry is created when nil.
	Modules *registry.Registry

	// Scanner classifies entities. Defaults to capability.ScannerRules.
	Scanner *markers.Scanner

	Logger   zerolog.Logger
	Observer Observer
	Journal  ports.DiagnosticJournal
	Clock    ports.Clock
	IDs      ports.IDGenerator
	Tracer   trace.Tracer
}

// Coordinator is the module registration pipeline.
// Process may be called from several goroutines.
type Coordinator struct {
	bus      *events.Bus
	caps     *capability.Set
	chain    *capability.Chain
	modules  *registry.Registry
	scanner  *markers.Scanner
	logger   zerolog.Logger
	observer Observer
	journal  ports.DiagnosticJournal
	clock    ports.Clock
	ids      ports.IDGenerator
	tracer   trace.Tracer

	mu           sync.RWMutex
	states       map[string]State
	fingerprints map[string]string
	diagnostics  []markers.Diagnostic
	hooks        []namedHook
	finished     bool

	finishOnce sync.Once
	finishErr  error
}

// New creates a coordinator.
func New(cfg Config) *Coordinator {
	c := &Coordinator{
		bus:          cfg.Bus,
		caps:         cfg.Capabilities,
		chain:        cfg.Chain,
		modules:      cfg.Modules,
		scanner:      cfg.Scanner,
		logger:       cfg.Logger.With().Str("component", "coordinator").Logger(),
		observer:     cfg.Observer,
		journal:      cfg.Journal,
		clock:        cfg.Clock,
		ids:          cfg.IDs,
		tracer:       cfg.Tracer,
		states:       make(map[string]State),
		fingerprints: make(map[string]string),
	}

	if c.bus == nil {
		c.bus = events.NewBus(cfg.Logger)
	}
	if c.caps == nil && c.chain == nil {
		c.caps = capability.NewSet(cfg.Logger)
	}
	if c.chain == nil {
		c.chain = c.caps.Chain()
	}
	if c.modules == nil {
		c.modules = registry.New()
	}
	if c.scanner == nil {
		c.scanner = markers.NewScanner(cfg.Logger, capability.ScannerRules()...)
	}
	if c.observer == nil {
		c.observer = nopObserver{}
	}
	if c.clock == nil {
		c.clock = systemClock{}
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer(tracerName)
	}

	return c
}

// Bus returns the event bus handlers are registered on.
func (c *Coordinator) Bus() *events.Bus { return c.bus }

// Modules returns the module registry.
func (c *Coordinator) Modules() *registry.Registry { return c.modules }

// Capabilities returns the capability set, or nil when a bare chain was
// configured.
func (c *Coordinator) Capabilities() *capability.Set { return c.caps }

// Process runs one loaded module through the pipeline and returns the state
// it ended in.
//
// A value that is not an Extension is rejected and not tracked. A GUID seen
// before is not registered again: the current state is returned and the
// duplicate is only logged and journaled.
func (c *Coordinator) Process(ctx context.Context, l Loaded) (state State, err error) {
	ext, ok := l.Value.(Extension)
	if !ok {
		c.logger.Debug().
			Str("source", l.Source).
			Str("type", fmt.Sprintf("%T", l.Value)).
			Msg("loaded value is not an extension, ignoring")
		return StateRejected, nil
	}

	info := ext.Info()
	if info.GUID == "" {
		c.logger.Error().Str("source", l.Source).Msg("extension has no guid")
		return StateRejected, fmt.Errorf("%w (source %q)", ErrMissingGUID, l.Source)
	}
	guid := info.GUID
	logger := c.logger.With().Str("module", guid).Logger()

	ctx, span := c.tracer.Start(ctx, "mira.coordinator.process",
		trace.WithAttributes(
			attribute.String("mira.module", guid),
			attribute.String("mira.source", l.Source),
		))
	defer func() {
		span.SetAttributes(attribute.String("mira.state", state.String()))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	c.mu.Lock()
	if prev, seen := c.states[guid]; seen {
		c.mu.Unlock()
		return c.duplicate(ctx, logger, ext, prev), nil
	}
	c.states[guid] = StateDiscovered
	late := c.finished
	c.mu.Unlock()

	if late {
		logger.Warn().Msg("module loaded after finish, registering late")
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("module panicked during registration")
			c.setState(guid, StateRejected)
			state, err = StateRejected, fmt.Errorf("%w: %s: %v", ErrModulePanic, guid, r)
		}
	}()

	c.setState(guid, StateScanning)
	entities := ext.Entities()
	fingerprint := markers.Fingerprint(entities)

	c.mu.Lock()
	c.fingerprints[guid] = fingerprint
	c.mu.Unlock()

	requests, diags := c.scanner.Scan(info, entities)
	for _, d := range diags {
		c.report(ctx, logger, d, true)
	}

	c.setState(guid, StateRegistering)
	meta := &registry.ModuleMetadata{
		GUID:                 guid,
		Name:                 info.Name,
		Version:              info.Version,
		RequiredOnAllClients: info.RequiredOnAllClients,
		Fingerprint:          fingerprint,
		RegisteredAt:         c.clock.Now(),
	}
	if c.ids != nil {
		meta.RegistrationID = c.ids.New()
	}

	handlers := 0
	for _, req := range requests {
		if req.Kind == markers.RequestEventHandler {
			c.bus.Register(req.EventKind, req.Handler, req.Priority, guid)
			c.observer.ObserveRegistration(guid, "events")
			handlers++
			continue
		}
		if name, ok := c.chain.Route(req, meta); ok {
			c.observer.ObserveRegistration(guid, name)
		}
	}
	if init, ok := ext.(Initializer); ok {
		if d := c.initialize(init, guid); d != nil {
			logger.Error().Str("code", string(d.Code)).Msg(d.Message)
			c.report(ctx, logger, *d, true)
			diags = append(diags, *d)
		}
	}
	c.chain.CompleteModule(meta)

	if err := c.modules.Add(*meta); err != nil {
		c.setState(guid, StateRejected)
		return StateRejected, fmt.Errorf("record module %s: %w", guid, err)
	}
	c.setState(guid, StateRegistered)
	c.observer.ObserveModuleRegistered(guid)

	if late && c.caps != nil {
		c.caps.Palette.Freeze()
	}

	span.SetAttributes(
		attribute.Int("mira.requests", len(requests)),
		attribute.Int("mira.diagnostics", len(diags)),
	)
	logger.Info().
		Str("name", info.Name).
		Str("version", info.Version).
		Int("requests", len(requests)).
		Int("handlers", handlers).
		Int("diagnostics", len(diags)).
		Msg("module registered")

	return StateRegistered, nil
}

// initialize runs the module's explicit registration. A panic keeps what
// was registered so far and comes back as a diagnostic; the module still
// completes.
func (c *Coordinator) initialize(init Initializer, guid string) (diag *markers.Diagnostic) {
	defer func() {
		if r := recover(); r != nil {
			diag = &markers.Diagnostic{
				Code:    markers.CodeInitializeFailed,
				Module:  guid,
				Entity:  "Initialize",
				Message: fmt.Sprintf("explicit registration panicked: %v", r),
			}
		}
	}()
	init.Initialize(c.bus)
	return nil
}

// duplicate handles a GUID that was already processed.
func (c *Coordinator) duplicate(ctx context.Context, logger zerolog.Logger, ext Extension, prev State) State {
	c.mu.RLock()
	known := c.fingerprints[ext.Info().GUID]
	c.mu.RUnlock()

	if known != "" {
		if fp := markers.Fingerprint(ext.Entities()); fp != known {
			logger.Warn().
				Str("known", known).
				Str("loaded", fp).
				Msg("module rediscovered with different declarations, keeping the first")
		}
	}

	c.report(ctx, logger, markers.Diagnostic{
		Code:    markers.CodeDuplicateModule,
		Module:  ext.Info().GUID,
		Message: "module already processed, ignoring",
	}, false)
	return prev
}

// report counts and journals a diagnostic. Surfaced diagnostics are also kept
// for Diagnostics; suppressed ones are logged at debug only.
func (c *Coordinator) report(ctx context.Context, logger zerolog.Logger, d markers.Diagnostic, surfaced bool) {
	if surfaced {
		c.mu.Lock()
		c.diagnostics = append(c.diagnostics, d)
		c.mu.Unlock()
	} else {
		logger.Debug().Str("code", string(d.Code)).Msg(d.Message)
	}

	c.observer.ObserveDiagnostic(d.Module, d.Code)

	if c.journal == nil {
		return
	}
	rec := ports.DiagnosticRecord{
		Module:    d.Module,
		Entity:    d.Entity,
		Code:      string(d.Code),
		Message:   d.Message,
		CreatedAt: c.clock.Now(),
	}
	if c.ids != nil {
		rec.ID = c.ids.New()
	}
	if err := c.journal.Record(ctx, rec); err != nil {
		logger.Warn().Err(err).Str("code", rec.Code).Msg("failed to journal diagnostic")
	}
}

func (c *Coordinator) setState(guid string, s State) {
	c.mu.Lock()
	c.states[guid] = s
	c.mu.Unlock()
}

// State returns a module's pipeline state.
func (c *Coordinator) State(guid string) State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.states[guid]
}

// Diagnostics returns the diagnostics surfaced so far, in discovery order.
func (c *Coordinator) Diagnostics() []markers.Diagnostic {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]markers.Diagnostic(nil), c.diagnostics...)
}

// OnFinish adds a hook run by Finish after the built-in hooks. Hooks run in
// the order they were added.
func (c *Coordinator) OnFinish(name string, fn FinishHook) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.finished {
		c.logger.Warn().Str("hook", name).Msg("finish hook added after finish, ignoring")
		return fmt.Errorf("%w: hook %q", ErrFinished, name)
	}
	c.hooks = append(c.hooks, namedHook{name: name, fn: fn})
	return nil
}

// Run processes notifications until ch is closed, then calls Finish.
// Module failures are logged and joined into the returned error; they do not
// stop the loop. A cancelled ctx stops the loop without finishing.
func (c *Coordinator) Run(ctx context.Context, ch <-chan Loaded) error {
	var errs []error
	for {
		select {
		case <-ctx.Done():
			return errors.Join(append(errs, ctx.Err())...)
		case l, ok := <-ch:
			if !ok {
				return errors.Join(append(errs, c.Finish(ctx))...)
			}
			if _, err := c.Process(ctx, l); err != nil {
				c.logger.Error().Err(err).Str("source", l.Source).Msg("module registration failed")
				errs = append(errs, err)
			}
		}
	}
}

// Finish runs the finalize hooks exactly once: bus ordering, button freeze,
// palette freeze, then OnFinish hooks. Later calls return the first result.
func (c *Coordinator) Finish(ctx context.Context) error {
	c.finishOnce.Do(func() {
		c.mu.Lock()
		c.finished = true
		hooks := append([]namedHook(nil), c.hooks...)
		c.mu.Unlock()

		builtin := []namedHook{{name: "events.finalize_ordering", fn: func(context.Context) error {
			c.bus.FinalizeOrdering()
			return nil
		}}}
		if c.caps != nil {
			builtin = append(builtin,
				namedHook{name: "buttons.freeze", fn: func(context.Context) error {
					c.caps.Buttons.Freeze()
					return nil
				}},
				namedHook{name: "palette.freeze", fn: func(context.Context) error {
					c.caps.Palette.Freeze()
					return nil
				}},
			)
		}

		var errs []error
		for _, h := range append(builtin, hooks...) {
			if err := h.fn(ctx); err != nil {
				c.logger.Error().Err(err).Str("hook", h.name).Msg("finish hook failed")
				errs = append(errs, fmt.Errorf("finish hook %s: %w", h.name, err))
				continue
			}
			c.logger.Debug().Str("hook", h.name).Msg("finish hook ran")
		}
		c.finishErr = errors.Join(errs...)

		c.logger.Info().
			Int("modules", c.modules.Count()).
			Int("event_kinds", len(c.bus.Kinds())).
			Msg("registration finished")
	})
	return c.finishErr
}

// Finished reports whether Finish has run.
func (c *Coordinator) Finished() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.finished
}
