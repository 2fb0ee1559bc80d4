package coordinator_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/artpar/mira/adapters/clock"
	"github.com/artpar/mira/adapters/idgen"
	"github.com/artpar/mira/core/capability"
	"github.com/artpar/mira/core/coordinator"
	"github.com/artpar/mira/core/events"
	"github.com/artpar/mira/core/markers"
	"github.com/artpar/mira/ports"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type meetingEvent struct {
	events.CancelableBase
	Log []string
}

type sheriff struct{}

func (sheriff) RoleName() string      { return "Sheriff" }
func (sheriff) Team() capability.Team { return capability.TeamCrewmate }

type freezeButton struct{}

func (freezeButton) Name() string            { return "Freeze" }
func (freezeButton) Cooldown() time.Duration { return 10 * time.Second }

type palette struct{}

func (palette) Teal() capability.CustomColor { return capability.CustomColor{R: 0, G: 128, B: 128} }

type group struct{}

func (group) GroupName() string  { return "General" }
func (group) GroupPriority() int { return 0 }

// plugin is a test extension.
type plugin struct {
	info     markers.ModuleInfo
	entities []markers.Entity
	panics   bool
}

func (p *plugin) Info() markers.ModuleInfo { return p.info }

func (p *plugin) Entities() []markers.Entity {
	if p.panics {
		panic("broken plugin")
	}
	return p.entities
}

func newPlugin(guid string, entities ...markers.Entity) *plugin {
	return &plugin{
		info:     markers.ModuleInfo{GUID: guid, Name: guid, Version: "1.0.0", RequiredOnAllClients: true},
		entities: entities,
	}
}

func handler(name string, priority int) markers.Entity {
	return markers.Entity{
		Name:    name,
		Value:   func(e *meetingEvent) { e.Log = append(e.Log, name) },
		Markers: []markers.Marker{markers.Event{Priority: priority}},
	}
}

func entity(name string, v any, m markers.Marker) markers.Entity {
	return markers.Entity{Name: name, Value: v, Markers: []markers.Marker{m}}
}

type memJournal struct {
	mu      sync.Mutex
	records []ports.DiagnosticRecord
}

func (j *memJournal) Record(_ context.Context, rec ports.DiagnosticRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = append(j.records, rec)
	return nil
}

func (j *memJournal) List(context.Context, int) ([]ports.DiagnosticRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]ports.DiagnosticRecord(nil), j.records...), nil
}

func (j *memJournal) ListByModule(_ context.Context, module string) ([]ports.DiagnosticRecord, error) {
	var out []ports.DiagnosticRecord
	all, _ := j.List(context.Background(), 0)
	for _, r := range all {
		if r.Module == module {
			out = append(out, r)
		}
	}
	return out, nil
}

type countingObserver struct {
	mu            sync.Mutex
	registrations map[string]int
	diagnostics   map[markers.Code]int
	modules       int
}

func newObserver() *countingObserver {
	return &countingObserver{
		registrations: make(map[string]int),
		diagnostics:   make(map[markers.Code]int),
	}
}

func (o *countingObserver) ObserveRegistration(_, registrar string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.registrations[registrar]++
}

func (o *countingObserver) ObserveDiagnostic(_ string, code markers.Code) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.diagnostics[code]++
}

func (o *countingObserver) ObserveModuleRegistered(string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.modules++
}

type recordingTracer struct {
	noop.Tracer
	mu    sync.Mutex
	spans []string
}

func (r *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	r.mu.Lock()
	r.spans = append(r.spans, name)
	r.mu.Unlock()
	return r.Tracer.Start(ctx, name, opts...)
}

type fixture struct {
	c        *coordinator.Coordinator
	caps     *capability.Set
	journal  *memJournal
	observer *countingObserver
	tracer   *recordingTracer
}

func newFixture() *fixture {
	f := &fixture{
		caps:     capability.NewSet(zerolog.Nop()),
		journal:  &memJournal{},
		observer: newObserver(),
		tracer:   &recordingTracer{},
	}
	f.c = coordinator.New(coordinator.Config{
		Capabilities: f.caps,
		Logger:       zerolog.Nop(),
		Observer:     f.observer,
		Journal:      f.journal,
		Clock:        clock.NewStepping(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Second),
		IDs:          idgen.NewSequential("id-"),
		Tracer:       f.tracer,
	})
	return f
}

func TestProcess_RegistersModule(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	state, err := f.c.Process(ctx, coordinator.Loaded{Source: "test", Value: newPlugin("mod.a",
		handler("vote", 0),
		entity("Sheriff", sheriff{}, markers.Role{}),
		entity("Freeze", freezeButton{}, markers.Button{}),
		entity("General", group{}, markers.OptionGroup{}),
		entity("Enabled", new(bool), markers.ToggleOption{Group: "General"}),
		entity("Palette", palette{}, markers.Colors{}),
	)})

	require.NoError(t, err)
	assert.Equal(t, coordinator.StateRegistered, state)
	assert.Equal(t, coordinator.StateRegistered, f.c.State("mod.a"))

	meta, ok := f.c.Modules().Get("mod.a")
	require.True(t, ok)
	assert.Equal(t, "id-1", meta.RegistrationID)
	assert.Len(t, meta.Fingerprint, 64)
	assert.Equal(t, []string{"General"}, meta.OptionGroups)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), meta.RegisteredAt)

	assert.Equal(t, 1, f.c.Bus().HandlerCount())
	assert.Equal(t, 1, f.caps.Roles.Count())
	assert.Equal(t, 1, f.caps.Buttons.Count())
	assert.Equal(t, 1, f.caps.Palette.Pending())

	assert.Equal(t, map[string]int{
		"events": 1, "roles": 1, "buttons": 1, "options": 2, "colors": 1,
	}, f.observer.registrations)
	assert.Equal(t, 1, f.observer.modules)
	assert.Equal(t, []string{"mira.coordinator.process"}, f.tracer.spans)
}

func TestProcess_NotAnExtension(t *testing.T) {
	f := newFixture()

	state, err := f.c.Process(context.Background(), coordinator.Loaded{Source: "x", Value: "just a string"})

	require.NoError(t, err)
	assert.Equal(t, coordinator.StateRejected, state)
	assert.Equal(t, 0, f.c.Modules().Count())
	assert.Empty(t, f.tracer.spans)
}

func TestProcess_MissingGUID(t *testing.T) {
	f := newFixture()

	state, err := f.c.Process(context.Background(), coordinator.Loaded{Value: newPlugin("")})

	assert.ErrorIs(t, err, coordinator.ErrMissingGUID)
	assert.Equal(t, coordinator.StateRejected, state)
}

func TestProcess_Idempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := newPlugin("mod.a", handler("vote", 0), entity("Sheriff", sheriff{}, markers.Role{}))

	_, err := f.c.Process(ctx, coordinator.Loaded{Value: p})
	require.NoError(t, err)

	state, err := f.c.Process(ctx, coordinator.Loaded{Value: p})
	require.NoError(t, err)
	assert.Equal(t, coordinator.StateRegistered, state)

	assert.Equal(t, 1, f.c.Bus().HandlerCount())
	assert.Equal(t, 1, f.caps.Roles.Count())
	assert.Equal(t, 1, f.c.Modules().Count())

	// suppressed: journaled and counted, never surfaced
	assert.Empty(t, f.c.Diagnostics())
	assert.Equal(t, 1, f.observer.diagnostics[markers.CodeDuplicateModule])
	recs, _ := f.journal.ListByModule(ctx, "mod.a")
	require.Len(t, recs, 1)
	assert.Equal(t, string(markers.CodeDuplicateModule), recs[0].Code)
}

func TestProcess_RediscoveredWithDifferentDeclarations(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.c.Process(ctx, coordinator.Loaded{Value: newPlugin("mod.a", handler("vote", 0))})
	require.NoError(t, err)

	state, err := f.c.Process(ctx, coordinator.Loaded{Value: newPlugin("mod.a", handler("vote", 0), handler("other", 1))})
	require.NoError(t, err)
	assert.Equal(t, coordinator.StateRegistered, state)
	assert.Equal(t, 1, f.c.Bus().HandlerCount())
}

func TestProcess_RolesRequireFullSync(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := newPlugin("mod.partial", handler("vote", 0), entity("Sheriff", sheriff{}, markers.Role{}))
	p.info.RequiredOnAllClients = false

	state, err := f.c.Process(ctx, coordinator.Loaded{Value: p})

	require.NoError(t, err)
	assert.Equal(t, coordinator.StateRegistered, state)
	assert.Equal(t, 0, f.caps.Roles.Count())
	assert.Equal(t, 1, f.c.Bus().HandlerCount())

	diags := f.c.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, markers.CodeRolesRequireFullSync, diags[0].Code)
	assert.Equal(t, "mod.partial", diags[0].Module)

	recs, _ := f.journal.List(ctx, 0)
	require.Len(t, recs, 1)
	assert.Equal(t, "id-1", recs[0].ID)
	assert.Equal(t, "Sheriff", recs[0].Entity)
}

func TestProcess_ShapeMismatchContinues(t *testing.T) {
	f := newFixture()

	state, err := f.c.Process(context.Background(), coordinator.Loaded{Value: newPlugin("mod.a",
		entity("notARole", freezeButton{}, markers.Role{}),
		handler("vote", 0),
	)})

	require.NoError(t, err)
	assert.Equal(t, coordinator.StateRegistered, state)
	assert.Equal(t, 1, f.c.Bus().HandlerCount())
	require.Len(t, f.c.Diagnostics(), 1)
	assert.Equal(t, 1, f.observer.diagnostics[markers.CodeShapeMismatch])
}

func TestProcess_Panic(t *testing.T) {
	f := newFixture()
	p := newPlugin("mod.broken")
	p.panics = true

	state, err := f.c.Process(context.Background(), coordinator.Loaded{Value: p})

	assert.ErrorIs(t, err, coordinator.ErrModulePanic)
	assert.Equal(t, coordinator.StateRejected, state)
	assert.Equal(t, coordinator.StateRejected, f.c.State("mod.broken"))
	assert.False(t, f.c.Modules().Has("mod.broken"))
}

func TestFinish_HookOrder(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.c.Process(ctx, coordinator.Loaded{Value: newPlugin("mod.a",
		entity("Freeze", freezeButton{}, markers.Button{}),
		entity("Palette", palette{}, markers.Colors{}),
	)})
	require.NoError(t, err)

	var order []string
	require.NoError(t, f.c.OnFinish("first", func(context.Context) error {
		assert.True(t, f.c.Bus().Finalized())
		assert.True(t, f.caps.Buttons.Frozen())
		assert.True(t, f.caps.Palette.Frozen())
		order = append(order, "first")
		return nil
	}))
	require.NoError(t, f.c.OnFinish("second", func(context.Context) error {
		order = append(order, "second")
		return nil
	}))

	require.NoError(t, f.c.Finish(ctx))
	require.NoError(t, f.c.Finish(ctx))

	assert.Equal(t, []string{"first", "second"}, order)
	assert.True(t, f.c.Finished())
	assert.Len(t, f.caps.Palette.Colors(), 1)
	assert.Len(t, f.caps.Buttons.View(), 1)
}

func TestFinish_HookErrors(t *testing.T) {
	f := newFixture()
	boom := errors.New("boom")
	ran := false

	require.NoError(t, f.c.OnFinish("fails", func(context.Context) error { return boom }))
	require.NoError(t, f.c.OnFinish("after", func(context.Context) error {
		ran = true
		return nil
	}))

	err := f.c.Finish(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.True(t, ran)
	assert.ErrorIs(t, f.c.Finish(context.Background()), boom)
}

func TestOnFinish_AfterFinish(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.c.Finish(context.Background()))

	err := f.c.OnFinish("late", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, coordinator.ErrFinished)
}

func TestProcess_AfterFinishRegistersLate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.c.Process(ctx, coordinator.Loaded{Value: newPlugin("mod.a", handler("a10", 10))})
	require.NoError(t, err)
	require.NoError(t, f.c.Finish(ctx))

	_, err = f.c.Process(ctx, coordinator.Loaded{Value: newPlugin("mod.b",
		handler("b0", 0),
		entity("Palette", palette{}, markers.Colors{}),
	)})
	require.NoError(t, err)

	ev := &meetingEvent{}
	ok, err := events.Invoke(ctx, f.c.Bus(), ev)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"b0", "a10"}, ev.Log)
	assert.Len(t, f.caps.Palette.Colors(), 1)
}

func TestRun(t *testing.T) {
	f := newFixture()
	broken := newPlugin("mod.broken")
	broken.panics = true

	ch := make(chan coordinator.Loaded, 4)
	ch <- coordinator.Loaded{Source: "a", Value: newPlugin("mod.a", handler("a", 5))}
	ch <- coordinator.Loaded{Source: "junk", Value: 42}
	ch <- coordinator.Loaded{Source: "broken", Value: broken}
	ch <- coordinator.Loaded{Source: "b", Value: newPlugin("mod.b", handler("b", 1))}
	close(ch)

	err := f.c.Run(context.Background(), ch)

	assert.ErrorIs(t, err, coordinator.ErrModulePanic)
	assert.True(t, f.c.Finished())
	assert.Equal(t, 2, f.c.Modules().Count())

	ev := &meetingEvent{}
	_, err = events.Invoke(context.Background(), f.c.Bus(), ev)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, ev.Log)
}

func TestRun_Cancelled(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.c.Run(ctx, make(chan coordinator.Loaded))

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, f.c.Finished())
}

func TestProcess_Concurrent(t *testing.T) {
	f := newFixture()
	p := newPlugin("mod.a", handler("vote", 0), entity("Sheriff", sheriff{}, markers.Role{}))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.c.Process(context.Background(), coordinator.Loaded{Value: p})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, f.c.Bus().HandlerCount())
	assert.Equal(t, 1, f.caps.Roles.Count())
	assert.Equal(t, coordinator.StateRegistered, f.c.State("mod.a"))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "registered", coordinator.StateRegistered.String())
	assert.Equal(t, "state(42)", coordinator.State(42).String())

	bare := coordinator.New(coordinator.Config{Logger: zerolog.Nop()})
	assert.Equal(t, coordinator.StateUnknown, bare.State("missing"))
	assert.NotNil(t, bare.Capabilities())
}

type initPlugin struct {
	*plugin
	calls int
}

func (p *initPlugin) Initialize(bus *events.Bus) {
	p.calls++
	events.SubscribeFunc(bus, func(e *meetingEvent) { e.Log = append(e.Log, "explicit") },
		events.WithPriority(-1), events.WithOwner(p.info.GUID))
}

func TestProcess_Initializer(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := &initPlugin{plugin: newPlugin("mod.init", handler("marked", 0))}

	_, err := f.c.Process(ctx, coordinator.Loaded{Value: p})
	require.NoError(t, err)
	_, err = f.c.Process(ctx, coordinator.Loaded{Value: p})
	require.NoError(t, err)
	require.NoError(t, f.c.Finish(ctx))

	assert.Equal(t, 1, p.calls)

	ev := &meetingEvent{}
	_, err = events.Invoke(ctx, f.c.Bus(), ev)
	require.NoError(t, err)
	assert.Equal(t, []string{"explicit", "marked"}, ev.Log)

	entries := f.c.Bus().Handlers(events.KindFor[*meetingEvent]())
	require.Len(t, entries, 2)
	assert.Equal(t, "mod.init", entries[0].Owner)
}

type panickyInitPlugin struct {
	*plugin
}

func (p *panickyInitPlugin) Initialize(bus *events.Bus) {
	events.SubscribeFunc(bus, func(e *meetingEvent) { e.Log = append(e.Log, "explicit") },
		events.WithOwner(p.info.GUID))
	panic("initialize blew up")
}

func TestProcess_InitializerPanicKeepsModule(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	enabled := true
	p := &panickyInitPlugin{plugin: newPlugin("mod.init",
		handler("marked", 0),
		entity("Sheriff", sheriff{}, markers.Role{}),
		entity("General", group{}, markers.OptionGroup{}),
		entity("Enabled", &enabled, markers.ToggleOption{Group: "General"}),
	)}

	state, err := f.c.Process(ctx, coordinator.Loaded{Value: p})
	require.NoError(t, err)
	assert.Equal(t, coordinator.StateRegistered, state)
	require.True(t, f.c.Modules().Has("mod.init"))

	// every registration the module left behind belongs to a registered module
	entries := f.c.Bus().Handlers(events.KindFor[*meetingEvent]())
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.True(t, f.c.Modules().Has(e.Owner), "handler owned by unrecorded module %q", e.Owner)
	}
	roles := f.caps.Roles.List()
	require.Len(t, roles, 1)
	assert.True(t, f.c.Modules().Has(roles[0].Module))

	groups := f.caps.Options.GroupsByModule("mod.init")
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Options, 1)

	diags := f.c.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, markers.CodeInitializeFailed, diags[0].Code)
	assert.Contains(t, diags[0].Message, "initialize blew up")
	assert.Equal(t, 1, f.observer.diagnostics[markers.CodeInitializeFailed])

	state, err = f.c.Process(ctx, coordinator.Loaded{Value: p})
	require.NoError(t, err)
	assert.Equal(t, coordinator.StateRegistered, state)
	assert.Len(t, f.c.Bus().Handlers(events.KindFor[*meetingEvent]()), 2)
}
