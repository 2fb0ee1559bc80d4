package events

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
)

// testLogger returns a disabled logger for tests
func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

type fooEvent struct {
	Base
	Calls []string
}

type barEvent struct {
	Base
}

type voteEvent struct {
	CancelableBase
	Seen []bool
}

// record returns a handler that appends name to the event's call log.
func record(name string) func(context.Context, *fooEvent) error {
	return func(ctx context.Context, e *fooEvent) error {
		e.Calls = append(e.Calls, name)
		return nil
	}
}

// TestNewBus verifies that NewBus creates a properly initialized Bus
func TestNewBus(t *testing.T) {
	bus := NewBus(testLogger())

	if bus == nil {
		t.Fatal("NewBus returned nil")
	}
	if bus.handlers == nil {
		t.Error("handlers map not initialized")
	}
	if bus.HandlerCount() != 0 {
		t.Error("bus should be empty on creation")
	}
	if bus.Finalized() {
		t.Error("new bus should not be finalized")
	}
}

// TestSubscribe verifies that Subscribe registers under the event's kind
func TestSubscribe(t *testing.T) {
	bus := NewBus(testLogger())

	Subscribe(bus, record("a"))

	if !bus.HasHandlers(KindFor[*fooEvent]()) {
		t.Error("expected handler for fooEvent")
	}
	if bus.HasHandlers(KindFor[*barEvent]()) {
		t.Error("barEvent should have no handlers")
	}

	entries := bus.Handlers(KindFor[*fooEvent]())
	if len(entries) != 1 {
		t.Fatalf("expected 1 handler, got %d", len(entries))
	}
	if entries[0].Priority != 0 {
		t.Errorf("default priority = %d, want 0", entries[0].Priority)
	}
	if entries[0].Sequence != 1 {
		t.Errorf("sequence = %d, want 1", entries[0].Sequence)
	}
}

// TestRegistrationOrderBeforeFinalize verifies lists keep registration order until finalized
func TestRegistrationOrderBeforeFinalize(t *testing.T) {
	bus := NewBus(testLogger())

	Subscribe(bus, record("a"), WithPriority(10))
	Subscribe(bus, record("b"), WithPriority(5))

	ev := &fooEvent{}
	if _, err := bus.Dispatch(context.Background(), ev); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if got := strings.Join(ev.Calls, ","); got != "a,b" {
		t.Errorf("order = %s, want a,b", got)
	}
}

// TestFinalizeOrdering_AscendingPriority pins the ordering rule: smaller
// priority first, equal priorities in registration order.
func TestFinalizeOrdering_AscendingPriority(t *testing.T) {
	bus := NewBus(testLogger())

	Subscribe(bus, record("A"), WithPriority(10))
	Subscribe(bus, record("B"), WithPriority(5))
	Subscribe(bus, record("C"), WithPriority(5))
	bus.FinalizeOrdering()

	ev := &fooEvent{}
	res, err := bus.Dispatch(context.Background(), ev)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if res != Dispatched {
		t.Errorf("result = %s, want dispatched", res)
	}
	if got := strings.Join(ev.Calls, ","); got != "B,C,A" {
		t.Errorf("order = %s, want B,C,A", got)
	}
}

// TestFinalizeOrderingIdempotent verifies a second finalize changes nothing
func TestFinalizeOrderingIdempotent(t *testing.T) {
	bus := NewBus(testLogger())

	Subscribe(bus, record("x"), WithPriority(3))
	Subscribe(bus, record("y"), WithPriority(-1))
	bus.FinalizeOrdering()
	first := bus.Handlers(KindFor[*fooEvent]())
	bus.FinalizeOrdering()
	second := bus.Handlers(KindFor[*fooEvent]())

	if len(first) != len(second) {
		t.Fatalf("length changed: %d -> %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Sequence != second[i].Sequence {
			t.Errorf("position %d changed: %d -> %d", i, first[i].Sequence, second[i].Sequence)
		}
	}
	if !bus.Finalized() {
		t.Error("bus should report finalized")
	}
}

// TestRegisterAfterFinalize_InsertsInOrder pins the late registration policy:
// the entry lands at its sorted position.
func TestRegisterAfterFinalize_InsertsInOrder(t *testing.T) {
	bus := NewBus(testLogger())

	Subscribe(bus, record("p0"), WithPriority(0))
	Subscribe(bus, record("p10"), WithPriority(10))
	bus.FinalizeOrdering()

	Subscribe(bus, record("late5"), WithPriority(5))
	Subscribe(bus, record("late0"), WithPriority(0))
	Subscribe(bus, record("late-1"), WithPriority(-1))

	ev := &fooEvent{}
	if _, err := bus.Dispatch(context.Background(), ev); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	want := "late-1,p0,late0,late5,p10"
	if got := strings.Join(ev.Calls, ","); got != want {
		t.Errorf("order = %s, want %s", got, want)
	}
}

// TestDispatchNoHandlers verifies NoHandlers is returned without error or side effects
func TestDispatchNoHandlers(t *testing.T) {
	bus := NewBus(testLogger())

	called := false
	Subscribe(bus, func(ctx context.Context, e *fooEvent) error {
		called = true
		return nil
	})

	res, err := bus.Dispatch(context.Background(), &barEvent{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != NoHandlers {
		t.Errorf("result = %s, want no_handlers", res)
	}
	if called {
		t.Error("handler for a different kind should not run")
	}
}

// TestDispatchNilEvent verifies a nil event is rejected
func TestDispatchNilEvent(t *testing.T) {
	bus := NewBus(testLogger())

	if _, err := bus.Dispatch(context.Background(), nil); !errors.Is(err, ErrNilEvent) {
		t.Errorf("expected ErrNilEvent, got %v", err)
	}
}

// TestDispatchCancelledStillRunsAll verifies cancellation does not short-circuit
func TestDispatchCancelledStillRunsAll(t *testing.T) {
	bus := NewBus(testLogger())

	Subscribe(bus, func(ctx context.Context, e *voteEvent) error {
		e.Seen = append(e.Seen, e.IsCancelled())
		e.Cancel()
		return nil
	})
	Subscribe(bus, func(ctx context.Context, e *voteEvent) error {
		e.Seen = append(e.Seen, e.IsCancelled())
		return nil
	})
	bus.FinalizeOrdering()

	ev := &voteEvent{}
	if _, err := bus.Dispatch(context.Background(), ev); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if !ev.IsCancelled() {
		t.Error("caller should observe cancelled = true")
	}
	if len(ev.Seen) != 2 {
		t.Fatalf("expected both handlers to run, got %d", len(ev.Seen))
	}
	if ev.Seen[0] {
		t.Error("first handler should see an uncancelled event")
	}
	if !ev.Seen[1] {
		t.Error("second handler should see cancelled = true on entry")
	}
}

// TestCancelIsSticky verifies the flag cannot be reset through the API
func TestCancelIsSticky(t *testing.T) {
	ev := &voteEvent{}
	if ev.IsCancelled() {
		t.Fatal("event should start uncancelled")
	}
	ev.Cancel()
	ev.Cancel()
	if !ev.IsCancelled() {
		t.Error("event should stay cancelled")
	}
}

// TestDispatchHandlerErrorAborts verifies fail-fast on handler errors
func TestDispatchHandlerErrorAborts(t *testing.T) {
	bus := NewBus(testLogger())
	boom := errors.New("boom")

	Subscribe(bus, record("first"))
	Subscribe(bus, func(ctx context.Context, e *fooEvent) error {
		e.Calls = append(e.Calls, "failing")
		return boom
	}, WithOwner("com.example.mod"))
	Subscribe(bus, record("never"))
	bus.FinalizeOrdering()

	ev := &fooEvent{}
	res, err := bus.Dispatch(context.Background(), ev)
	if err == nil {
		t.Fatal("expected error")
	}
	if res != Dispatched {
		t.Errorf("result = %s, want dispatched", res)
	}
	if !errors.Is(err, boom) {
		t.Errorf("error should wrap handler error, got %v", err)
	}
	if !errors.Is(err, ErrHandlerInvocation) {
		t.Errorf("error should match ErrHandlerInvocation, got %v", err)
	}

	var herr *HandlerError
	if !errors.As(err, &herr) {
		t.Fatalf("expected *HandlerError, got %T", err)
	}
	if herr.Index != 1 || herr.Owner != "com.example.mod" {
		t.Errorf("handler error = %+v", herr)
	}
	if got := strings.Join(ev.Calls, ","); got != "first,failing" {
		t.Errorf("calls = %s, want first,failing", got)
	}
}

// TestDispatchHandlerPanic verifies panics become handler errors
func TestDispatchHandlerPanic(t *testing.T) {
	bus := NewBus(testLogger())

	SubscribeFunc(bus, func(e *fooEvent) {
		panic("bad handler")
	})
	Subscribe(bus, record("after"))

	ev := &fooEvent{}
	_, err := bus.Dispatch(context.Background(), ev)
	if !errors.Is(err, ErrHandlerPanic) {
		t.Fatalf("expected ErrHandlerPanic, got %v", err)
	}
	if len(ev.Calls) != 0 {
		t.Errorf("handlers after the panic should not run, got %v", ev.Calls)
	}
}

// TestDispatchKindMismatch verifies typed handlers reject foreign events
func TestDispatchKindMismatch(t *testing.T) {
	bus := NewBus(testLogger())

	Subscribe(bus, record("a"))

	_, err := bus.DispatchKind(context.Background(), &barEvent{}, KindFor[*fooEvent]())
	if !errors.Is(err, ErrKindMismatch) {
		t.Errorf("expected ErrKindMismatch, got %v", err)
	}
}

// TestInvoke verifies the typed dispatch surface
func TestInvoke(t *testing.T) {
	bus := NewBus(testLogger())

	ok, err := Invoke(context.Background(), bus, &fooEvent{})
	if err != nil || ok {
		t.Errorf("Invoke with no handlers = %v, %v; want false, nil", ok, err)
	}

	Subscribe(bus, record("a"))
	ev := &fooEvent{}
	ok, err = Invoke(context.Background(), bus, ev)
	if err != nil || !ok {
		t.Errorf("Invoke = %v, %v; want true, nil", ok, err)
	}
	if len(ev.Calls) != 1 {
		t.Errorf("expected 1 call, got %d", len(ev.Calls))
	}
}

// TestInvokeInterfaceKind verifies that an interface kind is its own route:
// Invoke with the interface reaches it and Dispatch of a concrete event does not.
func TestInvokeInterfaceKind(t *testing.T) {
	bus := NewBus(testLogger())

	calls := 0
	SubscribeFunc(bus, func(Cancelable) { calls++ })

	ev := &voteEvent{}
	if res, _ := bus.Dispatch(context.Background(), ev); res != NoHandlers {
		t.Errorf("Dispatch = %v, want NoHandlers", res)
	}
	ok, err := Invoke[Cancelable](context.Background(), bus, ev)
	if err != nil || !ok {
		t.Errorf("Invoke[Cancelable] = %v, %v; want true, nil", ok, err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

// TestRegisterInvalid verifies nil handlers and zero kinds are dropped
func TestRegisterInvalid(t *testing.T) {
	bus := NewBus(testLogger())

	bus.Register(KindFor[*fooEvent](), nil, 0, "")
	bus.Register(Kind{}, func(ctx context.Context, ev Event) error { return nil }, 0, "")
	Subscribe[*fooEvent](bus, nil)

	if bus.HandlerCount() != 0 {
		t.Errorf("expected no handlers, got %d", bus.HandlerCount())
	}
}

// TestKindString verifies kind names strip pointers
func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindFor[*fooEvent](), "events.fooEvent"},
		{KindFor[barEvent](), "events.barEvent"},
		{Kind{}, "<nil>"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}

	if KindOf(&fooEvent{}) != KindFor[*fooEvent]() {
		t.Error("KindOf and KindFor should agree")
	}
}

// TestKinds verifies kinds are listed by name
func TestKinds(t *testing.T) {
	bus := NewBus(testLogger())

	SubscribeFunc(bus, func(e *fooEvent) {})
	SubscribeFunc(bus, func(e *barEvent) {})
	SubscribeFunc(bus, func(e *barEvent) {})

	kinds := bus.Kinds()
	if len(kinds) != 2 {
		t.Fatalf("expected 2 kinds, got %d", len(kinds))
	}
	if kinds[0].String() != "events.barEvent" || kinds[1].String() != "events.fooEvent" {
		t.Errorf("kinds = %v", kinds)
	}
	if bus.HandlerCount() != 3 {
		t.Errorf("HandlerCount = %d, want 3", bus.HandlerCount())
	}
}

type recordingObserver struct {
	mu    sync.Mutex
	calls []Result
	errs  int
}

func (o *recordingObserver) ObserveDispatch(kind string, handlers int, result Result, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, result)
	if err != nil {
		o.errs++
	}
}

// TestObserver verifies every dispatch is reported
func TestObserver(t *testing.T) {
	obs := &recordingObserver{}
	bus := NewBus(testLogger(), WithObserver(obs))

	SubscribeFunc(bus, func(e *fooEvent) {})
	Subscribe(bus, func(ctx context.Context, e *barEvent) error { return errors.New("x") })

	bus.Dispatch(context.Background(), &fooEvent{})
	bus.Dispatch(context.Background(), &barEvent{})
	bus.Dispatch(context.Background(), &voteEvent{})

	if len(obs.calls) != 3 {
		t.Fatalf("expected 3 observations, got %d", len(obs.calls))
	}
	if obs.calls[2] != NoHandlers {
		t.Errorf("third dispatch = %s, want no_handlers", obs.calls[2])
	}
	if obs.errs != 1 {
		t.Errorf("expected 1 failed dispatch, got %d", obs.errs)
	}
}

// TestConcurrentDispatch verifies concurrent dispatches of separate events
func TestConcurrentDispatch(t *testing.T) {
	bus := NewBus(testLogger())

	var count int64
	Subscribe(bus, func(ctx context.Context, e *fooEvent) error {
		atomic.AddInt64(&count, 1)
		e.Calls = append(e.Calls, "x")
		return nil
	})
	bus.FinalizeOrdering()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ev := &fooEvent{}
			if _, err := bus.Dispatch(context.Background(), ev); err != nil {
				t.Errorf("dispatch: %v", err)
			}
			if len(ev.Calls) != 1 {
				t.Errorf("expected 1 call, got %d", len(ev.Calls))
			}
		}()
	}
	wg.Wait()

	if count != 50 {
		t.Errorf("expected 50 calls, got %d", count)
	}
}

// TestConcurrentRegisterAndDispatch verifies late registration while dispatching
func TestConcurrentRegisterAndDispatch(t *testing.T) {
	bus := NewBus(testLogger())
	SubscribeFunc(bus, func(e *fooEvent) {})
	bus.FinalizeOrdering()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(p int) {
			defer wg.Done()
			SubscribeFunc(bus, func(e *fooEvent) {}, WithPriority(p%3))
		}(i)
		go func() {
			defer wg.Done()
			bus.Dispatch(context.Background(), &fooEvent{})
		}()
	}
	wg.Wait()

	entries := bus.Handlers(KindFor[*fooEvent]())
	if len(entries) != 21 {
		t.Fatalf("expected 21 handlers, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].runsBefore(entries[i-1]) {
			t.Errorf("entries %d and %d out of order", i-1, i)
		}
	}
}

// TestHandlerReceivesSameInstance verifies mutations are visible to later handlers and the caller
func TestHandlerReceivesSameInstance(t *testing.T) {
	bus := NewBus(testLogger())

	var seen *fooEvent
	Subscribe(bus, record("a"))
	Subscribe(bus, func(ctx context.Context, e *fooEvent) error {
		seen = e
		if len(e.Calls) != 1 {
			t.Errorf("second handler should see first handler's mutation")
		}
		return nil
	})

	ev := &fooEvent{}
	bus.Dispatch(context.Background(), ev)
	if seen != ev {
		t.Error("handlers should receive the dispatched pointer")
	}
}

func BenchmarkDispatch(b *testing.B) {
	bus := NewBus(testLogger())
	for i := 0; i < 5; i++ {
		SubscribeFunc(bus, func(e *barEvent) {}, WithPriority(i))
	}
	bus.FinalizeOrdering()

	ctx := context.Background()
	ev := &barEvent{}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bus.Dispatch(ctx, ev)
	}
}
