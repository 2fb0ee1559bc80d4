package events

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Handler processes one event. Returning an error aborts the dispatch.
type Handler func(ctx context.Context, ev Event) error

// HandlerEntry pairs a handler with its priority and registration order.
// Entries are values; the bus never mutates one after creating it.
type HandlerEntry struct {
	// Handler is the callback.
	Handler Handler

	// Priority orders handlers within a kind. Smaller values run first.
	Priority int

	// Sequence is the bus-wide registration counter at the time of registration.
	Sequence uint64

	// Owner is the module that registered the handler ("" for host code).
	Owner string
}

// runsBefore reports whether a sorts before b: by priority, then by sequence.
func (a HandlerEntry) runsBefore(b HandlerEntry) bool {
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	return a.Sequence < b.Sequence
}

// Result tells the caller whether any handler existed for the dispatched kind.
type Result int

const (
	// NoHandlers means nothing was registered for the kind. It is not an error.
	NoHandlers Result = iota
	// Dispatched means the handler list was walked.
	Dispatched
)

// String returns the result name.
func (r Result) String() string {
	switch r {
	case NoHandlers:
		return "no_handlers"
	case Dispatched:
		return "dispatched"
	default:
		return "unknown"
	}
}

// Observer receives one call per dispatch. The metrics adapter implements it.
type Observer interface {
	ObserveDispatch(kind string, handlers int, result Result, err error)
}

// Option configures a Bus.
type Option func(*Bus)

// WithObserver attaches a dispatch observer.
func WithObserver(o Observer) Option {
	return func(b *Bus) {
		b.observer = o
	}
}

// Bus holds the handler lists for every event kind and dispatches events to them.
//
// Before FinalizeOrdering, lists are in registration order. FinalizeOrdering
// sorts them by (priority, sequence). Registration after that point is
// allowed: the new entry is inserted at its sorted position, so lists stay
// ordered without another finalize.
//
// Lists are replaced on write and never modified in place, so a dispatch
// walks a stable snapshot without holding the lock.
type Bus struct {
	mu        sync.RWMutex
	handlers  map[Kind][]HandlerEntry
	seq       uint64
	finalized bool

	logger   zerolog.Logger
	observer Observer
}

// NewBus creates an empty bus.
func NewBus(logger zerolog.Logger, opts ...Option) *Bus {
	b := &Bus{
		handlers: make(map[Kind][]HandlerEntry),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Register adds a handler for kind. It never fails; a nil handler or a zero
// kind is dropped with a warning.
func (b *Bus) Register(kind Kind, h Handler, priority int, owner string) {
	if h == nil || kind.IsZero() {
		b.logger.Warn().
			Str("kind", kind.String()).
			Str("module", owner).
			Msg("ignoring invalid event handler registration")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	entry := HandlerEntry{
		Handler:  h,
		Priority: priority,
		Sequence: b.seq,
		Owner:    owner,
	}

	current := b.handlers[kind]
	next := make([]HandlerEntry, 0, len(current)+1)
	if !b.finalized {
		next = append(next, current...)
		next = append(next, entry)
	} else {
		i := sort.Search(len(current), func(i int) bool {
			return entry.runsBefore(current[i])
		})
		next = append(next, current[:i]...)
		next = append(next, entry)
		next = append(next, current[i:]...)
	}
	b.handlers[kind] = next

	if kind.Type().Kind() == reflect.Interface {
		b.logger.Warn().
			Str("kind", kind.String()).
			Str("module", owner).
			Msg("handler registered for an interface kind, only Invoke with that type reaches it")
	}

	b.logger.Debug().
		Str("kind", kind.String()).
		Str("module", owner).
		Int("priority", priority).
		Uint64("sequence", entry.Sequence).
		Bool("late", b.finalized).
		Msg("registered event handler")
}

// FinalizeOrdering sorts every handler list by priority, ties by registration
// order. Calling it again has no effect.
func (b *Bus) FinalizeOrdering() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.finalized {
		return
	}

	for kind, list := range b.handlers {
		sorted := make([]HandlerEntry, len(list))
		copy(sorted, list)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].runsBefore(sorted[j])
		})
		b.handlers[kind] = sorted
	}
	b.finalized = true

	b.logger.Debug().
		Int("kinds", len(b.handlers)).
		Msg("event handler ordering finalized")
}

// Finalized reports whether FinalizeOrdering has run.
func (b *Bus) Finalized() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.finalized
}

// Dispatch runs every handler registered for the dynamic kind of ev.
func (b *Bus) Dispatch(ctx context.Context, ev Event) (Result, error) {
	if ev == nil {
		return NoHandlers, ErrNilEvent
	}
	return b.DispatchKind(ctx, ev, KindOf(ev))
}

// DispatchKind runs every handler registered for kind, passing ev to each.
//
// All handlers run, in list order, whether or not ev has been cancelled.
// The first handler error stops the walk and is returned as a *HandlerError
// together with Dispatched.
func (b *Bus) DispatchKind(ctx context.Context, ev Event, kind Kind) (Result, error) {
	if ev == nil {
		return NoHandlers, ErrNilEvent
	}

	b.mu.RLock()
	handlers := b.handlers[kind]
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.logger.Debug().Str("kind", kind.String()).Msg("no handlers for event")
		b.observe(kind, 0, NoHandlers, nil)
		return NoHandlers, nil
	}

	for i, entry := range handlers {
		if err := invoke(ctx, entry.Handler, ev); err != nil {
			herr := &HandlerError{Kind: kind, Owner: entry.Owner, Index: i, Err: err}
			b.logger.Error().
				Err(err).
				Str("kind", kind.String()).
				Str("module", entry.Owner).
				Int("index", i).
				Int("skipped", len(handlers)-i-1).
				Msg("event handler failed, aborting dispatch")
			b.observe(kind, i+1, Dispatched, herr)
			return Dispatched, herr
		}
	}

	b.observe(kind, len(handlers), Dispatched, nil)
	return Dispatched, nil
}

// invoke calls h and turns a panic into an error.
func invoke(ctx context.Context, h Handler, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	return h(ctx, ev)
}

func (b *Bus) observe(kind Kind, handlers int, result Result, err error) {
	if b.observer != nil {
		b.observer.ObserveDispatch(kind.String(), handlers, result, err)
	}
}

// HasHandlers reports whether any handler is registered for kind.
func (b *Bus) HasHandlers(kind Kind) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[kind]) > 0
}

// Handlers returns a copy of the handler list for kind, in dispatch order.
func (b *Bus) Handlers(kind Kind) []HandlerEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	list := b.handlers[kind]
	out := make([]HandlerEntry, len(list))
	copy(out, list)
	return out
}

// Kinds returns every kind with at least one handler, sorted by name.
func (b *Bus) Kinds() []Kind {
	b.mu.RLock()
	defer b.mu.RUnlock()

	kinds := make([]Kind, 0, len(b.handlers))
	for kind := range b.handlers {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool {
		return kinds[i].String() < kinds[j].String()
	})
	return kinds
}

// HandlerCount returns the total number of registered handlers.
func (b *Bus) HandlerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := 0
	for _, list := range b.handlers {
		n += len(list)
	}
	return n
}
