// Package events provides a type-indexed, priority-ordered event bus.
//
// Handlers are registered per event kind, either explicitly through Subscribe
// or declaratively through markers discovered at module load. Once loading is
// complete the bus is finalized, which sorts every handler list by priority.
// Dispatch then runs every handler for the event's kind, in order, passing the
// same event value to each of them.
//
// Cancellation is advisory. A handler may call Cancel on a cancelable event,
// but the bus never skips handlers because of it; the code that raised the
// event checks IsCancelled after dispatch and decides whether to run its own
// default behavior.
package events

import (
	"path"
	"reflect"
)

// Event is the minimal event shape. Embed Base to satisfy it.
type Event interface {
	event()
}

// Base is embedded by every event type.
type Base struct{}

func (Base) event() {}

// Cancelable is an event whose default host behavior can be vetoed by a handler.
type Cancelable interface {
	Event
	// Cancel marks the event cancelled. There is no way to undo it.
	Cancel()
	// IsCancelled reports whether any handler has cancelled the event.
	IsCancelled() bool
}

// CancelableBase is embedded by cancelable event types.
// Events embedding it must be dispatched by pointer.
type CancelableBase struct {
	Base
	cancelled bool
}

// Cancel marks the event cancelled.
func (c *CancelableBase) Cancel() {
	c.cancelled = true
}

// IsCancelled reports whether the event has been cancelled.
func (c *CancelableBase) IsCancelled() bool {
	return c.cancelled
}

// Kind identifies one event shape for dispatch routing.
// Two events share a kind when their dynamic Go types are identical.
type Kind struct {
	t reflect.Type
}

// KindOf returns the kind of ev's dynamic type.
func KindOf(ev Event) Kind {
	if ev == nil {
		return Kind{}
	}
	return Kind{t: reflect.TypeOf(ev)}
}

// KindFor returns the kind for the static type T.
func KindFor[T Event]() Kind {
	return Kind{t: reflect.TypeFor[T]()}
}

// KindFromType returns the kind for t. It is used by the marker scanner,
// which learns event types from handler signatures.
func KindFromType(t reflect.Type) Kind {
	return Kind{t: t}
}

// Type returns the underlying Go type.
func (k Kind) Type() reflect.Type {
	return k.t
}

// IsZero reports whether k identifies no type.
func (k Kind) IsZero() bool {
	return k.t == nil
}

// String renders the kind as "pkg.Type" with pointers stripped.
func (k Kind) String() string {
	if k.t == nil {
		return "<nil>"
	}
	t := k.t
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" || t.PkgPath() == "" {
		return t.String()
	}
	return path.Base(t.PkgPath()) + "." + t.Name()
}
