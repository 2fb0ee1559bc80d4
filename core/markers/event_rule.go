package markers

import (
	"context"
	"fmt"
	"reflect"

	"github.com/artpar/mira/core/events"
)

var (
	eventType   = reflect.TypeFor[events.Event]()
	contextType = reflect.TypeFor[context.Context]()
	errorType   = reflect.TypeFor[error]()
)

// EventRule validates Event-marked functions and wraps them as bus handlers.
//
// Accepted signatures, where T is a concrete type implementing events.Event:
//
//	func(T)
//	func(T) error
//	func(context.Context, T)
//	func(context.Context, T) error
func EventRule() Rule {
	return Rule{
		Name: "event",
		Kind: RequestEventHandler,
		Match: func(m Marker) bool {
			_, ok := m.(Event)
			return ok
		},
		Build: buildEventHandler,
	}
}

func buildEventHandler(sc Scope, e Entity, m Marker) (Request, *Diagnostic) {
	marker := m.(Event)
	guid := sc.Module.GUID

	if e.Value == nil {
		return Request{}, ShapeMismatch(guid, e.Name, "event handler is nil")
	}
	fn := reflect.ValueOf(e.Value)
	ft := fn.Type()
	if ft.Kind() != reflect.Func {
		return Request{}, ShapeMismatch(guid, e.Name, "event handler must be a function, got %s", ft)
	}
	if fn.IsNil() {
		return Request{}, ShapeMismatch(guid, e.Name, "event handler is nil")
	}
	if ft.IsVariadic() {
		return Request{}, ShapeMismatch(guid, e.Name, "event handler must not be variadic")
	}

	withCtx := false
	var param reflect.Type
	switch ft.NumIn() {
	case 1:
		param = ft.In(0)
	case 2:
		if ft.In(0) != contextType {
			return Request{}, ShapeMismatch(guid, e.Name, "two-argument event handler must take context.Context first")
		}
		withCtx = true
		param = ft.In(1)
	default:
		return Request{}, ShapeMismatch(guid, e.Name, "event handler must take one event argument, got %d arguments", ft.NumIn())
	}
	if !param.Implements(eventType) {
		return Request{}, ShapeMismatch(guid, e.Name, "%s is not an event type", param)
	}
	// Dispatch routes by dynamic type, which is never an interface
	if param.Kind() == reflect.Interface {
		return Request{}, ShapeMismatch(guid, e.Name, "event handler must take a concrete event type, %s is an interface", param)
	}

	returnsErr := false
	switch ft.NumOut() {
	case 0:
	case 1:
		if ft.Out(0) != errorType {
			return Request{}, ShapeMismatch(guid, e.Name, "event handler may only return error, got %s", ft.Out(0))
		}
		returnsErr = true
	default:
		return Request{}, ShapeMismatch(guid, e.Name, "event handler returns %d values", ft.NumOut())
	}

	kind := events.KindFromType(param)
	handler := func(ctx context.Context, ev events.Event) error {
		arg := reflect.ValueOf(ev)
		if !arg.IsValid() || !arg.Type().AssignableTo(param) {
			return fmt.Errorf("%w: want %s, got %s", events.ErrKindMismatch, kind, events.KindOf(ev))
		}
		in := []reflect.Value{arg}
		if withCtx {
			if ctx == nil {
				ctx = context.Background()
			}
			in = []reflect.Value{reflect.ValueOf(ctx), arg}
		}
		out := fn.Call(in)
		if returnsErr && !out[0].IsNil() {
			return out[0].Interface().(error)
		}
		return nil
	}

	return Request{
		EventKind: kind,
		Handler:   handler,
		Priority:  marker.Priority,
	}, nil
}
