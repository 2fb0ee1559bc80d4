package events

import (
	"context"
	"fmt"
)

type registerOptions struct {
	priority int
	owner    string
}

// RegisterOption configures Subscribe.
type RegisterOption func(*registerOptions)

// WithPriority sets the handler priority. The default is 0.
func WithPriority(priority int) RegisterOption {
	return func(o *registerOptions) {
		o.priority = priority
	}
}

// WithOwner records the module registering the handler.
func WithOwner(owner string) RegisterOption {
	return func(o *registerOptions) {
		o.owner = owner
	}
}

// Subscribe registers fn for events of type T.
//
// T should be a concrete event type. An interface T is a kind of its own:
// Dispatch never produces it, so only Invoke with the same T reaches fn.
//
//	events.Subscribe(bus, func(ctx context.Context, e *StartMeeting) error {
//		...
//	}, events.WithPriority(15))
func Subscribe[T Event](b *Bus, fn func(context.Context, T) error, opts ...RegisterOption) {
	var o registerOptions
	for _, opt := range opts {
		opt(&o)
	}
	kind := KindFor[T]()
	var h Handler
	if fn != nil {
		h = func(ctx context.Context, ev Event) error {
			typed, ok := ev.(T)
			if !ok {
				return fmt.Errorf("%w: want %s, got %s", ErrKindMismatch, kind, KindOf(ev))
			}
			return fn(ctx, typed)
		}
	}
	b.Register(kind, h, o.priority, o.owner)
}

// SubscribeFunc registers a handler that cannot fail.
func SubscribeFunc[T Event](b *Bus, fn func(T), opts ...RegisterOption) {
	if fn == nil {
		Subscribe[T](b, nil, opts...)
		return
	}
	Subscribe(b, func(_ context.Context, ev T) error {
		fn(ev)
		return nil
	}, opts...)
}

// Invoke dispatches ev using the static type T for handler lookup and reports
// whether any handler existed. With an interface T only handlers subscribed
// under that same interface run; handlers of ev's concrete type do not.
func Invoke[T Event](ctx context.Context, b *Bus, ev T) (bool, error) {
	res, err := b.DispatchKind(ctx, ev, KindFor[T]())
	return res == Dispatched, err
}
