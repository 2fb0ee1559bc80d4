package events

import (
	"errors"
	"fmt"
)

var (
	// ErrHandlerInvocation matches every HandlerError.
	ErrHandlerInvocation = errors.New("event handler failed")

	// ErrHandlerPanic is wrapped when a handler panics instead of returning an error.
	ErrHandlerPanic = errors.New("event handler panicked")

	// ErrKindMismatch is returned by typed handlers that receive an event of another type.
	ErrKindMismatch = errors.New("event does not match handler kind")

	// ErrNilEvent is returned when Dispatch is called with a nil event.
	ErrNilEvent = errors.New("nil event")
)

// HandlerError reports the handler that aborted a dispatch.
// Handlers after it in the list were not invoked; effects of the handlers
// before it are kept.
type HandlerError struct {
	// Kind is the event kind being dispatched.
	Kind Kind

	// Owner is the module that registered the handler, if known.
	Owner string

	// Index is the handler's position in the finalized list.
	Index int

	// Err is the error returned by the handler or the recovered panic.
	Err error
}

// Error returns the error message.
func (e *HandlerError) Error() string {
	owner := e.Owner
	if owner == "" {
		owner = "host"
	}
	return fmt.Sprintf("event %s: handler %d (%s): %v", e.Kind, e.Index, owner, e.Err)
}

// Unwrap returns the handler's error.
func (e *HandlerError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrHandlerInvocation) true for any HandlerError.
func (e *HandlerError) Is(target error) bool {
	return target == ErrHandlerInvocation
}
