package reflux

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by store operations.
var (
	// ErrStoreClosed is returned when dispatching or subscribing on a
	// closed store.
	ErrStoreClosed = errors.New("store is closed")

	// ErrNilAction is returned when a nil action is dispatched or used as
	// a registration prototype.
	ErrNilAction = errors.New("action cannot be nil")

	// ErrNilHandler is returned when registering a nil handler.
	ErrNilHandler = errors.New("handler cannot be nil")

	// ErrNilSelector is returned when subscribing with a nil selector.
	ErrNilSelector = errors.New("selector cannot be nil")

	// ErrNilConsumer is returned when subscribing with a nil consumer.
	ErrNilConsumer = errors.New("consumer cannot be nil")

	// ErrEmptyPath is returned when subscribing to an empty path.
	ErrEmptyPath = errors.New("path cannot be empty")

	// ErrHandlerPanic matches errors produced by recovered handler panics.
	ErrHandlerPanic = errors.New("handler panicked")
)

// HandlerError reports a handler failure that aborted a dispatch. The
// dispatch settles before the error is returned, so Index identifies the
// first failing handler in registration order even when several failed.
type HandlerError struct {
	Action string // action type name
	Index  int    // registration position of the failing handler
	Err    error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler %d for action %s: %v", e.Index, e.Action, e.Err)
}

// Unwrap returns the underlying handler error.
func (e *HandlerError) Unwrap() error {
	return e.Err
}

// PanicError reports a handler panic that was recovered and converted into
// a dispatch failure.
type PanicError struct {
	Action string // action type name
	Index  int    // registration position of the panicking handler
	Value  any    // recovered panic value
	Stack  string // stack trace captured at recovery
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("handler %d for action %s panicked: %v", e.Index, e.Action, e.Value)
}

// Is reports whether target is ErrHandlerPanic, so callers can detect
// panics with errors.Is without keeping the concrete type.
func (e *PanicError) Is(target error) bool {
	return target == ErrHandlerPanic
}
