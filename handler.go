package reflux

import (
	"context"

	"github.com/quanterion/reflux/state"
)

// Handler computes a state delta in response to a dispatched action.
//
// Handle receives the state as it was when the dispatch began. The value is
// shared with every other handler of the dispatch and must be treated as
// read-only; changes are expressed through the returned Result, never by
// mutating st. Handlers registered for the same action type run
// concurrently, so a handler shared across registrations must be safe for
// concurrent use.
type Handler interface {
	Handle(ctx context.Context, st state.Value, action any) (Result, error)
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, st state.Value, action any) (Result, error)

// Handle implements the Handler interface.
func (f HandlerFunc) Handle(ctx context.Context, st state.Value, action any) (Result, error) {
	return f(ctx, st, action)
}

// TypedHandlerFunc handles one concrete action type without type
// assertions at the call site.
type TypedHandlerFunc[A any] func(ctx context.Context, st state.Value, action A) (Result, error)

// AsHandler converts a TypedHandlerFunc into a Handler. The adapter accepts
// both A and *A action instances, matching identity assignment, which does
// not distinguish a type from its pointer.
func AsHandler[A any](fn TypedHandlerFunc[A]) Handler {
	return HandlerFunc(func(ctx context.Context, st state.Value, action any) (Result, error) {
		if a, ok := action.(A); ok {
			return fn(ctx, st, a)
		}
		if p, ok := action.(*A); ok && p != nil {
			return fn(ctx, st, *p)
		}
		return None(), nil
	})
}
