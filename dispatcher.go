package reflux

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/quanterion/reflux/state"
)

// dispatcher runs the dispatch cycle: fan an action out to its handlers,
// join their results, fold them in registration order, and commit and
// publish the outcome as one snapshot.
type dispatcher struct {
	registry  *registry
	container *container
	bus       *bus
	ids       *identityTable
	metrics   *metrics
	logger    *Logger
}

// dispatch runs the full cycle for one action. It returns after the
// resulting snapshot, if any, is committed and published. A dispatch never
// produces more than one snapshot, and a failed dispatch produces none.
func (d *dispatcher) dispatch(ctx context.Context, action any, id Identity) error {
	start := time.Now()
	defer func() {
		d.metrics.dispatchNanos.Add(time.Since(start).Nanoseconds())
	}()
	d.metrics.dispatches.Add(1)

	handlers := d.registry.handlersFor(id)
	if len(handlers) == 0 {
		d.metrics.noHandler.Add(1)
		return nil
	}

	// Every handler sees the same pre-dispatch state.
	pre := d.container.current()
	results, errs := d.invoke(ctx, pre.Value(), action, handlers)

	// The dispatch settles before failing: all handlers have finished by
	// now, and the first failure in registration order is the one
	// reported, so the error is deterministic regardless of completion
	// order.
	for i, err := range errs {
		if err == nil {
			continue
		}
		d.logger.Error("dispatch %s aborted: handler %d: %v", d.ids.name(id), i, err)
		if pe, ok := err.(*PanicError); ok {
			pe.Action = d.ids.name(id)
			pe.Index = i
			return pe
		}
		return &HandlerError{Action: d.ids.name(id), Index: i, Err: err}
	}

	acc := pre.Value()
	defined := false
	for _, r := range results {
		switch {
		case r.IsNone():
		case r.IsReplace():
			acc = state.Clone(r.Value())
			defined = true
		default:
			acc = state.Merge(acc, r.Value())
			defined = true
		}
	}
	if !defined {
		// All handlers declined: no commit, no notification.
		return nil
	}

	snap := d.container.commit(acc)
	d.metrics.commits.Add(1)
	d.logger.Debug("committed version %d for action %s", snap.Version(), d.ids.name(id))
	d.bus.publish(snap)
	return nil
}

// invoke runs every handler against pre. A single handler runs inline;
// multiple handlers each get a goroutine and are joined before any result
// is inspected. Result and error slots are indexed by registration order.
func (d *dispatcher) invoke(ctx context.Context, pre state.Value, action any, handlers []Handler) ([]Result, []error) {
	results := make([]Result, len(handlers))
	errs := make([]error, len(handlers))

	if len(handlers) == 1 {
		results[0], errs[0] = d.run(ctx, pre, action, handlers[0])
		return results, errs
	}

	var wg sync.WaitGroup
	for i, h := range handlers {
		wg.Add(1)
		go func(i int, h Handler) {
			defer wg.Done()
			results[i], errs[i] = d.run(ctx, pre, action, h)
		}(i, h)
	}
	wg.Wait()
	return results, errs
}

// run executes one handler with panic recovery. A recovered panic becomes a
// *PanicError carrying the panic value and stack; the dispatcher fills in
// the action and index when it selects the error to return.
func (d *dispatcher) run(ctx context.Context, pre state.Value, action any, h Handler) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := make([]byte, 4096)
			n := runtime.Stack(stack, false)
			d.metrics.handlerPanics.Add(1)
			result = None()
			err = &PanicError{Value: r, Stack: string(stack[:n])}
		}
	}()

	d.metrics.handlersInvoked.Add(1)
	result, err = h.Handle(ctx, pre, action)
	if err != nil {
		d.metrics.handlerErrors.Add(1)
	}
	return result, err
}
