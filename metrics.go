package reflux

import "sync/atomic"

// metrics collects store counters on the dispatch and notification paths.
// All counters are atomic; recording never takes a lock.
type metrics struct {
	dispatches      atomic.Uint64
	noHandler       atomic.Uint64
	handlersInvoked atomic.Uint64
	handlerErrors   atomic.Uint64
	handlerPanics   atomic.Uint64
	commits         atomic.Uint64
	publishes       atomic.Uint64
	notifications   atomic.Uint64
	selectorPanics  atomic.Uint64
	dispatchNanos   atomic.Int64
}

// Stats is a point-in-time snapshot of store counters.
type Stats struct {
	// Dispatches counts accepted dispatch calls.
	Dispatches uint64
	// NoHandlerDispatches counts dispatches that found no handlers.
	NoHandlerDispatches uint64
	// HandlersInvoked counts handler executions.
	HandlersInvoked uint64
	// HandlerErrors counts handler executions that returned an error.
	HandlerErrors uint64
	// HandlerPanics counts recovered handler panics.
	HandlerPanics uint64
	// Commits counts snapshots committed.
	Commits uint64
	// Publishes counts snapshots handed to the change bus.
	Publishes uint64
	// Notifications counts consumer callbacks invoked.
	Notifications uint64
	// SelectorPanics counts recovered selector panics.
	SelectorPanics uint64
	// AvgDispatchNanos is the mean wall time of a dispatch.
	AvgDispatchNanos int64
	// Subscriptions is the number of active subscriptions.
	Subscriptions int
	// ActionTypes is the number of action identities assigned.
	ActionTypes int
	// RegisteredHandlers is the total handler count.
	RegisteredHandlers int
}
