package reflux

import (
	"context"
	"sync/atomic"

	"github.com/quanterion/reflux/state"
)

// Store is the engine: one state container, one action registry, one
// dispatcher, and one change bus behind a single handle. State only changes
// through Dispatch, and every observer of the store sees the same sequence
// of committed snapshots. Hold one Store at application scope to get
// process-wide semantics; independent stores are fully isolated.
//
// All methods are safe for concurrent use.
type Store struct {
	ids       *identityTable
	registry  *registry
	container *container
	bus       *bus
	disp      *dispatcher
	metrics   *metrics

	lastAction atomic.Pointer[any]
	closed     atomic.Bool
}

// New creates a Store. Without options the store starts from an empty
// state, logs nothing, and notifies subscribers synchronously inside
// Dispatch.
func New(opts ...Option) *Store {
	cfg := defaultStoreConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	m := &metrics{}
	s := &Store{
		ids:       newIdentityTable(),
		registry:  newRegistry(),
		container: newContainer(state.Clone(cfg.initial)),
		metrics:   m,
	}
	s.bus = newBus(m, cfg.logger.WithComponent("bus"), cfg.asyncNotify)
	s.disp = &dispatcher{
		registry:  s.registry,
		container: s.container,
		bus:       s.bus,
		ids:       s.ids,
		metrics:   m,
		logger:    cfg.logger.WithComponent("dispatcher"),
	}
	return s
}

// Register binds a handler to the action type of prototype. Pointer and
// value prototypes of the same type are interchangeable. Handlers for one
// type run concurrently during a dispatch and their results fold in
// registration order; registrations last for the life of the store.
func (s *Store) Register(prototype any, h Handler) error {
	if prototype == nil {
		return ErrNilAction
	}
	if h == nil {
		return ErrNilHandler
	}
	s.registry.register(s.ids.of(prototype), h)
	return nil
}

// RegisterFunc binds a handler function to the action type of prototype.
func (s *Store) RegisterFunc(prototype any, fn HandlerFunc) error {
	if fn == nil {
		return ErrNilHandler
	}
	return s.Register(prototype, fn)
}

// On binds a typed handler function to the action type A.
func On[A any](s *Store, fn TypedHandlerFunc[A]) error {
	if fn == nil {
		return ErrNilHandler
	}
	var prototype A
	return s.Register(prototype, AsHandler(fn))
}

// Dispatch routes action to its registered handlers and blocks until the
// resulting snapshot is committed and handed to the change bus, or until
// the dispatch fails. An action type with no handlers dispatches
// successfully and changes nothing.
//
// Overlapping dispatches are legal; each reads the snapshot current at its
// start, and their commits resolve by last commit wins.
func (s *Store) Dispatch(ctx context.Context, action any) error {
	if action == nil {
		return ErrNilAction
	}
	if s.closed.Load() {
		return ErrStoreClosed
	}
	a := action
	s.lastAction.Store(&a)
	return s.disp.dispatch(ctx, action, s.ids.of(action))
}

// DispatchAsync runs Dispatch on its own goroutine and returns a buffered
// channel that receives the completion result exactly once. The channel
// never closes; receive once and drop it.
func (s *Store) DispatchAsync(ctx context.Context, action any) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- s.Dispatch(ctx, action)
	}()
	return done
}

// Current returns the latest committed state. Callers must treat the
// returned value as read-only.
func (s *Store) Current() state.Value {
	return s.container.current().Value()
}

// Snapshot returns the latest committed snapshot.
func (s *Store) Snapshot() *Snapshot {
	return s.container.current()
}

// Version returns the version of the latest committed snapshot, starting
// at 0 for the initial state.
func (s *Store) Version() uint64 {
	return s.container.current().Version()
}

// LastAction returns the most recently dispatched action, or nil before the
// first dispatch. It exists for introspection; nothing in the engine
// depends on it.
func (s *Store) LastAction() any {
	p := s.lastAction.Load()
	if p == nil {
		return nil
	}
	return *p
}

// Subscribe registers a selector and consumer pair. The consumer runs when
// the selector's projection of a newly published snapshot differs
// structurally from the previous observation, and the first time the
// projection is observed defined. Subscribing never notifies by itself;
// read Current for the present value.
func (s *Store) Subscribe(selector Selector, consumer Consumer) (*Subscription, error) {
	return s.bus.subscribe(selector, consumer)
}

// SubscribePath registers a consumer on a gjson path over the snapshot's
// JSON form. The consumer runs when the raw value under the path changes,
// including when the path disappears.
func (s *Store) SubscribePath(path string, consumer PathConsumer) (*Subscription, error) {
	return s.bus.subscribePath(path, consumer)
}

// Unsubscribe cancels sub. It is idempotent and ignores nil.
func (s *Store) Unsubscribe(sub *Subscription) {
	if sub != nil {
		sub.Cancel()
	}
}

// Select registers a typed projection on s. The consumer receives the
// zero value of T when the projection is undefined or of a different type.
func Select[T any](s *Store, selector func(st state.Value) T, consumer func(v T)) (*Subscription, error) {
	if selector == nil {
		return nil, ErrNilSelector
	}
	if consumer == nil {
		return nil, ErrNilConsumer
	}
	return s.Subscribe(
		func(st state.Value) any { return selector(st) },
		func(v any) {
			t, _ := v.(T)
			consumer(t)
		},
	)
}

// Stats returns a point-in-time snapshot of the store's counters.
func (s *Store) Stats() Stats {
	m := s.metrics
	st := Stats{
		Dispatches:          m.dispatches.Load(),
		NoHandlerDispatches: m.noHandler.Load(),
		HandlersInvoked:     m.handlersInvoked.Load(),
		HandlerErrors:       m.handlerErrors.Load(),
		HandlerPanics:       m.handlerPanics.Load(),
		Commits:             m.commits.Load(),
		Publishes:           m.publishes.Load(),
		Notifications:       m.notifications.Load(),
		SelectorPanics:      m.selectorPanics.Load(),
		Subscriptions:       s.bus.count(),
		ActionTypes:         s.ids.size(),
		RegisteredHandlers:  s.registry.size(),
	}
	if st.Dispatches > 0 {
		st.AvgDispatchNanos = m.dispatchNanos.Load() / int64(st.Dispatches)
	}
	return st
}

// Close shuts the store down: queued async notifications drain, every
// subscription is cancelled, and subsequent dispatches and subscriptions
// fail with ErrStoreClosed. The state remains readable. Close is
// idempotent.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.bus.close()
	return nil
}
