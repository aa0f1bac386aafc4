package reflux

import (
	"sync"
	"sync/atomic"

	"github.com/tidwall/gjson"

	"github.com/quanterion/reflux/state"
)

// Selector projects a derived value out of a state tree. Selectors must be
// pure: same state in, same projection out, no side effects. A selector
// that panics marks its own projection undefined for that publish; other
// subscriptions are not affected.
type Selector func(st state.Value) any

// Consumer receives a subscription's projection each time it changes.
type Consumer func(v any)

// PathConsumer receives the gjson result at a subscribed path each time the
// raw value under the path changes.
type PathConsumer func(res gjson.Result)

// Subscription states.
const (
	subscriptionActive int32 = iota
	subscriptionCancelled
)

// Subscription binds a consumer to a projection over the stream of
// committed snapshots. The consumer runs only when the projection changes
// from the previously observed one; subscribing alone never produces a
// notification.
type Subscription struct {
	id  uint64
	bus *bus

	selector Selector
	consumer Consumer

	path         string
	pathConsumer PathConsumer

	state atomic.Int32

	// mu guards the previous observation between publishes.
	mu         sync.Mutex
	hasPrev    bool
	prev       any
	prevRaw    string
	prevExists bool
}

// ID returns the subscription identifier, unique within its store.
func (s *Subscription) ID() uint64 {
	return s.id
}

// IsActive reports whether the subscription still receives notifications.
func (s *Subscription) IsActive() bool {
	return s.state.Load() == subscriptionActive
}

// Cancel permanently stops notifications. Callbacks already in flight may
// still complete. Cancel is idempotent and safe to call from a consumer.
func (s *Subscription) Cancel() {
	if s.state.CompareAndSwap(subscriptionActive, subscriptionCancelled) {
		s.bus.remove(s.id)
	}
}

// notify projects snap and invokes the consumer when the projection
// changed. The consumer runs outside the subscription lock, so it may
// dispatch, subscribe, or cancel without deadlocking.
func (s *Subscription) notify(snap *Snapshot) {
	if !s.IsActive() {
		return
	}
	if s.pathConsumer != nil {
		s.notifyPath(snap)
		return
	}

	proj, defined := s.project(snap)

	s.mu.Lock()
	fire := false
	switch {
	case !s.hasPrev:
		// First observation: record silently unless the projection is
		// already defined.
		s.hasPrev = true
		s.prev = proj
		fire = defined
	case !state.Equal(s.prev, proj):
		s.prev = proj
		fire = true
	}
	s.mu.Unlock()

	if fire {
		s.bus.metrics.notifications.Add(1)
		s.consumer(proj)
	}
}

// project evaluates the selector, converting a panic into an undefined
// projection for this subscription only.
func (s *Subscription) project(snap *Snapshot) (proj any, defined bool) {
	defer func() {
		if r := recover(); r != nil {
			s.bus.metrics.selectorPanics.Add(1)
			s.bus.logger.Error("selector panic on subscription %d: %v", s.id, r)
			proj, defined = nil, false
		}
	}()
	proj = s.selector(snap.Value())
	return proj, proj != nil
}

// notifyPath compares the raw JSON under the subscribed path against the
// previous observation.
func (s *Subscription) notifyPath(snap *Snapshot) {
	res := snap.Get(s.path)

	s.mu.Lock()
	fire := false
	switch {
	case !s.hasPrev:
		s.hasPrev = true
		s.prevRaw, s.prevExists = res.Raw, res.Exists()
		fire = res.Exists()
	case s.prevRaw != res.Raw || s.prevExists != res.Exists():
		s.prevRaw, s.prevExists = res.Raw, res.Exists()
		fire = true
	}
	s.mu.Unlock()

	if fire {
		s.bus.metrics.notifications.Add(1)
		s.pathConsumer(res)
	}
}
