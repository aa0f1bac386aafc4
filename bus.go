package reflux

import "sync"

// bus delivers committed snapshots to subscriptions. By default delivery
// runs synchronously inside the dispatch that committed; with async notify
// enabled, snapshots queue onto a buffered channel drained in order by a
// single goroutine.
type bus struct {
	mu     sync.RWMutex
	subs   []*Subscription // insertion order
	byID   map[uint64]*Subscription
	nextID uint64
	closed bool

	async  bool
	buffer chan *Snapshot
	done   chan struct{}
	wg     sync.WaitGroup

	metrics *metrics
	logger  *Logger
}

func newBus(m *metrics, logger *Logger, asyncBuffer int) *bus {
	b := &bus{
		byID:    make(map[uint64]*Subscription),
		metrics: m,
		logger:  logger,
	}
	if asyncBuffer > 0 {
		b.async = true
		b.buffer = make(chan *Snapshot, asyncBuffer)
		b.done = make(chan struct{})
		b.wg.Add(1)
		go b.drain()
	}
	return b
}

// subscribe adds a selector subscription.
func (b *bus) subscribe(sel Selector, con Consumer) (*Subscription, error) {
	if sel == nil {
		return nil, ErrNilSelector
	}
	if con == nil {
		return nil, ErrNilConsumer
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrStoreClosed
	}
	b.nextID++
	sub := &Subscription{id: b.nextID, bus: b, selector: sel, consumer: con}
	b.subs = append(b.subs, sub)
	b.byID[sub.id] = sub
	return sub, nil
}

// subscribePath adds a path subscription.
func (b *bus) subscribePath(path string, con PathConsumer) (*Subscription, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	if con == nil {
		return nil, ErrNilConsumer
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrStoreClosed
	}
	b.nextID++
	sub := &Subscription{id: b.nextID, bus: b, path: path, pathConsumer: con}
	b.subs = append(b.subs, sub)
	b.byID[sub.id] = sub
	return sub, nil
}

// remove deletes a subscription by ID. Unknown IDs are ignored.
func (b *bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub, ok := b.byID[id]
	if !ok {
		return
	}
	delete(b.byID, id)
	for i, s := range b.subs {
		if s == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			break
		}
	}
}

// count returns the number of active subscriptions.
func (b *bus) count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// publish hands a committed snapshot to every active subscription.
func (b *bus) publish(snap *Snapshot) {
	b.metrics.publishes.Add(1)
	if b.async {
		select {
		case b.buffer <- snap:
		case <-b.done:
		}
		return
	}
	b.deliver(snap)
}

// deliver notifies subscriptions in insertion order. The subscription list
// is copied under the read lock and consumers are invoked outside it, so a
// consumer may dispatch or alter subscriptions without deadlocking.
func (b *bus) deliver(snap *Snapshot) {
	b.mu.RLock()
	subs := make([]*Subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, sub := range subs {
		sub.notify(snap)
	}
}

// drain processes queued snapshots until close, then flushes the backlog
// so no accepted snapshot is dropped.
func (b *bus) drain() {
	defer b.wg.Done()
	for {
		select {
		case snap := <-b.buffer:
			b.deliver(snap)
		case <-b.done:
			for {
				select {
				case snap := <-b.buffer:
					b.deliver(snap)
				default:
					return
				}
			}
		}
	}
}

// close stops delivery and cancels every subscription. Safe to call more
// than once.
func (b *bus) close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	// Flush queued notifications before cancelling subscriptions, so
	// every snapshot accepted by publish reaches its consumers.
	if b.async {
		close(b.done)
		b.wg.Wait()
	}

	b.mu.Lock()
	subs := b.subs
	b.subs = nil
	b.byID = make(map[uint64]*Subscription)
	b.mu.Unlock()

	for _, sub := range subs {
		sub.state.Store(subscriptionCancelled)
	}
}
