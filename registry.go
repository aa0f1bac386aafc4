package reflux

import "sync"

// registry maps action identities to their ordered handler lists.
// Registration order is preserved; it is the order results fold in.
type registry struct {
	mu       sync.RWMutex
	handlers map[Identity][]Handler
}

func newRegistry() *registry {
	return &registry{handlers: make(map[Identity][]Handler)}
}

// register appends h to the handler list for id.
func (r *registry) register(id Identity, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[id] = append(r.handlers[id], h)
}

// handlersFor returns a snapshot of the handler list for id. Registrations
// made after the call do not affect the returned slice, so a dispatch in
// flight keeps the handler set it started with.
func (r *registry) handlersFor(id Identity) []Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	hs := r.handlers[id]
	if len(hs) == 0 {
		return nil
	}
	out := make([]Handler, len(hs))
	copy(out, hs)
	return out
}

// size returns the total handler count across all identities.
func (r *registry) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, hs := range r.handlers {
		n += len(hs)
	}
	return n
}
