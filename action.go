package reflux

import (
	"reflect"
	"sync"
)

// Identity is the stable key assigned to an action type. Two action
// instances of the same type always carry the same identity, so they route
// to the same handlers. Identities are assigned on first sight and the
// assignment table only grows for the life of the store.
type Identity uint64

// identityTable assigns identities to action types.
type identityTable struct {
	mu     sync.RWMutex
	byType map[reflect.Type]Identity
	names  map[Identity]string
}

func newIdentityTable() *identityTable {
	return &identityTable{
		byType: make(map[reflect.Type]Identity),
		names:  make(map[Identity]string),
	}
}

// typeOf resolves an action to its declared type. Pointers resolve to their
// element type so *T shares identity with T.
func typeOf(action any) reflect.Type {
	t := reflect.TypeOf(action)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

// of returns the identity of action's type, assigning the next identity on
// first sight.
func (tab *identityTable) of(action any) Identity {
	rt := typeOf(action)

	tab.mu.RLock()
	id, ok := tab.byType[rt]
	tab.mu.RUnlock()
	if ok {
		return id
	}

	tab.mu.Lock()
	defer tab.mu.Unlock()
	if id, ok := tab.byType[rt]; ok {
		return id
	}
	id = Identity(len(tab.byType) + 1)
	tab.byType[rt] = id
	tab.names[id] = rt.String()
	return id
}

// name returns the action type name recorded for id.
func (tab *identityTable) name(id Identity) string {
	tab.mu.RLock()
	defer tab.mu.RUnlock()
	return tab.names[id]
}

// size returns the number of action types seen so far.
func (tab *identityTable) size() int {
	tab.mu.RLock()
	defer tab.mu.RUnlock()
	return len(tab.byType)
}
