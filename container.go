package reflux

import (
	"sync/atomic"

	"github.com/quanterion/reflux/state"
)

// container holds the current snapshot. Reads never block and always see a
// complete snapshot; commit is a single pointer swap, so overlapping
// dispatches resolve by last commit wins.
type container struct {
	cur     atomic.Pointer[Snapshot]
	version atomic.Uint64
}

func newContainer(initial state.Value) *container {
	if initial == nil {
		initial = state.Value{}
	}
	c := &container{}
	c.cur.Store(newSnapshot(initial, 0))
	return c
}

// current returns the latest committed snapshot.
func (c *container) current() *Snapshot {
	return c.cur.Load()
}

// commit installs v as the new snapshot and returns it. Only the dispatcher
// commits; notification is the bus's job, not the container's.
func (c *container) commit(v state.Value) *Snapshot {
	snap := newSnapshot(v, c.version.Add(1))
	c.cur.Store(snap)
	return snap
}
