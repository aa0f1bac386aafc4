package reflux

import (
	"encoding/json"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/quanterion/reflux/state"
)

// Snapshot is one immutable committed state with its version. The JSON
// rendering used by path lookups is encoded once per snapshot, on first
// use, and shared by every reader.
type Snapshot struct {
	value   state.Value
	version uint64

	jsonOnce sync.Once
	jsonData []byte
}

func newSnapshot(v state.Value, version uint64) *Snapshot {
	return &Snapshot{value: v, version: version}
}

// Value returns the snapshot's state tree. Callers must not modify it.
func (s *Snapshot) Value() state.Value {
	return s.value
}

// Version returns the commit version. The initial state is version 0.
func (s *Snapshot) Version() uint64 {
	return s.version
}

// JSON returns the cached JSON encoding of the snapshot, or nil when the
// tree holds values that cannot be encoded.
func (s *Snapshot) JSON() []byte {
	s.jsonOnce.Do(func() {
		data, err := json.Marshal(s.value)
		if err == nil {
			s.jsonData = data
		}
	})
	return s.jsonData
}

// Get evaluates a gjson path expression against the snapshot.
func (s *Snapshot) Get(path string) gjson.Result {
	return gjson.GetBytes(s.JSON(), path)
}
