package reflux

import "github.com/quanterion/reflux/state"

// resultKind discriminates the Result variants.
type resultKind uint8

const (
	kindNone resultKind = iota
	kindMerge
	kindReplace
)

// Result is a handler's contribution to a dispatch: a partial value to
// deep-merge into the state, a full replacement, or nothing. The zero value
// is the no-op result.
type Result struct {
	kind  resultKind
	value state.Value
}

// Merge returns a result whose value deep-merges into the accumulated
// state. A nil value contributes nothing.
func Merge(partial state.Value) Result {
	return Result{kind: kindMerge, value: partial}
}

// Replace returns a result that substitutes the accumulated state outright,
// discarding results applied before it. A nil value contributes nothing.
func Replace(full state.Value) Result {
	return Result{kind: kindReplace, value: full}
}

// None returns the no-op result. A dispatch whose handlers all return None
// commits nothing and notifies nobody.
func None() Result {
	return Result{}
}

// IsNone reports whether the result contributes nothing to the dispatch.
func (r Result) IsNone() bool {
	return r.kind == kindNone || r.value == nil
}

// IsReplace reports whether the result substitutes the state outright.
func (r Result) IsReplace() bool {
	return r.kind == kindReplace && r.value != nil
}

// Value returns the partial or replacement value, nil for a no-op.
func (r Result) Value() state.Value {
	return r.value
}
