package state

import "reflect"

// Value is a state tree: a string-keyed mapping of scalars, []any
// sequences, and nested mappings. The engine treats every Value it
// publishes as immutable; code that receives one must not modify it.
type Value = map[string]any

// Clone returns a deep copy of v. Mutating the copy never affects v.
// Clone(nil) returns nil.
func Clone(v Value) Value {
	if v == nil {
		return nil
	}
	return cloneMap(v)
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneNode(v)
	}
	return out
}

func cloneSlice(s []any) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = cloneNode(v)
	}
	return out
}

// cloneNode deep-copies mapping and sequence nodes. Scalars and any other
// node kinds are returned as is.
func cloneNode(v any) any {
	switch n := v.(type) {
	case map[string]any:
		return cloneMap(n)
	case []any:
		return cloneSlice(n)
	default:
		return v
	}
}

// Equal reports whether two values are structurally equal. Mappings compare
// key-wise, sequences element-wise, and everything else falls back to
// reflect.DeepEqual so projections of arbitrary types compare safely.
func Equal(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	switch va := a.(type) {
	case map[string]any:
		vb, ok := b.(map[string]any)
		if !ok {
			return false
		}
		return mapsEqual(va, vb)
	case []any:
		vb, ok := b.([]any)
		if !ok {
			return false
		}
		return slicesEqual(va, vb)
	default:
		return reflect.DeepEqual(a, b)
	}
}

func mapsEqual(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, va := range a {
		vb, ok := b[k]
		if !ok || !Equal(va, vb) {
			return false
		}
	}
	return true
}

func slicesEqual(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
