package state

// Merge deep-merges patch into base and returns the combined tree. Neither
// argument is modified; the result shares no mutable nodes with patch.
//
// Keys present in patch override keys in base. When both sides hold a
// mapping under the same key the mappings merge recursively; every other
// node kind, sequences included, is replaced outright by the patch value.
func Merge(base, patch Value) Value {
	if patch == nil {
		return base
	}
	out := Clone(base)
	if out == nil {
		out = make(Value, len(patch))
	}
	mergeInto(out, patch)
	return out
}

// mergeInto merges src into dst in place. dst must be a private copy.
func mergeInto(dst, src map[string]any) {
	for k, sv := range src {
		if dv, ok := dst[k]; ok {
			dm, dstIsMap := dv.(map[string]any)
			sm, srcIsMap := sv.(map[string]any)
			if dstIsMap && srcIsMap {
				mergeInto(dm, sm)
				continue
			}
		}
		dst[k] = cloneNode(sv)
	}
}
