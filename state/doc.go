// Package state defines the value model for reflux stores.
//
// A state tree is a Value: a string-keyed mapping whose nodes are scalars,
// []any sequences, or nested mappings. The package provides the operations
// the engine builds on:
//
//   - Clone: deep copy, so published snapshots stay immutable
//   - Equal: structural comparison, used for distinct-change detection
//   - Merge: non-mutating deep merge of a partial value into a base tree
//   - Get/Set/At: path access through gjson/sjson path syntax
//
// Values round-trip through JSON for path operations, so numbers read back
// from Get, Set, or At follow JSON semantics (float64).
package state
