// Package reflux provides a versioned, action-driven state store.
//
// A Store holds one immutable state tree and changes it only through
// dispatched actions. Handlers registered per action type compute deltas
// concurrently; the dispatcher joins them, folds their results in
// registration order, and commits the outcome as a single new snapshot.
// Subscribers observe the stream of snapshots through selectors and are
// notified only when their projection actually changes.
//
// # Architecture
//
// The store is built from four cooperating parts behind one handle:
//
//	                ┌─────────────────────────────────────────┐
//	  Dispatch ───▶ │               Dispatcher                │
//	                │  - fan out to handlers (concurrent)     │
//	                │  - join results, fold in order          │
//	                │  - commit exactly one snapshot          │
//	                └─────────────────────────────────────────┘
//	                      │                          │
//	                      ▼                          ▼
//	        ┌─────────────────────┐     ┌─────────────────────┐
//	        │   Action Registry   │     │   State Container   │
//	        │  - type identities  │     │  - current snapshot │
//	        │  - ordered handlers │     │  - version counter  │
//	        └─────────────────────┘     └─────────────────────┘
//	                                                 │
//	                                                 ▼
//	                                    ┌─────────────────────┐
//	                                    │     Change Bus      │
//	                                    │  - subscriptions    │
//	                                    │  - distinct-change  │
//	                                    │    notification     │
//	                                    └─────────────────────┘
//
// # Dispatch Cycle
//
// One dispatch produces at most one state transition:
//
//   - Every handler registered for the action's type receives the same
//     pre-dispatch state and runs concurrently.
//   - The dispatch settles: all handlers finish before anything is applied.
//   - Results fold in registration order. A partial value deep-merges into
//     the accumulated state; a replacement substitutes it outright.
//   - A handler error or panic aborts the dispatch with no commit and no
//     notification. State is never partially updated.
//   - If no handler contributed a value, nothing is committed and nobody
//     is notified.
//
// Overlapping dispatches are permitted. Each reads the snapshot current at
// its start and commits are atomic pointer swaps, so concurrent commits
// resolve by last commit wins rather than by queueing.
//
// # Basic Usage
//
//	store := reflux.New()
//	defer store.Close()
//
//	type increment struct{ By int }
//
//	reflux.On(store, func(ctx context.Context, st state.Value, a increment) (reflux.Result, error) {
//	    count, _ := st["count"].(int)
//	    return reflux.Merge(state.Value{"count": count + a.By}), nil
//	})
//
//	sub, _ := reflux.Select(store,
//	    func(st state.Value) int { count, _ := st["count"].(int); return count },
//	    func(count int) { fmt.Println("count is now", count) },
//	)
//	defer sub.Cancel()
//
//	store.Dispatch(ctx, increment{By: 1})
//
// # Subscriptions
//
// A subscription pairs a selector with a consumer. Selectors project a
// value out of each committed snapshot; the consumer runs only when the
// projection differs structurally from the previous one, so subscribers
// scope themselves to the state they care about. Subscribing never fires a
// synthetic notification; read Current for the present value.
//
// SubscribePath offers the same contract over gjson path expressions
// evaluated against the snapshot's JSON form:
//
//	store.SubscribePath("todos.#", func(res gjson.Result) {
//	    fmt.Println("todo count:", res.Int())
//	})
//
// # Thread Safety
//
// The Store and all public types are safe for concurrent use. Handlers for
// the same action type run concurrently with each other; consumers may
// dispatch actions or manage subscriptions from inside their callbacks.
//
// # Subpackages
//
//   - state: the Value tree model with clone, merge, and path operations
//   - script: Lua-scripted action handlers
package reflux
