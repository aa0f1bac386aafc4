// Package script runs Lua functions as reflux action handlers.
//
// A script source must evaluate to a function taking (state, action) and
// returning an optional result table plus an optional directive string:
//
//	return function(state, action)
//	    return { count = (state.count or 0) + action.by }
//	end
//
// Returning nil contributes nothing to the dispatch. Returning a table
// deep-merges it into the state; returning a table together with the
// string "replace" substitutes the state outright. Any other return value
// fails the dispatch with ErrBadResult.
//
// Each Handler owns its own Lua state and serializes calls to it, so one
// handler instance is safe to register on any number of action types.
package script
