package reflux

import "github.com/quanterion/reflux/state"

// storeConfig holds construction options for a Store.
type storeConfig struct {
	logger      *Logger
	initial     state.Value
	asyncNotify int
}

func defaultStoreConfig() storeConfig {
	return storeConfig{logger: NullLogger}
}

// Option configures a Store at construction.
type Option func(*storeConfig)

// WithLogger routes store diagnostics (handler failures, recovered panics,
// commits at debug level) to l. The default logger is silent.
func WithLogger(l *Logger) Option {
	return func(c *storeConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithInitialState seeds the version-0 snapshot. The value is deep-copied,
// so the caller may keep using its copy. The default initial state is an
// empty value.
func WithInitialState(v state.Value) Option {
	return func(c *storeConfig) {
		c.initial = v
	}
}

// WithAsyncNotify moves change notification off the dispatching goroutine:
// committed snapshots queue onto a buffer of the given size and a single
// goroutine delivers them in commit-acceptance order. Dispatch then returns
// as soon as the snapshot is queued. Close drains the backlog before
// cancelling subscriptions.
func WithAsyncNotify(buffer int) Option {
	return func(c *storeConfig) {
		if buffer > 0 {
			c.asyncNotify = buffer
		}
	}
}
