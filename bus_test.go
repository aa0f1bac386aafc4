package reflux

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/quanterion/reflux/state"
)

// patchAction merges an arbitrary partial value; replaceAction substitutes
// the state. Together they drive any sequence of commits a test needs.
type patchAction struct{ V state.Value }
type replaceAction struct{ V state.Value }

func newBusStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	store := New(opts...)
	t.Cleanup(func() { _ = store.Close() })

	if err := On(store, func(_ context.Context, _ state.Value, a patchAction) (Result, error) {
		return Merge(a.V), nil
	}); err != nil {
		t.Fatalf("register patch handler: %v", err)
	}
	if err := On(store, func(_ context.Context, _ state.Value, a replaceAction) (Result, error) {
		return Replace(a.V), nil
	}); err != nil {
		t.Fatalf("register replace handler: %v", err)
	}
	return store
}

func TestSubscribe_DistinctUntilChanged(t *testing.T) {
	store := newBusStore(t)
	ctx := context.Background()

	var got []any
	_, err := store.Subscribe(
		func(st state.Value) any { return st["count"] },
		func(v any) { got = append(got, v) },
	)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	// Three commits, but the projection changes only twice.
	for _, n := range []int{1, 1, 2} {
		if err := store.Dispatch(ctx, replaceAction{V: state.Value{"count": n}}); err != nil {
			t.Fatalf("dispatch: %v", err)
		}
	}

	if store.Version() != 3 {
		t.Fatalf("version = %d, want 3 (every dispatch committed)", store.Version())
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("notifications = %v, want [1 2]", got)
	}
}

func TestSubscribe_NoNotificationAtSubscribeTime(t *testing.T) {
	store := newBusStore(t)
	ctx := context.Background()

	if err := store.Dispatch(ctx, patchAction{V: state.Value{"count": 1}}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	var got []any
	_, _ = store.Subscribe(
		func(st state.Value) any { return st["count"] },
		func(v any) { got = append(got, v) },
	)

	if len(got) != 0 {
		t.Fatalf("subscribe fired synthetically: %v", got)
	}

	if err := store.Dispatch(ctx, patchAction{V: state.Value{"count": 2}}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(got) != 1 || got[0] != 2 {
		t.Errorf("notifications = %v, want [2]", got)
	}
}

func TestSubscribe_UndefinedFirstObservationIsSilent(t *testing.T) {
	store := newBusStore(t)
	ctx := context.Background()

	var got []any
	_, _ = store.Subscribe(
		func(st state.Value) any { return st["missing"] },
		func(v any) { got = append(got, v) },
	)

	// The projection stays undefined across this commit.
	if err := store.Dispatch(ctx, patchAction{V: state.Value{"other": 1}}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("undefined projection fired: %v", got)
	}

	if err := store.Dispatch(ctx, patchAction{V: state.Value{"missing": 7}}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(got) != 1 || got[0] != 7 {
		t.Errorf("notifications = %v, want [7]", got)
	}
}

func TestSubscribe_DefinedToUndefinedNotifies(t *testing.T) {
	store := newBusStore(t)
	ctx := context.Background()

	var got []any
	_, _ = store.Subscribe(
		func(st state.Value) any { return st["temp"] },
		func(v any) { got = append(got, v) },
	)

	if err := store.Dispatch(ctx, patchAction{V: state.Value{"temp": 1}}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if err := store.Dispatch(ctx, replaceAction{V: state.Value{}}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("notifications = %v, want [1 <nil>]", got)
	}
	if got[0] != 1 || got[1] != nil {
		t.Errorf("notifications = %v, want [1 <nil>]", got)
	}
}

func TestSubscribe_SelectorPanicIsolated(t *testing.T) {
	store := newBusStore(t)
	ctx := context.Background()

	var healthy []any
	_, _ = store.Subscribe(
		func(st state.Value) any { panic("bad selector") },
		func(v any) { t.Error("panicking selector produced a notification") },
	)
	_, _ = store.Subscribe(
		func(st state.Value) any { return st["count"] },
		func(v any) { healthy = append(healthy, v) },
	)

	for _, n := range []int{1, 2} {
		if err := store.Dispatch(ctx, patchAction{V: state.Value{"count": n}}); err != nil {
			t.Fatalf("dispatch: %v", err)
		}
	}

	if len(healthy) != 2 {
		t.Errorf("healthy subscription notifications = %v, want [1 2]", healthy)
	}
	if got := store.Stats().SelectorPanics; got != 2 {
		t.Errorf("SelectorPanics = %d, want 2", got)
	}
}

func TestSubscription_Cancel(t *testing.T) {
	store := newBusStore(t)
	ctx := context.Background()

	var got []any
	sub, _ := store.Subscribe(
		func(st state.Value) any { return st["count"] },
		func(v any) { got = append(got, v) },
	)

	if err := store.Dispatch(ctx, patchAction{V: state.Value{"count": 1}}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	sub.Cancel()
	if sub.IsActive() {
		t.Error("subscription still active after cancel")
	}
	sub.Cancel() // idempotent

	if err := store.Dispatch(ctx, patchAction{V: state.Value{"count": 2}}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("cancelled subscription notified: %v", got)
	}
	if store.Stats().Subscriptions != 0 {
		t.Errorf("Subscriptions = %d, want 0", store.Stats().Subscriptions)
	}
}

func TestStore_UnsubscribeNilIsSafe(t *testing.T) {
	store := New()
	defer store.Close()
	store.Unsubscribe(nil)
}

func TestSubscribe_ConsumerMayCancelItself(t *testing.T) {
	store := newBusStore(t)
	ctx := context.Background()

	var calls int
	var sub *Subscription
	sub, _ = store.Subscribe(
		func(st state.Value) any { return st["count"] },
		func(v any) {
			calls++
			sub.Cancel()
		},
	)

	for _, n := range []int{1, 2, 3} {
		if err := store.Dispatch(ctx, patchAction{V: state.Value{"count": n}}); err != nil {
			t.Fatalf("dispatch: %v", err)
		}
	}
	if calls != 1 {
		t.Errorf("self-cancelling consumer ran %d times, want 1", calls)
	}
}

func TestSubscribe_ConsumerMayDispatch(t *testing.T) {
	store := newBusStore(t)
	ctx := context.Background()

	var echoed bool
	_, _ = store.Subscribe(
		func(st state.Value) any { return st["count"] },
		func(v any) {
			if !echoed {
				echoed = true
				if err := store.Dispatch(ctx, patchAction{V: state.Value{"echo": true}}); err != nil {
					t.Errorf("re-entrant dispatch: %v", err)
				}
			}
		},
	)

	if err := store.Dispatch(ctx, patchAction{V: state.Value{"count": 1}}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if store.Current()["echo"] != true {
		t.Errorf("re-entrant dispatch lost: %v", store.Current())
	}
}

func TestSubscribe_MultipleSubscribersNotifiedInOrder(t *testing.T) {
	store := newBusStore(t)
	ctx := context.Background()

	var order []string
	_, _ = store.Subscribe(
		func(st state.Value) any { return st["count"] },
		func(any) { order = append(order, "first") },
	)
	_, _ = store.Subscribe(
		func(st state.Value) any { return st["count"] },
		func(any) { order = append(order, "second") },
	)

	if err := store.Dispatch(ctx, patchAction{V: state.Value{"count": 1}}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("delivery order = %v", order)
	}
}

func TestSubscribe_Validation(t *testing.T) {
	store := New()
	defer store.Close()

	if _, err := store.Subscribe(nil, func(any) {}); !errors.Is(err, ErrNilSelector) {
		t.Errorf("nil selector error = %v", err)
	}
	if _, err := store.Subscribe(func(state.Value) any { return nil }, nil); !errors.Is(err, ErrNilConsumer) {
		t.Errorf("nil consumer error = %v", err)
	}
	if _, err := store.SubscribePath("", func(gjson.Result) {}); !errors.Is(err, ErrEmptyPath) {
		t.Errorf("empty path error = %v", err)
	}
	if _, err := store.SubscribePath("a.b", nil); !errors.Is(err, ErrNilConsumer) {
		t.Errorf("nil path consumer error = %v", err)
	}
}

func TestSubscribePath(t *testing.T) {
	store := newBusStore(t)
	ctx := context.Background()

	var got []string
	_, err := store.SubscribePath("user.name", func(res gjson.Result) {
		if res.Exists() {
			got = append(got, res.String())
		} else {
			got = append(got, "<gone>")
		}
	})
	if err != nil {
		t.Fatalf("subscribe path: %v", err)
	}

	steps := []struct {
		action any
	}{
		{patchAction{V: state.Value{"user": map[string]any{"name": "kim"}}}},
		{patchAction{V: state.Value{"user": map[string]any{"age": 30}}}}, // name unchanged
		{patchAction{V: state.Value{"user": map[string]any{"name": "lee"}}}},
		{replaceAction{V: state.Value{}}}, // path disappears
	}
	for i, s := range steps {
		if err := store.Dispatch(ctx, s.action); err != nil {
			t.Fatalf("dispatch %d: %v", i, err)
		}
	}

	want := []string{"kim", "lee", "<gone>"}
	if len(got) != len(want) {
		t.Fatalf("path notifications = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("notification %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSubscribePath_CountProjection(t *testing.T) {
	store := newBusStore(t)
	ctx := context.Background()

	var counts []int64
	_, _ = store.SubscribePath("todos.#", func(res gjson.Result) {
		counts = append(counts, res.Int())
	})

	_ = store.Dispatch(ctx, replaceAction{V: state.Value{"todos": []any{"a"}}})
	_ = store.Dispatch(ctx, replaceAction{V: state.Value{"todos": []any{"a", "b"}}})
	// Different elements, same count: the projection is unchanged.
	_ = store.Dispatch(ctx, replaceAction{V: state.Value{"todos": []any{"b", "c"}}})

	if len(counts) != 2 || counts[0] != 1 || counts[1] != 2 {
		t.Errorf("counts = %v, want [1 2]", counts)
	}
}

func TestSelect_TypedProjection(t *testing.T) {
	store := newBusStore(t, WithInitialState(state.Value{"count": 5}))
	ctx := context.Background()

	var got []int
	sub, err := Select(store,
		func(st state.Value) int {
			count, _ := st["count"].(int)
			return count
		},
		func(count int) { got = append(got, count) },
	)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	defer sub.Cancel()

	_ = store.Dispatch(ctx, patchAction{V: state.Value{"count": 6}})
	_ = store.Dispatch(ctx, patchAction{V: state.Value{"unrelated": 1}})
	_ = store.Dispatch(ctx, patchAction{V: state.Value{"count": 7}})

	if len(got) != 2 || got[0] != 6 || got[1] != 7 {
		t.Errorf("typed notifications = %v, want [6 7]", got)
	}
}

func TestSelect_Validation(t *testing.T) {
	store := New()
	defer store.Close()

	if _, err := Select[int](store, nil, func(int) {}); !errors.Is(err, ErrNilSelector) {
		t.Errorf("nil selector error = %v", err)
	}
	if _, err := Select(store, func(state.Value) int { return 0 }, nil); !errors.Is(err, ErrNilConsumer) {
		t.Errorf("nil consumer error = %v", err)
	}
}

func TestAsyncNotify_DrainsInOrderOnClose(t *testing.T) {
	store := New(WithAsyncNotify(8))

	if err := On(store, func(_ context.Context, st state.Value, a patchAction) (Result, error) {
		return Merge(a.V), nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	var mu sync.Mutex
	var got []any
	_, _ = store.Subscribe(
		func(st state.Value) any { return st["count"] },
		func(v any) {
			mu.Lock()
			got = append(got, v)
			mu.Unlock()
		},
	)

	ctx := context.Background()
	for _, n := range []int{1, 2, 3} {
		if err := store.Dispatch(ctx, patchAction{V: state.Value{"count": n}}); err != nil {
			t.Fatalf("dispatch: %v", err)
		}
	}

	// Close drains the notification backlog before returning.
	_ = store.Close()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 3 {
		t.Fatalf("notifications = %v, want [1 2 3]", got)
	}
	for i, want := range []any{1, 2, 3} {
		if got[i] != want {
			t.Errorf("notification %d = %v, want %v", i, got[i], want)
		}
	}
}

func TestClose_CancelsSubscriptions(t *testing.T) {
	store := New()

	sub, err := store.Subscribe(
		func(st state.Value) any { return st },
		func(any) {},
	)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	_ = store.Close()

	if sub.IsActive() {
		t.Error("subscription active after close")
	}
	if _, err := store.Subscribe(func(state.Value) any { return nil }, func(any) {}); !errors.Is(err, ErrStoreClosed) {
		t.Errorf("subscribe after close = %v, want ErrStoreClosed", err)
	}
	if _, err := store.SubscribePath("x", func(gjson.Result) {}); !errors.Is(err, ErrStoreClosed) {
		t.Errorf("subscribe path after close = %v, want ErrStoreClosed", err)
	}
}
