package script

import (
	"context"
	"errors"
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/quanterion/reflux"
	"github.com/quanterion/reflux/state"
)

// ErrBadResult reports a script returning something other than a table or
// nil as its first value.
var ErrBadResult = errors.New("script result must be a table or nil")

// replaceDirective is the second return value that marks a replacement.
const replaceDirective = "replace"

// Handler runs a compiled Lua function as an action handler. It implements
// reflux.Handler and can be registered on a store directly.
type Handler struct {
	name string

	// lua.LState is not safe for concurrent use, so calls serialize
	// through mu. Concurrent handlers of one dispatch still overlap as
	// long as they are separate Handler instances.
	mu sync.Mutex
	ls *lua.LState
	fn *lua.LFunction
}

// New compiles src, whose chunk must return a function taking
// (state, action). The name appears in errors.
func New(name, src string) (*Handler, error) {
	ls := lua.NewState()
	if err := ls.DoString(src); err != nil {
		ls.Close()
		return nil, fmt.Errorf("script %s: %w", name, err)
	}

	ret := ls.Get(-1)
	ls.Pop(1)
	fn, ok := ret.(*lua.LFunction)
	if !ok {
		ls.Close()
		return nil, fmt.Errorf("script %s: chunk must return a function, got %s", name, ret.Type())
	}

	return &Handler{name: name, ls: ls, fn: fn}, nil
}

// NewFile compiles the script in path. The file's chunk follows the same
// contract as New.
func NewFile(path string) (*Handler, error) {
	ls := lua.NewState()
	if err := ls.DoFile(path); err != nil {
		ls.Close()
		return nil, fmt.Errorf("script %s: %w", path, err)
	}

	ret := ls.Get(-1)
	ls.Pop(1)
	fn, ok := ret.(*lua.LFunction)
	if !ok {
		ls.Close()
		return nil, fmt.Errorf("script %s: chunk must return a function, got %s", path, ret.Type())
	}

	return &Handler{name: path, ls: ls, fn: fn}, nil
}

// Name returns the handler's script name.
func (h *Handler) Name() string {
	return h.name
}

// Handle implements reflux.Handler. The state converts to a Lua table, the
// action converts by value (structs become tables keyed by json tag), and
// the script's return values convert back into a reflux.Result.
func (h *Handler) Handle(ctx context.Context, st state.Value, action any) (reflux.Result, error) {
	if err := ctx.Err(); err != nil {
		return reflux.None(), err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.ls.Push(h.fn)
	h.ls.Push(toLua(h.ls, st))
	h.ls.Push(toLua(h.ls, action))
	if err := h.ls.PCall(2, 2, nil); err != nil {
		h.ls.SetTop(0)
		return reflux.None(), fmt.Errorf("script %s: %w", h.name, err)
	}

	directive := h.ls.Get(-1)
	ret := h.ls.Get(-2)
	h.ls.Pop(2)

	switch rv := ret.(type) {
	case *lua.LNilType:
		return reflux.None(), nil
	case *lua.LTable:
		m, ok := toGo(rv).(map[string]any)
		if !ok {
			return reflux.None(), fmt.Errorf("script %s: array result: %w", h.name, ErrBadResult)
		}
		if s, ok := directive.(lua.LString); ok && string(s) == replaceDirective {
			return reflux.Replace(m), nil
		}
		return reflux.Merge(m), nil
	default:
		return reflux.None(), fmt.Errorf("script %s: %s result: %w", h.name, ret.Type(), ErrBadResult)
	}
}

// Close releases the handler's Lua state. The handler must not be used
// afterwards.
func (h *Handler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ls.Close()
}
