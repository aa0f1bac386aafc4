// Package main is the entry point for the refluxtodo demo, a terminal todo
// list whose entire application state lives in a reflux store. Every
// keystroke that changes anything dispatches an action; the screen redraws
// only when a change subscription fires.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/gdamore/tcell/v2"
	"github.com/tidwall/gjson"

	"github.com/quanterion/reflux"
	"github.com/quanterion/reflux/state"
)

// Version information (set via ldflags during build).
var version = "dev"

// Actions. Each user intent is its own type.
type addTodo struct{ Text string }
type toggleTodo struct{ Index int }
type removeTodo struct{ Index int }
type moveSelection struct{ Delta int }

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	store, cleanup, err := newStore(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer cleanup()

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create screen: %v\n", err)
		return 1
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to init screen: %v\n", err)
		return 1
	}
	defer screen.Fini()

	// Any state change wakes the event loop for a redraw. The consumer
	// runs inside Dispatch, so it posts an event instead of drawing.
	sub, err := store.Subscribe(
		func(st state.Value) any { return st },
		func(any) { _ = screen.PostEvent(tcell.NewEventInterrupt(nil)) },
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer sub.Cancel()

	// The status line shows the todo count through a path projection.
	var count atomic.Int64
	countSub, err := store.SubscribePath("todos.#", func(res gjson.Result) {
		count.Store(res.Int())
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer countSub.Cancel()

	ui := &view{screen: screen, store: store, count: &count}
	ui.draw()

	ctx := context.Background()
	for {
		switch ev := screen.PollEvent().(type) {
		case *tcell.EventInterrupt:
			ui.draw()
		case *tcell.EventResize:
			screen.Sync()
			ui.draw()
		case *tcell.EventKey:
			if quit := ui.handleKey(ctx, ev); quit {
				return 0
			}
		}
	}
}

// newStore builds the demo store with its handlers registered.
func newStore(opts options) (*reflux.Store, func(), error) {
	storeOpts := []reflux.Option{
		reflux.WithInitialState(state.Value{
			"todos":    []any{},
			"selected": 0,
		}),
	}

	var logFile *os.File
	if opts.logPath != "" {
		f, err := os.OpenFile(opts.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		logFile = f
		storeOpts = append(storeOpts, reflux.WithLogger(reflux.NewLogger(reflux.LoggerConfig{
			Level:  reflux.ParseLogLevel(opts.logLevel),
			Output: f,
			Prefix: "refluxtodo",
		})))
	}

	store := reflux.New(storeOpts...)
	registerHandlers(store)

	cleanup := func() {
		_ = store.Close()
		if logFile != nil {
			_ = logFile.Close()
		}
	}
	return store, cleanup, nil
}

func registerHandlers(store *reflux.Store) {
	reflux.On(store, func(_ context.Context, st state.Value, a addTodo) (reflux.Result, error) {
		if a.Text == "" {
			return reflux.None(), nil
		}
		todos := todosOf(st)
		out := make([]any, len(todos)+1)
		copy(out, todos)
		out[len(todos)] = state.Value{"text": a.Text, "done": false}
		return reflux.Merge(state.Value{"todos": out}), nil
	})

	reflux.On(store, func(_ context.Context, st state.Value, a toggleTodo) (reflux.Result, error) {
		todos := todosOf(st)
		if a.Index < 0 || a.Index >= len(todos) {
			return reflux.None(), nil
		}
		out := make([]any, len(todos))
		copy(out, todos)
		item, _ := out[a.Index].(map[string]any)
		if item == nil {
			return reflux.None(), nil
		}
		done, _ := item["done"].(bool)
		updated := state.Clone(item)
		updated["done"] = !done
		out[a.Index] = updated
		return reflux.Merge(state.Value{"todos": out}), nil
	})

	reflux.On(store, func(_ context.Context, st state.Value, a removeTodo) (reflux.Result, error) {
		todos := todosOf(st)
		if a.Index < 0 || a.Index >= len(todos) {
			return reflux.None(), nil
		}
		out := make([]any, 0, len(todos)-1)
		out = append(out, todos[:a.Index]...)
		out = append(out, todos[a.Index+1:]...)
		return reflux.Merge(state.Value{
			"todos":    out,
			"selected": clamp(selectedOf(st), 0, len(out)-1),
		}), nil
	})

	reflux.On(store, func(_ context.Context, st state.Value, a moveSelection) (reflux.Result, error) {
		todos := todosOf(st)
		next := clamp(selectedOf(st)+a.Delta, 0, len(todos)-1)
		if next == selectedOf(st) {
			return reflux.None(), nil
		}
		return reflux.Merge(state.Value{"selected": next}), nil
	})
}

func todosOf(st state.Value) []any {
	todos, _ := st["todos"].([]any)
	return todos
}

func selectedOf(st state.Value) int {
	sel, _ := st["selected"].(int)
	return sel
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// view owns the screen and the pending input line. The input draft is
// ephemeral UI state; it enters the store only when the user commits it
// with Enter.
type view struct {
	screen tcell.Screen
	store  *reflux.Store
	count  *atomic.Int64
	input  []rune
}

// handleKey translates a key event into a dispatch. It returns true when
// the user asked to quit.
func (v *view) handleKey(ctx context.Context, ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyUp:
		v.dispatch(ctx, moveSelection{Delta: -1})
	case tcell.KeyDown:
		v.dispatch(ctx, moveSelection{Delta: 1})
	case tcell.KeyDelete, tcell.KeyCtrlD:
		v.dispatch(ctx, removeTodo{Index: selectedOf(v.store.Current())})
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(v.input) > 0 {
			v.input = v.input[:len(v.input)-1]
			v.draw()
		}
	case tcell.KeyEnter:
		if len(v.input) > 0 {
			v.dispatch(ctx, addTodo{Text: string(v.input)})
			v.input = v.input[:0]
			v.draw()
		} else {
			v.dispatch(ctx, toggleTodo{Index: selectedOf(v.store.Current())})
		}
	case tcell.KeyRune:
		v.input = append(v.input, ev.Rune())
		v.draw()
	}
	return false
}

func (v *view) dispatch(ctx context.Context, action any) {
	// Handler failures surface on the status line rather than crashing
	// the UI.
	if err := v.store.Dispatch(ctx, action); err != nil {
		v.drawStatus(fmt.Sprintf("error: %v", err))
	}
}

func (v *view) draw() {
	st := v.store.Current()
	todos := todosOf(st)
	selected := selectedOf(st)

	v.screen.Clear()

	title := tcell.StyleDefault.Bold(true)
	drawText(v.screen, 0, 0, title, "refluxtodo "+version)
	drawText(v.screen, 0, 1, tcell.StyleDefault, "> "+string(v.input))

	for i, item := range todos {
		m, _ := item.(map[string]any)
		if m == nil {
			continue
		}
		text, _ := m["text"].(string)
		done, _ := m["done"].(bool)

		mark := "[ ] "
		style := tcell.StyleDefault
		if done {
			mark = "[x] "
			style = style.Foreground(tcell.ColorGray)
		}
		if i == selected {
			style = style.Reverse(true)
		}
		drawText(v.screen, 0, 3+i, style, mark+text)
	}

	v.drawStatus(fmt.Sprintf("%d todos | v%d | enter add/toggle, arrows move, del remove, esc quit",
		v.count.Load(), v.store.Version()))
	v.screen.Show()
}

func (v *view) drawStatus(msg string) {
	_, h := v.screen.Size()
	drawText(v.screen, 0, h-1, tcell.StyleDefault.Reverse(true), msg)
	v.screen.Show()
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for i, r := range []rune(text) {
		s.SetContent(x+i, y, r, nil, style)
	}
}

type options struct {
	logPath  string
	logLevel string
}

func parseFlags() options {
	var opts options
	var showVersion bool

	flag.StringVar(&opts.logPath, "log", "", "Path to a log file for store diagnostics")
	flag.StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "refluxtodo - a todo list driven by a reflux store\n\n")
		fmt.Fprintf(os.Stderr, "Usage: refluxtodo [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("refluxtodo %s\n", version)
		os.Exit(0)
	}

	return opts
}
