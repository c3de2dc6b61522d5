package remote

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/remotecmd/internal/console"
)

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRecorder reports every forwarded command to rec.
func WithRecorder(rec Recorder) Option {
	return func(r *Router) {
		r.recorder = rec
	}
}

// Router owns the server registry and the focus state.
type Router struct {
	console  *console.Console
	registry *Registry
	logger   *slog.Logger
	recorder Recorder

	mu    sync.Mutex
	focus *focus
	stats Stats
}

// New creates a Router and subscribes it to con. The focus listener is
// registered before the dispatch listener so a focus intercepts everything.
func New(con *console.Console, opts ...Option) *Router {
	r := &Router{
		console:  con,
		registry: NewRegistry(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	con.OnCommand(r.onFocused, r.onRemote)
	con.OnHelp(r.onHelp)
	return r
}

// Attach registers t and removes it again when t closes.
func (r *Router) Attach(t Target) {
	name := t.Name()
	key := r.registry.Register(name, t)
	r.logger.Info("server attached", "server", name, "key", key)

	t.OnClose(func() {
		if r.registry.release(key, t) {
			r.logger.Info("server detached", "server", name, "key", key)
		}
	})
}

// Registry returns the server registry.
func (r *Router) Registry() *Registry {
	return r.registry
}

// Focused returns the key of the focused server.
func (r *Router) Focused() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.focus == nil {
		return "", false
	}
	return r.focus.key, true
}

// Stats returns a snapshot of the router counters.
func (r *Router) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

func (r *Router) onFocused(ctx context.Context, line string) console.Result {
	r.mu.Lock()
	r.stats.Commands++
	r.mu.Unlock()

	act, ok := planFocused(r.currentFocus(), line)
	if !ok {
		return console.Skip()
	}
	return r.apply(ctx, act)
}

func (r *Router) onRemote(ctx context.Context, line string) console.Result {
	act, ok, err := planRemote(r.registry, line)
	if !ok {
		return console.Skip()
	}
	if err != nil {
		r.mu.Lock()
		r.stats.InvalidServer++
		r.mu.Unlock()
		return console.Fail(err)
	}
	return r.apply(ctx, act)
}

// currentFocus resolves the focus through the registry. A focus whose key no
// longer maps to the same target is dropped and reported.
func (r *Router) currentFocus() *focus {
	r.mu.Lock()
	f := r.focus
	if f == nil {
		r.mu.Unlock()
		return nil
	}
	if t, ok := r.registry.Get(f.key); ok && t == f.target {
		r.mu.Unlock()
		return f
	}
	r.focus = nil
	r.stats.StaleFocusDrop++
	r.mu.Unlock()

	name := f.target.Name()
	r.logger.Warn("focused server is gone, focus cleared", "server", name, "key", f.key)
	r.console.Printf("No longer executing commands on %s.", name)
	return nil
}

func (r *Router) setFocus(f *focus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.focus = f
}

func (r *Router) apply(ctx context.Context, act action) console.Result {
	switch act.kind {
	case actionList:
		r.console.Println("Available servers:")
		for _, e := range r.registry.List() {
			r.console.Println(e.Key, "-", e.Target.Name())
		}

	case actionFocus:
		r.setFocus(&focus{key: act.key, target: act.target})
		r.logger.Info("focus set", "server", act.target.Name(), "key", act.key)
		r.console.Printf("Now executing commands on %s.", act.target.Name())
		r.console.Println(`Type "exit" to stop executing commands.`)

	case actionExit:
		r.setFocus(nil)
		r.logger.Info("focus cleared", "server", act.target.Name(), "key", act.key)
		r.console.Printf("No longer executing commands on %s.", act.target.Name())

	case actionForward:
		if err := r.forward(ctx, act); err != nil {
			return console.Fail(err)
		}

	default:
		return console.Fail(fmt.Errorf("unknown action %d", act.kind))
	}
	return console.Consume()
}

func (r *Router) forward(ctx context.Context, act action) error {
	start := time.Now()
	recognized, err := act.target.Execute(ctx, act.command)
	elapsed := time.Since(start)

	r.mu.Lock()
	r.stats.Forwarded++
	if err != nil {
		r.stats.ExecuteErrors++
	} else if !recognized {
		r.stats.Unrecognized++
	}
	r.mu.Unlock()

	r.logger.Debug("command forwarded",
		"server", act.target.Name(),
		"mode", act.mode,
		"recognized", recognized,
		"duration", elapsed,
	)

	if r.recorder != nil {
		r.recorder.RecordForward(Forward{
			Key:        act.key,
			Target:     act.target,
			Command:    act.command,
			Mode:       act.mode,
			Recognized: recognized,
			Err:        err,
			StartedAt:  start,
			Duration:   elapsed,
		})
	}

	if err != nil {
		return fmt.Errorf("execute on %s: %w", act.target.Name(), err)
	}
	if !recognized {
		r.console.Println(console.UnknownCommandHint)
	}
	return nil
}
