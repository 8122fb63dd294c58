package ready

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
)

// ErrNotReady is returned by Wait when the context ends before the gate fires.
var ErrNotReady = errors.New("ready: gate has not fired")

// Option configures a Gate.
type Option[T any] func(*Gate[T])

// WithLatest supplies the value handed to callbacks registered after the gate
// has fired and drained. Without it they receive the fired payload.
func WithLatest[T any](latest func() T) Option[T] {
	return func(g *Gate[T]) { g.latest = latest }
}

// WithBeforeDrain runs hook exactly once, on the first Fire, after the gate
// is marked ready and before Done is closed or any queued callback runs.
func WithBeforeDrain[T any](hook func(T)) Option[T] {
	return func(g *Gate[T]) { g.beforeDrain = hook }
}

// WithLogger sets the logger used to report panicking callbacks.
func WithLogger[T any](logger *slog.Logger) Option[T] {
	return func(g *Gate[T]) { g.logger = logger }
}

// WithName labels log lines from this gate.
func WithName[T any](name string) Option[T] {
	return func(g *Gate[T]) { g.name = name }
}

// Gate is a one-shot latch. It starts not ready, becomes ready on the first
// Fire and stays ready. Callbacks registered before Fire are queued and run
// once, in registration order, with the fired payload.
//
// Callbacks registered while a drain is in progress (from inside a callback
// or from another goroutine) are queued behind the current pass and run by
// the same drainer in the next pass. They never run ahead of earlier
// registrants, never twice, and are never dropped.
type Gate[T any] struct {
	mu       sync.Mutex
	fired    bool
	draining bool
	payload  T
	pending  []func(T)
	done     chan struct{}

	latest      func() T
	beforeDrain func(T)
	logger      *slog.Logger
	name        string
}

// New returns a gate in the not-ready state.
func New[T any](opts ...Option[T]) *Gate[T] {
	g := &Gate[T]{done: make(chan struct{})}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	if g.name == "" {
		g.name = "ready"
	}
	return g
}

// OnReady runs fn once the gate is ready. When the gate has already fired and
// no drain is running, fn runs immediately on the calling goroutine.
func (g *Gate[T]) OnReady(fn func(T)) {
	if fn == nil {
		return
	}
	g.mu.Lock()
	if !g.fired || g.draining {
		g.pending = append(g.pending, fn)
		g.mu.Unlock()
		return
	}
	payload := g.payload
	latest := g.latest
	g.mu.Unlock()

	if latest != nil {
		payload = latest()
	}
	g.invoke(fn, payload)
}

// Fire makes the gate ready and drains queued callbacks with payload. Only
// the first call has any effect; it returns true. Later calls return false.
func (g *Gate[T]) Fire(payload T) bool {
	g.mu.Lock()
	if g.fired {
		g.mu.Unlock()
		return false
	}
	g.fired = true
	g.draining = true
	g.payload = payload
	hook := g.beforeDrain
	g.mu.Unlock()

	if hook != nil {
		g.runHook(hook, payload)
	}
	close(g.done)

	pass := 0
	for {
		g.mu.Lock()
		batch := g.pending
		g.pending = nil
		if len(batch) == 0 {
			g.draining = false
			g.mu.Unlock()
			return true
		}
		g.mu.Unlock()

		pass++
		g.logger.Debug("draining ready callbacks", "gate", g.name, "pass", pass, "count", len(batch))
		for _, fn := range batch {
			g.invoke(fn, payload)
		}
	}
}

// Ready reports whether Fire has been called.
func (g *Gate[T]) Ready() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fired
}

// Done is closed when the gate fires, after the before-drain hook returns.
func (g *Gate[T]) Done() <-chan struct{} {
	return g.done
}

// Wait blocks until the gate fires or ctx ends. It returns the fired payload.
func (g *Gate[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-g.done:
		g.mu.Lock()
		defer g.mu.Unlock()
		return g.payload, nil
	case <-ctx.Done():
		var zero T
		return zero, errors.Join(ErrNotReady, ctx.Err())
	}
}

func (g *Gate[T]) invoke(fn func(T), payload T) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("ready callback panicked",
				"gate", g.name,
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	fn(payload)
}

func (g *Gate[T]) runHook(hook func(T), payload T) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("ready hook panicked", "gate", g.name, "panic", r)
		}
	}()
	hook(payload)
}
