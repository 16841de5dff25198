package sideeffects

import (
	"context"
	"log/slog"
	"sync"
)

// Effect is best-effort work that must not fail the command that queued it.
type Effect struct {
	Name string
	Run  func(ctx context.Context) error
}

type queue struct {
	mu      sync.Mutex
	effects []Effect
}

type ctxKey struct{}

// WithQueue returns a context that collects deferred effects.
func WithQueue(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, &queue{})
}

// Defer queues fn to run once the surrounding command has committed. Without
// a queue in ctx the effect runs immediately.
func Defer(ctx context.Context, logger *slog.Logger, name string, fn func(ctx context.Context) error) {
	effect := Effect{Name: name, Run: fn}
	if q, ok := ctx.Value(ctxKey{}).(*queue); ok {
		q.mu.Lock()
		q.effects = append(q.effects, effect)
		q.mu.Unlock()
		return
	}
	run(ctx, logger, effect)
}

// Drain runs every queued effect in order. Failures are logged and swallowed.
func Drain(ctx context.Context, logger *slog.Logger) int {
	q, ok := ctx.Value(ctxKey{}).(*queue)
	if !ok {
		return 0
	}
	q.mu.Lock()
	effects := q.effects
	q.effects = nil
	q.mu.Unlock()
	for _, e := range effects {
		run(ctx, logger, e)
	}
	return len(effects)
}

// Discard drops queued effects, used when the command failed.
func Discard(ctx context.Context) {
	if q, ok := ctx.Value(ctxKey{}).(*queue); ok {
		q.mu.Lock()
		q.effects = nil
		q.mu.Unlock()
	}
}

func run(ctx context.Context, logger *slog.Logger, e Effect) {
	if e.Run == nil {
		return
	}
	if err := e.Run(ctx); err != nil && logger != nil {
		logger.Warn("side effect failed", "action", e.Name, "error", err)
	}
}
