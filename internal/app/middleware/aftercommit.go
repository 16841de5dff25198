package middleware

import (
	"context"
	"log/slog"

	"rentshare/internal/app/commands"
	"rentshare/internal/app/outbox"
	"rentshare/internal/app/sideeffects"
)

// commitHooks run around the inner chain. Hooks that run after success get a
// context detached from cancellation: the state change is already durable.
type commitHooks struct {
	before  func(ctx context.Context) context.Context
	success func(ctx context.Context, cmd commands.Command)
	failure func(ctx context.Context)
}

func afterCommit(h commitHooks) CommandMiddleware {
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if h.before != nil {
				ctx = h.before(ctx)
			}
			res, err := next.Dispatch(ctx, cmd)
			if err != nil {
				if h.failure != nil {
					h.failure(ctx)
				}
				return nil, err
			}
			if h.success != nil {
				h.success(context.WithoutCancel(ctx), cmd)
			}
			return res, nil
		})
	}
}

// OutboxFlush hands committed events to the outbox. A flush failure is
// logged and the result still returned; the relay worker retries on its
// next poll.
func OutboxFlush(box outbox.Outbox, logger *slog.Logger) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return afterCommit(commitHooks{
		success: func(ctx context.Context, cmd commands.Command) {
			if err := box.Flush(ctx); err != nil && logger != nil {
				logger.Warn("outbox flush failed", "command", cmd.Key(), "error", err)
			}
		},
	})
}

// SideEffects runs best-effort work queued by handlers once the inner chain,
// including its transaction, succeeded. It must wrap Transaction.
func SideEffects(logger *slog.Logger) CommandMiddleware {
	return afterCommit(commitHooks{
		before:  sideeffects.WithQueue,
		failure: sideeffects.Discard,
		success: func(ctx context.Context, cmd commands.Command) {
			if n := sideeffects.Drain(ctx, logger); n > 0 && logger != nil {
				logger.Debug("side effects drained", "command", cmd.Key(), "count", n)
			}
		},
	})
}
