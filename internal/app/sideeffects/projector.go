package sideeffects

import (
	"context"
	"errors"
	"log/slog"
)

// Inbox deduplicates consumed events by id.
type Inbox interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

// NotificationProjector turns booking events read from the broker into
// notifications. It is used when notifications are not written inline.
type NotificationProjector struct {
	Effects *BookingEffects
	Inbox   Inbox
	Logger  *slog.Logger
}

// Project handles one CloudEvents payload. Unknown event types are skipped.
func (p *NotificationProjector) Project(ctx context.Context, payload []byte) error {
	if p.Effects == nil {
		return ErrNotConfigured
	}
	env, ev, err := DecodeEnvelope(payload)
	if errors.Is(err, ErrUnknownEvent) {
		return nil
	}
	if err != nil {
		p.logger().Warn("dropping undecodable event", "error", err)
		return nil
	}
	if p.Inbox != nil && env.ID != "" {
		seen, err := p.Inbox.Seen(ctx, env.ID)
		if err != nil {
			return err
		}
		if seen {
			p.logger().Debug("duplicate event skipped", "event_id", env.ID, "type", env.Type)
			return nil
		}
	}
	if err := p.Effects.Notify(ctx, ev); err != nil {
		if p.Inbox != nil && env.ID != "" {
			if ferr := p.Inbox.Forget(ctx, env.ID); ferr != nil {
				p.logger().Error("inbox rollback failed", "event_id", env.ID, "error", ferr)
			}
		}
		return err
	}
	p.logger().Debug("notification projected", "event_id", env.ID, "type", env.Type)
	return nil
}

func (p *NotificationProjector) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}
