package sideeffects

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	domainbooking "rentshare/internal/domain/booking"
	domainchat "rentshare/internal/domain/chat"
	domainitems "rentshare/internal/domain/items"
	domainnotifications "rentshare/internal/domain/notifications"
	"rentshare/internal/domain/shared/events"
)

var ErrNotConfigured = errors.New("sideeffects: missing collaborator")

// BookingEffects opens chat channels and writes notifications when bookings
// change state. None of its failures reach the user.
type BookingEffects struct {
	Chat          domainchat.Store
	Filter        *domainchat.ContentFilter
	Notifications domainnotifications.Repository
	Logger        *slog.Logger
	IDs           func() string
	Now           func() time.Time
	// Inline is false when notifications are produced by the event consumer instead.
	Inline bool
}

// BookingRequested queues the chat channel and the owner notification for a new request.
func (e *BookingEffects) BookingRequested(ctx context.Context, b *domainbooking.Booking, item *domainitems.Item, evs []events.DomainEvent) {
	if e == nil {
		return
	}
	snapshot := *b
	title := ""
	if item != nil {
		title = item.Title
	}
	Defer(ctx, e.Logger, "booking.open_channel", func(ctx context.Context) error {
		if err := e.OpenChannel(ctx, &snapshot, title); err != nil {
			return fmt.Errorf("booking %s: %w", snapshot.ID, err)
		}
		return nil
	})
	e.Transitioned(ctx, evs)
}

// Transitioned queues notifications for every booking event in evs.
func (e *BookingEffects) Transitioned(ctx context.Context, evs []events.DomainEvent) {
	if e == nil || !e.Inline {
		return
	}
	for _, ev := range evs {
		ev := ev
		if _, ok := NotificationFor(ev); !ok {
			continue
		}
		Defer(ctx, e.Logger, "notify."+ev.EventName(), func(ctx context.Context) error {
			return e.Notify(ctx, ev)
		})
	}
}

// OpenChannel makes sure borrower and owner share a conversation about the
// item and posts a summary of the requested range.
func (e *BookingEffects) OpenChannel(ctx context.Context, b *domainbooking.Booking, itemTitle string) error {
	if e.Chat == nil {
		return ErrNotConfigured
	}
	now := e.now()
	conv, err := e.Chat.GetOrCreateConversation(ctx, b.ItemID, []string{b.BorrowerID, b.OwnerID}, now)
	if err != nil {
		return fmt.Errorf("open conversation: %w", err)
	}
	text, err := e.Filter.Prepare(RequestSummary(b, itemTitle))
	if err != nil {
		return err
	}
	_, err = e.Chat.SendMessage(ctx, &domainchat.Message{
		ID:             domainchat.MessageID(e.id()),
		ConversationID: conv.ID,
		SenderID:       b.BorrowerID,
		Text:           text,
		CreatedAt:      now,
	})
	if err != nil {
		return fmt.Errorf("send summary: %w", err)
	}
	return nil
}

// Notify stores the notification derived from ev, if any.
func (e *BookingEffects) Notify(ctx context.Context, ev events.DomainEvent) error {
	if e.Notifications == nil {
		return ErrNotConfigured
	}
	draft, ok := NotificationFor(ev)
	if !ok {
		return nil
	}
	draft.ID = domainnotifications.NotificationID(e.id())
	draft.Now = e.now()
	n, err := domainnotifications.New(draft)
	if err != nil {
		return err
	}
	return e.Notifications.Save(ctx, n)
}

// RequestSummary is the first chat message of a new booking.
func RequestSummary(b *domainbooking.Booking, itemTitle string) string {
	var sb strings.Builder
	sb.WriteString("Booking request")
	if itemTitle != "" {
		fmt.Fprintf(&sb, " for %q", itemTitle)
	}
	fmt.Fprintf(&sb, ": %s to %s (%d days), total %d", b.Range.Start, b.Range.End, b.Range.Days(), b.TotalAmount)
	if b.Currency != "" {
		sb.WriteString(" " + b.Currency)
	}
	if b.Message != "" {
		sb.WriteString("\n\n" + b.Message)
	}
	return sb.String()
}

// NotificationFor maps a booking event to the notification its counterparty receives.
func NotificationFor(ev events.DomainEvent) (domainnotifications.NewParams, bool) {
	switch e := ev.(type) {
	case domainbooking.BookingRequested:
		return domainnotifications.NewParams{
			UserID:    e.OwnerID,
			Kind:      domainnotifications.KindBookingRequested,
			BookingID: e.BookingID,
			Title:     "New booking request",
			Body:      fmt.Sprintf("Requested %s to %s.", e.StartDate, e.EndDate),
		}, true
	case domainbooking.BookingConfirmed:
		return domainnotifications.NewParams{
			UserID:    e.BorrowerID,
			Kind:      domainnotifications.KindBookingConfirmed,
			BookingID: e.BookingID,
			Title:     "Booking confirmed",
			Body:      "The owner accepted your request.",
		}, true
	case domainbooking.BookingRejected:
		return domainnotifications.NewParams{
			UserID:    e.BorrowerID,
			Kind:      domainnotifications.KindBookingRejected,
			BookingID: e.BookingID,
			Title:     "Booking declined",
			Body:      withReason("The owner declined your request.", e.Reason),
		}, true
	case domainbooking.BookingWithdrawn:
		return domainnotifications.NewParams{
			UserID:    e.OwnerID,
			Kind:      domainnotifications.KindBookingWithdrawn,
			BookingID: e.BookingID,
			Title:     "Booking request withdrawn",
			Body:      "The borrower withdrew their request.",
		}, true
	case domainbooking.BookingCancelled:
		return domainnotifications.NewParams{
			UserID:    e.Counterparty,
			Kind:      domainnotifications.KindBookingCancelled,
			BookingID: e.BookingID,
			Title:     "Booking cancelled",
			Body:      withReason(fmt.Sprintf("The %s cancelled the booking.", e.By), e.Reason),
		}, true
	case domainbooking.BookingReverted:
		return domainnotifications.NewParams{
			UserID:    e.BorrowerID,
			Kind:      domainnotifications.KindBookingReverted,
			BookingID: e.BookingID,
			Title:     "Confirmation withdrawn",
			Body:      "The owner rescinded the confirmation; the request is pending again.",
		}, true
	}
	return domainnotifications.NewParams{}, false
}

func withReason(body, reason string) string {
	if reason == "" {
		return body
	}
	return body + " Reason: " + reason
}

func (e *BookingEffects) id() string {
	if e.IDs != nil {
		return e.IDs()
	}
	return uuid.NewString()
}

func (e *BookingEffects) now() time.Time {
	if e.Now != nil {
		return e.Now().UTC()
	}
	return time.Now().UTC()
}
